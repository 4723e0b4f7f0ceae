// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/spiral/lib/device"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/problem"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

func TestScriptDFT(t *testing.T) {
	solver := newSolver(t, problem.Params{Kind: problem.DFT, Dimensions: []int{16}}, Environment{})
	want := `Load(fftx);
ImportAll(fftx);

conf := LocalConfig.fftx.defaultConf();

t := let(
    name := "zdft_fwd_16",
    N  := 16,
    TFCall(TRC(TTensorI(DFT(N, -1), 1, APar, APar)), rec(fname := name, params := []))
);

opts := conf.getOpts(t);
Add(opts.includes, "<float.h>");
tt := opts.tagIt(t);

c := opts.fftxGen(tt);
PrintTo("zdft_fwd_16.c", opts.prettyPrint(c));
`
	if diff := cmp.Diff(want, solver.Script()); diff != "" {
		t.Errorf("script mismatch (-want +got):\n%s", diff)
	}
}

func TestScriptMDRCONV(t *testing.T) {
	solver := newSolver(t, problem.Params{Kind: problem.MDRCONV, Dimensions: []int{4, 4, 8}}, Environment{})
	want := `t := let(symvar := var("sym", TPtr(TReal)),
    TFCall(
        Compose([
            IMDPRDFT([4, 4, 8], 1),
            RCDiag(FDataOfs(symvar, 160, 0)),
            MDPRDFT([4, 4, 8], -1)
        ]),
        rec(fname := "dMdrconv_4x4x8", params := [symvar])
    )
);
`
	if !strings.Contains(solver.Script(), want) {
		t.Errorf("script does not contain the convolution pipeline:\n%s", solver.Script())
	}
}

func TestScriptVariants(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		params   problem.Params
		contains []string
		absent   []string
	}{
		{
			name:     "cuda single",
			platform: metadata.PlatformCUDA,
			params:   problem.Params{Kind: problem.MDDFT, Dimensions: []int{8, 8, 8}, Precision: problem.Single},
			contains: []string{
				"conf := LocalConfig.fftx.confGPU();",
				"opts.wrapCFuncs := true;",
				`opts.TRealCtype := "float";`,
				`PrintTo("cmddft_fwd_8x8x8.cu", opts.prettyPrint(c));`,
				"TFCall(MDDFT(ns, -1), rec(fname := name, params := []))",
			},
		},
		{
			name:     "hip",
			platform: metadata.PlatformHIP,
			params:   problem.Params{Kind: problem.BatchMDDFT, Dimensions: []int{4, 4, 4}, BatchSize: 2},
			contains: []string{
				"conf := FFTXGlobals.defaultHIPConf();",
				"t := let(batch := 2,",
				"TFCall(TRC(TTensorI(MDDFT(ns, k), batch, apat, apat)),",
				`PrintTo("zbatchmddft_fwd_4x4x4_2.cpp", opts.prettyPrint(c));`,
			},
			absent: []string{"TRealCtype"},
		},
		{
			name:     "batch dft layouts",
			platform: metadata.PlatformCPU,
			params: problem.Params{Kind: problem.BatchDFT, Dimensions: []int{32}, BatchDims: []int{4},
				ReadStride: problem.Unit, WriteStride: problem.Block, Direction: problem.Inverse},
			contains: []string{
				`name := "zdft_inv_32_b4vp",`,
				"TTensorI(DFT(N, 1), 4, AVec, APar)",
			},
			absent: []string{"wrapCFuncs", "Scale("},
		},
		{
			name:     "mddft column major",
			platform: metadata.PlatformCPU,
			params:   problem.Params{Kind: problem.MDDFT, Dimensions: []int{4, 6, 8}, Direction: problem.Inverse, Order: problem.ColumnMajor},
			contains: []string{
				"TFCallF(TRC(MDDFT(ns, 1)),",
				"Xtype := TArrayNDF(TComplex, ns),",
			},
		},
		{
			name:     "mdprdft inverse column major",
			platform: metadata.PlatformCPU,
			params:   problem.Params{Kind: problem.MDPRDFT, Dimensions: []int{8, 8, 8}, Direction: problem.Inverse, Order: problem.ColumnMajor},
			contains: []string{
				`name := "zimdprdft_8x8x8_F",`,
				"TFCallF(IMDPRDFT(ns, 1),",
				"Xtype := TArrayNDF_ConjEven(TComplex, ns),",
				"Ytype := TArrayNDF(TReal, ns)))",
			},
		},
		{
			name:     "free-space convolution",
			platform: metadata.PlatformCPU,
			params:   problem.Params{Kind: problem.MDRFSCONV, Dimensions: []int{4, 4, 4}},
			contains: []string{
				"ExtractBox([8, 8, 8], [[4..7], [4..7], [4..7]]),",
				"RCDiag(FDataOfs(symvar, 640, 0)),",
				"ZeroEmbedBox([8, 8, 8], [[4..7], [4..7], [4..7]])",
				`rec(fname := "dMdrfsconv_4x4x4", params := [symvar])`,
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var environment Environment
			if test.platform != metadata.PlatformCPU {
				environment.Runtime = device.NewEmulated(placementOf(test.platform), 0)
			}
			solver := newSolverOn(t, test.platform, test.params, environment)
			script := solver.Script()
			for _, fragment := range test.contains {
				if !strings.Contains(script, fragment) {
					t.Errorf("script missing %q:\n%s", fragment, script)
				}
			}
			for _, fragment := range test.absent {
				if strings.Contains(script, fragment) {
					t.Errorf("script unexpectedly contains %q", fragment)
				}
			}
		})
	}
}

func TestScriptPrintRuleTree(t *testing.T) {
	params := problem.Params{Kind: problem.MDDFT, Dimensions: []int{4, 4, 4}}
	options := testOptions(t, metadata.PlatformCPU, params)
	options.PrintRuleTree = true
	solver, err := New(problem.MustNew(params), options, Environment{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !strings.Contains(solver.Script(), "opts.printRuleTree := true;") {
		t.Error("printruletree option not reflected in the script")
	}
}

func placementOf(platform string) tensor.Placement {
	if platform == metadata.PlatformHIP {
		return tensor.HIP
	}
	return tensor.CUDA
}
