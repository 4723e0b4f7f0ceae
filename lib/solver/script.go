// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/spiral/lib/build"
	"github.com/bureau-foundation/spiral/lib/fft"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/problem"
)

// scriptWriter accumulates generator script lines.
type scriptWriter struct {
	builder strings.Builder
}

func (w *scriptWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.builder, format, args...)
	w.builder.WriteByte('\n')
}

func (w *scriptWriter) blank() { w.builder.WriteByte('\n') }

// script renders the complete generator script for d. The artifact it
// describes computes the raw transform; normalization is left to the
// caller so that the reference and artifact paths scale identically.
func script(f *family, d problem.Descriptor, platform string, printRuleTree bool) string {
	name := d.Name()
	var w scriptWriter

	w.line("Load(fftx);")
	w.line("ImportAll(fftx);")
	w.blank()
	w.line("conf := %s;", confExpression(platform))
	w.blank()
	f.transform(&w, d, name)
	w.blank()
	w.line("opts := conf.getOpts(t);")
	if platform == metadata.PlatformCUDA || platform == metadata.PlatformHIP {
		w.line("opts.wrapCFuncs := true;")
	}
	if d.Precision() == problem.Single {
		w.line(`opts.TRealCtype := "float";`)
	}
	if printRuleTree {
		w.line("opts.printRuleTree := true;")
	}
	w.line(`Add(opts.includes, "<float.h>");`)
	w.line("tt := opts.tagIt(t);")
	w.blank()
	w.line("c := opts.fftxGen(tt);")
	w.line(`PrintTo("%s%s", opts.prettyPrint(c));`, name, build.SourceExtension(platform))
	return w.builder.String()
}

func confExpression(platform string) string {
	switch platform {
	case metadata.PlatformCUDA:
		return "LocalConfig.fftx.confGPU()"
	case metadata.PlatformHIP:
		return "FFTXGlobals.defaultHIPConf()"
	default:
		return "LocalConfig.fftx.defaultConf()"
	}
}

// list renders extents as a generator list literal: [4, 4, 4].
func list(extents []int) string {
	parts := make([]string, len(extents))
	for i, extent := range extents {
		parts[i] = strconv.Itoa(extent)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func direction(d problem.Descriptor) int { return int(d.Direction()) }

// access is the generator's access pattern for a batch side: APar
// for contiguous elements, AVec for interleaved ones.
func access(mode problem.StrideMode) string {
	if mode == problem.Block {
		return "AVec"
	}
	return "APar"
}

func writeDFT(w *scriptWriter, d problem.Descriptor, name string) {
	batch := 1
	if d.Kind() == problem.BatchDFT {
		batch = d.BatchSize()
	}
	w.line("t := let(")
	w.line(`    name := "%s",`, name)
	w.line("    N  := %d,", d.Dimensions()[0])
	w.line("    TFCall(TRC(TTensorI(DFT(N, %d), %d, %s, %s)), rec(fname := name, params := []))",
		direction(d), batch, access(d.WriteStride()), access(d.ReadStride()))
	w.line(");")
}

func writeMDDFT(w *scriptWriter, d problem.Descriptor, name string) {
	w.line("t := let(ns := %s,", list(d.Dimensions()))
	w.line(`    name := "%s",`, name)
	if d.Order() == problem.ColumnMajor {
		w.line("    TFCallF(TRC(MDDFT(ns, %d)),", direction(d))
		w.line("        rec(fname := name,")
		w.line("            params := [],")
		w.line("            Xtype := TArrayNDF(TComplex, ns),")
		w.line("            Ytype := TArrayNDF(TComplex, ns)))")
	} else {
		w.line("    TFCall(MDDFT(ns, %d), rec(fname := name, params := []))", direction(d))
	}
	w.line(");")
}

func writeBatchMDDFT(w *scriptWriter, d problem.Descriptor, name string) {
	w.line("t := let(batch := %d,", d.BatchSize())
	w.line("    apat := When(true, APar, AVec),")
	w.line("    ns := %s,", list(d.Dimensions()))
	w.line("    k := %d,", direction(d))
	w.line(`    name := "%s",`, name)
	w.line("    TFCall(TRC(TTensorI(MDDFT(ns, k), batch, apat, apat)),")
	w.line("        rec(fname := name, params := []))")
	w.line(");")
}

func writeMDPRDFT(w *scriptWriter, d problem.Descriptor, name string) {
	transform := "MDPRDFT"
	if d.Direction() == problem.Inverse {
		transform = "IMDPRDFT"
	}
	w.line("t := let(ns := %s,", list(d.Dimensions()))
	w.line(`    name := "%s",`, name)
	if d.Order() == problem.ColumnMajor {
		input, output := "TArrayNDF(TReal, ns)", "TArrayNDF_ConjEven(TComplex, ns)"
		if d.Direction() == problem.Inverse {
			input, output = output, input
		}
		w.line("    TFCallF(%s(ns, %d),", transform, direction(d))
		w.line("        rec(fname := name,")
		w.line("            params := [],")
		w.line("            Xtype := %s,", input)
		w.line("            Ytype := %s))", output)
	} else {
		w.line("    TFCall(%s(ns, %d), rec(fname := name, params := []))", transform, direction(d))
	}
	w.line(");")
}

// writeConvolution emits a pipeline of stages, applied last to first,
// that reads its frequency-domain kernel from the sym parameter.
func writeConvolution(w *scriptWriter, name string, stages []string) {
	w.line(`t := let(symvar := var("sym", TPtr(TReal)),`)
	w.line("    TFCall(")
	w.line("        Compose([")
	for i, stage := range stages {
		separator := ","
		if i == len(stages)-1 {
			separator = ""
		}
		w.line("            %s%s", stage, separator)
	}
	w.line("        ]),")
	w.line(`        rec(fname := "%s", params := [symvar])`, name)
	w.line("    )")
	w.line(");")
}

// kernelReals is the number of reals in a packed kernel of shape.
func kernelReals(shape []int) int {
	return 2 * product(fft.HalfShape(shape))
}

func writeMDRCONV(w *scriptWriter, d problem.Descriptor, name string) {
	ns := list(d.Dimensions())
	writeConvolution(w, name, []string{
		fmt.Sprintf("IMDPRDFT(%s, 1)", ns),
		fmt.Sprintf("RCDiag(FDataOfs(symvar, %d, 0))", kernelReals(d.Dimensions())),
		fmt.Sprintf("MDPRDFT(%s, -1)", ns),
	})
}

func writeMDRFSCONV(w *scriptWriter, d problem.Descriptor, name string) {
	dims := d.Dimensions()
	box := fft.DoubledShape(dims)
	corner := make([]string, len(dims))
	for i, n := range dims {
		corner[i] = fmt.Sprintf("[%d..%d]", n, 2*n-1)
	}
	region := "[" + strings.Join(corner, ", ") + "]"
	writeConvolution(w, name, []string{
		fmt.Sprintf("ExtractBox(%s, %s)", list(box), region),
		fmt.Sprintf("IMDPRDFT(%s, 1)", list(box)),
		fmt.Sprintf("RCDiag(FDataOfs(symvar, %d, 0))", kernelReals(box)),
		fmt.Sprintf("MDPRDFT(%s, -1)", list(box)),
		fmt.Sprintf("ZeroEmbedBox(%s, %s)", list(box), region),
	})
}

func product(values []int) int {
	result := 1
	for _, value := range values {
		result *= value
	}
	return result
}
