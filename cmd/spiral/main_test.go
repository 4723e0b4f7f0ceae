// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/spiral/cmd/spiral/cli"
	"github.com/bureau-foundation/spiral/lib/config"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/problem"
	"github.com/bureau-foundation/spiral/lib/registry"
	"github.com/bureau-foundation/spiral/lib/solver"
	"github.com/bureau-foundation/spiral/lib/version"
)

// isolate points every option source at the test: an empty home, no
// options file and no SP_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{config.EnvConfig, config.EnvKeepTemp, config.EnvPrintRuleTree, config.EnvWorkDir, config.EnvLibraryPath} {
		t.Setenv(key, "")
	}
	return home
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var output bytes.Buffer
	err := root().Execute(cli.WithStdout(context.Background(), &output), args)
	return output.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	output, err := execute(t, args...)
	if err != nil {
		t.Fatalf("spiral %s: %v", strings.Join(args, " "), err)
	}
	return output
}

// exitCode is the exit status main would use for err, or -1 for an
// unclassified failure.
func exitCode(err error) int {
	var exit *cli.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	var usage *cli.UsageError
	if errors.As(err, &usage) {
		return cli.ExitUsage
	}
	return -1
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeArtifact writes a fake shared library exporting variant.
func writeArtifact(t *testing.T, directory string, variant metadata.Variant) string {
	t.Helper()
	return writeDocument(t, directory, variant, nil)
}

func writeDocument(t *testing.T, directory string, variant metadata.Variant, buildInfo map[string]any) string {
	t.Helper()
	document := metadata.Document{BuildInfo: buildInfo}
	document.Add(variant)
	text, err := metadata.CanonicalJSON(document)
	if err != nil {
		t.Fatal(err)
	}
	content := "\x7fELF\x02\x01\x01\x00" + metadata.StartMarker + text + metadata.EndMarker + "\x00\x00"
	return writeFile(t, filepath.Join(directory, registry.ArtifactFileName(variant.Names.Exec, variant.Platform)), content)
}

func cpuVariant(t *testing.T, params problem.Params) metadata.Variant {
	t.Helper()
	job, err := solver.JobFor(problem.MustNew(params), *config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return job.Variant
}

func TestName(t *testing.T) {
	isolate(t)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--dims", "4,4,4"}, "zmddft_fwd_4x4x4"},
		{[]string{"--kind", "MDPRDFT", "--dims", "8,8,8", "--direction", "inverse"}, "zimdprdft_8x8x8"},
		{[]string{"--kind", "MDDFT", "--dims", "4,4,4", "--colmajor"}, "zmddft_fwd_4x4x4_F"},
		{[]string{"--kind", "BATMDDFT", "--dims", "8,8,8", "--batch", "4"}, "zbatchmddft_fwd_8x8x8_4"},
		{[]string{"--kind", "batdft", "--dims", "16", "--batch-dims", "2,3", "--write-stride", "Block", "--single"}, "cdft_fwd_16_b2x3vp"},
		{[]string{"--kind", "MDRCONV", "--dims", "4,4,8"}, "dMdrconv_4x4x8"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			output := mustExecute(t, append([]string{"name"}, test.args...)...)
			if output != test.want+"\n" {
				t.Errorf("name = %q, want %q", output, test.want)
			}
		})
	}
}

func TestNameReadsOptionsFile(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, filepath.Join(home, "spiral.yaml"), "realctype: float\ncolmajor: true\n")

	output := mustExecute(t, "name", "--config", path, "--dims", "4,4,4")
	if output != "cmddft_fwd_4x4x4_F\n" {
		t.Errorf("name = %q", output)
	}

	t.Setenv(config.EnvConfig, path)
	output = mustExecute(t, "name", "--kind", "MDPRDFT", "--dims", "8,8,8")
	if output != "cmdprdft_8x8x8_F\n" {
		t.Errorf("name with SPIRAL_CONFIG = %q", output)
	}
}

func TestNameJSON(t *testing.T) {
	isolate(t)
	output := mustExecute(t, "name", "--json", "--kind", "MDPRDFT", "--dims", "8,8,8")
	var variant metadata.Variant
	if err := json.Unmarshal([]byte(output), &variant); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	want := cpuVariant(t, problem.Params{Kind: problem.MDPRDFT, Dimensions: []int{8, 8, 8}})
	if diff := cmp.Diff(want, variant); diff != "" {
		t.Errorf("variant mismatch (-want +got):\n%s", diff)
	}
}

func TestNameRejects(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{
		{"name"},
		{"name", "--kind", "DFT", "--dims", "4,4"},
		{"name", "--kind", "FFT", "--dims", "4"},
		{"name", "--dims", "4,4,4", "--direction", "sideways"},
		{"name", "--kind", "DFT", "--dims", "16", "--colmajor"},
		{"name", "--dims", "4,4,4", "--platform", "TPU"},
		{"name", "--dims", "4,4,4", "stray"},
	} {
		if _, err := execute(t, args...); exitCode(err) != cli.ExitUsage {
			t.Errorf("spiral %v error = %v, want a usage error", args, err)
		}
	}
}

func TestScript(t *testing.T) {
	home := isolate(t)

	output := mustExecute(t, "script", "--kind", "DFT", "--dims", "16")
	if !strings.Contains(output, `PrintTo("zdft_fwd_16.c", opts.prettyPrint(c));`) {
		t.Errorf("CPU script:\n%s", output)
	}

	// Scripts are generated for an explicit device platform even on a
	// machine without that device.
	output = mustExecute(t, "script", "--platform", "CUDA", "--dims", "8,8,8", "--printruletree")
	for _, fragment := range []string{"conf := LocalConfig.fftx.confGPU();", "opts.printRuleTree := true;", `PrintTo("zmddft_fwd_8x8x8.cu"`} {
		if !strings.Contains(output, fragment) {
			t.Errorf("CUDA script missing %q:\n%s", fragment, output)
		}
	}

	path := filepath.Join(home, "out", "job.g")
	if output := mustExecute(t, "script", "--dims", "4,4,4", "-o", path); output != "" {
		t.Errorf("script with --output wrote %q to stdout", output)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(written), `name := "zmddft_fwd_4x4x4",`) {
		t.Errorf("written script:\n%s", written)
	}
}

const documentJSONC = `{
  // A hand-written document for a 16-point DFT.
  "TransformTypes": ["DFT"],
  "Transforms": [
    {
      "TransformType": "DFT",
      "Dimensions": [16],
      "Direction": "Forward",
      "Precision": "Double",
      "Platform": "CPU",
      "Names": {"Init": "init_zdft_fwd_16", "Exec": "zdft_fwd_16", "Destroy": "destroy_zdft_fwd_16"},
    },
  ],
}
`

func TestMetadataEncodeDecode(t *testing.T) {
	home := isolate(t)
	input := writeFile(t, filepath.Join(home, "doc.jsonc"), documentJSONC)

	source := mustExecute(t, "metadata", "encode", input)
	for _, fragment := range []string{"zdft_fwd_16_metadata", metadata.StartMarker, metadata.EndMarker} {
		if !strings.Contains(source, fragment) {
			t.Errorf("encoded source missing %q:\n%s", fragment, source)
		}
	}

	unit := filepath.Join(home, "zdft_fwd_16_meta.c")
	mustExecute(t, "metadata", "encode", "--variable", "custom_metadata", "-o", unit, input)
	written, err := os.ReadFile(unit)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(written), "custom_metadata") {
		t.Errorf("--variable not used:\n%s", written)
	}

	decoded := mustExecute(t, "metadata", "decode", unit)
	document := metadata.Document{Transforms: []metadata.Variant{{
		TransformType: metadata.TransformDFT,
		Dimensions:    []int{16},
		Direction:     metadata.DirectionForward,
		Precision:     metadata.PrecisionDouble,
		Platform:      metadata.PlatformCPU,
		Names:         metadata.NamesFor("zdft_fwd_16"),
	}}, TransformTypes: []string{metadata.TransformDFT}}
	want, err := metadata.CanonicalJSON(document)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want+"\n", decoded); diff != "" {
		t.Errorf("decoded document mismatch (-want +got):\n%s", diff)
	}
}

func TestMetadataEncodeRejects(t *testing.T) {
	home := isolate(t)
	tests := map[string]string{
		"unknown type":  `{"TransformTypes": ["FFT"], "Transforms": [{"TransformType": "FFT", "Names": {"Exec": "x"}}]}`,
		"unknown field": `{"TransformTypes": [], "Transforms": [], "Extra": 1}`,
		"no transforms": `{"TransformTypes": [], "Transforms": []}`,
		"not json":      `TransformTypes = DFT`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			input := writeFile(t, filepath.Join(home, name+".json"), content)
			if _, err := execute(t, "metadata", "encode", input); err == nil {
				t.Error("encode succeeded")
			}
		})
	}
}

func TestMetadataDecodeWithoutRegion(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, filepath.Join(home, "plain.so"), "\x7fELF nothing here")
	_, err := execute(t, "metadata", "decode", path)
	if exitCode(err) != 1 {
		t.Errorf("decode error = %v, want exit code 1", err)
	}
}

func TestMetadataListAndResolve(t *testing.T) {
	home := isolate(t)
	libDir := filepath.Join(home, "libs")
	variant := cpuVariant(t, problem.Params{Kind: problem.MDDFT, Dimensions: []int{4, 4, 4}})
	artifact := writeArtifact(t, libDir, variant)

	listing := mustExecute(t, "metadata", "list", "--libdir", libDir)
	if !strings.Contains(listing, artifact) || !strings.Contains(listing, "zmddft_fwd_4x4x4") {
		t.Errorf("listing:\n%s", listing)
	}
	if _, err := os.Stat(filepath.Join(home, ".cache", "spiral", "scan.cache")); err != nil {
		t.Errorf("scan cache not saved: %v", err)
	}

	var records []registry.Record
	if err := json.Unmarshal([]byte(mustExecute(t, "metadata", "list", "--json", "--libdir", libDir)), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Path != artifact {
		t.Fatalf("records = %+v", records)
	}
	if diff := cmp.Diff([]metadata.Variant{variant}, records[0].Document.Transforms); diff != "" {
		t.Errorf("listed variants mismatch (-want +got):\n%s", diff)
	}

	resolved := mustExecute(t, "resolve", "--libdir", libDir, "--no-cache", "--dims", "4,4,4")
	if !strings.HasPrefix(resolved, artifact+"\tzmddft_fwd_4x4x4\t") {
		t.Errorf("resolve = %q", resolved)
	}

	query := writeFile(t, filepath.Join(home, "query.jsonc"), `{
  "TransformType": "MDDFT", // any direction, any precision
  "Dimensions": [4, 4, 4],
}`)
	var match registry.Match
	if err := json.Unmarshal([]byte(mustExecute(t, "resolve", "--libdir", libDir, "--query", query, "--json")), &match); err != nil {
		t.Fatal(err)
	}
	if match.Path != artifact || match.Names.Exec != "zmddft_fwd_4x4x4" {
		t.Errorf("match = %+v", match)
	}

	for _, args := range [][]string{
		{"--dims", "8,8,8"},
		{"--dims", "4,4,4", "--direction", "inverse"},
		{"--dims", "4,4,4", "--platform", "CUDA"},
	} {
		_, err := execute(t, append([]string{"resolve", "--libdir", libDir}, args...)...)
		if exitCode(err) != 1 {
			t.Errorf("resolve %v error = %v, want exit code 1", args, err)
		}
	}

	// A request that can never match is told apart from one that
	// found nothing.
	badQuery := writeFile(t, filepath.Join(home, "bad.jsonc"), `{"TransformType": "MDDFT", "Dims": [4]}`)
	for _, args := range [][]string{
		{"--kind", "DFT", "--dims", "4,4"},
		{"--kind", "FFT", "--dims", "4"},
		{"--dims", "4,4,4", "--platform", "TPU"},
		{"--dimz", "4,4,4"},
		{"--dims", "4,4,4", "stray"},
		{"--query", badQuery},
	} {
		_, err := execute(t, append([]string{"resolve", "--libdir", libDir}, args...)...)
		if exitCode(err) != cli.ExitUsage {
			t.Errorf("resolve %v error = %v, want exit code %d", args, err, cli.ExitUsage)
		}
	}
}

func TestMetadataListMarksStaleArtifacts(t *testing.T) {
	home := isolate(t)
	libDir := filepath.Join(home, "libs")
	old := version.Provenance{Version: "0.0.1", Commit: "abc1234", Built: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	writeDocument(t, libDir, cpuVariant(t, problem.Params{Kind: problem.DFT, Dimensions: []int{8}}), old.Map())

	listing := mustExecute(t, "metadata", "list", "--no-cache", "--libdir", libDir)
	if !strings.Contains(listing, "built by 0.0.1 (abc1234)") {
		t.Errorf("stale artifact not marked:\n%s", listing)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check string
	}{
		{"mddft", []string{"--dims", "4,4,4"}, "round trip"},
		{"mddft single column major", []string{"--dims", "4,6,8", "--single", "--colmajor"}, "round trip"},
		{"batch dft", []string{"--kind", "BATDFT", "--dims", "8", "--batch-dims", "3", "--read-stride", "Block"}, "round trip"},
		{"batch mddft", []string{"--kind", "BATMDDFT", "--dims", "4,4", "--batch", "3", "--direction", "inverse"}, "round trip"},
		{"mdprdft", []string{"--kind", "MDPRDFT", "--dims", "4,4,6"}, "round trip"},
		{"mdprdft inverse", []string{"--kind", "MDPRDFT", "--dims", "4,4,6", "--direction", "inverse"}, "round trip"},
		{"mdrconv", []string{"--kind", "MDRCONV", "--dims", "4,4,4"}, "identity"},
		{"mdrfsconv", []string{"--kind", "MDRFSCONV", "--dims", "4,4,4"}, "identity"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			home := isolate(t)
			args := append([]string{"verify", "--json", "--libdir", filepath.Join(home, "libs")}, test.args...)
			var report verifyReport
			if err := json.Unmarshal([]byte(mustExecute(t, args...)), &report); err != nil {
				t.Fatal(err)
			}
			if !report.Passed || report.Platform != metadata.PlatformCPU {
				t.Errorf("report = %+v", report)
			}
			if len(report.Checks) != 2 || report.Checks[0].Name != test.check {
				t.Fatalf("checks = %+v", report.Checks)
			}
			if report.Checks[1].Name != "artifact" || !strings.HasPrefix(report.Checks[1].Skipped, "no artifact exports") {
				t.Errorf("artifact check = %+v", report.Checks[1])
			}
		})
	}
}

func TestVerifyText(t *testing.T) {
	home := isolate(t)
	output := mustExecute(t, "verify", "--libdir", filepath.Join(home, "libs"), "--kind", "DFT", "--dims", "32")
	for _, fragment := range []string{"zdft_fwd_32 on CPU", "round trip", "ok (tolerance 1e-07)", "skipped: no artifact exports"} {
		if !strings.Contains(output, fragment) {
			t.Errorf("output missing %q:\n%s", fragment, output)
		}
	}
}

func TestVerifySnapshots(t *testing.T) {
	home := isolate(t)
	libDir := filepath.Join(home, "libs")
	snapshot := filepath.Join(home, "snapshots", "mdprdft.snap")
	transform := []string{"--libdir", libDir, "--kind", "MDPRDFT", "--dims", "4,4,6"}

	mustExecute(t, append([]string{"verify", "--save", snapshot}, transform...)...)
	if _, err := os.Stat(snapshot); err != nil {
		t.Fatalf("snapshot not saved: %v", err)
	}

	output := mustExecute(t, append([]string{"verify", "--compare", snapshot}, transform...)...)
	if !strings.Contains(output, "snapshot") {
		t.Errorf("no snapshot check in output:\n%s", output)
	}

	// Another seed gives another input, so the saved output no longer
	// matches.
	_, err := execute(t, append([]string{"verify", "--compare", snapshot, "--seed", "7"}, transform...)...)
	if exitCode(err) != 1 {
		t.Errorf("compare with another seed: error = %v, want exit code 1", err)
	}

	// A snapshot of another transform fails the comparison.
	_, err = execute(t, "verify", "--compare", snapshot, "--libdir", libDir, "--dims", "4,4,4")
	if exitCode(err) != 1 {
		t.Errorf("compare against another transform: error = %v, want exit code 1", err)
	}
}

func TestBuildThenResolve(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	home := isolate(t)
	libDir := filepath.Join(home, "libs")

	// The generator writes the script to the source file the script
	// names; the linker concatenates its inputs, which keeps the
	// metadata unit's region intact.
	generate := writeFile(t, filepath.Join(home, "generate.sh"), "cat > zdft_fwd_16.c\n")
	link := writeFile(t, filepath.Join(home, "link.sh"), "output=$2\nshift 2\ncat \"$@\" > \"$output\"\n")
	options := writeFile(t, filepath.Join(home, "spiral.yaml"), `toolchain:
  generator: /bin/sh `+generate+`
  compiler: /bin/sh
  compiler_flags: [`+link+`]
`)

	output := mustExecute(t, "build", "--config", options, "--libdir", libDir, "--workdir", t.TempDir(), "--kind", "DFT", "--dims", "16")
	want := filepath.Join(libDir, registry.ArtifactFileName("zdft_fwd_16", metadata.PlatformCPU))
	if output != want+"\n" {
		t.Errorf("build printed %q, want %q", output, want)
	}

	resolved := mustExecute(t, "resolve", "--libdir", libDir, "--kind", "DFT", "--dims", "16")
	if !strings.HasPrefix(resolved, want+"\t") {
		t.Errorf("resolve = %q", resolved)
	}
}

func TestCapability(t *testing.T) {
	var result capabilityResult
	if err := json.Unmarshal([]byte(mustExecute(t, "capability", "--json")), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Platforms) == 0 || result.Platforms[0] != metadata.PlatformCPU {
		t.Errorf("platforms = %v, want CPU first", result.Platforms)
	}
	if !strings.HasPrefix(mustExecute(t, "capability"), "platforms: CPU") {
		t.Error("text output does not start with the platform list")
	}
}

func TestVersion(t *testing.T) {
	if output := mustExecute(t, "version"); !strings.Contains(output, version.Version) {
		t.Errorf("version output %q does not contain %s", output, version.Version)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "resovle")
	if err == nil || !strings.Contains(err.Error(), `did you mean "resolve"?`) {
		t.Errorf("error = %v", err)
	}
}
