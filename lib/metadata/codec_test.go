// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// compileLiteral mimics what a C compiler does to the encoded source:
// continuations are joined, escapes are resolved, and the string ends
// up somewhere in the middle of unrelated binary data.
func compileLiteral(t *testing.T, source string) []byte {
	t.Helper()
	open := strings.Index(source, `"`)
	closing := strings.LastIndex(source, `"`)
	if open < 0 || closing <= open {
		t.Fatalf("no string literal in source:\n%s", source)
	}
	literal := strings.ReplaceAll(source[open:closing+1], "\\\n", "")
	value, err := strconv.Unquote(literal)
	if err != nil {
		t.Fatalf("unquoting literal: %v\n%s", err, literal)
	}
	binary := []byte("\x7fELF\x02\x01\x01\x00\x00\x00 .text .rodata ")
	binary = append(binary, value...)
	binary = append(binary, 0, 0xde, 0xad, 0xbe, 0xef)
	return binary
}

func TestEncodeExactText(t *testing.T) {
	source, err := Encode(map[string]any{"b": 1, "a": `say "hi"`}, "zdft_fwd_8_metadata")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "char *zdft_fwd_8_metadata = \"!!START_METADATA!!\\\n" +
		"{\\\n" +
		"  \\\"a\\\": \\\"say \\\\\\\"hi\\\\\\\"\\\",\\\n" +
		"  \\\"b\\\": 1\\\n" +
		"}\\\n" +
		"!!END_METADATA!!\";\n"
	if source != want {
		t.Errorf("Encode mismatch:\n got: %q\nwant: %q", source, want)
	}
}

func TestRoundTripGenericDocument(t *testing.T) {
	document := map[string]any{
		"SpiralBuildInfo": map[string]any{
			"Generator": "spiral 8.5.1",
			"Path":      `C:\spiral\bin`,
			"Note":      "tabs\tand \"quotes\" and <html> & more",
		},
		"TransformTypes": []any{"MDDFT"},
		"Transforms": []any{
			map[string]any{
				"TransformType": "MDDFT",
				"Dimensions":    []any{json.Number("4"), json.Number("4"), json.Number("4")},
				"Direction":     "Forward",
				"Scale":         json.Number("0.125"),
				"Enabled":       true,
				"Missing":       nil,
			},
		},
		"Unicode": "grüße",
	}

	source, err := Encode(document, "test_metadata")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	t.Run("compiled", func(t *testing.T) {
		var decoded any
		found, err := Decode(compileLiteral(t, source), &decoded)
		if err != nil || !found {
			t.Fatalf("Decode = (%v, %v), want (true, nil)", found, err)
		}
		if diff := cmp.Diff(any(document), decoded); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("source", func(t *testing.T) {
		var decoded any
		found, err := Decode([]byte(source), &decoded)
		if err != nil || !found {
			t.Fatalf("Decode = (%v, %v), want (true, nil)", found, err)
		}
		if diff := cmp.Diff(any(document), decoded); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRoundTripMarkersInValues(t *testing.T) {
	document := map[string]any{
		"SpiralBuildInfo": map[string]any{
			"Note":  "see " + EndMarker + " docs",
			"Other": StartMarker + "!",
		},
		"Size": json.Number("9007199254740993"),
	}
	source, err := Encode(document, "test_metadata")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Count(source, StartMarker) != 1 || strings.Count(source, EndMarker) != 1 {
		t.Fatalf("encoded source repeats a marker:\n%s", source)
	}

	for name, input := range map[string][]byte{
		"compiled": compileLiteral(t, source),
		"source":   []byte(source),
	} {
		t.Run(name, func(t *testing.T) {
			var decoded any
			found, err := Decode(input, &decoded)
			if err != nil || !found {
				t.Fatalf("Decode = (%v, %v), want (true, nil)", found, err)
			}
			if diff := cmp.Diff(any(document), decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeGenericRejectsTrailingData(t *testing.T) {
	input := StartMarker + `{"a": 1} {"b": 2}` + EndMarker
	var decoded any
	found, err := Decode([]byte(input), &decoded)
	var malformed *MalformedMetadataError
	if !found || !errors.As(err, &malformed) {
		t.Errorf("Decode = (%v, %v), want (true, *MalformedMetadataError)", found, err)
	}
}

func TestRoundTripTypedDocument(t *testing.T) {
	var document Document
	document.BuildInfo = map[string]any{"Version": "1.0.1"}
	document.Add(Variant{
		TransformType: TransformBatchDFT,
		Dimensions:    []int{64},
		Direction:     DirectionInverse,
		Precision:     PrecisionSingle,
		BatchSize:     6,
		ReadStride:    StrideUnit,
		WriteStride:   StrideBlock,
		Platform:      PlatformCPU,
		Names:         NamesFor("cdft_inv_64_b6vp"),
	})
	document.Add(Variant{
		TransformType: TransformMDDFT,
		Dimensions:    []int{8, 8, 8},
		Direction:     DirectionForward,
		Precision:     PrecisionDouble,
		Order:         OrderFortran,
		Platform:      PlatformCPU,
		Names:         NamesFor("zmddft_fwd_8x8x8_F"),
	})

	source, err := Encode(&document, "lib_metadata")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded Document
	found, err := Decode(compileLiteral(t, source), &decoded)
	if err != nil || !found {
		t.Fatalf("Decode = (%v, %v), want (true, nil)", found, err)
	}
	if diff := cmp.Diff(document, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	first, err := Encode(map[string]any{"z": 1, "a": 2, "m": []any{3, "x"}}, "v")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for range 20 {
		again, err := Encode(map[string]any{"m": []any{3, "x"}, "a": 2, "z": 1}, "v")
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if again != first {
			t.Fatalf("Encode is not deterministic:\n%s\n---\n%s", first, again)
		}
	}
	if strings.Index(first, `\"a\"`) > strings.Index(first, `\"z\"`) {
		t.Errorf("keys are not sorted:\n%s", first)
	}
}

func TestDecodeAbsent(t *testing.T) {
	for _, input := range [][]byte{nil, {}, []byte("\x7fELF plain library with no region"), []byte(EndMarker)} {
		var decoded any
		found, err := Decode(input, &decoded)
		if found || err != nil {
			t.Errorf("Decode(%q) = (%v, %v), want (false, nil)", input, found, err)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid json", "junk" + StartMarker + "{not json" + EndMarker},
		{"missing end marker", StartMarker + `{"TransformTypes": []}`},
		{"bad escape", StartMarker + "\\\n{\\q}\\\n" + EndMarker},
		{"wrong shape", StartMarker + `{"Transforms": "nope"}` + EndMarker},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var document Document
			found, err := Decode([]byte(test.input), &document)
			if !found {
				t.Errorf("found = false, want true")
			}
			var malformed *MalformedMetadataError
			if !errors.As(err, &malformed) {
				t.Fatalf("err = %v, want *MalformedMetadataError", err)
			}
			if want := strings.Index(test.input, StartMarker); malformed.Offset != want {
				t.Errorf("Offset = %d, want %d", malformed.Offset, want)
			}
		})
	}
}

func TestDecodeUsesFirstEndAfterStart(t *testing.T) {
	input := EndMarker + "prefix" + StartMarker + `{"a": 1}` + EndMarker + `{"b": 2}` + EndMarker
	var decoded map[string]any
	found, err := Decode([]byte(input), &decoded)
	if err != nil || !found {
		t.Fatalf("Decode = (%v, %v), want (true, nil)", found, err)
	}
	if diff := cmp.Diff(map[string]any{"a": 1.0}, decoded); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zmddft_fwd_4x4x4"+SourceFileSuffix)
	document := Document{TransformTypes: []string{TransformMDDFT}}
	if err := WriteSourceFile(path, &document, "zmddft_fwd_4x4x4"+VariableSuffix); err != nil {
		t.Fatalf("WriteSourceFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(data), "char *zmddft_fwd_4x4x4_metadata = \"") {
		t.Errorf("unexpected source prefix:\n%s", data)
	}
	var decoded Document
	if found, err := Decode(data, &decoded); !found || err != nil {
		t.Fatalf("Decode = (%v, %v)", found, err)
	}
	if diff := cmp.Diff(document.TransformTypes, decoded.TransformTypes); diff != "" {
		t.Errorf("TransformTypes mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsEmptyVariable(t *testing.T) {
	if _, err := Encode(map[string]any{}, ""); err == nil {
		t.Error("Encode with empty variable succeeded, want error")
	}
}
