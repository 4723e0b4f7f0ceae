// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package problem

import (
	"errors"
	"testing"
)

func TestName(t *testing.T) {
	tests := []struct {
		params Params
		want   string
	}{
		{Params{Kind: DFT, Dimensions: []int{64}}, "zdft_fwd_64"},
		{Params{Kind: DFT, Dimensions: []int{64}, Direction: Inverse, Precision: Single}, "cdft_inv_64"},
		{Params{Kind: BatchDFT, Dimensions: []int{32}, BatchDims: []int{2, 3}}, "zdft_fwd_32_b2x3pp"},
		{Params{Kind: BatchDFT, Dimensions: []int{32}, BatchDims: []int{6}, ReadStride: Unit, WriteStride: Block}, "zdft_fwd_32_b6vp"},
		{Params{Kind: BatchDFT, Dimensions: []int{32}, BatchDims: []int{6}, ReadStride: Block, WriteStride: Unit}, "zdft_fwd_32_b6pv"},
		{Params{Kind: MDDFT, Dimensions: []int{4, 4, 4}}, "zmddft_fwd_4x4x4"},
		{Params{Kind: MDDFT, Dimensions: []int{4, 8, 16}, Direction: Inverse, Order: ColumnMajor}, "zmddft_inv_4x8x16_F"},
		{Params{Kind: BatchMDDFT, Dimensions: []int{8, 8, 8}, BatchSize: 4, Precision: Single}, "cbatchmddft_fwd_8x8x8_4"},
		{Params{Kind: BatchMDDFT, Dimensions: []int{8, 8, 8}}, "zbatchmddft_fwd_8x8x8_1"},
		{Params{Kind: MDPRDFT, Dimensions: []int{8, 8, 8}}, "zmdprdft_8x8x8"},
		{Params{Kind: MDPRDFT, Dimensions: []int{8, 8, 8}, Direction: Inverse, Order: ColumnMajor, Precision: Single}, "cimdprdft_8x8x8_F"},
		{Params{Kind: MDRCONV, Dimensions: []int{8, 8, 8}}, "dMdrconv_8x8x8"},
		{Params{Kind: MDRFSCONV, Dimensions: []int{8, 16, 8}, Precision: Single}, "fMdrfsconv_8x16x8"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			descriptor, err := New(test.params)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := descriptor.Name(); got != test.want {
				t.Errorf("Name() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestNameChangesWithEveryField(t *testing.T) {
	base := Params{Kind: MDDFT, Dimensions: []int{4, 4, 4}}
	baseName := MustNew(base).Name()

	variations := map[string]Params{
		"dimensions": {Kind: MDDFT, Dimensions: []int{4, 4, 8}},
		"rank":       {Kind: MDDFT, Dimensions: []int{4, 4}},
		"direction":  {Kind: MDDFT, Dimensions: []int{4, 4, 4}, Direction: Inverse},
		"precision":  {Kind: MDDFT, Dimensions: []int{4, 4, 4}, Precision: Single},
		"order":      {Kind: MDDFT, Dimensions: []int{4, 4, 4}, Order: ColumnMajor},
		"kind":       {Kind: MDPRDFT, Dimensions: []int{4, 4, 4}},
		"batch":      {Kind: BatchMDDFT, Dimensions: []int{4, 4, 4}, BatchSize: 2},
	}
	seen := map[string]string{baseName: "base"}
	for field, params := range variations {
		name := MustNew(params).Name()
		if previous, exists := seen[name]; exists {
			t.Errorf("changing %s produced %q, already produced by %s", field, name, previous)
		}
		seen[name] = field
	}

	again := MustNew(Params{Kind: MDDFT, Dimensions: []int{4, 4, 4}, Direction: Forward, Precision: Double, Order: RowMajor})
	if again.Name() != baseName {
		t.Errorf("explicit defaults changed the name: %q vs %q", again.Name(), baseName)
	}
	if !again.Equal(MustNew(base)) {
		t.Error("explicit defaults produced an unequal descriptor")
	}

	batchBase := MustNew(Params{Kind: BatchDFT, Dimensions: []int{16}, BatchDims: []int{4}})
	for _, params := range []Params{
		{Kind: BatchDFT, Dimensions: []int{16}, BatchDims: []int{4}, ReadStride: Block},
		{Kind: BatchDFT, Dimensions: []int{16}, BatchDims: []int{4}, WriteStride: Block},
		{Kind: BatchDFT, Dimensions: []int{16}, BatchDims: []int{2, 2}},
		{Kind: BatchDFT, Dimensions: []int{16}, BatchDims: []int{5}},
	} {
		if name := MustNew(params).Name(); name == batchBase.Name() {
			t.Errorf("batch variation %+v kept name %q", params, name)
		}
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		field  string
	}{
		{"unknown kind", Params{Kind: 99, Dimensions: []int{4}}, "kind"},
		{"dft rank", Params{Kind: DFT, Dimensions: []int{4, 4}}, "dimensions"},
		{"no dimensions", Params{Kind: MDDFT}, "dimensions"},
		{"extent below two", Params{Kind: MDDFT, Dimensions: []int{4, 1, 4}}, "dimensions"},
		{"convolution extent below four", Params{Kind: MDRCONV, Dimensions: []int{4, 3, 4}}, "dimensions"},
		{"convolution rank", Params{Kind: MDRFSCONV, Dimensions: []int{8, 8}}, "dimensions"},
		{"bad direction", Params{Kind: MDDFT, Dimensions: []int{4}, Direction: 2}, "direction"},
		{"inverse convolution", Params{Kind: MDRCONV, Dimensions: []int{4, 4, 4}, Direction: Inverse}, "direction"},
		{"bad precision", Params{Kind: MDDFT, Dimensions: []int{4}, Precision: 7}, "precision"},
		{"column-major dft", Params{Kind: DFT, Dimensions: []int{4}, Order: ColumnMajor}, "order"},
		{"block stride on mddft", Params{Kind: MDDFT, Dimensions: []int{4}, ReadStride: Block}, "read stride"},
		{"batdft without batch", Params{Kind: BatchDFT, Dimensions: []int{8}}, "batch dims"},
		{"batdft batch of one", Params{Kind: BatchDFT, Dimensions: []int{8}, BatchDims: []int{1, 1}}, "batch dims"},
		{"batdft zero extent", Params{Kind: BatchDFT, Dimensions: []int{8}, BatchDims: []int{0, 4}}, "batch dims"},
		{"batdft inconsistent size", Params{Kind: BatchDFT, Dimensions: []int{8}, BatchDims: []int{2, 3}, BatchSize: 5}, "batch size"},
		{"dft with batch", Params{Kind: DFT, Dimensions: []int{8}, BatchDims: []int{4}}, "batch size"},
		{"negative batch", Params{Kind: BatchMDDFT, Dimensions: []int{8}, BatchSize: -1}, "batch size"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.params)
			if !errors.Is(err, ErrInvalidDescriptor) {
				t.Fatalf("New() error = %v, want ErrInvalidDescriptor", err)
			}
			var validation *DescriptorValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("error %T is not a *DescriptorValidationError", err)
			}
			if validation.Field != test.field {
				t.Errorf("Field = %q, want %q (%v)", validation.Field, test.field, err)
			}
		})
	}
}

func TestDescriptorIsImmutable(t *testing.T) {
	dimensions := []int{4, 8, 16}
	descriptor := MustNew(Params{Kind: MDDFT, Dimensions: dimensions})
	dimensions[0] = 99

	returned := descriptor.Dimensions()
	returned[1] = 99

	if got := descriptor.Dimensions(); got[0] != 4 || got[1] != 8 {
		t.Errorf("Dimensions() = %v after external mutation, want [4 8 16]", got)
	}
	if descriptor.Name() != "zmddft_fwd_4x8x16" {
		t.Errorf("Name() = %q after external mutation", descriptor.Name())
	}
}

func TestNormalization(t *testing.T) {
	tests := []struct {
		params Params
		want   float64
	}{
		{Params{Kind: MDDFT, Dimensions: []int{4, 4, 4}}, 1},
		{Params{Kind: MDDFT, Dimensions: []int{4, 4, 4}, Direction: Inverse}, 64},
		{Params{Kind: BatchMDDFT, Dimensions: []int{4, 4, 4}, BatchSize: 3, Direction: Inverse}, 64},
		{Params{Kind: BatchDFT, Dimensions: []int{16}, BatchDims: []int{6}, Direction: Inverse}, 16},
		{Params{Kind: MDPRDFT, Dimensions: []int{8, 8, 8}, Direction: Inverse}, 512},
		{Params{Kind: MDRCONV, Dimensions: []int{4, 4, 4}}, 64},
		{Params{Kind: MDRFSCONV, Dimensions: []int{4, 4, 4}}, 512},
	}
	for _, test := range tests {
		descriptor := MustNew(test.params)
		if got := descriptor.Normalization(); got != test.want {
			t.Errorf("%s: Normalization() = %v, want %v", descriptor.Name(), got, test.want)
		}
	}
}

func TestParsers(t *testing.T) {
	for _, kind := range Kinds {
		parsed, err := ParseKind(kind.String())
		if err != nil || parsed != kind {
			t.Errorf("ParseKind(%q) = %v, %v", kind.String(), parsed, err)
		}
	}
	if _, err := ParseKind("HOCKNEY"); err == nil {
		t.Error("ParseKind accepted an unknown tag")
	}
	if direction, _ := ParseDirection("I"); direction != Inverse {
		t.Errorf("ParseDirection(I) = %v", direction)
	}
	if precision, _ := ParsePrecision("float"); precision != Single {
		t.Errorf("ParsePrecision(float) = %v", precision)
	}
	if mode, _ := ParseStrideMode("v"); mode != Block {
		t.Errorf("ParseStrideMode(v) = %v", mode)
	}
}
