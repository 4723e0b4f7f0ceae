// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"strings"
	"testing"
)

func mddftVariant(precision string) Variant {
	return Variant{
		TransformType: TransformMDDFT,
		Dimensions:    []int{4, 4, 4},
		Direction:     DirectionForward,
		Precision:     precision,
		Order:         OrderC,
		Platform:      PlatformCPU,
		Names:         NamesFor("zmddft_fwd_4x4x4"),
	}
}

func TestDocumentAddTracksTypes(t *testing.T) {
	var document Document
	document.Add(mddftVariant(PrecisionDouble))
	document.Add(mddftVariant(PrecisionSingle))
	document.Add(Variant{TransformType: TransformDFT, Dimensions: []int{8}, Names: NamesFor("zdft_fwd_8")})

	if len(document.TransformTypes) != 2 {
		t.Fatalf("TransformTypes = %v, want two entries", document.TransformTypes)
	}
	if !document.Supports(TransformMDDFT) || !document.Supports(TransformDFT) {
		t.Errorf("Supports is false for an added type: %v", document.TransformTypes)
	}
	if document.Supports(TransformMDPRDFT) {
		t.Errorf("Supports(%q) = true for a document without it", TransformMDPRDFT)
	}
	if err := document.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name     string
		document Document
		wantErr  string
	}{
		{
			name: "duplicate identity",
			document: Document{
				TransformTypes: []string{TransformMDDFT},
				Transforms:     []Variant{mddftVariant(PrecisionDouble), mddftVariant(PrecisionDouble)},
			},
			wantErr: "structurally identical",
		},
		{
			name: "unlisted type",
			document: Document{
				Transforms: []Variant{mddftVariant(PrecisionDouble)},
			},
			wantErr: "missing from TransformTypes",
		},
		{
			name: "unknown type",
			document: Document{
				TransformTypes: []string{"HOCKNEY"},
				Transforms:     []Variant{{TransformType: "HOCKNEY", Names: NamesFor("x")}},
			},
			wantErr: "unknown transform type",
		},
		{
			name: "no exec symbol",
			document: Document{
				TransformTypes: []string{TransformDFT},
				Transforms:     []Variant{{TransformType: TransformDFT}},
			},
			wantErr: "no exec symbol",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.document.Validate()
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, test.wantErr)
			}
		})
	}
}

func TestIdentityIgnoresNames(t *testing.T) {
	first := mddftVariant(PrecisionDouble)
	second := mddftVariant(PrecisionDouble)
	second.Names = NamesFor("other")
	if first.Identity() != second.Identity() {
		t.Errorf("Identity differs only by names: %q vs %q", first.Identity(), second.Identity())
	}
	third := mddftVariant(PrecisionSingle)
	if first.Identity() == third.Identity() {
		t.Errorf("Identity equal for different precisions: %q", first.Identity())
	}
}
