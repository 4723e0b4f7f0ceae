// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"
	"slices"
	"strings"
)

// Region markers. The build pipeline and every artifact reader must
// agree on these bytes exactly.
const (
	StartMarker = "!!START_METADATA!!"
	EndMarker   = "!!END_METADATA!!"
)

// SourceFileSuffix is appended to a canonical name to form the file
// name of the generated metadata source unit. VariableSuffix forms
// the name of the character array inside it.
const (
	SourceFileSuffix = "_meta.c"
	VariableSuffix   = "_metadata"
)

// Transform type tags. A variant's TransformType is always one of
// these; a document's TransformTypes lists the subset it contains.
const (
	TransformDFT        = "DFT"
	TransformBatchDFT   = "BATDFT"
	TransformMDDFT      = "MDDFT"
	TransformBatchMDDFT = "BATMDDFT"
	TransformMDPRDFT    = "MDPRDFT"
	TransformMDRCONV    = "MDRCONV"
	TransformMDRFSCONV  = "MDRFSCONV"
)

// TransformTypes is the closed set of recognized tags, in a stable
// order.
var TransformTypes = []string{
	TransformDFT,
	TransformBatchDFT,
	TransformMDDFT,
	TransformBatchMDDFT,
	TransformMDPRDFT,
	TransformMDRCONV,
	TransformMDRFSCONV,
}

// Literal values of the enumerated structural fields.
const (
	DirectionForward = "Forward"
	DirectionInverse = "Inverse"

	PrecisionSingle = "Single"
	PrecisionDouble = "Double"

	OrderC       = "C"
	OrderFortran = "Fortran"

	StrideUnit  = "Unit"
	StrideBlock = "Block"

	PlatformCPU  = "CPU"
	PlatformCUDA = "CUDA"
	PlatformHIP  = "HIP"
)

// Document is the top-level metadata object embedded in an artifact.
type Document struct {
	// BuildInfo is free-form provenance written by the generator and
	// the build driver (tool versions, host, timestamps).
	BuildInfo map[string]any `json:"SpiralBuildInfo,omitempty"`

	// TransformTypes lists every tag that appears in Transforms. A
	// resolver skips the whole document when the tag it is looking
	// for is missing here.
	TransformTypes []string `json:"TransformTypes"`

	// Transforms are the variants exported by the artifact, in
	// declaration order.
	Transforms []Variant `json:"Transforms"`
}

// Variant describes one transform configuration exported by an
// artifact. Zero-valued structural fields are absent from the
// encoded form and never match a query that sets them.
type Variant struct {
	TransformType string `json:"TransformType"`
	Dimensions    []int  `json:"Dimensions,omitempty"`
	Direction     string `json:"Direction,omitempty"`
	Precision     string `json:"Precision,omitempty"`
	Order         string `json:"Order,omitempty"`
	BatchSize     int    `json:"BatchSize,omitempty"`
	ReadStride    string `json:"ReadStride,omitempty"`
	WriteStride   string `json:"WriteStride,omitempty"`
	Platform      string `json:"Platform,omitempty"`
	Names         Names  `json:"Names"`
}

// Names maps the logical entry points of a variant to the symbols the
// artifact actually exports.
type Names struct {
	Init    string `json:"Init,omitempty"`
	Exec    string `json:"Exec"`
	Destroy string `json:"Destroy,omitempty"`
}

// NamesFor returns the conventional entry point names for an artifact
// built under the given canonical name.
func NamesFor(name string) Names {
	return Names{
		Init:    "init_" + name,
		Exec:    name,
		Destroy: "destroy_" + name,
	}
}

// Supports reports whether transformType is listed in the document's
// quick-rejection tag list.
func (d *Document) Supports(transformType string) bool {
	return slices.Contains(d.TransformTypes, transformType)
}

// Add appends a variant and records its tag in TransformTypes if it is
// not already present.
func (d *Document) Add(variant Variant) {
	d.Transforms = append(d.Transforms, variant)
	if !d.Supports(variant.TransformType) {
		d.TransformTypes = append(d.TransformTypes, variant.TransformType)
	}
}

// Validate checks the invariants a well-formed document must hold:
// every variant carries a known tag that is also listed in
// TransformTypes, names an exec symbol, and no two variants share the
// same structural identity.
func (d *Document) Validate() error {
	seen := make(map[string]int, len(d.Transforms))
	for i, variant := range d.Transforms {
		if !slices.Contains(TransformTypes, variant.TransformType) {
			return fmt.Errorf("transform %d: unknown transform type %q", i, variant.TransformType)
		}
		if !d.Supports(variant.TransformType) {
			return fmt.Errorf("transform %d: type %q missing from TransformTypes", i, variant.TransformType)
		}
		if variant.Names.Exec == "" {
			return fmt.Errorf("transform %d: no exec symbol", i)
		}
		key := variant.Identity()
		if previous, exists := seen[key]; exists {
			return fmt.Errorf("transforms %d and %d are structurally identical (%s)", previous, i, key)
		}
		seen[key] = i
	}
	return nil
}

// Identity returns a string that is equal for two variants exactly
// when their structural fields are equal. Names are excluded.
func (v Variant) Identity() string {
	var builder strings.Builder
	builder.WriteString(v.TransformType)
	builder.WriteString("|")
	for i, dimension := range v.Dimensions {
		if i > 0 {
			builder.WriteString("x")
		}
		fmt.Fprintf(&builder, "%d", dimension)
	}
	fmt.Fprintf(&builder, "|%s|%s|%s|%d|%s|%s|%s",
		v.Direction, v.Precision, v.Order, v.BatchSize, v.ReadStride, v.WriteStride, v.Platform)
	return builder.String()
}
