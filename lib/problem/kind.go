// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package problem

import (
	"fmt"

	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

// Kind selects a transform family.
type Kind int

const (
	// DFT is a one-dimensional complex transform.
	DFT Kind = iota + 1
	// BatchDFT applies a one-dimensional transform to every slice of
	// a batch, optionally transposing between batch layouts.
	BatchDFT
	// MDDFT is a multi-dimensional complex transform.
	MDDFT
	// BatchMDDFT applies a multi-dimensional transform to each element
	// of a leading batch axis.
	BatchMDDFT
	// MDPRDFT is a multi-dimensional packed real transform.
	MDPRDFT
	// MDRCONV is a three-dimensional real cyclic convolution.
	MDRCONV
	// MDRFSCONV is a three-dimensional real free-space convolution.
	MDRFSCONV
)

var kindTags = map[Kind]string{
	DFT:        metadata.TransformDFT,
	BatchDFT:   metadata.TransformBatchDFT,
	MDDFT:      metadata.TransformMDDFT,
	BatchMDDFT: metadata.TransformBatchMDDFT,
	MDPRDFT:    metadata.TransformMDPRDFT,
	MDRCONV:    metadata.TransformMDRCONV,
	MDRFSCONV:  metadata.TransformMDRFSCONV,
}

// Kinds lists every family in declaration order.
var Kinds = []Kind{DFT, BatchDFT, MDDFT, BatchMDDFT, MDPRDFT, MDRCONV, MDRFSCONV}

// String returns the metadata transform type tag of the family.
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts a metadata transform type tag.
func ParseKind(tag string) (Kind, error) {
	for kind, candidate := range kindTags {
		if candidate == tag {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown transform type %q", tag)
}

// IsConvolution reports whether the family is a convolution. Those
// take a frequency-domain kernel and have no direction.
func (k Kind) IsConvolution() bool { return k == MDRCONV || k == MDRFSCONV }

// IsBatched reports whether the family carries a batch.
func (k Kind) IsBatched() bool { return k == BatchDFT || k == BatchMDDFT }

// MinExtent is the smallest extent allowed on any transformed axis.
func (k Kind) MinExtent() int {
	if k.IsConvolution() {
		return 4
	}
	return 2
}

// Direction is the transform direction. Its value is the exponent sign
// handed to the generator.
type Direction int

const (
	Forward Direction = -1
	Inverse Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return metadata.DirectionForward
	case Inverse:
		return metadata.DirectionInverse
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection accepts "Forward"/"Inverse" and the short forms
// "F"/"I", "fwd"/"inv".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case metadata.DirectionForward, "F", "fwd", "forward":
		return Forward, nil
	case metadata.DirectionInverse, "I", "inv", "inverse":
		return Inverse, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Precision is the floating point width of the transform.
type Precision int

const (
	Double Precision = iota
	Single
)

func (p Precision) String() string {
	if p == Single {
		return metadata.PrecisionSingle
	}
	return metadata.PrecisionDouble
}

// ParsePrecision accepts "Double"/"Single", the C type names, and
// "d"/"s".
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case metadata.PrecisionDouble, "double", "d":
		return Double, nil
	case metadata.PrecisionSingle, "float", "single", "s":
		return Single, nil
	}
	return 0, fmt.Errorf("unknown precision %q", s)
}

// RealType is the element type of real buffers at this precision.
func (p Precision) RealType() tensor.DType {
	if p == Single {
		return tensor.Float32
	}
	return tensor.Float64
}

// ComplexType is the element type of complex buffers at this
// precision.
func (p Precision) ComplexType() tensor.DType {
	return p.RealType().Complex()
}

// Order is the memory layout a transform is built for.
type Order = tensor.Order

const (
	RowMajor    = tensor.RowMajor
	ColumnMajor = tensor.ColumnMajor
)

// OrderTag returns the metadata literal for an order.
func OrderTag(order Order) string {
	if order == ColumnMajor {
		return metadata.OrderFortran
	}
	return metadata.OrderC
}

// StrideMode is the batch layout on one side of a batched transform.
type StrideMode int

const (
	// Unit keeps each batch element contiguous ("parallel").
	Unit StrideMode = iota
	// Block interleaves batch elements with a stride ("vectorized").
	Block
)

func (s StrideMode) String() string {
	if s == Block {
		return metadata.StrideBlock
	}
	return metadata.StrideUnit
}

// ParseStrideMode accepts "Unit"/"Block" and the name tokens "p"/"v".
func ParseStrideMode(s string) (StrideMode, error) {
	switch s {
	case metadata.StrideUnit, "unit", "p":
		return Unit, nil
	case metadata.StrideBlock, "block", "v":
		return Block, nil
	}
	return 0, fmt.Errorf("unknown stride mode %q", s)
}

// token is the single-letter form used in canonical names.
func (s StrideMode) token() string {
	if s == Block {
		return "v"
	}
	return "p"
}
