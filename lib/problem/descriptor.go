// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package problem

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidDescriptor matches every [DescriptorValidationError] under
// errors.Is.
var ErrInvalidDescriptor = errors.New("invalid problem descriptor")

// DescriptorValidationError reports a field that makes a descriptor
// impossible to build. It is always returned from [New], never later.
type DescriptorValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *DescriptorValidationError) Error() string {
	return fmt.Sprintf("invalid %v descriptor: %s: %s", e.Kind, e.Field, e.Reason)
}

func (e *DescriptorValidationError) Is(target error) bool {
	return target == ErrInvalidDescriptor
}

// Params is the caller-facing description of a transform. Zero values
// select the defaults: Forward, Double, RowMajor, Unit strides.
type Params struct {
	Kind       Kind
	Dimensions []int
	Direction  Direction
	Precision  Precision
	Order      Order

	// BatchDims is the batch shape of a BatchDFT. Its product is the
	// batch size; the individual extents only affect the name.
	BatchDims []int

	// BatchSize is the number of transforms in a BatchMDDFT. Zero
	// means one.
	BatchSize int

	// ReadStride and WriteStride select the input and output batch
	// layouts of a BatchDFT.
	ReadStride  StrideMode
	WriteStride StrideMode
}

// Descriptor is an immutable, validated transform description.
type Descriptor struct {
	kind        Kind
	dimensions  []int
	direction   Direction
	precision   Precision
	order       Order
	batchDims   []int
	batchSize   int
	readStride  StrideMode
	writeStride StrideMode
}

// New validates params and returns the descriptor they describe.
func New(params Params) (Descriptor, error) {
	kind := params.Kind
	invalid := func(field, format string, args ...any) (Descriptor, error) {
		return Descriptor{}, &DescriptorValidationError{Kind: kind, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	if _, ok := kindTags[kind]; !ok {
		return invalid("kind", "unknown kind %d", int(kind))
	}

	rank := len(params.Dimensions)
	switch {
	case kind == DFT || kind == BatchDFT:
		if rank != 1 {
			return invalid("dimensions", "need exactly one dimension, got %d", rank)
		}
	case kind.IsConvolution():
		if rank != 3 {
			return invalid("dimensions", "need exactly three dimensions, got %d", rank)
		}
	default:
		if rank == 0 {
			return invalid("dimensions", "need at least one dimension")
		}
	}
	for axis, extent := range params.Dimensions {
		if extent < kind.MinExtent() {
			return invalid("dimensions", "extent %d on axis %d is below the minimum of %d", extent, axis, kind.MinExtent())
		}
	}

	direction := params.Direction
	if direction == 0 {
		direction = Forward
	}
	if direction != Forward && direction != Inverse {
		return invalid("direction", "must be Forward (-1) or Inverse (1), got %d", int(direction))
	}
	if kind.IsConvolution() && direction != Forward {
		return invalid("direction", "convolutions have no inverse")
	}

	if params.Precision != Double && params.Precision != Single {
		return invalid("precision", "unknown precision %d", int(params.Precision))
	}

	switch params.Order {
	case RowMajor:
	case ColumnMajor:
		if kind != MDDFT && kind != MDPRDFT {
			return invalid("order", "column-major layout is only built for MDDFT and MDPRDFT")
		}
	default:
		return invalid("order", "unknown order %d", int(params.Order))
	}

	strides := []struct {
		field string
		mode  StrideMode
	}{{"read stride", params.ReadStride}, {"write stride", params.WriteStride}}
	for _, stride := range strides {
		if stride.mode != Unit && stride.mode != Block {
			return invalid(stride.field, "unknown stride mode %d", int(stride.mode))
		}
		if stride.mode == Block && kind != BatchDFT {
			return invalid(stride.field, "block stride only applies to BATDFT")
		}
	}

	batchSize := 1
	switch kind {
	case BatchDFT:
		if len(params.BatchDims) == 0 {
			return invalid("batch dims", "BATDFT needs batch dimensions")
		}
		for axis, extent := range params.BatchDims {
			if extent < 1 {
				return invalid("batch dims", "extent %d on batch axis %d is below 1", extent, axis)
			}
		}
		batchSize = product(params.BatchDims)
		if batchSize < 2 {
			return invalid("batch dims", "batch of %d is not a batch; use DFT", batchSize)
		}
		if params.BatchSize != 0 && params.BatchSize != batchSize {
			return invalid("batch size", "%d disagrees with batch dims %v", params.BatchSize, params.BatchDims)
		}
	case BatchMDDFT:
		if len(params.BatchDims) != 0 {
			return invalid("batch dims", "BATMDDFT takes a batch size, not batch dims")
		}
		if params.BatchSize < 0 {
			return invalid("batch size", "must be at least 1, got %d", params.BatchSize)
		}
		batchSize = max(params.BatchSize, 1)
	default:
		if product(params.BatchDims) > 1 || params.BatchSize > 1 {
			return invalid("batch size", "%v is not a batched family", kind)
		}
		if params.BatchSize < 0 {
			return invalid("batch size", "must be at least 1, got %d", params.BatchSize)
		}
	}

	descriptor := Descriptor{
		kind:        kind,
		dimensions:  slices.Clone(params.Dimensions),
		direction:   direction,
		precision:   params.Precision,
		order:       params.Order,
		batchSize:   batchSize,
		readStride:  params.ReadStride,
		writeStride: params.WriteStride,
	}
	if kind == BatchDFT {
		descriptor.batchDims = slices.Clone(params.BatchDims)
	}
	return descriptor, nil
}

// MustNew is New for descriptors known to be valid, such as literals
// in tests. It panics on a validation error.
func MustNew(params Params) Descriptor {
	descriptor, err := New(params)
	if err != nil {
		panic(err)
	}
	return descriptor
}

func (d Descriptor) Kind() Kind { return d.kind }

// Dimensions returns a copy of the transform extents.
func (d Descriptor) Dimensions() []int { return slices.Clone(d.dimensions) }

func (d Descriptor) Rank() int               { return len(d.dimensions) }
func (d Descriptor) Direction() Direction    { return d.direction }
func (d Descriptor) Precision() Precision    { return d.precision }
func (d Descriptor) Order() Order            { return d.order }
func (d Descriptor) BatchSize() int          { return d.batchSize }
func (d Descriptor) ReadStride() StrideMode  { return d.readStride }
func (d Descriptor) WriteStride() StrideMode { return d.writeStride }

// BatchDims returns a copy of a BatchDFT's batch shape, or nil.
func (d Descriptor) BatchDims() []int { return slices.Clone(d.batchDims) }

// IsZero reports whether d was not produced by [New].
func (d Descriptor) IsZero() bool { return d.kind == 0 }

// Size is the number of points in one transform: the product of the
// dimensions.
func (d Descriptor) Size() int { return product(d.dimensions) }

// Transposes reports whether a BatchDFT changes batch layout between
// input and output, which reverses the axis order of the data.
func (d Descriptor) Transposes() bool {
	return d.kind == BatchDFT && d.readStride != d.writeStride
}

// Normalization is the divisor applied to every output element after
// the raw, unnormalized computation. It is 1 when no scaling applies.
//
// Inverse transforms divide by the number of points of one transform,
// which for batched families excludes the batch. Cyclic convolution
// divides by the transform size, free-space convolution by the size of
// the doubled box it runs on.
func (d Descriptor) Normalization() float64 {
	switch {
	case d.kind == MDRCONV:
		return float64(d.Size())
	case d.kind == MDRFSCONV:
		return float64(d.Size() * 8)
	case d.direction == Inverse:
		return float64(d.Size())
	default:
		return 1
	}
}

// Equal reports whether two descriptors describe the same transform.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.kind == other.kind &&
		slices.Equal(d.dimensions, other.dimensions) &&
		d.direction == other.direction &&
		d.precision == other.precision &&
		d.order == other.order &&
		slices.Equal(d.batchDims, other.batchDims) &&
		d.batchSize == other.batchSize &&
		d.readStride == other.readStride &&
		d.writeStride == other.writeStride
}

// String returns the canonical name.
func (d Descriptor) String() string { return d.Name() }

func product(values []int) int {
	result := 1
	for _, value := range values {
		result *= value
	}
	return result
}
