// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/spiral/lib/fft"
	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/problem"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

// family is the behavior of one transform kind. Every field is set;
// symbol returns nil shapes for families without a kernel.
type family struct {
	transformType string

	// shapes returns the logical source and destination shapes.
	shapes func(d problem.Descriptor) (source, destination []int)

	// types returns the source and destination element types.
	types func(d problem.Descriptor) (source, destination tensor.DType)

	// symbol returns the packed kernel shape the artifact takes and
	// the full shape a caller may pass instead.
	symbol func(d problem.Descriptor) (packed, full []int)

	// reference computes the unnormalized result from source values
	// in memory order. Real data travels as complex with a zero
	// imaginary part.
	reference func(plans *fft.Plans, d problem.Descriptor, source, symbol []complex128) ([]complex128, error)

	// transform writes the definition of t in the generator script.
	transform func(w *scriptWriter, d problem.Descriptor, name string)

	// annotate sets the family-specific metadata fields.
	annotate func(d problem.Descriptor, v *metadata.Variant)
}

var families = map[problem.Kind]*family{
	problem.DFT: {
		transformType: metadata.TransformDFT,
		shapes:        dftShapes,
		types:         complexTypes,
		symbol:        noSymbol,
		reference:     referenceDFT,
		transform:     writeDFT,
		annotate:      func(problem.Descriptor, *metadata.Variant) {},
	},
	problem.BatchDFT: {
		transformType: metadata.TransformBatchDFT,
		shapes:        dftShapes,
		types:         complexTypes,
		symbol:        noSymbol,
		reference:     referenceDFT,
		transform:     writeDFT,
		annotate: func(d problem.Descriptor, v *metadata.Variant) {
			v.BatchSize = d.BatchSize()
			v.ReadStride = d.ReadStride().String()
			v.WriteStride = d.WriteStride().String()
		},
	},
	problem.MDDFT: {
		transformType: metadata.TransformMDDFT,
		shapes:        sameShapes,
		types:         complexTypes,
		symbol:        noSymbol,
		reference:     referenceMDDFT,
		transform:     writeMDDFT,
		annotate:      annotateOrder,
	},
	problem.BatchMDDFT: {
		transformType: metadata.TransformBatchMDDFT,
		shapes: func(d problem.Descriptor) ([]int, []int) {
			shape := append([]int{d.BatchSize()}, d.Dimensions()...)
			return shape, slices.Clone(shape)
		},
		types:     complexTypes,
		symbol:    noSymbol,
		reference: referenceBatchMDDFT,
		transform: writeBatchMDDFT,
		annotate: func(d problem.Descriptor, v *metadata.Variant) {
			v.BatchSize = d.BatchSize()
		},
	},
	problem.MDPRDFT: {
		transformType: metadata.TransformMDPRDFT,
		shapes: func(d problem.Descriptor) ([]int, []int) {
			full, packed := d.Dimensions(), packedShape(d.Dimensions(), d.Order())
			if d.Direction() == problem.Inverse {
				return packed, full
			}
			return full, packed
		},
		types: func(d problem.Descriptor) (tensor.DType, tensor.DType) {
			realType, complexType := d.Precision().RealType(), d.Precision().ComplexType()
			if d.Direction() == problem.Inverse {
				return complexType, realType
			}
			return realType, complexType
		},
		symbol:    noSymbol,
		reference: referenceMDPRDFT,
		transform: writeMDPRDFT,
		annotate:  annotateOrder,
	},
	problem.MDRCONV: {
		transformType: metadata.TransformMDRCONV,
		shapes:        sameShapes,
		types:         realTypes,
		symbol: func(d problem.Descriptor) ([]int, []int) {
			return fft.HalfShape(d.Dimensions()), d.Dimensions()
		},
		reference: func(plans *fft.Plans, d problem.Descriptor, source, symbol []complex128) ([]complex128, error) {
			result, err := plans.CyclicConvolve(realParts(source), d.Dimensions(), symbol)
			return complexOf(result), err
		},
		transform: writeMDRCONV,
		annotate:  func(problem.Descriptor, *metadata.Variant) {},
	},
	problem.MDRFSCONV: {
		transformType: metadata.TransformMDRFSCONV,
		shapes:        sameShapes,
		types:         realTypes,
		symbol: func(d problem.Descriptor) ([]int, []int) {
			full := fft.DoubledShape(d.Dimensions())
			return fft.HalfShape(full), full
		},
		reference: func(plans *fft.Plans, d problem.Descriptor, source, symbol []complex128) ([]complex128, error) {
			result, err := plans.FreeSpaceConvolve(realParts(source), d.Dimensions(), symbol)
			return complexOf(result), err
		},
		transform: writeMDRFSCONV,
		annotate:  func(problem.Descriptor, *metadata.Variant) {},
	},
}

func familyOf(kind problem.Kind) (*family, error) {
	f, ok := families[kind]
	if !ok {
		return nil, fmt.Errorf("no solver family for kind %v", kind)
	}
	return f, nil
}

func sameShapes(d problem.Descriptor) ([]int, []int) {
	return d.Dimensions(), d.Dimensions()
}

// dftShapes lays a one-dimensional transform out as a vector, and a
// batch as (batch, n) on a Unit side and (n, batch) on a Block side.
func dftShapes(d problem.Descriptor) ([]int, []int) {
	n := d.Dimensions()[0]
	if d.Kind() != problem.BatchDFT {
		return []int{n}, []int{n}
	}
	return batchLayout(d.ReadStride(), n, d.BatchSize()), batchLayout(d.WriteStride(), n, d.BatchSize())
}

func batchLayout(mode problem.StrideMode, n, batch int) []int {
	if mode == problem.Block {
		return []int{n, batch}
	}
	return []int{batch, n}
}

func complexTypes(d problem.Descriptor) (tensor.DType, tensor.DType) {
	return d.Precision().ComplexType(), d.Precision().ComplexType()
}

func realTypes(d problem.Descriptor) (tensor.DType, tensor.DType) {
	return d.Precision().RealType(), d.Precision().RealType()
}

func noSymbol(problem.Descriptor) ([]int, []int) { return nil, nil }

func annotateOrder(d problem.Descriptor, v *metadata.Variant) {
	v.Order = problem.OrderTag(d.Order())
}

// memoryShape is the row-major shape whose flat layout equals a
// tensor of shape stored in order.
func memoryShape(shape []int, order problem.Order) []int {
	memory := slices.Clone(shape)
	if order == problem.ColumnMajor {
		slices.Reverse(memory)
	}
	return memory
}

// packedShape is the logical shape of the packed spectrum of a real
// array: the axis that is contiguous in memory keeps n/2+1 entries.
// That is the last axis in row-major order and the first in
// column-major order.
func packedShape(shape []int, order problem.Order) []int {
	return memoryShape(fft.HalfShape(memoryShape(shape, order)), order)
}

func referenceDFT(plans *fft.Plans, d problem.Descriptor, source, _ []complex128) ([]complex128, error) {
	data := slices.Clone(source)
	inverse := d.Direction() == problem.Inverse
	n := d.Dimensions()[0]
	if d.Kind() != problem.BatchDFT {
		return data, plans.Transform(data, []int{n}, []int{0}, inverse)
	}

	shape := batchLayout(d.ReadStride(), n, d.BatchSize())
	axis := 1
	if d.ReadStride() == problem.Block {
		axis = 0
	}
	if err := plans.Transform(data, shape, []int{axis}, inverse); err != nil {
		return nil, err
	}
	if d.Transposes() {
		data = fft.Transpose(data, shape[0], shape[1])
	}
	return data, nil
}

func referenceMDDFT(plans *fft.Plans, d problem.Descriptor, source, _ []complex128) ([]complex128, error) {
	data := slices.Clone(source)
	err := plans.TransformAll(data, memoryShape(d.Dimensions(), d.Order()), d.Direction() == problem.Inverse)
	return data, err
}

func referenceBatchMDDFT(plans *fft.Plans, d problem.Descriptor, source, _ []complex128) ([]complex128, error) {
	data := slices.Clone(source)
	shape := append([]int{d.BatchSize()}, d.Dimensions()...)
	axes := fft.AllAxes(len(shape))[1:]
	err := plans.Transform(data, shape, axes, d.Direction() == problem.Inverse)
	return data, err
}

func referenceMDPRDFT(plans *fft.Plans, d problem.Descriptor, source, _ []complex128) ([]complex128, error) {
	shape := memoryShape(d.Dimensions(), d.Order())
	if d.Direction() == problem.Inverse {
		result, err := plans.RealInverse(source, shape)
		return complexOf(result), err
	}
	spectrum, _, err := plans.RealForward(realParts(source), shape)
	return spectrum, err
}

func realParts(values []complex128) []float64 {
	parts := make([]float64, len(values))
	for i, v := range values {
		parts[i] = real(v)
	}
	return parts
}

func complexOf(values []float64) []complex128 {
	if values == nil {
		return nil
	}
	out := make([]complex128, len(values))
	for i, v := range values {
		out[i] = complex(v, 0)
	}
	return out
}
