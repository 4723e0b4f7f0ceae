// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fft

import (
	"fmt"
	"slices"
)

// Transform computes the complex DFT of data along each of axes, in
// place. Negative axes count from the end. Inverse selects the
// positive exponent; no scaling is applied either way.
func (p *Plans) Transform(data []complex128, shape []int, axes []int, inverse bool) error {
	if err := checkLength(len(data), shape); err != nil {
		return err
	}
	normalized, err := normalizeAxes(axes, len(shape))
	if err != nil {
		return err
	}
	for _, axis := range normalized {
		plan := p.complexPlan(shape[axis])
		alongAxis(data, shape, axis, func(line []complex128) {
			if inverse {
				plan.Sequence(line, line)
			} else {
				plan.Coefficients(line, line)
			}
		})
	}
	return nil
}

// TransformAll computes the complex DFT of data over every axis.
func (p *Plans) TransformAll(data []complex128, shape []int, inverse bool) error {
	return p.Transform(data, shape, AllAxes(len(shape)), inverse)
}

// RealForward computes the multi-dimensional DFT of real data. The
// result keeps only the non-redundant half of the last axis, whose
// extent becomes n/2+1; the returned shape says so.
func (p *Plans) RealForward(data []float64, shape []int) ([]complex128, []int, error) {
	if len(shape) == 0 {
		return nil, nil, fmt.Errorf("real transform of a scalar")
	}
	if err := checkLength(len(data), shape); err != nil {
		return nil, nil, err
	}
	halfShape := HalfShape(shape)
	last := shape[len(shape)-1]
	half := halfShape[len(halfShape)-1]
	rows := product(shape[:len(shape)-1])

	plan := p.realPlan(last)
	out := make([]complex128, rows*half)
	for row := range rows {
		plan.Coefficients(out[row*half:(row+1)*half], data[row*last:(row+1)*last])
	}
	if err := p.Transform(out, halfShape, AllAxes(len(shape)-1), false); err != nil {
		return nil, nil, err
	}
	return out, halfShape, nil
}

// RealInverse inverts [Plans.RealForward]. shape is the real output
// shape; data must have the corresponding half shape. The imaginary
// parts of the zero and Nyquist bins of the last axis are ignored.
func (p *Plans) RealInverse(data []complex128, shape []int) ([]float64, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("real transform of a scalar")
	}
	halfShape := HalfShape(shape)
	if err := checkLength(len(data), halfShape); err != nil {
		return nil, err
	}
	spectrum := slices.Clone(data)
	if err := p.Transform(spectrum, halfShape, AllAxes(len(shape)-1), true); err != nil {
		return nil, err
	}

	last := shape[len(shape)-1]
	half := halfShape[len(halfShape)-1]
	rows := product(shape[:len(shape)-1])
	plan := p.realPlan(last)
	out := make([]float64, rows*last)
	for row := range rows {
		plan.Sequence(out[row*last:(row+1)*last], spectrum[row*half:(row+1)*half])
	}
	return out, nil
}

// HalfShape is the shape of the packed spectrum of a real array:
// the last extent n becomes n/2+1.
func HalfShape(shape []int) []int {
	half := slices.Clone(shape)
	if len(half) > 0 {
		half[len(half)-1] = half[len(half)-1]/2 + 1
	}
	return half
}

// AllAxes returns 0..rank-1.
func AllAxes(rank int) []int {
	axes := make([]int, rank)
	for i := range axes {
		axes[i] = i
	}
	return axes
}

// Transpose returns the rows x cols matrix data transposed into a
// cols x rows matrix.
func Transpose[E any](data []E, rows, cols int) []E {
	out := make([]E, len(data))
	for i := range rows {
		for j := range cols {
			out[j*rows+i] = data[i*cols+j]
		}
	}
	return out
}

// alongAxis calls fn on every one-dimensional line of data parallel to
// axis. fn works on a gathered copy that is scattered back afterwards.
func alongAxis(data []complex128, shape []int, axis int, fn func(line []complex128)) {
	extent := shape[axis]
	if extent == 0 {
		return
	}
	stride := product(shape[axis+1:])
	outer := product(shape[:axis])
	line := make([]complex128, extent)
	for block := range outer {
		base := block * extent * stride
		for offset := range stride {
			start := base + offset
			for k := range extent {
				line[k] = data[start+k*stride]
			}
			fn(line)
			for k := range extent {
				data[start+k*stride] = line[k]
			}
		}
	}
}

func normalizeAxes(axes []int, rank int) ([]int, error) {
	normalized := make([]int, len(axes))
	for i, axis := range axes {
		if axis < 0 {
			axis += rank
		}
		if axis < 0 || axis >= rank {
			return nil, fmt.Errorf("axis %d out of range for rank %d", axes[i], rank)
		}
		normalized[i] = axis
	}
	return normalized, nil
}

func checkLength(length int, shape []int) error {
	for axis, extent := range shape {
		if extent < 1 {
			return fmt.Errorf("extent %d on axis %d", extent, axis)
		}
	}
	if want := product(shape); length != want {
		return fmt.Errorf("shape %v needs %d elements, got %d", shape, want, length)
	}
	return nil
}

func product(values []int) int {
	result := 1
	for _, value := range values {
		result *= value
	}
	return result
}
