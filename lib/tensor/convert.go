// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ComplexValues returns a widened copy of a host tensor's elements in
// memory order. Real tensors get a zero imaginary part.
func (t *Tensor) ComplexValues() []complex128 {
	t.mustHost("ComplexValues")
	values := make([]complex128, t.Len())
	switch data := t.host.(type) {
	case []float32:
		for i, v := range data {
			values[i] = complex(float64(v), 0)
		}
	case []float64:
		for i, v := range data {
			values[i] = complex(v, 0)
		}
	case []complex64:
		for i, v := range data {
			values[i] = complex128(v)
		}
	case []complex128:
		copy(values, data)
	}
	return values
}

// RealValues returns a widened copy of a real host tensor's elements
// in memory order.
func (t *Tensor) RealValues() ([]float64, error) {
	t.mustHost("RealValues")
	switch data := t.host.(type) {
	case []float32:
		values := make([]float64, len(data))
		for i, v := range data {
			values[i] = float64(v)
		}
		return values, nil
	case []float64:
		return append([]float64(nil), data...), nil
	}
	return nil, fmt.Errorf("RealValues on %v tensor", t.dtype)
}

// FromComplexValues builds a host tensor of the given dtype from
// values in memory order, narrowing as needed. Real dtypes keep only
// the real part.
func FromComplexValues(shape []int, order Order, dtype DType, values []complex128) (*Tensor, error) {
	if Count(shape) != len(values) {
		return nil, fmt.Errorf("shape %v holds %d elements, got %d values", shape, Count(shape), len(values))
	}
	t := New(shape, dtype, order)
	switch data := t.host.(type) {
	case []float32:
		for i, v := range values {
			data[i] = float32(real(v))
		}
	case []float64:
		for i, v := range values {
			data[i] = real(v)
		}
	case []complex64:
		for i, v := range values {
			data[i] = complex64(v)
		}
	case []complex128:
		copy(data, values)
	}
	return t, nil
}

// FromRealValues builds a real host tensor of the given dtype.
func FromRealValues(shape []int, order Order, dtype DType, values []float64) (*Tensor, error) {
	if dtype.IsComplex() {
		return nil, fmt.Errorf("FromRealValues with complex dtype %v", dtype)
	}
	if Count(shape) != len(values) {
		return nil, fmt.Errorf("shape %v holds %d elements, got %d values", shape, Count(shape), len(values))
	}
	t := New(shape, dtype, order)
	if dtype == Float64 {
		copy(t.Float64(), values)
		return t, nil
	}
	data := t.Float32()
	for i, v := range values {
		data[i] = float32(v)
	}
	return t, nil
}

// Scale divides every element of a host tensor by divisor in place.
func (t *Tensor) Scale(divisor float64) {
	t.mustHost("Scale")
	switch data := t.host.(type) {
	case []float32:
		for i := range data {
			data[i] = float32(float64(data[i]) / divisor)
		}
	case []float64:
		floats.Scale(1/divisor, data)
	case []complex64:
		for i := range data {
			data[i] = complex64(complex128(data[i]) / complex(divisor, 0))
		}
	case []complex128:
		for i := range data {
			data[i] /= complex(divisor, 0)
		}
	}
}

// MaxAbsDiff returns the largest absolute difference between the real
// or imaginary components of two host tensors with the same shape and
// order.
func MaxAbsDiff(a, b *Tensor) (float64, error) {
	if !equalShape(a.shape, b.shape) {
		return 0, fmt.Errorf("shape mismatch: %v vs %v", a.shape, b.shape)
	}
	if a.order != b.order && a.Rank() > 1 {
		return 0, fmt.Errorf("order mismatch: %v vs %v", a.order, b.order)
	}
	if a.Len() == 0 {
		return 0, nil
	}
	return floats.Distance(interleave(a.ComplexValues()), interleave(b.ComplexValues()), math.Inf(1)), nil
}

// Tolerance is the default comparison tolerance for values of unit
// magnitude computed in dtype's precision.
func Tolerance(dtype DType) float64 {
	if dtype.IsSingle() {
		return 1e-4
	}
	return 1e-7
}

func interleave(values []complex128) []float64 {
	components := make([]float64, 2*len(values))
	for i, v := range values {
		components[2*i] = real(v)
		components[2*i+1] = imag(v)
	}
	return components
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
