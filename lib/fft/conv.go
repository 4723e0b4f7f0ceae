// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fft

import (
	"fmt"
	"slices"
)

// CyclicConvolve computes the unnormalized real cyclic convolution of
// data with a kernel given in the frequency domain:
// inverse(forward(data) * kernel). kernel has the half shape of shape.
func (p *Plans) CyclicConvolve(data []float64, shape []int, kernel []complex128) ([]float64, error) {
	spectrum, halfShape, err := p.RealForward(data, shape)
	if err != nil {
		return nil, err
	}
	if len(kernel) != len(spectrum) {
		return nil, fmt.Errorf("kernel has %d elements, spectrum shape %v needs %d", len(kernel), halfShape, len(spectrum))
	}
	for i := range spectrum {
		spectrum[i] *= kernel[i]
	}
	return p.RealInverse(spectrum, shape)
}

// FreeSpaceConvolve computes the unnormalized free-space (Hockney)
// convolution of data. The input is embedded in the far corner of a
// zero box of twice its extent on every axis, cyclically convolved
// with kernel, and the same corner is cut back out. kernel has the
// half shape of the doubled box.
func (p *Plans) FreeSpaceConvolve(data []float64, shape []int, kernel []complex128) ([]float64, error) {
	if err := checkLength(len(data), shape); err != nil {
		return nil, err
	}
	padded := DoubledShape(shape)
	box := Embed(data, shape, padded, shape)
	result, err := p.CyclicConvolve(box, padded, kernel)
	if err != nil {
		return nil, err
	}
	return Extract(result, padded, shape, shape), nil
}

// DoubledShape doubles every extent.
func DoubledShape(shape []int) []int {
	doubled := slices.Clone(shape)
	for i := range doubled {
		doubled[i] *= 2
	}
	return doubled
}

// Embed copies data of shape into a zero array of shape outer, with
// its origin at offset.
func Embed[E any](data []E, shape, outer, offset []int) []E {
	out := make([]E, product(outer))
	forEachIndex(shape, func(flat int, index []int) {
		out[flatOffset(outer, index, offset)] = data[flat]
	})
	return out
}

// Extract copies the region of shape starting at offset out of data,
// which has shape outer.
func Extract[E any](data []E, outer, shape, offset []int) []E {
	out := make([]E, product(shape))
	forEachIndex(shape, func(flat int, index []int) {
		out[flat] = data[flatOffset(outer, index, offset)]
	})
	return out
}

// forEachIndex visits every index of shape in row-major order.
func forEachIndex(shape []int, fn func(flat int, index []int)) {
	count := product(shape)
	index := make([]int, len(shape))
	for flat := range count {
		fn(flat, index)
		for axis := len(shape) - 1; axis >= 0; axis-- {
			index[axis]++
			if index[axis] < shape[axis] {
				break
			}
			index[axis] = 0
		}
	}
}

func flatOffset(shape, index, offset []int) int {
	flat := 0
	for axis := range shape {
		flat = flat*shape[axis] + index[axis] + offset[axis]
	}
	return flat
}
