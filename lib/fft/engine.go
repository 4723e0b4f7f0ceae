// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fft

// Transform is [Plans.Transform] with a throwaway plan cache.
func Transform(data []complex128, shape []int, axes []int, inverse bool) error {
	var plans Plans
	return plans.Transform(data, shape, axes, inverse)
}

// RealForward is [Plans.RealForward] with a throwaway plan cache.
func RealForward(data []float64, shape []int) ([]complex128, []int, error) {
	var plans Plans
	return plans.RealForward(data, shape)
}

// RealInverse is [Plans.RealInverse] with a throwaway plan cache.
func RealInverse(data []complex128, shape []int) ([]float64, error) {
	var plans Plans
	return plans.RealInverse(data, shape)
}
