// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fft is the portable reference engine that compiled artifacts
// are checked against.
//
// All functions operate on flat row-major data with an explicit shape
// and compute unnormalized transforms: a forward transform followed by
// an inverse one multiplies the input by the number of points.
// Normalization is applied by the caller, identically for reference
// and artifact results. Forward transforms use the negative exponent
// convention.
//
// One-dimensional kernels come from gonum's dsp/fourier package. Plans
// are cached per length in a [Plans] value; the package-level functions
// use a fresh cache per call.
package fft
