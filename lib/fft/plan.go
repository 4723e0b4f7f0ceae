// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fft

import "gonum.org/v1/gonum/dsp/fourier"

// Plans caches gonum transform plans by length. The zero value is
// ready to use. A Plans value is not safe for concurrent use because
// gonum plans keep internal scratch space.
type Plans struct {
	complexPlans map[int]*fourier.CmplxFFT
	realPlans    map[int]*fourier.FFT
}

func (p *Plans) complexPlan(n int) *fourier.CmplxFFT {
	if p.complexPlans == nil {
		p.complexPlans = make(map[int]*fourier.CmplxFFT)
	}
	plan, ok := p.complexPlans[n]
	if !ok {
		plan = fourier.NewCmplxFFT(n)
		p.complexPlans[n] = plan
	}
	return plan
}

func (p *Plans) realPlan(n int) *fourier.FFT {
	if p.realPlans == nil {
		p.realPlans = make(map[int]*fourier.FFT)
	}
	plan, ok := p.realPlans[n]
	if !ok {
		plan = fourier.NewFFT(n)
		p.realPlans[n] = plan
	}
	return plan
}
