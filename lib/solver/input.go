// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"fmt"
	"math/rand/v2"

	"github.com/bureau-foundation/spiral/lib/tensor"
)

// TestInput builds a random host source of the solver's source shape,
// with components uniform in [0, 1). Convolutions also get a symbol:
// the packed spectrum of a random real box of the full kernel shape.
func (s *Solver) TestInput(rng *rand.Rand) (source, symbol *tensor.Tensor, err error) {
	shape, dtype := s.SourceShape(), s.SourceType()
	values := make([]complex128, tensor.Count(shape))
	for i := range values {
		if dtype.IsComplex() {
			values[i] = complex(rng.Float64(), rng.Float64())
		} else {
			values[i] = complex(rng.Float64(), 0)
		}
	}
	source, err = tensor.FromComplexValues(shape, s.descriptor.Order(), dtype, values)
	if err != nil {
		return nil, nil, err
	}

	packed, full := s.family.symbol(s.descriptor)
	if packed == nil {
		return source, nil, nil
	}
	box := make([]float64, tensor.Count(full))
	for i := range box {
		box[i] = rng.Float64()
	}
	spectrum, _, err := s.plans.RealForward(box, full)
	if err != nil {
		return nil, nil, fmt.Errorf("%s symbol: %w", s.Name(), err)
	}
	symbol, err = tensor.FromComplexValues(packed, tensor.RowMajor, s.descriptor.Precision().ComplexType(), spectrum)
	if err != nil {
		return nil, nil, err
	}
	return source, symbol, nil
}
