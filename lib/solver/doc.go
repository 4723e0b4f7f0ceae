// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package solver turns a problem descriptor into something that runs.
//
// Each transform kind is served by one family: a fixed record of
// operand shapes, a reference computation, a generator script and the
// metadata fields its artifacts carry. [New] selects the family by the
// descriptor's kind; there is no per-kind type.
//
// A [Solver] has two paths to a result. [Solver.Reference] computes it
// on the host with the portable FFT engine. [Solver.Solve] resolves the
// matching artifact through the registry (or has a [Builder] produce
// it), binds its entry points and runs it through the execution
// adapter on the solver's placement. Both paths compute the raw,
// unscaled transform and then divide by the descriptor's
// normalization, so their outputs compare directly.
//
// Operand layouts:
//
//	DFT        (n) -> (n)
//	BATDFT     (B, n) for a Unit side, (n, B) for a Block side
//	MDDFT      dims -> dims
//	BATMDDFT   (B, dims...) -> (B, dims...)
//	MDPRDFT    real dims <-> complex dims with the contiguous axis at n/2+1
//	MDRCONV    real dims -> real dims, symbol (n1, n2, n3/2+1)
//	MDRFSCONV  real dims -> real dims, symbol (2n1, 2n2, n3+1)
//
// Convolution symbols may also be passed in their full shape; a host
// symbol is then cut down to the packed half before the call.
package solver
