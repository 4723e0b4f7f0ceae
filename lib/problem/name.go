// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package problem

import (
	"strconv"
	"strings"
)

// Name returns the canonical base name of the transform. The token
// order and vocabulary are fixed: build tooling locates artifacts and
// symbols by these names, so any change here orphans every artifact
// built before it.
//
//	DFT         {z|c}dft_{fwd|inv}_N
//	BATDFT      {z|c}dft_{fwd|inv}_N_b{AxB}{write}{read}     (p = Unit, v = Block)
//	MDDFT       {z|c}mddft_{fwd|inv}_{AxBxC}[_F]
//	BATMDDFT    {z|c}batchmddft_{fwd|inv}_{AxBxC}_{batch}
//	MDPRDFT     {z|c}mdprdft_{AxBxC}[_F], inverse {z|c}imdprdft_...
//	MDRCONV     {d|f}Mdrconv_{AxBxC}
//	MDRFSCONV   {d|f}Mdrfsconv_{AxBxC}
//
// The leading letter is the precision: z/d for double, c/f for single.
// A trailing _F marks column-major layout.
func (d Descriptor) Name() string {
	if d.IsZero() {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(d.precisionToken())

	dims := joinExtents(d.dimensions)
	switch d.kind {
	case DFT, BatchDFT:
		builder.WriteString("dft_")
		builder.WriteString(d.directionToken())
		builder.WriteString("_")
		builder.WriteString(dims)
		if d.kind == BatchDFT {
			builder.WriteString("_b")
			builder.WriteString(joinExtents(d.batchDims))
			builder.WriteString(d.writeStride.token())
			builder.WriteString(d.readStride.token())
		}
	case MDDFT:
		builder.WriteString("mddft_")
		builder.WriteString(d.directionToken())
		builder.WriteString("_")
		builder.WriteString(dims)
	case BatchMDDFT:
		builder.WriteString("batchmddft_")
		builder.WriteString(d.directionToken())
		builder.WriteString("_")
		builder.WriteString(dims)
		builder.WriteString("_")
		builder.WriteString(strconv.Itoa(d.batchSize))
	case MDPRDFT:
		if d.direction == Inverse {
			builder.WriteString("i")
		}
		builder.WriteString("mdprdft_")
		builder.WriteString(dims)
	case MDRCONV:
		builder.WriteString("Mdrconv_")
		builder.WriteString(dims)
	case MDRFSCONV:
		builder.WriteString("Mdrfsconv_")
		builder.WriteString(dims)
	}

	if d.order == ColumnMajor {
		builder.WriteString("_F")
	}
	return builder.String()
}

func (d Descriptor) precisionToken() string {
	switch {
	case d.kind.IsConvolution() && d.precision == Single:
		return "f"
	case d.kind.IsConvolution():
		return "d"
	case d.precision == Single:
		return "c"
	default:
		return "z"
	}
}

func (d Descriptor) directionToken() string {
	if d.direction == Inverse {
		return "inv"
	}
	return "fwd"
}

func joinExtents(extents []int) string {
	parts := make([]string, len(extents))
	for i, extent := range extents {
		parts[i] = strconv.Itoa(extent)
	}
	return strings.Join(parts, "x")
}
