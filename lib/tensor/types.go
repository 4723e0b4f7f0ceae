// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tensor

import (
	"fmt"
	"strings"
)

// Placement is where a buffer's memory lives.
type Placement int

const (
	Host Placement = iota
	CUDA
	HIP
)

func (p Placement) String() string {
	switch p {
	case Host:
		return "host"
	case CUDA:
		return "cuda"
	case HIP:
		return "hip"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// IsDevice reports whether p is an accelerator placement.
func (p Placement) IsDevice() bool {
	return p == CUDA || p == HIP
}

// ParsePlacement accepts the names printed by [Placement.String],
// case-insensitively, and "cpu" as an alias for host.
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(s) {
	case "host", "cpu":
		return Host, nil
	case "cuda":
		return CUDA, nil
	case "hip":
		return HIP, nil
	default:
		return Host, fmt.Errorf("unknown placement %q", s)
	}
}

// DType is the element type of a tensor.
type DType int

const (
	Float32 DType = iota + 1
	Float64
	Complex64
	Complex128
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// ParseDType parses the names printed by [DType.String].
func ParseDType(s string) (DType, error) {
	for _, candidate := range []DType{Float32, Float64, Complex64, Complex128} {
		if candidate.String() == s {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("unknown dtype %q", s)
}

// Size is the width of one element in bytes.
func (d DType) Size() int {
	switch d {
	case Float32:
		return 4
	case Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

func (d DType) IsComplex() bool { return d == Complex64 || d == Complex128 }

// IsSingle reports whether d is built on 32-bit floats.
func (d DType) IsSingle() bool { return d == Float32 || d == Complex64 }

// Complex returns the complex type with the same component precision.
func (d DType) Complex() DType {
	if d.IsSingle() {
		return Complex64
	}
	return Complex128
}

// Real returns the real type with the same component precision.
func (d DType) Real() DType {
	if d.IsSingle() {
		return Float32
	}
	return Float64
}

// Order is the memory layout of a multi-dimensional tensor.
type Order int

const (
	// RowMajor stores the last axis contiguously (C order).
	RowMajor Order = iota
	// ColumnMajor stores the first axis contiguously (Fortran order).
	ColumnMajor
)

func (o Order) String() string {
	switch o {
	case RowMajor:
		return "C"
	case ColumnMajor:
		return "F"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}
