// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tensor

import (
	"fmt"
	"slices"
	"unsafe"
)

// DeviceBuffer is accelerator memory handed out by a device runtime.
type DeviceBuffer interface {
	Placement() Placement

	// Pointer is the device address passed to native code.
	Pointer() unsafe.Pointer

	// Size is the allocation length in bytes.
	Size() int
}

// Tensor is a dense n-dimensional array.
type Tensor struct {
	shape []int
	dtype DType
	order Order

	// Exactly one of host and device is set. host is a []float32,
	// []float64, []complex64 or []complex128 matching dtype.
	host   any
	device DeviceBuffer
}

// New allocates a zero-filled host tensor.
func New(shape []int, dtype DType, order Order) *Tensor {
	count := Count(shape)
	var data any
	switch dtype {
	case Float32:
		data = make([]float32, count)
	case Float64:
		data = make([]float64, count)
	case Complex64:
		data = make([]complex64, count)
	case Complex128:
		data = make([]complex128, count)
	default:
		panic(fmt.Sprintf("tensor.New: invalid dtype %v", dtype))
	}
	return &Tensor{shape: slices.Clone(shape), dtype: dtype, order: order, host: data}
}

// FromFloat32 wraps data as a host tensor without copying.
func FromFloat32(shape []int, order Order, data []float32) (*Tensor, error) {
	return wrap(shape, order, Float32, data, len(data))
}

// FromFloat64 wraps data as a host tensor without copying.
func FromFloat64(shape []int, order Order, data []float64) (*Tensor, error) {
	return wrap(shape, order, Float64, data, len(data))
}

// FromComplex64 wraps data as a host tensor without copying.
func FromComplex64(shape []int, order Order, data []complex64) (*Tensor, error) {
	return wrap(shape, order, Complex64, data, len(data))
}

// FromComplex128 wraps data as a host tensor without copying.
func FromComplex128(shape []int, order Order, data []complex128) (*Tensor, error) {
	return wrap(shape, order, Complex128, data, len(data))
}

func wrap(shape []int, order Order, dtype DType, data any, length int) (*Tensor, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if count := Count(shape); count != length {
		return nil, fmt.Errorf("shape %v holds %d elements, data has %d", shape, count, length)
	}
	return &Tensor{shape: slices.Clone(shape), dtype: dtype, order: order, host: data}, nil
}

// OnDevice describes buffer as a tensor. The buffer must be at least
// as large as the tensor's byte length.
func OnDevice(buffer DeviceBuffer, shape []int, dtype DType, order Order) (*Tensor, error) {
	if buffer == nil {
		return nil, fmt.Errorf("nil device buffer")
	}
	if !buffer.Placement().IsDevice() {
		return nil, fmt.Errorf("buffer placement %v is not a device", buffer.Placement())
	}
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if need := Count(shape) * dtype.Size(); buffer.Size() < need {
		return nil, fmt.Errorf("device buffer of %d bytes cannot hold %v %v (%d bytes)", buffer.Size(), shape, dtype, need)
	}
	return &Tensor{shape: slices.Clone(shape), dtype: dtype, order: order, device: buffer}, nil
}

func checkShape(shape []int) error {
	for axis, extent := range shape {
		if extent < 0 {
			return fmt.Errorf("negative extent %d on axis %d", extent, axis)
		}
	}
	return nil
}

// Count is the number of elements in a tensor of the given shape.
func Count(shape []int) int {
	count := 1
	for _, extent := range shape {
		count *= extent
	}
	return count
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int { return slices.Clone(t.shape) }

func (t *Tensor) Rank() int    { return len(t.shape) }
func (t *Tensor) DType() DType { return t.dtype }
func (t *Tensor) Order() Order { return t.order }

// Len is the number of elements.
func (t *Tensor) Len() int { return Count(t.shape) }

// ByteLen is the number of bytes the elements occupy.
func (t *Tensor) ByteLen() int { return t.Len() * t.dtype.Size() }

// Placement reports where the tensor's memory lives.
func (t *Tensor) Placement() Placement {
	if t.device != nil {
		return t.device.Placement()
	}
	return Host
}

// Device returns the backing device buffer, or nil for host tensors.
func (t *Tensor) Device() DeviceBuffer { return t.device }

// Pointer returns the address of the first element, suitable for
// passing to native code. It is nil for an empty host tensor.
func (t *Tensor) Pointer() unsafe.Pointer {
	if t.device != nil {
		return t.device.Pointer()
	}
	switch data := t.host.(type) {
	case []float32:
		return unsafe.Pointer(unsafe.SliceData(data))
	case []float64:
		return unsafe.Pointer(unsafe.SliceData(data))
	case []complex64:
		return unsafe.Pointer(unsafe.SliceData(data))
	case []complex128:
		return unsafe.Pointer(unsafe.SliceData(data))
	}
	return nil
}

// HostBytes returns the host elements as raw bytes sharing the
// tensor's memory. It panics for device tensors.
func (t *Tensor) HostBytes() []byte {
	t.mustHost("HostBytes")
	pointer := t.Pointer()
	if pointer == nil || t.ByteLen() == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(pointer), t.ByteLen())
}

// Float32 returns the backing slice of a host float32 tensor.
func (t *Tensor) Float32() []float32 { return hostSlice[float32](t, Float32) }

// Float64 returns the backing slice of a host float64 tensor.
func (t *Tensor) Float64() []float64 { return hostSlice[float64](t, Float64) }

// Complex64 returns the backing slice of a host complex64 tensor.
func (t *Tensor) Complex64() []complex64 { return hostSlice[complex64](t, Complex64) }

// Complex128 returns the backing slice of a host complex128 tensor.
func (t *Tensor) Complex128() []complex128 { return hostSlice[complex128](t, Complex128) }

func hostSlice[E any](t *Tensor, want DType) []E {
	t.mustHost(want.String())
	if t.dtype != want {
		panic(fmt.Sprintf("tensor: %v accessor on %v tensor", want, t.dtype))
	}
	return t.host.([]E)
}

func (t *Tensor) mustHost(operation string) {
	if t.device != nil {
		panic(fmt.Sprintf("tensor: %s on %v tensor", operation, t.device.Placement()))
	}
}

// Reshape returns a tensor sharing t's memory with a new shape of the
// same element count.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if Count(shape) != t.Len() {
		return nil, fmt.Errorf("cannot reshape %v into %v", t.shape, shape)
	}
	reshaped := *t
	reshaped.shape = slices.Clone(shape)
	return &reshaped, nil
}

// Offset returns the flat element offset of a logical index according
// to the tensor's memory order.
func (t *Tensor) Offset(index ...int) int {
	if len(index) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index of rank %d into tensor of rank %d", len(index), len(t.shape)))
	}
	offset := 0
	if t.order == ColumnMajor {
		for axis := len(t.shape) - 1; axis >= 0; axis-- {
			offset = offset*t.shape[axis] + index[axis]
		}
		return offset
	}
	for axis, position := range index {
		offset = offset*t.shape[axis] + position
	}
	return offset
}

// At reads the element at a logical index, widened to complex128.
func (t *Tensor) At(index ...int) complex128 {
	t.mustHost("At")
	offset := t.Offset(index...)
	switch data := t.host.(type) {
	case []float32:
		return complex(float64(data[offset]), 0)
	case []float64:
		return complex(data[offset], 0)
	case []complex64:
		return complex128(data[offset])
	case []complex128:
		return data[offset]
	}
	panic("tensor: unreachable dtype")
}

// Set writes value at a logical index. The imaginary part is dropped
// for real tensors.
func (t *Tensor) Set(value complex128, index ...int) {
	t.mustHost("Set")
	offset := t.Offset(index...)
	switch data := t.host.(type) {
	case []float32:
		data[offset] = float32(real(value))
	case []float64:
		data[offset] = real(value)
	case []complex64:
		data[offset] = complex64(value)
	case []complex128:
		data[offset] = value
	}
}

// Clone returns a host copy of a host tensor.
func (t *Tensor) Clone() *Tensor {
	t.mustHost("Clone")
	clone := New(t.shape, t.dtype, t.order)
	copy(clone.HostBytes(), t.HostBytes())
	return clone
}
