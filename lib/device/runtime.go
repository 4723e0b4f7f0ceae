// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/spiral/lib/tensor"
)

var (
	// ErrForeignBuffer is returned when a buffer is handed to a
	// runtime that did not allocate it.
	ErrForeignBuffer = errors.New("buffer does not belong to this runtime")

	// ErrFreed is returned for any use of a buffer after Free.
	ErrFreed = errors.New("buffer already freed")

	// ErrOutOfMemory is returned when an allocation exceeds the
	// runtime's capacity.
	ErrOutOfMemory = errors.New("out of device memory")
)

// Runtime manages device memory for a single accelerator placement.
type Runtime interface {
	// Placement is the accelerator this runtime serves.
	Placement() tensor.Placement

	// Alloc returns a zero-filled buffer of size bytes.
	Alloc(size int) (tensor.DeviceBuffer, error)

	// Free releases a buffer. Using it afterwards is an error.
	Free(buffer tensor.DeviceBuffer) error

	// CopyToDevice copies len(src) bytes into the start of dst.
	CopyToDevice(dst tensor.DeviceBuffer, src []byte) error

	// CopyToHost copies len(dst) bytes from the start of src.
	CopyToHost(dst []byte, src tensor.DeviceBuffer) error

	// Scale divides count elements of dtype at the start of buffer by
	// divisor, on the device.
	Scale(buffer tensor.DeviceBuffer, dtype tensor.DType, count int, divisor float64) error
}

// Zeros allocates a zero-filled device tensor.
func Zeros(runtime Runtime, shape []int, dtype tensor.DType, order tensor.Order) (*tensor.Tensor, error) {
	buffer, err := runtime.Alloc(tensor.Count(shape) * dtype.Size())
	if err != nil {
		return nil, fmt.Errorf("allocating %v %v on %v: %w", shape, dtype, runtime.Placement(), err)
	}
	result, err := tensor.OnDevice(buffer, shape, dtype, order)
	if err != nil {
		runtime.Free(buffer)
		return nil, err
	}
	return result, nil
}

// Upload copies a host tensor into a new device tensor.
func Upload(runtime Runtime, host *tensor.Tensor) (*tensor.Tensor, error) {
	if host.Placement() != tensor.Host {
		return nil, fmt.Errorf("upload source is on %v, not host", host.Placement())
	}
	result, err := Zeros(runtime, host.Shape(), host.DType(), host.Order())
	if err != nil {
		return nil, err
	}
	if err := runtime.CopyToDevice(result.Device(), host.HostBytes()); err != nil {
		runtime.Free(result.Device())
		return nil, fmt.Errorf("uploading to %v: %w", runtime.Placement(), err)
	}
	return result, nil
}

// Download copies a device tensor into a new host tensor.
func Download(runtime Runtime, source *tensor.Tensor) (*tensor.Tensor, error) {
	if source.Placement() != runtime.Placement() {
		return nil, fmt.Errorf("download source is on %v, runtime serves %v", source.Placement(), runtime.Placement())
	}
	host := tensor.New(source.Shape(), source.DType(), source.Order())
	if err := runtime.CopyToHost(host.HostBytes(), source.Device()); err != nil {
		return nil, fmt.Errorf("downloading from %v: %w", runtime.Placement(), err)
	}
	return host, nil
}

// Release frees the device memory behind a tensor. Host tensors are
// left alone.
func Release(runtime Runtime, t *tensor.Tensor) error {
	if t == nil || t.Device() == nil {
		return nil
	}
	return runtime.Free(t.Device())
}
