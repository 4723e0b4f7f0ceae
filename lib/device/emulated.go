// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"
	"unsafe"

	"github.com/bureau-foundation/spiral/lib/tensor"
)

// Emulated is a [Runtime] backed by host memory. It tracks every live
// allocation so tests can assert that temporaries are released, and
// rejects buffers it did not allocate or has already freed.
//
// Emulated is not safe for concurrent use. Each solver owns its
// runtime and invokes it synchronously.
type Emulated struct {
	placement tensor.Placement
	capacity  int
	live      map[*emulatedBuffer]struct{}
	allocated int
	peak      int
}

// NewEmulated returns an emulated runtime for placement. A positive
// capacity bounds the total bytes live at once; zero means unbounded.
func NewEmulated(placement tensor.Placement, capacity int) *Emulated {
	if !placement.IsDevice() {
		panic(fmt.Sprintf("device.NewEmulated: %v is not a device placement", placement))
	}
	return &Emulated{
		placement: placement,
		capacity:  capacity,
		live:      make(map[*emulatedBuffer]struct{}),
	}
}

type emulatedBuffer struct {
	owner *Emulated
	// Backed by complex128 words so every dtype is naturally aligned.
	words []complex128
	size  int
}

func (b *emulatedBuffer) Placement() tensor.Placement { return b.owner.placement }
func (b *emulatedBuffer) Size() int                   { return b.size }

func (b *emulatedBuffer) Pointer() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b.words))
}

func (b *emulatedBuffer) bytes() []byte {
	return unsafe.Slice((*byte)(b.Pointer()), len(b.words)*16)[:b.size]
}

func (e *Emulated) Placement() tensor.Placement { return e.placement }

func (e *Emulated) Alloc(size int) (tensor.DeviceBuffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative allocation size %d", size)
	}
	if e.capacity > 0 && e.allocated+size > e.capacity {
		return nil, fmt.Errorf("allocating %d bytes with %d of %d in use: %w", size, e.allocated, e.capacity, ErrOutOfMemory)
	}
	// At least one word so Pointer is never nil.
	words := max((size+15)/16, 1)
	buffer := &emulatedBuffer{owner: e, words: make([]complex128, words), size: size}
	e.live[buffer] = struct{}{}
	e.allocated += size
	e.peak = max(e.peak, e.allocated)
	return buffer, nil
}

func (e *Emulated) Free(buffer tensor.DeviceBuffer) error {
	owned, err := e.own(buffer)
	if err != nil {
		return err
	}
	delete(e.live, owned)
	e.allocated -= owned.size
	owned.words = nil
	return nil
}

func (e *Emulated) CopyToDevice(dst tensor.DeviceBuffer, src []byte) error {
	owned, err := e.own(dst)
	if err != nil {
		return err
	}
	if len(src) > owned.size {
		return fmt.Errorf("copy of %d bytes into %d-byte buffer", len(src), owned.size)
	}
	copy(owned.bytes(), src)
	return nil
}

func (e *Emulated) CopyToHost(dst []byte, src tensor.DeviceBuffer) error {
	owned, err := e.own(src)
	if err != nil {
		return err
	}
	if len(dst) > owned.size {
		return fmt.Errorf("copy of %d bytes from %d-byte buffer", len(dst), owned.size)
	}
	copy(dst, owned.bytes())
	return nil
}

func (e *Emulated) Scale(buffer tensor.DeviceBuffer, dtype tensor.DType, count int, divisor float64) error {
	owned, err := e.own(buffer)
	if err != nil {
		return err
	}
	if count*dtype.Size() > owned.size {
		return fmt.Errorf("scaling %d %v elements in %d-byte buffer", count, dtype, owned.size)
	}
	view, err := hostView(owned.Pointer(), dtype, count)
	if err != nil {
		return err
	}
	view.Scale(divisor)
	return nil
}

// Live is the number of allocations not yet freed.
func (e *Emulated) Live() int {
	return len(e.live)
}

// Stats returns the bytes currently allocated and the high-water mark.
func (e *Emulated) Stats() (allocated, peak int) {
	return e.allocated, e.peak
}

// own checks that buffer is a live allocation of this runtime.
func (e *Emulated) own(buffer tensor.DeviceBuffer) (*emulatedBuffer, error) {
	owned, ok := buffer.(*emulatedBuffer)
	if !ok || owned.owner != e {
		return nil, fmt.Errorf("%v runtime: %w", e.placement, ErrForeignBuffer)
	}
	if _, live := e.live[owned]; !live {
		return nil, fmt.Errorf("%v runtime: %w", e.placement, ErrFreed)
	}
	return owned, nil
}

// hostView reinterprets emulated device memory as a one-dimensional
// host tensor sharing the same storage.
func hostView(pointer unsafe.Pointer, dtype tensor.DType, count int) (*tensor.Tensor, error) {
	shape := []int{count}
	switch dtype {
	case tensor.Float32:
		return tensor.FromFloat32(shape, tensor.RowMajor, unsafe.Slice((*float32)(pointer), count))
	case tensor.Float64:
		return tensor.FromFloat64(shape, tensor.RowMajor, unsafe.Slice((*float64)(pointer), count))
	case tensor.Complex64:
		return tensor.FromComplex64(shape, tensor.RowMajor, unsafe.Slice((*complex64)(pointer), count))
	case tensor.Complex128:
		return tensor.FromComplex128(shape, tensor.RowMajor, unsafe.Slice((*complex128)(pointer), count))
	default:
		return nil, fmt.Errorf("cannot scale dtype %v", dtype)
	}
}
