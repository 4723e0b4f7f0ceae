// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/spiral/lib/tensor"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	runtime := NewEmulated(tensor.CUDA, 0)
	host, err := tensor.FromComplex128([]int{2, 3}, tensor.RowMajor, []complex128{1, 2i, 3, 4 - 1i, 5, 6})
	if err != nil {
		t.Fatal(err)
	}

	onDevice, err := Upload(runtime, host)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if onDevice.Placement() != tensor.CUDA {
		t.Errorf("placement = %v, want cuda", onDevice.Placement())
	}
	if diff := cmp.Diff(host.Shape(), onDevice.Shape()); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}

	back, err := Download(runtime, onDevice)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if diff := cmp.Diff(host.Complex128(), back.Complex128()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if err := Release(runtime, onDevice); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if live := runtime.Live(); live != 0 {
		t.Errorf("Live() = %d after release, want 0", live)
	}
}

func TestUploadRejectsDeviceSource(t *testing.T) {
	runtime := NewEmulated(tensor.HIP, 0)
	onDevice, err := Zeros(runtime, []int{4}, tensor.Float32, tensor.RowMajor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Upload(runtime, onDevice); err == nil {
		t.Error("Upload of a device tensor succeeded")
	}
}

func TestDownloadRejectsOtherPlacement(t *testing.T) {
	cuda := NewEmulated(tensor.CUDA, 0)
	hip := NewEmulated(tensor.HIP, 0)
	onCUDA, err := Zeros(cuda, []int{4}, tensor.Float64, tensor.RowMajor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Download(hip, onCUDA); err == nil {
		t.Error("Download through a HIP runtime accepted a CUDA tensor")
	}
}

func TestFreeErrors(t *testing.T) {
	first := NewEmulated(tensor.CUDA, 0)
	second := NewEmulated(tensor.CUDA, 0)

	buffer, err := first.Alloc(64)
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Free(buffer); !errors.Is(err, ErrForeignBuffer) {
		t.Errorf("Free on another runtime = %v, want ErrForeignBuffer", err)
	}
	if err := first.Free(buffer); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if err := first.Free(buffer); !errors.Is(err, ErrFreed) {
		t.Errorf("double Free = %v, want ErrFreed", err)
	}
	if err := first.CopyToDevice(buffer, []byte{1}); !errors.Is(err, ErrFreed) {
		t.Errorf("copy into freed buffer = %v, want ErrFreed", err)
	}
}

func TestCapacity(t *testing.T) {
	runtime := NewEmulated(tensor.CUDA, 100)
	first, err := runtime.Alloc(60)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := runtime.Alloc(60); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("second Alloc = %v, want ErrOutOfMemory", err)
	}
	if err := runtime.Free(first); err != nil {
		t.Fatal(err)
	}
	second, err := runtime.Alloc(60)
	if err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
	allocated, peak := runtime.Stats()
	if allocated != 60 || peak != 60 {
		t.Errorf("Stats() = (%d, %d), want (60, 60)", allocated, peak)
	}
	runtime.Free(second)
}

func TestCopyBounds(t *testing.T) {
	runtime := NewEmulated(tensor.CUDA, 0)
	buffer, err := runtime.Alloc(8)
	if err != nil {
		t.Fatal(err)
	}
	if err := runtime.CopyToDevice(buffer, make([]byte, 9)); err == nil {
		t.Error("oversized CopyToDevice succeeded")
	}
	if err := runtime.CopyToHost(make([]byte, 9), buffer); err == nil {
		t.Error("oversized CopyToHost succeeded")
	}
}

func TestScale(t *testing.T) {
	for _, dtype := range []tensor.DType{tensor.Float32, tensor.Float64, tensor.Complex64, tensor.Complex128} {
		t.Run(dtype.String(), func(t *testing.T) {
			runtime := NewEmulated(tensor.CUDA, 0)
			host, err := tensor.FromComplexValues([]int{4}, tensor.RowMajor, dtype, []complex128{8, 16, 24, 32})
			if err != nil {
				t.Fatal(err)
			}
			onDevice, err := Upload(runtime, host)
			if err != nil {
				t.Fatal(err)
			}
			defer Release(runtime, onDevice)

			if err := runtime.Scale(onDevice.Device(), dtype, 4, 8); err != nil {
				t.Fatalf("Scale: %v", err)
			}
			back, err := Download(runtime, onDevice)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]complex128{1, 2, 3, 4}, back.ComplexValues()); diff != "" {
				t.Errorf("scaled values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestZeroSizeAllocation(t *testing.T) {
	runtime := NewEmulated(tensor.HIP, 0)
	buffer, err := runtime.Alloc(0)
	if err != nil {
		t.Fatal(err)
	}
	if buffer.Pointer() == nil {
		t.Error("zero-size allocation has nil pointer")
	}
	if err := runtime.Free(buffer); err != nil {
		t.Fatal(err)
	}
}
