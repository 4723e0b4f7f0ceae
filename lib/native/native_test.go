// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package native

import (
	"errors"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

func TestFuncOf(t *testing.T) {
	var seen []unsafe.Pointer
	fn := FuncOf(tensor.HIP, func(args ...unsafe.Pointer) error {
		seen = args
		return nil
	})
	if fn.Placement() != tensor.HIP {
		t.Errorf("Placement() = %v, want hip", fn.Placement())
	}

	destination := make([]float64, 2)
	source := make([]float64, 2)
	if err := fn.Call(unsafe.Pointer(&destination[0]), unsafe.Pointer(&source[0])); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(seen) != 2 || seen[0] != unsafe.Pointer(&destination[0]) || seen[1] != unsafe.Pointer(&source[0]) {
		t.Errorf("function saw %v", seen)
	}
}

func TestFuncOfPropagatesError(t *testing.T) {
	want := errors.New("kernel failed")
	fn := FuncOf(tensor.Host, func(args ...unsafe.Pointer) error { return want })
	if err := fn.Call(nil, nil); !errors.Is(err, want) {
		t.Errorf("Call error = %v, want %v", err, want)
	}
}

func TestBindRequiresExecSymbol(t *testing.T) {
	_, err := Bind(filepath.Join(t.TempDir(), "libfft.so"), metadata.Names{Init: "init_x"}, tensor.Host)
	var symbolErr *SymbolError
	if !errors.As(err, &symbolErr) {
		t.Fatalf("Bind error = %v, want *SymbolError", err)
	}
}

func TestBindMissingArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libmissing.so")
	_, err := Bind(path, metadata.NamesFor("zdft_fwd_8"), tensor.Host)
	if err == nil {
		t.Fatal("Bind of a missing artifact succeeded")
	}
}
