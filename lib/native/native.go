// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package native binds the exported entry points of compiled transform
// artifacts.
//
// Every artifact exports three C symbols per transform variant: an
// initializer taking no arguments, the transform itself taking the
// destination pointer, the source pointer and an optional auxiliary
// pointer (a convolution symbol, for example), and a destructor. [Bind]
// loads an artifact, runs its initializer and returns a [Kernel] whose
// Close runs the destructor and unloads the artifact.
//
// Loading uses dlopen through cgo on unix platforms, and through
// purego in amd64 and arm64 linux and darwin builds without cgo.
// Anywhere else [Bind] returns [ErrUnsupported]; [FuncOf] is always
// available and wraps a Go function in the same [Function] contract.
package native

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/bureau-foundation/spiral/lib/metadata"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

// ErrUnsupported is returned by [Bind] when the binary was built
// without dynamic loading support.
var ErrUnsupported = errors.New("native artifact loading is not supported on this platform")

// Function is a callable transform entry point. Arguments are raw
// buffer addresses on the function's placement: destination first,
// then source, then any auxiliary buffers.
type Function interface {
	Placement() tensor.Placement
	Call(args ...unsafe.Pointer) error
}

// SymbolError reports a symbol missing from a loaded artifact.
type SymbolError struct {
	Path   string
	Symbol string
	Reason string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("artifact %s: symbol %q: %s", e.Path, e.Symbol, e.Reason)
}

// Kernel is a loaded artifact variant, initialized and ready to call.
type Kernel struct {
	path      string
	names     metadata.Names
	placement tensor.Placement
	library   *library
	exec      unsafe.Pointer
	destroy   unsafe.Pointer
	closed    bool
}

// Bind loads the artifact at path, resolves the symbols in names and
// calls the initializer if one is named. The returned kernel targets
// placement; the caller is responsible for passing buffers that live
// there.
func Bind(path string, names metadata.Names, placement tensor.Placement) (*Kernel, error) {
	if names.Exec == "" {
		return nil, &SymbolError{Path: path, Symbol: "", Reason: "no exec symbol named"}
	}
	lib, err := openLibrary(path)
	if err != nil {
		return nil, err
	}

	kernel := &Kernel{path: path, names: names, placement: placement, library: lib}
	success := false
	defer func() {
		if !success {
			lib.close()
		}
	}()

	if kernel.exec, err = lib.symbol(names.Exec); err != nil {
		return nil, err
	}
	var initialize unsafe.Pointer
	if names.Init != "" {
		if initialize, err = lib.symbol(names.Init); err != nil {
			return nil, err
		}
	}
	if names.Destroy != "" {
		if kernel.destroy, err = lib.symbol(names.Destroy); err != nil {
			return nil, err
		}
	}

	if initialize != nil {
		callVoid(initialize)
	}
	success = true
	return kernel, nil
}

func (k *Kernel) Placement() tensor.Placement { return k.placement }
func (k *Kernel) Path() string                { return k.path }
func (k *Kernel) Names() metadata.Names       { return k.names }

// Call invokes the transform with two or three buffer addresses.
func (k *Kernel) Call(args ...unsafe.Pointer) error {
	if k.closed {
		return fmt.Errorf("call to %s after Close", k.names.Exec)
	}
	switch len(args) {
	case 2:
		callExec(k.exec, args[0], args[1], nil)
	case 3:
		callExec(k.exec, args[0], args[1], args[2])
	default:
		return fmt.Errorf("%s takes 2 or 3 buffer arguments, got %d", k.names.Exec, len(args))
	}
	return nil
}

// Close runs the destructor and unloads the artifact. Calling Close
// more than once is a no-op.
func (k *Kernel) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	if k.destroy != nil {
		callVoid(k.destroy)
	}
	return k.library.close()
}

// FuncOf adapts a Go function to [Function]. The function sees the
// arguments exactly as passed to Call.
func FuncOf(placement tensor.Placement, fn func(args ...unsafe.Pointer) error) Function {
	return goFunction{placement: placement, fn: fn}
}

type goFunction struct {
	placement tensor.Placement
	fn        func(args ...unsafe.Pointer) error
}

func (f goFunction) Placement() tensor.Placement       { return f.placement }
func (f goFunction) Call(args ...unsafe.Pointer) error { return f.fn(args...) }
