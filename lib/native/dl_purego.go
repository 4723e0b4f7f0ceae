// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !cgo && (darwin || linux) && (amd64 || arm64)

package native

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

type library struct {
	path   string
	handle uintptr
}

func openLibrary(path string) (*library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("loading artifact %s: %w", path, err)
	}
	return &library{path: path, handle: handle}, nil
}

func (l *library) symbol(name string) (unsafe.Pointer, error) {
	address, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return nil, &SymbolError{Path: l.path, Symbol: name, Reason: err.Error()}
	}
	// Code addresses are outside the Go heap.
	return *(*unsafe.Pointer)(unsafe.Pointer(&address)), nil
}

func (l *library) close() error {
	if l.handle == 0 {
		return nil
	}
	handle := l.handle
	l.handle = 0
	if err := purego.Dlclose(handle); err != nil {
		return fmt.Errorf("unloading artifact %s: %w", l.path, err)
	}
	return nil
}

func callVoid(fn unsafe.Pointer) {
	purego.SyscallN(uintptr(fn))
}

// The caller keeps dst, src and aux reachable for the duration of the
// call.
func callExec(fn, dst, src, aux unsafe.Pointer) {
	purego.SyscallN(uintptr(fn), uintptr(dst), uintptr(src), uintptr(aux))
}
