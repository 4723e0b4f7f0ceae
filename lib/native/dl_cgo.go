// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build cgo && unix

package native

/*
#cgo linux LDFLAGS: -ldl

#include <dlfcn.h>
#include <stdlib.h>

typedef void (*spiral_void_fn)(void);
typedef void (*spiral_exec_fn)(void *, void *, void *);

static void spiral_call_void(void *fn) {
	((spiral_void_fn)fn)();
}

// Artifacts with two-argument entry points ignore the trailing NULL
// under every C calling convention we target.
static void spiral_call_exec(void *fn, void *dst, void *src, void *aux) {
	((spiral_exec_fn)fn)(dst, src, aux);
}

static const char *spiral_dlerror(void) {
	const char *message = dlerror();
	return message ? message : "unknown dynamic loader error";
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

type library struct {
	path   string
	handle unsafe.Pointer
}

func openLibrary(path string) (*library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, fmt.Errorf("loading artifact %s: %s", path, C.GoString(C.spiral_dlerror()))
	}
	return &library{path: path, handle: handle}, nil
}

func (l *library) symbol(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror()
	address := C.dlsym(l.handle, cname)
	if address == nil {
		return nil, &SymbolError{Path: l.path, Symbol: name, Reason: C.GoString(C.spiral_dlerror())}
	}
	return address, nil
}

func (l *library) close() error {
	if l.handle == nil {
		return nil
	}
	handle := l.handle
	l.handle = nil
	if C.dlclose(handle) != 0 {
		return fmt.Errorf("unloading artifact %s: %s", l.path, C.GoString(C.spiral_dlerror()))
	}
	return nil
}

func callVoid(fn unsafe.Pointer) {
	C.spiral_call_void(fn)
}

func callExec(fn, dst, src, aux unsafe.Pointer) {
	C.spiral_call_exec(fn, dst, src, aux)
}
