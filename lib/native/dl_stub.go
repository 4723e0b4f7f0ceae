// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !(cgo && unix) && !(!cgo && (darwin || linux) && (amd64 || arm64))

package native

import "unsafe"

type library struct{}

func openLibrary(path string) (*library, error) { return nil, ErrUnsupported }

func (l *library) symbol(name string) (unsafe.Pointer, error) { return nil, ErrUnsupported }
func (l *library) close() error                               { return nil }

func callVoid(fn unsafe.Pointer)                {}
func callExec(fn, dst, src, aux unsafe.Pointer) {}
