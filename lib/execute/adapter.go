// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package execute

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/bureau-foundation/spiral/lib/device"
	"github.com/bureau-foundation/spiral/lib/native"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

// Adapter runs bound functions on a fixed placement.
type Adapter struct {
	placement tensor.Placement
	runtime   device.Runtime
}

// New returns an adapter for placement. Device placements require a
// runtime serving the same placement; the host placement ignores
// runtime.
func New(placement tensor.Placement, runtime device.Runtime) (*Adapter, error) {
	if !placement.IsDevice() {
		return &Adapter{placement: tensor.Host}, nil
	}
	if runtime == nil {
		return nil, fmt.Errorf("placement %v requires a device runtime", placement)
	}
	if runtime.Placement() != placement {
		return nil, fmt.Errorf("runtime serves %v, adapter placement is %v", runtime.Placement(), placement)
	}
	return &Adapter{placement: placement, runtime: runtime}, nil
}

func (a *Adapter) Placement() tensor.Placement { return a.placement }

// Call describes one invocation of a bound function.
type Call struct {
	Function    native.Function
	Destination *tensor.Tensor
	Source      *tensor.Tensor
	Auxiliary   []*tensor.Tensor

	// Order is the memory order the function was built for.
	Order tensor.Order

	// Normalization divides the destination after the call. Values
	// of 1 or less leave it untouched.
	Normalization float64
}

// Invoke checks placement and layout, calls the function with the
// destination, source and auxiliary addresses in that order, applies
// normalization and returns the destination.
func (a *Adapter) Invoke(call Call) (*tensor.Tensor, error) {
	if call.Function == nil {
		return nil, errors.New("invoke without a bound function")
	}
	if call.Destination == nil || call.Source == nil {
		return nil, errors.New("invoke requires destination and source tensors")
	}
	if have := call.Function.Placement(); have != a.placement {
		return nil, &PlacementMismatchError{Operand: "function", Have: have, Want: a.placement}
	}

	operands := []*tensor.Tensor{call.Destination, call.Source}
	operands = append(operands, call.Auxiliary...)

	args := make([]unsafe.Pointer, 0, len(operands))
	for i, operand := range operands {
		name := operandName(i - 1)
		if operand == nil {
			return nil, fmt.Errorf("%s is nil", name)
		}
		if have := operand.Placement(); have != a.placement {
			return nil, &PlacementMismatchError{Operand: name, Have: have, Want: a.placement}
		}
		// Order is meaningless for vectors.
		if operand.Rank() > 1 && operand.Order() != call.Order {
			return nil, &LayoutMismatchError{Operand: name, Have: operand.Order(), Want: call.Order}
		}
		args = append(args, operand.Pointer())
	}

	if err := call.Function.Call(args...); err != nil {
		return nil, fmt.Errorf("bound function: %w", err)
	}
	if err := a.normalize(call.Destination, call.Normalization); err != nil {
		return nil, err
	}
	return call.Destination, nil
}

func (a *Adapter) normalize(destination *tensor.Tensor, divisor float64) error {
	if divisor <= 1 {
		return nil
	}
	if destination.Placement() == tensor.Host {
		destination.Scale(divisor)
		return nil
	}
	if err := a.runtime.Scale(destination.Device(), destination.DType(), destination.Len(), divisor); err != nil {
		return fmt.Errorf("normalizing destination on %v: %w", a.placement, err)
	}
	return nil
}

// Allocate returns a zero-filled tensor on the adapter's placement.
// Device tensors must be released with [Adapter.Release].
func (a *Adapter) Allocate(shape []int, dtype tensor.DType, order tensor.Order) (*tensor.Tensor, error) {
	if a.runtime == nil {
		return tensor.New(shape, dtype, order), nil
	}
	return device.Zeros(a.runtime, shape, dtype, order)
}

// Release frees a tensor returned by [Adapter.Allocate]. Host tensors
// are left to the garbage collector.
func (a *Adapter) Release(t *tensor.Tensor) error {
	if a.runtime == nil {
		return nil
	}
	return device.Release(a.runtime, t)
}

// Request is a host-side invocation for [Adapter.Execute].
type Request struct {
	Function native.Function
	Source   *tensor.Tensor

	// Auxiliary host buffers are staged alongside Source.
	Auxiliary []*tensor.Tensor

	// DestinationShape and DestinationType describe the output to
	// allocate.
	DestinationShape []int
	DestinationType  tensor.DType

	Order         tensor.Order
	Normalization float64
}

// Execute runs a function on host inputs and returns a host result.
// On a device placement the inputs are uploaded into temporaries, the
// result is downloaded, and every temporary is freed before Execute
// returns, whether or not the call succeeded.
func (a *Adapter) Execute(request Request) (result *tensor.Tensor, err error) {
	inputs := append([]*tensor.Tensor{request.Source}, request.Auxiliary...)
	for i, input := range inputs {
		if input == nil {
			return nil, fmt.Errorf("input %d is nil", i)
		}
		if input.Placement() != tensor.Host {
			return nil, &PlacementMismatchError{Operand: operandName(i), Have: input.Placement(), Want: tensor.Host}
		}
	}

	if a.runtime == nil {
		destination := tensor.New(request.DestinationShape, request.DestinationType, request.Order)
		return a.Invoke(Call{
			Function:      request.Function,
			Destination:   destination,
			Source:        request.Source,
			Auxiliary:     request.Auxiliary,
			Order:         request.Order,
			Normalization: request.Normalization,
		})
	}

	var temporaries []*tensor.Tensor
	defer func() {
		for _, temporary := range temporaries {
			if releaseErr := device.Release(a.runtime, temporary); releaseErr != nil && err == nil {
				result, err = nil, fmt.Errorf("releasing device temporary: %w", releaseErr)
			}
		}
	}()

	staged := make([]*tensor.Tensor, len(inputs))
	for i, input := range inputs {
		onDevice, err := device.Upload(a.runtime, input)
		if err != nil {
			return nil, fmt.Errorf("staging %s: %w", operandName(i), err)
		}
		temporaries = append(temporaries, onDevice)
		staged[i] = onDevice
	}
	destination, err := device.Zeros(a.runtime, request.DestinationShape, request.DestinationType, request.Order)
	if err != nil {
		return nil, err
	}
	temporaries = append(temporaries, destination)

	if _, err := a.Invoke(Call{
		Function:      request.Function,
		Destination:   destination,
		Source:        staged[0],
		Auxiliary:     staged[1:],
		Order:         request.Order,
		Normalization: request.Normalization,
	}); err != nil {
		return nil, err
	}
	return device.Download(a.runtime, destination)
}

// operandName labels an argument by its position after the
// destination: -1 is the destination, 0 the source, then auxiliaries.
func operandName(index int) string {
	switch index {
	case -1:
		return "destination"
	case 0:
		return "source"
	default:
		return fmt.Sprintf("auxiliary %d", index-1)
	}
}
