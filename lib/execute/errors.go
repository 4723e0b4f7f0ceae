// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package execute

import (
	"fmt"

	"github.com/bureau-foundation/spiral/lib/tensor"
)

// PlacementMismatchError reports a buffer or function whose placement
// differs from the adapter's.
type PlacementMismatchError struct {
	// Operand names the offending argument: "function",
	// "destination", "source" or "auxiliary N".
	Operand string
	Have    tensor.Placement
	Want    tensor.Placement
}

func (e *PlacementMismatchError) Error() string {
	return fmt.Sprintf("%s is on %v, adapter executes on %v", e.Operand, e.Have, e.Want)
}

// LayoutMismatchError reports a buffer whose memory order differs from
// the order the bound function was built for.
type LayoutMismatchError struct {
	Operand string
	Have    tensor.Order
	Want    tensor.Order
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("%s has order %v, function expects %v", e.Operand, e.Have, e.Want)
}
