// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"time"

	"github.com/bureau-foundation/spiral/lib/digest"
	"github.com/bureau-foundation/spiral/lib/metadata"
)

// Record is one artifact that carries a metadata region.
type Record struct {
	Path     string             `json:"path"`
	Size     int64              `json:"size"`
	Modified time.Time          `json:"modified"`
	Digest   digest.Digest      `json:"digest"`
	Document *metadata.Document `json:"metadata"`
}
