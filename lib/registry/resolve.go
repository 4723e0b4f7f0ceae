// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/spiral/lib/digest"
	"github.com/bureau-foundation/spiral/lib/metadata"
)

// ErrNotFound is returned by [Resolver.Find] when no variant matches.
// Callers typically respond by building the artifact.
var ErrNotFound = errors.New("no matching artifact")

// Query selects a variant by structure. TransformType is required.
// Every other field takes part in the comparison only when set, and
// then must equal the variant's field exactly.
type Query struct {
	TransformType string `json:"TransformType"`
	Dimensions    []int  `json:"Dimensions,omitempty"`
	Direction     string `json:"Direction,omitempty"`
	Precision     string `json:"Precision,omitempty"`
	Order         string `json:"Order,omitempty"`
	BatchSize     int    `json:"BatchSize,omitempty"`
	ReadStride    string `json:"ReadStride,omitempty"`
	WriteStride   string `json:"WriteStride,omitempty"`
	Platform      string `json:"Platform,omitempty"`
}

// QueryFor returns the query that matches exactly the variants
// structurally identical to v.
func QueryFor(v metadata.Variant) Query {
	return Query{
		TransformType: v.TransformType,
		Dimensions:    slices.Clone(v.Dimensions),
		Direction:     v.Direction,
		Precision:     v.Precision,
		Order:         v.Order,
		BatchSize:     v.BatchSize,
		ReadStride:    v.ReadStride,
		WriteStride:   v.WriteStride,
		Platform:      v.Platform,
	}
}

// Matches reports whether every field set in q equals the
// corresponding field of v.
func (q Query) Matches(v metadata.Variant) bool {
	if q.TransformType == "" || q.TransformType != v.TransformType {
		return false
	}
	if len(q.Dimensions) > 0 && !slices.Equal(q.Dimensions, v.Dimensions) {
		return false
	}
	if q.BatchSize != 0 && q.BatchSize != v.BatchSize {
		return false
	}
	for _, field := range []struct{ want, have string }{
		{q.Direction, v.Direction},
		{q.Precision, v.Precision},
		{q.Order, v.Order},
		{q.ReadStride, v.ReadStride},
		{q.WriteStride, v.WriteStride},
		{q.Platform, v.Platform},
	} {
		if field.want != "" && field.want != field.have {
			return false
		}
	}
	return true
}

func (q Query) String() string {
	parts := []string{q.TransformType}
	if len(q.Dimensions) > 0 {
		extents := make([]string, len(q.Dimensions))
		for i, extent := range q.Dimensions {
			extents[i] = fmt.Sprint(extent)
		}
		parts = append(parts, strings.Join(extents, "x"))
	}
	for _, field := range []struct{ key, value string }{
		{"direction", q.Direction},
		{"precision", q.Precision},
		{"order", q.Order},
		{"read", q.ReadStride},
		{"write", q.WriteStride},
		{"platform", q.Platform},
	} {
		if field.value != "" {
			parts = append(parts, field.key+"="+field.value)
		}
	}
	if q.BatchSize != 0 {
		parts = append(parts, fmt.Sprintf("batch=%d", q.BatchSize))
	}
	return strings.Join(parts, " ")
}

// Match is a resolved variant and the artifact that exports it.
type Match struct {
	Path    string           `json:"path"`
	Digest  digest.Digest    `json:"digest"`
	Names   metadata.Names   `json:"names"`
	Variant metadata.Variant `json:"variant"`
}

// Resolver answers queries against a fixed set of scanned records. It
// never rescans; build a new resolver to pick up new artifacts.
type Resolver struct {
	records []Record
}

// NewResolver resolves against records in the given order.
func NewResolver(records []Record) *Resolver {
	return &Resolver{records: records}
}

// Load scans directories and returns a resolver over the result.
func Load(scanner *Scanner, directories []string) *Resolver {
	return NewResolver(scanner.Scan(directories))
}

// Records returns the scanned records in resolution order.
func (r *Resolver) Records() []Record {
	return slices.Clone(r.records)
}

// Resolve returns the first variant matching q: earlier records win,
// and within a record earlier variants win. A query without a
// transform type matches nothing.
func (r *Resolver) Resolve(q Query) (Match, bool) {
	if q.TransformType == "" {
		return Match{}, false
	}
	for _, record := range r.records {
		document := record.Document
		if document == nil || !document.Supports(q.TransformType) {
			continue
		}
		for _, variant := range document.Transforms {
			if q.Matches(variant) {
				return Match{Path: record.Path, Digest: record.Digest, Names: variant.Names, Variant: variant}, true
			}
		}
	}
	return Match{}, false
}

// Find is [Resolver.Resolve] with the absent result reported as an
// error wrapping [ErrNotFound].
func (r *Resolver) Find(q Query) (Match, error) {
	match, ok := r.Resolve(q)
	if !ok {
		return Match{}, fmt.Errorf("%w for %v", ErrNotFound, q)
	}
	return match, nil
}
