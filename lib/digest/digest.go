// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes the content digests recorded for scanned
// artifacts and stored snapshots.
//
// Digests are BLAKE3 keyed hashes. Each use has its own domain key, so
// identical bytes hashed as an artifact and as a snapshot payload never
// produce the same digest.
package digest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest.
type Digest [32]byte

type domainKey [32]byte

// Domain keys are the ASCII domain name, zero-padded to 32 bytes.
// Changing one invalidates every stored digest in that domain.
var (
	artifactDomainKey = domainKey{
		's', 'p', 'i', 'r', 'a', 'l', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c', 't', 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	snapshotDomainKey = domainKey{
		's', 'p', 'i', 'r', 'a', 'l', '.', 's', 'n', 'a', 'p', 's', 'h', 'o', 't', 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Artifact digests the full contents of an artifact file.
func Artifact(data []byte) Digest {
	return keyed(artifactDomainKey, data)
}

// Snapshot digests the uncompressed payload of a reference snapshot.
func Snapshot(data []byte) Digest {
	return keyed(snapshotDomainKey, data)
}

// IsZero reports whether d was never set.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String is the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short is the first 12 hex characters, for log lines and listings.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:6])
}

// MarshalText encodes d as hex so JSON output stays readable.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse decodes a 64-character hex string.
func Parse(text string) (Digest, error) {
	var d Digest
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return d, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(d) {
		return d, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(d))
	}
	copy(d[:], decoded)
	return d, nil
}

func keyed(key domainKey, data []byte) Digest {
	// NewKeyed fails only for keys that are not 32 bytes long.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}
