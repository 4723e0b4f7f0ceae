// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bureau-foundation/spiral/lib/atomicfile"
	"github.com/bureau-foundation/spiral/lib/codec"
	"github.com/bureau-foundation/spiral/lib/compress"
	"github.com/bureau-foundation/spiral/lib/digest"
	"github.com/bureau-foundation/spiral/lib/tensor"
)

const snapshotVersion = 1

// signature is "SPSNAP" + version byte + reserved byte.
var signature = [8]byte{'S', 'P', 'S', 'N', 'A', 'P', snapshotVersion, 0}

// Origins of snapshot data.
const (
	OriginReference = "reference"
	OriginArtifact  = "artifact"
)

// Snapshot is a host tensor with the context it was computed in.
type Snapshot struct {
	// Name is the canonical name of the transform that produced the
	// data.
	Name string

	// Origin is OriginReference or OriginArtifact.
	Origin string

	// Artifact is the path of the artifact for OriginArtifact.
	Artifact string

	Created time.Time
	Tensor  *tensor.Tensor
}

type envelope struct {
	Name        string        `cbor:"name"`
	Origin      string        `cbor:"origin"`
	Artifact    string        `cbor:"artifact,omitempty"`
	Created     int64         `cbor:"created"`
	Shape       []int         `cbor:"shape"`
	DType       string        `cbor:"dtype"`
	Order       tensor.Order  `cbor:"order"`
	Compression compress.Tag  `cbor:"compression"`
	Size        int           `cbor:"size"`
	Digest      digest.Digest `cbor:"digest"`
	Payload     []byte        `cbor:"payload"`
}

// ErrNotSnapshot is returned for data that does not start with the
// snapshot signature.
var ErrNotSnapshot = errors.New("not a snapshot")

// Marshal encodes s. The tensor must be on the host.
func Marshal(s Snapshot) ([]byte, error) {
	if s.Tensor == nil {
		return nil, errors.New("snapshot has no tensor")
	}
	if placement := s.Tensor.Placement(); placement != tensor.Host {
		return nil, fmt.Errorf("snapshot of a %v tensor; download it first", placement)
	}

	raw := s.Tensor.HostBytes()
	dtype := s.Tensor.DType()
	payload, tag, err := compress.Auto(raw, dtype.Real().Size())
	if err != nil {
		return nil, fmt.Errorf("compressing snapshot payload: %w", err)
	}
	encoded, err := codec.Marshal(envelope{
		Name:        s.Name,
		Origin:      s.Origin,
		Artifact:    s.Artifact,
		Created:     s.Created.UnixNano(),
		Shape:       s.Tensor.Shape(),
		DType:       dtype.String(),
		Order:       s.Tensor.Order(),
		Compression: tag,
		Size:        len(raw),
		Digest:      digest.Snapshot(raw),
		Payload:     payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return append(signature[:], encoded...), nil
}

// Unmarshal decodes data written by [Marshal] and verifies its digest.
func Unmarshal(data []byte) (Snapshot, error) {
	if len(data) < len(signature) || !bytes.HasPrefix(data, signature[:6]) {
		return Snapshot{}, ErrNotSnapshot
	}
	if data[6] != snapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", data[6])
	}

	var header envelope
	if err := codec.Unmarshal(data[len(signature):], &header); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	dtype, err := tensor.ParseDType(header.DType)
	if err != nil {
		return Snapshot{}, err
	}
	for _, extent := range header.Shape {
		if extent < 0 {
			return Snapshot{}, fmt.Errorf("snapshot shape %v has a negative extent", header.Shape)
		}
	}
	if want := tensor.Count(header.Shape) * dtype.Size(); header.Size != want {
		return Snapshot{}, fmt.Errorf("snapshot payload is %d bytes, shape %v of %v needs %d", header.Size, header.Shape, dtype, want)
	}
	raw, err := compress.Decompress(header.Payload, header.Compression, header.Size)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decompressing snapshot payload: %w", err)
	}
	if got := digest.Snapshot(raw); got != header.Digest {
		return Snapshot{}, fmt.Errorf("snapshot digest mismatch: stored %s, computed %s", header.Digest.Short(), got.Short())
	}

	t := tensor.New(header.Shape, dtype, header.Order)
	copy(t.HostBytes(), raw)
	return Snapshot{
		Name:     header.Name,
		Origin:   header.Origin,
		Artifact: header.Artifact,
		Created:  time.Unix(0, header.Created).UTC(),
		Tensor:   t,
	}, nil
}

// Save writes s to path atomically.
func Save(path string, s Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o644)
}

// Load reads the snapshot at path.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	s, err := Unmarshal(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
