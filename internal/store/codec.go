// Package store persists chunk voxels. Every backend stores the same encoded
// payload: a version byte, the voxel count, an xxhash64 of the raw voxels and
// the zstd compressed voxel bytes.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"voxstream/internal/world"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

const (
	codecVersion = 1
	headerSize   = 1 + 4 + 8
	// maxVoxels bounds a decoded payload: a 256³ chunk.
	maxVoxels = 1 << 24
)

// ErrCorrupt is returned when a stored payload fails to decode or its
// checksum does not match.
var ErrCorrupt = errors.New("store: corrupt chunk payload")

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxVoxels))
)

// Encode serialises voxels into a stored payload.
func Encode(data []world.Material) []byte {
	raw := make([]byte, len(data))
	for i, m := range data {
		raw[i] = byte(m)
	}
	out := make([]byte, headerSize, headerSize+len(raw)/8)
	out[0] = codecVersion
	binary.BigEndian.PutUint32(out[1:5], uint32(len(raw)))
	binary.BigEndian.PutUint64(out[5:13], xxhash.Sum64(raw))
	return encoder.EncodeAll(raw, out)
}

// Decode parses a payload produced by Encode that must hold exactly want
// voxels. The count is checked before anything is allocated.
func Decode(b []byte, want int) ([]world.Material, error) {
	if len(b) < headerSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrCorrupt, len(b))
	}
	if b[0] != codecVersion {
		return nil, fmt.Errorf("%w: version %d", ErrCorrupt, b[0])
	}
	n := binary.BigEndian.Uint32(b[1:5])
	if int64(n) != int64(want) || n > maxVoxels {
		return nil, fmt.Errorf("%w: %d voxels, want %d", ErrCorrupt, n, want)
	}
	sum := binary.BigEndian.Uint64(b[5:13])

	raw, err := decoder.DecodeAll(b[headerSize:], make([]byte, 0, n))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if uint32(len(raw)) != n || xxhash.Sum64(raw) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	data := make([]world.Material, n)
	for i, v := range raw {
		data[i] = world.Material(v)
	}
	return data, nil
}

// Key encodes a region as 24 bytes: min then max corner, big endian int32.
func Key(r world.Region) []byte {
	k := make([]byte, 24)
	for i, v := range [6]int{r.Min.X, r.Min.Y, r.Min.Z, r.Max.X, r.Max.Y, r.Max.Z} {
		binary.BigEndian.PutUint32(k[i*4:], uint32(int32(v)))
	}
	return k
}
