package indexstore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Flat index file layout: 4-byte magic, uint32 dimension, uint32 row count,
// then count*dimension little-endian float32 values in chunk order.
var indexMagic = [4]byte{'R', 'D', 'X', '1'}

const headerSize = 12

func encodeVectors(vectors [][]float32) ([]byte, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to encode: %w", domain.ErrNoEmbeddingsCreated)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-dimension vector: %w", domain.ErrVectorDimMismatch)
	}

	buf := make([]byte, headerSize+len(vectors)*dim*4)
	copy(buf[:4], indexMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(dim))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(vectors)))

	off := headerSize
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf(
				"vector %d has dimension %d, index dimension is %d: %w",
				i, len(vec), dim, domain.ErrVectorDimMismatch,
			)
		}
		for _, f := range vec {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	return buf, nil
}

func decodeVectors(data []byte) ([][]float32, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("index file too short (%d bytes): %w", len(data), domain.ErrIndexCorrupted)
	}
	if [4]byte(data[:4]) != indexMagic {
		return nil, fmt.Errorf("bad index magic: %w", domain.ErrIndexCorrupted)
	}

	dim := int(binary.LittleEndian.Uint32(data[4:8]))
	count := int(binary.LittleEndian.Uint32(data[8:12]))
	if dim <= 0 || count <= 0 {
		return nil, fmt.Errorf("bad index header dim=%d count=%d: %w", dim, count, domain.ErrIndexCorrupted)
	}
	if len(data) != headerSize+count*dim*4 {
		return nil, fmt.Errorf(
			"index file size %d does not match dim=%d count=%d: %w",
			len(data), dim, count, domain.ErrIndexCorrupted,
		)
	}

	vectors := make([][]float32, count)
	off := headerSize
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// l2Distance returns the Euclidean distance between two equal-length vectors.
func l2Distance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
