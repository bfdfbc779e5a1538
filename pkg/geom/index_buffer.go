package geom

import (
	"slices"
	"unsafe"
)

// IndexBuffer is an immutable flat triangle list. Every index refers to a
// row of the VertexTable it was built with.
type IndexBuffer struct {
	indices []uint32
}

// NewIndexBuffer copies indices into a new buffer.
func NewIndexBuffer(indices []uint32) *IndexBuffer {
	return &IndexBuffer{indices: slices.Clone(indices)}
}

// Len returns the number of indices.
func (b *IndexBuffer) Len() int { return len(b.indices) }

// Triangles returns the number of complete triangles.
func (b *IndexBuffer) Triangles() int { return len(b.indices) / 3 }

// At returns index i.
func (b *IndexBuffer) At(i int) uint32 { return b.indices[i] }

// Triangle returns the three indices of triangle t.
func (b *IndexBuffer) Triangle(t int) [3]uint32 {
	return [3]uint32{b.indices[3*t], b.indices[3*t+1], b.indices[3*t+2]}
}

// Values returns a copy of the index list.
func (b *IndexBuffer) Values() []uint32 { return slices.Clone(b.indices) }

// Bytes returns the index list reinterpreted as bytes, ready for upload.
// Callers must not modify it.
func (b *IndexBuffer) Bytes() []byte {
	if len(b.indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(b.indices))), len(b.indices)*4)
}

// Equal reports whether both buffers hold the same indices.
func (b *IndexBuffer) Equal(other *IndexBuffer) bool {
	return slices.Equal(b.indices, other.indices)
}
