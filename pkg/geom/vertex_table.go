package geom

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrLayoutMismatch is returned when raw data does not fit a row layout.
var ErrLayoutMismatch = errors.New("vertex data does not match layout")

// Attribute describes where one field lives inside a packed row.
type Attribute struct {
	Field      Field
	Components int
	Offset     int // bytes from the start of the row
}

// VertexTable stores per-vertex attributes interleaved in one contiguous
// block. Each row holds a slot for every enabled field, whether or not the
// slot was ever written.
//
// A table is filled once by its producer and must be treated as read-only
// after it is handed out; concurrent readers need no locking.
type VertexTable struct {
	fields Fields
	rows   int
	data   []float32
}

// NewVertexTable allocates a zeroed table with the given fields and row count.
// Position is always part of the layout.
func NewVertexTable(fields Fields, rows int) *VertexTable {
	if rows < 0 {
		rows = 0
	}
	fields = fields.With(FieldPosition)
	return &VertexTable{
		fields: fields,
		rows:   rows,
		data:   make([]float32, rows*fields.Components()),
	}
}

// VertexTableFromFloats wraps packed row data produced elsewhere, such as a
// decoded container. data must hold exactly rows rows of the given layout.
func VertexTableFromFloats(fields Fields, rows int, data []float32) (*VertexTable, error) {
	fields = fields.With(FieldPosition)
	if rows < 0 || len(data) != rows*fields.Components() {
		return nil, fmt.Errorf("%w: %d floats for %d rows of %s", ErrLayoutMismatch, len(data), rows, fields)
	}
	return &VertexTable{fields: fields, rows: rows, data: data}, nil
}

// Fields returns the enabled field set.
func (t *VertexTable) Fields() Fields { return t.fields }

// Len returns the number of rows.
func (t *VertexTable) Len() int { return t.rows }

// Stride returns the row width in bytes.
func (t *VertexTable) Stride() int { return t.fields.Stride() }

// Layout returns the attribute layout of a row in canonical order.
func (t *VertexTable) Layout() []Attribute {
	var attrs []Attribute
	for _, f := range canonicalOrder {
		if t.fields.Has(f) {
			attrs = append(attrs, Attribute{
				Field:      f,
				Components: f.Components(),
				Offset:     t.fields.Offset(f),
			})
		}
	}
	return attrs
}

// Floats returns the backing store. Callers must not modify it.
func (t *VertexTable) Floats() []float32 { return t.data }

// Bytes returns the backing store reinterpreted as bytes, ready for upload.
// Callers must not modify it.
func (t *VertexTable) Bytes() []byte {
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(t.data))), len(t.data)*4)
}

// Positions returns the position view.
func (t *VertexTable) Positions() Vec3View {
	return t.vec3(FieldPosition)
}

// Normals returns the normal view. ok is false if the table has no normals.
func (t *VertexTable) Normals() (v Vec3View, ok bool) {
	if !t.fields.Has(FieldNormal) {
		return Vec3View{}, false
	}
	return t.vec3(FieldNormal), true
}

// TexCoords returns the texture coordinate view. ok is false if the table
// has no texture coordinates.
func (t *VertexTable) TexCoords() (v Vec2View, ok bool) {
	if !t.fields.Has(FieldTexCoord) {
		return Vec2View{}, false
	}
	return Vec2View{
		view: view{data: t.data, stride: t.fields.Components(), offset: t.fields.offset(FieldTexCoord), n: t.rows},
	}, true
}

func (t *VertexTable) vec3(f Field) Vec3View {
	return Vec3View{
		view: view{data: t.data, stride: t.fields.Components(), offset: t.fields.offset(f), n: t.rows},
	}
}

type view struct {
	data   []float32
	stride int
	offset int
	n      int
}

// Len returns the number of rows in the view.
func (v view) Len() int { return v.n }

func (v view) base(i int) int {
	if i < 0 || i >= v.n {
		panic("geom: view index out of range")
	}
	return i*v.stride + v.offset
}

// Vec3View is a strided view over one 3-component field of a VertexTable.
type Vec3View struct{ view }

// Ptr returns the slot of row i as a vector pointer into the table.
func (v Vec3View) Ptr(i int) *mgl32.Vec3 {
	b := v.base(i)
	return (*mgl32.Vec3)(v.data[b : b+3])
}

// At returns the value of row i.
func (v Vec3View) At(i int) mgl32.Vec3 { return *v.Ptr(i) }

// Set writes the value of row i.
func (v Vec3View) Set(i int, val mgl32.Vec3) { *v.Ptr(i) = val }

// Vec2View is a strided view over one 2-component field of a VertexTable.
type Vec2View struct{ view }

// Ptr returns the slot of row i as a vector pointer into the table.
func (v Vec2View) Ptr(i int) *mgl32.Vec2 {
	b := v.base(i)
	return (*mgl32.Vec2)(v.data[b : b+2])
}

// At returns the value of row i.
func (v Vec2View) At(i int) mgl32.Vec2 { return *v.Ptr(i) }

// Set writes the value of row i.
func (v Vec2View) Set(i int, val mgl32.Vec2) { *v.Ptr(i) = val }
