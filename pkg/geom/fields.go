// Package geom provides the packed vertex storage and index buffers
// produced by mesh building.
package geom

import "strings"

// Field identifies one per-vertex attribute.
type Field uint8

// Vertex attribute fields, in canonical packing order.
const (
	FieldPosition Field = 1 << iota
	FieldNormal
	FieldTexCoord
)

// canonicalOrder is the order fields are laid out inside a row.
var canonicalOrder = [...]Field{FieldPosition, FieldNormal, FieldTexCoord}

// Components returns the number of float32 values the field occupies.
func (f Field) Components() int {
	switch f {
	case FieldPosition, FieldNormal:
		return 3
	case FieldTexCoord:
		return 2
	default:
		return 0
	}
}

// String returns the field name.
func (f Field) String() string {
	switch f {
	case FieldPosition:
		return "position"
	case FieldNormal:
		return "normal"
	case FieldTexCoord:
		return "texcoord"
	default:
		return "unknown"
	}
}

// Fields is a set of vertex attribute fields.
type Fields uint8

// Has reports whether f is in the set.
func (s Fields) Has(f Field) bool {
	return s&Fields(f) != 0
}

// With returns the set with f added.
func (s Fields) With(f Field) Fields {
	return s | Fields(f)
}

// Components returns the row width in float32 values.
func (s Fields) Components() int {
	n := 0
	for _, f := range canonicalOrder {
		if s.Has(f) {
			n += f.Components()
		}
	}
	return n
}

// Stride returns the row width in bytes.
func (s Fields) Stride() int {
	return s.Components() * 4
}

// offset returns the float offset of f inside a row, or -1 if f is not set.
func (s Fields) offset(f Field) int {
	if !s.Has(f) {
		return -1
	}
	off := 0
	for _, c := range canonicalOrder {
		if c == f {
			return off
		}
		if s.Has(c) {
			off += c.Components()
		}
	}
	return -1
}

// Offset returns the byte offset of f inside a row, or -1 if f is not set.
func (s Fields) Offset(f Field) int {
	off := s.offset(f)
	if off < 0 {
		return -1
	}
	return off * 4
}

// String returns the set as "position|normal|texcoord".
func (s Fields) String() string {
	var names []string
	for _, f := range canonicalOrder {
		if s.Has(f) {
			names = append(names, f.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
