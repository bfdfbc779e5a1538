package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshpack/pkg/formats"
	"github.com/Faultbox/meshpack/pkg/geom"
)

// Build errors.
var (
	ErrNilModel        = errors.New("nil OBJ model")
	ErrIndexOutOfRange = errors.New("facet index out of range")
)

// FieldsFor returns the attribute set a packed table needs for obj:
// position always, normal and texcoord when the file defines any.
func FieldsFor(obj *formats.OBJ) geom.Fields {
	fields := geom.Fields(geom.FieldPosition)
	if len(obj.Normals) > 0 {
		fields = fields.With(geom.FieldNormal)
	}
	if len(obj.TexCoords) > 0 {
		fields = fields.With(geom.FieldTexCoord)
	}
	return fields
}

// Build packs a parsed OBJ into a model drawn with mat.
// Returns ErrIndexOutOfRange if a facet addresses data that does not exist.
func Build(obj *formats.OBJ, mat Material, opts BuildOptions) (*Model, error) {
	if obj == nil {
		return nil, ErrNilModel
	}

	var (
		table   *geom.VertexTable
		indices []uint32
		err     error
	)
	switch opts.Mode {
	case PackIndexed:
		table, indices, err = buildIndexed(obj, opts.Triangulate)
	case PackDedup:
		table, indices, err = buildDedup(obj, opts.Triangulate)
	default:
		return nil, fmt.Errorf("unsupported pack mode %s", opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	m := &Mesh{
		Vertices: table,
		Indices:  geom.NewIndexBuffer(indices),
		Bounds:   indexedBounds(table, indices),
	}
	return &Model{Mesh: m, Material: mat}, nil
}

// eachTriangle calls fn with the corner positions of every triangle the
// facet contributes.
func eachTriangle(refs []formats.VertexRef, fan bool, fn func(tri [3]int) error) error {
	if len(refs) < 3 {
		return nil
	}
	if !fan {
		return fn([3]int{0, 1, 2})
	}
	for i := 1; i+1 < len(refs); i++ {
		if err := fn([3]int{0, i, i + 1}); err != nil {
			return err
		}
	}
	return nil
}

func outOfRange(facet, corner int, what string, idx int32, limit int) error {
	return fmt.Errorf("%w: facet %d corner %d: %s %d (have %d)", ErrIndexOutOfRange, facet, corner, what, idx, limit)
}

// rowOverflow reports an attribute index that is valid for its own list but
// has no row in a position-sized table.
func rowOverflow(facet, corner int, what string, idx int32, rows int) error {
	return fmt.Errorf("%w: facet %d corner %d: %s %d has no row in indexed mode (%d positions); pack with dedup mode instead",
		ErrIndexOutOfRange, facet, corner, what, idx, rows)
}

// buildIndexed fills row i with position i, and writes every referenced
// normal and texcoord at the row given by its own index.
func buildIndexed(obj *formats.OBJ, fan bool) (*geom.VertexTable, []uint32, error) {
	rows := len(obj.Positions)
	table := geom.NewVertexTable(FieldsFor(obj), rows)

	pos := table.Positions()
	for i, p := range obj.Positions {
		pos.Set(i, p.Vec3())
	}

	// Views exist whenever the model has any normals or texcoords, which
	// the range checks below guarantee before every write.
	norm, _ := table.Normals()
	tex, _ := table.TexCoords()

	indices := make([]uint32, 0, len(obj.Facets)*3)
	for fi, facet := range obj.Facets {
		err := eachTriangle(facet.Refs, fan, func(tri [3]int) error {
			for _, c := range tri {
				p := facet.Refs[c].Position
				if p < 0 || int(p) >= rows {
					return outOfRange(fi, c, "position", p, rows)
				}
				indices = append(indices, uint32(p))
			}
			return nil
		})
		if err != nil {
			return nil, nil, err
		}

		for ci, ref := range facet.Refs {
			if ref.HasNormal() {
				if int(ref.Normal) >= len(obj.Normals) {
					return nil, nil, outOfRange(fi, ci, "normal", ref.Normal, len(obj.Normals))
				}
				if int(ref.Normal) >= rows {
					return nil, nil, rowOverflow(fi, ci, "normal", ref.Normal, rows)
				}
				norm.Set(int(ref.Normal), obj.Normals[ref.Normal])
			}
			if ref.HasTexCoord() {
				if int(ref.TexCoord) >= len(obj.TexCoords) {
					return nil, nil, outOfRange(fi, ci, "texcoord", ref.TexCoord, len(obj.TexCoords))
				}
				if int(ref.TexCoord) >= rows {
					return nil, nil, rowOverflow(fi, ci, "texcoord", ref.TexCoord, rows)
				}
				tex.Set(int(ref.TexCoord), obj.TexCoords[ref.TexCoord].Vec2())
			}
		}
	}

	return table, indices, nil
}

// buildDedup assigns one row per distinct reference triple, in the order
// triangles first use them.
func buildDedup(obj *formats.OBJ, fan bool) (*geom.VertexTable, []uint32, error) {
	rowOf := make(map[formats.VertexRef]uint32)
	var rows []formats.VertexRef

	indices := make([]uint32, 0, len(obj.Facets)*3)
	for fi, facet := range obj.Facets {
		err := eachTriangle(facet.Refs, fan, func(tri [3]int) error {
			for _, c := range tri {
				ref := facet.Refs[c]
				if err := checkRef(obj, fi, c, ref); err != nil {
					return err
				}
				row, ok := rowOf[ref]
				if !ok {
					row = uint32(len(rows))
					rowOf[ref] = row
					rows = append(rows, ref)
				}
				indices = append(indices, row)
			}
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	table := geom.NewVertexTable(FieldsFor(obj), len(rows))
	pos := table.Positions()
	norm, hasNorm := table.Normals()
	tex, hasTex := table.TexCoords()

	for i, ref := range rows {
		pos.Set(i, obj.Positions[ref.Position].Vec3())
		if hasNorm && ref.HasNormal() {
			norm.Set(i, obj.Normals[ref.Normal])
		}
		if hasTex && ref.HasTexCoord() {
			tex.Set(i, obj.TexCoords[ref.TexCoord].Vec2())
		}
	}

	return table, indices, nil
}

func checkRef(obj *formats.OBJ, facet, corner int, ref formats.VertexRef) error {
	if ref.Position < 0 || int(ref.Position) >= len(obj.Positions) {
		return outOfRange(facet, corner, "position", ref.Position, len(obj.Positions))
	}
	if ref.HasNormal() && int(ref.Normal) >= len(obj.Normals) {
		return outOfRange(facet, corner, "normal", ref.Normal, len(obj.Normals))
	}
	if ref.HasTexCoord() && int(ref.TexCoord) >= len(obj.TexCoords) {
		return outOfRange(facet, corner, "texcoord", ref.TexCoord, len(obj.TexCoords))
	}
	return nil
}

func indexedBounds(table *geom.VertexTable, indices []uint32) geom.Bounds {
	b := geom.EmptyBounds()
	pos := table.Positions()
	for _, idx := range indices {
		b.Extend(pos.At(int(idx)))
	}
	return b
}

// Equal reports whether two meshes have the same layout and contents.
func (m *Mesh) Equal(other *Mesh) bool {
	if m.Vertices.Fields() != other.Vertices.Fields() || m.Vertices.Len() != other.Vertices.Len() {
		return false
	}
	a, b := m.Vertices.Floats(), other.Vertices.Floats()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return m.Indices.Equal(other.Indices)
}
