package formats

import "github.com/go-gl/mathgl/mgl32"

// NoIndex marks an absent texture coordinate or normal reference.
const NoIndex int32 = -1

// VertexRef is one facet corner: 0-based indices into the position,
// texture coordinate and normal lists. TexCoord and Normal are NoIndex
// when the corner does not carry them.
type VertexRef struct {
	Position int32
	TexCoord int32
	Normal   int32
}

// HasTexCoord reports whether the reference carries a texture coordinate.
func (r VertexRef) HasTexCoord() bool { return r.TexCoord >= 0 }

// HasNormal reports whether the reference carries a normal.
func (r VertexRef) HasNormal() bool { return r.Normal >= 0 }

// OBJFacet is a polygon with at least three corners, in file order.
type OBJFacet struct {
	Refs []VertexRef
}

// OBJ holds the raw records of a parsed Wavefront OBJ file. Indices inside
// facets are not resolved or bounds-checked here.
type OBJ struct {
	// Positions are x, y, z, w; w defaults to 1.
	Positions []mgl32.Vec4
	Normals   []mgl32.Vec3
	// TexCoords are u, v, w; w defaults to 0.
	TexCoords []mgl32.Vec3
	Facets    []OBJFacet
}

// OBJStats summarises an OBJ model.
type OBJStats struct {
	Positions int
	Normals   int
	TexCoords int
	Facets    int
	Refs      int
	Polygons  int // facets with more than three corners
}

// Stats returns record counts for the model.
func (o *OBJ) Stats() OBJStats {
	s := OBJStats{
		Positions: len(o.Positions),
		Normals:   len(o.Normals),
		TexCoords: len(o.TexCoords),
		Facets:    len(o.Facets),
	}
	for _, f := range o.Facets {
		s.Refs += len(f.Refs)
		if len(f.Refs) > 3 {
			s.Polygons++
		}
	}
	return s
}

func (o *OBJ) addPosition(p mgl32.Vec4) { o.Positions = append(o.Positions, p) }

func (o *OBJ) addNormal(n mgl32.Vec3) { o.Normals = append(o.Normals, n) }

func (o *OBJ) addTexCoord(t mgl32.Vec3) { o.TexCoords = append(o.TexCoords, t) }

func (o *OBJ) addFacet(f OBJFacet) { o.Facets = append(o.Facets, f) }
