// Package mesh packs parsed geometry into GPU-ready vertex tables and
// index buffers.
package mesh

import (
	"fmt"

	"github.com/Faultbox/meshpack/pkg/geom"
)

// PolygonMode selects how a material rasterizes facets.
type PolygonMode uint8

// Polygon modes.
const (
	PolygonFace PolygonMode = iota
	PolygonLine
	PolygonPoint
)

// String returns the config spelling of the mode.
func (m PolygonMode) String() string {
	switch m {
	case PolygonFace:
		return "face"
	case PolygonLine:
		return "line"
	case PolygonPoint:
		return "point"
	default:
		return fmt.Sprintf("PolygonMode(%d)", m)
	}
}

// ParsePolygonMode parses "face", "line" or "point".
func ParsePolygonMode(s string) (PolygonMode, error) {
	switch s {
	case "face", "":
		return PolygonFace, nil
	case "line":
		return PolygonLine, nil
	case "point":
		return PolygonPoint, nil
	}
	return 0, fmt.Errorf("unknown polygon mode %q", s)
}

// FacetSide selects which facet sides a material draws.
type FacetSide uint8

// Facet sides.
const (
	SideFront FacetSide = iota
	SideBack
	SideFrontAndBack
)

// String returns the config spelling of the side.
func (s FacetSide) String() string {
	switch s {
	case SideFront:
		return "front"
	case SideBack:
		return "back"
	case SideFrontAndBack:
		return "front_and_back"
	default:
		return fmt.Sprintf("FacetSide(%d)", s)
	}
}

// ParseFacetSide parses "front", "back" or "front_and_back".
func ParseFacetSide(s string) (FacetSide, error) {
	switch s {
	case "front", "":
		return SideFront, nil
	case "back":
		return SideBack, nil
	case "front_and_back":
		return SideFrontAndBack, nil
	}
	return 0, fmt.Errorf("unknown facet side %q", s)
}

// Material describes how the renderer should draw a model. Building does
// not interpret it; it travels with the model.
type Material struct {
	Name        string
	PolygonMode PolygonMode
	FacetSide   FacetSide
}

// Mesh is packed vertex data plus the triangle list that indexes it.
// It is immutable once built and safe to share between readers.
type Mesh struct {
	Vertices *geom.VertexTable
	Indices  *geom.IndexBuffer
	// Bounds covers every position referenced by Indices.
	Bounds geom.Bounds
}

// Model pairs a mesh with the material it is drawn with.
type Model struct {
	Mesh     *Mesh
	Material Material
}

// PackMode selects how facet references map to vertex rows.
type PackMode uint8

const (
	// PackIndexed sizes the table by position count and writes each
	// normal and texture coordinate at the row named by its own index.
	// Rows are only coherent when a file uses the same index for all
	// attributes of a vertex.
	PackIndexed PackMode = iota

	// PackDedup emits one row per distinct (position, texcoord, normal)
	// triple referenced by a triangle, so every row describes one
	// authored vertex.
	PackDedup
)

// String returns the config spelling of the mode.
func (m PackMode) String() string {
	switch m {
	case PackIndexed:
		return "indexed"
	case PackDedup:
		return "dedup"
	default:
		return fmt.Sprintf("PackMode(%d)", m)
	}
}

// ParsePackMode parses "indexed" or "dedup".
func ParsePackMode(s string) (PackMode, error) {
	switch s {
	case "indexed", "":
		return PackIndexed, nil
	case "dedup":
		return PackDedup, nil
	}
	return 0, fmt.Errorf("unknown pack mode %q", s)
}

// BuildOptions contains options for mesh building.
type BuildOptions struct {
	Mode PackMode

	// Triangulate fans polygons into (0, i, i+1) triangles. When false
	// only the first three corners of each facet are used.
	Triangulate bool
}
