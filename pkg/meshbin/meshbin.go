// Package meshbin reads and writes packed models in the MPAK binary
// container.
//
// Layout, all little-endian:
//
//	magic       [4]byte  "MPAK"
//	version     uint8 major, uint8 minor
//	fields      uint8    geom.Fields bitset
//	polygon     uint8    mesh.PolygonMode
//	side        uint8    mesh.FacetSide
//	reserved    [3]byte
//	rows        uint32
//	indices     uint32
//	bounds      [6]float32 min xyz, max xyz
//	name length uint16, name bytes
//	table       rows * stride/4 float32
//	indices     uint32 each
package meshbin

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/meshpack/pkg/geom"
	"github.com/Faultbox/meshpack/pkg/mesh"
)

// MPAK format errors.
var (
	ErrInvalidMagic       = errors.New("invalid MPAK magic: expected 'MPAK'")
	ErrUnsupportedVersion = errors.New("unsupported MPAK version")
	ErrTruncated          = errors.New("truncated MPAK data")
	ErrCorrupt            = errors.New("corrupt MPAK data")
)

// Current container version.
const (
	VersionMajor = 1
	VersionMinor = 0
)

// Extension is the file extension used for containers.
const Extension = ".mpak"

const (
	maxRows       = 1 << 26
	maxIndices    = 1 << 28
	maxNameLength = 1<<16 - 1
	allFields     = geom.Fields(geom.FieldPosition | geom.FieldNormal | geom.FieldTexCoord)
)

var magic = [4]byte{'M', 'P', 'A', 'K'}

type header struct {
	Magic       [4]byte
	Major       uint8
	Minor       uint8
	Fields      uint8
	PolygonMode uint8
	FacetSide   uint8
	_           [3]byte
	Rows        uint32
	Indices     uint32
	Min         [3]float32
	Max         [3]float32
	NameLen     uint16
}

// Write encodes model to w.
func Write(w io.Writer, model *mesh.Model) error {
	if model == nil || model.Mesh == nil {
		return errors.New("meshbin: nil model")
	}
	m := model.Mesh
	name := model.Material.Name
	if len(name) > maxNameLength {
		return fmt.Errorf("meshbin: material name is %d bytes, limit %d", len(name), maxNameLength)
	}

	h := header{
		Magic:       magic,
		Major:       VersionMajor,
		Minor:       VersionMinor,
		Fields:      uint8(m.Vertices.Fields()),
		PolygonMode: uint8(model.Material.PolygonMode),
		FacetSide:   uint8(model.Material.FacetSide),
		Rows:        uint32(m.Vertices.Len()),
		Indices:     uint32(m.Indices.Len()),
		Min:         m.Bounds.Min,
		Max:         m.Bounds.Max,
		NameLen:     uint16(len(name)),
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := bw.WriteString(name); err != nil {
		return fmt.Errorf("writing material name: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Vertices.Floats()); err != nil {
		return fmt.Errorf("writing vertex table: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Indices.Values()); err != nil {
		return fmt.Errorf("writing indices: %w", err)
	}
	return bw.Flush()
}

// WriteFile encodes model to path, replacing any existing file.
func WriteFile(path string, model *mesh.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, model); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a model from r.
func Read(r io.Reader) (*mesh.Model, error) {
	br := bufio.NewReader(r)

	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncated)
	}
	if h.Magic != magic {
		return nil, ErrInvalidMagic
	}
	if h.Major != VersionMajor {
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, h.Major, h.Minor)
	}

	fields := geom.Fields(h.Fields)
	if fields&^allFields != 0 || !fields.Has(geom.FieldPosition) {
		return nil, fmt.Errorf("%w: fields %#x", ErrCorrupt, h.Fields)
	}
	if h.Rows > maxRows || h.Indices > maxIndices {
		return nil, fmt.Errorf("%w: %d rows, %d indices", ErrCorrupt, h.Rows, h.Indices)
	}
	if h.Indices%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a multiple of 3", ErrCorrupt, h.Indices)
	}
	pm := mesh.PolygonMode(h.PolygonMode)
	if pm > mesh.PolygonPoint {
		return nil, fmt.Errorf("%w: polygon mode %d", ErrCorrupt, h.PolygonMode)
	}
	side := mesh.FacetSide(h.FacetSide)
	if side > mesh.SideFrontAndBack {
		return nil, fmt.Errorf("%w: facet side %d", ErrCorrupt, h.FacetSide)
	}

	name := make([]byte, h.NameLen)
	if _, err := io.ReadFull(br, name); err != nil {
		return nil, fmt.Errorf("%w: reading material name", ErrTruncated)
	}

	data := make([]float32, int(h.Rows)*fields.Components())
	if err := binary.Read(br, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("%w: reading vertex table", ErrTruncated)
	}
	indices := make([]uint32, h.Indices)
	if err := binary.Read(br, binary.LittleEndian, indices); err != nil {
		return nil, fmt.Errorf("%w: reading indices", ErrTruncated)
	}
	for i, idx := range indices {
		if idx >= h.Rows {
			return nil, fmt.Errorf("%w: index %d is %d, table has %d rows", ErrCorrupt, i, idx, h.Rows)
		}
	}

	table, err := geom.VertexTableFromFloats(fields, int(h.Rows), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	m := &mesh.Mesh{
		Vertices: table,
		Indices:  geom.NewIndexBuffer(indices),
		Bounds:   geom.Bounds{Min: h.Min, Max: h.Max},
	}
	return &mesh.Model{
		Mesh:     m,
		Material: mesh.Material{Name: string(name), PolygonMode: pm, FacetSide: side},
	}, nil
}

// ReadFile decodes a model from disk.
func ReadFile(path string) (*mesh.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
