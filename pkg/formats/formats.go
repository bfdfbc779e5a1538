// Package formats provides parsers for 3D geometry file formats.
package formats

// Note: Wavefront OBJ is implemented across obj*.go. The parser only
// collects raw records; packing into GPU buffers lives in pkg/mesh.
