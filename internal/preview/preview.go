// Package preview renders packed meshes to small thumbnails.
package preview

import (
	"errors"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshpack/pkg/mesh"
)

// Options controls a preview render.
type Options struct {
	Size        int     // output edge length in pixels
	Supersample int     // render at Size*Supersample, then downsample
	Yaw         float32 // degrees around Y
	Pitch       float32 // degrees around X
	Color       [4]uint8
}

// DefaultOptions returns the standard thumbnail settings.
func DefaultOptions() Options {
	return Options{
		Size:        256,
		Supersample: 2,
		Yaw:         30,
		Pitch:       20,
		Color:       [4]uint8{170, 174, 186, 255},
	}
}

// ErrInvalidSize is returned for a non-positive size or supersample factor.
var ErrInvalidSize = errors.New("preview size must be positive")

const (
	ambient = 0.35
	diffuse = 0.65
	margin  = 8 // pixels at output resolution
)

var lightDir = mgl32.Vec3{0.4, 0.6, 1}.Normalize()

// Render draws model with an orthographic camera looking down -Z after
// rotating the mesh by yaw then pitch. The material's polygon mode picks
// filled, wireframe or point output and its facet side picks culling.
// An empty mesh renders as a transparent image.
func Render(model *mesh.Model, opts Options) (*image.NRGBA, error) {
	if opts.Size <= 0 || opts.Supersample <= 0 {
		return nil, ErrInvalidSize
	}
	if model == nil || model.Mesh == nil || model.Mesh.Indices.Len() == 0 {
		return image.NewNRGBA(image.Rect(0, 0, opts.Size, opts.Size)), nil
	}

	m := model.Mesh
	renderSize := opts.Size * opts.Supersample
	rot := mgl32.Rotate3DX(mgl32.DegToRad(opts.Pitch)).Mul3(mgl32.Rotate3DY(mgl32.DegToRad(opts.Yaw)))
	center := m.Bounds.Center()

	pos := m.Vertices.Positions()
	view := make([]mgl32.Vec3, pos.Len())
	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for i := 0; i < m.Indices.Len(); i++ {
		row := int(m.Indices.At(i))
		v := rot.Mul3x1(pos.At(row).Sub(center))
		view[row] = v
		minX, maxX = min(minX, v.X()), max(maxX, v.X())
		minY, maxY = min(minY, v.Y()), max(maxY, v.Y())
	}

	span := max(maxX-minX, maxY-minY, 1e-3)
	scale := float32(renderSize-2*margin*opts.Supersample) / span
	half := float32(renderSize) / 2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	project := func(v mgl32.Vec3) screenVertex {
		return screenVertex{
			x: half + (v.X()-cx)*scale,
			y: half - (v.Y()-cy)*scale,
			z: v.Z(),
		}
	}

	fb := newFrameBuffer(renderSize)
	mat := model.Material
	for t := 0; t < m.Indices.Triangles(); t++ {
		tri := m.Indices.Triangle(t)
		a, b, c := view[tri[0]], view[tri[1]], view[tri[2]]
		n, ok := faceNormal(a, b, c)
		if !ok {
			continue
		}
		if culled(mat.FacetSide, n) {
			continue
		}

		sv := [3]screenVertex{project(a), project(b), project(c)}
		color := shadeColor(opts.Color, ambient+diffuse*abs32(n.Dot(lightDir)))

		switch mat.PolygonMode {
		case mesh.PolygonLine:
			drawLine(fb, sv[0], sv[1], color)
			drawLine(fb, sv[1], sv[2], color)
			drawLine(fb, sv[2], sv[0], color)
		case mesh.PolygonPoint:
			for _, v := range sv {
				drawPoint(fb, v, opts.Supersample, color)
			}
		default:
			fillTriangle(fb, sv, color)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	copy(img.Pix, fb.color)

	if opts.Supersample > 1 {
		img = Downsample(img, opts.Size)
	}
	return img, nil
}

// culled reports whether a face with view-space normal n is hidden by side.
// The camera looks down -Z, so front faces have n.Z() >= 0.
func culled(side mesh.FacetSide, n mgl32.Vec3) bool {
	switch side {
	case mesh.SideFront:
		return n.Z() < 0
	case mesh.SideBack:
		return n.Z() > 0
	default:
		return false
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
