package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns a box that contains nothing; extending it with a point
// yields a zero-size box at that point.
func EmptyBounds() Bounds {
	inf := float32(math.Inf(1))
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Empty reports whether the box contains no points.
func (b Bounds) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to include p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	if b.Empty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}
