package preview

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// screenVertex is a projected corner: pixel x/y plus view-space depth.
type screenVertex struct {
	x, y, z float32
}

// fillTriangle rasterizes a triangle with barycentric coverage and a
// depth test, in one flat color.
func fillTriangle(fb *frameBuffer, v [3]screenVertex, c [4]uint8) {
	x0, y0, z0 := v[0].x, v[0].y, v[0].z
	x1, y1, z1 := v[1].x, v[1].y, v[1].z
	x2, y2, z2 := v[2].x, v[2].y, v[2].z

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1 / det

	minX := max(int(min(x0, x1, x2)), 0)
	maxX := min(int(max(x0, x1, x2))+1, fb.size-1)
	minY := max(int(min(y0, y1, y2)), 0)
	maxY := min(int(max(y0, y1, y2))+1, fb.size-1)
	if minX > maxX || minY > maxY {
		return
	}

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float32(sy) + 0.5 - y2
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}
			fb.plot(sx, sy, w0*z0+w1*z1+w2*z2, c)
		}
	}
}

// drawLine draws a depth-tested segment with Bresenham stepping.
func drawLine(fb *frameBuffer, a, b screenVertex, c [4]uint8) {
	x0, y0 := int(a.x), int(a.y)
	x1, y1 := int(b.x), int(b.y)
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	steps := max(dx, -dy)
	err := dx + dy
	for i := 0; ; i++ {
		t := float32(0)
		if steps > 0 {
			t = float32(i) / float32(steps)
		}
		fb.plot(x0, y0, a.z+(b.z-a.z)*t, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawPoint draws a square dot of the given radius.
func drawPoint(fb *frameBuffer, v screenVertex, radius int, c [4]uint8) {
	cx, cy := int(v.x), int(v.y)
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			fb.plot(x, y, v.z, c)
		}
	}
}

// faceNormal returns the unit normal of a view-space triangle, or false
// for a degenerate one.
func faceNormal(a, b, c mgl32.Vec3) (mgl32.Vec3, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < 1e-12 {
		return mgl32.Vec3{}, false
	}
	return n.Mul(1 / l), true
}

// shadeColor applies Lambert intensity to base.
func shadeColor(base [4]uint8, intensity float32) [4]uint8 {
	scale := func(v uint8) uint8 {
		return uint8(math.Min(255, float64(float32(v)*intensity)+0.5))
	}
	return [4]uint8{scale(base[0]), scale(base[1]), scale(base[2]), base[3]}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
