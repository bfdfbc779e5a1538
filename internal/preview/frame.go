package preview

import "math"

// frameBuffer holds the render target as flat slices.
type frameBuffer struct {
	size  int
	color []uint8   // NRGBA interleaved, len = size*size*4
	depth []float32 // larger is closer, initialized to -inf
}

func newFrameBuffer(size int) *frameBuffer {
	n := size * size
	depth := make([]float32, n)
	for i := range depth {
		depth[i] = float32(math.Inf(-1))
	}
	return &frameBuffer{
		size:  size,
		color: make([]uint8, n*4),
		depth: depth,
	}
}

func (fb *frameBuffer) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < fb.size && y < fb.size
}

// plot writes c at (x, y) if z passes the depth test.
func (fb *frameBuffer) plot(x, y int, z float32, c [4]uint8) {
	if !fb.inside(x, y) {
		return
	}
	i := y*fb.size + x
	if z < fb.depth[i] {
		return
	}
	fb.depth[i] = z
	copy(fb.color[i*4:i*4+4], c[:])
}
