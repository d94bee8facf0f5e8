// Package raster is a headless software renderer for the stage. It draws
// flat-shaded triangles into a premultiplied RGBA framebuffer with a depth
// buffer and hands out finished frames as images.
package raster

import gomath "math"

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // premultiplied RGBA interleaved, len = W*H*4
	Depth  []float32 // NDC depth per pixel, len = W*H, cleared to +inf
}

// NewFrameBuffer allocates a transparent color buffer and cleared depth buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
		Depth:  make([]float32, w*h),
	}
	fb.Clear()
	return fb
}

// Clear resets every pixel to transparent and every depth to +inf.
func (fb *FrameBuffer) Clear() {
	clear(fb.Color)
	inf := float32(gomath.Inf(1))
	for i := range fb.Depth {
		fb.Depth[i] = inf
	}
}
