package raster

import (
	gomath "math"

	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
)

// screenVertex is a vertex after projection: pixel coordinates plus NDC depth.
type screenVertex struct {
	X, Y, Z float32
}

// fillTriangle rasterizes one flat-colored triangle with a depth test.
// Triangles wound clockwise on screen are skipped unless twoSided is set.
func fillTriangle(fb *FrameBuffer, v0, v1, v2 screenVertex, c lighting.Color, twoSided bool) {
	// Signed doubled area; screen Y grows downward so front faces are negative.
	area := (v1.X-v0.X)*(v2.Y-v0.Y) - (v2.X-v0.X)*(v1.Y-v0.Y)
	if area > -1e-8 && area < 1e-8 {
		return
	}
	if area > 0 && !twoSided {
		return
	}
	invArea := 1 / area

	minX := int(gomath.Floor(float64(min(v0.X, v1.X, v2.X))))
	maxX := int(gomath.Ceil(float64(max(v0.X, v1.X, v2.X))))
	minY := int(gomath.Floor(float64(min(v0.Y, v1.Y, v2.Y))))
	maxY := int(gomath.Ceil(float64(max(v0.Y, v1.Y, v2.Y))))
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, fb.Width-1), min(maxY, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	r, g, b := to8(c[0]), to8(c[1]), to8(c[2])

	// Pixel loop, sampling at pixel centers.
	for sy := minY; sy <= maxY; sy++ {
		py := float32(sy) + 0.5
		row := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			px := float32(sx) + 0.5

			w0 := ((v1.X-px)*(v2.Y-py) - (v2.X-px)*(v1.Y-py)) * invArea
			w1 := ((v2.X-px)*(v0.Y-py) - (v0.X-px)*(v2.Y-py)) * invArea
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*v0.Z + w1*v1.Z + w2*v2.Z
			if z < -1 || z > 1 {
				continue
			}
			i := row + sx
			if z >= fb.Depth[i] {
				continue
			}
			fb.Depth[i] = z

			o := i * 4
			fb.Color[o] = r
			fb.Color[o+1] = g
			fb.Color[o+2] = b
			fb.Color[o+3] = 255
		}
	}
}

// to8 converts a linear 0-1 channel to sRGB-encoded 8-bit.
func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	var s float64
	if v <= 0.0031308 {
		s = float64(v) * 12.92
	} else {
		s = 1.055*gomath.Pow(float64(v), 1/2.4) - 0.055
	}
	return uint8(s*255 + 0.5)
}
