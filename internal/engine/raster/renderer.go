package raster

import (
	"image"
	gomath "math"

	"github.com/Faultbox/avatar-stage/internal/engine/camera"
	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Renderer draws scenes on the CPU. It satisfies the stage renderer
// interface and keeps the last finished frame.
type Renderer struct {
	width       int
	height      int
	ratio       float32
	supersample int

	fb     *FrameBuffer
	baker  *scene.Baker
	frame  *image.NRGBA
	frames uint64
}

// New creates a renderer that draws at supersample times the output
// resolution before filtering down.
func New(supersample int) *Renderer {
	if supersample < 1 {
		supersample = 1
	}
	return &Renderer{
		width:       1,
		height:      1,
		ratio:       1,
		supersample: supersample,
		baker:       scene.NewBaker(),
	}
}

// SetSize sets the logical output size.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = max(width, 1), max(height, 1)
}

// SetPixelRatio sets the device pixel ratio; the output image is the
// logical size times the ratio.
func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	r.ratio = ratio
}

// OutputSize returns the pixel size of rendered frames.
func (r *Renderer) OutputSize() (int, int) {
	w := int(gomath.Round(float64(float32(r.width) * r.ratio)))
	h := int(gomath.Round(float64(float32(r.height) * r.ratio)))
	return max(w, 1), max(h, 1)
}

// Render draws the scene from the camera into a new frame.
func (r *Renderer) Render(s *scene.Scene, cam *camera.Perspective) {
	ow, oh := r.OutputSize()
	w, h := ow*r.supersample, oh*r.supersample
	if r.fb == nil || r.fb.Width != w || r.fb.Height != h {
		r.fb = NewFrameBuffer(w, h)
	} else {
		r.fb.Clear()
	}

	vp := cam.ViewProjection()
	eye := cam.Position

	for _, item := range r.baker.Bake(s) {
		surface := item.Material.Surface()
		twoSided := item.Material.DoubleSided
		idx := item.Indices

		for t := 0; t+2 < len(idx); t += 3 {
			p0 := math.V3(item.Positions[idx[t]])
			p1 := math.V3(item.Positions[idx[t+1]])
			p2 := math.V3(item.Positions[idx[t+2]])

			s0, ok0 := project(vp, p0, w, h)
			s1, ok1 := project(vp, p1, w, h)
			s2, ok2 := project(vp, p2, w, h)
			if !ok0 || !ok1 || !ok2 {
				continue
			}

			n := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
			center := p0.Add(p1).Add(p2).Scale(1.0 / 3)
			if n.Dot(eye.Sub(center)) < 0 {
				n = n.Scale(-1)
			}
			color := s.Lights.Shade(surface, center, n, eye)

			fillTriangle(r.fb, s0, s1, s2, color, twoSided)
		}
	}

	src := &image.RGBA{Pix: r.fb.Color, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	r.frame = downsample(src, ow, oh)
	r.frames++
}

// project maps a world point to pixel coordinates. ok is false for points
// behind the camera.
func project(vp math.Mat4, p math.Vec3, w, h int) (screenVertex, bool) {
	cx := vp[0]*p.X + vp[4]*p.Y + vp[8]*p.Z + vp[12]
	cy := vp[1]*p.X + vp[5]*p.Y + vp[9]*p.Z + vp[13]
	cz := vp[2]*p.X + vp[6]*p.Y + vp[10]*p.Z + vp[14]
	cw := vp[3]*p.X + vp[7]*p.Y + vp[11]*p.Z + vp[15]
	if cw <= 1e-6 {
		return screenVertex{}, false
	}
	nx, ny, nz := cx/cw, cy/cw, cz/cw
	return screenVertex{
		X: (nx*0.5 + 0.5) * float32(w),
		Y: (1 - (ny*0.5 + 0.5)) * float32(h),
		Z: nz,
	}, true
}

// Image returns the last rendered frame, or nil before the first Render.
// The image is owned by the renderer until the next Render.
func (r *Renderer) Image() *image.NRGBA {
	return r.frame
}

// Frames returns the number of rendered frames.
func (r *Renderer) Frames() uint64 {
	return r.frames
}
