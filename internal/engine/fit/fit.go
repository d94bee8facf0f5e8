// Package fit derives the uniform scale and camera placement that keep the
// avatar visually consistent across viewport sizes.
package fit

import (
	gomath "math"

	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Reference viewport the scene was authored for.
const (
	ReferenceWidth  = 800
	ReferenceHeight = 600
)

// Values at factor 1.
const (
	BaseScale   = 2.5
	CameraBaseY = 2.825
	CameraBaseZ = 4.5
)

// Metrics is the result of fitting the scene to a viewport.
type Metrics struct {
	Width  int
	Height int

	// Factor is min(width/800, height/600).
	Factor float32

	// Aspect is width/height, used for the camera projection.
	Aspect float32

	// ModelScale is the uniform scale to apply to a loaded model.
	ModelScale float32

	// CameraPosition is (0, factor*2.825, factor*4.5).
	CameraPosition math.Vec3

	// Clamped reports that a zero or negative dimension was raised to 1.
	Clamped bool
}

// Factor returns min(w/800, h/600) for a viewport of w x h pixels.
func Factor(w, h int) float32 {
	fw := float64(w) / ReferenceWidth
	fh := float64(h) / ReferenceHeight
	return float32(gomath.Min(fw, fh))
}

// Compute fits the scene to a w x h viewport.
// Dimensions below one pixel are clamped to one so the factor stays positive
// and the aspect ratio finite.
func Compute(w, h int) Metrics {
	clamped := false
	if w < 1 {
		w, clamped = 1, true
	}
	if h < 1 {
		h, clamped = 1, true
	}

	f := Factor(w, h)
	return Metrics{
		Width:          w,
		Height:         h,
		Factor:         f,
		Aspect:         float32(w) / float32(h),
		ModelScale:     f * BaseScale,
		CameraPosition: math.Vec3{X: 0, Y: f * CameraBaseY, Z: f * CameraBaseZ},
		Clamped:        clamped,
	}
}
