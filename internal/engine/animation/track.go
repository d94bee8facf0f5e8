// Package animation plays keyframed clips on scene graph nodes.
package animation

import (
	"fmt"

	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Path is the node property a track animates.
type Path int

const (
	Translation Path = iota
	Rotation
	Scale
)

func (p Path) String() string {
	switch p {
	case Translation:
		return "translation"
	case Rotation:
		return "rotation"
	case Scale:
		return "scale"
	}
	return fmt.Sprintf("path(%d)", int(p))
}

// Interpolation selects how values between keyframes are computed.
type Interpolation int

const (
	Linear Interpolation = iota
	Step
	CubicSpline
)

// Track animates one property of one node.
//
// Values holds Stride floats per keyframe (3 for translation and scale, 4 for
// rotation quaternions). Cubic spline tracks store in-tangent, value and
// out-tangent for every keyframe, so they hold 3*Stride floats per keyframe.
type Track struct {
	Target        *scene.Node
	Path          Path
	Interpolation Interpolation
	Times         []float32
	Values        []float32
}

// Stride returns the number of floats per keyframe value.
func (t *Track) Stride() int {
	if t.Path == Rotation {
		return 4
	}
	return 3
}

// Validate checks that times and values agree.
func (t *Track) Validate() error {
	if t.Target == nil {
		return fmt.Errorf("%s track: no target node", t.Path)
	}
	if len(t.Times) == 0 {
		return fmt.Errorf("%s track on %q: no keyframes", t.Path, t.Target.Name)
	}
	want := len(t.Times) * t.Stride()
	if t.Interpolation == CubicSpline {
		want *= 3
	}
	if len(t.Values) != want {
		return fmt.Errorf("%s track on %q: %d values for %d keyframes", t.Path, t.Target.Name, len(t.Values), len(t.Times))
	}
	return nil
}

// Duration returns the time of the last keyframe.
func (t *Track) Duration() float32 {
	if len(t.Times) == 0 {
		return 0
	}
	return t.Times[len(t.Times)-1]
}

// bracket finds the keyframes surrounding time. prev == next when time is
// outside the keyed range or exactly on the last key.
func (t *Track) bracket(time float32) (prev, next int, alpha float32) {
	if time <= t.Times[0] {
		return 0, 0, 0
	}
	last := len(t.Times) - 1
	if time >= t.Times[last] {
		return last, last, 0
	}
	// Keys are sorted; linear scan is fine for the short clips an avatar carries.
	for i := 1; i <= last; i++ {
		if t.Times[i] > time {
			prev, next = i-1, i
			break
		}
	}
	span := t.Times[next] - t.Times[prev]
	if span > 0 {
		alpha = (time - t.Times[prev]) / span
	}
	return prev, next, alpha
}

// value returns keyframe k's value (the middle element for cubic splines).
func (t *Track) value(k int) []float32 {
	s := t.Stride()
	if t.Interpolation == CubicSpline {
		return t.Values[(k*3+1)*s : (k*3+2)*s]
	}
	return t.Values[k*s : (k+1)*s]
}

// SampleVec3 evaluates a translation or scale track.
func (t *Track) SampleVec3(time float32) math.Vec3 {
	prev, next, alpha := t.bracket(time)
	a := t.value(prev)
	va := math.Vec3{X: a[0], Y: a[1], Z: a[2]}
	if prev == next || t.Interpolation == Step {
		return va
	}
	b := t.value(next)
	vb := math.Vec3{X: b[0], Y: b[1], Z: b[2]}
	if t.Interpolation == CubicSpline {
		out := t.hermite(prev, next, alpha)
		return math.Vec3{X: out[0], Y: out[1], Z: out[2]}
	}
	return va.Lerp(vb, alpha)
}

// SampleQuat evaluates a rotation track.
func (t *Track) SampleQuat(time float32) math.Quat {
	prev, next, alpha := t.bracket(time)
	a := t.value(prev)
	qa := math.Quat{X: a[0], Y: a[1], Z: a[2], W: a[3]}
	if prev == next || t.Interpolation == Step {
		return qa
	}
	if t.Interpolation == CubicSpline {
		out := t.hermite(prev, next, alpha)
		return math.Quat{X: out[0], Y: out[1], Z: out[2], W: out[3]}.Normalize()
	}
	b := t.value(next)
	qb := math.Quat{X: b[0], Y: b[1], Z: b[2], W: b[3]}
	return qa.Slerp(qb, alpha)
}

// hermite evaluates the glTF cubic spline between keys prev and next.
func (t *Track) hermite(prev, next int, u float32) [4]float32 {
	s := t.Stride()
	dt := t.Times[next] - t.Times[prev]
	u2 := u * u
	u3 := u2 * u
	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2

	p0 := t.Values[(prev*3+1)*s:]
	m0 := t.Values[(prev*3+2)*s:] // out-tangent of prev
	p1 := t.Values[(next*3+1)*s:]
	m1 := t.Values[(next*3+0)*s:] // in-tangent of next

	var out [4]float32
	for i := 0; i < s; i++ {
		out[i] = h00*p0[i] + h10*dt*m0[i] + h01*p1[i] + h11*dt*m1[i]
	}
	return out
}
