// Package camera provides the perspective camera that frames the avatar.
package camera

import (
	gomath "math"

	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Defaults used by every stage variant.
const (
	DefaultFOV  = 75 // degrees, vertical
	DefaultNear = 0.1
	DefaultFar  = 1000
)

// Perspective is a perspective camera with a fixed orientation looking down -Z.
// Only its position and aspect ratio change at runtime.
type Perspective struct {
	FOV    float32 // vertical field of view in degrees
	Aspect float32
	Near   float32
	Far    float32

	Position math.Vec3

	projection math.Mat4
}

// NewPerspective creates a camera and computes its projection.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix recomputes the projection after FOV, Aspect, Near or
// Far changed.
func (c *Perspective) UpdateProjectionMatrix() {
	fovY := float32(float64(c.FOV) * gomath.Pi / 180)
	c.projection = math.Perspective(fovY, c.Aspect, c.Near, c.Far)
}

// SetPosition moves the camera.
func (c *Perspective) SetPosition(p math.Vec3) {
	c.Position = p
}

// ProjectionMatrix returns the projection computed by the last
// UpdateProjectionMatrix call.
func (c *Perspective) ProjectionMatrix() math.Mat4 {
	return c.projection
}

// ViewMatrix returns the inverse of the camera's world transform.
func (c *Perspective) ViewMatrix() math.Mat4 {
	return math.Translate(-c.Position.X, -c.Position.Y, -c.Position.Z)
}

// ViewProjection returns projection * view.
func (c *Perspective) ViewProjection() math.Mat4 {
	return c.projection.Mul(c.ViewMatrix())
}
