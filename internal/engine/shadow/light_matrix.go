package shadow

import (
	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

// minRadius keeps the light frustum usable for degenerate bounds.
const minRadius = 0.5

// LightMatrix returns the view-projection of a directional light looking at
// the bounds. toLight is the direction from the scene toward the light.
// Every point of the bounds lands inside the unit clip cube.
func LightMatrix(toLight math.Vec3, b scene.Bounds) math.Mat4 {
	center := math.Vec3{}
	radius := float32(minRadius)
	if !b.Empty() {
		center = b.Center()
		if r := b.Radius(); r > radius {
			radius = r
		}
	}

	dir := toLight.Normalize()
	if dir == (math.Vec3{}) {
		dir = math.Vec3{Y: 1}
	}

	distance := radius * 2
	eye := center.Add(dir.Scale(distance))

	up := math.Vec3{Y: 1}
	if abs32(dir.Y) > 0.99 {
		up = math.Vec3{Z: 1}
	}
	view := math.LookAt(eye, center, up)

	half := radius * 1.1
	far := distance + half
	proj := math.Ortho(-half, half, -half, half, 0.1, far)

	return proj.Mul(view)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
