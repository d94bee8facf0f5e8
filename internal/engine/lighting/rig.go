package lighting

import (
	gomath "math"

	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Rig is the ordered light table of a stage.
type Rig []Light

// ShadowCaster returns the first directional light that casts shadows.
func (r Rig) ShadowCaster() (Light, bool) {
	for _, l := range r {
		if l.Kind == Directional && l.CastShadow {
			return l, true
		}
	}
	return Light{}, false
}

// Count returns the number of lights of the given kind.
func (r Rig) Count(kind Kind) int {
	n := 0
	for _, l := range r {
		if l.Kind == kind {
			n++
		}
	}
	return n
}

// ClassicRig is the full eight-light table: ambient fill, two directional
// keys, two spots, two under-fill points and a faint red face light.
func ClassicRig() Rig {
	spotAngle := float32(gomath.Pi / 6)
	return Rig{
		{Kind: Ambient, Color: White, Intensity: 1.5},
		{Kind: Directional, Color: White, Intensity: 1.5, Position: math.Vec3{X: 5, Y: 5, Z: 5}, CastShadow: true},
		{Kind: Directional, Color: White, Intensity: 1, Position: math.Vec3{X: -5, Y: 5, Z: 5}},
		{Kind: Spot, Color: White, Intensity: 2, Position: math.Vec3{X: 0, Y: 10, Z: 0}, Angle: spotAngle, Penumbra: 0.1, CastShadow: true},
		{Kind: Spot, Color: White, Intensity: 1, Position: math.Vec3{X: 5, Y: 5, Z: 5}, Angle: spotAngle, Penumbra: 0.1, CastShadow: true},
		{Kind: Point, Color: White, Intensity: 1, Position: math.Vec3{X: -5, Y: -5, Z: 5}},
		{Kind: Point, Color: White, Intensity: 1, Position: math.Vec3{X: 5, Y: -5, Z: 5}},
		{Kind: Point, Color: Hex(0xff0000), Intensity: 0.5, Position: math.Vec3{X: 0, Y: 2.5, Z: 3}},
	}
}

// StudioRig is the reduced three-light table of the later variants.
func StudioRig() Rig {
	return Rig{
		{Kind: Ambient, Color: White, Intensity: 1.2},
		{Kind: Directional, Color: White, Intensity: 2, Position: math.Vec3{X: 5, Y: 5, Z: 5}, CastShadow: true},
		{Kind: Directional, Color: White, Intensity: 0.8, Position: math.Vec3{X: -5, Y: 3, Z: 5}},
	}
}

// LiteRig is ambient plus a single shadow-casting key light.
func LiteRig() Rig {
	return Rig{
		{Kind: Ambient, Color: White, Intensity: 1},
		{Kind: Directional, Color: White, Intensity: 1.5, Position: math.Vec3{X: 5, Y: 5, Z: 5}, CastShadow: true},
	}
}
