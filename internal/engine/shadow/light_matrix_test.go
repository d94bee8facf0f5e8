package shadow

import (
	"testing"

	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

func TestLightMatrixCoversBounds(t *testing.T) {
	bounds := scene.Bounds{Min: [3]float32{-1, 0, -0.5}, Max: [3]float32{1, 4, 0.5}}

	dirs := []math.Vec3{
		{X: 0, Y: 200, Z: 100},
		{X: 0, Y: 1, Z: 0},
		{X: -5, Y: 2, Z: -3},
	}

	for _, dir := range dirs {
		vp := LightMatrix(dir, bounds)
		for i := 0; i < 8; i++ {
			corner := [3]float32{bounds.Min[0], bounds.Min[1], bounds.Min[2]}
			for axis := 0; axis < 3; axis++ {
				if i&(1<<axis) != 0 {
					corner[axis] = bounds.Max[axis]
				}
			}
			p := vp.TransformPoint(corner)
			for axis, v := range p {
				if v < -1 || v > 1 {
					t.Errorf("dir %v corner %v axis %d = %v, outside clip cube", dir, corner, axis, v)
				}
			}
		}
	}
}

func TestLightMatrixCenterOnAxis(t *testing.T) {
	bounds := scene.Bounds{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}
	vp := LightMatrix(math.Vec3{Z: 1}, bounds)

	p := vp.TransformPoint([3]float32{0, 0, 0})
	if abs32(p[0]) > 1e-5 || abs32(p[1]) > 1e-5 {
		t.Errorf("center projects to %v, want x=y=0", p)
	}

	// Closer to the light means smaller depth.
	near := vp.TransformPoint([3]float32{0, 0, 1})
	far := vp.TransformPoint([3]float32{0, 0, -1})
	if near[2] >= far[2] {
		t.Errorf("depth near %v >= far %v", near[2], far[2])
	}
}

func TestLightMatrixEmptyBounds(t *testing.T) {
	var empty scene.Bounds
	empty.Min = [3]float32{1e30, 1e30, 1e30}
	empty.Max = [3]float32{-1e30, -1e30, -1e30}

	vp := LightMatrix(math.Vec3{}, empty)
	p := vp.TransformPoint([3]float32{0, 0, 0})
	for axis, v := range p {
		if v < -1 || v > 1 {
			t.Errorf("origin axis %d = %v, outside clip cube", axis, v)
		}
	}
}
