package camera

import (
	"testing"

	"github.com/Faultbox/avatar-stage/pkg/math"
)

func TestUpdateProjectionMatrix(t *testing.T) {
	c := NewPerspective(DefaultFOV, 1, DefaultNear, DefaultFar)
	before := c.ProjectionMatrix()

	c.Aspect = 2
	if c.ProjectionMatrix() != before {
		t.Fatal("projection should not change until UpdateProjectionMatrix")
	}

	c.UpdateProjectionMatrix()
	after := c.ProjectionMatrix()
	if after[0] >= before[0] {
		t.Errorf("wider aspect should shrink x scale: before %f, after %f", before[0], after[0])
	}
	if after[5] != before[5] {
		t.Errorf("y scale depends on fov only: before %f, after %f", before[5], after[5])
	}
}

func TestViewMatrixMovesEyeToOrigin(t *testing.T) {
	c := NewPerspective(DefaultFOV, 4.0/3.0, DefaultNear, DefaultFar)
	c.SetPosition(math.Vec3{X: 0, Y: 2.825, Z: 4.5})

	p := c.ViewMatrix().TransformPoint([3]float32{0, 2.825, 4.5})
	if p != [3]float32{0, 0, 0} {
		t.Errorf("eye in view space: got %v, want origin", p)
	}
}

func TestViewProjectionPutsOriginInFront(t *testing.T) {
	c := NewPerspective(DefaultFOV, 4.0/3.0, DefaultNear, DefaultFar)
	c.SetPosition(math.Vec3{X: 0, Y: 0, Z: 5})

	clip := c.ViewProjection().TransformPoint([3]float32{0, 0, 0})
	if clip[2] < -1 || clip[2] > 1 {
		t.Errorf("origin should be inside the depth range, got z=%f", clip[2])
	}
}
