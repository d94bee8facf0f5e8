package fit

import (
	"testing"
)

func near(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-4
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		factor       float32
		camY, camZ   float32
		modelScale   float32
		expectAspect float32
	}{
		{"reference", 800, 600, 1, 2.825, 4.5, 2.5, 800.0 / 600.0},
		{"double", 1600, 1200, 2, 5.65, 9.0, 5.0, 1600.0 / 1200.0},
		{"half", 400, 300, 0.5, 1.4125, 2.25, 1.25, 400.0 / 300.0},
		{"wide is height bound", 1920, 600, 1, 2.825, 4.5, 2.5, 1920.0 / 600.0},
		{"tall is width bound", 400, 1200, 0.5, 1.4125, 2.25, 1.25, 400.0 / 1200.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compute(tt.w, tt.h)
			if !near(m.Factor, tt.factor) {
				t.Errorf("factor: got %f, want %f", m.Factor, tt.factor)
			}
			if m.CameraPosition.X != 0 || !near(m.CameraPosition.Y, tt.camY) || !near(m.CameraPosition.Z, tt.camZ) {
				t.Errorf("camera: got %+v, want (0, %f, %f)", m.CameraPosition, tt.camY, tt.camZ)
			}
			if !near(m.ModelScale, tt.modelScale) {
				t.Errorf("model scale: got %f, want %f", m.ModelScale, tt.modelScale)
			}
			if !near(m.Aspect, tt.expectAspect) {
				t.Errorf("aspect: got %f, want %f", m.Aspect, tt.expectAspect)
			}
			if m.Clamped {
				t.Error("positive viewport should not be clamped")
			}
		})
	}
}

func TestComputeIdempotent(t *testing.T) {
	a := Compute(1366, 768)
	b := Compute(1366, 768)
	if a != b {
		t.Errorf("Compute should be pure: %+v != %+v", a, b)
	}
}

func TestComputeZeroArea(t *testing.T) {
	for _, dims := range [][2]int{{0, 600}, {800, 0}, {0, 0}, {-5, 300}} {
		m := Compute(dims[0], dims[1])
		if !m.Clamped {
			t.Errorf("%v: expected Clamped", dims)
		}
		if m.Factor <= 0 {
			t.Errorf("%v: factor should stay positive, got %f", dims, m.Factor)
		}
		if m.Aspect <= 0 {
			t.Errorf("%v: aspect should stay positive, got %f", dims, m.Aspect)
		}
	}
}
