package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30).Mul(Scale(2, 2, 2))
	got := m.TransformDirection([3]float32{0, 1, 0})
	if got != [3]float32{0, 2, 0} {
		t.Errorf("TransformDirection: got %v, want [0 2 0]", got)
	}
}

func TestComposeMatchesProduct(t *testing.T) {
	tr := Vec3{1, 2, 3}
	rot := QuatFromAxisAngle(Vec3{0, 1, 0}, float32(math.Pi/3))
	sc := Vec3{2, 3, 4}

	want := Translate(tr.X, tr.Y, tr.Z).Mul(rot.ToMat4()).Mul(Scale(sc.X, sc.Y, sc.Z))
	got := Compose(tr, rot, sc)

	for i := range got {
		if abs(got[i]-want[i]) > 1e-5 {
			t.Errorf("Compose element %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tr := Vec3{-1, 4, 0.5}
	rot := QuatFromAxisAngle(Vec3{1, 1, 0}.Normalize(), 1.1)
	sc := Vec3{2, 0.5, 3}

	m := Compose(tr, rot, sc)
	gt, gr, gs := m.Decompose()
	back := Compose(gt, gr, gs)

	for i := range m {
		if abs(back[i]-m[i]) > 1e-4 {
			t.Errorf("element %d: got %f, want %f", i, back[i], m[i])
		}
	}
	if abs(gs.Y-0.5) > 1e-5 {
		t.Errorf("scale Y = %f, want 0.5", gs.Y)
	}
}

func TestDecomposeMirrored(t *testing.T) {
	m := Compose(Vec3{1, 2, 3}, QuatIdentity(), Vec3{-2, 1, 1})
	_, r, s := m.Decompose()

	if abs(s.X+2) > 1e-5 || abs(s.Y-1) > 1e-5 || abs(s.Z-1) > 1e-5 {
		t.Errorf("scale = %v, want {-2 1 1}", s)
	}
	if abs(abs(r.W)-1) > 1e-5 {
		t.Errorf("rotation = %v, want identity", r)
	}
}

func TestAddScaled(t *testing.T) {
	var m Mat4
	m = m.AddScaled(Identity(), 0.25)
	m = m.AddScaled(Scale(3, 3, 3), 0.75)

	p := m.TransformPoint([3]float32{1, 0, 0})
	if abs(p[0]-2.5) > 1e-6 {
		t.Errorf("AddScaled blend: got x=%f, want 2.5", p[0])
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(float32(math.Pi/4), 1, 0.1, 100)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAt(t *testing.T) {
	m := LookAt(Vec3{0, 0, 5}, Vec3{0, 0, 0}, Vec3{0, 1, 0})

	// The eye lands at the view-space origin.
	p := m.TransformPoint([3]float32{0, 0, 5})
	if abs(p[0]) > 1e-5 || abs(p[1]) > 1e-5 || abs(p[2]) > 1e-5 {
		t.Errorf("LookAt eye: got %v, want origin", p)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
