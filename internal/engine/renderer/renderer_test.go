package renderer

import (
	"testing"

	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
)

func TestDrawableSize(t *testing.T) {
	tests := []struct {
		w, h  int
		ratio float32
		wantW int
		wantH int
	}{
		{1280, 720, 1, 1280, 720},
		{1280, 720, 2, 2560, 1440},
		{801, 601, 1.5, 1202, 902},
		{0, 0, 1, 1, 1},
	}

	for _, tt := range tests {
		w, h := DrawableSize(tt.w, tt.h, tt.ratio)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("DrawableSize(%d, %d, %v) = %d, %d, want %d, %d", tt.w, tt.h, tt.ratio, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestShadowIndex(t *testing.T) {
	rig := lighting.Rig{
		{Kind: lighting.Ambient},
		{Kind: lighting.Directional},
		{Kind: lighting.Directional, CastShadow: true},
	}
	if got := shadowIndex(rig); got != 2 {
		t.Errorf("shadowIndex() = %d, want 2", got)
	}
	if got := shadowIndex(lighting.Rig{{Kind: lighting.Point, CastShadow: true}}); got != -1 {
		t.Errorf("shadowIndex() with no directional caster = %d, want -1", got)
	}
}

func TestShaderSourcesEmbedded(t *testing.T) {
	for name, src := range map[string]string{
		"model.vert": modelVert, "model.frag": modelFrag,
		"depth.vert": depthVert, "depth.frag": depthFrag,
	} {
		if len(src) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
