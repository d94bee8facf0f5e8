package lighting

import (
	gomath "math"

	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Surface holds the material inputs of the shading model.
type Surface struct {
	Albedo    Color
	Roughness float32
	Metalness float32
}

// Shininess maps roughness to a Blinn-Phong exponent.
func Shininess(roughness float32) float32 {
	r := float64(roughness)
	if r < 0.05 {
		r = 0.05
	}
	s := 2/gomath.Pow(r, 4) - 2
	if s < 1 {
		s = 1
	}
	if s > 512 {
		s = 512
	}
	return float32(s)
}

// Shade returns the lit color of a surface point p with unit normal n seen
// from eye. Output components are clamped to 0-1. The GLSL model shader
// implements the same model.
func (r Rig) Shade(s Surface, p, n, eye math.Vec3) Color {
	var diffuse, specular Color
	view := eye.Sub(p).Normalize()
	shininess := Shininess(s.Roughness)

	for _, l := range r {
		radiance := l.Intensity
		var toLight math.Vec3

		switch l.Kind {
		case Ambient:
			for i := range diffuse {
				diffuse[i] += l.Color[i] * l.Intensity
			}
			continue
		case Directional:
			toLight = l.Direction()
		case Point, Spot:
			delta := l.Position.Sub(p)
			d := delta.Length()
			if d == 0 {
				continue
			}
			toLight = delta.Scale(1 / d)
			radiance *= l.Attenuation(d)
			if l.Kind == Spot {
				radiance *= l.ConeFactor(toLight)
			}
		}

		ndl := n.Dot(toLight)
		if ndl <= 0 || radiance == 0 {
			continue
		}
		half := toLight.Add(view).Normalize()
		ndh := n.Dot(half)
		if ndh < 0 {
			ndh = 0
		}
		spec := float32(gomath.Pow(float64(ndh), float64(shininess))) * ndl

		for i := range diffuse {
			diffuse[i] += l.Color[i] * radiance * ndl
			specular[i] += l.Color[i] * radiance * spec
		}
	}

	var out Color
	kd := 1 - s.Metalness
	for i := range out {
		f0 := 0.04 + (s.Albedo[i]-0.04)*s.Metalness
		v := s.Albedo[i]*kd*diffuse[i] + f0*specular[i]
		if v > 1 {
			v = 1
		}
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}
