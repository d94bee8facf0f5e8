// Package lighting describes the stage's light table and shades surfaces with it.
package lighting

import (
	"fmt"
	gomath "math"
	"strconv"
	"strings"

	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Kind identifies a light type.
type Kind int

const (
	Ambient Kind = iota
	Directional
	Spot
	Point
)

var kindNames = [...]string{"ambient", "directional", "spot", "point"}

// String returns the config name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range kindNames {
		if n == name {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown light kind %q", name)
}

// Color is a linear RGB color with components in 0-1.
type Color [3]float32

// White is 0xffffff.
var White = Color{1, 1, 1}

// Hex builds a Color from a 0xRRGGBB value.
func Hex(v uint32) Color {
	return Color{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
	}
}

// ParseColor parses "#rrggbb", "0xrrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Hex(uint32(v)), nil
}

// Uint32 returns the color as 0xRRGGBB.
func (c Color) Uint32() uint32 {
	var v uint32
	for _, ch := range c {
		if ch < 0 {
			ch = 0
		}
		if ch > 1 {
			ch = 1
		}
		v = v<<8 | uint32(ch*255+0.5)
	}
	return v
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%06x", c.Uint32())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Light is one entry of the light table. Directional and spot lights aim at
// the world origin.
type Light struct {
	Kind      Kind      `yaml:"kind"`
	Color     Color     `yaml:"color"`
	Intensity float32   `yaml:"intensity"`
	Position  math.Vec3 `yaml:"position"`

	// Spot only. Angle is the cone half-angle in radians, Penumbra the soft
	// fraction of the cone (0-1).
	Angle    float32 `yaml:"angle,omitempty"`
	Penumbra float32 `yaml:"penumbra,omitempty"`

	// Point and spot. Distance 0 means unlimited range.
	Distance float32 `yaml:"distance,omitempty"`
	Decay    float32 `yaml:"decay,omitempty"`

	CastShadow bool `yaml:"cast_shadow,omitempty"`
}

// DefaultDecay matches physically based inverse-square falloff.
const DefaultDecay = 2

// Direction returns the normalized direction from the origin toward the light.
// Meaningful for directional and spot lights.
func (l Light) Direction() math.Vec3 {
	d := l.Position.Normalize()
	if d == (math.Vec3{}) {
		return math.Vec3{X: 0, Y: 1, Z: 0}
	}
	return d
}

// Attenuation returns the falloff factor at distance d.
func (l Light) Attenuation(d float32) float32 {
	decay := l.Decay
	if decay == 0 {
		decay = DefaultDecay
	}
	att := float32(1 / gomath.Max(gomath.Pow(float64(d), float64(decay)), 0.01))
	if l.Distance > 0 {
		r := d / l.Distance
		f := 1 - r*r*r*r
		if f < 0 {
			f = 0
		}
		att *= f * f
	}
	return att
}

// ConeFactor returns the spot cone falloff for a surface seen along toLight.
func (l Light) ConeFactor(toLight math.Vec3) float32 {
	spotDir := l.Direction().Scale(-1)
	cosTheta := toLight.Scale(-1).Dot(spotDir)
	outer := float32(gomath.Cos(float64(l.Angle)))
	inner := float32(gomath.Cos(float64(l.Angle * (1 - l.Penumbra))))
	return smoothstep(outer, inner, cosTheta)
}

func smoothstep(edge0, edge1, x float32) float32 {
	if edge1 == edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
