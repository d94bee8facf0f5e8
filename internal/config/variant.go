package config

import (
	"fmt"
	"sort"

	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
)

// Variant names.
const (
	VariantClassic = "classic"
	VariantStudio  = "studio"
	VariantScroll  = "scroll"
	VariantLite    = "lite"
)

// Variant is a named preset of lights, material constants, shadow-map
// resolution and render-trigger policy.
type Variant struct {
	Name          string
	Rig           func() lighting.Rig
	Roughness     float32
	Metalness     float32
	ShadowMapSize int
	Mode          string
}

var variants = map[string]Variant{
	VariantClassic: {
		Name:          VariantClassic,
		Rig:           lighting.ClassicRig,
		Roughness:     0.5,
		Metalness:     0.2,
		ShadowMapSize: 2048,
		Mode:          ModeContinuous,
	},
	VariantStudio: {
		Name:          VariantStudio,
		Rig:           lighting.StudioRig,
		Roughness:     0.6,
		Metalness:     0.5,
		ShadowMapSize: 1024,
		Mode:          ModeContinuous,
	},
	VariantScroll: {
		Name:          VariantScroll,
		Rig:           lighting.StudioRig,
		Roughness:     0.6,
		Metalness:     0.5,
		ShadowMapSize: 1024,
		Mode:          ModeScroll,
	},
	VariantLite: {
		Name:          VariantLite,
		Rig:           lighting.LiteRig,
		Roughness:     0.6,
		Metalness:     0.5,
		ShadowMapSize: 512,
		Mode:          ModeContinuous,
	},
}

// Variants returns the preset names in sorted order.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupVariant returns the preset with the given name.
func LookupVariant(name string) (Variant, bool) {
	v, ok := variants[name]
	return v, ok
}

// ApplyVariant overwrites the preset-controlled settings.
func (c *Config) ApplyVariant(name string) error {
	v, ok := variants[name]
	if !ok {
		return fmt.Errorf("unknown variant %q (have %v)", name, Variants())
	}
	c.Stage.Variant = v.Name
	c.Stage.Mode = v.Mode
	c.Lights = v.Rig()
	c.Material = MaterialConfig{Roughness: v.Roughness, Metalness: v.Metalness}
	c.Graphics.ShadowMapSize = v.ShadowMapSize
	return nil
}
