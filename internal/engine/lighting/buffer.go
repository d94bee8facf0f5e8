package lighting

import gomath "math"

// MaxLights is the maximum number of lights supported in shaders.
const MaxLights = 16

// Buffer flattens a Rig into fixed-size arrays for GPU upload.
// Radiance colors are premultiplied by intensity.
type Buffer struct {
	Count     int
	Kinds     [MaxLights]int32
	Positions [MaxLights * 3]float32
	Colors    [MaxLights * 3]float32
	// Params holds per light: cos(outer cone), cos(inner cone), distance, decay.
	Params [MaxLights * 4]float32
}

// NewBuffer packs a rig. Lights past MaxLights are dropped.
func NewBuffer(r Rig) *Buffer {
	b := &Buffer{}
	b.Set(r)
	return b
}

// Set replaces the buffer contents.
func (b *Buffer) Set(r Rig) {
	*b = Buffer{}
	count := len(r)
	if count > MaxLights {
		count = MaxLights
	}
	for i := 0; i < count; i++ {
		l := r[i]
		b.Kinds[i] = int32(l.Kind)
		b.Positions[i*3+0] = l.Position.X
		b.Positions[i*3+1] = l.Position.Y
		b.Positions[i*3+2] = l.Position.Z
		for c := 0; c < 3; c++ {
			b.Colors[i*3+c] = l.Color[c] * l.Intensity
		}
		decay := l.Decay
		if decay == 0 {
			decay = DefaultDecay
		}
		b.Params[i*4+0] = float32(gomath.Cos(float64(l.Angle)))
		b.Params[i*4+1] = float32(gomath.Cos(float64(l.Angle * (1 - l.Penumbra))))
		b.Params[i*4+2] = l.Distance
		b.Params[i*4+3] = decay
	}
	b.Count = count
}
