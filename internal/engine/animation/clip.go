package animation

// Clip is a named animation sequence: a set of tracks played together.
type Clip struct {
	Name     string
	Duration float32 // seconds
	Tracks   []*Track
}

// NewClip builds a clip whose duration is the latest keyframe of its tracks.
func NewClip(name string, tracks []*Track) *Clip {
	c := &Clip{Name: name, Tracks: tracks}
	for _, t := range tracks {
		if d := t.Duration(); d > c.Duration {
			c.Duration = d
		}
	}
	return c
}
