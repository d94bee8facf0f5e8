package animation

import gomath "math"

// LoopMode controls what happens when an action reaches the end of its clip.
type LoopMode int

const (
	// LoopRepeat wraps around to the start.
	LoopRepeat LoopMode = iota
	// LoopOnce stops at the end.
	LoopOnce
)

// Action is the playback state of one clip on a mixer.
type Action struct {
	clip *Clip

	TimeScale float32
	Loop      LoopMode
	// ClampWhenFinished holds the final pose after a LoopOnce action ends.
	// Without it the targets return to their rest pose.
	ClampWhenFinished bool
	Weight            float32

	time     float32
	enabled  bool
	running  bool
	finished bool
}

func newAction(clip *Clip) *Action {
	return &Action{
		clip:      clip,
		TimeScale: 1,
		Loop:      LoopRepeat,
		Weight:    1,
	}
}

// Clip returns the clip this action plays.
func (a *Action) Clip() *Clip {
	return a.clip
}

// Play starts the action from its current time.
func (a *Action) Play() {
	a.enabled = true
	a.running = true
}

// Stop halts the action and rewinds it.
func (a *Action) Stop() {
	a.enabled = false
	a.running = false
	a.finished = false
	a.time = 0
}

// Time returns the local clip time in seconds.
func (a *Action) Time() float32 {
	return a.time
}

// Running reports whether the action advances on mixer updates.
func (a *Action) Running() bool {
	return a.running
}

// Finished reports whether a LoopOnce action reached its end.
func (a *Action) Finished() bool {
	return a.finished
}

// affects reports whether the action contributes to the pose.
func (a *Action) affects() bool {
	return a.enabled && a.Weight > 0
}

func (a *Action) advance(dt float32) {
	if !a.running {
		return
	}
	a.time += dt * a.TimeScale

	duration := a.clip.Duration
	switch a.Loop {
	case LoopOnce:
		ended := false
		if a.time >= duration {
			a.time = duration
			ended = true
		} else if a.time < 0 {
			a.time = 0
			ended = true
		}
		if ended {
			a.running = false
			a.finished = true
			if !a.ClampWhenFinished {
				a.enabled = false
			}
		}
	case LoopRepeat:
		if duration > 0 {
			a.time = float32(gomath.Mod(float64(a.time), float64(duration)))
			if a.time < 0 {
				a.time += duration
			}
		}
	}
}
