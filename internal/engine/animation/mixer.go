package animation

import (
	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

type pose struct {
	position math.Vec3
	rotation math.Quat
	scale    math.Vec3
}

type blend struct {
	pose
	wPos, wRot, wScale float32
}

// Mixer advances actions and writes the blended result onto the nodes their
// tracks target. Nodes that no active action touches stay in their rest pose,
// captured when the first action targeting them was created.
type Mixer struct {
	root    *scene.Node
	actions []*Action
	byClip  map[*Clip]*Action
	rest    map[*scene.Node]pose
	order   []*scene.Node
	acc     map[*scene.Node]*blend
}

// NewMixer creates a mixer for the subtree under root.
func NewMixer(root *scene.Node) *Mixer {
	return &Mixer{
		root:   root,
		byClip: make(map[*Clip]*Action),
		rest:   make(map[*scene.Node]pose),
		acc:    make(map[*scene.Node]*blend),
	}
}

// Root returns the node the mixer was bound to.
func (m *Mixer) Root() *scene.Node {
	return m.root
}

// ClipAction returns the action for clip, creating it on first use.
func (m *Mixer) ClipAction(clip *Clip) *Action {
	if a, ok := m.byClip[clip]; ok {
		return a
	}
	a := newAction(clip)
	m.byClip[clip] = a
	m.actions = append(m.actions, a)

	for _, t := range clip.Tracks {
		if t.Target == nil {
			continue
		}
		if _, ok := m.rest[t.Target]; !ok {
			m.rest[t.Target] = pose{t.Target.Position, t.Target.Rotation, t.Target.Scale}
			m.order = append(m.order, t.Target)
		}
	}
	return a
}

// Update advances all actions by dt seconds and applies the resulting pose.
func (m *Mixer) Update(dt float32) {
	for _, a := range m.actions {
		a.advance(dt)
	}

	for _, n := range m.order {
		b, ok := m.acc[n]
		if !ok {
			b = &blend{}
			m.acc[n] = b
		}
		*b = blend{}
	}

	for _, a := range m.actions {
		if !a.affects() {
			continue
		}
		w := a.Weight
		for _, t := range a.clip.Tracks {
			if t.Target == nil || len(t.Times) == 0 {
				continue
			}
			b := m.acc[t.Target]
			switch t.Path {
			case Translation:
				v := t.SampleVec3(a.time)
				b.wPos += w
				if b.wPos == w {
					b.position = v
				} else {
					b.position = b.position.Lerp(v, w/b.wPos)
				}
			case Scale:
				v := t.SampleVec3(a.time)
				b.wScale += w
				if b.wScale == w {
					b.scale = v
				} else {
					b.scale = b.scale.Lerp(v, w/b.wScale)
				}
			case Rotation:
				q := t.SampleQuat(a.time)
				b.wRot += w
				if b.wRot == w {
					b.rotation = q
				} else {
					b.rotation = b.rotation.Slerp(q, w/b.wRot)
				}
			}
		}
	}

	for _, n := range m.order {
		rest := m.rest[n]
		b := m.acc[n]
		n.Position = mixVec(rest.position, b.position, b.wPos)
		n.Scale = mixVec(rest.scale, b.scale, b.wScale)
		n.Rotation = mixQuat(rest.rotation, b.rotation, b.wRot)
	}
}

func mixVec(rest, v math.Vec3, w float32) math.Vec3 {
	switch {
	case w <= 0:
		return rest
	case w >= 1:
		return v
	}
	return rest.Lerp(v, w)
}

func mixQuat(rest, q math.Quat, w float32) math.Quat {
	switch {
	case w <= 0:
		return rest
	case w >= 1:
		return q
	}
	return rest.Slerp(q, w)
}
