package scene

import (
	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Scene is the root of everything a renderer draws.
type Scene struct {
	// Lights illuminate every mesh in the scene.
	Lights lighting.Rig

	root *Node
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{root: NewNode("scene")}
}

// Add attaches a node at the top level.
func (s *Scene) Add(n *Node) {
	s.root.Add(n)
}

// Remove detaches a top-level node.
func (s *Scene) Remove(n *Node) {
	s.root.Remove(n)
}

// Children returns the top-level nodes.
func (s *Scene) Children() []*Node {
	return s.root.Children
}

// Traverse visits every node below the scene root.
func (s *Scene) Traverse(fn func(*Node)) {
	for _, c := range s.root.Children {
		c.Traverse(fn)
	}
}

// UpdateMatrices refreshes all world matrices.
func (s *Scene) UpdateMatrices() {
	s.root.UpdateWorldMatrix(math.Identity())
}

// Empty reports whether the scene has no renderable geometry.
func (s *Scene) Empty() bool {
	empty := true
	s.Traverse(func(n *Node) {
		if n.IsMesh() {
			empty = false
		}
	})
	return empty
}
