// Package scene implements the scene graph the stage renders: nodes with
// local transforms, meshes, skins and materials.
package scene

import (
	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Material holds the surface parameters of a mesh.
type Material struct {
	Name        string
	Color       lighting.Color
	Roughness   float32
	Metalness   float32
	DoubleSided bool

	// NeedsUpdate asks renderers to refresh cached material state.
	NeedsUpdate bool
	version     uint64
}

// NewMaterial returns a white, fully rough dielectric.
func NewMaterial(name string) *Material {
	return &Material{Name: name, Color: lighting.White, Roughness: 1}
}

// MarkNeedsUpdate flags the material dirty and bumps its version.
func (m *Material) MarkNeedsUpdate() {
	m.NeedsUpdate = true
	m.version++
}

// Version changes every time the material is marked dirty.
func (m *Material) Version() uint64 {
	return m.version
}

// Surface returns the shading inputs of the material.
func (m *Material) Surface() lighting.Surface {
	return lighting.Surface{Albedo: m.Color, Roughness: m.Roughness, Metalness: m.Metalness}
}

// Mesh is one drawable primitive: triangle list geometry plus a material.
// Joints and Weights are set for skinned geometry.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	Indices   []uint32
	Joints    [][4]uint16
	Weights   [][4]float32
	Material  *Material
}

// Skinned reports whether the mesh carries joint influences.
func (m *Mesh) Skinned() bool {
	return len(m.Joints) == len(m.Positions) && len(m.Weights) == len(m.Positions) && len(m.Positions) > 0
}

// Skin binds a mesh node to a joint hierarchy.
type Skin struct {
	Joints      []*Node
	InverseBind []math.Mat4
}

// Node is a scene graph node.
type Node struct {
	Name     string
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3

	Parent   *Node
	Children []*Node

	Meshes []*Mesh
	Skin   *Skin

	CastShadow    bool
	ReceiveShadow bool
	Visible       bool

	world math.Mat4
}

// NewNode returns a visible node with identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: math.QuatIdentity(),
		Scale:    math.Uniform(1),
		Visible:  true,
		world:    math.Identity(),
	}
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.Parent != nil {
		child.Parent.Remove(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Remove detaches child from n. Unknown children are ignored.
func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// IsMesh reports whether the node has renderable geometry.
func (n *Node) IsMesh() bool {
	return len(n.Meshes) > 0
}

// Traverse calls fn for n and every descendant, depth first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) {
		if found == nil && c.Name == name {
			found = c
		}
	})
	return found
}

// SetUniformScale sets all three scale components to s.
func (n *Node) SetUniformScale(s float32) {
	n.Scale = math.Uniform(s)
}

// LocalMatrix composes the node's translation, rotation and scale.
func (n *Node) LocalMatrix() math.Mat4 {
	return math.Compose(n.Position, n.Rotation, n.Scale)
}

// WorldMatrix returns the matrix computed by the last UpdateWorldMatrix.
func (n *Node) WorldMatrix() math.Mat4 {
	return n.world
}

// UpdateWorldMatrix recomputes world matrices for n and its subtree.
func (n *Node) UpdateWorldMatrix(parent math.Mat4) {
	n.world = parent.Mul(n.LocalMatrix())
	for _, c := range n.Children {
		c.UpdateWorldMatrix(n.world)
	}
}
