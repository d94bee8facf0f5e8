package scene

import (
	"github.com/Faultbox/avatar-stage/pkg/math"
)

// DrawItem is a mesh resolved to world space for one frame.
type DrawItem struct {
	Mesh          *Mesh
	Positions     [][3]float32
	Normals       [][3]float32
	Indices       []uint32
	Material      *Material
	CastShadow    bool
	ReceiveShadow bool
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Empty reports whether no point was added.
func (b Bounds) Empty() bool {
	return b.Min[0] > b.Max[0]
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return math.Vec3{
		X: (b.Min[0] + b.Max[0]) / 2,
		Y: (b.Min[1] + b.Max[1]) / 2,
		Z: (b.Min[2] + b.Max[2]) / 2,
	}
}

// Radius returns the half-diagonal of the box.
func (b Bounds) Radius() float32 {
	return math.V3(b.Max).Sub(math.V3(b.Min)).Length() / 2
}

func emptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e30, 1e30, 1e30},
		Max: [3]float32{-1e30, -1e30, -1e30},
	}
}

func (b *Bounds) extend(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Baker resolves the scene's meshes to world space, applying skinning.
// Buffers are reused across frames; the returned items are valid until the
// next Bake call.
type Baker struct {
	items  map[instance]*DrawItem
	frame  []*DrawItem
	joints []math.Mat4
	bounds Bounds
}

// NewBaker creates an empty baker.
func NewBaker() *Baker {
	return &Baker{items: make(map[instance]*DrawItem)}
}

// instance identifies a mesh as placed by one node; glTF lets nodes share meshes.
type instance struct {
	node *Node
	mesh *Mesh
}

// Bake updates world matrices and returns one item per visible mesh.
func (b *Baker) Bake(s *Scene) []*DrawItem {
	s.UpdateMatrices()
	b.frame = b.frame[:0]
	b.bounds = emptyBounds()

	var visit func(n *Node)
	visit = func(n *Node) {
		if !n.Visible {
			return
		}
		for _, m := range n.Meshes {
			item := b.item(n, m)
			item.Material = m.Material
			item.CastShadow = n.CastShadow
			item.ReceiveShadow = n.ReceiveShadow
			b.resolve(n, m, item)
			b.frame = append(b.frame, item)
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, c := range s.Children() {
		visit(c)
	}
	return b.frame
}

// Bounds returns the world-space box of the last Bake.
func (b *Baker) Bounds() Bounds {
	return b.bounds
}

func (b *Baker) item(n *Node, m *Mesh) *DrawItem {
	key := instance{node: n, mesh: m}
	item, ok := b.items[key]
	if !ok {
		item = &DrawItem{
			Mesh:      m,
			Positions: make([][3]float32, len(m.Positions)),
			Normals:   make([][3]float32, len(m.Positions)),
			Indices:   m.Indices,
		}
		b.items[key] = item
	}
	return item
}

func (b *Baker) resolve(n *Node, m *Mesh, item *DrawItem) {
	hasNormals := len(m.Normals) == len(m.Positions)

	if n.Skin != nil && m.Skinned() {
		b.joints = b.joints[:0]
		for i, j := range n.Skin.Joints {
			inv := math.Identity()
			if i < len(n.Skin.InverseBind) {
				inv = n.Skin.InverseBind[i]
			}
			b.joints = append(b.joints, j.WorldMatrix().Mul(inv))
		}

		world := n.WorldMatrix()
		for v, p := range m.Positions {
			skin, ok := b.skinMatrix(m.Joints[v], m.Weights[v])
			if !ok {
				skin = world
			}
			item.Positions[v] = skin.TransformPoint(p)
			if hasNormals {
				item.Normals[v] = math.V3(skin.TransformDirection(m.Normals[v])).Normalize().Array()
			}
			b.bounds.extend(item.Positions[v])
		}
		return
	}

	world := n.WorldMatrix()
	for v, p := range m.Positions {
		item.Positions[v] = world.TransformPoint(p)
		if hasNormals {
			item.Normals[v] = math.V3(world.TransformDirection(m.Normals[v])).Normalize().Array()
		}
		b.bounds.extend(item.Positions[v])
	}
}

// skinMatrix blends joint matrices by weight. ok is false when the vertex has
// no usable influence.
func (b *Baker) skinMatrix(joints [4]uint16, weights [4]float32) (math.Mat4, bool) {
	var m math.Mat4
	total := float32(0)
	for k := 0; k < 4; k++ {
		w := weights[k]
		j := int(joints[k])
		if w == 0 || j >= len(b.joints) {
			continue
		}
		m = m.AddScaled(b.joints[j], w)
		total += w
	}
	if total == 0 {
		return m, false
	}
	if total != 1 {
		var norm math.Mat4
		m = norm.AddScaled(m, 1/total)
	}
	return m, true
}
