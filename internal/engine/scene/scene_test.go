package scene

import (
	"testing"

	"github.com/Faultbox/avatar-stage/pkg/math"
)

func near(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-4
}

func triangle(name string) *Mesh {
	return &Mesh{
		Name:      name,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2},
		Material:  NewMaterial("skin"),
	}
}

func TestAddReparents(t *testing.T) {
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	a.Add(c)
	b.Add(c)

	if len(a.Children) != 0 {
		t.Errorf("c should have left a, a has %d children", len(a.Children))
	}
	if c.Parent != b || len(b.Children) != 1 {
		t.Error("c should be attached to b")
	}
}

func TestTraverseAndFind(t *testing.T) {
	root := NewNode("root")
	arm := NewNode("arm")
	hand := NewNode("hand")
	root.Add(arm)
	arm.Add(hand)

	var names []string
	root.Traverse(func(n *Node) { names = append(names, n.Name) })
	if len(names) != 3 || names[0] != "root" || names[2] != "hand" {
		t.Errorf("traverse order: got %v", names)
	}
	if root.Find("hand") != hand {
		t.Error("Find should locate nested node")
	}
	if root.Find("leg") != nil {
		t.Error("Find should return nil for unknown names")
	}
}

func TestWorldMatrixChain(t *testing.T) {
	root := NewNode("root")
	root.SetUniformScale(2.5)
	child := NewNode("child")
	child.Position = math.Vec3{X: 1}
	root.Add(child)

	s := New()
	s.Add(root)
	s.UpdateMatrices()

	p := child.WorldMatrix().TransformPoint([3]float32{0, 0, 0})
	if !near(p[0], 2.5) {
		t.Errorf("child origin in world: got %v, want x=2.5", p)
	}
}

func TestBakeStaticMesh(t *testing.T) {
	root := NewNode("model")
	root.SetUniformScale(2)
	root.Meshes = []*Mesh{triangle("tri")}
	root.CastShadow = true

	s := New()
	s.Add(root)

	b := NewBaker()
	items := b.Bake(s)
	if len(items) != 1 {
		t.Fatalf("items: got %d, want 1", len(items))
	}
	if items[0].Positions[1] != [3]float32{2, 0, 0} {
		t.Errorf("scaled vertex: got %v", items[0].Positions[1])
	}
	if items[0].Normals[0] != [3]float32{0, 0, 1} {
		t.Errorf("normal should stay unit: got %v", items[0].Normals[0])
	}
	if !items[0].CastShadow {
		t.Error("node shadow flag should carry to the item")
	}
	bounds := b.Bounds()
	if bounds.Max[0] != 2 || bounds.Max[1] != 2 {
		t.Errorf("bounds: got %+v", bounds)
	}
}

func TestBakeSkipsInvisible(t *testing.T) {
	root := NewNode("model")
	root.Meshes = []*Mesh{triangle("tri")}
	root.Visible = false

	s := New()
	s.Add(root)
	if items := NewBaker().Bake(s); len(items) != 0 {
		t.Errorf("invisible nodes should not bake, got %d items", len(items))
	}
}

func TestBakeSkinnedFollowsJoint(t *testing.T) {
	root := NewNode("model")
	joint := NewNode("joint")
	root.Add(joint)

	mesh := triangle("skinned")
	mesh.Joints = [][4]uint16{{0}, {0}, {0}}
	mesh.Weights = [][4]float32{{1}, {1}, {1}}

	skinned := NewNode("body")
	skinned.Meshes = []*Mesh{mesh}
	skinned.Skin = &Skin{Joints: []*Node{joint}, InverseBind: []math.Mat4{math.Identity()}}
	root.Add(skinned)

	s := New()
	s.Add(root)
	b := NewBaker()

	joint.Position = math.Vec3{Y: 3}
	items := b.Bake(s)
	if items[0].Positions[0] != [3]float32{0, 3, 0} {
		t.Errorf("skinned vertex should follow joint: got %v", items[0].Positions[0])
	}

	joint.Position = math.Vec3{Y: 5}
	items = b.Bake(s)
	if items[0].Positions[0] != [3]float32{0, 5, 0} {
		t.Errorf("second bake should reuse buffers and move: got %v", items[0].Positions[0])
	}
}

func TestMaterialNeedsUpdate(t *testing.T) {
	m := NewMaterial("body")
	v := m.Version()
	m.MarkNeedsUpdate()
	if !m.NeedsUpdate || m.Version() == v {
		t.Error("MarkNeedsUpdate should flag and bump version")
	}
}

func TestSceneEmpty(t *testing.T) {
	s := New()
	if !s.Empty() {
		t.Error("new scene should be empty")
	}
	n := NewNode("model")
	n.Meshes = []*Mesh{triangle("tri")}
	s.Add(n)
	if s.Empty() {
		t.Error("scene with a mesh should not be empty")
	}
}
