package assets

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/avatar-stage/internal/engine/animation"
	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/internal/logger"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

// Build converts a decoded document into a Model. The document's default
// scene (or its first scene, or every parentless node when it has none) is
// placed under a fresh root node.
func Build(doc *gltf.Document) (*Model, error) {
	b := &builder{
		doc:   doc,
		log:   logger.Named("assets"),
		nodes: make([]*scene.Node, len(doc.Nodes)),
	}
	if err := b.materials(); err != nil {
		return nil, err
	}
	if err := b.hierarchy(); err != nil {
		return nil, err
	}
	if err := b.meshes(); err != nil {
		return nil, err
	}
	if err := b.skins(); err != nil {
		return nil, err
	}
	root, err := b.root()
	if err != nil {
		return nil, err
	}
	clips, err := b.clips()
	if err != nil {
		return nil, err
	}

	mats := b.mats
	if b.fallback != nil {
		mats = append(mats, b.fallback)
	}
	return &Model{Root: root, Clips: clips, Materials: mats}, nil
}

type builder struct {
	doc      *gltf.Document
	log      *zap.Logger
	nodes    []*scene.Node
	mats     []*scene.Material
	fallback *scene.Material
	shared   map[int][]*scene.Mesh
}

func (b *builder) materials() error {
	b.mats = make([]*scene.Material, len(b.doc.Materials))
	for i, m := range b.doc.Materials {
		if m == nil {
			return fmt.Errorf("material %d is null", i)
		}
		mat := scene.NewMaterial(m.Name)
		mat.DoubleSided = m.DoubleSided
		// glTF defaults: white, fully metallic, fully rough.
		mat.Metalness = 1
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			if c, ok := colorOf(pbr.BaseColorFactor); ok {
				mat.Color = c
			}
			mat.Metalness = deref(pbr.MetallicFactor, 1)
			mat.Roughness = deref(pbr.RoughnessFactor, 1)
		}
		b.mats[i] = mat
	}
	return nil
}

func (b *builder) hierarchy() error {
	for i, n := range b.doc.Nodes {
		if n == nil {
			return fmt.Errorf("node %d is null", i)
		}
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node%d", i)
		}
		node := scene.NewNode(name)
		setTransform(node, n)
		b.nodes[i] = node
	}

	for i, n := range b.doc.Nodes {
		for _, c := range n.Children {
			ci := int(c)
			if ci < 0 || ci >= len(b.nodes) {
				return fmt.Errorf("node %d: child %d out of range", i, ci)
			}
			if ci == i || b.nodes[ci].Parent != nil {
				return fmt.Errorf("node %d: child %d already has a parent", i, ci)
			}
			b.nodes[i].Add(b.nodes[ci])
		}
	}
	return nil
}

func setTransform(node *scene.Node, n *gltf.Node) {
	m := mat4(n.Matrix)
	if m != (math.Mat4{}) && m != math.Identity() {
		node.Position, node.Rotation, node.Scale = m.Decompose()
		return
	}

	node.Position = vec3(n.Translation)
	if q := quat(n.Rotation); q != (math.Quat{}) {
		node.Rotation = q.Normalize()
	}
	if s := vec3(n.Scale); s != (math.Vec3{}) {
		node.Scale = s
	}
}

func (b *builder) meshes() error {
	b.shared = make(map[int][]*scene.Mesh)
	for i, n := range b.doc.Nodes {
		mi, ok := index(n.Mesh)
		if !ok {
			continue
		}
		if mi >= len(b.doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", i, mi)
		}
		meshes, seen := b.shared[mi]
		if !seen {
			var err error
			meshes, err = b.mesh(mi)
			if err != nil {
				return fmt.Errorf("mesh %d: %w", mi, err)
			}
			b.shared[mi] = meshes
		}
		b.nodes[i].Meshes = meshes
	}
	return nil
}

func (b *builder) mesh(mi int) ([]*scene.Mesh, error) {
	src := b.doc.Meshes[mi]
	var out []*scene.Mesh
	for pi, p := range src.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			b.log.Warn("skipping non-triangle primitive",
				zap.String("mesh", src.Name), zap.Int("primitive", pi))
			continue
		}
		m, err := b.primitive(p)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		if m == nil {
			continue
		}
		m.Name = src.Name
		out = append(out, m)
	}
	return out, nil
}

func (b *builder) primitive(p *gltf.Primitive) (*scene.Mesh, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	acr, err := b.accessor(int(posIdx))
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(b.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	m := &scene.Mesh{Positions: positions}

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		acr, err := b.accessor(int(idx))
		if err != nil {
			return nil, err
		}
		if m.Normals, err = modeler.ReadNormal(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
	}

	if idx, ok := p.Attributes[gltf.JOINTS_0]; ok {
		acr, err := b.accessor(int(idx))
		if err != nil {
			return nil, err
		}
		if m.Joints, err = modeler.ReadJoints(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading joints: %w", err)
		}
	}
	if idx, ok := p.Attributes[gltf.WEIGHTS_0]; ok {
		acr, err := b.accessor(int(idx))
		if err != nil {
			return nil, err
		}
		if m.Weights, err = modeler.ReadWeights(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading weights: %w", err)
		}
	}

	if ii, ok := index(p.Indices); ok {
		acr, err := b.accessor(ii)
		if err != nil {
			return nil, err
		}
		if m.Indices, err = modeler.ReadIndices(b.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		m.Indices = make([]uint32, len(positions))
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}
	for _, i := range m.Indices {
		if int(i) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range", i)
		}
	}

	if len(m.Normals) != len(positions) {
		m.Normals = computeNormals(positions, m.Indices)
	}

	if mi, ok := index(p.Material); ok && mi < len(b.mats) {
		m.Material = b.mats[mi]
	} else {
		if b.fallback == nil {
			b.fallback = scene.NewMaterial("default")
		}
		m.Material = b.fallback
	}
	return m, nil
}

func (b *builder) skins() error {
	for i, n := range b.doc.Nodes {
		si, ok := index(n.Skin)
		if !ok {
			continue
		}
		if si >= len(b.doc.Skins) {
			return fmt.Errorf("node %d: skin %d out of range", i, si)
		}
		src := b.doc.Skins[si]

		skin := &scene.Skin{Joints: make([]*scene.Node, len(src.Joints))}
		for k, j := range src.Joints {
			ji := int(j)
			if ji < 0 || ji >= len(b.nodes) {
				return fmt.Errorf("skin %d: joint %d out of range", si, ji)
			}
			skin.Joints[k] = b.nodes[ji]
		}

		if ai, ok := index(src.InverseBindMatrices); ok {
			mats, err := b.readMatrices(ai)
			if err != nil {
				return fmt.Errorf("skin %d: %w", si, err)
			}
			skin.InverseBind = mats
		}
		b.nodes[i].Skin = skin
	}
	return nil
}

func (b *builder) root() (*scene.Node, error) {
	root := scene.NewNode("model")

	var top []int
	si, ok := index(b.doc.Scene)
	if !ok && len(b.doc.Scenes) > 0 {
		si, ok = 0, true
	}
	if ok {
		if si >= len(b.doc.Scenes) {
			return nil, fmt.Errorf("scene %d out of range", si)
		}
		for _, n := range b.doc.Scenes[si].Nodes {
			top = append(top, int(n))
		}
	} else {
		for i, n := range b.nodes {
			if n.Parent == nil {
				top = append(top, i)
			}
		}
	}

	for _, i := range top {
		if i < 0 || i >= len(b.nodes) {
			return nil, fmt.Errorf("scene node %d out of range", i)
		}
		if b.nodes[i].Parent != nil {
			return nil, fmt.Errorf("scene node %d is not a root", i)
		}
		root.Add(b.nodes[i])
	}
	return root, nil
}

func (b *builder) clips() ([]*animation.Clip, error) {
	var clips []*animation.Clip
	for ai, anim := range b.doc.Animations {
		var tracks []*animation.Track
		for ci, ch := range anim.Channels {
			track, err := b.track(anim, ch)
			if err != nil {
				return nil, fmt.Errorf("animation %d channel %d: %w", ai, ci, err)
			}
			if track != nil {
				tracks = append(tracks, track)
			}
		}
		name := anim.Name
		if name == "" {
			name = fmt.Sprintf("clip%d", ai)
		}
		clips = append(clips, animation.NewClip(name, tracks))
	}
	return clips, nil
}

func (b *builder) track(anim *gltf.Animation, ch *gltf.Channel) (*animation.Track, error) {
	ni, ok := index(ch.Target.Node)
	if !ok {
		return nil, nil
	}
	if ni >= len(b.nodes) {
		return nil, fmt.Errorf("target node %d out of range", ni)
	}

	var path animation.Path
	switch ch.Target.Path {
	case gltf.TRSTranslation:
		path = animation.Translation
	case gltf.TRSRotation:
		path = animation.Rotation
	case gltf.TRSScale:
		path = animation.Scale
	default:
		// Morph target weights are not animated.
		return nil, nil
	}

	si, ok := index(ch.Sampler)
	if !ok || si >= len(anim.Samplers) {
		return nil, fmt.Errorf("sampler out of range")
	}
	smp := anim.Samplers[si]

	in, ok := index(smp.Input)
	if !ok {
		return nil, fmt.Errorf("sampler %d has no input", si)
	}
	out, ok := index(smp.Output)
	if !ok {
		return nil, fmt.Errorf("sampler %d has no output", si)
	}

	times, err := b.readFloats(in)
	if err != nil {
		return nil, fmt.Errorf("reading times: %w", err)
	}
	values, err := b.readFloats(out)
	if err != nil {
		return nil, fmt.Errorf("reading values: %w", err)
	}

	interp := animation.Linear
	switch smp.Interpolation {
	case gltf.InterpolationStep:
		interp = animation.Step
	case gltf.InterpolationCubicSpline:
		interp = animation.CubicSpline
	}

	t := &animation.Track{
		Target:        b.nodes[ni],
		Path:          path,
		Interpolation: interp,
		Times:         times,
		Values:        values,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (b *builder) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(b.doc.Accessors) || b.doc.Accessors[i] == nil {
		return nil, fmt.Errorf("accessor %d out of range", i)
	}
	return b.doc.Accessors[i], nil
}

// readFloats reads a scalar or vector accessor as a flat float slice,
// expanding normalized integer components.
func (b *builder) readFloats(i int) ([]float32, error) {
	acr, err := b.accessor(i)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return nil, err
	}

	var out []float32
	switch v := data.(type) {
	case []float32:
		return v, nil
	case [][2]float32:
		for _, a := range v {
			out = append(out, a[:]...)
		}
		return out, nil
	case [][3]float32:
		for _, a := range v {
			out = append(out, a[:]...)
		}
		return out, nil
	case [][4]float32:
		for _, a := range v {
			out = append(out, a[:]...)
		}
		return out, nil
	case [][4]int8:
		for _, a := range v {
			for _, x := range a {
				out = append(out, max(float32(x)/127, -1))
			}
		}
		return out, nil
	case [][4]uint8:
		for _, a := range v {
			for _, x := range a {
				out = append(out, float32(x)/255)
			}
		}
		return out, nil
	case [][4]int16:
		for _, a := range v {
			for _, x := range a {
				out = append(out, max(float32(x)/32767, -1))
			}
		}
		return out, nil
	case [][4]uint16:
		for _, a := range v {
			for _, x := range a {
				out = append(out, float32(x)/65535)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("accessor %d: unsupported element type %T", i, data)
}

func (b *builder) readMatrices(i int) ([]math.Mat4, error) {
	acr, err := b.accessor(i)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	src, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: expected float mat4, got %T", i, data)
	}
	out := make([]math.Mat4, len(src))
	for k, m := range src {
		for c := 0; c < 4; c++ {
			copy(out[k][c*4:c*4+4], m[c][:])
		}
	}
	return out, nil
}

// computeNormals derives area-weighted vertex normals for meshes that ship
// without them.
func computeNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	acc := make([]math.Vec3, len(positions))
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		a, b, c := math.V3(positions[i0]), math.V3(positions[i1]), math.V3(positions[i2])
		n := b.Sub(a).Cross(c.Sub(a))
		acc[i0] = acc[i0].Add(n)
		acc[i1] = acc[i1].Add(n)
		acc[i2] = acc[i2].Add(n)
	}
	out := make([][3]float32, len(positions))
	for i, n := range acc {
		if n == (math.Vec3{}) {
			out[i] = [3]float32{0, 1, 0}
			continue
		}
		out[i] = n.Normalize().Array()
	}
	return out
}

// index dereferences an optional glTF index.
func index(v any) (int, bool) {
	switch x := v.(type) {
	case *uint32:
		if x == nil {
			return 0, false
		}
		return int(*x), true
	case *int:
		if x == nil {
			return 0, false
		}
		return *x, true
	case uint32:
		return int(x), true
	case int:
		return x, true
	}
	return 0, false
}

func deref[T float32 | float64](p *T, def float32) float32 {
	if p == nil {
		return def
	}
	return float32(*p)
}

func colorOf[T float32 | float64](p *[4]T) (lighting.Color, bool) {
	if p == nil {
		return lighting.Color{}, false
	}
	return lighting.Color{float32(p[0]), float32(p[1]), float32(p[2])}, true
}

func vec3[T float32 | float64](a [3]T) math.Vec3 {
	return math.Vec3{X: float32(a[0]), Y: float32(a[1]), Z: float32(a[2])}
}

func quat[T float32 | float64](a [4]T) math.Quat {
	return math.Quat{X: float32(a[0]), Y: float32(a[1]), Z: float32(a[2]), W: float32(a[3])}
}

func mat4[T float32 | float64](a [16]T) math.Mat4 {
	var m math.Mat4
	for i := range a {
		m[i] = float32(a[i])
	}
	return m
}
