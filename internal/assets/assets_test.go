package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func near(a, b float32) bool {
	d := a - b
	return d < 1e-5 && d > -1e-5
}

// avatarGLTF returns a small glTF document: an armature node with a child
// triangle mesh and a two-key translation clip on the mesh node.
func avatarGLTF(t *testing.T) []byte {
	t.Helper()

	bin := avatarBuffer(t)
	return avatarDocument(len(bin), "data:application/octet-stream;base64,"+base64.StdEncoding.EncodeToString(bin))
}

// avatarBuffer returns the binary payload referenced by avatarDocument.
func avatarBuffer(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	floats := []float32{
		0, 0, 0, 1, 0, 0, 0, 1, 0, // positions
		0, 2, // times
		0, 0, 0, 0, 1, 0, // translations
	}
	if err := binary.Write(&buf, binary.LittleEndian, floats); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// avatarDocument returns the glTF JSON with a single buffer at uri.
func avatarDocument(byteLength int, uri string) []byte {
	return []byte(fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "Armature", "children": [1], "translation": [0, 1, 0]},
    {"name": "Body", "mesh": 0, "scale": [2, 2, 2]}
  ],
  "meshes": [{"name": "body", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}],
  "materials": [{"name": "skin", "pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0.25, 1], "metallicFactor": 0.1, "roughnessFactor": 0.7}}],
  "animations": [{
    "name": "Wave",
    "channels": [
      {"sampler": 0, "target": {"node": 1, "path": "translation"}},
      {"sampler": 0, "target": {"node": 1, "path": "weights"}}
    ],
    "samplers": [{"input": 1, "output": 2, "interpolation": "LINEAR"}]
  }],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5126, "count": 2, "type": "SCALAR", "min": [0], "max": [2]},
    {"bufferView": 2, "componentType": 5126, "count": 2, "type": "VEC3"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 8},
    {"buffer": 0, "byteOffset": 44, "byteLength": 24}
  ],
  "buffers": [{"byteLength": %d, "uri": %q}]
}`, byteLength, uri))
}

func TestBuildConvertsHierarchy(t *testing.T) {
	doc, err := Decode(avatarGLTF(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	model, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(model.Root.Children) != 1 || model.Root.Children[0].Name != "Armature" {
		t.Fatalf("root children = %v, want [Armature]", model.Root.Children)
	}
	armature := model.Root.Children[0]
	if armature.Position.Y != 1 {
		t.Errorf("Armature position = %v, want y=1", armature.Position)
	}

	body := model.Root.Find("Body")
	if body == nil {
		t.Fatal("Body node not found")
	}
	if body.Parent != armature {
		t.Error("Body should be parented to Armature")
	}
	if body.Scale.X != 2 {
		t.Errorf("Body scale = %v, want 2", body.Scale)
	}
	if len(body.Meshes) != 1 {
		t.Fatalf("Body meshes = %d, want 1", len(body.Meshes))
	}

	mesh := body.Meshes[0]
	if len(mesh.Positions) != 3 {
		t.Errorf("positions = %d, want 3", len(mesh.Positions))
	}
	if len(mesh.Indices) != 3 || mesh.Indices[2] != 2 {
		t.Errorf("generated indices = %v, want [0 1 2]", mesh.Indices)
	}
	if n := mesh.Normals[0]; !near(n[2], 1) {
		t.Errorf("computed normal = %v, want +Z", n)
	}

	mat := mesh.Material
	if mat == nil || mat.Name != "skin" {
		t.Fatalf("material = %+v, want skin", mat)
	}
	if !near(mat.Color[1], 0.5) || !near(mat.Metalness, 0.1) || !near(mat.Roughness, 0.7) {
		t.Errorf("material = %+v, want color g=0.5 metal 0.1 rough 0.7", mat)
	}
}

func TestBuildConvertsClips(t *testing.T) {
	doc, err := Decode(avatarGLTF(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	model, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(model.Clips) != 1 {
		t.Fatalf("clips = %d, want 1", len(model.Clips))
	}
	clip := model.Clips[0]
	if clip.Name != "Wave" || clip.Duration != 2 {
		t.Errorf("clip = %s/%v, want Wave/2", clip.Name, clip.Duration)
	}
	if len(clip.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1 (weights channel dropped)", len(clip.Tracks))
	}
	if clip.Tracks[0].Target != model.Root.Find("Body") {
		t.Error("track should target Body")
	}
	if got := clip.Tracks[0].SampleVec3(1); !near(got.Y, 0.5) {
		t.Errorf("sample at 1s = %v, want y=0.5", got)
	}
}

func TestBuildWithoutScenes(t *testing.T) {
	doc, err := Decode([]byte(`{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "a", "children": [1]}, {"name": "b"}, {"name": "c"}]
}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	model, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(model.Root.Children) != 2 {
		t.Errorf("root children = %d, want 2 parentless nodes", len(model.Root.Children))
	}
	if len(model.Clips) != 0 {
		t.Errorf("clips = %d, want 0", len(model.Clips))
	}
}

func TestBuildMatrixNode(t *testing.T) {
	doc, err := Decode([]byte(`{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "m", "matrix": [1,0,0,0, 0,1,0,0, 0,0,1,0, 3,4,5,1]}]
}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	model, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n := model.Root.Find("m")
	if n.Position.X != 3 || n.Position.Y != 4 || n.Position.Z != 5 {
		t.Errorf("position = %v, want (3,4,5)", n.Position)
	}
}

func TestBuildRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"child out of range", `{"asset":{"version":"2.0"},"nodes":[{"children":[5]}]}`},
		{"self child", `{"asset":{"version":"2.0"},"nodes":[{"children":[0]}]}`},
		{"mesh out of range", `{"asset":{"version":"2.0"},"nodes":[{"mesh":3}]}`},
		{"scene out of range", `{"asset":{"version":"2.0"},"scene":2,"scenes":[{"nodes":[]}],"nodes":[{}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.json))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if _, err := Build(doc); err == nil {
				t.Error("Build should fail")
			}
		})
	}
}

func TestLoaderHTTP(t *testing.T) {
	body := avatarGLTF(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader(0)
	for i := 0; i < 2; i++ {
		model, err := l.Load(context.Background(), srv.URL+"/avatar.gltf")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if model.Root.Find("Body") == nil {
			t.Fatal("Body missing from loaded model")
		}
	}

	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (second load cached)", hits.Load())
	}
	if h, m := l.Cache().Stats(); h != 1 || m != 1 {
		t.Errorf("cache stats = %d/%d, want 1/1", h, m)
	}
}

func TestLoaderFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.glb":
			http.NotFound(w, r)
		default:
			w.Write([]byte("definitely not a model"))
		}
	}))
	defer srv.Close()

	tests := []struct {
		name  string
		url   string
		stage string
	}{
		{"not found", srv.URL + "/missing.glb", StageFetch},
		{"garbage", srv.URL + "/garbage.glb", StageDecode},
		{"unsupported scheme", "ftp://example.com/a.glb", StageFetch},
		{"missing file", filepath.Join(t.TempDir(), "nope.glb"), StageFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(0).Load(context.Background(), tt.url)
			if !errors.Is(err, ErrLoad) {
				t.Fatalf("error %v should match ErrLoad", err)
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error %v should be a *LoadError", err)
			}
			if le.Stage != tt.stage || le.URL != tt.url {
				t.Errorf("LoadError = %s/%s, want %s/%s", le.URL, le.Stage, tt.url, tt.stage)
			}
		})
	}
}

func TestLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avatar.gltf")
	if err := os.WriteFile(path, avatarGLTF(t), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, src := range []string{path, "file://" + path} {
		model, err := NewLoader(0).Load(context.Background(), src)
		if err != nil {
			t.Fatalf("Load(%s): %v", src, err)
		}
		if len(model.Clips) != 1 {
			t.Errorf("Load(%s): clips = %d, want 1", src, len(model.Clips))
		}
	}
}

func TestLoaderExternalBuffer(t *testing.T) {
	dir := t.TempDir()
	bin := avatarBuffer(t)
	path := filepath.Join(dir, "tri.gltf")
	if err := os.WriteFile(path, avatarDocument(len(bin), "tri.bin"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tri.bin"), bin, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, src := range []string{path, "file://" + path} {
		model, err := NewLoader(0).Load(context.Background(), src)
		if err != nil {
			t.Fatalf("Load(%s): %v", src, err)
		}
		if model.Root.Find("Body") == nil {
			t.Errorf("Load(%s): Body missing", src)
		}
		if len(model.Clips) != 1 {
			t.Errorf("Load(%s): clips = %d, want 1", src, len(model.Clips))
		}
	}
}

func TestLoaderExternalBufferHTTP(t *testing.T) {
	bin := avatarBuffer(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/tri.gltf":
			w.Write(avatarDocument(len(bin), "tri.bin"))
		case "/models/tri.bin":
			w.Write(bin)
		case "/models/short.gltf":
			w.Write(avatarDocument(len(bin), "short.bin"))
		case "/models/short.bin":
			w.Write(bin[:8])
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader(0)
	model, err := l.Load(context.Background(), srv.URL+"/models/tri.gltf")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(model.Clips) != 1 {
		t.Errorf("clips = %d, want 1", len(model.Clips))
	}
	if _, ok := l.Cache().Get(srv.URL + "/models/tri.bin"); !ok {
		t.Error("buffer should be cached under its resolved url")
	}

	_, err = l.Load(context.Background(), srv.URL+"/models/short.gltf")
	var le *LoadError
	if !errors.As(err, &le) || le.Stage != StageDecode {
		t.Errorf("short buffer: error = %v, want decode LoadError", err)
	}
}

func TestLoaderCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(0).Load(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLoaderMaxBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avatar.gltf")
	if err := os.WriteFile(path, avatarGLTF(t), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(0)
	l.MaxBytes = 16
	if _, err := l.Load(context.Background(), path); err == nil {
		t.Error("oversized body should fail")
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	c.Set("a", []byte("x"))

	if _, ok := c.Get("a"); !ok {
		t.Error("a should be cached")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should miss")
	}
	if h, m := c.Stats(); h != 1 || m != 1 {
		t.Errorf("stats = %d/%d, want 1/1", h, m)
	}
}
