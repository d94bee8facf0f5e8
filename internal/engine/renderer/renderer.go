// Package renderer draws a stage scene with OpenGL 4.1 core.
package renderer

import (
	_ "embed"
	"fmt"
	"image"
	gomath "math"
	"strconv"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/avatar-stage/internal/engine/camera"
	"github.com/Faultbox/avatar-stage/internal/engine/framebuffer"
	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/internal/engine/shader"
	"github.com/Faultbox/avatar-stage/internal/engine/shadow"
	"github.com/Faultbox/avatar-stage/internal/logger"
	"github.com/Faultbox/avatar-stage/pkg/math"
)

var (
	//go:embed shaders/model.vert
	modelVert string
	//go:embed shaders/model.frag
	modelFrag string
	//go:embed shaders/depth.vert
	depthVert string
	//go:embed shaders/depth.frag
	depthFrag string
)

const shadowUnit = 1

// Config holds renderer configuration.
type Config struct {
	Width         int
	Height        int
	ShadowMapSize int32 // 0 disables shadows
	MSAA          int
}

// Renderer draws baked scene meshes with the stage lighting model. It must
// be created and used on the thread that owns the GL context.
type Renderer struct {
	width, height int
	ratio         float32

	model   *shader.Program
	depth   *shader.Program
	shadows *shadow.Map

	offscreen *framebuffer.Framebuffer

	baker  *scene.Baker
	meshes map[*scene.DrawItem]*gpuMesh
	lights lighting.Buffer
	frames uint64
	log    *zap.Logger
}

type gpuMesh struct {
	vao       uint32
	positions uint32
	normals   uint32
	indices   uint32
	vertices  int
	count     int32
}

// New initializes GL and compiles the programs.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}

	r := &Renderer{
		ratio:  1,
		baker:  scene.NewBaker(),
		meshes: make(map[*scene.DrawItem]*gpuMesh),
		log:    logger.Named("renderer"),
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	defines := map[string]string{"MAX_LIGHTS": strconv.Itoa(lighting.MaxLights)}
	var err error
	if r.model, err = shader.Compile(modelVert, modelFrag, defines); err != nil {
		return nil, fmt.Errorf("model program: %w", err)
	}
	if r.depth, err = shader.Compile(depthVert, depthFrag, nil); err != nil {
		r.model.Delete()
		return nil, fmt.Errorf("depth program: %w", err)
	}

	if cfg.ShadowMapSize > 0 {
		if r.shadows, err = shadow.NewMap(cfg.ShadowMapSize); err != nil {
			r.log.Warn("shadows disabled", zap.Error(err))
		}
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	if cfg.MSAA > 0 {
		gl.Enable(gl.MULTISAMPLE)
	}
	// Transparent so the host surface shows through.
	gl.ClearColor(0, 0, 0, 0)

	r.SetSize(cfg.Width, cfg.Height)
	return r, nil
}

// Close releases GPU resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for item, m := range r.meshes {
		m.destroy()
		delete(r.meshes, item)
	}
	if r.shadows != nil {
		r.shadows.Destroy()
	}
	if r.offscreen != nil {
		r.offscreen.Destroy()
	}
	r.model.Delete()
	r.depth.Delete()
}

// SetSize sets the logical viewport size.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = width, height
	r.applyViewport()
}

// SetPixelRatio sets the device pixel ratio; non-positive ratios become 1.
func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	r.ratio = ratio
	r.applyViewport()
}

func (r *Renderer) applyViewport() {
	w, h := DrawableSize(r.width, r.height, r.ratio)
	gl.Viewport(0, 0, int32(w), int32(h))
}

// DrawableSize returns the framebuffer size for a logical size and ratio.
func DrawableSize(width, height int, ratio float32) (int, int) {
	w := int(gomath.Round(float64(float32(width) * ratio)))
	h := int(gomath.Round(float64(float32(height) * ratio)))
	return max(w, 1), max(h, 1)
}

// Clear clears the framebuffer to transparent. Hosts call it for frames the
// stage does not render.
func (r *Renderer) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Render draws the scene from the camera.
func (r *Renderer) Render(s *scene.Scene, cam *camera.Perspective) {
	r.drawScene(s, cam)
	r.frames++
}

// Snapshot draws the scene into an offscreen target supersample times the
// drawable size and filters it down to the drawable size.
func (r *Renderer) Snapshot(s *scene.Scene, cam *camera.Perspective, supersample int) (image.Image, error) {
	supersample = max(supersample, 1)
	w, h := DrawableSize(r.width, r.height, r.ratio)

	if r.offscreen == nil {
		fb, err := framebuffer.New(int32(w*supersample), int32(h*supersample))
		if err != nil {
			return nil, fmt.Errorf("snapshot target: %w", err)
		}
		r.offscreen = fb
	} else {
		r.offscreen.Resize(int32(w*supersample), int32(h*supersample))
	}

	restore := r.offscreen.Bind()
	r.drawScene(s, cam)
	restore()

	src := r.offscreen.ReadImage()
	if supersample == 1 {
		return src, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

func (r *Renderer) drawScene(s *scene.Scene, cam *camera.Perspective) {
	items := r.baker.Bake(s)
	for _, item := range items {
		r.upload(item)
	}
	r.lights.Set(s.Lights)

	lightVP := math.Identity()
	shadowLight := int32(-1)
	if caster, ok := s.Lights.ShadowCaster(); ok && r.shadows != nil && len(items) > 0 {
		lightVP = shadow.LightMatrix(caster.Direction(), r.baker.Bounds())
		shadowLight = shadowIndex(s.Lights)
		r.shadowPass(items, lightVP)
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	p := r.model
	p.Use()
	vp := cam.ViewProjection()
	gl.UniformMatrix4fv(p.Uniform("uViewProj"), 1, false, vp.Ptr())
	gl.UniformMatrix4fv(p.Uniform("uLightViewProj"), 1, false, lightVP.Ptr())
	gl.Uniform3f(p.Uniform("uEye"), cam.Position.X, cam.Position.Y, cam.Position.Z)

	count := int32(r.lights.Count)
	gl.Uniform1i(p.Uniform("uLightCount"), count)
	if count > 0 {
		gl.Uniform1iv(p.Uniform("uLightKind"), count, &r.lights.Kinds[0])
		gl.Uniform3fv(p.Uniform("uLightPos"), count, &r.lights.Positions[0])
		gl.Uniform3fv(p.Uniform("uLightColor"), count, &r.lights.Colors[0])
		gl.Uniform4fv(p.Uniform("uLightParams"), count, &r.lights.Params[0])
	}

	gl.Uniform1i(p.Uniform("uShadowLight"), shadowLight)
	gl.Uniform1i(p.Uniform("uShadowMap"), shadowUnit)
	if r.shadows != nil {
		r.shadows.BindTexture(gl.TEXTURE0 + shadowUnit)
	}

	for _, item := range items {
		r.setMaterial(item)
		r.draw(item)
	}

	gl.BindVertexArray(0)
}

func (r *Renderer) shadowPass(items []*scene.DrawItem, lightVP math.Mat4) {
	r.shadows.Begin()
	r.depth.Use()
	gl.UniformMatrix4fv(r.depth.Uniform("uLightViewProj"), 1, false, lightVP.Ptr())
	for _, item := range items {
		if item.CastShadow {
			r.draw(item)
		}
	}
	r.shadows.End()
}

// shadowIndex returns the uniform slot of the shadow-casting light.
func shadowIndex(rig lighting.Rig) int32 {
	for i, l := range rig {
		if i >= lighting.MaxLights {
			break
		}
		if l.Kind == lighting.Directional && l.CastShadow {
			return int32(i)
		}
	}
	return -1
}

func (r *Renderer) setMaterial(item *scene.DrawItem) {
	p := r.model
	m := item.Material
	if m.NeedsUpdate {
		r.log.Debug("material updated", zap.String("material", m.Name), zap.Uint64("version", m.Version()))
		m.NeedsUpdate = false
	}
	gl.Uniform3f(p.Uniform("uAlbedo"), m.Color[0], m.Color[1], m.Color[2])
	gl.Uniform1f(p.Uniform("uRoughness"), m.Roughness)
	gl.Uniform1f(p.Uniform("uMetalness"), m.Metalness)
	gl.Uniform1f(p.Uniform("uShininess"), lighting.Shininess(m.Roughness))

	receive := int32(0)
	if item.ReceiveShadow {
		receive = 1
	}
	gl.Uniform1i(p.Uniform("uReceiveShadow"), receive)

	if m.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

func (r *Renderer) draw(item *scene.DrawItem) {
	m := r.meshes[item]
	if m == nil || m.count == 0 {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
}

// upload streams the baked vertices of item. Index data is static.
func (r *Renderer) upload(item *scene.DrawItem) {
	if len(item.Positions) == 0 || len(item.Indices) == 0 {
		return
	}

	m, ok := r.meshes[item]
	if !ok {
		m = &gpuMesh{}
		gl.GenVertexArrays(1, &m.vao)
		gl.BindVertexArray(m.vao)

		gl.GenBuffers(1, &m.positions)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.positions)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 12, 0)

		gl.GenBuffers(1, &m.normals)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.normals)
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 12, 0)

		gl.GenBuffers(1, &m.indices)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.indices)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(item.Indices)*4, gl.Ptr(item.Indices), gl.STATIC_DRAW)
		m.count = int32(len(item.Indices))

		r.meshes[item] = m
	}

	size := len(item.Positions) * 12
	gl.BindBuffer(gl.ARRAY_BUFFER, m.positions)
	if m.vertices != len(item.Positions) {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(item.Positions), gl.DYNAMIC_DRAW)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(item.Positions))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, m.normals)
	if m.vertices != len(item.Positions) {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(item.Normals), gl.DYNAMIC_DRAW)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(item.Normals))
	}
	m.vertices = len(item.Positions)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (m *gpuMesh) destroy() {
	gl.DeleteVertexArrays(1, &m.vao)
	buffers := []uint32{m.positions, m.normals, m.indices}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
}

// Capture reads the current framebuffer as bottom-up RGBA rows.
func (r *Renderer) Capture() ([]byte, int, int) {
	w, h := DrawableSize(r.width, r.height, r.ratio)
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// Frames returns the number of rendered frames.
func (r *Renderer) Frames() uint64 {
	return r.frames
}
