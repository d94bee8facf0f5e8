// Package shadow renders directional-light depth maps.
package shadow

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// DefaultSize is used when the configured size is not positive.
const DefaultSize = 2048

// Map is a depth-only framebuffer sampled with sampler2DShadow.
type Map struct {
	FBO          uint32
	DepthTexture uint32
	Size         int32
	prevFBO      int32
	prevViewport [4]int32
}

// NewMap allocates a square depth map.
func NewMap(size int32) (*Map, error) {
	if size <= 0 {
		size = DefaultSize
	}
	m := &Map{Size: size}

	gl.GenFramebuffers(1, &m.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, m.FBO)

	gl.GenTextures(1, &m.DepthTexture)
	gl.BindTexture(gl.TEXTURE_2D, m.DepthTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, size, size, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	// Outside the map everything is lit.
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, m.DepthTexture, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		m.Destroy()
		return nil, fmt.Errorf("shadow framebuffer incomplete: 0x%x", status)
	}
	return m, nil
}

// Begin binds the map for the depth pass.
func (m *Map) Begin() {
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &m.prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &m.prevViewport[0])
	gl.BindFramebuffer(gl.FRAMEBUFFER, m.FBO)
	gl.Viewport(0, 0, m.Size, m.Size)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	// Front-face culling against acne.
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)
}

// End restores the previous framebuffer and viewport.
func (m *Map) End() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(m.prevFBO))
	gl.Viewport(m.prevViewport[0], m.prevViewport[1], m.prevViewport[2], m.prevViewport[3])
	gl.CullFace(gl.BACK)
	gl.Disable(gl.CULL_FACE)
}

// BindTexture binds the depth texture to a texture unit.
func (m *Map) BindTexture(unit uint32) {
	gl.ActiveTexture(unit)
	gl.BindTexture(gl.TEXTURE_2D, m.DepthTexture)
}

// Destroy releases the GPU resources.
func (m *Map) Destroy() {
	if m.FBO != 0 {
		gl.DeleteFramebuffers(1, &m.FBO)
		m.FBO = 0
	}
	if m.DepthTexture != 0 {
		gl.DeleteTextures(1, &m.DepthTexture)
		m.DepthTexture = 0
	}
}
