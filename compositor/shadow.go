package compositor

import (
	"fmt"

	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/lumen"

	"github.com/oliverbestmann/webgpu/wgpu"
)

const shadowMapSize = 2048

// SolarShadowSettings styles the solar shadow pass.
type SolarShadowSettings struct {
	// Direction the sunlight travels, in world space. Does not need
	// to be normalized.
	Direction glm.Vec3d

	Color lumen.Color
	Bias  float32
}

type shadowUniforms struct {
	LightViewProj [16]float32
	Color         [4]float32

	// x: depth bias, y: 1 while shadows apply
	Params [4]float32
}

// SolarShadowMap renders the scene depth from the sun's point of view
// into a dedicated depth texture before the main passes run. The
// opaque pass samples the map through the uniform buffer's light
// matrix; the buffer re-uploads only when the settings or the scene
// volume changed.
type SolarShadowMap struct {
	ctx *lumen.Context

	settings Versioned[SolarShadowSettings]
	observer SyncObserver

	// world space box the shadow frustum must cover
	volumeLow, volumeHigh glm.Vec3d

	depth    *lumen.Texture
	uniforms *wgpu.Buffer

	enabled bool
}

func NewSolarShadowMap(ctx *lumen.Context) *SolarShadowMap {
	return &SolarShadowMap{ctx: ctx}
}

func (m *SolarShadowMap) IsEnabled() bool {
	return m.enabled
}

func (m *SolarShadowMap) SetEnabled(enabled bool) {
	m.enabled = enabled
}

func (m *SolarShadowMap) UpdateSettings(settings SolarShadowSettings) {
	m.settings.Set(settings)
}

func (m *SolarShadowMap) Settings() SolarShadowSettings {
	return m.settings.Value()
}

// SetSceneVolume sets the world space box the shadow frustum covers.
func (m *SolarShadowMap) SetSceneVolume(low, high glm.Vec3d) {
	if low == m.volumeLow && high == m.volumeHigh {
		return
	}

	m.volumeLow, m.volumeHigh = low, high
	m.settings.Update(func(*SolarShadowSettings) {})
}

// DepthView returns the shadow depth texture view, creating the
// texture on first use.
func (m *SolarShadowMap) DepthView() (*wgpu.TextureView, error) {
	if m.depth == nil {
		depth, err := lumen.NewTexture(m.ctx, lumen.NewTextureOptions{
			Format: formatShadowDepth,
			Width:  shadowMapSize,
			Height: shadowMapSize,
			Usage:  wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
			Label:  "Shadow.Depth",
		})

		if err != nil {
			return nil, fmt.Errorf("create shadow depth texture: %w", err)
		}

		m.depth = depth
	}

	return m.depth.View(), nil
}

// Sync re-uploads the shadow uniforms if settings or scene volume
// changed since the last call.
func (m *SolarShadowMap) Sync() error {
	if !m.observer.NeedsSync(m.settings.Token()) && m.uniforms != nil {
		return nil
	}

	settings := m.settings.Value()
	uniforms := shadowUniforms{
		LightViewProj: m.lightViewProj(settings).ToWGPU(),
		Color:         settings.Color.ToWGPU(),
		Params:        [4]float32{settings.Bias, 1, 0, 0},
	}

	values := lumen.AsByteSlice(&uniforms)

	if m.uniforms == nil {
		buf, err := m.ctx.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Shadow.Uniforms",
			Size:  uint64(len(values)),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})

		if err != nil {
			return fmt.Errorf("create shadow uniform buffer: %w", err)
		}

		m.uniforms = buf
	}

	if err := m.ctx.Queue.WriteBuffer(m.uniforms, 0, values); err != nil {
		return fmt.Errorf("update shadow uniform buffer: %w", err)
	}

	return nil
}

// UniformBuffer returns the shadow uniform buffer. Valid after Sync.
func (m *SolarShadowMap) UniformBuffer() *wgpu.Buffer {
	return m.uniforms
}

// LightViewProj is the matrix that maps world space into the shadow
// map's clip space under the current settings.
func (m *SolarShadowMap) LightViewProj() glm.Mat4d {
	return m.lightViewProj(m.settings.Value())
}

// lightViewProj builds an orthographic projection that covers the
// scene volume from the sun's direction.
func (m *SolarShadowMap) lightViewProj(settings SolarShadowSettings) glm.Mat4d {
	dir := settings.Direction
	if dir.Length() == 0 {
		dir = glm.Vec3d{0, 0, -1}
	}
	dir = dir.Normalize()

	center := m.volumeLow.Add(m.volumeHigh).MulScalar(0.5)
	radius := m.volumeHigh.Sub(m.volumeLow).Length() * 0.5
	if radius == 0 {
		radius = 1
	}

	eye := center.Sub(dir.MulScalar(radius))

	up := glm.Vec3d{0, 0, 1}
	if dir[0] == 0 && dir[1] == 0 {
		up = glm.Vec3d{0, 1, 0}
	}

	view := glm.LookAt(eye, center, up)
	proj := glm.Ortho(-radius, radius, -radius, radius, 0, 2*radius)

	return proj.Mul(view)
}

func (m *SolarShadowMap) Release() {
	if m.depth != nil {
		m.depth.Release()
		m.depth = nil
	}

	if m.uniforms != nil {
		m.uniforms.Release()
		m.uniforms = nil
	}
}
