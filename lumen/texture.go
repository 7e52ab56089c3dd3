package lumen

import (
	"github.com/lumen3d/lumen/glm"
	"github.com/oliverbestmann/webgpu/wgpu"
)

// Texture wraps a wgpu.Texture and an identity wgpu.TextureView.
type Texture struct {
	texture     *wgpu.Texture
	textureView *wgpu.TextureView

	// equal to texture.GetFormat()
	format wgpu.TextureFormat

	size glm.Vec2u
}

type NewTextureOptions struct {
	Format wgpu.TextureFormat
	Width  uint32
	Height uint32

	// Usage of the texture. Defaults to binding, attachment and
	// both copy directions if zero.
	Usage wgpu.TextureUsage

	Label string
}

func NewTexture(ctx *Context, opts NewTextureOptions) (*Texture, error) {
	if opts.Usage == 0 {
		opts.Usage = wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageRenderAttachment |
			wgpu.TextureUsageCopyDst |
			wgpu.TextureUsageCopySrc
	}

	desc := &wgpu.TextureDescriptor{
		Label:         opts.Label,
		Format:        opts.Format,
		SampleCount:   1,
		MipLevelCount: 1,

		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              opts.Width,
			Height:             opts.Height,
			DepthOrArrayLayers: 1,
		},

		Usage: opts.Usage,
	}

	return NewTextureFromDesc(ctx, desc)
}

// NewTextureFromDesc gives you full control and creates a texture
// directly from a texture descriptor.
func NewTextureFromDesc(ctx *Context, desc *wgpu.TextureDescriptor) (*Texture, error) {
	texture, err := ctx.Device.CreateTexture(desc)
	if err != nil {
		return nil, err
	}

	textureView, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()

		return nil, err
	}

	return &Texture{
		texture:     texture,
		textureView: textureView,
		format:      desc.Format,
		size:        glm.Vec2u{desc.Size.Width, desc.Size.Height},
	}, nil
}

// WrapTexture creates a Texture from an existing wgpu.Texture and
// wgpu.TextureView, e.g. the current surface texture. The wrapped
// handles stay owned by the caller.
func WrapTexture(texture *wgpu.Texture, textureView *wgpu.TextureView) *Texture {
	return &Texture{
		texture:     texture,
		textureView: textureView,
		format:      texture.GetFormat(),
		size:        glm.Vec2u{texture.GetWidth(), texture.GetHeight()},
	}
}

func (t *Texture) Width() uint32 {
	return t.size[0]
}

func (t *Texture) Height() uint32 {
	return t.size[1]
}

func (t *Texture) Size() glm.Vec2u {
	return t.size
}

func (t *Texture) Format() wgpu.TextureFormat {
	return t.format
}

func (t *Texture) View() *wgpu.TextureView {
	return t.textureView
}

func (t *Texture) ToWGPUTexture() *wgpu.Texture {
	return t.texture
}

func (t *Texture) AsRenderTarget() *RenderTarget {
	return &RenderTarget{
		View:   t.textureView,
		Format: t.format,
		Width:  t.Width(),
		Height: t.Height(),
	}
}

// Release releases the texture and its view. You must be sure to not
// use the texture after calling release.
func (t *Texture) Release() {
	if t.textureView != nil {
		t.textureView.Release()
		t.textureView = nil
	}

	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
