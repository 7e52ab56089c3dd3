package compositor

import (
	"fmt"

	"github.com/lumen3d/lumen/lumen"

	"github.com/oliverbestmann/webgpu/wgpu"
)

// attachment formats. The pick attachments are plain rgba8 so their
// bytes survive a copy based readback unmodified.
const (
	formatColor        = wgpu.TextureFormatRGBA8UnormSrgb
	formatPick         = wgpu.TextureFormatRGBA8Unorm
	formatHilite       = wgpu.TextureFormatR8Unorm
	formatAccumulation = wgpu.TextureFormatRGBA16Float
	formatRevealage    = wgpu.TextureFormatR16Float
	formatDepth        = wgpu.TextureFormatDepth24PlusStencil8
	formatShadowDepth  = wgpu.TextureFormatDepth32Float
)

// Attachment is one render target texture of the compositor.
type Attachment interface {
	View() *wgpu.TextureView
	Texture() *wgpu.Texture
	Release()
}

// AttachmentFactory creates attachment textures. The compositor never
// talks to the device directly for attachments, which keeps the
// resize logic testable without a GPU.
type AttachmentFactory interface {
	NewAttachment(format wgpu.TextureFormat, width, height uint32, label string) (Attachment, error)
}

// TextureFactory is the AttachmentFactory backed by a real device.
type TextureFactory struct {
	Context *lumen.Context
}

func (f TextureFactory) NewAttachment(format wgpu.TextureFormat, width, height uint32, label string) (Attachment, error) {
	tex, err := lumen.NewTexture(f.Context, lumen.NewTextureOptions{
		Format: format,
		Width:  width,
		Height: height,
		Usage: wgpu.TextureUsageRenderAttachment |
			wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopySrc |
			wgpu.TextureUsageCopyDst,
		Label: label,
	})

	if err != nil {
		return nil, err
	}

	return textureAttachment{tex: tex}, nil
}

type textureAttachment struct {
	tex *lumen.Texture
}

func (a textureAttachment) View() *wgpu.TextureView {
	return a.tex.View()
}

func (a textureAttachment) Texture() *wgpu.Texture {
	return a.tex.ToWGPUTexture()
}

func (a textureAttachment) Release() {
	a.tex.Release()
}

// Attachments is the full set of render targets one compositor frame
// draws into. The set is keyed by its size: Update recreates every
// attachment when the size changes and is a no-op otherwise.
//
// The pick copies exist because the opaque passes sample the pick
// state of earlier geometry while writing their own. After the linear
// and planar passes the pick attachments are copied and the copies
// bound for sampling.
type Attachments struct {
	factory AttachmentFactory

	width, height uint32

	Color          Attachment
	IDLow, IDHigh  Attachment
	DepthAndOrder  Attachment
	Hilite         Attachment
	Classification Attachment

	Accumulation Attachment
	Revealage    Attachment

	Depth Attachment

	IDLowCopy         Attachment
	IDHighCopy        Attachment
	DepthAndOrderCopy Attachment
}

func NewAttachments(factory AttachmentFactory) *Attachments {
	return &Attachments{factory: factory}
}

func (a *Attachments) Width() uint32  { return a.width }
func (a *Attachments) Height() uint32 { return a.height }

// Update sizes the attachment set. Returns true if the attachments
// were (re)created.
func (a *Attachments) Update(width, height uint32) (bool, error) {
	if width == 0 || height == 0 {
		return false, fmt.Errorf("attachments: invalid size %dx%d", width, height)
	}

	if width == a.width && height == a.height {
		return false, nil
	}

	a.Release()

	a.width, a.height = width, height

	create := func(target *Attachment, format wgpu.TextureFormat, label string) error {
		att, err := a.factory.NewAttachment(format, width, height, label)
		if err != nil {
			return fmt.Errorf("create %s attachment: %w", label, err)
		}

		*target = att
		return nil
	}

	steps := []struct {
		target *Attachment
		format wgpu.TextureFormat
		label  string
	}{
		{&a.Color, formatColor, "Compositor.Color"},
		{&a.IDLow, formatPick, "Compositor.IDLow"},
		{&a.IDHigh, formatPick, "Compositor.IDHigh"},
		{&a.DepthAndOrder, formatPick, "Compositor.DepthAndOrder"},
		{&a.Hilite, formatHilite, "Compositor.Hilite"},
		{&a.Classification, formatPick, "Compositor.Classification"},
		{&a.Accumulation, formatAccumulation, "Compositor.Accumulation"},
		{&a.Revealage, formatRevealage, "Compositor.Revealage"},
		{&a.Depth, formatDepth, "Compositor.Depth"},
		{&a.IDLowCopy, formatPick, "Compositor.IDLow.Copy"},
		{&a.IDHighCopy, formatPick, "Compositor.IDHigh.Copy"},
		{&a.DepthAndOrderCopy, formatPick, "Compositor.DepthAndOrder.Copy"},
	}

	for _, step := range steps {
		if err := create(step.target, step.format, step.label); err != nil {
			a.Release()
			return false, err
		}
	}

	return true, nil
}

// CopyPickState snapshots the pick attachments into their copies so
// later passes can sample the state of the geometry drawn so far.
func (a *Attachments) CopyPickState(encoder *wgpu.CommandEncoder) {
	copyAttachment(encoder, a.IDLow, a.IDLowCopy, a.width, a.height)
	copyAttachment(encoder, a.IDHigh, a.IDHighCopy, a.width, a.height)
	copyAttachment(encoder, a.DepthAndOrder, a.DepthAndOrderCopy, a.width, a.height)
}

func copyAttachment(encoder *wgpu.CommandEncoder, src, dst Attachment, width, height uint32) {
	encoder.CopyTextureToTexture(
		&wgpu.TexelCopyTextureInfo{Texture: src.Texture()},
		&wgpu.TexelCopyTextureInfo{Texture: dst.Texture()},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
}

func (a *Attachments) Release() {
	for _, att := range a.all() {
		if att != nil {
			att.Release()
		}
	}

	*a = Attachments{factory: a.factory}
}

func (a *Attachments) all() []Attachment {
	return []Attachment{
		a.Color, a.IDLow, a.IDHigh, a.DepthAndOrder, a.Hilite,
		a.Classification, a.Accumulation, a.Revealage, a.Depth,
		a.IDLowCopy, a.IDHighCopy, a.DepthAndOrderCopy,
	}
}
