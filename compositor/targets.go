package compositor

import (
	"fmt"
	"log/slog"

	"github.com/oliverbestmann/webgpu/wgpu"

	"github.com/lumen3d/lumen/lumen"
)

// OnScreenTarget renders into the surface of the context. Each
// DrawFrame acquires the current surface texture, renders the scene
// into it and presents.
type OnScreenTarget struct {
	*Target

	surfaceConfig *wgpu.SurfaceConfiguration
}

func NewOnScreenTarget(ctx *lumen.Context, width, height uint32) (*OnScreenTarget, error) {
	if ctx.Surface == nil {
		return nil, fmt.Errorf("target: context has no surface")
	}

	caps := ctx.Surface.GetCapabilities(ctx.Adapter)
	slog.Info("Available surface formats", slog.Any("formats", caps.Formats))

	t := &OnScreenTarget{
		Target: newTarget(ctx, width, height),

		surfaceConfig: &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      wgpu.TextureFormatBGRA8Unorm,
			PresentMode: wgpu.PresentModeFifo,
			AlphaMode:   caps.AlphaModes[0],

			// try to reduce input latency
			DesiredMaximumFrameLatency: 1,
		},
	}

	t.configureSurface(width, height)

	return t, nil
}

func (t *OnScreenTarget) configureSurface(width, height uint32) {
	t.surfaceConfig.Width = width
	t.surfaceConfig.Height = height
	t.ctx.Surface.Configure(t.ctx.Device, t.surfaceConfig)
}

// SetRenderSize resizes the target and reconfigures the surface to
// match.
func (t *OnScreenTarget) SetRenderSize(width, height uint32) {
	t.Target.SetRenderSize(width, height)
	t.configureSurface(width, height)
}

// DrawFrame renders the current scene into the surface and presents
// it.
func (t *OnScreenTarget) DrawFrame() error {
	surface, err := t.ctx.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}

	defer func() {
		if surface != nil {
			surface.Release()
		}
	}()

	surfaceView, err := surface.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create surface view: %w", err)
	}

	defer surfaceView.Release()

	output := lumen.RenderTarget{
		View:   surfaceView,
		Format: t.surfaceConfig.Format,
		Width:  surface.GetWidth(),
		Height: surface.GetHeight(),
	}

	if err := t.drawFrame(&output); err != nil {
		return err
	}

	t.ctx.Surface.Present()

	// we do not need to release the screen if present was successful
	surface = nil

	return nil
}

// OffScreenTarget renders into a texture it owns. The result can be
// read back with ReadImage or sampled by other passes.
type OffScreenTarget struct {
	*Target

	color *lumen.Texture
}

func NewOffScreenTarget(ctx *lumen.Context, width, height uint32) (*OffScreenTarget, error) {
	t := &OffScreenTarget{
		Target: newTarget(ctx, width, height),
	}

	if err := t.createColor(width, height); err != nil {
		t.Target.Release()
		return nil, err
	}

	return t, nil
}

func (t *OffScreenTarget) createColor(width, height uint32) error {
	color, err := lumen.NewTexture(t.ctx, lumen.NewTextureOptions{
		Format: wgpu.TextureFormatRGBA8Unorm,
		Width:  width,
		Height: height,
		Usage: wgpu.TextureUsageRenderAttachment |
			wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopySrc,
		Label: "Target.Color",
	})

	if err != nil {
		return fmt.Errorf("create offscreen color texture: %w", err)
	}

	t.color = color
	return nil
}

// Texture returns the color texture the target renders into.
func (t *OffScreenTarget) Texture() *lumen.Texture {
	return t.color
}

// SetRenderSize resizes the target and recreates its color texture.
func (t *OffScreenTarget) SetRenderSize(width, height uint32) error {
	if width == t.color.Width() && height == t.color.Height() {
		return nil
	}

	t.Target.SetRenderSize(width, height)

	t.color.Release()
	t.color = nil

	return t.createColor(width, height)
}

// DrawFrame renders the current scene into the color texture.
func (t *OffScreenTarget) DrawFrame() error {
	return t.drawFrame(t.color.AsRenderTarget())
}

func (t *OffScreenTarget) Release() {
	if t.color != nil {
		t.color.Release()
		t.color = nil
	}

	t.Target.Release()
}
