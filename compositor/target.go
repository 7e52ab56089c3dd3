package compositor

import (
	"fmt"

	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/pixel"
	"github.com/lumen3d/lumen/render"
)

// Target ties a scene, a render plan and a compositor together. It
// owns the scene graphics handed to it and the GPU resources of one
// rendered view.
//
// A Target is driven by the application loop: change calls update the
// state, DrawFrame renders it. All methods must be called from the
// same goroutine.
type Target struct {
	ctx *lumen.Context

	compositor *SceneCompositor
	shadows    *SolarShadowMap

	plan       *render.RenderPlan
	projection render.Projection

	scene       render.GraphicList
	decorations *render.Decorations
	overrides   *render.FeatureOverrides

	flashed        render.Id64
	flashIntensity float32

	width, height uint32
}

func newTarget(ctx *lumen.Context, width, height uint32) *Target {
	return &Target{
		ctx:        ctx,
		compositor: NewSceneCompositor(ctx, TextureFactory{Context: ctx}),
		shadows:    NewSolarShadowMap(ctx),
		width:      width,
		height:     height,
	}
}

func (t *Target) Width() uint32  { return t.width }
func (t *Target) Height() uint32 { return t.height }

func (t *Target) Compositor() *SceneCompositor {
	return t.compositor
}

func (t *Target) SolarShadows() *SolarShadowMap {
	return t.shadows
}

// ChangeRenderPlan installs a new view snapshot. The plan is
// normalized first: the render mode dictates which edge settings
// apply, and ambient occlusion eligibility is resolved here so the
// passes never re-check it.
func (t *Target) ChangeRenderPlan(plan *render.RenderPlan) {
	normalized := normalizePlan(plan)

	t.plan = normalized
	t.projection = render.ComputeProjection(&normalized.Frustum, normalized.Is3D)

	t.shadows.SetEnabled(normalized.Flags.Shadows && normalized.Is3D)
}

// ChangeFrustum replaces only the frustum of the current plan, for
// camera motion without a full plan rebuild.
func (t *Target) ChangeFrustum(f render.Frustum) {
	if t.plan == nil {
		return
	}

	plan := *t.plan
	plan.Frustum = f
	t.plan = &plan

	t.projection = render.ComputeProjection(&f, plan.Is3D)
}

func (t *Target) Projection() render.Projection {
	return t.projection
}

// ChangeScene replaces the scene graphics. The target owns both the
// old and the new list; the old one is released.
func (t *Target) ChangeScene(scene render.GraphicList) {
	t.scene.Release()
	t.scene = scene
}

// ChangeDecorations replaces the decoration graphics, releasing the
// previous set.
func (t *Target) ChangeDecorations(dec *render.Decorations) {
	if t.decorations != nil {
		t.decorations.Release()
	}

	t.decorations = dec
}

// ChangeFeatureOverrides installs the symbology overrides applied on
// the next frame.
func (t *Target) ChangeFeatureOverrides(overrides *render.FeatureOverrides) {
	t.overrides = overrides
}

// SetFlashed marks one element as flashed. Intensity 0 clears the
// flash.
func (t *Target) SetFlashed(id render.Id64, intensity float32) {
	t.flashed = id
	t.flashIntensity = intensity
}

// SetRenderSize resizes the target. The attachments follow on the
// next frame.
func (t *Target) SetRenderSize(width, height uint32) {
	t.width, t.height = width, height
}

// buildCommands traverses the current scene and decorations into per
// pass command lists.
func (t *Target) buildCommands() *RenderCommands {
	rc := NewRenderCommands(t.plan.Flags, t.overrides, t.projection.View)
	rc.AddScene(t.scene)
	rc.AddDecorations(t.decorations)

	return rc
}

// drawFrame renders the current state into the given output target.
func (t *Target) drawFrame(output *lumen.RenderTarget) error {
	if t.plan == nil {
		return fmt.Errorf("target: no render plan")
	}

	if t.shadows.IsEnabled() {
		if err := t.shadows.Sync(); err != nil {
			return fmt.Errorf("sync solar shadows: %w", err)
		}
	}

	commands := t.buildCommands()

	return t.compositor.Draw(DrawSceneOptions{
		Commands:       commands,
		Plan:           t.plan,
		Projection:     t.projection,
		Overrides:      t.overrides,
		Shadows:        t.shadows,
		Width:          t.width,
		Height:         t.height,
		Flashed:        t.flashed,
		FlashIntensity: t.flashIntensity,
		Output:         output,
	})
}

// ReadPixels renders the scene for picking into attachments sized to
// the requested rectangle and hands the decoded buffer to the
// receiver. On failure, or when the rectangle is empty or reaches
// outside the view, the receiver is called with nil. With
// excludeNonLocatable set, non locatable features are left out of the
// pick buffers.
//
// The view frustum is narrowed to the rectangle first, so geometry
// outside of it is culled by clipping alone.
func (t *Target) ReadPixels(rect lumen.Rectangle2u, selector pixel.Selector, excludeNonLocatable bool, receiver func(*pixel.Buffer)) error {
	if t.plan == nil || rect.IsEmpty() || selector == pixel.SelectNone {
		receiver(nil)
		return fmt.Errorf("target: nothing to read")
	}

	view := lumen.RectangleFromSize(glm.Vec2u{}, glm.Vec2u{t.width, t.height})
	if !view.Contains(rect) {
		receiver(nil)
		return fmt.Errorf("target: read rectangle %v outside of view %dx%d", rect, t.width, t.height)
	}

	w, h := rect.Width(), rect.Height()

	// narrow the frustum to the read rectangle
	xLo := float64(rect.Min[0]) / float64(t.width)
	xHi := float64(rect.Min[0]+w) / float64(t.width)
	yLo := float64(rect.Min[1]) / float64(t.height)
	yHi := float64(rect.Min[1]+h) / float64(t.height)

	subFrustum := t.plan.Frustum.Interpolate(xLo, yLo, xHi, yHi)
	projection := render.ComputeProjection(&subFrustum, t.plan.Is3D)

	commands := NewRenderCommands(t.plan.Flags, t.overrides, projection.View)
	commands.AddScene(t.scene)
	if t.decorations != nil {
		for _, g := range t.decorations.World {
			commands.addGraphic(g, PassNone)
		}
	}

	err := t.compositor.DrawForReadPixels(DrawSceneOptions{
		Commands:            commands,
		Plan:                t.plan,
		Projection:          projection,
		Overrides:           t.overrides,
		Width:               w,
		Height:              h,
		ExcludeNonLocatable: excludeNonLocatable,
	})

	if err != nil {
		receiver(nil)
		return err
	}

	region := lumen.RectangleFromSize(glm.Vec2u{}, glm.Vec2u{w, h})

	var elemLow, elemHigh, depthOrder []byte

	if selector&pixel.SelectFeature != 0 {
		if elemLow, elemHigh, err = t.compositor.ReadElementIDs(region); err != nil {
			receiver(nil)
			return err
		}
	}

	if selector&pixel.SelectGeometryAndDistance != 0 {
		if depthOrder, err = t.compositor.ReadDepthAndOrder(region); err != nil {
			receiver(nil)
			return err
		}
	}

	receiver(pixel.NewBuffer(rect, selector, elemLow, elemHigh, depthOrder))
	return nil
}

// ReadImage reads the rendered color image of a region. FlipY flips
// the rows for consumers expecting a bottom left origin. With a fully
// transparent background color, background pixels collapse to
// transparent black so the image composes cleanly over other content;
// a region holding nothing but background yields nil.
func (t *Target) ReadImage(region lumen.Rectangle2u, flipY bool) ([]byte, error) {
	tex := lumen.WrapTexture(t.compositor.Attachments().Color.Texture(), nil)

	data, err := lumen.ReadTexturePixels(t.ctx, tex, lumen.ReadTextureOptions{
		Region: region,
		FlipY:  flipY,
	})

	if err != nil {
		return nil, err
	}

	if t.plan != nil && t.plan.BackgroundColor.Alpha() == 0 {
		data = collapseTransparent(data)
	}

	return data, nil
}

// collapseTransparent zeroes the color of fully transparent rgba
// pixels. A buffer holding only transparent pixels collapses to nil.
func collapseTransparent(data []byte) []byte {
	empty := true

	for i := 0; i+3 < len(data); i += 4 {
		if data[i+3] == 0 {
			data[i], data[i+1], data[i+2] = 0, 0, 0
		} else {
			empty = false
		}
	}

	if empty {
		return nil
	}

	return data
}

func (t *Target) Release() {
	t.scene.Release()
	t.scene = nil

	if t.decorations != nil {
		t.decorations.Release()
		t.decorations = nil
	}

	t.shadows.Release()
	t.compositor.Release()
}

// normalizePlan resolves the interactions between render mode, edge
// settings and effect eligibility into a plan the passes can consume
// without re-deriving them.
func normalizePlan(plan *render.RenderPlan) *render.RenderPlan {
	p := *plan

	switch p.Flags.RenderMode {
	case render.Wireframe:
		// everything renders as lines already, edge overrides and the
		// extra edge passes do not apply
		p.Flags.VisibleEdges = false
		p.Flags.HiddenEdges = false
		p.HiddenLine = nil

	case render.HiddenLine, render.SolidFill:
		p.Flags.VisibleEdges = true

		hl := render.HiddenLineParams{}
		if p.HiddenLine != nil {
			hl = *p.HiddenLine
		}

		// solid fill renders un-overridden edges white
		if p.Flags.RenderMode == render.SolidFill && hl.Visible.OverrideColor == nil {
			white := lumen.ColorLinearRGBA(1, 1, 1, 1)
			hl.Visible.OverrideColor = &white
		}

		p.HiddenLine = &hl
	}

	p.Flags.AmbientOcclusion = p.Flags.AmbientOcclusion &&
		p.Flags.RenderMode == render.SmoothShade &&
		p.Is3D &&
		p.AO != nil

	return &p
}
