// Command lumen-view renders a small procedurally generated town on a
// noise terrain. It exists to exercise the full pass pipeline against
// a live surface: opaque and translucent geometry, coplanar layers,
// clipping, picking and the compositing steps.
//
// Controls: drag with the left mouse button to orbit, scroll to zoom.
// Click an element to hilite it, M toggles monochrome, R cycles the
// render mode, C toggles the clip volume, T toggles transparency.
package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/lumen3d/lumen/compositor"
	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/pixel"
	"github.com/lumen3d/lumen/render"
	"github.com/lumen3d/lumen/surface"
)

const (
	windowWidth  = 1280
	windowHeight = 800

	terrainSize  = 80.0
	terrainCells = 64
)

func main() {
	if err := run(); err != nil {
		slog.Error("Viewer failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	win, err := surface.NewWindow(windowWidth, windowHeight, "Lumen Viewer")
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}

	defer win.Terminate()

	ctx, err := lumen.New(win.SurfaceDescriptor())
	if err != nil {
		return fmt.Errorf("initializing wgpu: %w", err)
	}

	defer ctx.Release()

	width, height := win.GetSize()

	target, err := compositor.NewOnScreenTarget(ctx, width, height)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}

	defer target.Release()

	viewer, err := newViewer(ctx, target)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	return win.Run(func(inputState surface.UpdateInputState) error {
		input := inputState()

		if w, h := win.GetSize(); w != target.Width() || h != target.Height() {
			target.SetRenderSize(w, h)
		}

		viewer.update(input)

		return target.DrawFrame()
	})
}

type viewer struct {
	target    *compositor.OnScreenTarget
	flags     render.ViewFlags
	overrides *render.FeatureOverrides

	clip       *render.ClipVolume
	clipActive bool

	// orbit camera state
	yaw, pitch, distance float64

	picked render.Id64
}

func newViewer(ctx *lumen.Context, target *compositor.OnScreenTarget) (*viewer, error) {
	bundle, err := buildScene(ctx)
	if err != nil {
		return nil, err
	}

	v := &viewer{
		target:    target,
		overrides: bundle.Overrides,

		flags: render.ViewFlags{
			RenderMode:   render.SmoothShade,
			Transparency: true,
			Lighting:     true,
		},

		clip: &render.ClipVolume{
			Outline: []glm.Vec2d{
				{-25, -25}, {25, -25}, {25, 25}, {-25, 25},
			},
			ZLow:  -20,
			ZHigh: 40,
		},

		yaw:      0.8,
		pitch:    0.6,
		distance: 90,
	}

	target.ChangeScene(bundle.Scene)
	target.ChangeDecorations(bundle.Decorations)
	target.ChangeFeatureOverrides(bundle.Overrides)
	target.ChangeRenderPlan(v.plan())

	return v, nil
}

func (v *viewer) update(input surface.InputState) {
	planDirty := false

	if input.Mouse.Pressed[surface.MouseButtonLeft] {
		v.yaw -= float64(input.Mouse.DeltaX) * 0.01
		v.pitch += float64(input.Mouse.DeltaY) * 0.01
		v.pitch = min(max(v.pitch, 0.05), 1.5)
	}

	if input.Mouse.Scroll != 0 {
		v.distance *= math.Pow(0.9, float64(input.Mouse.Scroll))
		v.distance = min(max(v.distance, 10), 400)
	}

	if input.Keys.JustPressed[surface.KeyM] {
		v.flags.Monochrome = !v.flags.Monochrome
		planDirty = true
	}

	if input.Keys.JustPressed[surface.KeyT] {
		v.flags.Transparency = !v.flags.Transparency
		planDirty = true
	}

	if input.Keys.JustPressed[surface.KeyC] {
		v.clipActive = !v.clipActive
		v.flags.ClipVolume = v.clipActive
		planDirty = true
	}

	if input.Keys.JustPressed[surface.KeyR] {
		v.flags.RenderMode = (v.flags.RenderMode + 1) % 4
		planDirty = true

		slog.Info("Render mode changed", slog.Int("mode", int(v.flags.RenderMode)))
	}

	if input.Mouse.JustPressed[surface.MouseButtonLeft] {
		v.pick(uint32(input.Mouse.CursorX), uint32(input.Mouse.CursorY))
	}

	if planDirty {
		v.target.ChangeRenderPlan(v.plan())
	} else {
		v.target.ChangeFrustum(v.frustum())
	}
}

func (v *viewer) frustum() render.Frustum {
	eye := glm.Vec3d{
		v.distance * math.Cos(v.pitch) * math.Sin(v.yaw),
		v.distance * math.Cos(v.pitch) * math.Cos(v.yaw),
		v.distance * math.Sin(v.pitch),
	}

	aspect := float64(v.target.Width()) / float64(v.target.Height())

	return render.FrustumFromCamera(
		eye, glm.Vec3d{}, glm.Vec3d{0, 0, 1},
		math.Pi/4, aspect, 0.5, 500,
	)
}

func (v *viewer) plan() *render.RenderPlan {
	plan := &render.RenderPlan{
		Is3D:    true,
		Flags:   v.flags,
		Frustum: v.frustum(),

		BackgroundColor: lumen.ColorSRGBA(0.35, 0.55, 0.8, 1),
		MonochromeColor: lumen.ColorLinearRGBA(0.85, 0.85, 0.85, 1),

		Hilite: render.HiliteSettings{
			Color:        lumen.ColorSRGBA(0.2, 0.7, 1, 1),
			VisibleRatio: 0.25,
			HiddenRatio:  0,
		},
	}

	if v.clipActive {
		plan.Clip = v.clip
	}

	return plan
}

// pick reads the element under the cursor and hilites it.
func (v *viewer) pick(x, y uint32) {
	rect := lumen.RectangleFromXYWH(x, y, 1, 1)

	err := v.target.ReadPixels(rect, pixel.SelectAll, false, func(buf *pixel.Buffer) {
		if buf == nil {
			return
		}

		data := buf.GetPixel(x, y)
		if !data.Element.IsValid() {
			return
		}

		slog.Info("Picked element",
			slog.String("element", data.Element.String()),
			slog.Float64("distance", data.DistanceFraction),
			slog.Int("type", int(data.Type)))

		if v.picked.IsValid() {
			v.overrides.Unhilite(v.picked)
		}

		v.picked = data.Element
		v.overrides.Hilite(v.picked)
		v.target.ChangeFeatureOverrides(v.overrides)
	})

	if err != nil {
		slog.Warn("Pick failed", slog.Any("error", err))
	}
}
