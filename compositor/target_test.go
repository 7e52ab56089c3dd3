package compositor

import (
	"testing"

	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/pixel"
	"github.com/lumen3d/lumen/render"
)

func TestNormalizePlanWireframe(t *testing.T) {
	plan := &render.RenderPlan{
		Flags: render.ViewFlags{
			RenderMode:   render.Wireframe,
			VisibleEdges: true,
			HiddenEdges:  true,
		},
		HiddenLine: &render.HiddenLineParams{},
	}

	got := normalizePlan(plan)

	if got.Flags.VisibleEdges || got.Flags.HiddenEdges {
		t.Errorf("wireframe keeps edge flags: %+v", got.Flags)
	}

	if got.HiddenLine != nil {
		t.Error("wireframe keeps hidden line params")
	}

	// the input plan stays untouched
	if !plan.Flags.VisibleEdges || plan.HiddenLine == nil {
		t.Error("normalizePlan mutated its input")
	}
}

func TestNormalizePlanHiddenLine(t *testing.T) {
	plan := &render.RenderPlan{
		Flags: render.ViewFlags{RenderMode: render.HiddenLine},
	}

	got := normalizePlan(plan)

	if !got.Flags.VisibleEdges {
		t.Error("hidden line mode must force visible edges")
	}

	if got.HiddenLine == nil {
		t.Fatal("hidden line mode without edge params")
	}

	if got.HiddenLine.Visible.OverrideColor != nil {
		t.Error("hidden line mode invented an edge color")
	}
}

func TestNormalizePlanSolidFill(t *testing.T) {
	t.Run("defaults edges to white", func(t *testing.T) {
		plan := &render.RenderPlan{
			Flags: render.ViewFlags{RenderMode: render.SolidFill},
		}

		got := normalizePlan(plan)

		if got.HiddenLine == nil || got.HiddenLine.Visible.OverrideColor == nil {
			t.Fatal("solid fill edges have no override color")
		}

		if *got.HiddenLine.Visible.OverrideColor != lumen.ColorLinearRGBA(1, 1, 1, 1) {
			t.Errorf("solid fill edge color = %v, want white", *got.HiddenLine.Visible.OverrideColor)
		}
	})

	t.Run("keeps explicit edge color", func(t *testing.T) {
		red := lumen.ColorLinearRGBA(1, 0, 0, 1)

		plan := &render.RenderPlan{
			Flags: render.ViewFlags{RenderMode: render.SolidFill},
			HiddenLine: &render.HiddenLineParams{
				Visible: render.EdgeSettings{OverrideColor: &red},
			},
		}

		got := normalizePlan(plan)

		if got.HiddenLine.Visible.OverrideColor != &red {
			t.Error("explicit edge color replaced")
		}
	})
}

func TestNormalizePlanAmbientOcclusion(t *testing.T) {
	ao := &render.AmbientOcclusionSettings{Intensity: 1}

	tests := []struct {
		name string
		mode render.RenderMode
		is3D bool
		ao   *render.AmbientOcclusionSettings
		want bool
	}{
		{name: "eligible", mode: render.SmoothShade, is3D: true, ao: ao, want: true},
		{name: "wrong mode", mode: render.SolidFill, is3D: true, ao: ao, want: false},
		{name: "2d view", mode: render.SmoothShade, is3D: false, ao: ao, want: false},
		{name: "no settings", mode: render.SmoothShade, is3D: true, ao: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &render.RenderPlan{
				Is3D: tt.is3D,
				Flags: render.ViewFlags{
					RenderMode:       tt.mode,
					AmbientOcclusion: true,
				},
				AO: tt.ao,
			}

			if got := normalizePlan(plan); got.Flags.AmbientOcclusion != tt.want {
				t.Errorf("AmbientOcclusion = %v, want %v", got.Flags.AmbientOcclusion, tt.want)
			}
		})
	}
}

func TestNormalizePlanSmoothShadeKeepsEdgeFlags(t *testing.T) {
	plan := &render.RenderPlan{
		Flags: render.ViewFlags{
			RenderMode:   render.SmoothShade,
			VisibleEdges: true,
		},
	}

	got := normalizePlan(plan)

	if !got.Flags.VisibleEdges {
		t.Error("smooth shade dropped the visible edges flag")
	}

	if got.HiddenLine != nil {
		t.Error("smooth shade invented hidden line params")
	}
}

func TestReadPixelsRejectsOutsideRect(t *testing.T) {
	target := newTarget(nil, 64, 64)
	target.ChangeRenderPlan(testPlan())

	rects := []lumen.Rectangle2u{
		lumen.RectangleFromXYWH[uint32](60, 60, 10, 10),
		lumen.RectangleFromXYWH[uint32](0, 0, 65, 64),
		lumen.RectangleFromXYWH[uint32](200, 0, 1, 1),
	}

	for _, rect := range rects {
		called := false
		err := target.ReadPixels(rect, pixel.SelectAll, false, func(b *pixel.Buffer) {
			called = true
			if b != nil {
				t.Errorf("receiver got a buffer for rect %v outside of the view", rect)
			}
		})

		if err == nil {
			t.Errorf("rect %v outside of the view accepted", rect)
		}

		if !called {
			t.Errorf("receiver not called for rect %v", rect)
		}
	}
}

func TestCollapseTransparent(t *testing.T) {
	t.Run("background only collapses to nil", func(t *testing.T) {
		data := []byte{9, 9, 9, 0, 7, 7, 7, 0}

		if got := collapseTransparent(data); got != nil {
			t.Errorf("fully transparent image = %v, want nil", got)
		}
	})

	t.Run("zeroes transparent pixels only", func(t *testing.T) {
		data := []byte{9, 9, 9, 0, 1, 2, 3, 255}

		got := collapseTransparent(data)

		want := []byte{0, 0, 0, 0, 1, 2, 3, 255}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("collapsed image = %v, want %v", got, want)
			}
		}
	})
}
