package compositor

import (
	"testing"

	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/render"
)

func TestBranchStackInheritsState(t *testing.T) {
	baseFlags := render.ViewFlags{Transparency: true}
	baseOverrides := render.NewFeatureOverrides()

	s := NewBranchStack(baseFlags, baseOverrides)

	if s.Flags() != baseFlags {
		t.Errorf("base flags = %+v", s.Flags())
	}

	// a branch without options changes nothing
	s.PushBranch(&Branch{})

	if s.Flags() != baseFlags || s.Overrides() != baseOverrides {
		t.Error("empty branch altered inherited state")
	}

	if s.Transform() != glm.IdentityMat4[float64]() {
		t.Errorf("empty branch altered transform: %v", s.Transform())
	}

	s.Pop()
}

func TestBranchStackOverrides(t *testing.T) {
	s := NewBranchStack(render.ViewFlags{Transparency: true}, nil)

	monochrome := render.ViewFlags{Monochrome: true}
	clip := &render.ClipVolume{ZLow: -1, ZHigh: 1}

	s.PushBranch(&Branch{Opts: render.BranchOptions{
		FlagOverrides: &monochrome,
		Clip:          clip,
	}})

	if !s.Flags().Monochrome || s.Flags().Transparency {
		t.Errorf("flag overrides not applied: %+v", s.Flags())
	}

	if s.Clip() != clip {
		t.Error("clip not applied")
	}

	// nesting inherits the override
	s.PushBranch(&Branch{})
	if !s.Flags().Monochrome || s.Clip() != clip {
		t.Error("nested branch lost inherited overrides")
	}

	s.Pop()
	s.Pop()

	// back at the base state
	if s.Flags().Monochrome || s.Clip() != nil {
		t.Error("pop did not restore the base state")
	}
}

func TestBranchStackTransformsCompose(t *testing.T) {
	s := NewBranchStack(render.ViewFlags{}, nil)

	s.PushBranch(&Branch{Opts: render.BranchOptions{
		Transform: glm.TranslationMat4(1.0, 0, 0),
	}})

	s.PushBranch(&Branch{Opts: render.BranchOptions{
		Transform: glm.TranslationMat4(0.0, 2, 0),
	}})

	got := s.Transform().TransformPoint(glm.Vec3d{})
	want := glm.Vec3d{1, 2, 0}
	if got.Sub(want).Length() > 1e-12 {
		t.Errorf("composed transform maps origin to %v, want %v", got, want)
	}

	s.Pop()

	got = s.Transform().TransformPoint(glm.Vec3d{})
	want = glm.Vec3d{1, 0, 0}
	if got.Sub(want).Length() > 1e-12 {
		t.Errorf("transform after pop maps origin to %v, want %v", got, want)
	}
}

func TestBranchStackDepth(t *testing.T) {
	s := NewBranchStack(render.ViewFlags{}, nil)

	if s.Depth() != 0 {
		t.Fatalf("fresh stack depth = %d", s.Depth())
	}

	s.PushBranch(&Branch{})
	s.PushBranch(&Branch{})

	if s.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", s.Depth())
	}

	s.Pop()
	s.Pop()

	if s.Depth() != 0 {
		t.Fatalf("depth after pops = %d, want 0", s.Depth())
	}
}

func TestBranchStackUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("pop on empty stack did not panic")
		}
	}()

	NewBranchStack(render.ViewFlags{}, nil).Pop()
}

func TestBatchStateFeature(t *testing.T) {
	var s BatchState

	if f := s.Feature(); f.Element.IsValid() {
		t.Errorf("feature outside batch = %+v, want invalid", f)
	}

	outer := &Batch{Feature: render.Feature{Element: render.Id64(1), Locatable: true}}
	inner := &Batch{Feature: render.Feature{Element: render.Id64(2), Locatable: true}}

	s.Push(outer)
	s.Push(inner)

	if f := s.Feature(); f.Element != render.Id64(2) {
		t.Errorf("feature = %s, want innermost batch", f.Element)
	}

	s.Pop()

	if f := s.Feature(); f.Element != render.Id64(1) {
		t.Errorf("feature after pop = %s, want outer batch", f.Element)
	}

	s.Reset()

	if s.Current() != nil {
		t.Error("Reset left a batch behind")
	}
}

func TestBatchStateUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("pop on empty batch state did not panic")
		}
	}()

	var s BatchState
	s.Pop()
}
