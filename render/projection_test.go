package render

import (
	"math"
	"testing"

	"github.com/lumen3d/lumen/glm"
)

func TestComputeProjection2D(t *testing.T) {
	f := FrustumFromOrtho(-10, 10, -5, 5, -1, 1)

	p := ComputeProjection(&f, false)

	if p.Type != TwoDee {
		t.Fatalf("Type = %d, want TwoDee", p.Type)
	}

	if p.Near != 0 || p.Far != 2*FrustumDepth2D {
		t.Errorf("depth range = [%v, %v], want [0, %v]", p.Near, p.Far, 2*FrustumDepth2D)
	}

	if p.Left != -10 || p.Right != 10 || p.Bottom != -5 || p.Top != 5 {
		t.Errorf("plane offsets = (%v, %v, %v, %v)", p.Left, p.Right, p.Bottom, p.Top)
	}
}

func TestComputeProjectionOrthographic(t *testing.T) {
	f := FrustumFromOrtho(-4, 4, -3, 3, -10, 10)

	p := ComputeProjection(&f, true)

	if p.Type != Orthographic {
		t.Fatalf("Type = %d, want Orthographic", p.Type)
	}

	if p.Fraction != 1 {
		t.Errorf("Fraction = %v, want 1", p.Fraction)
	}

	if p.Near != 0 || math.Abs(p.Far-20) > 1e-12 {
		t.Errorf("depth range = [%v, %v], want [0, 20]", p.Near, p.Far)
	}

	// the eye sits at the near plane center
	want := glm.Vec3d{0, 0, 10}
	if p.Eye.Sub(want).Length() > 1e-12 {
		t.Errorf("Eye = %v, want %v", p.Eye, want)
	}
}

func TestComputeProjectionPerspective(t *testing.T) {
	// a symmetric wedge looking down -z from (0, 0, 10): near plane
	// at z=8 spans +-2, far plane at z=0 spans +-10
	f := Frustum{Points: [8]glm.Vec3d{
		{-10, -10, 0}, {10, -10, 0}, {-10, 10, 0}, {10, 10, 0},
		{-2, -2, 8}, {2, -2, 8}, {-2, 2, 8}, {2, 2, 8},
	}}

	p := ComputeProjection(&f, true)

	if p.Type != Perspective {
		t.Fatalf("Type = %d, want Perspective", p.Type)
	}

	wantEye := glm.Vec3d{0, 0, 10}
	if p.Eye.Sub(wantEye).Length() > 1e-9 {
		t.Errorf("Eye = %v, want %v", p.Eye, wantEye)
	}

	if math.Abs(p.Near-2) > 1e-9 || math.Abs(p.Far-10) > 1e-9 {
		t.Errorf("depth range = [%v, %v], want [2, 10]", p.Near, p.Far)
	}

	if math.Abs(p.Left+2) > 1e-9 || math.Abs(p.Right-2) > 1e-9 {
		t.Errorf("horizontal offsets = [%v, %v], want [-2, 2]", p.Left, p.Right)
	}

	if math.Abs(p.Fraction-0.2) > 1e-9 {
		t.Errorf("Fraction = %v, want 0.2", p.Fraction)
	}
}

func TestComputeProjectionFractionCutoff(t *testing.T) {
	// a nearly parallel wedge must fall back to orthographic rather
	// than reconstruct an eye point at infinity
	f := Frustum{Points: [8]glm.Vec3d{
		{-10, -10, 0}, {10, -10, 0}, {-10, 10, 0}, {10, 10, 0},
		{-9.999, -9.999, 8}, {9.999, -9.999, 8}, {-9.999, 9.999, 8}, {9.999, 9.999, 8},
	}}

	p := ComputeProjection(&f, true)

	if p.Type != Orthographic {
		t.Errorf("Type = %d, want Orthographic for fraction %v", p.Type, p.Fraction)
	}
}

func TestProjectionMapsCornersToClipSpace(t *testing.T) {
	f := Frustum{Points: [8]glm.Vec3d{
		{-10, -10, 0}, {10, -10, 0}, {-10, 10, 0}, {10, 10, 0},
		{-2, -2, 8}, {2, -2, 8}, {-2, 2, 8}, {2, 2, 8},
	}}

	p := ComputeProjection(&f, true)
	viewProj := p.Proj.Mul(p.View)

	project := func(pt glm.Vec3d) glm.Vec3d {
		clip := viewProj.Transform(pt.Extend(1))
		return glm.Vec3d{clip[0] / clip[3], clip[1] / clip[3], clip[2] / clip[3]}
	}

	tests := []struct {
		name   string
		corner Corner
		want   glm.Vec3d
	}{
		{name: "near bottom left", corner: LeftBottomFront, want: glm.Vec3d{-1, -1, 0}},
		{name: "near top right", corner: RightTopFront, want: glm.Vec3d{1, 1, 0}},
		{name: "far bottom left", corner: LeftBottomRear, want: glm.Vec3d{-1, -1, 1}},
		{name: "far top right", corner: RightTopRear, want: glm.Vec3d{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := project(f.Points[tt.corner])
			if got.Sub(tt.want).Length() > 1e-9 {
				t.Errorf("corner %d maps to %v, want %v", tt.corner, got, tt.want)
			}
		})
	}
}

func TestFrustumInterpolate(t *testing.T) {
	f := FrustumFromOrtho(0, 10, 0, 10, -1, 1)

	// the top left quadrant of the view covers high y values, because
	// view coordinates grow downward
	sub := f.Interpolate(0, 0, 0.5, 0.5)

	wantLB := glm.Vec3d{0, 5, -1}
	if got := sub.Points[LeftBottomRear]; got.Sub(wantLB).Length() > 1e-12 {
		t.Errorf("LeftBottomRear = %v, want %v", got, wantLB)
	}

	wantRT := glm.Vec3d{5, 10, -1}
	if got := sub.Points[RightTopRear]; got.Sub(wantRT).Length() > 1e-12 {
		t.Errorf("RightTopRear = %v, want %v", got, wantRT)
	}

	// the full range reproduces the frustum
	full := f.Interpolate(0, 0, 1, 1)
	for i := range full.Points {
		if full.Points[i].Sub(f.Points[i]).Length() > 1e-12 {
			t.Errorf("identity interpolation moved corner %d to %v", i, full.Points[i])
		}
	}
}

func TestFrustumFraction(t *testing.T) {
	tests := []struct {
		name string
		f    Frustum
		want float64
	}{
		{
			name: "orthographic",
			f:    FrustumFromOrtho(-1, 1, -1, 1, -1, 1),
			want: 1,
		},
		{
			name: "wedge",
			f: Frustum{Points: [8]glm.Vec3d{
				{-10, -10, 0}, {10, -10, 0}, {-10, 10, 0}, {10, 10, 0},
				{-2, -2, 8}, {2, -2, 8}, {-2, 2, 8}, {2, 2, 8},
			}},
			want: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Fraction(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Fraction() = %v, want %v", got, tt.want)
			}
		})
	}
}
