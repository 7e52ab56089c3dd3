package glm

import (
	"math"
	"testing"
)

func projectPoint(m Mat4d, p Vec3[float64]) Vec3[float64] {
	clip := m.Transform(p.Extend(1))
	return Vec3[float64]{clip[0] / clip[3], clip[1] / clip[3], clip[2] / clip[3]}
}

func TestOrthoDepthRange(t *testing.T) {
	m := Ortho(-1.0, 1, -1, 1, 2, 10)

	// the camera looks down -z, so the near plane sits at z = -near
	tests := []struct {
		name string
		p    Vec3[float64]
		want Vec3[float64]
	}{
		{name: "near center", p: Vec3[float64]{0, 0, -2}, want: Vec3[float64]{0, 0, 0}},
		{name: "far center", p: Vec3[float64]{0, 0, -10}, want: Vec3[float64]{0, 0, 1}},
		{name: "near corner", p: Vec3[float64]{1, 1, -2}, want: Vec3[float64]{1, 1, 0}},
		{name: "mid depth", p: Vec3[float64]{0, 0, -6}, want: Vec3[float64]{0, 0, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := projectPoint(m, tt.p)
			if got.Sub(tt.want).Length() > 1e-12 {
				t.Errorf("project(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestOrthoAsymmetric(t *testing.T) {
	m := Ortho(0.0, 4, 0, 2, 0, 1)

	got := projectPoint(m, Vec3[float64]{0, 0, 0})
	want := Vec3[float64]{-1, -1, 0}
	if got.Sub(want).Length() > 1e-12 {
		t.Errorf("lower left corner = %v, want %v", got, want)
	}

	got = projectPoint(m, Vec3[float64]{4, 2, -1})
	want = Vec3[float64]{1, 1, 1}
	if got.Sub(want).Length() > 1e-12 {
		t.Errorf("upper right far corner = %v, want %v", got, want)
	}
}

func TestFrustumDepthRange(t *testing.T) {
	m := Frustum(-1.0, 1, -1, 1, 1, 100)

	if got := projectPoint(m, Vec3[float64]{0, 0, -1})[2]; math.Abs(got) > 1e-12 {
		t.Errorf("depth at near plane = %v, want 0", got)
	}

	if got := projectPoint(m, Vec3[float64]{0, 0, -100})[2]; math.Abs(got-1) > 1e-12 {
		t.Errorf("depth at far plane = %v, want 1", got)
	}

	// corners of the near rectangle map to the clip space corners
	got := projectPoint(m, Vec3[float64]{-1, -1, -1})
	want := Vec3[float64]{-1, -1, 0}
	if got.Sub(want).Length() > 1e-12 {
		t.Errorf("near corner = %v, want %v", got, want)
	}
}

func TestPerspectiveMatchesFrustum(t *testing.T) {
	// a symmetric frustum and the equivalent fov form must agree
	fovY := DegToRad(90.0)
	near, far := 1.0, 10.0

	p := Perspective(fovY, 1, near, far)
	f := Frustum(-near, near, -near, near, near, far)

	for i := range p {
		if math.Abs(p[i]-f[i]) > 1e-6 {
			t.Fatalf("matrices differ at %d: %v vs %v", i, p[i], f[i])
		}
	}
}

func TestLookAtOrigin(t *testing.T) {
	m := LookAt(Vec3[float64]{0, 0, 5}, Vec3[float64]{}, Vec3[float64]{0, 1, 0})

	// the target ends up on the -z axis at its distance from the eye
	got := m.TransformPoint(Vec3[float64]{})
	want := Vec3[float64]{0, 0, -5}
	if got.Sub(want).Length() > 1e-12 {
		t.Errorf("target transforms to %v, want %v", got, want)
	}

	// the eye transforms to the view space origin
	got = m.TransformPoint(Vec3[float64]{0, 0, 5})
	if got.Length() > 1e-12 {
		t.Errorf("eye transforms to %v, want origin", got)
	}
}
