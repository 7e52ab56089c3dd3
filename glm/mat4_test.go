package glm

import (
	"testing"
)

func TestMat4OfColumns(t *testing.T) {
	m := Mat4Of([4][4]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	})

	// column major: the first column occupies the first four slots
	if m[0] != 1 || m[1] != 2 || m[2] != 3 || m[3] != 4 {
		t.Errorf("first column = %v", m[:4])
	}

	// the translation column of a transform is the last one
	if m[12] != 13 || m[13] != 14 || m[14] != 15 || m[15] != 16 {
		t.Errorf("last column = %v", m[12:])
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := TranslationMat4(1.0, 2, 3).Scale(2, 2, 2)

	if got := IdentityMat4[float64]().Mul(m); got != m {
		t.Errorf("identity * m = %v, want %v", got, m)
	}

	if got := m.Mul(IdentityMat4[float64]()); got != m {
		t.Errorf("m * identity = %v, want %v", got, m)
	}
}

func TestMat4TransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4d
		p    Vec3[float64]
		want Vec3[float64]
	}{
		{
			name: "translation",
			m:    TranslationMat4(1.0, 2, 3),
			p:    Vec3[float64]{1, 1, 1},
			want: Vec3[float64]{2, 3, 4},
		},
		{
			name: "scale then translate",
			m:    TranslationMat4(10.0, 0, 0).Scale(2, 2, 2),
			p:    Vec3[float64]{1, 0, 0},
			want: Vec3[float64]{12, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.TransformPoint(tt.p)
			if got.Sub(tt.want).Length() > 1e-12 {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestMat4ToWGPU(t *testing.T) {
	m := TranslationMat4(1.0, 2, 3)
	w := m.ToWGPU()

	if w[12] != 1 || w[13] != 2 || w[14] != 3 {
		t.Errorf("translation column = (%v, %v, %v), want (1, 2, 3)", w[12], w[13], w[14])
	}
}

func TestMat4IsZero(t *testing.T) {
	if !(Mat4d{}).IsZero() {
		t.Error("zero value not recognized as zero")
	}

	if IdentityMat4[float64]().IsZero() {
		t.Error("identity recognized as zero")
	}
}
