package glm

import "math"

// Projection builders target the wgpu clip space: x,y in [-1,1] and
// depth in [0,1] with depth 0 at the near plane.

func Perspective[T float](fovY Rad, aspect, near, far T) Mat4[T] {
	f := T(1 / math.Tan(float64(fovY*0.5)))

	return Mat4Of([4][4]T{
		{f / aspect, 0, 0, 0},
		{0, f, 0, 0},
		{0, 0, far / (near - far), -1},
		{0, 0, (far * near) / (near - far), 0},
	})
}

// Frustum builds an asymmetric perspective projection from the six
// clip plane offsets measured at the near plane.
func Frustum[T float](left, right, bottom, top, near, far T) Mat4[T] {
	return Mat4Of([4][4]T{
		{2 * near / (right - left), 0, 0, 0},
		{0, 2 * near / (top - bottom), 0, 0},
		{(right + left) / (right - left), (top + bottom) / (top - bottom), far / (near - far), -1},
		{0, 0, (far * near) / (near - far), 0},
	})
}

// Ortho builds an orthographic projection from the six clip plane
// offsets.
func Ortho[T float](left, right, bottom, top, near, far T) Mat4[T] {
	return Mat4Of([4][4]T{
		{2 / (right - left), 0, 0, 0},
		{0, 2 / (top - bottom), 0, 0},
		{0, 0, 1 / (near - far), 0},
		{-(right + left) / (right - left), -(top + bottom) / (top - bottom), near / (near - far), 1},
	})
}

func LookAt[T float](eye, center, up Vec3[T]) Mat4[T] {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4Of([4][4]T{
		{s[0], u[0], -f[0], 0},
		{s[1], u[1], -f[1], 0},
		{s[2], u[2], -f[2], 0},
		{-eye.Dot(s), -eye.Dot(u), eye.Dot(f), 1},
	})
}

func DegToRad[T numeric](deg T) Rad {
	return Rad(float64(deg) * (math.Pi / 180))
}

func RadToDeg[T numeric](rad Rad) (deg T) {
	return T(rad * (180 / math.Pi))
}
