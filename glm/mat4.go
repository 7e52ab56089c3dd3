package glm

// Mat4 is a 4x4 matrix in column major order, matching the memory
// layout expected by wgpu uniform buffers.
type Mat4[T numeric] [16]T

func IdentityMat4[T numeric]() Mat4[T] {
	return Mat4[T]{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func TranslationMat4[T numeric](x, y, z T) Mat4[T] {
	return Mat4[T]{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

func ScaleMat4[T numeric](x, y, z T) Mat4[T] {
	return Mat4[T]{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

func RotationXMat4[T numeric](angle Rad) Mat4[T] {
	fs, fc := fastSincos(angle)
	s := T(fs)
	c := T(fc)

	return Mat4[T]{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

func RotationYMat4[T numeric](angle Rad) Mat4[T] {
	fs, fc := fastSincos(angle)
	s := T(fs)
	c := T(fc)

	return Mat4[T]{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

func RotationZMat4[T numeric](angle Rad) Mat4[T] {
	fs, fc := fastSincos(angle)
	s := T(fs)
	c := T(fc)

	return Mat4[T]{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Of builds a matrix from its four columns.
func Mat4Of[T numeric](cols [4][4]T) Mat4[T] {
	return Mat4[T]{
		cols[0][0], cols[0][1], cols[0][2], cols[0][3],
		cols[1][0], cols[1][1], cols[1][2], cols[1][3],
		cols[2][0], cols[2][1], cols[2][2], cols[2][3],
		cols[3][0], cols[3][1], cols[3][2], cols[3][3],
	}
}

func (lhs Mat4[T]) RotateX(angle Rad) Mat4[T] {
	return lhs.Mul(RotationXMat4[T](angle))
}

func (lhs Mat4[T]) RotateY(angle Rad) Mat4[T] {
	return lhs.Mul(RotationYMat4[T](angle))
}

func (lhs Mat4[T]) RotateZ(angle Rad) Mat4[T] {
	return lhs.Mul(RotationZMat4[T](angle))
}

func (lhs Mat4[T]) Scale(x, y, z T) Mat4[T] {
	return lhs.Mul(ScaleMat4(x, y, z))
}

func (lhs Mat4[T]) Translate(x, y, z T) Mat4[T] {
	return lhs.Mul(TranslationMat4(x, y, z))
}

func (lhs Mat4[T]) IsZero() bool {
	return lhs == Mat4[T]{}
}

func (lhs Mat4[T]) Mul(rhs Mat4[T]) Mat4[T] {
	return Mat4[T]{
		lhs[0]*rhs[0] + lhs[4]*rhs[1] + lhs[8]*rhs[2] + lhs[12]*rhs[3],
		lhs[1]*rhs[0] + lhs[5]*rhs[1] + lhs[9]*rhs[2] + lhs[13]*rhs[3],
		lhs[2]*rhs[0] + lhs[6]*rhs[1] + lhs[10]*rhs[2] + lhs[14]*rhs[3],
		lhs[3]*rhs[0] + lhs[7]*rhs[1] + lhs[11]*rhs[2] + lhs[15]*rhs[3],
		lhs[0]*rhs[4] + lhs[4]*rhs[5] + lhs[8]*rhs[6] + lhs[12]*rhs[7],
		lhs[1]*rhs[4] + lhs[5]*rhs[5] + lhs[9]*rhs[6] + lhs[13]*rhs[7],
		lhs[2]*rhs[4] + lhs[6]*rhs[5] + lhs[10]*rhs[6] + lhs[14]*rhs[7],
		lhs[3]*rhs[4] + lhs[7]*rhs[5] + lhs[11]*rhs[6] + lhs[15]*rhs[7],
		lhs[0]*rhs[8] + lhs[4]*rhs[9] + lhs[8]*rhs[10] + lhs[12]*rhs[11],
		lhs[1]*rhs[8] + lhs[5]*rhs[9] + lhs[9]*rhs[10] + lhs[13]*rhs[11],
		lhs[2]*rhs[8] + lhs[6]*rhs[9] + lhs[10]*rhs[10] + lhs[14]*rhs[11],
		lhs[3]*rhs[8] + lhs[7]*rhs[9] + lhs[11]*rhs[10] + lhs[15]*rhs[11],
		lhs[0]*rhs[12] + lhs[4]*rhs[13] + lhs[8]*rhs[14] + lhs[12]*rhs[15],
		lhs[1]*rhs[12] + lhs[5]*rhs[13] + lhs[9]*rhs[14] + lhs[13]*rhs[15],
		lhs[2]*rhs[12] + lhs[6]*rhs[13] + lhs[10]*rhs[14] + lhs[14]*rhs[15],
		lhs[3]*rhs[12] + lhs[7]*rhs[13] + lhs[11]*rhs[14] + lhs[15]*rhs[15],
	}
}

func (lhs Mat4[T]) Transform(rhs Vec4[T]) Vec4[T] {
	return Vec4[T]{
		lhs[0]*rhs[0] + lhs[4]*rhs[1] + lhs[8]*rhs[2] + lhs[12]*rhs[3],
		lhs[1]*rhs[0] + lhs[5]*rhs[1] + lhs[9]*rhs[2] + lhs[13]*rhs[3],
		lhs[2]*rhs[0] + lhs[6]*rhs[1] + lhs[10]*rhs[2] + lhs[14]*rhs[3],
		lhs[3]*rhs[0] + lhs[7]*rhs[1] + lhs[11]*rhs[2] + lhs[15]*rhs[3],
	}
}

// TransformPoint transforms a point through the matrix and performs
// the perspective divide.
func (lhs Mat4[T]) TransformPoint(p Vec3[T]) Vec3[T] {
	v := lhs.Transform(p.Extend(1))
	if v[3] != 0 && v[3] != 1 {
		v = v.MulScalar(1 / v[3])
	}

	return v.Truncate()
}

func (lhs Mat4[T]) Transpose() Mat4[T] {
	return Mat4[T]{
		lhs[0], lhs[4], lhs[8], lhs[12],
		lhs[1], lhs[5], lhs[9], lhs[13],
		lhs[2], lhs[6], lhs[10], lhs[14],
		lhs[3], lhs[7], lhs[11], lhs[15],
	}
}

func (lhs Mat4[T]) Row(i int) Vec4[T] {
	return Vec4[T]{
		lhs[i+0],
		lhs[i+4],
		lhs[i+8],
		lhs[i+12],
	}
}

func (lhs Mat4[T]) ToWGPU() [16]float32 {
	var out [16]float32
	for i, v := range lhs {
		out[i] = float32(v)
	}

	return out
}
