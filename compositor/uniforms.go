package compositor

import (
	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/render"
)

// SyncToken is a change counter. A Versioned value bumps its token on
// every Set; consumers remember the last token they saw and only
// re-upload when it moved.
type SyncToken uint64

// Versioned pairs a value with a sync token. The zero Versioned holds
// the zero value at token 1, so a zero SyncObserver always syncs once.
type Versioned[T any] struct {
	value T
	token SyncToken
}

func (v *Versioned[T]) Set(value T) {
	v.value = value
	v.token++
}

// Update mutates the value in place and bumps the token.
func (v *Versioned[T]) Update(fn func(*T)) {
	fn(&v.value)
	v.token++
}

func (v *Versioned[T]) Value() T {
	return v.value
}

func (v *Versioned[T]) Token() SyncToken {
	return v.token + 1
}

// SyncObserver tracks how far a consumer has caught up with a
// Versioned value.
type SyncObserver struct {
	seen SyncToken
}

// NeedsSync reports whether the observer is behind the token and
// marks it caught up.
func (o *SyncObserver) NeedsSync(token SyncToken) bool {
	if o.seen == token {
		return false
	}

	o.seen = token
	return true
}

// FrustumUniforms is the frustum constant block as the shaders expect
// it: clip plane offsets, near/far and the projection type, all 32
// bit and padded to 16 byte alignment.
type FrustumUniforms struct {
	// top, bottom, left, right clip plane offsets at the near plane
	Planes [4]float32

	NearPlane float32
	FarPlane  float32
	Kind      float32

	_ float32
}

func FrustumUniformsOf(p render.Projection) FrustumUniforms {
	return FrustumUniforms{
		Planes: [4]float32{
			float32(p.Top),
			float32(p.Bottom),
			float32(p.Left),
			float32(p.Right),
		},
		NearPlane: float32(p.Near),
		FarPlane:  float32(p.Far),
		Kind:      float32(p.Type),
	}
}

func (u FrustumUniforms) Is2D() bool {
	return u.Kind == float32(render.TwoDee)
}

// branchUniforms is the per branch constant block. Model and view are
// multiplied in float64 before conversion, since geo scale
// coordinates do not round trip through float32 on their own.
type branchUniforms struct {
	ModelView glm.Mat4f
}
