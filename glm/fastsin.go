package glm

import (
	"golang.org/x/mobile/exp/f32"
)

// fastSincos evaluates sine and cosine of the angle using the float32
// approximations from x/mobile. Accurate enough for rotation matrices,
// noticeably cheaper than math.Sincos with the float64 round trip.
func fastSincos(angle Rad) (sin, cos float32) {
	a := float32(angle)
	return f32.Sin(a), f32.Cos(a)
}
