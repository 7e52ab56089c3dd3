// Package render holds the renderer facing data model: per frame
// render plans, view frusta, feature identifiers and symbology
// overrides. Everything in here is plain data, produced once per view
// change by the caller and consumed read-only by a render target.
package render

import (
	"math"

	"github.com/lumen3d/lumen/glm"
)

// Corner indexes the 8 corner points of a Frustum in normalized plane
// coordinate order: bit 0 selects right, bit 1 selects top and bit 2
// selects the front (near) plane. Rear is the far plane.
type Corner int

const (
	LeftBottomRear Corner = iota
	RightBottomRear
	LeftTopRear
	RightTopRear
	LeftBottomFront
	RightBottomFront
	LeftTopFront
	RightTopFront
)

// Frustum describes a view volume by its 8 corner points in world
// space. The same representation covers two dimensional views,
// orthographic volumes and perspective wedges; the interpretation is
// derived from the corner geometry (see Projection).
type Frustum struct {
	Points [8]glm.Vec3d
}

func (f *Frustum) Corner(c Corner) glm.Vec3d {
	return f.Points[c]
}

// Fraction returns the ratio of the front (near) plane extent to the
// rear (far) plane extent. 1 means orthographic, values toward 0 mean
// an increasingly aggressive perspective wedge. The result is always
// in [0, 1].
func (f *Frustum) Fraction() float64 {
	rear := f.Points[RightTopRear].Sub(f.Points[LeftBottomRear]).Length()
	front := f.Points[RightTopFront].Sub(f.Points[LeftBottomFront]).Length()

	if rear == 0 {
		return 1
	}

	fraction := front / rear
	if fraction > 1 {
		fraction = 1
	}

	return fraction
}

// FrontCenter returns the center of the near plane.
func (f *Frustum) FrontCenter() glm.Vec3d {
	return f.faceCenter(LeftBottomFront, RightBottomFront, LeftTopFront, RightTopFront)
}

// RearCenter returns the center of the far plane.
func (f *Frustum) RearCenter() glm.Vec3d {
	return f.faceCenter(LeftBottomRear, RightBottomRear, LeftTopRear, RightTopRear)
}

func (f *Frustum) faceCenter(a, b, c, d Corner) glm.Vec3d {
	sum := f.Points[a].Add(f.Points[b]).Add(f.Points[c]).Add(f.Points[d])
	return sum.MulScalar(0.25)
}

// TransformBy returns a new frustum with every corner point pushed
// through the given transform.
func (f *Frustum) TransformBy(m glm.Mat4d) Frustum {
	var out Frustum
	for i, p := range f.Points {
		out.Points[i] = m.TransformPoint(p)
	}

	return out
}

// Interpolate builds the sub frustum covering the given fractional
// rectangle of the full view. The fractions are measured from the top
// left of the view, matching the coordinate system of read back
// rectangles. Geometry outside the sub frustum can be culled when
// only a small region of the view is redrawn.
func (f *Frustum) Interpolate(xLo, yLo, xHi, yHi float64) Frustum {
	var out Frustum

	// view y grows downward, npc y grows upward
	interpolateFace := func(lb, rb, lt, rt Corner) {
		bottom0 := f.Points[lb].Lerp(f.Points[rb], xLo)
		bottom1 := f.Points[lb].Lerp(f.Points[rb], xHi)
		top0 := f.Points[lt].Lerp(f.Points[rt], xLo)
		top1 := f.Points[lt].Lerp(f.Points[rt], xHi)

		out.Points[lb] = top0.Lerp(bottom0, yHi)
		out.Points[rb] = top1.Lerp(bottom1, yHi)
		out.Points[lt] = top0.Lerp(bottom0, yLo)
		out.Points[rt] = top1.Lerp(bottom1, yLo)
	}

	interpolateFace(LeftBottomRear, RightBottomRear, LeftTopRear, RightTopRear)
	interpolateFace(LeftBottomFront, RightBottomFront, LeftTopFront, RightTopFront)

	return out
}

// FrustumFromCamera builds the perspective frustum of a pinhole
// camera looking from eye toward target. fovY is the full vertical
// field of view in radians.
func FrustumFromCamera(eye, target, up glm.Vec3d, fovY, aspect, near, far float64) Frustum {
	forward := target.Sub(eye).Normalize()
	right := forward.Cross(up).Normalize()
	trueUp := right.Cross(forward)

	halfTan := math.Tan(fovY / 2)

	var out Frustum

	face := func(dist float64, lb, rb, lt, rt Corner) {
		center := eye.Add(forward.MulScalar(dist))
		dy := trueUp.MulScalar(dist * halfTan)
		dx := right.MulScalar(dist * halfTan * aspect)

		out.Points[lb] = center.Sub(dx).Sub(dy)
		out.Points[rb] = center.Add(dx).Sub(dy)
		out.Points[lt] = center.Sub(dx).Add(dy)
		out.Points[rt] = center.Add(dx).Add(dy)
	}

	face(far, LeftBottomRear, RightBottomRear, LeftTopRear, RightTopRear)
	face(near, LeftBottomFront, RightBottomFront, LeftTopFront, RightTopFront)

	return out
}

// FrustumFromOrtho builds an axis aligned orthographic frustum, handy
// for tests and two dimensional views. The near plane sits at zHi,
// the far plane at zLo.
func FrustumFromOrtho(xLo, xHi, yLo, yHi, zLo, zHi float64) Frustum {
	return Frustum{Points: [8]glm.Vec3d{
		{xLo, yLo, zLo},
		{xHi, yLo, zLo},
		{xLo, yHi, zLo},
		{xHi, yHi, zLo},
		{xLo, yLo, zHi},
		{xHi, yLo, zHi},
		{xLo, yHi, zHi},
		{xHi, yHi, zHi},
	}}
}
