package render

import (
	"github.com/lumen3d/lumen/glm"
)

type FrustumType int

const (
	TwoDee FrustumType = iota
	Orthographic
	Perspective
)

// FrustumDepth2D is the half depth assigned to two dimensional views.
// A 2d view has no meaningful z extent, so it renders into a fixed
// slab of 2*FrustumDepth2D units.
const FrustumDepth2D = 0.5

// orthographic cutoff: a perspective wedge this close to parallel is
// treated as orthographic to avoid the camera reconstruction
// singularity at fraction 1.
const orthoFractionCutoff = 0.999

// Projection is the full projection state derived from a Frustum. It
// is pure data: the view and projection matrices consumed by the GPU
// plus the clip plane offsets needed for depth linearization in
// shaders.
type Projection struct {
	Type     FrustumType
	Fraction float64

	// clip plane offsets at the near plane, in view space
	Left, Right, Bottom, Top float64

	Near, Far float64

	Eye glm.Vec3d

	View glm.Mat4d
	Proj glm.Mat4d
}

// ComputeProjection derives the projection state from the 8 corner
// points of a frustum. Three forms exist:
//
//   - 2d views: orthographic with a fixed depth of 2*FrustumDepth2D.
//   - 3d views with fraction ~1: orthographic, sized directly from
//     the corner distances.
//   - 3d views otherwise: the eye point is reconstructed by
//     extrapolating the near/far corner relationship with
//     scale = 1/(1-fraction), then an asymmetric perspective frustum
//     is built from the six clip plane offsets.
func ComputeProjection(f *Frustum, is3D bool) Projection {
	viewX := f.Points[RightBottomRear].Sub(f.Points[LeftBottomRear]).Normalize()
	viewY := f.Points[LeftTopRear].Sub(f.Points[LeftBottomRear]).Normalize()
	viewZ := viewX.Cross(viewY)

	fraction := f.Fraction()

	halfWidth := 0.5 * f.Points[RightBottomRear].Sub(f.Points[LeftBottomRear]).Length()
	halfHeight := 0.5 * f.Points[LeftTopRear].Sub(f.Points[LeftBottomRear]).Length()

	var p Projection
	p.Fraction = fraction

	switch {
	case !is3D:
		p.Type = TwoDee
		p.Eye = f.FrontCenter().Add(viewZ.MulScalar(FrustumDepth2D))
		p.Left, p.Right = -halfWidth, halfWidth
		p.Bottom, p.Top = -halfHeight, halfHeight
		p.Near, p.Far = 0, 2*FrustumDepth2D
		p.Proj = glm.Ortho(p.Left, p.Right, p.Bottom, p.Top, p.Near, p.Far)

	case fraction > orthoFractionCutoff:
		p.Type = Orthographic
		p.Eye = f.FrontCenter()
		p.Left, p.Right = -halfWidth, halfWidth
		p.Bottom, p.Top = -halfHeight, halfHeight
		p.Near = 0
		p.Far = f.RearCenter().Sub(f.FrontCenter()).Length()
		p.Proj = glm.Ortho(p.Left, p.Right, p.Bottom, p.Top, p.Near, p.Far)

	default:
		p.Type = Perspective

		// reconstruct the eye point: the front corner sits at
		// fraction times the rear corner distance along the same ray,
		// so eye = scale*(front - fraction*rear) with
		// scale = 1/(1-fraction).
		scale := 1 / (1 - fraction)
		front := f.Points[LeftBottomFront]
		rear := f.Points[LeftBottomRear]
		p.Eye = front.Sub(rear.MulScalar(fraction)).MulScalar(scale)

		p.Near = viewZ.Dot(p.Eye.Sub(f.Points[LeftBottomFront]))
		p.Far = viewZ.Dot(p.Eye.Sub(f.Points[LeftBottomRear]))

		p.Left = viewX.Dot(f.Points[LeftBottomFront].Sub(p.Eye))
		p.Right = viewX.Dot(f.Points[RightBottomFront].Sub(p.Eye))
		p.Bottom = viewY.Dot(f.Points[LeftBottomFront].Sub(p.Eye))
		p.Top = viewY.Dot(f.Points[LeftTopFront].Sub(p.Eye))

		p.Proj = glm.Frustum(p.Left, p.Right, p.Bottom, p.Top, p.Near, p.Far)
	}

	p.View = viewMatrix(viewX, viewY, viewZ, p.Eye)

	return p
}

func viewMatrix(viewX, viewY, viewZ, eye glm.Vec3d) glm.Mat4d {
	return glm.Mat4Of([4][4]float64{
		{viewX[0], viewY[0], viewZ[0], 0},
		{viewX[1], viewY[1], viewZ[1], 0},
		{viewX[2], viewY[2], viewZ[2], 0},
		{-eye.Dot(viewX), -eye.Dot(viewY), -eye.Dot(viewZ), 1},
	})
}
