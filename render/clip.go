package render

import (
	"github.com/lumen3d/lumen/glm"
	"github.com/oliverbestmann/earcut-go"
)

// ClipVolume restricts rendering to a prism: a polygonal outline in
// the xy plane extruded between ZLow and ZHigh. The outline is
// triangulated once into a mask mesh that the compositor renders into
// the stencil before the scene passes.
type ClipVolume struct {
	// Outline in world space, counter clockwise. Must have at least
	// 3 points.
	Outline []glm.Vec2d

	ZLow  float64
	ZHigh float64

	// triangulation cache
	triangles []glm.Vec3f
}

// Triangulate returns the mask mesh of the clip outline at ZLow as a
// flat triangle list. The result is cached; a ClipVolume is treated
// as immutable after construction.
func (cv *ClipVolume) Triangulate() []glm.Vec3f {
	if cv.triangles != nil || len(cv.Outline) < 3 {
		return cv.triangles
	}

	points := make([]earcut.Point[float64], 0, len(cv.Outline))
	for _, p := range cv.Outline {
		points = append(points, earcut.Point[float64]{X: p[0], Y: p[1]})
	}

	_, indices := earcut.Triangulate(points, nil)

	cv.triangles = make([]glm.Vec3f, 0, len(indices))
	for _, idx := range indices {
		p := cv.Outline[idx]
		cv.triangles = append(cv.triangles, glm.Vec3f{
			float32(p[0]),
			float32(p[1]),
			float32(cv.ZLow),
		})
	}

	return cv.triangles
}

// Planes returns the bounding half space offsets of the prism, used
// for coarse culling.
func (cv *ClipVolume) Planes() (xLo, xHi, yLo, yHi, zLo, zHi float64) {
	if len(cv.Outline) == 0 {
		return
	}

	xLo, yLo = cv.Outline[0].XY()
	xHi, yHi = xLo, yLo

	for _, p := range cv.Outline[1:] {
		xLo = min(xLo, p[0])
		xHi = max(xHi, p[0])
		yLo = min(yLo, p[1])
		yHi = max(yHi, p[1])
	}

	return xLo, xHi, yLo, yHi, cv.ZLow, cv.ZHigh
}
