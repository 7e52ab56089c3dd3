package lumen

import (
	"testing"

	"github.com/lumen3d/lumen/glm"
)

func TestRectangleFromPointsNormalizes(t *testing.T) {
	r := RectangleFromPoints(glm.Vec2f{4, 1}, glm.Vec2f{1, 3})

	if r.Min != (glm.Vec2f{1, 1}) || r.Max != (glm.Vec2f{4, 3}) {
		t.Errorf("rectangle = %s, want [1,1 - 4,3]", r)
	}
}

func TestRectangleXYWH(t *testing.T) {
	r := RectangleFromXYWH[uint32](10, 20, 30, 40)

	x, y, w, h := r.XYWH()
	if x != 10 || y != 20 || w != 30 || h != 40 {
		t.Errorf("XYWH() = (%d, %d, %d, %d), want (10, 20, 30, 40)", x, y, w, h)
	}
}

func TestRectangleIsEmpty(t *testing.T) {
	if !(Rectangle2u{}).IsEmpty() {
		t.Error("zero rectangle not empty")
	}

	line := RectangleFromXYWH[uint32](5, 5, 10, 0)
	if !line.IsEmpty() {
		t.Error("zero height rectangle not empty")
	}

	if RectangleFromXYWH[uint32](0, 0, 1, 1).IsEmpty() {
		t.Error("1x1 rectangle reported empty")
	}
}

func TestRectangleUnion(t *testing.T) {
	a := RectangleFromXYWH[float32](0, 0, 2, 2)
	b := RectangleFromXYWH[float32](5, 1, 2, 2)

	u := a.Union(b)
	if u.Min != (glm.Vec2f{0, 0}) || u.Max != (glm.Vec2f{7, 3}) {
		t.Errorf("union = %s, want [0,0 - 7,3]", u)
	}
}

func TestRectangleContains(t *testing.T) {
	outer := RectangleFromXYWH[uint32](0, 0, 10, 10)

	if !outer.Contains(RectangleFromXYWH[uint32](2, 2, 4, 4)) {
		t.Error("inner rectangle not contained")
	}

	if outer.Contains(RectangleFromXYWH[uint32](8, 8, 4, 4)) {
		t.Error("overhanging rectangle reported contained")
	}
}
