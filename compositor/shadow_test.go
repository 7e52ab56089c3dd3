package compositor

import (
	"math"
	"testing"

	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/lumen"
)

func TestShadowMapLightViewProjCoversVolume(t *testing.T) {
	m := NewSolarShadowMap(nil)
	m.SetSceneVolume(glm.Vec3d{-1, -2, -3}, glm.Vec3d{3, 2, 1})
	m.UpdateSettings(SolarShadowSettings{
		Direction: glm.Vec3d{1, -1, -2},
		Color:     lumen.ColorLinearRGBA(0, 0, 0, 0.5),
	})

	lvp := m.LightViewProj()

	corners := []glm.Vec3d{
		{-1, -2, -3}, {3, -2, -3}, {-1, 2, -3}, {3, 2, -3},
		{-1, -2, 1}, {3, -2, 1}, {-1, 2, 1}, {3, 2, 1},
	}

	const eps = 1e-9

	for _, corner := range corners {
		p := lvp.TransformPoint(corner)

		if math.Abs(p[0]) > 1+eps || math.Abs(p[1]) > 1+eps {
			t.Errorf("corner %v maps outside the shadow frustum: %v", corner, p)
		}

		if p[2] < -eps || p[2] > 1+eps {
			t.Errorf("corner %v maps outside the depth range: %v", corner, p)
		}
	}
}

func TestShadowMapZeroDirection(t *testing.T) {
	m := NewSolarShadowMap(nil)
	m.SetSceneVolume(glm.Vec3d{-1, -1, -1}, glm.Vec3d{1, 1, 1})
	m.UpdateSettings(SolarShadowSettings{})

	lvp := m.LightViewProj()

	p := lvp.TransformPoint(glm.Vec3d{})
	for _, v := range p {
		if math.IsNaN(v) {
			t.Fatalf("zero direction yields NaN: %v", p)
		}
	}
}

func TestShadowMapEnableToggle(t *testing.T) {
	m := NewSolarShadowMap(nil)

	if m.IsEnabled() {
		t.Error("new shadow map starts enabled")
	}

	m.SetEnabled(true)
	if !m.IsEnabled() {
		t.Error("SetEnabled(true) did not stick")
	}
}
