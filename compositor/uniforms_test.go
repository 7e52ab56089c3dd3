package compositor

import (
	"testing"

	"github.com/lumen3d/lumen/render"
)

func TestVersionedSync(t *testing.T) {
	var value Versioned[int]
	var observer SyncObserver

	// the zero value still syncs once
	if !observer.NeedsSync(value.Token()) {
		t.Fatal("fresh observer did not sync the zero value")
	}

	if observer.NeedsSync(value.Token()) {
		t.Error("observer re-synced an unchanged value")
	}

	value.Set(7)

	if !observer.NeedsSync(value.Token()) {
		t.Error("observer missed a Set")
	}

	if value.Value() != 7 {
		t.Errorf("Value() = %d, want 7", value.Value())
	}

	value.Update(func(v *int) { *v++ })

	if !observer.NeedsSync(value.Token()) {
		t.Error("observer missed an Update")
	}

	if value.Value() != 8 {
		t.Errorf("Value() after Update = %d, want 8", value.Value())
	}
}

func TestVersionedMultipleObservers(t *testing.T) {
	var value Versioned[string]
	value.Set("a")

	var first, second SyncObserver

	if !first.NeedsSync(value.Token()) || !second.NeedsSync(value.Token()) {
		t.Fatal("observers did not sync independently")
	}

	value.Set("b")

	if !first.NeedsSync(value.Token()) {
		t.Error("first observer missed the change")
	}

	// the first observer catching up must not affect the second
	if !second.NeedsSync(value.Token()) {
		t.Error("second observer considered itself caught up")
	}
}

func TestFrustumUniformsOf(t *testing.T) {
	f := render.FrustumFromOrtho(-10, 10, -5, 5, -1, 1)
	p := render.ComputeProjection(&f, false)

	u := FrustumUniformsOf(p)

	if !u.Is2D() {
		t.Error("2d projection lost its type")
	}

	want := [4]float32{5, -5, -10, 10} // top, bottom, left, right
	if u.Planes != want {
		t.Errorf("Planes = %v, want %v", u.Planes, want)
	}

	if u.NearPlane != 0 || u.FarPlane != 2*render.FrustumDepth2D {
		t.Errorf("depth range = [%v, %v]", u.NearPlane, u.FarPlane)
	}

	f3d := render.FrustumFromOrtho(-1, 1, -1, 1, -10, 0)
	p3d := render.ComputeProjection(&f3d, true)

	if u := FrustumUniformsOf(p3d); u.Is2D() {
		t.Error("3d projection read as 2d")
	}
}
