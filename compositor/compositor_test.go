package compositor

import (
	"testing"

	"github.com/oliverbestmann/webgpu/wgpu"

	"github.com/lumen3d/lumen/render"
)

func TestPassDepthAndPickState(t *testing.T) {
	tests := []struct {
		pass       RenderPass
		compare    wgpu.CompareFunction
		depthWrite bool
		pickWrites bool
	}{
		{PassBackground, wgpu.CompareFunctionLessEqual, false, true},
		{PassOpaqueGeneral, wgpu.CompareFunctionLessEqual, true, true},
		{PassOpaquePlanar, wgpu.CompareFunctionLessEqual, true, true},
		{PassHiddenEdge, wgpu.CompareFunctionGreater, false, false},
		{PassViewOverlay, wgpu.CompareFunctionAlways, false, true},
	}

	for _, tt := range tests {
		if got := passDepthCompare(tt.pass); got != tt.compare {
			t.Errorf("passDepthCompare(%s) = %v, want %v", tt.pass, got, tt.compare)
		}

		if got := passDepthWrite(tt.pass); got != tt.depthWrite {
			t.Errorf("passDepthWrite(%s) = %v, want %v", tt.pass, got, tt.depthWrite)
		}

		if got := passPickWrites(tt.pass); got != tt.pickWrites {
			t.Errorf("passPickWrites(%s) = %v, want %v", tt.pass, got, tt.pickWrites)
		}
	}
}

func TestCastsShadow(t *testing.T) {
	tests := []struct {
		seg  frameSegment
		pass RenderPass
		want bool
	}{
		{segOpaqueFirst, PassOpaqueLinear, true},
		{segOpaquePlanar, PassOpaquePlanar, true},
		{segOpaqueFinal, PassOpaqueGeneral, true},
		{segOpaqueFirst, PassBackground, false},
		{segOpaqueFinal, PassHiddenEdge, false},
		{segClassification, PassClassification, false},
		{segTranslucent, PassTranslucent, false},
		{segOverlay, PassWorldOverlay, false},
	}

	for _, tt := range tests {
		if got := castsShadow(tt.seg, tt.pass); got != tt.want {
			t.Errorf("castsShadow(%d, %s) = %v, want %v", tt.seg, tt.pass, got, tt.want)
		}
	}
}

func TestFeatureIDWords(t *testing.T) {
	feature := render.Feature{Element: render.Id64(0x1234_5678_9abc_def0)}

	low, high := featureIDWords(feature, false)
	if low == 0 || high == 0 {
		t.Error("non locatable feature dropped from a regular frame")
	}

	low, high = featureIDWords(feature, true)
	if low != 0 || high != 0 {
		t.Errorf("non locatable feature kept: %#x %#x", low, high)
	}

	feature.Locatable = true
	low, high = featureIDWords(feature, true)
	if low != 0x9abc_def0 || high != 0x1234_5678 {
		t.Errorf("locatable feature words = %#x %#x", low, high)
	}
}

// Picking renders into its own attachment set so a small read
// rectangle can never resize the visible frame away.
func TestPickAttachmentsAreSeparate(t *testing.T) {
	factory := &fakeFactory{}
	c := NewSceneCompositor(nil, factory)

	if c.targetAttachments(true) == c.targetAttachments(false) {
		t.Fatal("picking shares the frame attachment set")
	}

	if c.targetAttachments(false) != c.Attachments() {
		t.Error("visible frames do not render into the frame set")
	}

	if c.targetAttachments(true) != c.PickAttachments() {
		t.Error("picking frames do not render into the pick set")
	}

	// sizing the frame set, then the pick set to a smaller rect,
	// must not release any frame texture
	if _, err := c.Attachments().Update(64, 64); err != nil {
		t.Fatalf("frame Update() failed: %v", err)
	}

	if _, err := c.PickAttachments().Update(4, 4); err != nil {
		t.Fatalf("pick Update() failed: %v", err)
	}

	if factory.released != 0 {
		t.Errorf("pick sizing released %d frame textures", factory.released)
	}
}

func TestDrawnAttachmentsDefaultsToFrameSet(t *testing.T) {
	c := NewSceneCompositor(nil, &fakeFactory{})

	if c.drawnAttachments() != c.Attachments() {
		t.Error("reads before the first draw must target the frame set")
	}
}

func TestDrawResetsBatchState(t *testing.T) {
	c := NewSceneCompositor(nil, &fakeFactory{})

	// a batch left over from an aborted frame must not leak its
	// feature into the next one
	c.batchState.Push(&Batch{Feature: render.Feature{Element: render.Id64(7)}})

	if err := c.Draw(DrawSceneOptions{}); err == nil {
		t.Fatal("zero sized frame accepted")
	}

	if c.batchState.Current() != nil {
		t.Error("failed draw left batch state behind")
	}
}
