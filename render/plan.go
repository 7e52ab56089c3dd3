package render

import (
	"github.com/lumen3d/lumen/lumen"
)

// RenderMode selects the base shading style of a view.
type RenderMode int

const (
	Wireframe RenderMode = iota
	HiddenLine
	SolidFill
	SmoothShade
)

// ViewFlags toggles optional render features per view.
type ViewFlags struct {
	RenderMode RenderMode

	Transparency     bool
	VisibleEdges     bool
	HiddenEdges      bool
	Shadows          bool
	ClipVolume       bool
	Monochrome       bool
	Lighting         bool
	AmbientOcclusion bool
	BackgroundMap    bool
}

// EdgeSettings styles the display of surface edges.
type EdgeSettings struct {
	// OverrideColor replaces the element color if set.
	OverrideColor *lumen.Color

	// Width in pixels, 0 keeps the element width.
	Width float32

	// Pattern is a 32 bit line code mask, 0 is solid.
	Pattern uint32
}

// HiddenLineParams styles visible and hidden edges in the hidden line
// and solid fill render modes.
type HiddenLineParams struct {
	Visible EdgeSettings
	Hidden  EdgeSettings

	// TransparencyThreshold: geometry more transparent than this is
	// not considered a hidden line occluder.
	TransparencyThreshold float32
}

// HiliteSettings controls how hilited geometry mixes into the
// composite.
type HiliteSettings struct {
	Color lumen.Color

	// VisibleRatio is the blend weight applied where hilited
	// geometry is directly visible, HiddenRatio where it is occluded.
	VisibleRatio float32
	HiddenRatio  float32
}

// AmbientOcclusionSettings carries the SSAO tuning values. Presence
// alone does not enable the effect; see Target.ChangeRenderPlan for
// the eligibility rules.
type AmbientOcclusionSettings struct {
	Bias       float32
	ZLengthCap float32
	Intensity  float32
}

// Light is a simple directional light.
type Light struct {
	Direction [3]float32
	Intensity float32
}

// RenderPlan is an immutable snapshot of everything a target needs to
// know about the view: dimensionality, flags, frustum and styling. A
// plan is built fresh whenever the view changes and handed to
// Target.ChangeRenderPlan; it is never mutated afterwards.
type RenderPlan struct {
	Is3D  bool
	Flags ViewFlags

	Frustum Frustum

	// TerrainFrustum is a widened variant of Frustum used for
	// background map and terrain geometry.
	TerrainFrustum *Frustum

	BackgroundColor lumen.Color
	MonochromeColor lumen.Color

	Hilite HiliteSettings

	// FadeOutActive dims everything that is not emphasized.
	FadeOutActive bool

	AntiAliasSamples int

	Clip       *ClipVolume
	HiddenLine *HiddenLineParams
	AO         *AmbientOcclusionSettings
	Lights     []Light
}
