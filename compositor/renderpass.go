// Package compositor implements the multi pass scene compositor: it
// buckets draw commands by render pass, keeps deterministic ordering
// for coplanar layers, executes the GPU pipeline into a set of frame
// sized attachments and decodes the resulting pick buffers.
package compositor

// RenderPass identifies one bucket of the fixed frame pipeline.
// Passes execute in declaration order; commands inside a pass keep
// insertion order except for the layer passes, which re-sort by
// (elevation, priority, layer id).
type RenderPass int

const (
	PassNone RenderPass = iota - 1
	PassBackground
	PassOpaqueLayers
	PassOpaqueLinear
	PassOpaquePlanar
	PassOpaqueGeneral
	PassHiddenEdge
	PassClassification
	PassTranslucentLayers
	PassTranslucent
	PassHilite
	PassOverlayLayers
	PassWorldOverlay
	PassViewOverlay

	NumRenderPasses = int(PassViewOverlay) + 1
)

//go:generate go tool stringer -type=RenderPass -trimprefix=Pass

// IsLayerPass reports whether commands in this pass are re-sorted by
// layer ordering instead of insertion order.
func (p RenderPass) IsLayerPass() bool {
	switch p {
	case PassOpaqueLayers, PassTranslucentLayers, PassOverlayLayers:
		return true
	default:
		return false
	}
}

// CompositeFlags records which compositing steps a frame actually
// needs. A purely opaque scene skips the accumulation and hilite
// steps entirely.
type CompositeFlags uint8

const (
	CompositeNone        CompositeFlags = 0
	CompositeTranslucent CompositeFlags = 1 << iota
	CompositeHilite
	CompositeAmbientOcclusion
)

func (f CompositeFlags) Translucent() bool {
	return f&CompositeTranslucent != 0
}

func (f CompositeFlags) Hilite() bool {
	return f&CompositeHilite != 0
}

func (f CompositeFlags) AmbientOcclusion() bool {
	return f&CompositeAmbientOcclusion != 0
}

func (f CompositeFlags) NeedComposite() bool {
	return f != CompositeNone
}
