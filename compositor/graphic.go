package compositor

import (
	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/render"
)

// GraphicParams is the symbology a primitive renders with before any
// feature overrides apply.
type GraphicParams struct {
	FillColor lumen.Color
	LineWidth float32
}

// HasTransparency reports whether the fill color requests blending.
func (p GraphicParams) HasTransparency() bool {
	return p.FillColor.Alpha() < 1
}

// Primitive is a leaf graphic: one cached geometry plus symbology.
type Primitive struct {
	Geom   *CachedGeometry
	Params GraphicParams
}

func (p *Primitive) Release() {
	if p.Geom != nil {
		p.Geom.Release()
		p.Geom = nil
	}
}

// Branch nests graphics under shared state: a transform, view flag
// overrides, symbology overrides, an optional clip volume and an
// optional planar classifier. Entering and leaving a branch maps to
// Push/Pop draw commands.
type Branch struct {
	Opts     render.BranchOptions
	Children render.GraphicList
}

func (b *Branch) Release() {
	b.Children.Release()
	b.Children = nil

	if b.Opts.Classifier != nil {
		b.Opts.Classifier.Release()
	}
}

// Batch associates the graphics below it with a feature for picking.
type Batch struct {
	Graphic render.Graphic
	Feature render.Feature
}

func (b *Batch) Release() {
	if b.Graphic != nil {
		b.Graphic.Release()
		b.Graphic = nil
	}
}

// LayerGraphic tags the graphics below it with a layer identity for
// deterministic coplanar ordering inside a LayerContainer.
type LayerGraphic struct {
	Graphic render.Graphic

	// LayerID breaks ordering ties; equal (elevation, priority)
	// layers sort lexicographically by this id.
	LayerID string

	// SubCategory supplies the display priority via the active
	// feature overrides.
	SubCategory render.Id64
}

func (l *LayerGraphic) Release() {
	if l.Graphic != nil {
		l.Graphic.Release()
		l.Graphic = nil
	}
}

// LayerContainer wraps a branch whose layers are coplanar and must
// stack by priority rather than depth.
type LayerContainer struct {
	Graphic render.Graphic

	// Overlay containers render above the scene, ignoring depth.
	Overlay bool

	// Transparency routes the container to the translucent layer
	// pass.
	Transparency bool
}

func (lc *LayerContainer) Release() {
	if lc.Graphic != nil {
		lc.Graphic.Release()
		lc.Graphic = nil
	}
}

// renderPass returns the layer pass bucket for this container.
func (lc *LayerContainer) renderPass() RenderPass {
	switch {
	case lc.Overlay:
		return PassOverlayLayers
	case lc.Transparency:
		return PassTranslucentLayers
	default:
		return PassOpaqueLayers
	}
}
