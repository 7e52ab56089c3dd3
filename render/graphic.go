package render

import (
	"github.com/lumen3d/lumen/glm"
)

// Graphic is an opaque renderer owned scene graphic. Concrete
// graphics are created by the target implementation; the scene layer
// only assembles and hands over lists of them.
type Graphic interface {
	// Release frees the GPU resources behind this graphic. A graphic
	// is owned by exactly one scene or decoration container, which is
	// responsible for releasing it.
	Release()
}

// GraphicList is an ordered sequence of graphics. Ownership of the
// graphics is exclusive to whichever container holds the list.
type GraphicList []Graphic

func (gl GraphicList) Release() {
	for _, g := range gl {
		g.Release()
	}
}

// BranchOptions adjusts how the graphics below a branch are rendered.
type BranchOptions struct {
	Transform glm.Mat4d

	// nil keeps the surrounding view flags
	FlagOverrides *ViewFlags

	// nil keeps the surrounding symbology overrides
	Overrides *FeatureOverrides

	Clip       *ClipVolume
	Classifier *PlanarClassifier
}

// PlanarClassifier drapes classification geometry over the scene. The
// Graphic holds the classifier content; it is flattened onto the
// Elevation plane and rendered into the classification texture before
// the main passes, which sample it under the classified branch. The
// classifier owns its graphic.
type PlanarClassifier struct {
	ID        Id64
	Elevation float64
	Graphic   Graphic
}

func (p *PlanarClassifier) Release() {
	if p.Graphic != nil {
		p.Graphic.Release()
		p.Graphic = nil
	}
}

// Decorations groups graphics drawn on top of the scene. World
// overlays depth-compose with the scene, view overlays always win.
type Decorations struct {
	World        GraphicList
	WorldOverlay GraphicList
	ViewOverlay  GraphicList
}

func (d *Decorations) Release() {
	d.World.Release()
	d.WorldOverlay.Release()
	d.ViewOverlay.Release()

	d.World = nil
	d.WorldOverlay = nil
	d.ViewOverlay = nil
}
