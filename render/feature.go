package render

import (
	"fmt"

	"github.com/lumen3d/lumen/lumen"
)

// Id64 identifies a model element. On the GPU an id travels as two 32
// bit halves written into separate pick attachments; 0/0 means "no
// element".
type Id64 uint64

const InvalidId64 Id64 = 0

func Id64FromPair(low, high uint32) Id64 {
	return Id64(uint64(high)<<32 | uint64(low))
}

func (id Id64) Pair() (low, high uint32) {
	return uint32(id), uint32(id >> 32)
}

func (id Id64) IsValid() bool {
	return id != InvalidId64
}

func (id Id64) String() string {
	return fmt.Sprintf("0x%x", uint64(id))
}

// Feature ties a piece of geometry to the element and sub category it
// came from.
type Feature struct {
	Element     Id64
	SubCategory Id64

	// Locatable geometry participates in pick buffer rendering.
	Locatable bool
}

// FeatureAppearance is the resolved styling for one feature.
type FeatureAppearance struct {
	Color    *lumen.Color
	Hidden   bool
	Emphasis bool
}

// FeatureOverrides recolors or hides features per view. It is
// produced by the application layer and consumed read-only during a
// frame.
type FeatureOverrides struct {
	appearances map[Id64]FeatureAppearance
	priorities  map[Id64]int32

	// Hilited elements render into the hilite pass.
	hilited map[Id64]struct{}
}

func NewFeatureOverrides() *FeatureOverrides {
	return &FeatureOverrides{
		appearances: map[Id64]FeatureAppearance{},
		priorities:  map[Id64]int32{},
		hilited:     map[Id64]struct{}{},
	}
}

func (fo *FeatureOverrides) OverrideAppearance(element Id64, app FeatureAppearance) {
	fo.appearances[element] = app
}

func (fo *FeatureOverrides) SetSubCategoryPriority(subCategory Id64, priority int32) {
	fo.priorities[subCategory] = priority
}

func (fo *FeatureOverrides) Hilite(element Id64) {
	fo.hilited[element] = struct{}{}
}

func (fo *FeatureOverrides) Unhilite(element Id64) {
	delete(fo.hilited, element)
}

func (fo *FeatureOverrides) Appearance(element Id64) (FeatureAppearance, bool) {
	app, ok := fo.appearances[element]
	return app, ok
}

// SubCategoryPriority returns the display priority of a sub category.
// Unknown sub categories sort at priority 0.
func (fo *FeatureOverrides) SubCategoryPriority(subCategory Id64) int32 {
	if fo == nil {
		return 0
	}

	return fo.priorities[subCategory]
}

func (fo *FeatureOverrides) IsHilited(element Id64) bool {
	if fo == nil {
		return false
	}

	_, ok := fo.hilited[element]
	return ok
}
