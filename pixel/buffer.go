package pixel

import (
	"encoding/binary"

	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/render"
)

// Selector chooses which pick buffers a read back request needs.
type Selector uint8

const (
	SelectNone Selector = 0

	// SelectFeature reads element ids.
	SelectFeature Selector = 1 << iota

	// SelectGeometryAndDistance reads geometry type, planarity and
	// the distance fraction.
	SelectGeometryAndDistance

	SelectAll = SelectFeature | SelectGeometryAndDistance
)

// Data is the decoded pick result for one pixel.
type Data struct {
	Element render.Id64

	// DistanceFraction is the normalized distance of the pixel
	// between near plane (0) and far plane (1).
	DistanceFraction float64

	Type      GeometryType
	Planarity Planarity
}

// Buffer wraps the raw pick buffer bytes of a read back rectangle and
// decodes individual pixels on demand.
//
// Coordinates handed to GetPixel use the view coordinate system with
// the origin at the top left; the backing buffers are stored with a
// bottom left origin, so the row index is inverted internally.
type Buffer struct {
	rect     lumen.Rectangle2u
	selector Selector

	// bottom-up rows, 4 bytes per pixel each
	elemLow    []byte
	elemHigh   []byte
	depthOrder []byte
}

// NewBuffer wraps raw pick attachment bytes. Each slice holds
// rect.Width*rect.Height RGBA words in bottom-up row order; slices
// not covered by the selector may be nil.
func NewBuffer(rect lumen.Rectangle2u, selector Selector, elemLow, elemHigh, depthOrder []byte) *Buffer {
	return &Buffer{
		rect:       rect,
		selector:   selector,
		elemLow:    elemLow,
		elemHigh:   elemHigh,
		depthOrder: depthOrder,
	}
}

func (b *Buffer) Rect() lumen.Rectangle2u {
	return b.rect
}

func (b *Buffer) Selector() Selector {
	return b.selector
}

// GetPixel decodes the pick data at view coordinates (x, y). It
// returns the zero Data value for coordinates outside the buffer
// rectangle.
func (b *Buffer) GetPixel(x, y uint32) Data {
	idx, ok := b.pixelIndex(x, y)
	if !ok {
		return Data{}
	}

	var data Data

	if b.selector&SelectFeature != 0 {
		low := binary.LittleEndian.Uint32(b.elemLow[idx*4:])
		high := binary.LittleEndian.Uint32(b.elemHigh[idx*4:])
		data.Element = render.Id64FromPair(low, high)
	}

	if b.selector&SelectGeometryAndDistance != 0 {
		word := b.depthOrder[idx*4:]

		data.DistanceFraction = DecodeDepthRGB(word[0], word[1], word[2])

		order, planar := DecodeRenderOrder(word[3])
		data.Type = order.GeometryType()
		data.Planarity = order.PlanarityOf(planar)
	}

	return data
}

// pixelIndex maps top-left-origin view coordinates to the index into
// the bottom-up backing buffers.
func (b *Buffer) pixelIndex(x, y uint32) (uint32, bool) {
	left, top := b.rect.Min.XY()
	width, height := b.rect.Width(), b.rect.Height()

	if x < left || y < top || x >= left+width || y >= top+height {
		return 0, false
	}

	row := height - 1 - (y - top)
	return row*width + (x - left), true
}
