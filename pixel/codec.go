// Package pixel decodes the pick buffers written by the scene
// compositor: a fixed point depth encoding, a render order byte with
// a planar flag, and element ids split across two 32 bit words.
package pixel

import "math"

// RenderOrder classifies what kind of geometry wrote a pixel. The
// order value doubles as a depth tie breaker: higher orders win when
// coplanar geometry overlaps.
type RenderOrder uint8

const (
	OrderNone RenderOrder = iota
	OrderBlankingRegion
	OrderSurface
	OrderLinear
	OrderEdge
	OrderSilhouette
)

// orderPlanarBit flags planar geometry in the encoded order value.
const orderPlanarBit = 0x8

// GeometryType is the caller facing classification of a picked pixel.
type GeometryType uint8

const (
	GeometryNone GeometryType = iota
	GeometrySurface
	GeometryLinear
	GeometryEdge
	GeometrySilhouette
)

type Planarity uint8

const (
	PlanarityUnknown Planarity = iota
	PlanarityPlanar
	PlanarityNonPlanar
)

// EncodeDepthRGB packs a depth fraction in [0,1] into three bytes of
// base-255 fixed point. Values outside [0,1] are clamped.
func EncodeDepthRGB(depth float64) (r, g, b uint8) {
	t := depth
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	t *= 255
	r = uint8(t)
	t = (t - float64(r)) * 255
	g = uint8(t)
	t = (t - float64(g)) * 255
	b = uint8(t)

	return r, g, b
}

// DecodeDepthRGB recovers the depth fraction from its three byte
// encoding: the dot product of the normalized bytes with
// (1, 1/255, 1/65025), clamped to [0,1].
func DecodeDepthRGB(r, g, b uint8) float64 {
	depth := (float64(r) + float64(g)/255 + float64(b)/65025) / 255

	if depth < 0 {
		return 0
	}
	if depth > 1 {
		return 1
	}

	return depth
}

// OrderValue combines a render order and planarity flag into the 4+1
// bit value the shaders write, before byte quantization.
func OrderValue(order RenderOrder, planar bool) uint8 {
	value := uint8(order)
	if planar {
		value |= orderPlanarBit
	}

	return value
}

// EncodeRenderOrder packs a render order and planarity flag into the
// spare byte of the depth word.
func EncodeRenderOrder(order RenderOrder, planar bool) uint8 {
	return uint8(math.Round(float64(OrderValue(order, planar)) * 255 / 16))
}

// DecodeRenderOrder recovers (order, planar) from the encoded byte:
// value = floor(16*(byte/255) + 0.5), low 4 bits order, high bit
// planarity.
func DecodeRenderOrder(encoded uint8) (RenderOrder, bool) {
	value := uint8(math.Floor(16*(float64(encoded)/255) + 0.5))

	return RenderOrder(value &^ orderPlanarBit), value&orderPlanarBit != 0
}

// GeometryType maps the render order to the caller facing geometry
// classification. Blanking regions read as surfaces.
func (o RenderOrder) GeometryType() GeometryType {
	switch o {
	case OrderNone:
		return GeometryNone
	case OrderBlankingRegion, OrderSurface:
		return GeometrySurface
	case OrderLinear:
		return GeometryLinear
	case OrderEdge:
		return GeometryEdge
	case OrderSilhouette:
		return GeometrySilhouette
	default:
		return GeometryNone
	}
}

// PlanarityOf converts the planar flag to a Planarity, treating
// pixels without geometry as unknown.
func (o RenderOrder) PlanarityOf(planar bool) Planarity {
	if o == OrderNone {
		return PlanarityUnknown
	}

	if planar {
		return PlanarityPlanar
	}

	return PlanarityNonPlanar
}
