package compositor

import (
	"fmt"

	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/pixel"
	"github.com/oliverbestmann/webgpu/wgpu"
)

// GeometryKind discriminates the concrete geometry variants. Pipeline
// selection and render order derive from the kind instead of runtime
// type checks.
type GeometryKind int

const (
	GeometryViewportQuad GeometryKind = iota
	GeometryTexturedQuad
	GeometrySurfaceMesh
	GeometryPolyline
	GeometryEdge
	GeometrySilhouette
	GeometryPointString
	GeometryComposite
)

// CachedGeometry is GPU resident geometry plus the metadata needed to
// route it through the pass pipeline. It is a tagged variant: exactly
// the fields implied by Kind are set.
type CachedGeometry struct {
	kind   GeometryKind
	planar bool

	vertices    *wgpu.Buffer
	vertexCount uint32

	// textured quads sample this
	texture *lumen.Texture

	// composite geometry only
	children []*CachedGeometry
}

// vertex layout: position only, 3 float32
const vertexStride = 12

type NewGeometryOptions struct {
	Kind GeometryKind

	// Planar geometry participates in the planar opaque pass and
	// carries the planar flag in its encoded render order.
	Planar bool

	Positions []glm.Vec3f

	Texture *lumen.Texture

	Label string
}

func NewGeometry(ctx *lumen.Context, opts NewGeometryOptions) (*CachedGeometry, error) {
	if opts.Kind == GeometryComposite {
		return nil, fmt.Errorf("composite geometry must be built via NewCompositeGeometry")
	}

	if len(opts.Positions) == 0 {
		return nil, fmt.Errorf("no vertex data for geometry %q", opts.Label)
	}

	buf, err := ctx.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    opts.Label,
		Contents: wgpu.ToBytes(opts.Positions),
		Usage:    wgpu.BufferUsageVertex,
	})

	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}

	return &CachedGeometry{
		kind:        opts.Kind,
		planar:      opts.Planar,
		vertices:    buf,
		vertexCount: uint32(len(opts.Positions)),
		texture:     opts.Texture,
	}, nil
}

// NewCompositeGeometry groups multiple geometries into one. The
// composite takes ownership of its children.
func NewCompositeGeometry(children []*CachedGeometry) *CachedGeometry {
	return &CachedGeometry{
		kind:     GeometryComposite,
		children: children,
	}
}

func (g *CachedGeometry) Kind() GeometryKind {
	return g.kind
}

func (g *CachedGeometry) Planar() bool {
	return g.planar
}

func (g *CachedGeometry) Vertices() *wgpu.Buffer {
	return g.vertices
}

func (g *CachedGeometry) VertexCount() uint32 {
	return g.vertexCount
}

func (g *CachedGeometry) Children() []*CachedGeometry {
	return g.children
}

// RenderOrder returns the pick buffer order classification written by
// this geometry.
func (g *CachedGeometry) RenderOrder() pixel.RenderOrder {
	switch g.kind {
	case GeometryViewportQuad, GeometryTexturedQuad, GeometrySurfaceMesh:
		return pixel.OrderSurface
	case GeometryPolyline, GeometryPointString:
		return pixel.OrderLinear
	case GeometryEdge:
		return pixel.OrderEdge
	case GeometrySilhouette:
		return pixel.OrderSilhouette
	default:
		return pixel.OrderNone
	}
}

// Topology returns the primitive topology the geometry renders with.
func (g *CachedGeometry) Topology() wgpu.PrimitiveTopology {
	switch g.kind {
	case GeometryPolyline, GeometryEdge, GeometrySilhouette:
		return wgpu.PrimitiveTopologyLineList
	case GeometryPointString:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

// opaquePass returns the opaque pass bucket this geometry renders in:
// thin geometry first, then planar surfaces, then everything else.
func (g *CachedGeometry) opaquePass() RenderPass {
	switch {
	case g.kind == GeometryPolyline, g.kind == GeometryEdge,
		g.kind == GeometrySilhouette, g.kind == GeometryPointString:
		return PassOpaqueLinear
	case g.planar:
		return PassOpaquePlanar
	default:
		return PassOpaqueGeneral
	}
}

func (g *CachedGeometry) Release() {
	for _, child := range g.children {
		child.Release()
	}
	g.children = nil

	if g.vertices != nil {
		g.vertices.Release()
		g.vertices = nil
	}
}
