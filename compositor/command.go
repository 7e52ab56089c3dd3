package compositor

import (
	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/pixel"
	"github.com/lumen3d/lumen/render"
)

type CommandKind uint8

const (
	CmdPushBranch CommandKind = iota
	CmdPopBranch
	CmdPushBatch
	CmdPopBatch
	CmdPrimitive
)

// DrawCommand is one entry of a pass command list: entering or
// leaving shared state, or an actual draw.
type DrawCommand struct {
	Kind CommandKind

	// exactly one of these is set, matching Kind
	Branch    *Branch
	Batch     *Batch
	Primitive *Primitive
}

func pushBranchCmd(b *Branch) DrawCommand {
	return DrawCommand{Kind: CmdPushBranch, Branch: b}
}

func pushBatchCmd(b *Batch) DrawCommand {
	return DrawCommand{Kind: CmdPushBatch, Batch: b}
}

func primitiveCmd(p *Primitive) DrawCommand {
	return DrawCommand{Kind: CmdPrimitive, Primitive: p}
}

// popOf returns the matching pop command for a push command.
func popOf(push DrawCommand) DrawCommand {
	switch push.Kind {
	case CmdPushBranch:
		return DrawCommand{Kind: CmdPopBranch, Branch: push.Branch}
	case CmdPushBatch:
		return DrawCommand{Kind: CmdPopBatch, Batch: push.Batch}
	default:
		panic("popOf: not a push command")
	}
}

// RenderCommands buckets the draw commands of one frame by render
// pass. It is rebuilt from the scene every frame by a single
// traversal; pass lists keep insertion order, layer passes re-sort on
// output (see LayerCommandMap).
type RenderCommands struct {
	passes       [NumRenderPasses][]DrawCommand
	hasPrimitive [NumRenderPasses]bool

	layers LayerCommandMap

	// traversal state
	viewMatrix glm.Mat4d

	stack        []DrawCommand // open push commands
	materialized [NumRenderPasses]int

	flags     render.ViewFlags
	overrides *render.FeatureOverrides
	transform glm.Mat4d

	batch     *Batch
	container *containerState
	layer     *LayerGraphic
}

// containerState tracks the active LayerContainer during traversal.
type containerState struct {
	pass      RenderPass
	elevation float64

	// stack depth at container entry; pushes above this depth belong
	// to the surrounding scene, pushes at or above it are buffered
	// per layer bucket.
	baseDepth int
}

func NewRenderCommands(flags render.ViewFlags, overrides *render.FeatureOverrides, viewMatrix glm.Mat4d) *RenderCommands {
	rc := &RenderCommands{
		viewMatrix: viewMatrix,
		flags:      flags,
		overrides:  overrides,
		transform:  glm.IdentityMat4[float64](),
	}

	rc.layers.init()

	return rc
}

// AddScene routes the scene graphics into the opaque, translucent,
// hilite and layer passes.
func (rc *RenderCommands) AddScene(scene render.GraphicList) {
	for _, g := range scene {
		rc.addGraphic(g, PassNone)
	}
}

// AddBackground forces graphics into the background pass.
func (rc *RenderCommands) AddBackground(g render.Graphic) {
	rc.addGraphic(g, PassBackground)
}

// AddDecorations routes decoration graphics: world decorations join
// the scene passes, overlays go to their dedicated passes.
func (rc *RenderCommands) AddDecorations(dec *render.Decorations) {
	if dec == nil {
		return
	}

	for _, g := range dec.World {
		rc.addGraphic(g, PassNone)
	}

	for _, g := range dec.WorldOverlay {
		rc.addGraphic(g, PassWorldOverlay)
	}

	for _, g := range dec.ViewOverlay {
		rc.addGraphic(g, PassViewOverlay)
	}
}

// Commands returns the command list of a pass. Layer passes come from
// the layer map in sorted order.
func (rc *RenderCommands) Commands(pass RenderPass) []DrawCommand {
	if pass.IsLayerPass() {
		return rc.layers.OutputCommands(pass)
	}

	return rc.passes[pass]
}

// CompositeFlags derives which compositing steps this command set
// needs.
func (rc *RenderCommands) CompositeFlags() CompositeFlags {
	var flags CompositeFlags

	if rc.hasPrimitive[PassTranslucent] || rc.layers.HasCommands(PassTranslucentLayers) {
		flags |= CompositeTranslucent
	}

	if rc.hasPrimitive[PassHilite] {
		flags |= CompositeHilite
	}

	return flags
}

// Clear drops all commands, keeping allocations for the next frame.
func (rc *RenderCommands) Clear() {
	for i := range rc.passes {
		rc.passes[i] = rc.passes[i][:0]
		rc.hasPrimitive[i] = false
		rc.materialized[i] = 0
	}

	rc.stack = rc.stack[:0]
	rc.layers.Clear()
}

func (rc *RenderCommands) addGraphic(g render.Graphic, forcePass RenderPass) {
	switch g := g.(type) {
	case *Branch:
		rc.addBranch(g, forcePass)

	case *Batch:
		rc.pushState(pushBatchCmd(g))
		prevBatch := rc.batch
		rc.batch = g

		rc.addGraphic(g.Graphic, forcePass)

		rc.batch = prevBatch
		rc.popState()

	case *LayerContainer:
		rc.addLayerContainer(g)

	case *LayerGraphic:
		prevLayer := rc.layer
		rc.layer = g

		rc.addGraphic(g.Graphic, forcePass)

		rc.layer = prevLayer

	case *Primitive:
		rc.addPrimitive(g, forcePass)
	}
}

func (rc *RenderCommands) addBranch(b *Branch, forcePass RenderPass) {
	prevFlags := rc.flags
	prevOverrides := rc.overrides
	prevTransform := rc.transform

	if b.Opts.FlagOverrides != nil {
		rc.flags = *b.Opts.FlagOverrides
	}
	if b.Opts.Overrides != nil {
		rc.overrides = b.Opts.Overrides
	}
	if !b.Opts.Transform.IsZero() {
		rc.transform = rc.transform.Mul(b.Opts.Transform)
	}

	rc.pushState(pushBranchCmd(b))

	// classifier content renders into the classification pass, the
	// branch's own children are classified by it
	if cls := b.Opts.Classifier; cls != nil && cls.Graphic != nil {
		rc.addGraphic(cls.Graphic, PassClassification)
	}

	for _, child := range b.Children {
		rc.addGraphic(child, forcePass)
	}

	rc.popState()

	rc.flags = prevFlags
	rc.overrides = prevOverrides
	rc.transform = prevTransform
}

func (rc *RenderCommands) addLayerContainer(lc *LayerContainer) {
	prevContainer := rc.container

	rc.container = &containerState{
		pass:      lc.renderPass(),
		elevation: rc.containerElevation(),
		baseDepth: len(rc.stack),
	}

	rc.addGraphic(lc.Graphic, PassNone)

	rc.layers.CloseContainer()
	rc.container = prevContainer
}

// containerElevation computes the view space z of the current
// transform origin. All layers of one container share it.
func (rc *RenderCommands) containerElevation() float64 {
	origin := rc.transform.TransformPoint(glm.Vec3d{})
	return rc.viewMatrix.TransformPoint(origin)[2]
}

func (rc *RenderCommands) addPrimitive(p *Primitive, forcePass RenderPass) {
	if rc.container != nil {
		rc.addLayerPrimitive(p)
		return
	}

	pass := forcePass
	if pass == PassNone {
		pass = rc.passOf(p)
	}

	rc.appendPrimitive(pass, p)

	// classifier content is draped only, never edged or hilited
	if pass == PassClassification {
		return
	}

	// edges additionally render color-only into the hidden edge pass
	kind := p.Geom.Kind()
	if rc.flags.HiddenEdges && (kind == GeometryEdge || kind == GeometrySilhouette) {
		rc.appendPrimitive(PassHiddenEdge, p)
	}

	if rc.isHilited() {
		rc.appendPrimitive(PassHilite, p)
	}
}

func (rc *RenderCommands) addLayerPrimitive(p *Primitive) {
	if rc.layer == nil {
		// a container without layer identity still renders, as a
		// single anonymous layer
		rc.layers.Add(rc.container, &LayerGraphic{}, 0, rc.stack, p)
		return
	}

	priority := rc.overrides.SubCategoryPriority(rc.layer.SubCategory)
	rc.layers.Add(rc.container, rc.layer, priority, rc.stack, p)
}

// passOf derives the pass bucket of a primitive outside of layer
// containers.
func (rc *RenderCommands) passOf(p *Primitive) RenderPass {
	translucent := p.Params.HasTransparency() &&
		rc.flags.Transparency &&
		p.Geom.RenderOrder() == pixel.OrderSurface

	if translucent {
		return PassTranslucent
	}

	return p.Geom.opaquePass()
}

func (rc *RenderCommands) isHilited() bool {
	return rc.batch != nil && rc.overrides.IsHilited(rc.batch.Feature.Element)
}

// pushState records an open push command. The command only appears in
// the pass lists that actually receive primitives while it is open.
func (rc *RenderCommands) pushState(cmd DrawCommand) {
	rc.stack = append(rc.stack, cmd)
}

// popState closes the innermost open push command, emitting matching
// pops into every pass that materialized it.
func (rc *RenderCommands) popState() {
	depth := len(rc.stack) - 1
	push := rc.stack[depth]

	if rc.container != nil && depth >= rc.container.baseDepth {
		rc.layers.popState(push, depth-rc.container.baseDepth)
	}

	for p := range rc.passes {
		if rc.materialized[p] > depth {
			rc.passes[p] = append(rc.passes[p], popOf(push))
			rc.materialized[p] = depth
		}
	}

	rc.stack = rc.stack[:depth]
}

// appendPrimitive materializes the pending push commands into the
// pass, then appends the primitive.
func (rc *RenderCommands) appendPrimitive(pass RenderPass, p *Primitive) {
	cmds := rc.passes[pass]

	for i := rc.materialized[pass]; i < len(rc.stack); i++ {
		cmds = append(cmds, rc.stack[i])
	}

	rc.materialized[pass] = len(rc.stack)
	rc.passes[pass] = append(cmds, primitiveCmd(p))
	rc.hasPrimitive[pass] = true
}
