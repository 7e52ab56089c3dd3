// Package compositor renders a scene through the multi pass pipeline:
// background, opaque geometry in three batches with pick state ping
// pong copies in between, optional translucency and hilite resolved by
// a composite step, then overlays. Alongside the color image it
// maintains the pick attachments that ReadPixels decodes.
package compositor

import (
	"fmt"
	"log/slog"

	"github.com/oliverbestmann/webgpu/wgpu"

	"github.com/lumen3d/lumen/glm"
	"github.com/lumen3d/lumen/lumen"
	"github.com/lumen3d/lumen/pixel"
	"github.com/lumen3d/lumen/render"
)

// frameSegment groups render passes that encode into one GPU render
// pass. Segment boundaries are where the pick state is copied.
type frameSegment int

const (
	// planar classifier content, draped into its own texture before
	// the opaque passes sample it
	segClassification frameSegment = iota

	// background primitives, opaque layers and linear geometry
	segOpaqueFirst

	// planar geometry, testing against the first pick copy
	segOpaquePlanar

	// general geometry and hidden edges, testing against the second
	// pick copy
	segOpaqueFinal

	segTranslucent
	segHilite
	segOverlay

	numFrameSegments
)

type drawCall struct {
	geom   *CachedGeometry
	offset uint64

	pass RenderPass

	stencilTest  bool
	clipStamp    bool
	depthWrite   bool
	pickWrites   bool
	depthCompare wgpu.CompareFunction
}

type frameRecorder struct {
	segments [numFrameSegments][]drawCall

	// opaque geometry re-recorded from the sun's point of view
	shadowDraws []drawCall

	attachments *Attachments

	pickOnly      bool
	shadowsActive bool
	lightViewProj glm.Mat4d

	stampedClips map[*render.ClipVolume]struct{}
}

// DrawSceneOptions parameterizes one compositor frame.
type DrawSceneOptions struct {
	Commands *RenderCommands

	Plan       *render.RenderPlan
	Projection render.Projection

	// base symbology overrides, may be nil
	Overrides *render.FeatureOverrides

	// an enabled, synced shadow map adds the shadow pass and shadow
	// sampling to the opaque passes
	Shadows *SolarShadowMap

	// drop non locatable features from the pick buffers, for picking
	// frames only
	ExcludeNonLocatable bool

	Width, Height uint32

	// Flashed brightens one element toward white by FlashIntensity.
	Flashed        render.Id64
	FlashIntensity float32

	// Output receives the final color image. nil keeps the result in
	// the compositor's color attachment.
	Output *lumen.RenderTarget
}

// SceneCompositor owns the attachments and pipelines of the pass
// pipeline. One compositor serves one target; it is not safe for
// concurrent use.
type SceneCompositor struct {
	ctx *lumen.Context

	// frame sized attachments for visible rendering, and a separate
	// rect sized set for picking so a read never destroys the frame
	attachments     *Attachments
	pickAttachments *Attachments

	// the set the last draw rendered into; Read methods decode it
	readAttachments *Attachments

	arena *uniformArena

	// bound in place of the shadow map while shadows are off
	shadowFallbackDepth *lumen.Texture
	shadowFallbackBuf   *wgpu.Buffer

	scenePipelines          *lumen.PipelineCache[scenePipelineConfig]
	translucentPipelines    *lumen.PipelineCache[translucentPipelineConfig]
	hilitePipelines         *lumen.PipelineCache[hilitePipelineConfig]
	backgroundPipelines     *lumen.PipelineCache[backgroundPipelineConfig]
	compositePipelines      *lumen.PipelineCache[compositePipelineConfig]
	blitPipelines           *lumen.PipelineCache[blitPipelineConfig]
	clipPipelines           *lumen.PipelineCache[clipPipelineConfig]
	shadowPipelines         *lumen.PipelineCache[shadowPipelineConfig]
	classificationPipelines *lumen.PipelineCache[classificationPipelineConfig]

	samplers *lumen.SamplerCache

	frustumBuf    *wgpu.Buffer
	backgroundBuf *wgpu.Buffer
	compositeBuf  *wgpu.Buffer

	clipGeometry map[*render.ClipVolume]*CachedGeometry

	batchState BatchState
}

// NewSceneCompositor creates a compositor on the given context. The
// factory normally is a TextureFactory for the same context; tests
// substitute their own.
func NewSceneCompositor(ctx *lumen.Context, factory AttachmentFactory) *SceneCompositor {
	return &SceneCompositor{
		ctx:             ctx,
		attachments:     NewAttachments(factory),
		pickAttachments: NewAttachments(factory),
		arena:           newUniformArena(ctx),

		scenePipelines:          lumen.NewPipelineCache[scenePipelineConfig](ctx),
		translucentPipelines:    lumen.NewPipelineCache[translucentPipelineConfig](ctx),
		hilitePipelines:         lumen.NewPipelineCache[hilitePipelineConfig](ctx),
		backgroundPipelines:     lumen.NewPipelineCache[backgroundPipelineConfig](ctx),
		compositePipelines:      lumen.NewPipelineCache[compositePipelineConfig](ctx),
		blitPipelines:           lumen.NewPipelineCache[blitPipelineConfig](ctx),
		clipPipelines:           lumen.NewPipelineCache[clipPipelineConfig](ctx),
		shadowPipelines:         lumen.NewPipelineCache[shadowPipelineConfig](ctx),
		classificationPipelines: lumen.NewPipelineCache[classificationPipelineConfig](ctx),

		samplers: lumen.NewSamplerCache(ctx),

		clipGeometry: map[*render.ClipVolume]*CachedGeometry{},
	}
}

func (c *SceneCompositor) Attachments() *Attachments {
	return c.attachments
}

// PickAttachments is the separate attachment set picking frames draw
// into.
func (c *SceneCompositor) PickAttachments() *Attachments {
	return c.pickAttachments
}

// targetAttachments selects the attachment set of a frame: picking
// renders into its own rect sized set so the visible frame survives.
func (c *SceneCompositor) targetAttachments(pickOnly bool) *Attachments {
	if pickOnly {
		return c.pickAttachments
	}

	return c.attachments
}

// Draw renders one full frame: all passes, compositing and the final
// copy into the output target.
func (c *SceneCompositor) Draw(opts DrawSceneOptions) error {
	defer c.batchState.Reset()

	rec, err := c.record(&opts, false)
	if err != nil {
		return err
	}

	return c.encodeFrame(rec, &opts, false)
}

// DrawForReadPixels renders only the opaque passes with pick output,
// skipping background styling, translucency, compositing and
// overlays. The pick attachments afterwards hold exactly the state
// ReadPixels decodes.
func (c *SceneCompositor) DrawForReadPixels(opts DrawSceneOptions) error {
	defer c.batchState.Reset()

	rec, err := c.record(&opts, true)
	if err != nil {
		return err
	}

	return c.encodeFrame(rec, &opts, true)
}

func (c *SceneCompositor) record(opts *DrawSceneOptions, pickOnly bool) (*frameRecorder, error) {
	if opts.Width == 0 || opts.Height == 0 {
		return nil, fmt.Errorf("compositor: invalid frame size %dx%d", opts.Width, opts.Height)
	}

	attachments := c.targetAttachments(pickOnly)

	changed, err := attachments.Update(opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("update attachments: %w", err)
	}

	if changed {
		slog.Debug("Compositor attachments resized",
			slog.Int("width", int(opts.Width)),
			slog.Int("height", int(opts.Height)),
			slog.Bool("pick", pickOnly))
	}

	c.arena.reset()

	rec := &frameRecorder{
		attachments:  attachments,
		pickOnly:     pickOnly,
		stampedClips: map[*render.ClipVolume]struct{}{},
	}

	if !pickOnly && opts.Shadows != nil && opts.Shadows.IsEnabled() {
		rec.shadowsActive = true
		rec.lightViewProj = opts.Shadows.LightViewProj()
	}

	segments := []struct {
		seg  frameSegment
		pass RenderPass
	}{
		{segClassification, PassClassification},
		{segOpaqueFirst, PassBackground},
		{segOpaqueFirst, PassOpaqueLayers},
		{segOpaqueFirst, PassOpaqueLinear},
		{segOpaquePlanar, PassOpaquePlanar},
		{segOpaqueFinal, PassOpaqueGeneral},
		{segOpaqueFinal, PassHiddenEdge},
		{segTranslucent, PassTranslucentLayers},
		{segTranslucent, PassTranslucent},
		{segHilite, PassHilite},
		{segOverlay, PassOverlayLayers},
		{segOverlay, PassWorldOverlay},
		{segOverlay, PassViewOverlay},
	}

	for _, entry := range segments {
		if pickOnly && entry.seg > segOpaqueFinal {
			continue
		}

		// picking needs neither styling nor the color only passes
		if pickOnly {
			switch entry.pass {
			case PassBackground, PassHiddenEdge, PassClassification:
				continue
			}
		}

		if err := c.recordPass(rec, entry.seg, entry.pass, opts); err != nil {
			return nil, err
		}
	}

	c.readAttachments = attachments

	if err := c.arena.upload(); err != nil {
		return nil, err
	}

	return rec, nil
}

// recordPass executes one pass command list against a fresh branch
// stack, turning primitives into draw calls.
func (c *SceneCompositor) recordPass(rec *frameRecorder, seg frameSegment, pass RenderPass, opts *DrawSceneOptions) error {
	cmds := opts.Commands.Commands(pass)
	if len(cmds) == 0 {
		return nil
	}

	stack := NewBranchStack(opts.Plan.Flags, opts.Overrides)

	for _, cmd := range cmds {
		switch cmd.Kind {
		case CmdPushBranch:
			stack.PushBranch(cmd.Branch)

		case CmdPopBranch:
			stack.Pop()

		case CmdPushBatch:
			c.batchState.Push(cmd.Batch)

		case CmdPopBatch:
			c.batchState.Pop()

		case CmdPrimitive:
			if err := c.recordPrimitive(rec, seg, pass, stack, cmd.Primitive, opts); err != nil {
				return err
			}
		}
	}

	if depth := stack.Depth(); depth != 0 {
		return fmt.Errorf("compositor: unbalanced command list for pass %s, depth %d", pass, depth)
	}

	return nil
}

func (c *SceneCompositor) recordPrimitive(rec *frameRecorder, seg frameSegment, pass RenderPass, stack *BranchStack, p *Primitive, opts *DrawSceneOptions) error {
	feature := c.batchState.Feature()
	overrides := stack.Overrides()
	flags := stack.Flags()

	color := p.Params.FillColor

	if overrides != nil {
		if app, ok := overrides.Appearance(feature.Element); ok {
			if app.Hidden {
				return nil
			}
			if app.Color != nil {
				color = *app.Color
			}
		}
	}

	if flags.Monochrome {
		color = opts.Plan.MonochromeColor.WithAlpha(color.Alpha())
	}

	if opts.FlashIntensity > 0 && feature.Element == opts.Flashed {
		color = flashColor(color, opts.FlashIntensity)
	}

	if pass == PassHiddenEdge {
		if hl := opts.Plan.HiddenLine; hl != nil && hl.Hidden.OverrideColor != nil {
			color = *hl.Hidden.OverrideColor
		}
	}

	clip := stack.Clip()
	if clip == nil && flags.ClipVolume {
		clip = opts.Plan.Clip
	}

	// only scene geometry is clipped, overlays and background are not
	clipActive := clip != nil && flags.ClipVolume &&
		seg != segOverlay && pass != PassBackground

	if clipActive {
		if err := c.recordClipStamp(rec, seg, opts, clip); err != nil {
			return err
		}
	}

	transform := stack.Transform()

	if pass == PassClassification {
		cls := stack.Classifier()
		if cls == nil {
			return nil
		}

		// classifier content is draped: flattened onto its elevation
		// plane, then projected like the rest of the scene
		transform = glm.TranslationMat4(0.0, 0, cls.Elevation).
			Scale(1, 1, 0).
			Mul(transform)
	}

	gd := geometryDraw{
		seg:  seg,
		pass: pass,

		mvp: opts.Projection.Proj.
			Mul(opts.Projection.View).
			Mul(transform),

		color:   color,
		feature: feature,

		clipActive: clipActive,
		classified: !rec.pickOnly && stack.Classifier() != nil && pass != PassClassification,

		excludeNonLocatable: opts.ExcludeNonLocatable,
	}

	if rec.shadowsActive && castsShadow(seg, pass) {
		gd.shadowMVP = rec.lightViewProj.Mul(stack.Transform())
		gd.castsShadow = true
	}

	return c.recordGeometry(rec, p.Geom, gd)
}

// castsShadow reports whether geometry of a pass renders into the
// solar shadow map.
func castsShadow(seg frameSegment, pass RenderPass) bool {
	if seg > segOpaqueFinal || seg == segClassification {
		return false
	}

	return pass != PassBackground && pass != PassHiddenEdge
}

// geometryDraw is the resolved per primitive draw state recordGeometry
// turns into draw calls.
type geometryDraw struct {
	seg  frameSegment
	pass RenderPass

	mvp       glm.Mat4d
	shadowMVP glm.Mat4d

	color   lumen.Color
	feature render.Feature

	clipActive          bool
	classified          bool
	castsShadow         bool
	excludeNonLocatable bool
}

func (c *SceneCompositor) recordGeometry(rec *frameRecorder, geom *CachedGeometry, gd geometryDraw) error {
	if geom.Kind() == GeometryComposite {
		for _, child := range geom.Children() {
			if err := c.recordGeometry(rec, child, gd); err != nil {
				return err
			}
		}
		return nil
	}

	order := pixel.OrderValue(geom.RenderOrder(), geom.Planar())
	if gd.pass == PassBackground {
		order = 0
	}

	low, high := featureIDWords(gd.feature, gd.excludeNonLocatable)

	// planar geometry tests against the pick copy once one exists
	planarTest := geom.Planar() && gd.seg > segOpaqueFirst && gd.seg <= segOpaqueFinal

	uniforms := drawUniforms{
		ModelViewProj: gd.mvp.ToWGPU(),
		Color:         gd.color.ToWGPU(),
		FeatureLow:    encodeIDWord(low),
		FeatureHigh:   encodeIDWord(high),
		Misc: [4]float32{
			float32(order),
			boolToFloat(planarTest),
			boolToFloat(gd.classified),
			0,
		},
	}

	if gd.castsShadow {
		uniforms.ShadowMatrix = gd.shadowMVP.ToWGPU()
	}

	offset := c.arena.push(uniforms)

	rec.segments[gd.seg] = append(rec.segments[gd.seg], drawCall{
		geom:         geom,
		offset:       offset,
		pass:         gd.pass,
		stencilTest:  gd.clipActive,
		depthWrite:   passDepthWrite(gd.pass),
		pickWrites:   passPickWrites(gd.pass),
		depthCompare: passDepthCompare(gd.pass),
	})

	if gd.castsShadow {
		rec.shadowDraws = append(rec.shadowDraws, drawCall{
			geom:   geom,
			offset: offset,
		})
	}

	return nil
}

// featureIDWords returns the element id halves a draw writes into the
// pick buffers. Non locatable features are dropped only when a picking
// frame asks for it.
func featureIDWords(feature render.Feature, excludeNonLocatable bool) (low, high uint32) {
	if excludeNonLocatable && !feature.Locatable {
		return 0, 0
	}

	return feature.Element.Pair()
}

// recordClipStamp renders the clip mask into the stencil once per
// clip volume and frame, before the first clipped draw.
func (c *SceneCompositor) recordClipStamp(rec *frameRecorder, seg frameSegment, opts *DrawSceneOptions, clip *render.ClipVolume) error {
	if _, done := rec.stampedClips[clip]; done {
		return nil
	}

	rec.stampedClips[clip] = struct{}{}

	geom, err := c.clipMaskGeometry(clip)
	if err != nil {
		return err
	}

	if geom == nil {
		return nil
	}

	// the clip outline is given in world space, no branch transform
	// applies
	mvp := opts.Projection.Proj.Mul(opts.Projection.View)

	rec.segments[seg] = append(rec.segments[seg], drawCall{
		geom:      geom,
		offset:    c.arena.push(drawUniforms{ModelViewProj: mvp.ToWGPU()}),
		clipStamp: true,
	})

	return nil
}

func (c *SceneCompositor) clipMaskGeometry(clip *render.ClipVolume) (*CachedGeometry, error) {
	if geom, ok := c.clipGeometry[clip]; ok {
		return geom, nil
	}

	triangles := clip.Triangulate()
	if len(triangles) == 0 {
		c.clipGeometry[clip] = nil
		return nil, nil
	}

	geom, err := NewGeometry(c.ctx, NewGeometryOptions{
		Kind:      GeometrySurfaceMesh,
		Planar:    true,
		Positions: triangles,
		Label:     "Clip.Mask",
	})

	if err != nil {
		return nil, fmt.Errorf("create clip mask geometry: %w", err)
	}

	c.clipGeometry[clip] = geom
	return geom, nil
}

// ReadPixels reads back a region of the pick attachments and wraps it
// for decoding. The caller must have drawn via DrawForReadPixels (or
// Draw) first; the region uses view coordinates with a top left
// origin.
func (c *SceneCompositor) ReadPixels(region lumen.Rectangle2u, selector pixel.Selector) (*pixel.Buffer, error) {
	if selector == pixel.SelectNone {
		return nil, fmt.Errorf("compositor: empty pixel selector")
	}

	var elemLow, elemHigh, depthOrder []byte

	a := c.drawnAttachments()

	if selector&pixel.SelectFeature != 0 {
		var err error

		if elemLow, err = c.readAttachment(a.IDLow, region); err != nil {
			return nil, fmt.Errorf("read element id low: %w", err)
		}

		if elemHigh, err = c.readAttachment(a.IDHigh, region); err != nil {
			return nil, fmt.Errorf("read element id high: %w", err)
		}
	}

	if selector&pixel.SelectGeometryAndDistance != 0 {
		var err error

		if depthOrder, err = c.readAttachment(a.DepthAndOrder, region); err != nil {
			return nil, fmt.Errorf("read depth and order: %w", err)
		}
	}

	return pixel.NewBuffer(region, selector, elemLow, elemHigh, depthOrder), nil
}

// ReadDepthAndOrder reads the raw depth and order attachment bytes of
// a region, bottom-up.
func (c *SceneCompositor) ReadDepthAndOrder(region lumen.Rectangle2u) ([]byte, error) {
	return c.readAttachment(c.drawnAttachments().DepthAndOrder, region)
}

// ReadElementIDs reads the two element id attachments of a region,
// bottom-up.
func (c *SceneCompositor) ReadElementIDs(region lumen.Rectangle2u) (low, high []byte, err error) {
	a := c.drawnAttachments()

	if low, err = c.readAttachment(a.IDLow, region); err != nil {
		return nil, nil, err
	}

	if high, err = c.readAttachment(a.IDHigh, region); err != nil {
		return nil, nil, err
	}

	return low, high, nil
}

// drawnAttachments is the attachment set the most recent frame
// rendered into. Picking frames use their own attachments so they can
// not clobber the visible frame.
func (c *SceneCompositor) drawnAttachments() *Attachments {
	if c.readAttachments != nil {
		return c.readAttachments
	}

	return c.attachments
}

// ReadImage reads the composited color attachment of a region,
// top-down as rendered.
func (c *SceneCompositor) ReadImage(region lumen.Rectangle2u) ([]byte, error) {
	tex := lumen.WrapTexture(c.attachments.Color.Texture(), nil)

	return lumen.ReadTexturePixels(c.ctx, tex, lumen.ReadTextureOptions{
		Region: region,
	})
}

func (c *SceneCompositor) readAttachment(att Attachment, region lumen.Rectangle2u) ([]byte, error) {
	tex := lumen.WrapTexture(att.Texture(), nil)

	// the pick buffers are decoded with a bottom left origin
	return lumen.ReadTexturePixels(c.ctx, tex, lumen.ReadTextureOptions{
		Region: region,
		FlipY:  true,
	})
}

func (c *SceneCompositor) Release() {
	c.attachments.Release()
	c.pickAttachments.Release()
	c.readAttachments = nil
	c.arena.release()

	c.scenePipelines.Purge()
	c.translucentPipelines.Purge()
	c.hilitePipelines.Purge()
	c.backgroundPipelines.Purge()
	c.compositePipelines.Purge()
	c.blitPipelines.Purge()
	c.clipPipelines.Purge()
	c.shadowPipelines.Purge()
	c.classificationPipelines.Purge()

	if c.shadowFallbackDepth != nil {
		c.shadowFallbackDepth.Release()
		c.shadowFallbackDepth = nil
	}

	if c.shadowFallbackBuf != nil {
		c.shadowFallbackBuf.Release()
		c.shadowFallbackBuf = nil
	}

	c.samplers.Purge()

	for _, geom := range c.clipGeometry {
		if geom != nil {
			geom.Release()
		}
	}
	clear(c.clipGeometry)

	for _, buf := range []*wgpu.Buffer{c.frustumBuf, c.backgroundBuf, c.compositeBuf} {
		if buf != nil {
			buf.Release()
		}
	}

	c.frustumBuf, c.backgroundBuf, c.compositeBuf = nil, nil, nil
}

func passDepthWrite(pass RenderPass) bool {
	switch pass {
	case PassBackground, PassHiddenEdge, PassViewOverlay:
		return false
	default:
		return true
	}
}

func passDepthCompare(pass RenderPass) wgpu.CompareFunction {
	switch pass {
	case PassViewOverlay:
		return wgpu.CompareFunctionAlways

	case PassHiddenEdge:
		// hidden edges only show where opaque geometry is in front
		return wgpu.CompareFunctionGreater

	default:
		return wgpu.CompareFunctionLessEqual
	}
}

// passPickWrites reports whether a pass updates the pick attachments.
// Hidden edges render on top of geometry that occludes them, so they
// must not replace that geometry's pick data.
func passPickWrites(pass RenderPass) bool {
	return pass != PassHiddenEdge
}

func encodeIDWord(word uint32) [4]float32 {
	return [4]float32{
		float32(word&0xff) / 255,
		float32((word>>8)&0xff) / 255,
		float32((word>>16)&0xff) / 255,
		float32((word>>24)&0xff) / 255,
	}
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}

	return 0
}

// flashColor mixes a color toward white, keeping its alpha.
func flashColor(color lumen.Color, intensity float32) lumen.Color {
	r, g, b, a := color.Components()

	return lumen.ColorLinearRGBA(
		r+(1-r)*intensity,
		g+(1-g)*intensity,
		b+(1-b)*intensity,
		a,
	)
}
