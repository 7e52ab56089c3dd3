package compositor

import (
	"fmt"
	"unsafe"

	"github.com/oliverbestmann/webgpu/wgpu"

	"github.com/lumen3d/lumen/lumen"
)

type backgroundUniforms struct {
	Upper [4]float32
	Lower [4]float32
}

type compositeUniforms struct {
	HiliteColor [4]float32

	// x: visible hilite ratio, y: hidden hilite ratio, z: resolve
	// translucency, w: resolve hilite
	Params [4]float32
}

var drawUniformsSize = uint64(unsafe.Sizeof(drawUniforms{}))

// releaseSet collects resources that must stay alive until the frame
// is submitted.
type releaseSet struct {
	items []lumen.Releaser
}

func (r *releaseSet) add(item lumen.Releaser) {
	r.items = append(r.items, item)
}

func (r *releaseSet) Release() {
	for _, item := range r.items {
		item.Release()
	}

	r.items = r.items[:0]
}

func (c *SceneCompositor) encodeFrame(rec *frameRecorder, opts *DrawSceneOptions, pickOnly bool) error {
	flags := opts.Commands.CompositeFlags()

	if err := c.syncFrameUniforms(opts, flags); err != nil {
		return err
	}

	shadow, err := c.resolveShadowBinding(rec, opts)
	if err != nil {
		return err
	}

	encoder, err := c.ctx.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "Compositor.Frame",
	})

	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}

	defer encoder.Release()

	cleanup := &releaseSet{}
	defer cleanup.Release()

	a := rec.attachments

	// shadow map and classification texture render first, the opaque
	// passes sample both
	if rec.shadowsActive {
		if err := c.encodeShadowPass(encoder, rec, opts.Shadows, cleanup); err != nil {
			return err
		}
	}

	if !pickOnly {
		if err := c.encodeClassification(encoder, a, rec.segments[segClassification], cleanup); err != nil {
			return err
		}

		if err := c.encodeBackground(encoder, a, opts, cleanup); err != nil {
			return err
		}
	}

	// the first opaque segment clears the pick attachments and depth;
	// in pick only frames it clears the color attachment too
	err = c.encodeSceneSegment(encoder, a, rec.segments[segOpaqueFirst], cleanup, shadow, sceneSegmentOptions{
		clearPick:  true,
		clearColor: pickOnly,
	})

	if err != nil {
		return err
	}

	a.CopyPickState(encoder)

	if err := c.encodeSceneSegment(encoder, a, rec.segments[segOpaquePlanar], cleanup, shadow, sceneSegmentOptions{}); err != nil {
		return err
	}

	a.CopyPickState(encoder)

	if err := c.encodeSceneSegment(encoder, a, rec.segments[segOpaqueFinal], cleanup, shadow, sceneSegmentOptions{}); err != nil {
		return err
	}

	if !pickOnly {
		if flags&CompositeTranslucent != 0 {
			if err := c.encodeTranslucent(encoder, a, rec.segments[segTranslucent], cleanup); err != nil {
				return err
			}
		}

		if flags&CompositeHilite != 0 {
			if err := c.encodeHilite(encoder, a, rec.segments[segHilite], cleanup); err != nil {
				return err
			}
		}

		if flags.NeedComposite() {
			if err := c.encodeComposite(encoder, a, cleanup); err != nil {
				return err
			}
		}

		if err := c.encodeSceneSegment(encoder, a, rec.segments[segOverlay], cleanup, shadow, sceneSegmentOptions{}); err != nil {
			return err
		}

		if opts.Output != nil {
			if err := c.encodeBlit(encoder, a, opts.Output, cleanup); err != nil {
				return err
			}
		}
	}

	cmdBuffer, err := encoder.Finish(&wgpu.CommandBufferDescriptor{Label: "Compositor.Frame"})
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}

	defer cmdBuffer.Release()

	c.ctx.Queue.Submit(cmdBuffer)

	return nil
}

func (c *SceneCompositor) syncFrameUniforms(opts *DrawSceneOptions, flags CompositeFlags) error {
	frustum := FrustumUniformsOf(opts.Projection)
	if err := c.writeUniform(&c.frustumBuf, "Compositor.FrustumUniforms", lumen.AsByteSlice(&frustum)); err != nil {
		return err
	}

	bg := opts.Plan.BackgroundColor.ToWGPU()
	background := backgroundUniforms{Upper: bg, Lower: bg}
	if err := c.writeUniform(&c.backgroundBuf, "Compositor.BackgroundUniforms", lumen.AsByteSlice(&background)); err != nil {
		return err
	}

	composite := compositeUniforms{
		HiliteColor: opts.Plan.Hilite.Color.ToWGPU(),
		Params: [4]float32{
			opts.Plan.Hilite.VisibleRatio,
			opts.Plan.Hilite.HiddenRatio,
			boolToFloat(flags&CompositeTranslucent != 0),
			boolToFloat(flags&CompositeHilite != 0),
		},
	}

	return c.writeUniform(&c.compositeBuf, "Compositor.CompositeUniforms", lumen.AsByteSlice(&composite))
}

// shadowBinding is what the opaque passes bind for shadow sampling.
// While shadows are off it points at the fallback resources, whose
// uniform flag disables the sampling in the shader.
type shadowBinding struct {
	uniforms *wgpu.Buffer
	depth    *wgpu.TextureView
}

func (c *SceneCompositor) resolveShadowBinding(rec *frameRecorder, opts *DrawSceneOptions) (shadowBinding, error) {
	if rec.shadowsActive {
		if err := opts.Shadows.Sync(); err != nil {
			return shadowBinding{}, err
		}

		depth, err := opts.Shadows.DepthView()
		if err != nil {
			return shadowBinding{}, err
		}

		return shadowBinding{uniforms: opts.Shadows.UniformBuffer(), depth: depth}, nil
	}

	if c.shadowFallbackDepth == nil {
		depth, err := lumen.NewTexture(c.ctx, lumen.NewTextureOptions{
			Format: formatShadowDepth,
			Width:  1,
			Height: 1,
			Usage:  wgpu.TextureUsageTextureBinding,
			Label:  "Shadow.FallbackDepth",
		})

		if err != nil {
			return shadowBinding{}, fmt.Errorf("create shadow fallback texture: %w", err)
		}

		c.shadowFallbackDepth = depth
	}

	if c.shadowFallbackBuf == nil {
		var zero shadowUniforms

		buf, err := c.ctx.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Shadow.FallbackUniforms",
			Size:  uint64(unsafe.Sizeof(zero)),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})

		if err != nil {
			return shadowBinding{}, fmt.Errorf("create shadow fallback buffer: %w", err)
		}

		if err := c.ctx.Queue.WriteBuffer(buf, 0, lumen.AsByteSlice(&zero)); err != nil {
			buf.Release()
			return shadowBinding{}, fmt.Errorf("clear shadow fallback buffer: %w", err)
		}

		c.shadowFallbackBuf = buf
	}

	return shadowBinding{uniforms: c.shadowFallbackBuf, depth: c.shadowFallbackDepth.View()}, nil
}

// encodeShadowPass renders the casting geometry depth only into the
// solar shadow map.
func (c *SceneCompositor) encodeShadowPass(encoder *wgpu.CommandEncoder, rec *frameRecorder, shadows *SolarShadowMap, cleanup *releaseSet) error {
	depth, err := shadows.DepthView()
	if err != nil {
		return err
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Compositor.Shadow",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})

	passGuard := lumen.NewReleaseGuard(pass)
	defer passGuard.Release()

	for _, dc := range rec.shadowDraws {
		pipeline, err := c.shadowPipelines.Get(shadowPipelineConfig{
			Topology: dc.geom.Topology(),
		})

		if err != nil {
			return err
		}

		bindGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: c.arena.buffer(), Offset: dc.offset, Size: drawUniformsSize},
			},
		})

		if err != nil {
			return fmt.Errorf("create shadow bind group: %w", err)
		}

		cleanup.add(bindGroup)

		pass.SetPipeline(pipeline.Pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.SetVertexBuffer(0, dc.geom.Vertices(), 0, wgpu.WholeSize)
		pass.Draw(dc.geom.VertexCount(), 1, 0, 0)
	}

	return pass.End()
}

// encodeClassification drapes the classifier content into the
// classification texture. The pass also runs with no draws so stale
// content from an earlier frame cannot leak through.
func (c *SceneCompositor) encodeClassification(encoder *wgpu.CommandEncoder, a *Attachments, draws []drawCall, cleanup *releaseSet) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Compositor.Classification",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       a.Classification.View(),
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})

	passGuard := lumen.NewReleaseGuard(pass)
	defer passGuard.Release()

	for _, dc := range draws {
		pipeline, err := c.classificationPipelines.Get(classificationPipelineConfig{
			Topology: dc.geom.Topology(),
		})

		if err != nil {
			return err
		}

		bindGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: c.arena.buffer(), Offset: dc.offset, Size: drawUniformsSize},
			},
		})

		if err != nil {
			return fmt.Errorf("create classification bind group: %w", err)
		}

		cleanup.add(bindGroup)

		pass.SetPipeline(pipeline.Pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.SetVertexBuffer(0, dc.geom.Vertices(), 0, wgpu.WholeSize)
		pass.Draw(dc.geom.VertexCount(), 1, 0, 0)
	}

	return pass.End()
}

func (c *SceneCompositor) writeUniform(buf **wgpu.Buffer, label string, data []byte) error {
	if *buf == nil {
		created, err := c.ctx.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})

		if err != nil {
			return fmt.Errorf("create %s: %w", label, err)
		}

		*buf = created
	}

	if err := c.ctx.Queue.WriteBuffer(*buf, 0, data); err != nil {
		return fmt.Errorf("update %s: %w", label, err)
	}

	return nil
}

// encodeBackground clears the color attachment to the background
// color and draws the gradient over it.
func (c *SceneCompositor) encodeBackground(encoder *wgpu.CommandEncoder, a *Attachments, opts *DrawSceneOptions, cleanup *releaseSet) error {
	bg := opts.Plan.BackgroundColor.ToWGPU()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Compositor.Background",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    a.Color.View(),
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(bg[0]),
					G: float64(bg[1]),
					B: float64(bg[2]),
					A: float64(bg[3]),
				},
			},
		},
	})

	passGuard := lumen.NewReleaseGuard(pass)
	defer passGuard.Release()

	pipeline, err := c.backgroundPipelines.Get(backgroundPipelineConfig{TargetFormat: formatColor})
	if err != nil {
		return err
	}

	bindGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: c.backgroundBuf, Size: wgpu.WholeSize},
		},
	})

	if err != nil {
		return fmt.Errorf("create background bind group: %w", err)
	}

	cleanup.add(bindGroup)

	pass.SetPipeline(pipeline.Pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Draw(3, 1, 0, 0)

	return pass.End()
}

type sceneSegmentOptions struct {
	clearPick  bool
	clearColor bool
}

func (c *SceneCompositor) encodeSceneSegment(encoder *wgpu.CommandEncoder, a *Attachments, draws []drawCall, cleanup *releaseSet, shadow shadowBinding, segOpts sceneSegmentOptions) error {
	if len(draws) == 0 && !segOpts.clearPick {
		return nil
	}

	colorLoad := wgpu.LoadOpLoad
	if segOpts.clearColor {
		colorLoad = wgpu.LoadOpClear
	}

	pickLoad := wgpu.LoadOpLoad
	depthLoad := wgpu.LoadOpLoad
	if segOpts.clearPick {
		pickLoad = wgpu.LoadOpClear
		depthLoad = wgpu.LoadOpClear
	}

	pickAttachment := func(att Attachment) wgpu.RenderPassColorAttachment {
		return wgpu.RenderPassColorAttachment{
			View:    att.View(),
			LoadOp:  pickLoad,
			StoreOp: wgpu.StoreOpStore,
		}
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Compositor.Opaque",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{View: a.Color.View(), LoadOp: colorLoad, StoreOp: wgpu.StoreOpStore},
			pickAttachment(a.IDLow),
			pickAttachment(a.IDHigh),
			pickAttachment(a.DepthAndOrder),
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              a.Depth.View(),
			DepthLoadOp:       depthLoad,
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   1,
			StencilLoadOp:     depthLoad,
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: 0,
		},
	})

	passGuard := lumen.NewReleaseGuard(pass)
	defer passGuard.Release()

	pass.SetStencilReference(1)

	for _, dc := range draws {
		if dc.clipStamp {
			if err := c.encodeClipStamp(pass, dc, cleanup); err != nil {
				return err
			}

			continue
		}

		pipeline, err := c.scenePipelines.Get(scenePipelineConfig{
			Topology:     dc.geom.Topology(),
			DepthCompare: dc.depthCompare,
			StencilTest:  dc.stencilTest,
			DepthWrite:   dc.depthWrite,
			PickWrites:   dc.pickWrites,
		})

		if err != nil {
			return err
		}

		drawGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: c.arena.buffer(), Offset: dc.offset, Size: drawUniformsSize},
			},
		})

		if err != nil {
			return fmt.Errorf("create draw bind group: %w", err)
		}

		cleanup.add(drawGroup)

		shadowSampler, err := c.samplers.Get(wgpu.SamplerDescriptor{
			Label:         "Compositor.ShadowSampler",
			MagFilter:     wgpu.FilterModeLinear,
			MinFilter:     wgpu.FilterModeLinear,
			Compare:       wgpu.CompareFunctionLessEqual,
			MaxAnisotropy: 1,
		})

		if err != nil {
			return err
		}

		frameGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: pipeline.GetBindGroupLayout(1),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: c.frustumBuf, Size: wgpu.WholeSize},
				{Binding: 1, TextureView: a.DepthAndOrderCopy.View()},
				{Binding: 2, Buffer: shadow.uniforms, Size: wgpu.WholeSize},
				{Binding: 3, TextureView: shadow.depth},
				{Binding: 4, Sampler: shadowSampler},
				{Binding: 5, TextureView: a.Classification.View()},
			},
		})

		if err != nil {
			return fmt.Errorf("create frame bind group: %w", err)
		}

		cleanup.add(frameGroup)

		pass.SetPipeline(pipeline.Pipeline)
		pass.SetBindGroup(0, drawGroup, nil)
		pass.SetBindGroup(1, frameGroup, nil)
		pass.SetVertexBuffer(0, dc.geom.Vertices(), 0, wgpu.WholeSize)
		pass.Draw(dc.geom.VertexCount(), 1, 0, 0)
	}

	return pass.End()
}

func (c *SceneCompositor) encodeClipStamp(pass *wgpu.RenderPassEncoder, dc drawCall, cleanup *releaseSet) error {
	pipeline, err := c.clipPipelines.Get(clipPipelineConfig{
		Topology: wgpu.PrimitiveTopologyTriangleList,
	})

	if err != nil {
		return err
	}

	bindGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: c.arena.buffer(), Offset: dc.offset, Size: drawUniformsSize},
		},
	})

	if err != nil {
		return fmt.Errorf("create clip bind group: %w", err)
	}

	cleanup.add(bindGroup)

	pass.SetPipeline(pipeline.Pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.SetVertexBuffer(0, dc.geom.Vertices(), 0, wgpu.WholeSize)
	pass.Draw(dc.geom.VertexCount(), 1, 0, 0)

	return nil
}

func (c *SceneCompositor) encodeTranslucent(encoder *wgpu.CommandEncoder, a *Attachments, draws []drawCall, cleanup *releaseSet) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Compositor.Translucent",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       a.Accumulation.View(),
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
			{
				View:       a.Revealage.View(),
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 1, G: 1, B: 1, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            a.Depth.View(),
			DepthReadOnly:   true,
			StencilReadOnly: true,
		},
	})

	passGuard := lumen.NewReleaseGuard(pass)
	defer passGuard.Release()

	for _, dc := range draws {
		pipeline, err := c.translucentPipelines.Get(translucentPipelineConfig{
			Topology: dc.geom.Topology(),
		})

		if err != nil {
			return err
		}

		bindGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: c.arena.buffer(), Offset: dc.offset, Size: drawUniformsSize},
			},
		})

		if err != nil {
			return fmt.Errorf("create translucent bind group: %w", err)
		}

		cleanup.add(bindGroup)

		pass.SetPipeline(pipeline.Pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.SetVertexBuffer(0, dc.geom.Vertices(), 0, wgpu.WholeSize)
		pass.Draw(dc.geom.VertexCount(), 1, 0, 0)
	}

	return pass.End()
}

// encodeHilite renders the hilite mask in two phases: first without a
// depth test, marking every hilited fragment as hidden, then depth
// tested, overwriting the visible portion with the full mask value.
// The composite step maps the two values onto their ratios.
func (c *SceneCompositor) encodeHilite(encoder *wgpu.CommandEncoder, a *Attachments, draws []drawCall, cleanup *releaseSet) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Compositor.Hilite",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       a.Hilite.View(),
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            a.Depth.View(),
			DepthReadOnly:   true,
			StencilReadOnly: true,
		},
	})

	passGuard := lumen.NewReleaseGuard(pass)
	defer passGuard.Release()

	for _, hidden := range []bool{true, false} {
		for _, dc := range draws {
			pipeline, err := c.hilitePipelines.Get(hilitePipelineConfig{
				Topology: dc.geom.Topology(),
				Hidden:   hidden,
			})

			if err != nil {
				return err
			}

			bindGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Layout: pipeline.GetBindGroupLayout(0),
				Entries: []wgpu.BindGroupEntry{
					{Binding: 0, Buffer: c.arena.buffer(), Offset: dc.offset, Size: drawUniformsSize},
				},
			})

			if err != nil {
				return fmt.Errorf("create hilite bind group: %w", err)
			}

			cleanup.add(bindGroup)

			pass.SetPipeline(pipeline.Pipeline)
			pass.SetBindGroup(0, bindGroup, nil)
			pass.SetVertexBuffer(0, dc.geom.Vertices(), 0, wgpu.WholeSize)
			pass.Draw(dc.geom.VertexCount(), 1, 0, 0)
		}
	}

	return pass.End()
}

// encodeComposite resolves translucency and hilite onto the color
// attachment with one fullscreen draw.
func (c *SceneCompositor) encodeComposite(encoder *wgpu.CommandEncoder, a *Attachments, cleanup *releaseSet) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Compositor.Composite",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{View: a.Color.View(), LoadOp: wgpu.LoadOpLoad, StoreOp: wgpu.StoreOpStore},
		},
	})

	passGuard := lumen.NewReleaseGuard(pass)
	defer passGuard.Release()

	pipeline, err := c.compositePipelines.Get(compositePipelineConfig{TargetFormat: formatColor})
	if err != nil {
		return err
	}

	bindGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: c.compositeBuf, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: a.Accumulation.View()},
			{Binding: 2, TextureView: a.Revealage.View()},
			{Binding: 3, TextureView: a.Hilite.View()},
		},
	})

	if err != nil {
		return fmt.Errorf("create composite bind group: %w", err)
	}

	cleanup.add(bindGroup)

	pass.SetPipeline(pipeline.Pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Draw(3, 1, 0, 0)

	return pass.End()
}

func (c *SceneCompositor) encodeBlit(encoder *wgpu.CommandEncoder, a *Attachments, output *lumen.RenderTarget, cleanup *releaseSet) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Compositor.Blit",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{View: output.View, LoadOp: wgpu.LoadOpClear, StoreOp: wgpu.StoreOpStore},
		},
	})

	passGuard := lumen.NewReleaseGuard(pass)
	defer passGuard.Release()

	pipeline, err := c.blitPipelines.Get(blitPipelineConfig{TargetFormat: output.Format})
	if err != nil {
		return err
	}

	sampler, err := c.samplers.Get(wgpu.SamplerDescriptor{
		Label:         "Compositor.BlitSampler",
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})

	if err != nil {
		return err
	}

	bindGroup, err := c.ctx.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: a.Color.View()},
			{Binding: 1, Sampler: sampler},
		},
	})

	if err != nil {
		return fmt.Errorf("create blit bind group: %w", err)
	}

	cleanup.add(bindGroup)

	pass.SetPipeline(pipeline.Pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Draw(3, 1, 0, 0)

	return pass.End()
}
