package compositor

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/oliverbestmann/webgpu/wgpu"

	"github.com/lumen3d/lumen/lumen"
)

//go:embed shader-opaque.wgsl
var opaqueShaderCode string

//go:embed shader-background.wgsl
var backgroundShaderCode string

//go:embed shader-translucent.wgsl
var translucentShaderCode string

//go:embed shader-hilite.wgsl
var hiliteShaderCode string

//go:embed shader-composite.wgsl
var compositeShaderCode string

//go:embed shader-blit.wgsl
var blitShaderCode string

//go:embed shader-clip.wgsl
var clipShaderCode string

//go:embed shader-shadow.wgsl
var shadowShaderCode string

//go:embed shader-classification.wgsl
var classificationShaderCode string

// positionVertexLayout is the single vertex buffer layout shared by
// all geometry pipelines: one float32x3 position per vertex.
func optionalBool(b bool) wgpu.OptionalBool {
	if b {
		return wgpu.OptionalBoolTrue
	}
	return wgpu.OptionalBoolFalse
}

func positionVertexLayout() []wgpu.VertexBufferLayout {
	return []wgpu.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{
					Format:         wgpu.VertexFormatFloat32x3,
					Offset:         0,
					ShaderLocation: 0,
				},
			},
		},
	}
}

func compileShader(dev *wgpu.Device, label, code string) (*wgpu.ShaderModule, error) {
	shader, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:      label,
		WGSLSource: &wgpu.ShaderSourceWGSL{Code: code},
	})

	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", label, err)
	}

	return shader, nil
}

// scenePipelineConfig keys the opaque geometry pipelines: topology of
// the geometry, whether the clip stencil applies, and whether the
// planar pick test against the ping pong copy is active. The planar
// test itself is a uniform flag, but planar geometry also renders
// without depth write. Hidden edges draw color only, their pick
// targets are write masked.
type scenePipelineConfig struct {
	Topology     wgpu.PrimitiveTopology
	DepthCompare wgpu.CompareFunction
	StencilTest  bool
	DepthWrite   bool
	PickWrites   bool
}

func (conf scenePipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info(
		"Create RenderPipeline for opaque geometry",
		slog.Any("topology", conf.Topology),
		slog.Bool("stencilTest", conf.StencilTest),
		slog.Bool("depthWrite", conf.DepthWrite),
		slog.Bool("pickWrites", conf.PickWrites),
	)

	shader, err := compileShader(dev, "Opaque.ShaderSource", opaqueShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	stencil := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}

	if conf.StencilTest {
		stencil.Compare = wgpu.CompareFunctionEqual
	}

	pickMask := wgpu.ColorWriteMaskAll
	if !conf.PickWrites {
		pickMask = wgpu.ColorWriteMaskNone
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("Opaque.%d", conf.Topology),
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    positionVertexLayout(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: formatColor, Blend: &lumen.BlendStateReplace, WriteMask: wgpu.ColorWriteMaskAll},
				{Format: formatPick, Blend: &lumen.BlendStateReplace, WriteMask: pickMask},
				{Format: formatPick, Blend: &lumen.BlendStateReplace, WriteMask: pickMask},
				{Format: formatPick, Blend: &lumen.BlendStateReplace, WriteMask: pickMask},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  conf.Topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            formatDepth,
			DepthWriteEnabled: optionalBool(conf.DepthWrite),
			DepthCompare:      conf.DepthCompare,
			StencilFront:      stencil,
			StencilBack:       stencil,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build opaque pipeline: %w", err)
	}

	return pipeline, nil
}

type translucentPipelineConfig struct {
	Topology wgpu.PrimitiveTopology
}

func (conf translucentPipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info("Create RenderPipeline for translucent geometry", slog.Any("topology", conf.Topology))

	shader, err := compileShader(dev, "Translucent.ShaderSource", translucentShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("Translucent.%d", conf.Topology),
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    positionVertexLayout(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: formatAccumulation, Blend: &lumen.BlendStateOITAccum, WriteMask: wgpu.ColorWriteMaskAll},
				{Format: formatRevealage, Blend: &lumen.BlendStateOITRevealage, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  conf.Topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            formatDepth,
			DepthWriteEnabled: wgpu.OptionalBoolFalse,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build translucent pipeline: %w", err)
	}

	return pipeline, nil
}

// hilitePipelineConfig keys the hilite mask pipelines. Hilited
// geometry renders twice: a Hidden pipeline that ignores the depth
// test and writes the hidden mask value, then a depth tested pipeline
// that overwrites the visible portion with the full mask value.
type hilitePipelineConfig struct {
	Topology wgpu.PrimitiveTopology
	Hidden   bool
}

func (conf hilitePipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info(
		"Create RenderPipeline for hilite geometry",
		slog.Any("topology", conf.Topology),
		slog.Bool("hidden", conf.Hidden),
	)

	shader, err := compileShader(dev, "Hilite.ShaderSource", hiliteShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	entry := "fs_main"
	compare := wgpu.CompareFunctionLessEqual

	if conf.Hidden {
		entry = "fs_hidden"
		compare = wgpu.CompareFunctionAlways
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("Hilite.%d", conf.Topology),
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    positionVertexLayout(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: entry,
			Targets: []wgpu.ColorTargetState{
				{Format: formatHilite, Blend: &lumen.BlendStateReplace, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  conf.Topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            formatDepth,
			DepthWriteEnabled: wgpu.OptionalBoolFalse,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build hilite pipeline: %w", err)
	}

	return pipeline, nil
}

type backgroundPipelineConfig struct {
	TargetFormat wgpu.TextureFormat
}

func (conf backgroundPipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info("Create RenderPipeline for background", slog.Any("format", conf.TargetFormat))

	shader, err := compileShader(dev, "Background.ShaderSource", backgroundShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("Background.%s", conf.TargetFormat),
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: conf.TargetFormat, Blend: &lumen.BlendStateReplace, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build background pipeline: %w", err)
	}

	return pipeline, nil
}

type compositePipelineConfig struct {
	TargetFormat wgpu.TextureFormat
}

func (conf compositePipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info("Create RenderPipeline for composite", slog.Any("format", conf.TargetFormat))

	shader, err := compileShader(dev, "Composite.ShaderSource", compositeShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("Composite.%s", conf.TargetFormat),
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: conf.TargetFormat, Blend: &lumen.BlendStatePremultiplied, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build composite pipeline: %w", err)
	}

	return pipeline, nil
}

type blitPipelineConfig struct {
	TargetFormat wgpu.TextureFormat
}

func (conf blitPipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info("Create RenderPipeline for blit", slog.Any("format", conf.TargetFormat))

	shader, err := compileShader(dev, "Blit.ShaderSource", blitShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("Blit.%s", conf.TargetFormat),
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: conf.TargetFormat, Blend: &lumen.BlendStateReplace, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build blit pipeline: %w", err)
	}

	return pipeline, nil
}

// clipPipelineConfig builds the vertex only pipeline that stamps the
// clip volume into the stencil buffer.
type clipPipelineConfig struct {
	Topology wgpu.PrimitiveTopology
}

func (conf clipPipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info("Create RenderPipeline for clip mask", slog.Any("topology", conf.Topology))

	shader, err := compileShader(dev, "Clip.ShaderSource", clipShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	writeStencil := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationReplace,
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label: "Clip.Stencil",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    positionVertexLayout(),
		},
		// color writes are fully masked, the pass only updates the
		// stencil buffer
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: formatColor, WriteMask: wgpu.ColorWriteMaskNone},
				{Format: formatPick, WriteMask: wgpu.ColorWriteMaskNone},
				{Format: formatPick, WriteMask: wgpu.ColorWriteMaskNone},
				{Format: formatPick, WriteMask: wgpu.ColorWriteMaskNone},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  conf.Topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            formatDepth,
			DepthWriteEnabled: wgpu.OptionalBoolFalse,
			DepthCompare:      wgpu.CompareFunctionAlways,
			StencilFront:      writeStencil,
			StencilBack:       writeStencil,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build clip pipeline: %w", err)
	}

	return pipeline, nil
}

// shadowPipelineConfig builds the depth only pipeline that renders
// opaque geometry into the solar shadow map.
type shadowPipelineConfig struct {
	Topology wgpu.PrimitiveTopology
}

func (conf shadowPipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info("Create RenderPipeline for shadow map", slog.Any("topology", conf.Topology))

	shader, err := compileShader(dev, "Shadow.ShaderSource", shadowShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("Shadow.%d", conf.Topology),
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    positionVertexLayout(),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  conf.Topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            formatShadowDepth,
			DepthWriteEnabled: wgpu.OptionalBoolTrue,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build shadow pipeline: %w", err)
	}

	return pipeline, nil
}

// classificationPipelineConfig builds the pipeline that drapes planar
// classifier content into the classification texture.
type classificationPipelineConfig struct {
	Topology wgpu.PrimitiveTopology
}

func (conf classificationPipelineConfig) Specialize(dev *wgpu.Device) (*wgpu.RenderPipeline, error) {
	slog.Info("Create RenderPipeline for classification", slog.Any("topology", conf.Topology))

	shader, err := compileShader(dev, "Classification.ShaderSource", classificationShaderCode)
	if err != nil {
		return nil, err
	}

	defer shader.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label: fmt.Sprintf("Classification.%d", conf.Topology),
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    positionVertexLayout(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: formatPick, Blend: &lumen.BlendStateAlphaBlending, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  conf.Topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	pipeline, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("build classification pipeline: %w", err)
	}

	return pipeline, nil
}
