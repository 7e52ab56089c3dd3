package lumen

import "github.com/oliverbestmann/webgpu/wgpu"

var blendComponentAdd = wgpu.BlendComponent{
	SrcFactor: wgpu.BlendFactorOne,
	DstFactor: wgpu.BlendFactorOne,
	Operation: wgpu.BlendOperationAdd,
}

var BlendStateReplace = wgpu.BlendStateReplace
var BlendStateAlphaBlending = wgpu.BlendStateAlphaBlending
var BlendStatePremultiplied = wgpu.BlendStatePremultipliedAlphaBlending

// BlendStateOITAccum accumulates weighted premultiplied color and
// weighted alpha additively, the accumulation half of weighted
// blended order independent transparency.
var BlendStateOITAccum = wgpu.BlendState{
	Color: blendComponentAdd,
	Alpha: blendComponentAdd,
}

// BlendStateOITRevealage tracks how much of the background stays
// visible: dst *= 1 - srcAlpha.
var BlendStateOITRevealage = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorZero,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorZero,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}
