package compositor

import (
	"fmt"

	"github.com/oliverbestmann/webgpu/wgpu"

	"github.com/lumen3d/lumen/lumen"
)

// uniform buffer offsets bound with a byte range must be aligned to
// the device's min uniform offset alignment; 256 is the safe default.
const uniformOffsetAlignment = 256

// drawUniforms is the per draw constant block the geometry shaders
// consume.
type drawUniforms struct {
	ModelViewProj [16]float32

	Color [4]float32

	// the element id halves, one byte per channel
	FeatureLow  [4]float32
	FeatureHigh [4]float32

	// x: render order including the planar bit, y: 1 to depth test
	// against the pick copy, z: 1 to sample the classification
	// texture
	Misc [4]float32

	// maps the model space position into the solar shadow map's clip
	// space
	ShadowMatrix [16]float32
}

// uniformArena collects the draw uniform blocks of one frame into a
// single buffer. Blocks are recorded first, uploaded once, then bound
// by offset while the render passes encode.
type uniformArena struct {
	ctx *lumen.Context

	buf      *wgpu.Buffer
	capacity uint64

	data []byte
}

func newUniformArena(ctx *lumen.Context) *uniformArena {
	return &uniformArena{ctx: ctx}
}

func (a *uniformArena) reset() {
	a.data = a.data[:0]
}

// push records a uniform block and returns its buffer offset.
func (a *uniformArena) push(u drawUniforms) uint64 {
	offset := uint64(len(a.data))

	a.data = append(a.data, lumen.AsByteSlice(&u)...)

	if pad := len(a.data) % uniformOffsetAlignment; pad != 0 {
		a.data = append(a.data, make([]byte, uniformOffsetAlignment-pad)...)
	}

	return offset
}

// upload flushes the recorded blocks to the GPU, growing the buffer
// if needed.
func (a *uniformArena) upload() error {
	if len(a.data) == 0 {
		return nil
	}

	needed := uint64(len(a.data))

	if a.buf == nil || a.capacity < needed {
		if a.buf != nil {
			a.buf.Release()
		}

		capacity := max(needed, uint64(64*1024))

		buf, err := a.ctx.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Compositor.DrawUniforms",
			Size:  capacity,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})

		if err != nil {
			return fmt.Errorf("create draw uniform buffer: %w", err)
		}

		a.buf = buf
		a.capacity = capacity
	}

	if err := a.ctx.Queue.WriteBuffer(a.buf, 0, a.data); err != nil {
		return fmt.Errorf("update draw uniform buffer: %w", err)
	}

	return nil
}

func (a *uniformArena) buffer() *wgpu.Buffer {
	return a.buf
}

func (a *uniformArena) release() {
	if a.buf != nil {
		a.buf.Release()
		a.buf = nil
		a.capacity = 0
	}
}
