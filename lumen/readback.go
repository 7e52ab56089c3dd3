package lumen

import (
	"errors"
	"fmt"

	"github.com/lumen3d/lumen/glm"
	"github.com/oliverbestmann/webgpu/wgpu"
)

// wgpu requires the bytes per row of a texture to buffer copy to be
// aligned to 256 bytes.
const copyPitchAlignment = 256

var ErrMapFailed = errors.New("lumen: buffer map was not successful")

type ReadTextureOptions struct {
	// Region of the texture to read. An empty rectangle reads the
	// full texture.
	Region Rectangle2u

	// FlipY reverses the row order of the result, so that the first
	// row in the returned slice is the bottom row of the region.
	FlipY bool
}

// ReadTexturePixels synchronously reads the texels of a region of a
// texture into a tightly packed byte slice. The texture must have
// been created with wgpu.TextureUsageCopySrc and a 4 byte texel
// format.
func ReadTexturePixels(ctx *Context, tex *Texture, opts ReadTextureOptions) ([]byte, error) {
	region := opts.Region
	if region.IsEmpty() {
		region = RectangleFromSize(glm.Vec2u{}, tex.Size())
	}

	w, h := region.Width(), region.Height()

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ uint32(copyPitchAlignment-1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := ctx.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback.Staging",
		Size:  stagingSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})

	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}

	defer staging.Release()

	encoder, err := ctx.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "Readback",
	})

	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}

	defer encoder.Release()

	src := &wgpu.TexelCopyTextureInfo{
		Texture:  tex.ToWGPUTexture(),
		MipLevel: 0,
		Origin: wgpu.Origin3D{
			X: region.Min[0],
			Y: region.Min[1],
		},
		Aspect: wgpu.TextureAspectAll,
	}

	dst := &wgpu.TexelCopyBufferInfo{
		Buffer: staging,
		Layout: wgpu.TexelCopyBufferLayout{
			Offset:       0,
			BytesPerRow:  alignedBytesPerRow,
			RowsPerImage: h,
		},
	}

	encoder.CopyTextureToBuffer(src, dst, &wgpu.Extent3D{
		Width:              w,
		Height:             h,
		DepthOrArrayLayers: 1,
	})

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish encoder: %w", err)
	}

	defer cmdBuffer.Release()

	ctx.Queue.Submit(cmdBuffer)

	var status wgpu.MapAsyncStatus
	err = staging.MapAsync(wgpu.MapModeRead, 0, stagingSize, func(s wgpu.MapAsyncStatus) {
		status = s
	})

	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}

	ctx.Device.Poll(true, nil)

	if status != wgpu.MapAsyncStatusSuccess {
		return nil, fmt.Errorf("%w: status %d", ErrMapFailed, status)
	}

	defer staging.Unmap()

	mapped := staging.GetMappedRange(0, uint(stagingSize))

	// strip the row padding, flipping rows if requested
	result := make([]byte, uint64(bytesPerRow)*uint64(h))
	for row := uint32(0); row < h; row++ {
		dstRow := row
		if opts.FlipY {
			dstRow = h - 1 - row
		}

		srcOff := uint64(row) * uint64(alignedBytesPerRow)
		dstOff := uint64(dstRow) * uint64(bytesPerRow)
		copy(result[dstOff:dstOff+uint64(bytesPerRow)], mapped[srcOff:srcOff+uint64(bytesPerRow)])
	}

	return result, nil
}
