// Package surface opens the native window a viewer renders into and
// feeds its input events back to the render loop.
package surface

import "github.com/oliverbestmann/webgpu/wgpu"

type Window interface {
	GetSize() (uint32, uint32)
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Run(render func(input UpdateInputState) error) error
	Terminate()
}
