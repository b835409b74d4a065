package cardmgr

// A minimal in-memory hal.Device/hal.Queue implementation for exercising
// Manager without a real GPU backend, in the spirit of
// github.com/gogpu/wgpu/hal/software's software-rendering test backend
// but scoped to just what Manager touches.

import (
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

type fakeResource struct{ id uint64 }

func (r *fakeResource) Destroy() {}

type fakeBuffer struct {
	fakeResource
	data []byte
}

// NativeHandle satisfies the call convention gogpu-gg's GPU code uses
// on every hal resource type when constructing bind group entries.
func (b *fakeBuffer) NativeHandle() gputypes.BufferHandle { return gputypes.BufferHandle(b.id) }

type fakeTexture struct {
	fakeResource
	width, height uint32
	data          []byte
}

type fakeTextureView struct{ fakeResource }

func (v *fakeTextureView) NativeHandle() gputypes.TextureViewHandle {
	return gputypes.TextureViewHandle(v.id)
}

type fakeSampler struct{ fakeResource }

func (s *fakeSampler) NativeHandle() gputypes.SamplerHandle { return gputypes.SamplerHandle(s.id) }

type fakeBindGroupLayout struct{ fakeResource }
type fakeBindGroup struct{ fakeResource }

type fakeDevice struct {
	nextID uint64
}

func (d *fakeDevice) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *fakeDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	return &fakeBuffer{fakeResource: fakeResource{id: d.newID()}, data: make([]byte, desc.Size)}, nil
}
func (d *fakeDevice) DestroyBuffer(hal.Buffer) {}

func (d *fakeDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	t := &fakeTexture{
		fakeResource: fakeResource{id: d.newID()},
		width:        desc.Size.Width,
		height:       desc.Size.Height,
	}
	t.data = make([]byte, int(t.width)*int(t.height)*4)
	return t, nil
}
func (d *fakeDevice) DestroyTexture(hal.Texture) {}

func (d *fakeDevice) CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return &fakeTextureView{fakeResource{id: d.newID()}}, nil
}
func (d *fakeDevice) DestroyTextureView(hal.TextureView) {}

func (d *fakeDevice) CreateSampler(*hal.SamplerDescriptor) (hal.Sampler, error) {
	return &fakeSampler{fakeResource{id: d.newID()}}, nil
}
func (d *fakeDevice) DestroySampler(hal.Sampler) {}

func (d *fakeDevice) CreateBindGroupLayout(*hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return &fakeBindGroupLayout{fakeResource{id: d.newID()}}, nil
}
func (d *fakeDevice) DestroyBindGroupLayout(hal.BindGroupLayout) {}

func (d *fakeDevice) CreateBindGroup(*hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return &fakeBindGroup{fakeResource{id: d.newID()}}, nil
}
func (d *fakeDevice) DestroyBindGroup(hal.BindGroup) {}

// The remaining hal.Device methods are unused by Manager; they're stubbed
// only to satisfy the interface.
func (d *fakeDevice) CreatePipelineLayout(*hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return &fakeResource{id: d.newID()}, nil
}
func (d *fakeDevice) DestroyPipelineLayout(hal.PipelineLayout) {}

func (d *fakeDevice) CreateShaderModule(*hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return &fakeResource{id: d.newID()}, nil
}
func (d *fakeDevice) DestroyShaderModule(hal.ShaderModule) {}

func (d *fakeDevice) CreateRenderPipeline(*hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return &fakeResource{id: d.newID()}, nil
}
func (d *fakeDevice) DestroyRenderPipeline(hal.RenderPipeline) {}

func (d *fakeDevice) CreateComputePipeline(*hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return &fakeResource{id: d.newID()}, nil
}
func (d *fakeDevice) DestroyComputePipeline(hal.ComputePipeline) {}

func (d *fakeDevice) CreateCommandEncoder(*hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return nil, nil
}

func (d *fakeDevice) CreateFence() (hal.Fence, error) { return &fakeResource{id: d.newID()}, nil }
func (d *fakeDevice) DestroyFence(hal.Fence)           {}
func (d *fakeDevice) Wait(hal.Fence, uint64, time.Duration) (bool, error) { return true, nil }
func (d *fakeDevice) Destroy()                         {}

type fakeQueue struct{}

func (fakeQueue) Submit([]hal.CommandBuffer, hal.Fence, uint64) error { return nil }
func (fakeQueue) Present(hal.Surface, hal.SurfaceTexture) error       { return nil }
func (fakeQueue) GetTimestampPeriod() float32                        { return 1 }

func (fakeQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) {
	b := buffer.(*fakeBuffer)
	copy(b.data[offset:], data)
}

func (fakeQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) {
	t := dst.Texture.(*fakeTexture)
	rowBytes := int(size.Width) * 4
	for row := uint32(0); row < size.Height; row++ {
		dstOff := (int(dst.Origin.Y+row)*int(t.width) + int(dst.Origin.X)) * 4
		srcOff := int(row) * int(layout.BytesPerRow)
		copy(t.data[dstOff:dstOff+rowBytes], data[srcOff:srcOff+rowBytes])
	}
}

func newTestManager() (*Manager, *fakeDevice, *fakeQueue) {
	dev := &fakeDevice{}
	q := &fakeQueue{}
	uniform, _ := dev.CreateBuffer(&hal.BufferDescriptor{Size: 256, Usage: gputypes.BufferUsageUniform})
	m, err := New(dev, uniform, 256, Config{InitialMetadataCapacity: 256, InitialStorageCapacity: 1024})
	if err != nil {
		panic(err)
	}
	return m, dev, q
}
