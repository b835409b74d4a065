package rpc

import (
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// A minimal hal.Device fake, just enough to stand up a cardmgr.Manager
// for Dispatcher tests without a real GPU backend.

type fakeResource struct{ id uint64 }

func (r *fakeResource) Destroy() {}

type fakeBuffer struct{ fakeResource }

func (b *fakeBuffer) NativeHandle() gputypes.BufferHandle { return gputypes.BufferHandle(b.id) }

type fakeTexture struct{ fakeResource }
type fakeTextureView struct{ fakeResource }

func (v *fakeTextureView) NativeHandle() gputypes.TextureViewHandle {
	return gputypes.TextureViewHandle(v.id)
}

type fakeSampler struct{ fakeResource }

func (s *fakeSampler) NativeHandle() gputypes.SamplerHandle { return gputypes.SamplerHandle(s.id) }

type fakeBindGroupLayout struct{ fakeResource }
type fakeBindGroup struct{ fakeResource }

type fakeDevice struct{ nextID uint64 }

func (d *fakeDevice) newID() uint64 { d.nextID++; return d.nextID }

func (d *fakeDevice) CreateBuffer(*hal.BufferDescriptor) (hal.Buffer, error) {
	return &fakeBuffer{fakeResource{id: d.newID()}}, nil
}
func (d *fakeDevice) DestroyBuffer(hal.Buffer) {}

func (d *fakeDevice) CreateTexture(*hal.TextureDescriptor) (hal.Texture, error) {
	return &fakeTexture{fakeResource{id: d.newID()}}, nil
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

func (d *fakeDevice) CreateFence() (hal.Fence, error)                    { return &fakeResource{id: d.newID()}, nil }
func (d *fakeDevice) DestroyFence(hal.Fence)                             {}
func (d *fakeDevice) Wait(hal.Fence, uint64, time.Duration) (bool, error) { return true, nil }
func (d *fakeDevice) Destroy()                                           {}
