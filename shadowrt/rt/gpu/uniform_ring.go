package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// UniformStride is the dynamic offset alignment every adapter guarantees.
const UniformStride = 256

func alignUp(n, a uint64) uint64 {
	return (n + a - 1) / a * a
}

// ringOffset is the dynamic offset of entry i.
func ringOffset(i int) uint32 {
	return uint32(i) * UniformStride
}

// UniformRing is a uniform buffer of fixed-stride entries bound with a
// dynamic offset. Entries pushed in one frame never alias, so every queued
// WriteBuffer survives until the frame's command buffer runs.
type UniformRing struct {
	device    *wgpu.Device
	label     string
	layout    *wgpu.BindGroupLayout
	entrySize uint64

	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	capacity  int
	next      int

	// Buffers replaced mid-frame stay alive until the frame is submitted.
	retiredBuffers []*wgpu.Buffer
	retiredGroups  []*wgpu.BindGroup
}

func NewUniformRing(device *wgpu.Device, label string, layout *wgpu.BindGroupLayout, entrySize uint64, capacity int) (*UniformRing, error) {
	if entrySize > UniformStride {
		return nil, fmt.Errorf("%s: entry size %d exceeds stride %d", label, entrySize, UniformStride)
	}
	r := &UniformRing{
		device:    device,
		label:     label,
		layout:    layout,
		entrySize: entrySize,
	}
	if err := r.allocate(max(capacity, 1)); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *UniformRing) allocate(capacity int) error {
	buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: r.label,
		Size:  uint64(capacity) * UniformStride,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating %s buffer: %w", r.label, err)
	}
	bg, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  r.label + " BG",
		Layout: r.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: r.entrySize},
		},
	})
	if err != nil {
		buf.Release()
		return fmt.Errorf("creating %s bind group: %w", r.label, err)
	}

	if r.buffer != nil {
		r.retiredBuffers = append(r.retiredBuffers, r.buffer)
		r.retiredGroups = append(r.retiredGroups, r.bindGroup)
	}
	r.buffer = buf
	r.bindGroup = bg
	r.capacity = capacity
	return nil
}

// Reset starts a new frame. Call after the previous frame was submitted.
func (r *UniformRing) Reset() {
	for _, bg := range r.retiredGroups {
		bg.Release()
	}
	for _, b := range r.retiredBuffers {
		b.Release()
	}
	r.retiredGroups = r.retiredGroups[:0]
	r.retiredBuffers = r.retiredBuffers[:0]
	r.next = 0
}

// Push appends one entry and returns its dynamic offset. The ring doubles
// when full; the new bind group must be used for the returned offset.
func (r *UniformRing) Push(queue *wgpu.Queue, data []byte) (uint32, error) {
	if r.next >= r.capacity {
		if err := r.allocate(r.capacity * 2); err != nil {
			return 0, err
		}
		r.next = 0
	}
	off := ringOffset(r.next)
	r.next++
	queue.WriteBuffer(r.buffer, uint64(off), data)
	return off, nil
}

// Write overwrites entry i in place.
func (r *UniformRing) Write(queue *wgpu.Queue, i int, data []byte) uint32 {
	off := ringOffset(i)
	queue.WriteBuffer(r.buffer, uint64(off), data)
	return off
}

func (r *UniformRing) BindGroup() *wgpu.BindGroup { return r.bindGroup }

func (r *UniformRing) Buffer() *wgpu.Buffer { return r.buffer }

func (r *UniformRing) Release() {
	r.Reset()
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	if r.buffer != nil {
		r.buffer.Release()
		r.buffer = nil
	}
}
