package gpu

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"

	"github.com/cogentcore/webgpu/wgpu"
)

// cascadeBufferSize holds every slot's record.
var cascadeBufferSize = alignUp(cascade.SlotCount*cascade.RecordSize, 16)

// CascadeBuffer is the shared uniform buffer of packed cascade records.
// It is created once and overwritten by each Upload.
type CascadeBuffer struct {
	Buffer *wgpu.Buffer
}

func NewCascadeBuffer(device *wgpu.Device) (*CascadeBuffer, error) {
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Cascade Records",
		Size:  cascadeBufferSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cascade buffer: %w", err)
	}
	return &CascadeBuffer{Buffer: buf}, nil
}

func (b *CascadeBuffer) Upload(queue *wgpu.Queue, records []cascade.Record) {
	if len(records) > cascade.SlotCount {
		records = records[:cascade.SlotCount]
	}
	queue.WriteBuffer(b.Buffer, 0, cascade.EncodeRecords(records))
}

func (b *CascadeBuffer) Release() {
	if b.Buffer != nil {
		b.Buffer.Release()
		b.Buffer = nil
	}
}
