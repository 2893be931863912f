// Package cascade computes and renders cascaded shadow maps for directional lights.
//
// Each frame, for every shadow-casting light and every cascade slot, the
// Builder fits an orthographic light-space transform around a slice of the
// camera frustum, the Culler rejects casters outside that slice's volume, the
// Renderer issues depth-only draws into the slot's depth target, and the
// Packer flattens the resulting transforms for the shading pass.
package cascade

import (
	"errors"
	"fmt"
)

const (
	// CascadeCount is the number of frustum slices per light.
	CascadeCount = 4
	// MaxDirLights is the number of directional lights that can cast shadows.
	MaxDirLights = 2
	// SlotCount is the number of depth targets (and packed records).
	SlotCount = MaxDirLights * CascadeCount
	// DefaultResolution is the width and height of each depth target.
	DefaultResolution = 2048
)

var ErrCascadeIndex = errors.New("cascade index out of range")

// SlotIndex is the flat index of a (light, cascade) pair.
func SlotIndex(light, cascade int) int {
	return light*CascadeCount + cascade
}

// Slot holds optional distance overrides along the camera view axis.
// A nil bound inherits the camera's near or far plane.
type Slot struct {
	Lower *float32
	Upper *float32
}

// Bounds is the per-cascade distance configuration. It may be changed between
// frames but must not be changed while a Render call is running.
type Bounds struct {
	slots [CascadeCount]Slot
}

func NewBounds() *Bounds {
	return &Bounds{}
}

func checkIndex(index int) error {
	if index < 0 || index >= CascadeCount {
		return fmt.Errorf("%w: %d", ErrCascadeIndex, index)
	}
	return nil
}

func (b *Bounds) SetLower(index int, v float32) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	b.slots[index].Lower = &v
	return nil
}

func (b *Bounds) SetUpper(index int, v float32) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	b.slots[index].Upper = &v
	return nil
}

// Set overrides both ends of a slot. nil leaves that end inherited.
func (b *Bounds) Set(index int, lower, upper *float32) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	b.slots[index] = Slot{}
	if lower != nil {
		v := *lower
		b.slots[index].Lower = &v
	}
	if upper != nil {
		v := *upper
		b.slots[index].Upper = &v
	}
	return nil
}

func (b *Bounds) ClearLower(index int) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	b.slots[index].Lower = nil
	return nil
}

func (b *Bounds) ClearUpper(index int) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	b.slots[index].Upper = nil
	return nil
}

// Slot returns a copy of the slot configuration.
func (b *Bounds) Slot(index int) Slot {
	if checkIndex(index) != nil {
		return Slot{}
	}
	s := b.slots[index]
	out := Slot{}
	if s.Lower != nil {
		v := *s.Lower
		out.Lower = &v
	}
	if s.Upper != nil {
		v := *s.Upper
		out.Upper = &v
	}
	return out
}

// Resolve substitutes the camera planes for unset bounds. An out-of-range
// index resolves to the full camera range.
func (b *Bounds) Resolve(index int, cameraNear, cameraFar float32) (near, far float32) {
	near, far = cameraNear, cameraFar
	if checkIndex(index) != nil {
		return near, far
	}
	s := b.slots[index]
	if s.Lower != nil {
		near = *s.Lower
	}
	if s.Upper != nil {
		far = *s.Upper
	}
	return near, far
}

// Degenerate reports whether cascade index collapses to a single plane or
// resolves to an inverted range.
func (b *Bounds) Degenerate(index int, cameraNear, cameraFar float32) bool {
	near, far := b.Resolve(index, cameraNear, cameraFar)
	return near >= far
}
