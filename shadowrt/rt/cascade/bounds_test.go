package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsResolve(t *testing.T) {
	b := NewBounds()
	require.NoError(t, b.SetLower(1, 10))
	require.NoError(t, b.SetUpper(2, 50))
	require.NoError(t, b.Set(3, ptr(60), ptr(80)))

	tests := []struct {
		name      string
		index     int
		near, far float32
	}{
		{name: "unset inherits camera", index: 0, near: 0.1, far: 100},
		{name: "lower only", index: 1, near: 10, far: 100},
		{name: "upper only", index: 2, near: 0.1, far: 50},
		{name: "both", index: 3, near: 60, far: 80},
		{name: "negative index", index: -1, near: 0.1, far: 100},
		{name: "past the end", index: CascadeCount, near: 0.1, far: 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			near, far := b.Resolve(tc.index, 0.1, 100)
			assert.Equal(t, tc.near, near)
			assert.Equal(t, tc.far, far)
		})
	}
}

func TestBoundsClear(t *testing.T) {
	b := NewBounds()
	require.NoError(t, b.Set(0, ptr(5), ptr(6)))
	require.NoError(t, b.ClearLower(0))

	near, far := b.Resolve(0, 1, 2)
	assert.Equal(t, float32(1), near)
	assert.Equal(t, float32(6), far)

	require.NoError(t, b.ClearUpper(0))
	near, far = b.Resolve(0, 1, 2)
	assert.Equal(t, float32(1), near)
	assert.Equal(t, float32(2), far)
}

func TestBoundsSlotIsACopy(t *testing.T) {
	b := NewBounds()
	lower := float32(3)
	require.NoError(t, b.Set(0, &lower, nil))
	lower = 99

	s := b.Slot(0)
	require.NotNil(t, s.Lower)
	assert.Equal(t, float32(3), *s.Lower)
	assert.Nil(t, s.Upper)

	*s.Lower = 42
	near, _ := b.Resolve(0, 0, 1)
	assert.Equal(t, float32(3), near)
}

func TestBoundsIndexErrors(t *testing.T) {
	b := NewBounds()
	assert.ErrorIs(t, b.SetLower(CascadeCount, 1), ErrCascadeIndex)
	assert.ErrorIs(t, b.SetUpper(-1, 1), ErrCascadeIndex)
	assert.ErrorIs(t, b.Set(7, nil, nil), ErrCascadeIndex)
	assert.ErrorIs(t, b.ClearLower(4), ErrCascadeIndex)
	assert.ErrorIs(t, b.ClearUpper(4), ErrCascadeIndex)
	assert.Equal(t, Slot{}, b.Slot(9))
}

func TestSlotIndex(t *testing.T) {
	assert.Equal(t, 0, SlotIndex(0, 0))
	assert.Equal(t, 3, SlotIndex(0, 3))
	assert.Equal(t, 4, SlotIndex(1, 0))
	assert.Equal(t, SlotCount-1, SlotIndex(MaxDirLights-1, CascadeCount-1))
}

func TestBoundsDegenerate(t *testing.T) {
	b := NewBounds()
	require.NoError(t, b.SetLower(2, 30))
	require.NoError(t, b.SetUpper(2, 30))
	assert.True(t, b.Degenerate(2, 0.1, 100))
	assert.False(t, b.Degenerate(1, 0.1, 100))
	assert.True(t, b.Degenerate(0, 5, 5))

	// A lone lower bound past the camera's far plane inverts the range.
	require.NoError(t, b.SetLower(3, 200))
	assert.True(t, b.Degenerate(3, 0.1, 100))
	assert.False(t, b.Degenerate(3, 0.1, 400))
}
