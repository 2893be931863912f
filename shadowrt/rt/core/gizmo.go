package core

import "github.com/go-gl/mathgl/mgl32"

type GizmoType int

const (
	GizmoLine GizmoType = iota
	GizmoCube
)

// Gizmo represents a debug shape to be drawn.
type Gizmo struct {
	Type        GizmoType
	Color       [4]float32
	ModelMatrix mgl32.Mat4

	// For Line: P1 is Start, P2 is End. ModelMatrix is Identity usually.
	P1, P2 mgl32.Vec3
}

// frustumEdges indexes the 12 edges of a box whose corners follow the
// x-fastest ordering used by AABB.Corners and the cascade frustum corners.
var frustumEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // x edges
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // y edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // z edges
}

// CornerGizmos outlines eight box/frustum corners with line gizmos.
func CornerGizmos(corners [8]mgl32.Vec3, color [4]float32) []Gizmo {
	out := make([]Gizmo, 0, len(frustumEdges))
	for _, e := range frustumEdges {
		out = append(out, Gizmo{
			Type:        GizmoLine,
			Color:       color,
			ModelMatrix: mgl32.Ident4(),
			P1:          corners[e[0]],
			P2:          corners[e[1]],
		})
	}
	return out
}

// BoxGizmo draws an oriented box as a unit-cube gizmo. Empty boxes yield nothing.
func BoxGizmo(box OBB, color [4]float32) []Gizmo {
	if box.IsEmpty() {
		return nil
	}
	return []Gizmo{{Type: GizmoCube, Color: color, ModelMatrix: box.Matrix()}}
}
