package cascade

import (
	"math"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// Slack added to separation tests so touching and partially overlapping
// shapes are kept.
const (
	cullEps     = 1e-4
	parallelEps = 1e-6
)

// Culler tests caster bounds against the current cascade volume.
type Culler struct {
	volume  core.OBB
	queries int
}

func NewCuller() *Culler {
	return &Culler{volume: core.EmptyOBB()}
}

// SetVolume replaces the volume used by later queries.
func (c *Culler) SetVolume(v core.OBB) {
	c.volume = v
}

func (c *Culler) Volume() core.OBB {
	return c.volume
}

// Queries is the number of ShouldBeCulled calls since the last ResetQueries.
func (c *Culler) Queries() int {
	return c.queries
}

func (c *Culler) ResetQueries() {
	c.queries = 0
}

// ShouldBeCulled reports whether b lies entirely outside the volume. Any
// overlap, including touching, keeps the primitive. An empty volume culls
// everything. Unknown primitive types are never culled.
func (c *Culler) ShouldBeCulled(b core.Bounds) bool {
	c.queries++
	if c.volume.IsEmpty() {
		return true
	}

	switch p := b.(type) {
	case core.AABB:
		return p.IsEmpty() || !obbOverlap(c.volume, p.ToOBB())
	case *core.AABB:
		return p == nil || p.IsEmpty() || !obbOverlap(c.volume, p.ToOBB())
	case core.OBB:
		return p.IsEmpty() || !obbOverlap(c.volume, p)
	case *core.OBB:
		return p == nil || p.IsEmpty() || !obbOverlap(c.volume, *p)
	case core.Sphere:
		return p.Radius < 0 || !sphereOverlap(c.volume, p)
	case *core.Sphere:
		return p == nil || p.Radius < 0 || !sphereOverlap(c.volume, *p)
	default:
		return false
	}
}

// obbOverlap is the separating axis test over the 3+3 face axes and the
// 9 edge cross products.
func obbOverlap(a, b core.OBB) bool {
	var r, absR [3][3]float32
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a.Axes[i].Dot(b.Axes[j])
			// Near-parallel edges produce a null cross product; the
			// epsilon keeps those axes from reporting false separation.
			absR[i][j] = abs(r[i][j]) + parallelEps
		}
	}

	d := b.Center.Sub(a.Center)
	t := mgl32.Vec3{d.Dot(a.Axes[0]), d.Dot(a.Axes[1]), d.Dot(a.Axes[2])}
	ea, eb := a.HalfExtents, b.HalfExtents

	for i := 0; i < 3; i++ {
		rb := eb[0]*absR[i][0] + eb[1]*absR[i][1] + eb[2]*absR[i][2]
		if abs(t[i]) > ea[i]+rb+cullEps {
			return false
		}
	}

	for j := 0; j < 3; j++ {
		ra := ea[0]*absR[0][j] + ea[1]*absR[1][j] + ea[2]*absR[2][j]
		dist := t[0]*r[0][j] + t[1]*r[1][j] + t[2]*r[2][j]
		if abs(dist) > ra+eb[j]+cullEps {
			return false
		}
	}

	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			j1, j2 := (j+1)%3, (j+2)%3
			ra := ea[i1]*absR[i2][j] + ea[i2]*absR[i1][j]
			rb := eb[j1]*absR[i][j2] + eb[j2]*absR[i][j1]
			dist := t[i2]*r[i1][j] - t[i1]*r[i2][j]
			if abs(dist) > ra+rb+cullEps {
				return false
			}
		}
	}
	return true
}

func sphereOverlap(o core.OBB, s core.Sphere) bool {
	d := s.Center.Sub(o.Center)
	closest := o.Center
	for i := 0; i < 3; i++ {
		dist := d.Dot(o.Axes[i])
		dist = max(-o.HalfExtents[i], min(o.HalfExtents[i], dist))
		closest = closest.Add(o.Axes[i].Mul(dist))
	}
	off := s.Center.Sub(closest)
	reach := s.Radius + cullEps
	return off.Dot(off) <= reach*reach
}

func abs(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
