package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
)

// phase is one timed section of a frame.
type phase int

const (
	phaseUpdate phase = iota
	phaseShadow
	phaseLit
	phaseFrame
	phaseCount
)

var phaseNames = [phaseCount]string{"update", "shadows", "lit", "frame"}

func (ph phase) String() string { return phaseNames[ph] }

// Profiler times the phases of the current frame on the CPU and keeps the
// shadow pass counters that belong to the same frame.
type Profiler struct {
	start [phaseCount]time.Time
	took  [phaseCount]time.Duration

	Shadow   cascade.Stats
	LitDraws int
}

func NewProfiler() *Profiler {
	return &Profiler{}
}

func (p *Profiler) Begin(ph phase) {
	p.start[ph] = time.Now()
}

// End closes ph. A phase that never began keeps its last duration.
func (p *Profiler) End(ph phase) {
	if p.start[ph].IsZero() {
		return
	}
	p.took[ph] = time.Since(p.start[ph])
	p.start[ph] = time.Time{}
}

func (p *Profiler) Millis(ph phase) float64 {
	return float64(p.took[ph].Microseconds()) / 1000.0
}

// Count stores the frame's draw and cull counters.
func (p *Profiler) Count(stats cascade.Stats, litDraws int) {
	p.Shadow = stats
	p.LitDraws = litDraws
}

// Row flattens the frame into one stats CSV row.
func (p *Profiler) Row(frame int) FrameStats {
	s := p.Shadow
	return FrameStats{
		Frame:         frame,
		ShadowMs:      p.Millis(phaseShadow),
		LitMs:         p.Millis(phaseLit),
		Cascades:      s.Cascades,
		Degenerate:    s.Degenerate,
		CasterDraws:   s.CasterDraws,
		CastersCulled: s.CastersCulled,
		FoliageDraws:  s.FoliageDraws,
		FoliageCulled: s.FoliageCulled,
		CullQueries:   s.CullQueries,
		LitDraws:      p.LitDraws,
	}
}

// Summary is the HUD timing line.
func (p *Profiler) Summary() string {
	var sb strings.Builder
	sb.WriteString("CPU ms:")
	for ph := phase(0); ph < phaseCount; ph++ {
		fmt.Fprintf(&sb, " %s %.2f", ph, p.Millis(ph))
	}
	return sb.String()
}
