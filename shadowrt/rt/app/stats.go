package app

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// FrameStats is one CSV row of shadow pass statistics.
type FrameStats struct {
	Frame         int     `csv:"frame"`
	ShadowMs      float64 `csv:"shadow_ms"`
	LitMs         float64 `csv:"lit_ms"`
	Cascades      int     `csv:"cascades"`
	Degenerate    int     `csv:"degenerate"`
	CasterDraws   int     `csv:"caster_draws"`
	CastersCulled int     `csv:"casters_culled"`
	FoliageDraws  int     `csv:"foliage_draws"`
	FoliageCulled int     `csv:"foliage_culled"`
	CullQueries   int     `csv:"cull_queries"`
	LitDraws      int     `csv:"lit_draws"`
}

// StatsRecorder buffers per-frame rows and writes them as CSV on Close.
// A nil recorder ignores everything, so callers need not check the config.
type StatsRecorder struct {
	path  string
	limit int
	rows  []FrameStats
}

// NewStatsRecorder returns nil when path is empty. limit caps the number of
// buffered rows; older rows are dropped first.
func NewStatsRecorder(path string, limit int) *StatsRecorder {
	if path == "" {
		return nil
	}
	if limit <= 0 {
		limit = 100000
	}
	return &StatsRecorder{path: path, limit: limit}
}

func (r *StatsRecorder) Record(row FrameStats) {
	if r == nil {
		return
	}
	if len(r.rows) >= r.limit {
		copy(r.rows, r.rows[1:])
		r.rows = r.rows[:len(r.rows)-1]
	}
	r.rows = append(r.rows, row)
}

func (r *StatsRecorder) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rows)
}

func (r *StatsRecorder) Close() error {
	if r == nil {
		return nil
	}
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("creating stats file: %w", err)
	}
	if err := gocsv.Marshal(r.rows, f); err != nil {
		f.Close()
		return fmt.Errorf("writing stats: %w", err)
	}
	return f.Close()
}
