package app

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
)

var cascadeColors = [cascade.CascadeCount][4]float32{
	{1.0, 0.3, 0.3, 1},
	{0.3, 1.0, 0.3, 1},
	{0.3, 0.5, 1.0, 1},
	{1.0, 0.9, 0.2, 1},
}

func dim(c [4]float32) [4]float32 {
	return [4]float32{c[0] * 0.5, c[1] * 0.5, c[2] * 0.5, c[3]}
}

// CascadeGizmos outlines each rendered cascade: the camera frustum slice in
// the cascade colour and the light-space volume dimmed.
func CascadeGizmos(lights []core.DirectionalLight, infos [cascade.MaxDirLights][cascade.CascadeCount]cascade.Info) []core.Gizmo {
	var out []core.Gizmo
	for li := 0; li < len(lights) && li < cascade.MaxDirLights; li++ {
		if !lights[li].CastsShadows {
			continue
		}
		for ci, info := range infos[li] {
			if info.Degenerate {
				continue
			}
			out = append(out, core.CornerGizmos(info.Corners, cascadeColors[ci])...)
			out = append(out, core.BoxGizmo(info.Volume, dim(cascadeColors[ci]))...)
		}
	}
	return out
}

// HUDLines is the text overlay: frame rate, per-cascade ranges and draw
// counts, then the profiler block.
func HUDLines(fps float64, stats cascade.Stats, infos [cascade.MaxDirLights][cascade.CascadeCount]cascade.Info, lights []core.DirectionalLight) []string {
	lines := []string{
		fmt.Sprintf("FPS: %.1f", fps),
		fmt.Sprintf("Cascades: %d rendered, %d degenerate", stats.Cascades, stats.Degenerate),
		fmt.Sprintf("Casters: %d drawn, %d culled", stats.CasterDraws, stats.CastersCulled),
		fmt.Sprintf("Foliage: %d drawn, %d culled", stats.FoliageDraws, stats.FoliageCulled),
	}
	for li := 0; li < len(lights) && li < cascade.MaxDirLights; li++ {
		if !lights[li].CastsShadows {
			continue
		}
		for ci, info := range infos[li] {
			slot := cascade.SlotIndex(li, ci)
			if info.Degenerate {
				lines = append(lines, fmt.Sprintf("L%d C%d: off", li, ci))
				continue
			}
			lines = append(lines, fmt.Sprintf("L%d C%d: %6.1f..%6.1f  draws %d", li, ci, info.Near, info.Far, stats.DrawsPerSlot[slot]))
		}
	}
	return lines
}
