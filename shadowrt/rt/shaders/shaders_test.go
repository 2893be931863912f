package shaders

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wgslConst  = regexp.MustCompile(`(?m)^const (\w+): u32 = (\d+)u;`)
	glslDefine = regexp.MustCompile(`(?m)^#define (\w+) (\d+)`)
)

func constants(t *testing.T, re *regexp.Regexp, src string) map[string]int {
	t.Helper()
	out := map[string]int{}
	for _, m := range re.FindAllStringSubmatch(src, -1) {
		v, err := strconv.Atoi(m[2])
		require.NoError(t, err)
		out[m[1]] = v
	}
	return out
}

// The record array and light loops must size themselves like the packer.
func TestLitShaderLimitsMatchCascadePackage(t *testing.T) {
	want := map[string]int{
		"CASCADE_COUNT":  cascade.CascadeCount,
		"SLOT_COUNT":     cascade.SlotCount,
		"MAX_DIR_LIGHTS": cascade.MaxDirLights,
	}

	tests := []struct {
		name string
		re   *regexp.Regexp
		src  string
	}{
		{name: "lit.wgsl", re: wgslConst, src: LitWGSL},
		{name: "glsl/lit.frag", re: glslDefine, src: LitFrag},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := constants(t, tc.re, tc.src)
			for name, v := range want {
				require.Contains(t, got, name)
				assert.Equal(t, v, got[name], name)
			}
		})
	}
}
