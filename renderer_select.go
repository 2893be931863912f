package csm

import (
	"fmt"
	"strings"
)

// Backend identifies a concrete graphics backend for the shadow pass.
// Keep names aligned with the values accepted in defaults.yaml.
type Backend string

const (
	BackendWGPU Backend = "wgpu"
	BackendGL   Backend = "gl"
)

// ParseBackend accepts a backend name case-insensitively. Empty means wgpu.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BackendWGPU), "webgpu":
		return BackendWGPU, nil
	case string(BackendGL), "opengl":
		return BackendGL, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want %q or %q)", s, BackendWGPU, BackendGL)
	}
}

// UnmarshalText lets the YAML config and flags use aliases like "opengl".
func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b Backend) String() string { return string(b) }
