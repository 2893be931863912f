package csm

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrInvalidConfig = errors.New("invalid config")

// Config holds everything the demo reads at startup.
type Config struct {
	Window   WindowConfig    `yaml:"window"`
	Backend  Backend         `yaml:"backend"`
	Shadows  ShadowConfig    `yaml:"shadows"`
	Cascades []CascadeConfig `yaml:"cascades"`
	Camera   CameraConfig    `yaml:"camera"`
	Lights   []LightConfig   `yaml:"lights"`
	Scene    SceneConfig     `yaml:"scene"`
	Assets   AssetsConfig    `yaml:"assets"`
	Debug    DebugConfig     `yaml:"debug"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type ShadowConfig struct {
	Resolution  uint32  `yaml:"resolution"`
	DepthMargin float32 `yaml:"depth_margin"`
	DepthBias   int32   `yaml:"depth_bias"`
	SlopeBias   float32 `yaml:"slope_bias"`
	ReversedZ   bool    `yaml:"reversed_z"`
}

// CascadeConfig overrides one cascade's distance range. nil inherits the camera plane.
type CascadeConfig struct {
	Near *float32 `yaml:"near"`
	Far  *float32 `yaml:"far"`
}

type CameraConfig struct {
	FovDeg   float32    `yaml:"fov_deg"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
	Yaw      float32    `yaml:"yaw"`
	Pitch    float32    `yaml:"pitch"`
	Speed    float32    `yaml:"speed"`
}

type LightConfig struct {
	Direction    [3]float32 `yaml:"direction"`
	Color        [3]float32 `yaml:"color"`
	Intensity    float32    `yaml:"intensity"`
	CastsShadows bool       `yaml:"casts_shadows"`
}

type SceneConfig struct {
	Grid            int     `yaml:"grid"`
	Spacing         float32 `yaml:"spacing"`
	FoliagePatches  int     `yaml:"foliage_patches"`
	FoliagePerPatch int     `yaml:"foliage_per_patch"`
}

type AssetsConfig struct {
	GLTF          []string `yaml:"gltf"`
	LoaderWorkers int      `yaml:"loader_workers"`
}

type DebugConfig struct {
	ShowOverlay bool   `yaml:"show_overlay"`
	LogDebug    bool   `yaml:"log_debug"`
	StatsCSV    string `yaml:"stats_csv"`
}

// Load parses the embedded defaults, overlays the file at path (if any) and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Shadows.Resolution == 0 {
		return fmt.Errorf("%w: shadows.resolution must be positive", ErrInvalidConfig)
	}
	if c.Shadows.DepthMargin < 0 {
		return fmt.Errorf("%w: shadows.depth_margin must not be negative", ErrInvalidConfig)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: camera range [%g, %g]", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	if len(c.Cascades) > cascade.CascadeCount {
		return fmt.Errorf("%w: %d cascades configured, at most %d supported", ErrInvalidConfig, len(c.Cascades), cascade.CascadeCount)
	}
	for i, cc := range c.Cascades {
		near, far := c.Camera.Near, c.Camera.Far
		if cc.Near != nil {
			near = *cc.Near
		}
		if cc.Far != nil {
			far = *cc.Far
		}
		if near > far {
			return fmt.Errorf("%w: cascade %d near %g is past far %g", ErrInvalidConfig, i, near, far)
		}
	}
	if len(c.Lights) > cascade.MaxDirLights {
		return fmt.Errorf("%w: %d lights configured, at most %d supported", ErrInvalidConfig, len(c.Lights), cascade.MaxDirLights)
	}
	for i, l := range c.Lights {
		if mgl32.Vec3(l.Direction).Len() == 0 {
			return fmt.Errorf("%w: light %d has no direction", ErrInvalidConfig, i)
		}
	}
	if c.Assets.LoaderWorkers < 0 {
		return fmt.Errorf("%w: assets.loader_workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ApplyCascades replaces every slot of b with the configured overrides.
// Slots without an entry inherit both camera planes.
func (c *Config) ApplyCascades(b *cascade.Bounds) error {
	for i := 0; i < cascade.CascadeCount; i++ {
		var cc CascadeConfig
		if i < len(c.Cascades) {
			cc = c.Cascades[i]
		}
		if err := b.Set(i, cc.Near, cc.Far); err != nil {
			return fmt.Errorf("applying cascade %d: %w", i, err)
		}
	}
	return nil
}

// Convention is the depth convention for the configured backend.
func (c *Config) Convention() cascade.DepthConvention {
	clip := core.ClipZeroToOne
	if c.Backend == BackendGL {
		clip = core.ClipNegOneToOne
	}
	return cascade.DepthConvention{Clip: clip, Reversed: c.Shadows.ReversedZ}
}

func (c *Config) NewCamera() *core.CameraState {
	cam := core.NewCameraState()
	cam.FovY = mgl32.DegToRad(c.Camera.FovDeg)
	cam.NearPlane = c.Camera.Near
	cam.FarPlane = c.Camera.Far
	cam.Position = c.Camera.Position
	cam.Yaw = c.Camera.Yaw
	cam.Pitch = c.Camera.Pitch
	if c.Camera.Speed > 0 {
		cam.Speed = c.Camera.Speed
	}
	if c.Window.Height > 0 {
		cam.Aspect = float32(c.Window.Width) / float32(c.Window.Height)
	}
	cam.Clip = c.Convention().Clip
	return cam
}

func (c *Config) DirectionalLights() []core.DirectionalLight {
	out := make([]core.DirectionalLight, 0, len(c.Lights))
	for _, l := range c.Lights {
		dl := core.NewDirectionalLight(l.Direction, l.CastsShadows)
		dl.Color = l.Color
		dl.Intensity = l.Intensity
		out = append(out, dl)
	}
	return out
}
