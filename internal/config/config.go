package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netisu/xtoon"
)

// Vec is a position written as a YAML sequence of three numbers.
type Vec [3]float64

func (v Vec) Vector() xtoon.Vector {
	return xtoon.V(v[0], v[1], v[2])
}

type CameraCfg struct {
	Eye    Vec     `yaml:"eye,flow"`
	Center Vec     `yaml:"center,flow"`
	Up     Vec     `yaml:"up,flow"`
	Fovy   float64 `yaml:"fovy"`
	Near   float64 `yaml:"near"`
	Far    float64 `yaml:"far"`
	// Fit widens the field of view until the mesh is in frame.
	Fit bool `yaml:"fit"`
}

// ParamsCfg holds the parameters of every mode; only the active one is used.
type ParamsCfg struct {
	Depth      xtoon.DepthParams      `yaml:"depth"`
	Focus      xtoon.FocusParams      `yaml:"focus"`
	Silhouette xtoon.SilhouetteParams `yaml:"silhouette"`
	Highlight  xtoon.HighlightParams  `yaml:"highlight"`
}

type Config struct {
	Texture string `yaml:"texture"`
	Mesh    string `yaml:"mesh"`
	Mode    string `yaml:"mode"`    // depth | focus | silhouette | highlight
	Backend string `yaml:"backend"` // cpu | gpu

	Params ParamsCfg `yaml:"params"`
	Light  Vec       `yaml:"light,flow"`
	Camera CameraCfg `yaml:"camera"`

	Output      string  `yaml:"output"`
	Size        int     `yaml:"size"`
	Supersample int     `yaml:"supersample"`
	Wireframe   bool    `yaml:"wireframe"`
	PerFragment bool    `yaml:"per_fragment"`
	Simplify    float64 `yaml:"simplify,omitempty"`
	Refocus     bool    `yaml:"refocus"`
}

// Default mirrors the demo scene: a unit mesh seen from z=3 with the light
// over the viewer's shoulder.
func Default() *Config {
	return &Config{
		Mode:    "depth",
		Backend: "cpu",
		Params: ParamsCfg{
			Depth:      xtoon.DepthParams{ZNear: 1, ZFar: 100},
			Focus:      xtoon.FocusParams{ZFocal: 7, ZNear: 0, ZFar: 2.5},
			Silhouette: xtoon.SilhouetteParams{R: 1},
			Highlight:  xtoon.HighlightParams{S: 20},
		},
		Light: Vec{1, 1, 3},
		Camera: CameraCfg{
			Eye:    Vec{0, 0, 3},
			Center: Vec{0, 0, 0},
			Up:     Vec{0, 1, 0},
			Fovy:   45,
			Near:   0.1,
			Far:    100,
		},
		Output:      "xtoon.png",
		Size:        512,
		Supersample: 2,
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Texture     string
	Mesh        string
	Mode        string
	Backend     string
	Output      string
	Size        int
	Supersample int
	Simplify    float64
	Wireframe   bool
	PerFragment bool
	Refocus     bool
}

// Resolve applies the non-zero flags.
func (c *Config) Resolve(f Flags) {
	if f.Texture != "" {
		c.Texture = f.Texture
	}
	if f.Mesh != "" {
		c.Mesh = f.Mesh
	}
	if f.Mode != "" {
		c.Mode = f.Mode
	}
	if f.Backend != "" {
		c.Backend = f.Backend
	}
	if f.Output != "" {
		c.Output = f.Output
	}
	if f.Size > 0 {
		c.Size = f.Size
	}
	if f.Supersample > 0 {
		c.Supersample = f.Supersample
	}
	if f.Simplify > 0 {
		c.Simplify = f.Simplify
	}
	c.Wireframe = c.Wireframe || f.Wireframe
	c.PerFragment = c.PerFragment || f.PerFragment
	c.Refocus = c.Refocus || f.Refocus
}

// Validate checks the settings that are not covered by the engine's own
// parameter validation.
func (c *Config) Validate() error {
	var errs []error
	if c.Texture == "" {
		errs = append(errs, errors.New("config: texture is required"))
	}
	if c.Mesh == "" {
		errs = append(errs, errors.New("config: mesh is required"))
	}
	if m, err := xtoon.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	} else if m == xtoon.ModeNone {
		errs = append(errs, errors.New("config: mode is required"))
	}
	if _, err := xtoon.ParseBackend(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.Size < 1 || c.Size > 8192 {
		errs = append(errs, fmt.Errorf("config: size %d out of range [1, 8192]", c.Size))
	}
	if c.Supersample < 1 || c.Supersample > 8 {
		errs = append(errs, fmt.Errorf("config: supersample %d out of range [1, 8]", c.Supersample))
	}
	if c.Simplify < 0 || c.Simplify > 1 {
		errs = append(errs, fmt.Errorf("config: simplify %g out of range [0, 1]", c.Simplify))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("config: camera clip %g..%g is invalid", c.Camera.Near, c.Camera.Far))
	}
	return errors.Join(errs...)
}

// ModeParams returns the parameters of the configured mode.
func (c *Config) ModeParams() (xtoon.Params, error) {
	m, err := xtoon.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	switch m {
	case xtoon.ModeDepth:
		return c.Params.Depth, nil
	case xtoon.ModeFocus:
		return c.Params.Focus, nil
	case xtoon.ModeSilhouette:
		return c.Params.Silhouette, nil
	case xtoon.ModeHighlight:
		return c.Params.Highlight, nil
	}
	return nil, fmt.Errorf("config: mode %q has no parameters", c.Mode)
}
