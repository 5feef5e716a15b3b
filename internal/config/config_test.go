package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netisu/xtoon"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	c := Default()
	c.Texture = "tones/depth.bmp"
	c.Mesh = "models/bunny.off"
	c.Mode = "focus"
	c.Params.Focus = xtoon.FocusParams{ZFocal: 9, ZNear: 0.25, ZFar: 3}
	c.Light = Vec{2, 3, 4}
	c.Camera.Fit = true

	path := filepath.Join(t.TempDir(), "xtoon.yaml")
	require.NoError(t, Save(path, c))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	src := `
texture: tone.bmp
mesh: cube.off
mode: silhouette
params:
  silhouette:
    r: 4
light: [0, 5, 5]
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, xtoon.SilhouetteParams{R: 4}, c.Params.Silhouette)
	assert.Equal(t, xtoon.DepthParams{ZNear: 1, ZFar: 100}, c.Params.Depth)
	assert.Equal(t, Vec{0, 5, 5}, c.Light)
	assert.Equal(t, 512, c.Size)
	assert.Equal(t, xtoon.V(0, 5, 5), c.Light.Vector())
	require.NoError(t, c.Validate())

	p, err := c.ModeParams()
	require.NoError(t, err)
	assert.Equal(t, xtoon.SilhouetteParams{R: 4}, p)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config: read")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: [1, 2"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "config: parse")
}

func TestResolveFlagsOverride(t *testing.T) {
	c := Default()
	c.Texture = "file.bmp"
	c.Size = 128
	c.Resolve(Flags{Mesh: "flag.off", Mode: "highlight", Size: 64, Refocus: true})

	assert.Equal(t, "file.bmp", c.Texture)
	assert.Equal(t, "flag.off", c.Mesh)
	assert.Equal(t, "highlight", c.Mode)
	assert.Equal(t, 64, c.Size)
	assert.Equal(t, 2, c.Supersample)
	assert.True(t, c.Refocus)
	assert.False(t, c.Wireframe)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Texture = "t.bmp"
		c.Mesh = "m.off"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"no texture":    func(c *Config) { c.Texture = "" },
		"no mesh":       func(c *Config) { c.Mesh = "" },
		"unknown mode":  func(c *Config) { c.Mode = "phong" },
		"none mode":     func(c *Config) { c.Mode = "none" },
		"bad backend":   func(c *Config) { c.Backend = "vulkan" },
		"size":          func(c *Config) { c.Size = 0 },
		"supersample":   func(c *Config) { c.Supersample = 16 },
		"simplify":      func(c *Config) { c.Simplify = 1.5 },
		"inverted clip": func(c *Config) { c.Camera.Near, c.Camera.Far = 10, 1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
