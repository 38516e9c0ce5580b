package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/llamacpp"
	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/ollama"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	desc, err := c.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, mask.NewCircle(), desc)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown shape", func(c *Config) { c.Mask.Shape = "hexagon" }},
		{"degenerate custom", func(c *Config) { c.Mask.Shape = "custom"; c.Mask.Width = 0 }},
		{"negative display", func(c *Config) { c.Session.DisplaySide = -1 }},
		{"unknown filter", func(c *Config) { c.Raster.Filter = "sinc" }},
		{"bad format", func(c *Config) { c.Output.DefaultFormat = "gif" }},
		{"bad quality", func(c *Config) { c.Output.Quality = 101 }},
		{"vision without model", func(c *Config) {
			c.Vision.Enabled = true
			c.Vision.Backend = BackendOllama
			c.Vision.Model = ""
		}},
		{"unknown backend", func(c *Config) { c.Vision.Backend = "openai" }},
		{"max scale below one", func(c *Config) { c.Vision.MaxScale = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	c := Default()
	c.Mask.Shape = "custom"
	c.Mask.Width, c.Mask.Height = 400, 200
	c.Session.SnapbackDuration = 350 * time.Millisecond
	require.NoError(t, c.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mask":{"shape":"square"}}`), 0644))

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "square", c.Mask.Shape)
	assert.Equal(t, Default().Raster, c.Raster)
	assert.Equal(t, Default().Vision, c.Vision)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CROPPER_MASK", "custom")
	t.Setenv("CROPPER_SIZE", "640x360")
	t.Setenv("CROPPER_FILTER", "bilinear")
	t.Setenv("CROPPER_QUALITY", "75")
	t.Setenv("CROPPER_AUTO", "true")
	t.Setenv("CROPPER_DISPLAY_SIDE", "not-a-number")
	t.Setenv("CROPPER_VISION_TIMEOUT", "30s")
	t.Setenv("CROPPER_BACKEND", "llamacpp")

	c, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	desc, err := c.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, mask.Custom, desc.Shape)
	assert.Equal(t, 640, desc.Width)
	assert.Equal(t, 360, desc.Height)
	assert.Equal(t, "bilinear", c.Raster.Filter)
	assert.Equal(t, 75, c.Output.Quality)
	assert.True(t, c.Vision.Enabled)
	assert.Equal(t, 300.0, c.Session.DisplaySide)
	assert.Equal(t, 30*time.Second, c.Vision.Timeout)
	assert.Equal(t, BackendLlamaCpp, c.Vision.Backend)
	assert.Equal(t, llamacpp.DefaultURL, c.Vision.URL())
}

func TestVisionURLFollowsBackend(t *testing.T) {
	v := Default().Vision
	assert.Equal(t, "", v.URL())

	v.Backend = BackendOllama
	assert.Equal(t, ollama.DefaultURL, v.URL())

	v.Backend = BackendLlamaCpp
	assert.Equal(t, llamacpp.DefaultURL, v.URL())

	v.BackendURL = "http://gpu-box:9000"
	assert.Equal(t, "http://gpu-box:9000", v.URL())
}

func TestSaliencyBackendNeedsNoModel(t *testing.T) {
	c := Default()
	c.Vision.Enabled = true
	c.Vision.Model = ""
	assert.NoError(t, c.Validate())
}

func TestBackendPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := Default()
	c.Vision.Backend = BackendOllama
	require.NoError(t, c.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, BackendOllama, loaded.Vision.Backend)
	assert.Equal(t, ollama.DefaultURL, loaded.Vision.URL())
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
}
