package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/menta2k/image-cropper/pkg/llamacpp"
	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/ollama"
	"github.com/menta2k/image-cropper/pkg/raster"
)

// Config holds the application configuration
type Config struct {
	Mask    MaskConfig    `json:"mask"`
	Session SessionConfig `json:"session"`
	Raster  RasterConfig  `json:"raster"`
	Output  OutputConfig  `json:"output"`
	Vision  VisionConfig  `json:"vision"`
}

// MaskConfig selects the default mask
type MaskConfig struct {
	Shape  string `json:"shape"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SessionConfig holds configuration for interactive sessions
type SessionConfig struct {
	DisplaySide      float64       `json:"display_side"`
	SnapbackDuration time.Duration `json:"snapback_duration"`
	AnimationFPS     int           `json:"animation_fps"`
}

// RasterConfig holds configuration for the rasterizer
type RasterConfig struct {
	Filter string `json:"filter"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format"`
	OutputDir     string `json:"output_dir"`
	Quality       int    `json:"quality"`
	Lossless      bool   `json:"lossless"`
}

// Automatic framing backends
const (
	BackendSaliency = "saliency"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// VisionConfig holds configuration for automatic framing. An empty
// BackendURL uses the default address of the selected backend.
type VisionConfig struct {
	Enabled    bool          `json:"enabled"`
	Backend    string        `json:"backend"`
	BackendURL string        `json:"backend_url"`
	Model      string        `json:"model"`
	MaxDim     int           `json:"max_dim"`
	Quality    int           `json:"quality"`
	MaxScale   float64       `json:"max_scale"`
	Timeout    time.Duration `json:"timeout"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Mask: MaskConfig{
			Shape:  mask.Circle.String(),
			Width:  mask.DefaultSize,
			Height: mask.DefaultSize,
		},
		Session: SessionConfig{
			DisplaySide:      300,
			SnapbackDuration: 200 * time.Millisecond,
			AnimationFPS:     60,
		},
		Raster: RasterConfig{
			Filter: raster.DefaultFilter,
		},
		Output: OutputConfig{
			DefaultFormat: "png",
			OutputDir:     "./output",
			Quality:       90,
		},
		Vision: VisionConfig{
			Backend:  BackendSaliency,
			Model:    "llava:13b",
			MaxDim:   768,
			Quality:  85,
			MaxScale: 4,
			Timeout:  120 * time.Second,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Load reads filename when it exists, else the defaults, then applies the
// environment. A .env file in the working directory is loaded first if present.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load()

	config := Default()
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			if config, err = LoadFromFile(filename); err != nil {
				return nil, err
			}
		}
	}
	config.ApplyEnv()
	return config, config.Validate()
}

// ApplyEnv overrides fields from CROPPER_* environment variables
func (c *Config) ApplyEnv() {
	c.Mask.Shape = getEnv("CROPPER_MASK", c.Mask.Shape)
	if size := os.Getenv("CROPPER_SIZE"); size != "" {
		if w, h, err := mask.ParseSize(size); err == nil {
			c.Mask.Width, c.Mask.Height = w, h
		}
	}
	c.Session.DisplaySide = getEnvAsFloat("CROPPER_DISPLAY_SIDE", c.Session.DisplaySide)
	c.Raster.Filter = getEnv("CROPPER_FILTER", c.Raster.Filter)
	c.Output.DefaultFormat = getEnv("CROPPER_FORMAT", c.Output.DefaultFormat)
	c.Output.OutputDir = getEnv("CROPPER_OUTPUT_DIR", c.Output.OutputDir)
	c.Output.Quality = getEnvAsInt("CROPPER_QUALITY", c.Output.Quality)
	c.Vision.Enabled = getEnvAsBool("CROPPER_AUTO", c.Vision.Enabled)
	c.Vision.Backend = getEnv("CROPPER_BACKEND", c.Vision.Backend)
	c.Vision.BackendURL = getEnv("CROPPER_BACKEND_URL", c.Vision.BackendURL)
	c.Vision.Model = getEnv("CROPPER_MODEL", c.Vision.Model)
	c.Vision.Timeout = getDuration("CROPPER_VISION_TIMEOUT", c.Vision.Timeout)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Descriptor builds the mask descriptor the configuration selects
func (c *Config) Descriptor() (mask.Descriptor, error) {
	return mask.Parse(c.Mask.Shape, c.Mask.Width, c.Mask.Height)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Descriptor(); err != nil {
		return fmt.Errorf("mask: %w", err)
	}

	if c.Session.DisplaySide < 0 {
		return fmt.Errorf("session.display_side must not be negative")
	}

	if c.Session.AnimationFPS < 0 {
		return fmt.Errorf("session.animation_fps must not be negative")
	}

	if _, err := raster.ParseFilter(c.Raster.Filter); err != nil {
		return fmt.Errorf("raster.filter: %w", err)
	}

	switch strings.ToLower(c.Output.DefaultFormat) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("output.default_format must be png, jpg or webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch c.Vision.Backend {
	case BackendSaliency:
	case BackendOllama, BackendLlamaCpp:
		if c.Vision.Enabled && c.Vision.Model == "" {
			return fmt.Errorf("vision.model is required for the %s backend", c.Vision.Backend)
		}
	default:
		return fmt.Errorf("vision.backend must be saliency, ollama or llamacpp")
	}

	if c.Vision.MaxScale != 0 && c.Vision.MaxScale < 1 {
		return fmt.Errorf("vision.max_scale must be at least 1")
	}
	return nil
}

// URL returns the server address for the selected backend
func (v VisionConfig) URL() string {
	if v.BackendURL != "" {
		return v.BackendURL
	}
	switch v.Backend {
	case BackendOllama:
		return ollama.DefaultURL
	case BackendLlamaCpp:
		return llamacpp.DefaultURL
	}
	return ""
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-cropper", "config.json")
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
