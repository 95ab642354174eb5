package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration.
type Config struct {
	Vision  VisionConfig  `json:"vision"`
	Cropper CropperConfig `json:"cropper"`
	Export  ExportConfig  `json:"export"`
	Output  OutputConfig  `json:"output"`
}

// VisionConfig holds configuration for the remote vision service.
type VisionConfig struct {
	Backend        string `json:"backend"` // "ollama", "http", or "" = disabled
	URL            string `json:"url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries"`
}

// CropperConfig holds configuration for smart cropping.
type CropperConfig struct {
	Padding int `json:"padding"`
}

// ExportConfig holds configuration for sticker export.
type ExportConfig struct {
	MaxLossyBytes int `json:"max_lossy_bytes"`
}

// OutputConfig holds configuration for output generation.
type OutputConfig struct {
	OutputDir string `json:"output_dir"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Vision: VisionConfig{
			Backend:        "",
			URL:            "",
			Model:          "minicpm-v",
			TimeoutSeconds: 30,
			MaxRetries:     2,
		},
		Cropper: CropperConfig{
			Padding: 8,
		},
		Export: ExportConfig{
			MaxLossyBytes: 100 * 1024,
		},
		Output: OutputConfig{
			OutputDir: "./stickers",
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file.
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

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Vision.Backend {
	case "", "ollama", "http":
	default:
		return fmt.Errorf("vision.backend must be \"ollama\", \"http\" or empty")
	}

	if c.Vision.TimeoutSeconds < 0 {
		return fmt.Errorf("vision.timeout_seconds must not be negative")
	}

	if c.Vision.MaxRetries < 0 {
		return fmt.Errorf("vision.max_retries must not be negative")
	}

	if c.Cropper.Padding < 0 {
		return fmt.Errorf("cropper.padding must not be negative")
	}

	if c.Export.MaxLossyBytes < 0 {
		return fmt.Errorf("export.max_lossy_bytes must not be negative")
	}

	return nil
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "sticker-maker", "config.json")
}
