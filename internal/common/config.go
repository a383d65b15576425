package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Cache       CacheConfig   `toml:"cache"`
	History     HistoryConfig `toml:"history"`
	Export      ExportConfig  `toml:"export"`
	Session     SessionConfig `toml:"session"`
	Logging     LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Port        int    `toml:"port" validate:"min=0,max=65535"`
	Host        string `toml:"host"`
	MaxUploadMB int    `toml:"max_upload_mb" validate:"min=1"` // bounds multipart document uploads
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CacheConfig bounds the parsed-document cache.
type CacheConfig struct {
	Capacity int `toml:"capacity" validate:"min=1"` // parsed handles held concurrently, FIFO eviction
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	Depth int `toml:"depth" validate:"min=1"` // snapshots kept before the oldest is dropped
}

// ExportConfig tunes rasterized exports.
type ExportConfig struct {
	ImageScale      float64 `toml:"image_scale" validate:"gt=0"`            // scale for jpg/png page exports
	CompressScale   float64 `toml:"compress_scale" validate:"gt=0"`         // scale for rasterize-and-rebuild
	CompressQuality float64 `toml:"compress_quality" validate:"gt=0,lte=1"` // JPEG quality fraction
	ThumbnailScale  float64 `toml:"thumbnail_scale" validate:"gt=0"`
}

// SessionConfig tunes the persistence bridge.
type SessionConfig struct {
	DebounceMs int `toml:"debounce_ms" validate:"min=0"` // coalesce window for rapid successive saves
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig returns the built-in defaults for a local deployment.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:        8741,
			Host:        "localhost",
			MaxUploadMB: 100,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/quire",
			},
		},
		Cache: CacheConfig{
			Capacity: 3,
		},
		History: HistoryConfig{
			Depth: 50,
		},
		Export: ExportConfig{
			ImageScale:      2.0,
			CompressScale:   1.5,
			CompressQuality: 0.85,
			ThumbnailScale:  0.3,
		},
		Session: SessionConfig{
			DebounceMs: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2
// -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides. Flags are the
// highest-priority configuration source.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("QUIRE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("QUIRE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("QUIRE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("QUIRE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if capacity := os.Getenv("QUIRE_CACHE_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil && c > 0 {
			config.Cache.Capacity = c
		}
	}

	if level := os.Getenv("QUIRE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("QUIRE_LOG_OUTPUT"); output != "" {
		var outputs []string
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}
