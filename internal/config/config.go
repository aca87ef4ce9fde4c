// Package config loads runtime settings for the image handle library and
// its command-line tool.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-handle/internal/handle"
	"github.com/ironsheep/image-handle/internal/imaging"
)

// Environment variables read by Load.
const (
	EnvConfigFile  = "IMAGE_HANDLE_CONFIG_FILE"
	EnvLogLevel    = "IMAGE_HANDLE_LOG_LEVEL"
	EnvLogFormat   = "IMAGE_HANDLE_LOG_FORMAT"
	EnvJPEGQuality = "IMAGE_HANDLE_JPEG_QUALITY"
	EnvMaxBuffer   = "IMAGE_HANDLE_MAX_BUFFER_BYTES"
)

// Config holds the settings shared by the shared library and the CLI.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	JPEGQuality int `yaml:"jpeg_quality"`

	// MaxBufferBytes caps the size of any single pixel buffer.
	MaxBufferBytes int `yaml:"max_buffer_bytes"`
}

// Default returns the built-in settings.
func Default() *Config {
	c := &Config{
		JPEGQuality:    imaging.DefaultJPEGQuality,
		MaxBufferBytes: handle.DefaultMaxBufferBytes,
	}
	c.Log.Level = "warn"
	c.Log.Format = "console"
	return c
}

// Load builds the configuration.
//
// Priority, lowest first:
//  1. built-in defaults
//  2. the YAML file at path, or at $IMAGE_HANDLE_CONFIG_FILE if path is empty
//  3. IMAGE_HANDLE_LOG_LEVEL, IMAGE_HANDLE_LOG_FORMAT, IMAGE_HANDLE_JPEG_QUALITY,
//     IMAGE_HANDLE_MAX_BUFFER_BYTES
//
// Out-of-range values fall back to their defaults.
func Load(path string) (*Config, error) {
	c := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvJPEGQuality); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvJPEGQuality, v, err)
		}
		c.JPEGQuality = q
	}
	if v := os.Getenv(EnvMaxBuffer); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvMaxBuffer, v, err)
		}
		c.MaxBufferBytes = n
	}

	c.normalize()
	return c, nil
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil || c.Log.Level == "" {
		c.Log.Level = "warn"
	}

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format != "json" && c.Log.Format != "console" {
		c.Log.Format = "console"
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = imaging.DefaultJPEGQuality
	}

	if c.MaxBufferBytes <= 0 {
		c.MaxBufferBytes = handle.DefaultMaxBufferBytes
	}
}

// Logger builds a zap logger writing to stderr at the configured level and
// encoding.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}

	var zc zap.Config
	if c.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = level > zapcore.DebugLevel

	return zc.Build()
}
