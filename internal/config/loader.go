package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Load loads the configuration.
// Search order: customPath -> ~/.tickrec/config.yaml -> ./configs/tickrec.yaml -> embedded default
//
// Fields missing from the file keep their compiled-in defaults. A model_parts
// table in the file replaces the default table instead of merging with it.
func Load(customPath string) (Config, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return DefaultConfig(), fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/tickrec.yaml"); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := Parse(defaultYAML)
	if err != nil {
		return DefaultConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Parse decodes YAML on top of DefaultConfig and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	cfg.Tracking.ModelParts = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Tracking.ModelParts == nil {
		cfg.Tracking.ModelParts = DefaultModelParts()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Recorder.TickRate < 1 || c.Recorder.TickRate > 255 {
		return fmt.Errorf("recorder.tick_rate must be in [1, 255], got %d", c.Recorder.TickRate)
	}
	if c.Recorder.FilePattern == "" {
		return errors.New("recorder.file_pattern must not be empty")
	}
	for kind, parts := range c.Tracking.ModelParts {
		for _, i := range parts {
			if i < 0 || i > 255 {
				return fmt.Errorf("tracking.model_parts[%d]: index %d out of range", kind, i)
			}
		}
	}
	if c.Viewer.LargeStep < 1 || c.Viewer.PlayRate < 1 {
		return errors.New("viewer.large_step and viewer.play_rate must be positive")
	}
	if c.Viewer.MapWidth < 8 || c.Viewer.MapHeight < 4 || c.Viewer.WorldScale < 1 {
		return fmt.Errorf("viewer map %dx%d at scale %d is too small", c.Viewer.MapWidth, c.Viewer.MapHeight, c.Viewer.WorldScale)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port %d out of range", c.Serve.Port)
	}
	return nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tickrec", filename)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// RecordingPath returns the output file for a recording of source with seed,
// started at now.
func (c RecorderConfig) RecordingPath(source string, seed int64, now time.Time) (string, error) {
	dir, err := ExpandPath(c.OutputDir)
	if err != nil {
		return "", err
	}
	name := strings.NewReplacer(
		"{source}", source,
		"{seed}", strconv.FormatInt(seed, 10),
		"{time}", now.UTC().Format("20060102-150405"),
	).Replace(c.FilePattern)
	return filepath.Join(dir, name), nil
}

// NewLogger returns a logger writing to w with the configured level and prefix.
// Unknown levels fall back to info.
func NewLogger(cfg LogConfig, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: cfg.Timestamps,
		Prefix:          cfg.Prefix,
		Level:           level,
	})
}
