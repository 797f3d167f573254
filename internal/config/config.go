// Package config provides YAML-based configuration loading for the recorder,
// the viewer and the catalog.
package config

import "time"

// Config is the complete tickrec configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Recorder RecorderConfig `yaml:"recorder"`
	Tracking TrackingConfig `yaml:"tracking"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Serve    ServeConfig    `yaml:"serve"`
}

// LogConfig controls the command loggers.
type LogConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	Prefix     string `yaml:"prefix"`
	Timestamps bool   `yaml:"timestamps"`
}

// RecorderConfig controls the record command.
type RecorderConfig struct {
	Source      string `yaml:"source"`       // registered snapshot source
	OutputDir   string `yaml:"output_dir"`   // may start with ~
	FilePattern string `yaml:"file_pattern"` // {source}, {seed} and {time} are expanded
	TickRate    int    `yaml:"tick_rate"`    // source ticks per second
	Ticks       int    `yaml:"ticks"`        // ticks to record when not given on the command line
}

// TrackingConfig controls what the tracker records.
type TrackingConfig struct {
	// ModelParts maps an actor kind to the model-part indices recorded for it.
	ModelParts map[uint8][]int `yaml:"model_parts"`
}

// ViewerConfig controls the interactive scrubber.
type ViewerConfig struct {
	LargeStep  int `yaml:"large_step"`  // frames per page up/down
	PlayRate   int `yaml:"play_rate"`   // frames per second during playback
	MapWidth   int `yaml:"map_width"`   // top-down map size in cells
	MapHeight  int `yaml:"map_height"`
	WorldScale int `yaml:"world_scale"` // world units per map cell
}

// CatalogConfig controls the recording catalog.
type CatalogConfig struct {
	Path string `yaml:"path"` // may start with ~
}

// ServeConfig controls the SSH viewer server.
type ServeConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	HostKeyPath string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}
