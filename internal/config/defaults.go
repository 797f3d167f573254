package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/tickrec/internal/tracker"
)

//go:embed defaults/tickrec.yaml
var defaultYAML []byte

// DefaultModelParts returns the model-part indices recorded per kind when the
// configuration does not name any.
func DefaultModelParts() map[uint8][]int {
	return tracker.DefaultModelParts()
}

// DefaultConfig returns the compiled-in configuration.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:      "info",
			Prefix:     "tickrec",
			Timestamps: true,
		},
		Recorder: RecorderConfig{
			Source:      "synthetic",
			OutputDir:   "~/.tickrec/recordings",
			FilePattern: "{source}-{seed}-{time}.tkr",
			TickRate:    30,
			Ticks:       3000,
		},
		Tracking: TrackingConfig{
			ModelParts: DefaultModelParts(),
		},
		Viewer: ViewerConfig{
			LargeStep:  30,
			PlayRate:   30,
			MapWidth:   48,
			MapHeight:  20,
			WorldScale: 400,
		},
		Catalog: CatalogConfig{
			Path: "~/.tickrec/catalog.db",
		},
		Serve: ServeConfig{
			Host:        "0.0.0.0",
			Port:        23235,
			HostKeyPath: ".ssh/tickrec_ed25519",
			IdleTimeout: 30 * time.Minute,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
