// tickrec records a host simulation as a delta-encoded frame log and
// replays it with random access.
//
// Usage:
//
//	tickrec record                  - Record a snapshot source to a new log
//	tickrec info <file>             - Summarize a log
//	tickrec frames <file>           - Dump decoded frame records
//	tickrec view <file>             - Scrub through a log in the terminal
//	tickrec serve <file>            - Serve the scrubber over SSH
//	tickrec export <file>           - Export reconstructed states as JSON lines
//	tickrec query <file> <i> <path> - Query one reconstructed state
//	tickrec schema                  - Print the JSON Schema of exported states
//	tickrec index <file>...         - Add logs to the catalog
//	tickrec list                    - List catalogued logs
//	tickrec rooms [stage room]      - Room statistics and runs across logs
//	tickrec sources                 - List snapshot sources
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.tickrec/config.yaml)
//	--log-level <level> - Override the configured log level
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tickrec/internal/config"
	"github.com/vovakirdan/tickrec/internal/replay"

	// Import sources to register them
	_ "github.com/vovakirdan/tickrec/internal/source/synthetic"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tickrec",
	Short: "tickrec - record and replay simulation frames",
	Long: `tickrec records the state of a running simulation once per tick as a
compact delta log, and reconstructs any frame of that log on demand.

Available commands:
  record   - Record a snapshot source
  info     - Summarize a recording
  frames   - Dump raw frame records
  view     - Interactive frame scrubber
  serve    - Frame scrubber over SSH
  export   - JSON lines export of reconstructed states
  query    - Path query against one reconstructed state
  schema   - JSON Schema of the export format
  index    - Add recordings to the catalog
  list     - List catalogued recordings
  rooms    - Room runs across catalogued recordings
  sources  - List snapshot sources

Examples:
  tickrec record --seed 7 --ticks 6000
  tickrec info ~/.tickrec/recordings/synthetic-7-20260101-120000.tkr
  tickrec view run.tkr
  tickrec query run.tkr 120 'characters.0.health'
  tickrec rooms 0 3`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(framesCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(sourcesCmd)
}

// exitf prints an error to stderr and exits with status 1.
func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads the configuration and builds the command logger.
func loadConfig() (config.Config, *log.Logger) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		exitf("%v", err)
	}
	if flagLogLevel != "" {
		if _, err := log.ParseLevel(flagLogLevel); err != nil {
			exitf("invalid --log-level %q", flagLogLevel)
		}
		cfg.Log.Level = flagLogLevel
	}
	return cfg, config.NewLogger(cfg.Log, os.Stderr)
}

// loadRecording loads the log at path. With partial set, a damaged tail is
// logged and the intact prefix is used.
func loadRecording(path string, partial bool, logger *log.Logger) *replay.Recording {
	var opts []replay.Option
	if partial {
		opts = append(opts, replay.WithPartialTail())
	}

	rec, err := replay.Load(path, opts...)
	if err != nil {
		exitf("cannot load %s: %v", path, err)
	}
	if tailErr := rec.TailErr(); tailErr != nil {
		logger.Warn("recording ends in a damaged record", "path", path, "frames", rec.Len(), "err", tailErr)
	}
	return rec
}
