package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/recording"
	"github.com/vovakirdan/tickrec/internal/source"
	"github.com/vovakirdan/tickrec/internal/tracker"
)

var (
	flagSource   string
	flagSeed     int64
	flagTicks    int
	flagTickRate int
	flagOut      string
	flagRealtime bool
	flagIndex    bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a snapshot source to a new log",
	Long: `Step a snapshot source and record one frame per tick.

By default the source runs as fast as possible; --realtime paces it at the
tick rate. Ctrl+C stops recording early and keeps what was written.

The output path defaults to recorder.output_dir/recorder.file_pattern from
the config, where {source}, {seed} and {time} are expanded.

Examples:
  tickrec record
  tickrec record --seed 42 --ticks 9000
  tickrec record --out ./run.tkr --realtime
  tickrec record --index`,
	Args: cobra.NoArgs,
	Run:  runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&flagSource, "source", "", "Snapshot source ID (default from config)")
	recordCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Source seed (0 = random based on time)")
	recordCmd.Flags().IntVar(&flagTicks, "ticks", 0, "Ticks to record (default from config)")
	recordCmd.Flags().IntVar(&flagTickRate, "tick-rate", 0, "Source ticks per second (default from config)")
	recordCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file")
	recordCmd.Flags().BoolVar(&flagRealtime, "realtime", false, "Pace ticks at the tick rate")
	recordCmd.Flags().BoolVar(&flagIndex, "index", false, "Add the recording to the catalog when done")
}

func runRecord(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig()

	id := cfg.Recorder.Source
	if flagSource != "" {
		id = flagSource
	}
	if !source.Exists(id) {
		fmt.Fprintf(os.Stderr, "Error: unknown source %q\n", id)
		fmt.Fprintln(os.Stderr, "Run 'tickrec sources' to see available sources.")
		os.Exit(1)
	}

	rc := core.RuntimeConfig{TickRate: cfg.Recorder.TickRate, Seed: flagSeed}
	if flagTickRate > 0 {
		rc.TickRate = flagTickRate
	}
	if rc.Seed == 0 {
		rc.Seed = time.Now().UnixNano()
	}
	rc = rc.Normalized()

	ticks := cfg.Recorder.Ticks
	if flagTicks > 0 {
		ticks = flagTicks
	}

	path := flagOut
	if path == "" {
		var err error
		path, err = cfg.Recorder.RecordingPath(id, rc.Seed, time.Now())
		if err != nil {
			exitf("%v", err)
		}
	}

	src, err := source.Create(id)
	if err != nil {
		exitf("%v", err)
	}
	src.Reset(rc)

	w, err := recording.Create(path)
	if err != nil {
		exitf("%v", err)
	}
	rec := tracker.NewRecorder(tracker.New(logger, cfg.Tracking.ModelParts), w, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("recording", "source", id, "seed", rc.Seed, "ticks", ticks, "path", path)

	var pace <-chan time.Time
	if flagRealtime {
		ticker := time.NewTicker(time.Second / time.Duration(rc.TickRate))
		defer ticker.Stop()
		pace = ticker.C
	}

	recorded := recordTicks(ctx, rec, src, ticks, pace)
	if err := rec.Close(); err != nil {
		exitf("cannot close %s: %v", path, err)
	}

	stats := rec.Stats()
	logger.Info("done",
		"ticks", recorded,
		"written", stats.Written,
		"failed", stats.Failed,
		"changes", stats.Changes,
		"removals", stats.Removals,
	)
	fmt.Println(path)

	if flagIndex {
		indexFiles(cfg, logger, []string{path}, false)
	}
}

// recordTicks records up to ticks ticks of src, waiting on pace between
// ticks when it is non-nil. Returns the number of ticks recorded.
func recordTicks(ctx context.Context, rec *tracker.Recorder, src source.Source, ticks int, pace <-chan time.Time) int {
	for i := range ticks {
		if pace != nil {
			select {
			case <-ctx.Done():
				return i
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return i
		}

		rec.Tick(src)
		src.Step()
	}
	return ticks
}
