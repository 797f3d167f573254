package main

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tickrec/internal/catalog"
	"github.com/vovakirdan/tickrec/internal/config"
	"github.com/vovakirdan/tickrec/internal/replay"
)

var (
	flagDBPath string
	flagRemove bool
)

var indexCmd = &cobra.Command{
	Use:   "index <file>...",
	Short: "Add recordings to the catalog",
	Long: `Load each recording, derive its room runs and store them in the
catalog database. Indexing a file again replaces its entry. Damaged logs
are indexed from their intact prefix and marked partial.

Examples:
  tickrec index ~/.tickrec/recordings/*.tkr
  tickrec index old.tkr --remove`,
	Args: cobra.MinimumNArgs(1),
	Run:  runIndex,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to catalog database (default from config)")
	indexCmd.Flags().BoolVar(&flagRemove, "remove", false, "Remove the files from the catalog instead")
}

func runIndex(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig()
	indexFiles(cfg, logger, args, flagRemove)
}

// openCatalog opens the catalog named by --db or the config.
func openCatalog(cfg config.Config) *catalog.Store {
	path := cfg.Catalog.Path
	if flagDBPath != "" {
		path = flagDBPath
	}
	store, err := catalog.Open(path)
	if err != nil {
		exitf("%v", err)
	}
	return store
}

func indexFiles(cfg config.Config, logger *log.Logger, paths []string, remove bool) {
	store := openCatalog(cfg)
	defer store.Close()

	failed := 0
	for _, path := range paths {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if remove {
			if err := store.Remove(path); err != nil {
				logger.Error("cannot remove", "path", path, "err", err)
				failed++
				continue
			}
			logger.Info("removed", "path", path)
			continue
		}

		if err := indexFile(store, path); err != nil {
			logger.Error("cannot index", "path", path, "err", err)
			failed++
			continue
		}
		logger.Info("indexed", "path", path)
	}

	if failed > 0 {
		exitf("%d of %d files failed", failed, len(paths))
	}
}

func indexFile(store *catalog.Store, path string) error {
	rec, err := replay.Load(path, replay.WithPartialTail())
	if err != nil {
		return err
	}

	entry := catalog.Recording{
		Path:        path,
		Version:     rec.Version(),
		Frames:      rec.Len(),
		Checkpoints: len(rec.Checkpoints()),
		Partial:     rec.TailErr() != nil,
	}
	if st, err := os.Stat(path); err == nil {
		entry.SizeBytes = st.Size()
	}
	if rec.Len() > 0 {
		last, err := rec.Seek(rec.Len() - 1)
		if err != nil {
			return err
		}
		entry.IgtSeconds = last.Game.IgtSeconds
	}

	_, err = store.SaveRecording(entry, rec.RoomRuns())
	return err
}
