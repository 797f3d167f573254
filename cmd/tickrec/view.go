package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tickrec/internal/platform/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Scrub through a recording",
	Long: `Open a recording in the interactive frame scrubber.

Controls:
  Left/Right, h/l     - Previous/next frame
  PgUp/PgDn, H/L      - Skip viewer.large_step frames
  [/p, ]/n            - Room start / next room
  Home/End, g/G       - First/last frame
  0-9 Enter           - Go to frame
  Space               - Play/pause
  Up/Down, k/j        - Scroll the slot table
  ?                   - Full help
  Q/Ctrl+C            - Quit

Examples:
  tickrec view run.tkr
  tickrec view damaged.tkr --partial`,
	Args: cobra.ExactArgs(1),
	Run:  runView,
}

func init() {
	viewCmd.Flags().BoolVar(&flagPartial, "partial", false, "Use the intact prefix of a damaged log")
}

func runView(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		exitf("view needs a terminal; use 'tickrec frames' or 'tickrec export' instead")
	}

	rec := loadRecording(args[0], flagPartial, logger)
	if err := tui.Run(rec, cfg.Viewer, filepath.Base(args[0])); err != nil {
		exitf("%v", err)
	}
}
