package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tickrec/internal/export"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export reconstructed states as JSON lines",
	Long: `Write one JSON document per frame: the reconstructed state plus the
frame index, its checkpoint, its change count and the held buttons by name.
Run 'tickrec schema' for the document schema.

Examples:
  tickrec export run.tkr --to 100 > first100.jsonl
  tickrec export run.tkr --from 500 --out room.jsonl`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

var queryCmd = &cobra.Command{
	Use:   "query <file> <frame> <path>",
	Short: "Query one reconstructed state",
	Long: `Evaluate a GJSON path against the exported document of one frame.

Examples:
  tickrec query run.tkr 120 game.room
  tickrec query run.tkr 120 'characters.0.transform.translation'
  tickrec query run.tkr 120 'characters.#(health<=0)#.kind'`,
	Args: cobra.ExactArgs(3),
	Run:  runQuery,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of exported states",
	Args:  cobra.NoArgs,
	Run:   runSchema,
}

func init() {
	exportCmd.Flags().IntVar(&flagFrom, "from", 0, "First frame")
	exportCmd.Flags().IntVar(&flagTo, "to", -1, "Frame to stop before (-1 = end)")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVar(&flagPartial, "partial", false, "Use the intact prefix of a damaged log")

	queryCmd.Flags().BoolVar(&flagPartial, "partial", false, "Use the intact prefix of a damaged log")

	schemaCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) {
	_, logger := loadConfig()
	rec := loadRecording(args[0], flagPartial, logger)

	out := os.Stdout
	if flagExportOut != "" {
		f, err := os.Create(flagExportOut)
		if err != nil {
			exitf("%v", err)
		}
		defer f.Close()
		out = f
	}

	e := export.New(rec)
	n, err := e.WriteRange(out, flagFrom, flagTo)
	if err != nil {
		exitf("export stopped after %d frames: %v", n, err)
	}
	logger.Debug("exported", "frames", n)
}

func runQuery(cmd *cobra.Command, args []string) {
	_, logger := loadConfig()
	rec := loadRecording(args[0], flagPartial, logger)

	frame, err := strconv.Atoi(args[1])
	if err != nil {
		exitf("invalid frame %q", args[1])
	}

	res, err := export.New(rec).Query(frame, args[2])
	if err != nil {
		exitf("%v", err)
	}
	fmt.Println(res.Raw)
}

func runSchema(cmd *cobra.Command, args []string) {
	data, err := export.SchemaJSON()
	if err != nil {
		exitf("%v", err)
	}

	if flagExportOut == "" {
		w := bufio.NewWriter(os.Stdout)
		w.Write(data) //nolint:errcheck // flushed below
		if err := w.Flush(); err != nil {
			exitf("%v", err)
		}
		return
	}

	if err := writeFileAtomic(flagExportOut, data); err != nil {
		exitf("%v", err)
	}
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
