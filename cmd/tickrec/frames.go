package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tickrec/internal/delta"
)

var (
	flagFrom int
	flagTo   int
)

var framesCmd = &cobra.Command{
	Use:   "frames <file>",
	Short: "Dump decoded frame records",
	Long: `Print the raw frame records of a recording, one line per game change
list and one line per changed slot. Character slots are prefixed with c,
object slots with o.

Examples:
  tickrec frames run.tkr --to 10
  tickrec frames run.tkr --from 300 --to 330`,
	Args: cobra.ExactArgs(1),
	Run:  runFrames,
}

func init() {
	framesCmd.Flags().IntVar(&flagFrom, "from", 0, "First frame")
	framesCmd.Flags().IntVar(&flagTo, "to", -1, "Frame to stop before (-1 = end)")
	framesCmd.Flags().BoolVar(&flagPartial, "partial", false, "Use the intact prefix of a damaged log")
}

func runFrames(cmd *cobra.Command, args []string) {
	_, logger := loadConfig()
	rec := loadRecording(args[0], flagPartial, logger)

	to := flagTo
	if to < 0 || to > rec.Len() {
		to = rec.Len()
	}
	for i := max(flagFrom, 0); i < to; i++ {
		f, err := rec.Frame(i)
		if err != nil {
			exitf("%v", err)
		}
		printFrame(i, f)
	}
}

func printFrame(i int, f *delta.FrameRecord) {
	fmt.Printf("#%-6d igt=%s rolls=%d", i, formatIGT(f.IgtSeconds, f.IgtFrames), f.RollCount)
	if len(f.Game) > 0 {
		parts := make([]string, len(f.Game))
		for k, c := range f.Game {
			parts[k] = formatChange(c.Tag().String(), c)
		}
		fmt.Printf("  %s", strings.Join(parts, " "))
	}
	fmt.Println()

	for _, group := range []struct {
		prefix string
		diffs  []delta.SlotDiff
	}{{"c", f.Characters}, {"o", f.Objects}} {
		for _, d := range group.diffs {
			parts := make([]string, len(d.Changes))
			for k, c := range d.Changes {
				parts[k] = formatChange(c.Tag().String(), c)
			}
			fmt.Printf("        %s%-3d %s\n", group.prefix, d.Slot, strings.Join(parts, " "))
		}
	}
}

// formatChange renders a change as Tag{fields}.
func formatChange(tag string, c any) string {
	body := fmt.Sprintf("%+v", c)
	if body == "{}" {
		return tag
	}
	return tag + body
}
