package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tickrec/internal/replay"
)

var (
	flagPartial bool
	flagRuns    bool
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Summarize a recording",
	Long: `Print the wire version, frame and checkpoint counts and the final
in-game time of a recording, optionally followed by its room runs.

Examples:
  tickrec info run.tkr
  tickrec info run.tkr --runs
  tickrec info damaged.tkr --partial`,
	Args: cobra.ExactArgs(1),
	Run:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&flagPartial, "partial", false, "Use the intact prefix of a damaged log")
	infoCmd.Flags().BoolVar(&flagRuns, "runs", false, "List room runs")
}

func runInfo(cmd *cobra.Command, args []string) {
	_, logger := loadConfig()
	path := args[0]
	rec := loadRecording(path, flagPartial, logger)

	fmt.Printf("File:        %s\n", path)
	if st, err := os.Stat(path); err == nil {
		fmt.Printf("Size:        %d bytes\n", st.Size())
	}
	fmt.Printf("Version:     %d\n", rec.Version())
	fmt.Printf("Frames:      %d\n", rec.Len())
	fmt.Printf("Checkpoints: %d\n", len(rec.Checkpoints()))
	if rec.Len() > 0 {
		last, err := rec.Seek(rec.Len() - 1)
		if err != nil {
			exitf("%v", err)
		}
		fmt.Printf("In-game:     %s\n", formatIGT(last.Game.IgtSeconds, last.Game.IgtFrames))
	}
	if err := rec.TailErr(); err != nil {
		fmt.Printf("Damaged:     %v\n", err)
	}

	if flagRuns {
		fmt.Println()
		printRuns(rec.RoomRuns())
	}
}

func formatIGT(seconds uint32, frames uint8) string {
	return fmt.Sprintf("%d:%02d:%02d.%02d", seconds/3600, seconds/60%60, seconds%60, frames)
}

func printRuns(runs []replay.RoomRun) {
	if len(runs) == 0 {
		fmt.Println("No room runs.")
		return
	}

	fmt.Printf("  %-6s  %-8s  %-8s  %-10s  %-12s  %s\n", "Run", "Start", "Frames", "Room", "In-game", "")
	fmt.Printf("  %-6s  %-8s  %-8s  %-10s  %-12s  %s\n", "---", "-----", "------", "----", "-------", "")
	for i, r := range runs {
		mark := ""
		if r.NewGame {
			mark = "new game"
		}
		fmt.Printf("  %-6d  %-8d  %-8d  %-10s  %-12s  %s\n",
			i, r.Start, r.Length, formatRoom(r.Room.Stage, r.Room.Room, r.Room.Player),
			formatIGT(r.IgtSeconds, 0), mark)
	}
}

func formatRoom(stage, room, player uint8) string {
	return fmt.Sprintf("%d-%02d p%d", stage, room, player)
}
