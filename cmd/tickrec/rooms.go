package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tickrec/internal/catalog"
)

var flagPlayer int

var roomsCmd = &cobra.Command{
	Use:   "rooms [stage room]",
	Short: "Room statistics and runs across catalogued recordings",
	Long: `Without arguments, show per-room statistics over every catalogued
recording. With a stage and room, list the runs of that room, longest first.

Examples:
  tickrec rooms
  tickrec rooms 0 3
  tickrec rooms 0 3 --player 1`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or <stage> <room>, got %d arguments", len(args))
		}
		return nil
	},
	Run: runRooms,
}

func init() {
	roomsCmd.Flags().IntVar(&flagPlayer, "player", catalog.AnyPlayer, "Scenario/player selector (-1 = any)")
}

func runRooms(cmd *cobra.Command, args []string) {
	cfg, _ := loadConfig()
	store := openCatalog(cfg)
	defer store.Close()

	if len(args) == 0 {
		printRoomStats(store)
		return
	}

	stage, err := parseByte(args[0])
	if err != nil {
		exitf("invalid stage %q", args[0])
	}
	room, err := parseByte(args[1])
	if err != nil {
		exitf("invalid room %q", args[1])
	}

	runs, err := store.FindRuns(stage, room, flagPlayer)
	if err != nil {
		exitf("%v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs of that room.")
		return
	}

	fmt.Printf("  %-24s  %-5s  %-8s  %-8s  %-10s  %s\n", "File", "Run", "Start", "Frames", "Room", "In-game")
	fmt.Printf("  %-24s  %-5s  %-8s  %-8s  %-10s  %s\n", "----", "---", "-----", "------", "----", "-------")
	for _, r := range runs {
		fmt.Printf("  %-24s  %-5d  %-8d  %-8d  %-10s  %s\n",
			filepath.Base(r.Path), r.Index, r.Start, r.Length,
			formatRoom(r.Room.Stage, r.Room.Room, r.Room.Player), formatIGT(r.IgtSeconds, 0))
	}
}

func printRoomStats(store *catalog.Store) {
	stats, err := store.AllRoomStats()
	if err != nil {
		exitf("%v", err)
	}
	if len(stats) == 0 {
		fmt.Println("No room runs catalogued.")
		return
	}

	fmt.Printf("  %-10s  %-6s  %-10s  %-10s  %-10s  %s\n", "Room", "Runs", "Recordings", "Frames", "Average", "Shortest")
	fmt.Printf("  %-10s  %-6s  %-10s  %-10s  %-10s  %s\n", "----", "----", "----------", "------", "-------", "--------")
	for _, s := range stats {
		fmt.Printf("  %-10s  %-6d  %-10d  %-10d  %-10.1f  %d\n",
			formatRoom(s.Room.Stage, s.Room.Room, s.Room.Player),
			s.Runs, s.Recordings, s.TotalFrames, s.AvgFrames, s.Shortest)
	}
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	return uint8(v), err
}
