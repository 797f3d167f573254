package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var flagLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued recordings",
	Long:  `Shows the recordings in the catalog, most recently indexed first.`,
	Args:  cobra.NoArgs,
	Run:   runList,
}

func init() {
	listCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Number of recordings to show")
}

func runList(cmd *cobra.Command, args []string) {
	cfg, _ := loadConfig()
	store := openCatalog(cfg)
	defer store.Close()

	recs, err := store.Recordings(flagLimit)
	if err != nil {
		exitf("%v", err)
	}

	if len(recs) == 0 {
		fmt.Println("No recordings catalogued.")
		fmt.Println("Run 'tickrec index <file>' to add one.")
		return
	}

	// Calculate column widths
	maxNameLen := 4 // "File" header
	for _, r := range recs {
		if n := len(filepath.Base(r.Path)); n > maxNameLen {
			maxNameLen = n
		}
	}

	fmt.Printf("  %-*s  %-3s  %-8s  %-5s  %-12s  %-16s  %s\n", maxNameLen, "File", "Ver", "Frames", "Runs", "In-game", "Indexed", "")
	fmt.Printf("  %-*s  %-3s  %-8s  %-5s  %-12s  %-16s  %s\n", maxNameLen, "----", "---", "------", "----", "-------", "-------", "")
	for _, r := range recs {
		mark := ""
		if r.Partial {
			mark = "partial"
		}
		fmt.Printf("  %-*s  %-3d  %-8d  %-5d  %-12s  %-16s  %s\n",
			maxNameLen, filepath.Base(r.Path), r.Version, r.Frames, r.Checkpoints,
			formatIGT(r.IgtSeconds, 0), r.IndexedAt.Local().Format("2006-01-02 15:04"), mark)
	}
}
