package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tickrec/internal/platform/tui"
)

var (
	flagHost        string
	flagPort        int
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve the frame scrubber over SSH",
	Long: `Start an SSH server that shows one recording in the frame scrubber.

Each SSH connection gets its own scrubber position; the recording is
loaded and indexed once.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise uses serve.host_key from the config, generating it if missing

Examples:
  tickrec serve run.tkr
  tickrec serve run.tkr --port 2222
  tickrec serve run.tkr --host-key ./my_host_key

Users can connect with:
  ssh localhost -p 23235`,
	Args: cobra.ExactArgs(1),
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes (default from config)")
	serveCmd.Flags().BoolVar(&flagPartial, "partial", false, "Use the intact prefix of a damaged log")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, logger := loadConfig()

	sc := cfg.Serve
	if flagHost != "" {
		sc.Host = flagHost
	}
	if flagPort > 0 {
		sc.Port = flagPort
	}
	if flagHostKey != "" {
		sc.HostKeyPath = flagHostKey
	}
	if flagIdleTimeout > 0 {
		sc.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}

	rec := loadRecording(args[0], flagPartial, logger)

	server, err := tui.NewSSHServer(rec, filepath.Base(args[0]), cfg.Viewer, sc, logger.WithPrefix(cfg.Log.Prefix+"-ssh"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Serving %s on %s\n", args[0], server.Addr())
	fmt.Printf("Connect with: ssh localhost -p %d\n", sc.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
