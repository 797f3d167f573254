package tui

import (
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tickrec/internal/config"
)

func TestListenAndServeReturnsBindError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	defer taken.Close()

	cfg := config.ServeConfig{
		Host:        "127.0.0.1",
		Port:        taken.Addr().(*net.TCPAddr).Port,
		HostKeyPath: filepath.Join(t.TempDir(), "keys", "host_ed25519"),
	}
	srv, err := NewSSHServer(testRecording(), "test", testViewerConfig(), cfg, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewSSHServer() failed: %v", err)
	}
	if srv.Sessions() != 0 {
		t.Errorf("Sessions() = %d, expected 0", srv.Sessions())
	}

	result := make(chan error, 1)
	go func() { result <- srv.ListenAndServe() }()

	select {
	case err := <-result:
		if err == nil {
			t.Error("ListenAndServe() on a taken port should fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after the listener failed")
	}
}
