package tracker

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tickrec/internal/delta"
	"github.com/vovakirdan/tickrec/internal/recording"
)

// Stats counts what a Recorder has done so far.
type Stats struct {
	Ticks    int
	Written  int
	Failed   int
	Changes  int
	Removals int
}

// Recorder drives a Tracker from the host's tick callback and appends every
// record to a log. Ticks are serialized; a failed write is logged and the
// next tick is recorded normally. The tracker cache is not rolled back, so
// the lost record's changes are not repeated.
type Recorder struct {
	mu      sync.Mutex
	tracker *Tracker
	writer  *recording.Writer
	logger  *log.Logger
	stats   Stats
}

// NewRecorder returns a Recorder writing to w.
func NewRecorder(t *Tracker, w *recording.Writer, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = t.logger
	}
	return &Recorder{tracker: t, writer: w, logger: logger}
}

// Tick records one tick of snap and returns the emitted record.
func (r *Recorder) Tick(snap Snapshot) *delta.FrameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.tracker.Tick(snap)
	r.stats.Ticks++
	r.stats.Changes += f.ChangeCount()
	for _, group := range [][]delta.SlotDiff{f.Characters, f.Objects} {
		for _, d := range group {
			if len(d.Changes) == 1 && d.Changes[0].Tag() == delta.TagRemoved {
				r.stats.Removals++
			}
		}
	}

	if err := r.writer.Write(f); err != nil {
		r.stats.Failed++
		r.logger.Warn("frame lost", "tick", r.stats.Ticks-1, "err", err)
		return f
	}
	r.stats.Written = r.writer.Frames()
	return f
}

// Stats returns a copy of the counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Close closes the underlying writer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}
