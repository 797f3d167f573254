package replay

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vovakirdan/tickrec/internal/delta"
	"github.com/vovakirdan/tickrec/internal/model"
	"github.com/vovakirdan/tickrec/internal/recording"
)

var (
	// ErrIndexOutOfRange is returned when seeking outside [0, Len()).
	ErrIndexOutOfRange = errors.New("replay: frame index out of range")

	// ErrEmptyLog is returned by every seek on a recording without frames.
	ErrEmptyLog = errors.New("replay: empty log")
)

// Checkpoint is a self-contained State at the first frame of a room run.
type Checkpoint struct {
	Frame int
	State *model.State
}

// RoomRun is a contiguous span of frames that share a room.
type RoomRun struct {
	Start      int          `json:"start"`
	Length     int          `json:"length"`
	Room       model.RoomID `json:"room"`
	NewGame    bool         `json:"new_game"`
	IgtSeconds uint32       `json:"igt_seconds"`
}

// End returns the index one past the last frame of the run.
func (r RoomRun) End() int {
	return r.Start + r.Length
}

// window is the span of States materialized from one checkpoint.
// states[k] is the State at frame checkpoints[cp].Frame + k.
type window struct {
	cp     int
	states []*model.State
}

// Recording is a loaded log with its checkpoint index. The frames and
// checkpoints are immutable after construction; the window is owned by the
// Recording, so concurrent users must Clone it.
type Recording struct {
	frames      []*delta.FrameRecord
	checkpoints []Checkpoint
	version     uint16
	tailErr     error

	win   window
	steps int
}

// New indexes frames. The slice is retained and must not be modified.
func New(frames []*delta.FrameRecord) *Recording {
	r := &Recording{
		frames:  frames,
		version: delta.CurrentVersion,
		win:     window{cp: -1},
	}
	r.buildIndex()
	return r
}

type options struct {
	partialTail bool
}

// Option configures Load.
type Option func(*options)

// WithPartialTail makes Load keep the frames decoded before a corrupt or
// truncated record instead of failing. The error is available from TailErr.
func WithPartialTail() Option {
	return func(o *options) {
		o.partialTail = true
	}
}

// Load reads the log at path and builds its checkpoint index.
func Load(path string, opts ...Option) (*Recording, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	frames, version, err := recording.ReadFile(path)
	if err != nil {
		// A zero version means the header itself was unusable.
		if version == 0 || !o.partialTail {
			return nil, err
		}
	}

	r := New(frames)
	r.version = version
	r.tailErr = err
	return r, nil
}

func (r *Recording) buildIndex() {
	s := model.NewState()
	for i, f := range r.frames {
		ApplyInPlace(s, f)
		if s.RoomFrame == 0 {
			r.checkpoints = append(r.checkpoints, Checkpoint{Frame: i, State: s.Clone()})
		}
	}
}

// Len returns the number of frames.
func (r *Recording) Len() int {
	return len(r.frames)
}

// Version returns the wire version the log was written with.
func (r *Recording) Version() uint16 {
	return r.version
}

// TailErr returns the decode error that ended a partial load, or nil.
func (r *Recording) TailErr() error {
	return r.tailErr
}

// Frame returns the raw record at index i.
func (r *Recording) Frame(i int) (*delta.FrameRecord, error) {
	if i < 0 || i >= len(r.frames) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(r.frames))
	}
	return r.frames[i], nil
}

// Checkpoints returns the checkpoint index in increasing frame order.
// The States are shared and must not be modified.
func (r *Recording) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(r.checkpoints))
	copy(out, r.checkpoints)
	return out
}

// CheckpointFor returns the position in Checkpoints of the last checkpoint at
// or before frame i, or -1 when there is none.
func (r *Recording) CheckpointFor(i int) int {
	return sort.Search(len(r.checkpoints), func(k int) bool {
		return r.checkpoints[k].Frame > i
	}) - 1
}

// RoomRuns derives one run per checkpoint.
func (r *Recording) RoomRuns() []RoomRun {
	runs := make([]RoomRun, len(r.checkpoints))
	for k, cp := range r.checkpoints {
		end := len(r.frames)
		if k+1 < len(r.checkpoints) {
			end = r.checkpoints[k+1].Frame
		}
		runs[k] = RoomRun{
			Start:      cp.Frame,
			Length:     end - cp.Frame,
			Room:       cp.State.Game.Room,
			NewGame:    cp.State.Game.NewGame,
			IgtSeconds: cp.State.Game.IgtSeconds,
		}
	}
	return runs
}

// Seek returns the State at frame i. The result points into the Recording's
// window and stays valid until a later Seek lands in another room run;
// callers must not modify it.
//
// Seeking inside the current window is a lookup. Otherwise the window is
// replayed from the nearest checkpoint at or before i, and every State on the
// way is kept for later seeks within the same run.
func (r *Recording) Seek(i int) (*model.State, error) {
	if len(r.checkpoints) == 0 {
		return nil, ErrEmptyLog
	}
	if i < 0 || i >= len(r.frames) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(r.frames))
	}

	cp := r.CheckpointFor(i)
	if cp != r.win.cp {
		r.win.cp = cp
		r.win.states = append(r.win.states[:0], r.checkpoints[cp].State)
	}

	base := r.checkpoints[cp].Frame
	for len(r.win.states) <= i-base {
		last := r.win.states[len(r.win.states)-1]
		r.win.states = append(r.win.states, Apply(last, r.frames[base+len(r.win.states)]))
		r.steps++
	}
	return r.win.states[i-base], nil
}

// Window returns the first frame and the number of States currently
// materialized. An empty window starts at -1.
func (r *Recording) Window() (start, length int) {
	if r.win.cp < 0 {
		return -1, 0
	}
	return r.checkpoints[r.win.cp].Frame, len(r.win.states)
}

// Steps returns how many frames Seek has replayed in total.
func (r *Recording) Steps() int {
	return r.steps
}

// Clone returns a Recording sharing the frames and checkpoints of r with an
// empty window of its own.
func (r *Recording) Clone() *Recording {
	return &Recording{
		frames:      r.frames,
		checkpoints: r.checkpoints,
		version:     r.version,
		tailErr:     r.tailErr,
		win:         window{cp: -1},
	}
}
