package replay

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/delta"
	"github.com/vovakirdan/tickrec/internal/model"
	"github.com/vovakirdan/tickrec/internal/recording"
)

// roomFrames builds n frames where each frame listed in starts enters a new
// room, with some actor churn in between.
func roomFrames(n int, starts ...int) []*delta.FrameRecord {
	isStart := make(map[int]bool, len(starts))
	for _, s := range starts {
		isStart[s] = true
	}

	frames := make([]*delta.FrameRecord, n)
	room := uint8(0)
	for i := range frames {
		f := &delta.FrameRecord{IgtSeconds: uint32(i / 30), IgtFrames: uint8(i % 30)}
		if isStart[i] {
			room++
			f.Game = append(f.Game, delta.Room{Value: room})
		}
		f.Game = append(f.Game, delta.Rng{Value: uint16(i * 7)})

		switch i % 9 {
		case 1:
			f.Characters = []delta.SlotDiff{{Slot: 4, Changes: fullDelta(int32(i*10), 0, 30)}}
		case 5:
			f.Characters = []delta.SlotDiff{{Slot: 4, Changes: []delta.ActorChange{delta.Health{Value: int16(i)}}}}
		case 8:
			f.Characters = []delta.SlotDiff{{Slot: 4, Changes: []delta.ActorChange{delta.Removed{}}}}
		}
		if i%4 == 0 {
			f.Objects = []delta.SlotDiff{{Slot: uint8(i % 32), Changes: []delta.ActorChange{
				delta.Position{Pos: core.Vec2{X: int32(i), Z: -int32(i)}},
			}}}
		}
		frames[i] = f
	}
	return frames
}

func linear(frames []*delta.FrameRecord) []*model.State {
	out := make([]*model.State, len(frames))
	s := model.NewState()
	for i, f := range frames {
		s = Apply(s, f)
		out[i] = s
	}
	return out
}

func TestCheckpointScenario(t *testing.T) {
	r := New(roomFrames(50, 0, 20, 35))

	var got []int
	for _, cp := range r.Checkpoints() {
		got = append(got, cp.Frame)
	}
	if !reflect.DeepEqual(got, []int{0, 20, 35}) {
		t.Fatalf("checkpoints = %v, expected [0 20 35]", got)
	}

	// Seek(34) materializes the 15 states of frames 20..34: the checkpoint
	// at 20 is copied as is and the 14 records 21..34 are applied to it.
	// Nothing before frame 20 is replayed.
	if _, err := r.Seek(34); err != nil {
		t.Fatalf("Seek(34) failed: %v", err)
	}
	start, length := r.Window()
	if start != 20 || length != 15 {
		t.Errorf("Window() = %d, %d; expected 20, 15", start, length)
	}
	if r.Steps() != 14 {
		t.Errorf("Steps() = %d, expected 14", r.Steps())
	}

	// Scrubbing back inside the run replays nothing.
	if _, err := r.Seek(25); err != nil {
		t.Fatalf("Seek(25) failed: %v", err)
	}
	if r.Steps() != 14 {
		t.Errorf("Steps() after scrub = %d, expected 14", r.Steps())
	}
}

func TestCheckpointEquivalence(t *testing.T) {
	frames := roomFrames(120, 0, 13, 14, 60, 99)
	expected := linear(frames)
	r := New(frames)

	order := []int{119, 0, 13, 14, 12, 59, 61, 60, 98, 99, 5, 118}
	for i := range frames {
		order = append(order, i)
	}
	for i := len(frames) - 1; i >= 0; i-- {
		order = append(order, i)
	}

	for _, i := range order {
		got, err := r.Seek(i)
		if err != nil {
			t.Fatalf("Seek(%d) failed: %v", i, err)
		}
		if !reflect.DeepEqual(got, expected[i]) {
			t.Fatalf("Seek(%d) differs from linear replay", i)
		}
	}
}

func TestFirstFrameWithoutRoomChange(t *testing.T) {
	// Frame 0 is always a checkpoint because the room counter wraps from
	// the sentinel to 0 on the first application.
	frames := roomFrames(10)
	r := New(frames)

	cps := r.Checkpoints()
	if len(cps) != 1 || cps[0].Frame != 0 {
		t.Fatalf("checkpoints = %v, expected one at 0", cps)
	}

	s, err := r.Seek(0)
	if err != nil {
		t.Fatalf("Seek(0) failed: %v", err)
	}
	if s.Frame != 0 || s.RoomFrame != 0 {
		t.Errorf("Seek(0) counters = %d, %d; expected 0, 0", s.Frame, s.RoomFrame)
	}
}

func TestSlotLifecycleScenario(t *testing.T) {
	frames := make([]*delta.FrameRecord, 12)
	for i := range frames {
		frames[i] = &delta.FrameRecord{}
	}
	frames[5].Characters = []delta.SlotDiff{{Slot: 3, Changes: fullDelta(500, 600, 40)}}
	frames[10].Characters = []delta.SlotDiff{{Slot: 3, Changes: []delta.ActorChange{delta.Removed{}}}}

	r := New(frames)
	s5, err := r.Seek(5)
	if err != nil {
		t.Fatalf("Seek(5) failed: %v", err)
	}
	s9, err := r.Seek(9)
	if err != nil {
		t.Fatalf("Seek(9) failed: %v", err)
	}
	if s9.Characters[3] == nil {
		t.Fatal("state(9) slot 3 should be populated")
	}
	if !reflect.DeepEqual(s9.Characters[3], s5.Characters[3]) {
		t.Errorf("state(9) slot 3 = %+v, expected %+v", s9.Characters[3], s5.Characters[3])
	}

	s10, err := r.Seek(10)
	if err != nil {
		t.Fatalf("Seek(10) failed: %v", err)
	}
	if s10.Characters[3] != nil {
		t.Errorf("state(10) slot 3 = %+v, expected empty", s10.Characters[3])
	}
}

func TestSeekErrors(t *testing.T) {
	r := New(roomFrames(5))
	for _, i := range []int{-1, 5, 100} {
		if _, err := r.Seek(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Seek(%d) err = %v, expected ErrIndexOutOfRange", i, err)
		}
	}
	if _, err := r.Frame(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Frame(5) err = %v, expected ErrIndexOutOfRange", err)
	}

	empty := New(nil)
	if len(empty.Checkpoints()) != 0 {
		t.Errorf("empty log has %d checkpoints, expected 0", len(empty.Checkpoints()))
	}
	for _, i := range []int{0, 1} {
		if _, err := empty.Seek(i); !errors.Is(err, ErrEmptyLog) {
			t.Errorf("empty Seek(%d) err = %v, expected ErrEmptyLog", i, err)
		}
	}
}

func TestRoomRuns(t *testing.T) {
	r := New(roomFrames(50, 0, 20, 35))
	expected := []RoomRun{
		{Start: 0, Length: 20, Room: model.RoomID{Room: 1}},
		{Start: 20, Length: 15, Room: model.RoomID{Room: 2}},
		{Start: 35, Length: 15, Room: model.RoomID{Room: 3}, IgtSeconds: 1},
	}
	if got := r.RoomRuns(); !reflect.DeepEqual(got, expected) {
		t.Errorf("RoomRuns() = %+v, expected %+v", got, expected)
	}
}

func TestCloneHasOwnWindow(t *testing.T) {
	r := New(roomFrames(50, 0, 20, 35))
	if _, err := r.Seek(40); err != nil {
		t.Fatalf("Seek(40) failed: %v", err)
	}

	c := r.Clone()
	if start, length := c.Window(); start != -1 || length != 0 {
		t.Errorf("clone Window() = %d, %d; expected -1, 0", start, length)
	}
	if _, err := c.Seek(3); err != nil {
		t.Fatalf("clone Seek(3) failed: %v", err)
	}
	if start, _ := r.Window(); start != 35 {
		t.Errorf("original Window() start = %d, expected 35", start)
	}
}

func TestLoad(t *testing.T) {
	frames := roomFrames(30, 0, 10)
	path := filepath.Join(t.TempDir(), "run.tkr")

	w, err := recording.Create(path)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	for _, f := range frames {
		if err := w.Write(f); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if r.Len() != 30 || len(r.Checkpoints()) != 2 {
		t.Errorf("Len(), checkpoints = %d, %d; expected 30, 2", r.Len(), len(r.Checkpoints()))
	}

	// Cut the last record in half.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)-3], 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, recording.ErrTruncatedRecord) {
		t.Errorf("strict Load() err = %v, expected ErrTruncatedRecord", err)
	}

	r, err = Load(path, WithPartialTail())
	if err != nil {
		t.Fatalf("partial Load() failed: %v", err)
	}
	if r.Len() != 29 {
		t.Errorf("partial Len() = %d, expected 29", r.Len())
	}
	if !errors.Is(r.TailErr(), recording.ErrTruncatedRecord) {
		t.Errorf("TailErr() = %v, expected ErrTruncatedRecord", r.TailErr())
	}
}

func TestLoadMalformedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tkr")
	data := append([]byte("XXXX\x01\x00"), make([]byte, 16)...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	for _, opts := range [][]Option{nil, {WithPartialTail()}} {
		if _, err := Load(path, opts...); !errors.Is(err, recording.ErrMalformedHeader) {
			t.Errorf("Load() err = %v, expected ErrMalformedHeader", err)
		}
	}
}
