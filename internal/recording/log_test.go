package recording

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vovakirdan/tickrec/internal/delta"
)

func testFrames(n int) []*delta.FrameRecord {
	frames := make([]*delta.FrameRecord, n)
	for i := range frames {
		f := &delta.FrameRecord{IgtSeconds: uint32(i / 30), IgtFrames: uint8(i % 30)}
		if i%3 == 0 {
			f.Game = []delta.GameChange{delta.Rng{Value: uint16(i * 31)}}
		}
		if i%5 == 0 {
			f.Characters = []delta.SlotDiff{{Slot: uint8(i % 34), Changes: []delta.ActorChange{delta.Health{Value: int16(i)}}}}
		}
		if i%7 == 0 {
			f.Objects = []delta.SlotDiff{{Slot: uint8(i % 32), Changes: []delta.ActorChange{delta.Floor{Value: 1}}}}
		}
		frames[i] = f
	}
	return frames
}

func writeLog(t *testing.T, path string, frames []*delta.FrameRecord) {
	t.Helper()
	w, err := Create(path)
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
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "a.tkr")
	frames := testFrames(40)
	writeLog(t, path, frames)

	got, version, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if version != delta.CurrentVersion {
		t.Errorf("version = %d, expected %d", version, delta.CurrentVersion)
	}
	if len(got) != len(frames) {
		t.Fatalf("read %d frames, expected %d", len(got), len(frames))
	}
	for i := range frames {
		if !reflect.DeepEqual(got[i], frames[i]) {
			t.Errorf("frame %d mismatch", i)
		}
	}
}

func TestHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tkr")
	writeLog(t, path, nil)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if info.Size() != HeaderSize {
		t.Errorf("size = %d, expected %d", info.Size(), HeaderSize)
	}

	got, _, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("read %d frames, expected 0", len(got))
	}
}

func TestMalformedHeader(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		unsupported bool
	}{
		{"bad magic", []byte("XXXX\x01\x00"), false},
		{"short header", []byte("TKR"), false},
		{"empty file", nil, false},
		{"version zero", []byte("TKRC\x00\x00"), true},
		{"version too new", []byte("TKRC\x03\x00"), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.tkr")
			if err := os.WriteFile(path, tc.data, 0o600); err != nil {
				t.Fatalf("WriteFile() failed: %v", err)
			}

			_, err := Open(path)
			if !errors.Is(err, ErrMalformedHeader) {
				t.Errorf("Open() err = %v, expected ErrMalformedHeader", err)
			}
			if got := errors.Is(err, ErrUnsupportedVersion); got != tc.unsupported {
				t.Errorf("errors.Is(err, ErrUnsupportedVersion) = %v, expected %v", got, tc.unsupported)
			}
		})
	}
}

func TestBadMagicReadsNoFrames(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("XXXX\x01\x00")
	data, _ := delta.AppendFrame(nil, &delta.FrameRecord{}, delta.Version1)
	buf.Write(data)

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if r != nil || !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("NewReader() = %v, %v; expected nil, ErrMalformedHeader", r, err)
	}
}

func TestVersion1Log(t *testing.T) {
	frames := testFrames(20)
	for _, f := range frames {
		f.Objects = nil
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, delta.Version1)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}
	for _, f := range frames {
		if err := w.Write(f); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	if r.Version() != delta.Version1 {
		t.Errorf("Version() = %d, expected 1", r.Version())
	}

	n := 0
	for f, err := range r.All() {
		if err != nil {
			t.Fatalf("frame %d: %v", n, err)
		}
		if len(f.Objects) != 0 {
			t.Errorf("frame %d: Objects = %v, expected empty", n, f.Objects)
		}
		if !reflect.DeepEqual(f, frames[n]) {
			t.Errorf("frame %d mismatch", n)
		}
		n++
	}
	if n != len(frames) {
		t.Errorf("read %d frames, expected %d", n, len(frames))
	}
}

func TestTruncatedTailKeepsPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cut.tkr")
	frames := testFrames(10)
	writeLog(t, path, frames)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)-1], 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	got, _, err := ReadFile(path)
	if !errors.Is(err, ErrTruncatedRecord) {
		t.Fatalf("ReadFile() err = %v, expected ErrTruncatedRecord", err)
	}
	if len(got) != len(frames)-1 {
		t.Errorf("prefix has %d frames, expected %d", len(got), len(frames)-1)
	}
	for i := range got {
		if !reflect.DeepEqual(got[i], frames[i]) {
			t.Errorf("frame %d mismatch", i)
		}
	}
}

func TestUnknownTagInLog(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, delta.CurrentVersion)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}
	if err := w.Write(&delta.FrameRecord{}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	// second record: one game change with tag 0xee
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 1, 0xee})

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next() failed: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("second Next() err = %v, expected ErrUnknownTag", err)
	}
}

func TestAllIsRestartable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.tkr")
	writeLog(t, path, testFrames(15))

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer f.Close()

	count := func() int {
		n := 0
		for _, err := range f.All() {
			if err != nil {
				t.Fatalf("All() failed: %v", err)
			}
			n++
		}
		return n
	}

	first := count()
	second := count()
	if first != 15 || second != 15 {
		t.Errorf("All() counts = %d, %d; expected 15, 15", first, second)
	}

	// Break early then restart
	for range f.All() {
		break
	}
	if n := count(); n != 15 {
		t.Errorf("count after early break = %d, expected 15", n)
	}
}

func TestWriterRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewWriter(&buf, 0); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("NewWriter(0) err = %v, expected ErrUnsupportedVersion", err)
	}
	if buf.Len() != 0 {
		t.Errorf("NewWriter(0) wrote %d bytes, expected none", buf.Len())
	}
}

// halfFile writes half of a record and fails while fail is set.
type halfFile struct {
	*os.File
	fail bool
}

func (f *halfFile) Write(p []byte) (int, error) {
	if f.fail {
		f.fail = false
		n, _ := f.File.Write(p[:len(p)/2])
		return n, errors.New("disk full")
	}
	return f.File.Write(p)
}

// halfWriter is the in-memory equivalent; it cannot be truncated.
type halfWriter struct {
	buf  bytes.Buffer
	fail bool
}

func (w *halfWriter) Write(p []byte) (int, error) {
	if w.fail {
		w.fail = false
		n, _ := w.buf.Write(p[:len(p)/2])
		return n, errors.New("disk full")
	}
	return w.buf.Write(p)
}

func TestWriteRollsBackPartialRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.tkr")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	out := &halfFile{File: file}
	w, err := NewWriter(out, delta.CurrentVersion)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}

	frames := testFrames(4)
	for i, f := range frames {
		out.fail = i == 1
		err := w.Write(f)
		if i == 1 {
			if err == nil || errors.Is(err, ErrWriterBroken) {
				t.Fatalf("Write(frame 1) err = %v, expected a plain write error", err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Write(frame %d) failed: %v", i, err)
		}
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if w.Frames() != 3 {
		t.Errorf("Frames() = %d, expected 3", w.Frames())
	}

	got, _, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	expected := []*delta.FrameRecord{frames[0], frames[2], frames[3]}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("read %d frames, expected frames 0, 2 and 3", len(got))
	}
}

func TestWriterBrokenByPartialRecord(t *testing.T) {
	out := &halfWriter{}
	w, err := NewWriter(out, delta.CurrentVersion)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}

	frames := testFrames(4)
	if err := w.Write(frames[0]); err != nil {
		t.Fatalf("Write(frame 0) failed: %v", err)
	}
	out.fail = true
	if err := w.Write(frames[1]); !errors.Is(err, ErrWriterBroken) {
		t.Errorf("Write(frame 1) err = %v, expected ErrWriterBroken", err)
	}
	for _, f := range frames[2:] {
		if err := w.Write(f); !errors.Is(err, ErrWriterBroken) {
			t.Errorf("Write() after a partial record err = %v, expected ErrWriterBroken", err)
		}
	}

	r, err := NewReader(bytes.NewReader(out.buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	first, err := r.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if !reflect.DeepEqual(first, frames[0]) {
		t.Errorf("frame 0 = %+v, expected %+v", first, frames[0])
	}
	if _, err := r.Next(); !errors.Is(err, ErrTruncatedRecord) {
		t.Errorf("Next() err = %v, expected ErrTruncatedRecord", err)
	}
}
