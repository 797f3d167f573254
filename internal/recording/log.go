// Package recording reads and writes recording logs: a fixed magic/version
// header followed by FrameRecords back to back until end of file. The index of
// a record in the log is its absolute frame index.
package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/vovakirdan/tickrec/internal/delta"
)

// Magic identifies a recording log.
const Magic = "TKRC"

// HeaderSize is the encoded size of the log header.
const HeaderSize = 4 + 2

var (
	// ErrMalformedHeader is returned when the magic does not match or the
	// header is cut short. The log is unusable.
	ErrMalformedHeader = errors.New("recording: malformed header")

	// ErrUnsupportedVersion is returned for version 0 or a version newer than
	// delta.CurrentVersion. It also matches ErrMalformedHeader.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrMalformedHeader)

	// ErrTruncatedRecord and ErrUnknownTag are the per-record decode failures.
	ErrTruncatedRecord = delta.ErrTruncatedRecord
	ErrUnknownTag      = delta.ErrUnknownTag

	// ErrWriterBroken is returned by every Write after a partial record could
	// not be removed from the log.
	ErrWriterBroken = errors.New("recording: writer broken by a partial record")
)

// fileHeader is the exact in-memory layout of the log header.
type fileHeader struct {
	Magic   [4]byte
	Version uint16
}

func writeHeader(w io.Writer, version uint16) error {
	h := fileHeader{Version: version}
	copy(h.Magic[:], Magic)
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("recording: failed to write header: %w", err)
	}
	return nil
}

func readHeader(r io.Reader) (uint16, error) {
	var h fileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	if string(h.Magic[:]) != Magic {
		return 0, fmt.Errorf("%w: bad magic %q", ErrMalformedHeader, h.Magic[:])
	}
	if h.Version == 0 || h.Version > delta.CurrentVersion {
		return 0, fmt.Errorf("%w %d (newest supported is %d)", ErrUnsupportedVersion, h.Version, delta.CurrentVersion)
	}
	return h.Version, nil
}

// truncateSeeker is implemented by *os.File.
type truncateSeeker interface {
	Truncate(size int64) error
	Seek(offset int64, whence int) (int64, error)
}

// Writer appends FrameRecords to a log. A failed Write that left part of a
// record behind rolls the log back to the end of the last good record when
// the destination can be truncated. Otherwise the Writer is broken and
// refuses further records, so the log stays readable up to the failure.
type Writer struct {
	w       io.Writer
	closer  io.Closer
	version uint16
	buf     []byte
	frames  int
	size    int64 // bytes of the header and complete records
	broken  error
}

// NewWriter writes the header for version to w and returns a Writer for it.
func NewWriter(w io.Writer, version uint16) (*Writer, error) {
	if version == 0 || version > delta.CurrentVersion {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedVersion, version)
	}
	if err := writeHeader(w, version); err != nil {
		return nil, err
	}
	return &Writer{w: w, version: version, buf: make([]byte, 0, 512), size: HeaderSize}, nil
}

// Create creates (or truncates) the log at path, creating parent directories
// as needed, and writes the current-version header.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("recording: cannot create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("recording: cannot create %s: %w", path, err)
	}

	w, err := NewWriter(f, delta.CurrentVersion)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Write encodes f and appends it to the log. On failure the record is lost
// and the log still ends on a record boundary.
func (w *Writer) Write(f *delta.FrameRecord) error {
	if w.broken != nil {
		return fmt.Errorf("%w: %w", ErrWriterBroken, w.broken)
	}

	buf, err := delta.AppendFrame(w.buf[:0], f, w.version)
	if err != nil {
		return fmt.Errorf("recording: cannot encode frame %d: %w", w.frames, err)
	}
	w.buf = buf

	n, err := w.w.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 {
			if rerr := w.rollback(); rerr != nil {
				w.broken = rerr
				return fmt.Errorf("%w: frame %d: %w", ErrWriterBroken, w.frames, err)
			}
		}
		return fmt.Errorf("recording: cannot write frame %d: %w", w.frames, err)
	}
	w.size += int64(n)
	w.frames++
	return nil
}

// rollback cuts the log back to the last complete record.
func (w *Writer) rollback() error {
	ts, ok := w.w.(truncateSeeker)
	if !ok {
		return errors.New("destination cannot be truncated")
	}
	if err := ts.Truncate(w.size); err != nil {
		return err
	}
	_, err := ts.Seek(w.size, io.SeekStart)
	return err
}

// Frames returns the number of records written so far, failed ones excluded.
func (w *Writer) Frames() int {
	return w.frames
}

// Version returns the wire version being written.
func (w *Writer) Version() uint16 {
	return w.version
}

// Close closes the underlying file when the Writer owns one.
func (w *Writer) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// Reader decodes FrameRecords from a log.
type Reader struct {
	src     io.ReadSeeker
	br      *bufio.Reader
	version uint16
	next    int
}

// NewReader validates the header of r and positions the Reader on the first
// record. Header failures are fatal; no frames are read.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	version, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{
		src:     r,
		br:      bufio.NewReaderSize(r, 64*1024),
		version: version,
	}, nil
}

// Version returns the wire version of the log.
func (r *Reader) Version() uint16 {
	return r.version
}

// Next returns the next record, or io.EOF after the last one. A decode error
// is wrapped with the absolute frame index it occurred at; records returned
// before it remain valid.
func (r *Reader) Next() (*delta.FrameRecord, error) {
	f, err := delta.DecodeFrame(r.br, r.version)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("recording: frame %d: %w", r.next, err)
	}
	r.next++
	return f, nil
}

// Rewind positions the Reader back on the first record.
func (r *Reader) Rewind() error {
	if _, err := r.src.Seek(HeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("recording: cannot rewind: %w", err)
	}
	r.br.Reset(r.src)
	r.next = 0
	return nil
}

// All returns a sequence over every record from the first one. Each range
// over it starts again from the beginning. Iteration stops after yielding
// the first error.
func (r *Reader) All() iter.Seq2[*delta.FrameRecord, error] {
	return func(yield func(*delta.FrameRecord, error) bool) {
		if err := r.Rewind(); err != nil {
			yield(nil, err)
			return
		}
		for {
			f, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// File is a Reader over a log on disk.
type File struct {
	*Reader
	f *os.File
}

// Open opens the log at path and validates its header.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recording: cannot open %s: %w", path, err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Reader: r, f: f}, nil
}

// Close closes the file.
func (f *File) Close() error {
	return f.f.Close()
}

// ReadFile reads every record of the log at path. On a decode error it
// returns the records decoded before it together with the error, so callers
// may treat a damaged tail as an early end of the recording.
func ReadFile(path string) ([]*delta.FrameRecord, uint16, error) {
	f, err := Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var frames []*delta.FrameRecord
	for rec, err := range f.All() {
		if err != nil {
			return frames, f.Version(), err
		}
		frames = append(frames, rec)
	}
	return frames, f.Version(), nil
}
