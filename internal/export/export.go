// Package export renders reconstructed States as JSON documents, one per
// frame, and answers path queries against them.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/vovakirdan/tickrec/internal/model"
	"github.com/vovakirdan/tickrec/internal/replay"
)

// ErrNoMatch is returned by Query when the path selects nothing.
var ErrNoMatch = errors.New("export: path matched nothing")

// Document is the shape of one exported frame: the reconstructed State with
// the frame's position in the log and decoded input names added at the top
// level.
type Document struct {
	Index        int      `json:"index" jsonschema:"description=Position of the frame in the log"`
	Checkpoint   int      `json:"checkpoint" jsonschema:"description=Frame index of the checkpoint the state was replayed from"`
	Changes      int      `json:"changes" jsonschema:"description=Number of entries in the frame record"`
	RoomChanged  bool     `json:"room_changed"`
	Input        []string `json:"input" jsonschema:"description=Held buttons"`
	InputPressed []string `json:"input_pressed" jsonschema:"description=Buttons pressed this tick"`

	model.State
}

// Exporter encodes frames of one Recording. It seeks the Recording it was
// given, so it must not be shared with another user of the same Recording.
type Exporter struct {
	rec   *replay.Recording
	cps   []replay.Checkpoint
	count int
}

// New returns an Exporter over rec.
func New(rec *replay.Recording) *Exporter {
	return &Exporter{rec: rec, cps: rec.Checkpoints()}
}

// Encode returns the JSON document of frame i.
func (e *Exporter) Encode(i int) ([]byte, error) {
	st, err := e.rec.Seek(i)
	if err != nil {
		return nil, err
	}
	f, err := e.rec.Frame(i)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("export: frame %d: %w", i, err)
	}

	input := st.Game.Input.Names()
	pressed := st.Game.InputPressed.Names()
	if input == nil {
		input = []string{}
	}
	if pressed == nil {
		pressed = []string{}
	}

	for _, kv := range []struct {
		path  string
		value any
	}{
		{"index", i},
		{"checkpoint", e.cps[e.rec.CheckpointFor(i)].Frame},
		{"changes", f.ChangeCount()},
		{"room_changed", f.RoomChanged()},
		{"input", input},
		{"input_pressed", pressed},
	} {
		if data, err = sjson.SetBytes(data, kv.path, kv.value); err != nil {
			return nil, fmt.Errorf("export: frame %d: set %s: %w", i, kv.path, err)
		}
	}
	return data, nil
}

// WriteRange writes frames [from, to) to w as JSON lines. A negative to means
// the end of the log. Returns the number of documents written.
func (e *Exporter) WriteRange(w io.Writer, from, to int) (int, error) {
	if to < 0 || to > e.rec.Len() {
		to = e.rec.Len()
	}
	if from < 0 {
		from = 0
	}

	bw := bufio.NewWriter(w)
	n := 0
	for i := from; i < to; i++ {
		data, err := e.Encode(i)
		if err != nil {
			return n, err
		}
		if _, err := bw.Write(data); err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	e.count += n
	return n, bw.Flush()
}

// Written returns the total number of documents written by WriteRange.
func (e *Exporter) Written() int {
	return e.count
}

// Query evaluates a gjson path against the document of frame i.
func (e *Exporter) Query(i int, path string) (gjson.Result, error) {
	data, err := e.Encode(i)
	if err != nil {
		return gjson.Result{}, err
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return res, fmt.Errorf("%w: %q", ErrNoMatch, path)
	}
	return res, nil
}
