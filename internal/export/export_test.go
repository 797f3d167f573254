package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/delta"
	"github.com/vovakirdan/tickrec/internal/replay"
)

func testRecording() *replay.Recording {
	return replay.New([]*delta.FrameRecord{
		{
			Game: []delta.GameChange{
				delta.Room{Value: 1},
				delta.Input{Buttons: core.ButtonUp | core.ButtonRun},
			},
			Characters: []delta.SlotDiff{{Slot: 2, Changes: []delta.ActorChange{
				delta.Kind{Value: 1},
				delta.Health{Value: 100},
			}}},
		},
		{
			IgtFrames: 1,
			Game:      []delta.GameChange{delta.InputPressed{Buttons: core.ButtonAction}},
			Characters: []delta.SlotDiff{{Slot: 2, Changes: []delta.ActorChange{
				delta.Health{Value: 90},
			}}},
		},
		{
			IgtFrames:  2,
			Game:       []delta.GameChange{delta.Room{Value: 2}},
			Characters: []delta.SlotDiff{{Slot: 2, Changes: []delta.ActorChange{delta.Removed{}}}},
		},
		{IgtFrames: 3},
	})
}

func TestEncodeMetadata(t *testing.T) {
	e := New(testRecording())

	tests := []struct {
		index       int
		checkpoint  int64
		changes     int64
		roomChanged bool
		roomFrame   int64
	}{
		{0, 0, 4, true, 0},
		{1, 0, 2, false, 1},
		{2, 2, 2, true, 0},
		{3, 2, 0, false, 1},
	}

	for _, tc := range tests {
		data, err := e.Encode(tc.index)
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", tc.index, err)
		}
		if !gjson.ValidBytes(data) {
			t.Fatalf("Encode(%d) produced invalid JSON: %s", tc.index, data)
		}
		if got := gjson.GetBytes(data, "index").Int(); got != int64(tc.index) {
			t.Errorf("frame %d: index = %d, expected %d", tc.index, got, tc.index)
		}
		if got := gjson.GetBytes(data, "frame").Int(); got != int64(tc.index) {
			t.Errorf("frame %d: frame = %d, expected %d", tc.index, got, tc.index)
		}
		if got := gjson.GetBytes(data, "checkpoint").Int(); got != tc.checkpoint {
			t.Errorf("frame %d: checkpoint = %d, expected %d", tc.index, got, tc.checkpoint)
		}
		if got := gjson.GetBytes(data, "changes").Int(); got != tc.changes {
			t.Errorf("frame %d: changes = %d, expected %d", tc.index, got, tc.changes)
		}
		if got := gjson.GetBytes(data, "room_changed").Bool(); got != tc.roomChanged {
			t.Errorf("frame %d: room_changed = %v, expected %v", tc.index, got, tc.roomChanged)
		}
		if got := gjson.GetBytes(data, "room_frame").Int(); got != tc.roomFrame {
			t.Errorf("frame %d: room_frame = %d, expected %d", tc.index, got, tc.roomFrame)
		}
	}
}

func TestEncodeInputNames(t *testing.T) {
	e := New(testRecording())

	data, err := e.Encode(0)
	if err != nil {
		t.Fatalf("Encode(0) failed: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if !reflect.DeepEqual(doc.Input, []string{"Up", "Run"}) {
		t.Errorf("input = %v, expected [Up Run]", doc.Input)
	}
	if doc.InputPressed == nil || len(doc.InputPressed) != 0 {
		t.Errorf("input_pressed = %#v, expected an empty list", doc.InputPressed)
	}
	if doc.Game.Input != core.ButtonUp|core.ButtonRun {
		t.Errorf("game.input = %v, expected the raw bitmask", doc.Game.Input)
	}
	if doc.Characters[2] == nil || doc.Characters[2].Health != 100 {
		t.Errorf("characters[2] = %+v, expected health 100", doc.Characters[2])
	}

	data, err = e.Encode(3)
	if err != nil {
		t.Fatalf("Encode(3) failed: %v", err)
	}
	pressed := gjson.GetBytes(data, "input_pressed").Array()
	if len(pressed) != 1 || pressed[0].String() != "Action" {
		t.Errorf("input_pressed = %v, expected [Action] carried over", pressed)
	}
}

func TestWriteRange(t *testing.T) {
	e := New(testRecording())

	tests := []struct {
		name     string
		from, to int
		expected []int64
	}{
		{"all", 0, -1, []int64{0, 1, 2, 3}},
		{"middle", 1, 3, []int64{1, 2}},
		{"clamped", -5, 100, []int64{0, 1, 2, 3}},
		{"empty", 2, 2, nil},
	}

	total := 0
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := e.WriteRange(&buf, tc.from, tc.to)
			if err != nil {
				t.Fatalf("WriteRange() failed: %v", err)
			}
			total += n

			var got []int64
			sc := bufio.NewScanner(&buf)
			sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
			for sc.Scan() {
				got = append(got, gjson.GetBytes(sc.Bytes(), "index").Int())
			}
			if n != len(got) {
				t.Errorf("WriteRange() = %d, but %d lines were written", n, len(got))
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("indices = %v, expected %v", got, tc.expected)
			}
		})
	}
	if e.Written() != total {
		t.Errorf("Written() = %d, expected %d", e.Written(), total)
	}
}

func TestQuery(t *testing.T) {
	e := New(testRecording())

	tests := []struct {
		name     string
		index    int
		path     string
		expected string
	}{
		{"health", 1, "characters.2.health", "90"},
		{"room", 2, "game.room.room", "2"},
		{"removed slot", 2, "characters.2", "null"},
		{"populated count", 1, "characters.#(kind==1)#.health", "[90]"},
		{"metadata", 3, "checkpoint", "2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Query(tc.index, tc.path)
			if err != nil {
				t.Fatalf("Query(%d, %q) failed: %v", tc.index, tc.path, err)
			}
			if res.Raw != tc.expected {
				t.Errorf("Query(%d, %q) = %s, expected %s", tc.index, tc.path, res.Raw, tc.expected)
			}
		})
	}

	if _, err := e.Query(0, "no.such.field"); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Query() of a missing path = %v, expected ErrNoMatch", err)
	}
	if _, err := e.Query(9, "index"); !errors.Is(err, replay.ErrIndexOutOfRange) {
		t.Errorf("Query() out of range = %v, expected ErrIndexOutOfRange", err)
	}
}

func TestEncodeEmptyLog(t *testing.T) {
	e := New(replay.New(nil))
	if _, err := e.Encode(0); !errors.Is(err, replay.ErrEmptyLog) {
		t.Errorf("Encode() on an empty log = %v, expected ErrEmptyLog", err)
	}
	n, err := e.WriteRange(&bytes.Buffer{}, 0, -1)
	if err != nil || n != 0 {
		t.Errorf("WriteRange() on an empty log = %d, %v, expected 0, nil", n, err)
	}
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON() failed: %v", err)
	}
	if !gjson.ValidBytes(data) {
		t.Fatalf("SchemaJSON() produced invalid JSON")
	}

	tests := []struct {
		path     string
		expected string
	}{
		{"title", "tickrec frame export"},
		{"properties.index.type", "integer"},
		{"properties.input.type", "array"},
		{"properties.input.items.type", "string"},
		{"properties.characters.type", "array"},
		{"properties.game.type", "object"},
		{"properties.game.properties.igt_seconds.type", "integer"},
	}
	for _, tc := range tests {
		if got := gjson.GetBytes(data, tc.path).String(); got != tc.expected {
			t.Errorf("schema %s = %q, expected %q", tc.path, got, tc.expected)
		}
	}
}
