package delta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/vovakirdan/tickrec/internal/core"
)

var (
	// ErrTruncatedRecord is returned when the stream ends inside a record.
	ErrTruncatedRecord = errors.New("delta: truncated record")

	// ErrUnknownTag is returned for a discriminant outside the known set.
	ErrUnknownTag = errors.New("delta: unknown tag")

	// ErrInvalidIndex is returned for a sub-part index outside [0, MaxParts)
	// or a slot index beyond its group.
	ErrInvalidIndex = errors.New("delta: index out of range")

	// ErrTooManyEntries is returned when a list does not fit its u8 count.
	ErrTooManyEntries = errors.New("delta: list exceeds 255 entries")

	// ErrUnsupportedVersion is returned for a wire version this package cannot encode or decode.
	ErrUnsupportedVersion = errors.New("delta: unsupported version")
)

const transformSize = 9*2 + 3*4

// AppendFrame appends the wire encoding of f for the given version to dst.
// Version 1 has no object list; encoding object diffs for it is an error.
func AppendFrame(dst []byte, f *FrameRecord, version uint16) ([]byte, error) {
	if version != Version1 && version != Version2 {
		return dst, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if version == Version1 && len(f.Objects) > 0 {
		return dst, fmt.Errorf("delta: version 1 cannot carry %d object diffs", len(f.Objects))
	}

	dst = binary.LittleEndian.AppendUint32(dst, f.IgtSeconds)
	dst = append(dst, f.IgtFrames)
	dst = binary.LittleEndian.AppendUint16(dst, f.RollCount)

	if len(f.Game) > math.MaxUint8 {
		return dst, fmt.Errorf("%w: %d game changes", ErrTooManyEntries, len(f.Game))
	}
	dst = append(dst, uint8(len(f.Game)))
	for _, c := range f.Game {
		dst = appendGameChange(dst, c)
	}

	var err error
	if dst, err = appendSlotDiffs(dst, f.Characters, CharacterSlots); err != nil {
		return dst, fmt.Errorf("characters: %w", err)
	}
	if version >= Version2 {
		if dst, err = appendSlotDiffs(dst, f.Objects, ObjectSlots); err != nil {
			return dst, fmt.Errorf("objects: %w", err)
		}
	}
	return dst, nil
}

func appendSlotDiffs(dst []byte, diffs []SlotDiff, slots int) ([]byte, error) {
	if len(diffs) > math.MaxUint8 {
		return dst, fmt.Errorf("%w: %d slots", ErrTooManyEntries, len(diffs))
	}
	dst = append(dst, uint8(len(diffs)))
	for _, d := range diffs {
		if int(d.Slot) >= slots {
			return dst, fmt.Errorf("%w: slot %d of %d", ErrInvalidIndex, d.Slot, slots)
		}
		if len(d.Changes) > math.MaxUint8 {
			return dst, fmt.Errorf("%w: %d changes in slot %d", ErrTooManyEntries, len(d.Changes), d.Slot)
		}
		dst = append(dst, d.Slot, uint8(len(d.Changes)))
		for _, c := range d.Changes {
			dst = appendActorChange(dst, c)
		}
	}
	return dst, nil
}

func appendGameChange(dst []byte, c GameChange) []byte {
	dst = append(dst, uint8(c.Tag()))
	switch c := c.(type) {
	case Rng:
		dst = binary.LittleEndian.AppendUint16(dst, c.Value)
	case Input:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(c.Buttons))
	case InputPressed:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(c.Buttons))
	case Stage:
		dst = append(dst, c.Value)
	case Room:
		dst = append(dst, c.Value)
	case Player:
		dst = append(dst, c.Value)
	case SoundFlags:
		dst = append(dst, c.Value)
	case NewGame:
	}
	return dst
}

func appendActorChange(dst []byte, c ActorChange) []byte {
	dst = append(dst, uint8(c.Tag()))
	switch c := c.(type) {
	case Removed:
	case State:
		dst = append(dst, c.Code[:]...)
	case Kind:
		dst = append(dst, c.Value)
	case Transform:
		dst = appendTransform(dst, c.Transform)
	case Position:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(c.Pos.X))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(c.Pos.Z))
	case PartTranslation:
		dst = append(dst, c.Index)
		dst = binary.LittleEndian.AppendUint16(dst, uint16(c.Offset.X))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(c.Offset.Y))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(c.Offset.Z))
	case PartSize:
		dst = append(dst, c.Index, c.X, c.Z)
	case ModelPart:
		dst = append(dst, c.Index)
		dst = appendTransform(dst, c.Transform)
	case Facing:
		dst = binary.LittleEndian.AppendUint16(dst, c.Angle)
	case Size:
		dst = binary.LittleEndian.AppendUint16(dst, c.X)
		dst = binary.LittleEndian.AppendUint16(dst, c.Z)
	case Floor:
		dst = append(dst, c.Value)
	case Velocity:
		dst = binary.LittleEndian.AppendUint16(dst, uint16(c.X))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(c.Z))
	case Health:
		dst = binary.LittleEndian.AppendUint16(dst, uint16(c.Value))
	case Flags:
		dst = binary.LittleEndian.AppendUint32(dst, c.Value)
	}
	return dst
}

func appendTransform(dst []byte, t core.Transform) []byte {
	for _, m := range t.Matrix {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(m))
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(t.Translation.X))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(t.Translation.Y))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(t.Translation.Z))
	return dst
}

// frameReader reads little-endian fields and keeps the first error.
// Reads after an error return zero values.
type frameReader struct {
	r        io.Reader
	buf      [transformSize]byte
	err      error
	consumed int
}

func (fr *frameReader) read(n int) []byte {
	b := fr.buf[:n]
	if fr.err != nil {
		clear(b)
		return b
	}
	got, err := io.ReadFull(fr.r, b)
	fr.consumed += got
	if err != nil {
		fr.err = err
		clear(b)
	}
	return b
}

func (fr *frameReader) u8() uint8   { return fr.read(1)[0] }
func (fr *frameReader) u16() uint16 { return binary.LittleEndian.Uint16(fr.read(2)) }
func (fr *frameReader) u32() uint32 { return binary.LittleEndian.Uint32(fr.read(4)) }
func (fr *frameReader) i16() int16  { return int16(fr.u16()) }
func (fr *frameReader) i32() int32  { return int32(fr.u32()) }

func (fr *frameReader) fail(err error) {
	if fr.err == nil {
		fr.err = err
	}
}

// DecodeFrame reads one FrameRecord of the given wire version from r.
//
// It returns io.EOF, unwrapped, when r is exhausted exactly at a record
// boundary. A stream ending inside a record yields ErrTruncatedRecord.
// Version 1 records are returned in version 2 shape with no object diffs.
func DecodeFrame(r io.Reader, version uint16) (*FrameRecord, error) {
	if version != Version1 && version != Version2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	fr := &frameReader{r: r}
	f := &FrameRecord{}

	f.IgtSeconds = fr.u32()
	if fr.err == io.EOF && fr.consumed == 0 {
		return nil, io.EOF
	}
	f.IgtFrames = fr.u8()
	f.RollCount = fr.u16()

	if n := int(fr.u8()); n > 0 && fr.err == nil {
		f.Game = make([]GameChange, 0, n)
		for i := 0; i < n && fr.err == nil; i++ {
			if c := readGameChange(fr); c != nil {
				f.Game = append(f.Game, c)
			}
		}
	}

	f.Characters = readSlotDiffs(fr, CharacterSlots)
	if version >= Version2 {
		f.Objects = readSlotDiffs(fr, ObjectSlots)
	}

	if fr.err != nil {
		if errors.Is(fr.err, io.EOF) || errors.Is(fr.err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w after %d bytes", ErrTruncatedRecord, fr.consumed)
		}
		return nil, fr.err
	}
	return f, nil
}

func readSlotDiffs(fr *frameReader, slots int) []SlotDiff {
	n := int(fr.u8())
	if n == 0 || fr.err != nil {
		return nil
	}
	diffs := make([]SlotDiff, 0, n)
	for i := 0; i < n && fr.err == nil; i++ {
		d := SlotDiff{Slot: fr.u8()}
		if fr.err == nil && int(d.Slot) >= slots {
			fr.fail(fmt.Errorf("%w: slot %d of %d", ErrInvalidIndex, d.Slot, slots))
			break
		}
		m := int(fr.u8())
		if m > 0 {
			d.Changes = make([]ActorChange, 0, m)
		}
		for j := 0; j < m && fr.err == nil; j++ {
			if c := readActorChange(fr); c != nil {
				d.Changes = append(d.Changes, c)
			}
		}
		diffs = append(diffs, d)
	}
	return diffs
}

func readGameChange(fr *frameReader) GameChange {
	tag := GameTag(fr.u8())
	if fr.err != nil {
		return nil
	}
	switch tag {
	case TagRng:
		return Rng{Value: fr.u16()}
	case TagInput:
		return Input{Buttons: core.Buttons(fr.u32())}
	case TagInputPressed:
		return InputPressed{Buttons: core.Buttons(fr.u32())}
	case TagStage:
		return Stage{Value: fr.u8()}
	case TagRoom:
		return Room{Value: fr.u8()}
	case TagPlayer:
		return Player{Value: fr.u8()}
	case TagSoundFlags:
		return SoundFlags{Value: fr.u8()}
	case TagNewGame:
		return NewGame{}
	default:
		fr.fail(fmt.Errorf("%w: game tag %d", ErrUnknownTag, uint8(tag)))
		return nil
	}
}

func readActorChange(fr *frameReader) ActorChange {
	tag := ActorTag(fr.u8())
	if fr.err != nil {
		return nil
	}
	switch tag {
	case TagRemoved:
		return Removed{}
	case TagState:
		var s State
		copy(s.Code[:], fr.read(4))
		return s
	case TagKind:
		return Kind{Value: fr.u8()}
	case TagTransform:
		return Transform{Transform: readTransform(fr)}
	case TagPosition:
		return Position{Pos: core.Vec2{X: fr.i32(), Z: fr.i32()}}
	case TagPartTranslation:
		idx := readPartIndex(fr)
		return PartTranslation{Index: idx, Offset: core.Offset{X: fr.i16(), Y: fr.i16(), Z: fr.i16()}}
	case TagPartSize:
		idx := readPartIndex(fr)
		return PartSize{Index: idx, X: fr.u8(), Z: fr.u8()}
	case TagModelPart:
		idx := fr.u8()
		return ModelPart{Index: idx, Transform: readTransform(fr)}
	case TagFacing:
		return Facing{Angle: fr.u16()}
	case TagSize:
		return Size{X: fr.u16(), Z: fr.u16()}
	case TagFloor:
		return Floor{Value: fr.u8()}
	case TagVelocity:
		return Velocity{X: fr.i16(), Z: fr.i16()}
	case TagHealth:
		return Health{Value: fr.i16()}
	case TagFlags:
		return Flags{Value: fr.u32()}
	default:
		fr.fail(fmt.Errorf("%w: actor tag %d", ErrUnknownTag, uint8(tag)))
		return nil
	}
}

func readPartIndex(fr *frameReader) uint8 {
	idx := fr.u8()
	if fr.err == nil && idx >= MaxParts {
		fr.fail(fmt.Errorf("%w: %d", ErrInvalidIndex, idx))
	}
	return idx
}

func readTransform(fr *frameReader) core.Transform {
	var t core.Transform
	for i := range t.Matrix {
		t.Matrix[i] = fr.i16()
	}
	t.Translation = core.Vec3{X: fr.i32(), Y: fr.i32(), Z: fr.i32()}
	return t
}
