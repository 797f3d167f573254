package delta

// Wire versions of a FrameRecord.
const (
	Version1 uint16 = 1 // no object diffs
	Version2 uint16 = 2 // adds the object-diff list

	CurrentVersion = Version2
)

// Slot counts of the two actor arrays.
const (
	CharacterSlots = 34
	ObjectSlots    = 32
)

// SlotDiff is the change list of one actor slot for one tick.
type SlotDiff struct {
	Slot    uint8
	Changes []ActorChange
}

// FrameRecord is one tick's worth of changes.
//
// Empty lists are nil, both when built by the tracker and when decoded, so
// records compare equal with reflect.DeepEqual after a round trip.
type FrameRecord struct {
	IgtSeconds uint32
	IgtFrames  uint8
	RollCount  uint16 // PRNG draws observed this tick

	Game       []GameChange
	Characters []SlotDiff
	Objects    []SlotDiff
}

// Empty reports whether the record carries no changes at all.
func (f *FrameRecord) Empty() bool {
	return len(f.Game) == 0 && len(f.Characters) == 0 && len(f.Objects) == 0
}

// RoomChanged reports whether the record starts a new room run: it changes
// any part of the room identifier or marks a new game.
func (f *FrameRecord) RoomChanged() bool {
	for _, c := range f.Game {
		switch c.(type) {
		case Stage, Room, Player, NewGame:
			return true
		}
	}
	return false
}

// NewGameMarked reports whether the record carries the new-game marker.
func (f *FrameRecord) NewGameMarked() bool {
	for _, c := range f.Game {
		if _, ok := c.(NewGame); ok {
			return true
		}
	}
	return false
}

// ChangeCount returns the total number of entries in the record.
func (f *FrameRecord) ChangeCount() int {
	n := len(f.Game)
	for _, d := range f.Characters {
		n += len(d.Changes)
	}
	for _, d := range f.Objects {
		n += len(d.Changes)
	}
	return n
}
