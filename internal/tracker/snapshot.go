package tracker

import (
	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/delta"
)

// Snapshot is the read-only view of the host simulation for one tick.
// Implementations must not change what they return while Tick runs.
type Snapshot interface {
	Global() LiveGlobal
	// Character returns the occupant of character slot i, or nil if empty.
	Character(i int) *LiveActor
	// Object returns the occupant of object slot i, or nil if empty.
	Object(i int) *LiveActor
}

// LiveGlobal holds the global fields at their live widths.
type LiveGlobal struct {
	Rng          uint32 // only the low 16 bits are recorded
	Input        core.Buttons
	InputPressed core.Buttons
	Stage        uint8
	Room         uint8
	Player       uint8
	SoundFlags   uint8
	IgtSeconds   uint32
	IgtFrames    uint8
	RollCount    uint16
	NewGame      bool
}

// LivePart is a sub-part as the host exposes it.
type LivePart struct {
	Offset core.Offset
	SizeX  uint16
	SizeZ  uint16
}

// LiveActor is a populated slot as the host exposes it. Characters use
// Transform; objects use Position.
type LiveActor struct {
	// Handle identifies the occupant on the host side. A slot whose handle
	// changes holds a different occupant.
	Handle uint64

	State      [4]byte
	Kind       uint8
	Transform  core.Transform
	Position   core.Vec2
	Parts      [delta.MaxParts]*LivePart
	ModelParts []core.Transform
	Facing     uint16
	SizeX      uint16
	SizeZ      uint16
	Floor      int16
	VelocityX  int16
	VelocityZ  int16
	Health     int16
	Flags      uint32

	// Motion is exposed by the host but is not recorded.
	Motion int32
}
