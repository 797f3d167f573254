// Package delta defines the per-tick change vocabulary of a recording: the
// closed set of game and actor field changes, the FrameRecord that groups them,
// and their binary encoding.
//
// Each independently tracked field has exactly one change type. The sets are
// sealed by an unexported method so that every switch over them in this module
// is the complete list.
package delta

import (
	"fmt"

	"github.com/vovakirdan/tickrec/internal/core"
)

// GameTag is the wire discriminant of a GameChange.
type GameTag uint8

const (
	TagRng GameTag = iota + 1
	TagInput
	TagInputPressed
	TagStage
	TagRoom
	TagPlayer
	TagSoundFlags
	TagNewGame
)

// String returns a human-readable name for the tag.
func (t GameTag) String() string {
	switch t {
	case TagRng:
		return "Rng"
	case TagInput:
		return "Input"
	case TagInputPressed:
		return "InputPressed"
	case TagStage:
		return "Stage"
	case TagRoom:
		return "Room"
	case TagPlayer:
		return "Player"
	case TagSoundFlags:
		return "SoundFlags"
	case TagNewGame:
		return "NewGame"
	default:
		return fmt.Sprintf("GameTag(%d)", uint8(t))
	}
}

// GameChange is one changed field of the global game state.
type GameChange interface {
	Tag() GameTag
	gameChange()
}

// Rng carries the low 16 bits of the host PRNG register.
type Rng struct{ Value uint16 }

// Input carries the held-buttons bitmask.
type Input struct{ Buttons core.Buttons }

// InputPressed carries the buttons pressed this tick.
type InputPressed struct{ Buttons core.Buttons }

// Stage carries the stage index of the room identifier.
type Stage struct{ Value uint8 }

// Room carries the room index of the room identifier.
type Room struct{ Value uint8 }

// Player carries the scenario/player selector of the room identifier.
type Player struct{ Value uint8 }

// SoundFlags carries the ambient sound-environment flags.
type SoundFlags struct{ Value uint8 }

// NewGame marks the first tick of a new game.
type NewGame struct{}

func (Rng) Tag() GameTag          { return TagRng }
func (Input) Tag() GameTag        { return TagInput }
func (InputPressed) Tag() GameTag { return TagInputPressed }
func (Stage) Tag() GameTag        { return TagStage }
func (Room) Tag() GameTag         { return TagRoom }
func (Player) Tag() GameTag       { return TagPlayer }
func (SoundFlags) Tag() GameTag   { return TagSoundFlags }
func (NewGame) Tag() GameTag      { return TagNewGame }

func (Rng) gameChange()          {}
func (Input) gameChange()        {}
func (InputPressed) gameChange() {}
func (Stage) gameChange()        {}
func (Room) gameChange()         {}
func (Player) gameChange()       {}
func (SoundFlags) gameChange()   {}
func (NewGame) gameChange()      {}

// ActorTag is the wire discriminant of an ActorChange.
type ActorTag uint8

const (
	TagRemoved ActorTag = iota
	TagState
	TagKind
	TagTransform
	TagPosition
	TagPartTranslation
	TagPartSize
	TagModelPart
	TagFacing
	TagSize
	TagFloor
	TagVelocity
	TagHealth
	TagFlags
)

// String returns a human-readable name for the tag.
func (t ActorTag) String() string {
	switch t {
	case TagRemoved:
		return "Removed"
	case TagState:
		return "State"
	case TagKind:
		return "Kind"
	case TagTransform:
		return "Transform"
	case TagPosition:
		return "Position"
	case TagPartTranslation:
		return "PartTranslation"
	case TagPartSize:
		return "PartSize"
	case TagModelPart:
		return "ModelPart"
	case TagFacing:
		return "Facing"
	case TagSize:
		return "Size"
	case TagFloor:
		return "Floor"
	case TagVelocity:
		return "Velocity"
	case TagHealth:
		return "Health"
	case TagFlags:
		return "Flags"
	default:
		return fmt.Sprintf("ActorTag(%d)", uint8(t))
	}
}

// MaxParts is the number of sub-part slots an actor has.
const MaxParts = 4

// ActorChange is one changed field of an actor slot.
type ActorChange interface {
	Tag() ActorTag
	actorChange()
}

// Removed empties the slot. It terminates processing of the slot's list.
type Removed struct{}

// State carries the opaque 4-byte behavior-state code.
type State struct{ Code [4]byte }

// Kind carries the identity/kind byte.
type Kind struct{ Value uint8 }

// Transform carries the full rigid transform of a character.
type Transform struct{ Transform core.Transform }

// Position carries the ground-plane position of an object.
type Position struct{ Pos core.Vec2 }

// PartTranslation carries the offset of sub-part Index.
type PartTranslation struct {
	Index  uint8
	Offset core.Offset
}

// PartSize carries the byte-narrowed size of sub-part Index.
type PartSize struct {
	Index uint8
	X, Z  uint8
}

// ModelPart carries the transform of model part Index.
type ModelPart struct {
	Index     uint8
	Transform core.Transform
}

// Facing carries the facing angle (core.FixedOne per full turn).
type Facing struct{ Angle uint16 }

// Size carries the collision size pair.
type Size struct{ X, Z uint16 }

// Floor carries the byte-narrowed floor level.
type Floor struct{ Value uint8 }

// Velocity carries the ground-plane velocity.
type Velocity struct{ X, Z int16 }

// Health carries the signed health value.
type Health struct{ Value int16 }

// Flags carries the actor flags word.
type Flags struct{ Value uint32 }

func (Removed) Tag() ActorTag         { return TagRemoved }
func (State) Tag() ActorTag           { return TagState }
func (Kind) Tag() ActorTag            { return TagKind }
func (Transform) Tag() ActorTag       { return TagTransform }
func (Position) Tag() ActorTag        { return TagPosition }
func (PartTranslation) Tag() ActorTag { return TagPartTranslation }
func (PartSize) Tag() ActorTag        { return TagPartSize }
func (ModelPart) Tag() ActorTag       { return TagModelPart }
func (Facing) Tag() ActorTag          { return TagFacing }
func (Size) Tag() ActorTag            { return TagSize }
func (Floor) Tag() ActorTag           { return TagFloor }
func (Velocity) Tag() ActorTag        { return TagVelocity }
func (Health) Tag() ActorTag          { return TagHealth }
func (Flags) Tag() ActorTag           { return TagFlags }

func (Removed) actorChange()         {}
func (State) actorChange()           {}
func (Kind) actorChange()            {}
func (Transform) actorChange()       {}
func (Position) actorChange()        {}
func (PartTranslation) actorChange() {}
func (PartSize) actorChange()        {}
func (ModelPart) actorChange()       {}
func (Facing) actorChange()          {}
func (Size) actorChange()            {}
func (Floor) actorChange()           {}
func (Velocity) actorChange()        {}
func (Health) actorChange()          {}
func (Flags) actorChange()           {}
