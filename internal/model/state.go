// Package model holds the point-in-time simulation state reconstructed from a
// recording: the global game state and the two fixed actor-slot arrays.
//
// The producer keeps its last-emitted values in the same types, so a tracker
// cache and a reconstructed State can be compared field for field.
package model

import (
	"math"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/delta"
)

// Unset is the sentinel value of the frame counters before the first frame
// has been applied. Incrementing it wraps to 0.
const Unset = math.MaxUint32

// RoomID identifies a room: stage, room index and scenario/player selector.
type RoomID struct {
	Stage  uint8 `json:"stage"`
	Room   uint8 `json:"room"`
	Player uint8 `json:"player"`
}

// GameState is the global part of the simulation at one instant.
type GameState struct {
	Rng          uint16       `json:"rng"`
	Input        core.Buttons `json:"input"`
	InputPressed core.Buttons `json:"input_pressed"`
	Room         RoomID       `json:"room"`
	SoundFlags   uint8        `json:"sound_flags"`
	IgtSeconds   uint32       `json:"igt_seconds"`
	IgtFrames    uint8        `json:"igt_frames"`
	RollCount    uint16       `json:"roll_count"`
	NewGame      bool         `json:"new_game"` // set only on the tick that carried the marker
}

// Part is one sub-part of an actor.
type Part struct {
	Offset core.Offset `json:"offset"`
	SizeX  uint8       `json:"size_x"`
	SizeZ  uint8       `json:"size_z"`
}

// Actor is a populated slot.
type Actor struct {
	State      [4]byte              `json:"state"`
	Kind       uint8                `json:"kind"`
	Transform  core.Transform       `json:"transform"`
	Parts      [delta.MaxParts]Part `json:"parts"`
	ModelParts []core.Transform     `json:"model_parts,omitempty"`
	Facing     uint16               `json:"facing"`
	SizeX      uint16               `json:"size_x"`
	SizeZ      uint16               `json:"size_z"`
	Floor      uint8                `json:"floor"`
	Velocity   core.Vec2            `json:"velocity"`
	Health     int16                `json:"health"`
	Flags      uint32               `json:"flags"`

	// PrevCenter is derived on replay from the pre-tick center; it is not
	// part of the wire format.
	PrevCenter core.Vec2 `json:"prev_center"`
}

// NewActor returns a zero-valued occupant with an identity rotation.
func NewActor() *Actor {
	return &Actor{Transform: core.Transform{Matrix: core.IdentityMatrix()}}
}

// Center returns the ground-plane position of the actor.
func (a *Actor) Center() core.Vec2 {
	return a.Transform.Center()
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}
	c := *a
	if a.ModelParts != nil {
		c.ModelParts = make([]core.Transform, len(a.ModelParts))
		copy(c.ModelParts, a.ModelParts)
	}
	return &c
}

// GrowModelParts extends ModelParts so that index i is addressable.
// It reports whether the slice had to grow.
func (a *Actor) GrowModelParts(i int) bool {
	if i < len(a.ModelParts) {
		return false
	}
	grown := make([]core.Transform, i+1)
	copy(grown, a.ModelParts)
	for j := len(a.ModelParts); j < len(grown); j++ {
		grown[j].Matrix = core.IdentityMatrix()
	}
	a.ModelParts = grown
	return true
}

// State is the full simulation state at one recorded instant.
// Nil slots are empty.
type State struct {
	Frame      uint32                       `json:"frame"`
	RoomFrame  uint32                       `json:"room_frame"`
	Game       GameState                    `json:"game"`
	Characters [delta.CharacterSlots]*Actor `json:"characters"`
	Objects    [delta.ObjectSlots]*Actor    `json:"objects"`
}

// NewState returns the empty state that precedes frame 0.
func NewState() *State {
	return &State{Frame: Unset, RoomFrame: Unset}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s
	for i, a := range s.Characters {
		c.Characters[i] = a.Clone()
	}
	for i, a := range s.Objects {
		c.Objects[i] = a.Clone()
	}
	return &c
}

// Initialized reports whether at least one frame has been applied.
func (s *State) Initialized() bool {
	return s.Frame != Unset
}

// CharacterCount returns the number of populated character slots.
func (s *State) CharacterCount() int {
	return countPopulated(s.Characters[:])
}

// ObjectCount returns the number of populated object slots.
func (s *State) ObjectCount() int {
	return countPopulated(s.Objects[:])
}

func countPopulated(slots []*Actor) int {
	n := 0
	for _, a := range slots {
		if a != nil {
			n++
		}
	}
	return n
}
