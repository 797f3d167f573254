// Package replay turns a sequence of FrameRecords back into point-in-time
// States. Apply is the pure single-step reconstructor; Recording adds the
// checkpointed index and the materialized window used for seeking.
package replay

import (
	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/delta"
	"github.com/vovakirdan/tickrec/internal/model"
)

// Apply returns the State that follows prior after f. prior is not modified.
func Apply(prior *model.State, f *delta.FrameRecord) *model.State {
	next := prior.Clone()
	ApplyInPlace(next, f)
	return next
}

// ApplyInPlace advances s by f, mutating it.
func ApplyInPlace(s *model.State, f *delta.FrameRecord) {
	s.Frame++ // wraps from model.Unset to 0

	if f.RoomChanged() {
		s.RoomFrame = 0
	} else {
		s.RoomFrame++
	}

	applyGame(&s.Game, f)
	applySlots(s.Characters[:], f.Characters)
	applySlots(s.Objects[:], f.Objects)
}

func applyGame(g *model.GameState, f *delta.FrameRecord) {
	g.IgtSeconds = f.IgtSeconds
	g.IgtFrames = f.IgtFrames
	g.RollCount = f.RollCount
	g.NewGame = false

	for _, c := range f.Game {
		switch c := c.(type) {
		case delta.Rng:
			g.Rng = c.Value
		case delta.Input:
			g.Input = c.Buttons
		case delta.InputPressed:
			g.InputPressed = c.Buttons
		case delta.Stage:
			g.Room.Stage = c.Value
		case delta.Room:
			g.Room.Room = c.Value
		case delta.Player:
			g.Room.Player = c.Value
		case delta.SoundFlags:
			g.SoundFlags = c.Value
		case delta.NewGame:
			g.NewGame = true
		}
	}
}

func applySlots(slots []*model.Actor, diffs []delta.SlotDiff) {
	// Pre-tick centers, taken before any entry of this tick lands.
	var before [delta.CharacterSlots]core.Vec2
	var populated [delta.CharacterSlots]bool
	for i, a := range slots {
		if a != nil {
			before[i] = a.Center()
			populated[i] = true
		}
	}

	for _, d := range diffs {
		i := int(d.Slot)
		if i >= len(slots) || len(d.Changes) == 0 {
			continue
		}
		if removes(d.Changes) {
			slots[i] = nil
			populated[i] = false
			continue
		}
		if slots[i] == nil {
			slots[i] = model.NewActor()
		}
		for _, c := range d.Changes {
			applyActor(slots[i], c)
		}
	}

	for i, a := range slots {
		if a == nil {
			continue
		}
		if populated[i] {
			a.PrevCenter = before[i]
		} else {
			a.PrevCenter = a.Center()
		}
	}
}

func removes(changes []delta.ActorChange) bool {
	for _, c := range changes {
		if _, ok := c.(delta.Removed); ok {
			return true
		}
	}
	return false
}

func applyActor(a *model.Actor, c delta.ActorChange) {
	switch c := c.(type) {
	case delta.State:
		a.State = c.Code
	case delta.Kind:
		a.Kind = c.Value
	case delta.Transform:
		a.Transform = c.Transform
	case delta.Position:
		a.Transform.Translation.X = c.Pos.X
		a.Transform.Translation.Z = c.Pos.Z
	case delta.PartTranslation:
		if int(c.Index) < len(a.Parts) {
			a.Parts[c.Index].Offset = c.Offset
		}
	case delta.PartSize:
		if int(c.Index) < len(a.Parts) {
			a.Parts[c.Index].SizeX = c.X
			a.Parts[c.Index].SizeZ = c.Z
		}
	case delta.ModelPart:
		a.GrowModelParts(int(c.Index))
		a.ModelParts[c.Index] = c.Transform
	case delta.Facing:
		a.Facing = c.Angle
	case delta.Size:
		a.SizeX, a.SizeZ = c.X, c.Z
	case delta.Floor:
		a.Floor = c.Value
	case delta.Velocity:
		a.Velocity = core.Vec2{X: int32(c.X), Z: int32(c.Z)}
	case delta.Health:
		a.Health = c.Value
	case delta.Flags:
		a.Flags = c.Value
	}
}
