// Package tracker turns live per-tick simulation state into minimal
// FrameRecords. It keeps the last emitted value of every tracked field and
// emits only what changed since the previous tick.
package tracker

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/delta"
	"github.com/vovakirdan/tickrec/internal/model"
)

// DefaultModelParts lists the model-part indices recorded per actor kind.
func DefaultModelParts() map[uint8][]int {
	return map[uint8][]int{
		16: {4},
		43: {6, 11},
	}
}

type profile int

const (
	characterProfile profile = iota
	objectProfile
)

// slotCache is the last emitted state of one occupied slot.
type slotCache struct {
	handle uint64
	actor  *model.Actor
	parts  [delta.MaxParts]bool
}

type warnKey struct {
	kind  uint8
	index int
}

// Tracker diffs consecutive snapshots. It is not safe for concurrent use;
// Recorder serializes ticks.
type Tracker struct {
	logger     *log.Logger
	modelParts map[uint8][]int

	game       model.GameState
	characters [delta.CharacterSlots]*slotCache
	objects    [delta.ObjectSlots]*slotCache
	warned     map[warnKey]struct{}
}

// New returns a Tracker with an empty cache. modelParts maps an actor kind to
// the model-part indices recorded for it; nil selects DefaultModelParts.
func New(logger *log.Logger, modelParts map[uint8][]int) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if modelParts == nil {
		modelParts = DefaultModelParts()
	}
	return &Tracker{
		logger:     logger,
		modelParts: modelParts,
		warned:     make(map[warnKey]struct{}),
	}
}

// Tick diffs snap against the cache, updates the cache and returns the
// changes as a FrameRecord.
func (t *Tracker) Tick(snap Snapshot) *delta.FrameRecord {
	g := snap.Global()
	f := &delta.FrameRecord{
		IgtSeconds: g.IgtSeconds,
		IgtFrames:  g.IgtFrames,
		RollCount:  g.RollCount,
		Game:       t.diffGame(g),
	}

	for i := range t.characters {
		if d := t.diffSlot(&t.characters[i], snap.Character(i), characterProfile); len(d) > 0 {
			f.Characters = append(f.Characters, delta.SlotDiff{Slot: uint8(i), Changes: d})
		}
	}
	for i := range t.objects {
		if d := t.diffSlot(&t.objects[i], snap.Object(i), objectProfile); len(d) > 0 {
			f.Objects = append(f.Objects, delta.SlotDiff{Slot: uint8(i), Changes: d})
		}
	}
	return f
}

func (t *Tracker) diffGame(g LiveGlobal) []delta.GameChange {
	var out []delta.GameChange
	c := &t.game
	c.IgtSeconds, c.IgtFrames, c.RollCount = g.IgtSeconds, g.IgtFrames, g.RollCount
	c.NewGame = g.NewGame

	if rng := uint16(g.Rng); rng != c.Rng {
		c.Rng = rng
		out = append(out, delta.Rng{Value: rng})
	}
	if g.Input != c.Input {
		c.Input = g.Input
		out = append(out, delta.Input{Buttons: g.Input})
	}
	if g.InputPressed != c.InputPressed {
		c.InputPressed = g.InputPressed
		out = append(out, delta.InputPressed{Buttons: g.InputPressed})
	}
	if g.Stage != c.Room.Stage {
		c.Room.Stage = g.Stage
		out = append(out, delta.Stage{Value: g.Stage})
	}
	if g.Room != c.Room.Room {
		c.Room.Room = g.Room
		out = append(out, delta.Room{Value: g.Room})
	}
	if g.Player != c.Room.Player {
		c.Room.Player = g.Player
		out = append(out, delta.Player{Value: g.Player})
	}
	if g.SoundFlags != c.SoundFlags {
		c.SoundFlags = g.SoundFlags
		out = append(out, delta.SoundFlags{Value: g.SoundFlags})
	}
	if g.NewGame {
		out = append(out, delta.NewGame{})
	}
	return out
}

func (t *Tracker) diffSlot(slot **slotCache, live *LiveActor, p profile) []delta.ActorChange {
	cached := *slot
	switch {
	case cached == nil && live == nil:
		return nil
	case cached == nil:
		cached = &slotCache{handle: live.Handle, actor: model.NewActor()}
		*slot = cached
		return t.diffActor(cached, live, p, true)
	case live == nil || cached.handle != live.Handle:
		// The new occupant, if any, gets its full delta next tick.
		*slot = nil
		return []delta.ActorChange{delta.Removed{}}
	default:
		return t.diffActor(cached, live, p, false)
	}
}

// diffActor compares live with the cache and brings the cache up to date.
// With full set every tracked field is emitted.
func (t *Tracker) diffActor(c *slotCache, live *LiveActor, p profile, full bool) []delta.ActorChange {
	var out []delta.ActorChange
	a := c.actor

	if full || live.State != a.State {
		a.State = live.State
		out = append(out, delta.State{Code: live.State})
	}
	if full || live.Kind != a.Kind {
		a.Kind = live.Kind
		out = append(out, delta.Kind{Value: live.Kind})
	}

	if p == characterProfile {
		if full || live.Transform != a.Transform {
			a.Transform = live.Transform
			out = append(out, delta.Transform{Transform: live.Transform})
		}
	} else if full || live.Position != a.Center() {
		a.Transform.Translation.X = live.Position.X
		a.Transform.Translation.Z = live.Position.Z
		out = append(out, delta.Position{Pos: live.Position})
	}

	out = t.diffParts(out, c, live, full)
	if p == characterProfile {
		out = t.diffModelParts(out, a, live, full)
		if full || live.Facing != a.Facing {
			a.Facing = live.Facing
			out = append(out, delta.Facing{Angle: live.Facing})
		}
	}

	if full || live.SizeX != a.SizeX || live.SizeZ != a.SizeZ {
		a.SizeX, a.SizeZ = live.SizeX, live.SizeZ
		out = append(out, delta.Size{X: live.SizeX, Z: live.SizeZ})
	}
	if floor := core.SaturateU8(int(live.Floor)); full || floor != a.Floor {
		a.Floor = floor
		out = append(out, delta.Floor{Value: floor})
	}

	if p == characterProfile {
		v := core.Vec2{X: int32(live.VelocityX), Z: int32(live.VelocityZ)}
		if full || v != a.Velocity {
			a.Velocity = v
			out = append(out, delta.Velocity{X: live.VelocityX, Z: live.VelocityZ})
		}
		if full || live.Health != a.Health {
			a.Health = live.Health
			out = append(out, delta.Health{Value: live.Health})
		}
	}

	if full || live.Flags != a.Flags {
		a.Flags = live.Flags
		out = append(out, delta.Flags{Value: live.Flags})
	}
	return out
}

func (t *Tracker) diffParts(out []delta.ActorChange, c *slotCache, live *LiveActor, full bool) []delta.ActorChange {
	for i, lp := range live.Parts {
		idx := uint8(i)
		cp := &c.actor.Parts[i]

		if lp == nil {
			if c.parts[i] {
				c.parts[i] = false
				*cp = model.Part{}
				out = append(out,
					delta.PartTranslation{Index: idx},
					delta.PartSize{Index: idx},
				)
			}
			continue
		}

		fresh := full || !c.parts[i]
		c.parts[i] = true
		if fresh || lp.Offset != cp.Offset {
			cp.Offset = lp.Offset
			out = append(out, delta.PartTranslation{Index: idx, Offset: lp.Offset})
		}
		x, z := core.SaturateU8(int(lp.SizeX)), core.SaturateU8(int(lp.SizeZ))
		if fresh || x != cp.SizeX || z != cp.SizeZ {
			cp.SizeX, cp.SizeZ = x, z
			out = append(out, delta.PartSize{Index: idx, X: x, Z: z})
		}
	}
	return out
}

func (t *Tracker) diffModelParts(out []delta.ActorChange, a *model.Actor, live *LiveActor, full bool) []delta.ActorChange {
	for _, i := range t.modelParts[live.Kind] {
		if i < 0 || i >= len(live.ModelParts) || i > 0xff {
			continue
		}
		grown := a.GrowModelParts(i)
		if grown && !full {
			t.warnOnce(live.Kind, i)
		}
		if full || grown || live.ModelParts[i] != a.ModelParts[i] {
			a.ModelParts[i] = live.ModelParts[i]
			out = append(out, delta.ModelPart{Index: uint8(i), Transform: live.ModelParts[i]})
		}
	}
	return out
}

func (t *Tracker) warnOnce(kind uint8, index int) {
	k := warnKey{kind: kind, index: index}
	if _, ok := t.warned[k]; ok {
		return
	}
	t.warned[k] = struct{}{}
	t.logger.Warn("model part appeared on a live actor, expanding cache", "kind", kind, "index", index)
}

// Cached returns the cache as a State: the values a reader has reconstructed
// after the last emitted record. Counters are left unset and the derived
// PrevCenter is zero.
func (t *Tracker) Cached() *model.State {
	s := model.NewState()
	s.Game = t.game
	for i, c := range t.characters {
		if c != nil {
			s.Characters[i] = c.actor.Clone()
		}
	}
	for i, c := range t.objects {
		if c != nil {
			s.Objects[i] = c.actor.Clone()
		}
	}
	return s
}

// ModelPartKinds returns the kinds that have model parts recorded, sorted.
func (t *Tracker) ModelPartKinds() []uint8 {
	kinds := make([]uint8, 0, len(t.modelParts))
	for k := range t.modelParts {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
