// Package synthetic implements a small deterministic host simulation: a
// player walks from room to room, enemies spawn, chase and die, items get
// picked up, and the run restarts as a new game when the player falls.
// It exists to drive the recorder without a real host process.
package synthetic

import (
	"math/rand/v2"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/delta"
	"github.com/vovakirdan/tickrec/internal/source"
	"github.com/vovakirdan/tickrec/internal/tracker"
)

func init() {
	source.Register(ID, func() source.Source { return New() })
}

// ID is the registry identifier of this source.
const ID = "synthetic"

// World tuning, in world units per tick.
const (
	RoomSize      = 16000
	PlayerSpeed   = 60
	EnemySpeed    = 25
	MaxEnemies    = 6
	MaxItems      = 3
	RoomsPerStage = 12
	Stages        = 4

	playerHealth = 200
	biteRange    = 600
	shotRange    = 3000
	pickupRange  = 500
	corpseTicks  = 30
)

// Actor kinds used by the simulation.
const (
	KindPlayer  uint8 = 1
	KindDoor    uint8 = 2
	KindItem    uint8 = 3
	KindCrawler uint8 = 16 // exposes 5 model parts
	KindBrute   uint8 = 43 // exposes 12 model parts, sheds part 1 now and then
)

var (
	stateIdle = [4]byte{1, 0, 0, 0}
	stateWalk = [4]byte{1, 1, 0, 0}
	stateHurt = [4]byte{2, 0, 0, 0}
	stateDead = [4]byte{3, 0, 0, 0}
	stateShut = [4]byte{0, 0, 1, 0}
)

type actor struct {
	live      tracker.LiveActor
	deadTicks int
}

// Sim is the synthetic host. It implements source.Source.
type Sim struct {
	cfg   core.RuntimeConfig
	pilot *rand.Rand

	reg     uint32 // host PRNG register
	draws   uint16
	global  tracker.LiveGlobal
	heading core.Buttons
	wander  int // ticks left of a random detour

	characters [delta.CharacterSlots]*actor
	objects    [delta.ObjectSlots]*actor
	handles    uint64
	tick       uint64
}

// New creates a simulation; call Reset before stepping it.
func New() *Sim {
	s := &Sim{}
	s.Reset(core.DefaultConfig())
	return s
}

// ID returns the unique identifier for this source.
func (s *Sim) ID() string {
	return ID
}

// Title returns the display name for this source.
func (s *Sim) Title() string {
	return "Synthetic survival-horror host"
}

// Reset restarts the simulation from cfg.Seed.
func (s *Sim) Reset(cfg core.RuntimeConfig) {
	s.cfg = cfg.Normalized()
	seed := uint64(s.cfg.Seed) //nolint:gosec // reinterpreting the seed bits
	s.pilot = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s.reg = uint32(seed)
	s.draws = 0
	s.global = tracker.LiveGlobal{}
	s.heading = core.ButtonUp
	s.wander = 0
	s.characters = [delta.CharacterSlots]*actor{}
	s.objects = [delta.ObjectSlots]*actor{}
	s.handles = 0
	s.tick = 0

	s.spawnPlayer()
	s.furnishRoom()
}

// Global returns the global fields of the current tick.
func (s *Sim) Global() tracker.LiveGlobal {
	return s.global
}

// Character returns the occupant of character slot i, or nil.
func (s *Sim) Character(i int) *tracker.LiveActor {
	if i < 0 || i >= len(s.characters) || s.characters[i] == nil {
		return nil
	}
	return &s.characters[i].live
}

// Object returns the occupant of object slot i, or nil.
func (s *Sim) Object(i int) *tracker.LiveActor {
	if i < 0 || i >= len(s.objects) || s.objects[i] == nil {
		return nil
	}
	return &s.objects[i].live
}

// Step advances the simulation by one tick.
func (s *Sim) Step() {
	s.tick++
	s.draws = 0
	s.global.NewGame = false
	s.advanceClock()

	s.steer()
	s.movePlayer()
	s.updateEnemies()
	s.updateItems()
	s.maybeSpawn()

	player := s.player()
	if player.Health <= 0 {
		s.newGame()
	} else if s.door().Contains(player.Transform.Center()) {
		s.enterNextRoom()
	}

	s.global.Rng = s.reg
	s.global.RollCount = s.draws
}

// roll advances the host PRNG and returns a value in [0, n).
func (s *Sim) roll(n int) int {
	s.reg = s.reg*0x41c64e6d + 0x3039
	s.draws++
	return int(s.reg>>16) % n
}

func (s *Sim) nextHandle() uint64 {
	s.handles++
	return s.handles
}

func (s *Sim) advanceClock() {
	s.global.IgtFrames++
	if int(s.global.IgtFrames) >= s.cfg.TickRate {
		s.global.IgtFrames = 0
		s.global.IgtSeconds++
	}
}

func (s *Sim) player() *tracker.LiveActor {
	return &s.characters[0].live
}

func (s *Sim) spawnPlayer() {
	s.characters[0] = &actor{live: tracker.LiveActor{
		Handle:    s.nextHandle(),
		State:     stateIdle,
		Kind:      KindPlayer,
		Transform: core.Transform{Matrix: core.IdentityMatrix(), Translation: core.Vec3{X: RoomSize / 2, Z: 1000}},
		Parts:     [delta.MaxParts]*tracker.LivePart{{SizeX: 120, SizeZ: 120}},
		SizeX:     450,
		SizeZ:     450,
		Health:    playerHealth,
	}}
}

// door is the exit of the current room. Its position depends on the room.
func (s *Sim) door() core.Rect {
	x := int32(2000 + int(s.global.Room)*1000%(RoomSize-4000))
	return core.RectAround(core.Vec2{X: x, Z: RoomSize - 500}, 1200, 1000)
}

// furnishRoom places the door and items of the current room.
func (s *Sim) furnishRoom() {
	d := s.door()
	s.objects[0] = &actor{live: tracker.LiveActor{
		Handle:   s.nextHandle(),
		State:    stateShut,
		Kind:     KindDoor,
		Position: core.Vec2{X: d.X + d.W/2, Z: d.Z + d.D/2},
		SizeX:    uint16(d.W),
		SizeZ:    uint16(d.D),
	}}
	for i := 1; i <= MaxItems; i++ {
		if s.roll(2) == 0 {
			continue
		}
		s.objects[i] = &actor{live: tracker.LiveActor{
			Handle:   s.nextHandle(),
			Kind:     KindItem,
			Position: core.Vec2{X: int32(1000 + s.roll(RoomSize-2000)), Z: int32(1000 + s.roll(RoomSize-2000))},
			SizeX:    200,
			SizeZ:    200,
			Flags:    uint32(i),
		}}
	}
}

// steer is the scripted player input: head for the door, turn now and then,
// shoot when an enemy is close.
func (s *Sim) steer() {
	p := s.player()
	target := s.door()
	c := p.Transform.Center()

	if s.tick%20 == 0 && s.pilot.IntN(4) == 0 {
		s.wander = 10
		s.heading = []core.Buttons{core.ButtonLeft, core.ButtonRight}[s.pilot.IntN(2)]
	}
	if s.wander > 0 {
		s.wander--
	} else {
		switch {
		case c.X < target.X+100:
			s.heading = core.ButtonRight
		case c.X > target.X+target.W-100:
			s.heading = core.ButtonLeft
		default:
			s.heading = core.ButtonUp
		}
	}

	in := s.heading
	if s.pilot.IntN(3) == 0 {
		in |= core.ButtonRun
	}
	if s.nearestEnemy(c, shotRange) >= 0 {
		in = core.ButtonAim | core.ButtonAction
	}

	prev := s.global.Input
	s.global.Input = in
	s.global.InputPressed = in &^ prev
}

var headings = map[core.Buttons]struct {
	facing uint16
	dx, dz int32
}{
	core.ButtonUp:    {0, 0, 1},
	core.ButtonRight: {core.FixedOne / 4, 1, 0},
	core.ButtonDown:  {core.FixedOne / 2, 0, -1},
	core.ButtonLeft:  {3 * core.FixedOne / 4, -1, 0},
}

// quarterTurn returns the rotation about the vertical axis for a facing that
// is a multiple of a quarter turn.
func quarterTurn(facing uint16) core.Matrix {
	const one = core.FixedOne
	switch facing / (core.FixedOne / 4) {
	case 1:
		return core.Matrix{0, 0, one, 0, one, 0, -one, 0, 0}
	case 2:
		return core.Matrix{-one, 0, 0, 0, one, 0, 0, 0, -one}
	case 3:
		return core.Matrix{0, 0, -one, 0, one, 0, one, 0, 0}
	default:
		return core.IdentityMatrix()
	}
}

func (s *Sim) movePlayer() {
	p := s.player()
	in := s.global.Input
	h, moving := headings[in&(core.ButtonUp|core.ButtonRight|core.ButtonDown|core.ButtonLeft)]

	speed := int32(0)
	if moving && !in.Has(core.ButtonAim) {
		speed = PlayerSpeed
		if in.Has(core.ButtonRun) {
			speed *= 2
		}
		p.Facing = h.facing
		p.Transform.Matrix = quarterTurn(h.facing)
	}

	p.VelocityX, p.VelocityZ = int16(h.dx*speed), int16(h.dz*speed)
	p.Transform.Translation.X = int32(core.Clamp(int(p.Transform.Translation.X+h.dx*speed), 0, RoomSize))
	p.Transform.Translation.Z = int32(core.Clamp(int(p.Transform.Translation.Z+h.dz*speed), 0, RoomSize))
	p.Motion = speed

	if speed > 0 {
		p.State = stateWalk
	} else {
		p.State = stateIdle
	}
}

func (s *Sim) nearestEnemy(c core.Vec2, within int) int {
	best, bestDist := -1, within+1
	for i := 1; i <= MaxEnemies; i++ {
		e := s.characters[i]
		if e == nil || e.deadTicks > 0 {
			continue
		}
		if d := distance(c, e.live.Transform.Center()); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func distance(a, b core.Vec2) int {
	return core.Abs(int(a.X-b.X)) + core.Abs(int(a.Z-b.Z))
}

func (s *Sim) updateEnemies() {
	p := s.player()
	pc := p.Transform.Center()

	if s.global.Input.Has(core.ButtonAction) {
		if i := s.nearestEnemy(pc, shotRange); i > 0 {
			e := &s.characters[i].live
			e.Health -= int16(2 + s.roll(4))
			e.State = stateHurt
		}
	}

	for i := 1; i <= MaxEnemies; i++ {
		a := s.characters[i]
		if a == nil {
			continue
		}
		e := &a.live

		if a.deadTicks > 0 || e.Health <= 0 {
			a.deadTicks++
			e.State = stateDead
			e.VelocityX, e.VelocityZ = 0, 0
			e.Flags |= 0x80
			if a.deadTicks > corpseTicks {
				s.characters[i] = nil
			}
			continue
		}

		ec := e.Transform.Center()
		dx := int32(core.Clamp(int(pc.X-ec.X), -EnemySpeed, EnemySpeed))
		dz := int32(core.Clamp(int(pc.Z-ec.Z), -EnemySpeed, EnemySpeed))
		e.Transform.Translation.X += dx
		e.Transform.Translation.Z += dz
		e.VelocityX, e.VelocityZ = int16(dx), int16(dz)
		e.Motion = int32(core.Abs(int(dx)) + core.Abs(int(dz)))
		if e.State != stateHurt || s.tick%8 == 0 {
			e.State = stateWalk
		}

		// Limb animation.
		for j := range e.ModelParts {
			e.ModelParts[j].Translation.Y = int32((int(s.tick) + j*7) % 64)
		}
		if e.Kind == KindBrute && s.tick%50 == 0 {
			if e.Parts[1] == nil {
				e.Parts[1] = &tracker.LivePart{Offset: core.Offset{Y: 300}, SizeX: 180, SizeZ: 90}
			} else {
				e.Parts[1] = nil
			}
		}

		if distance(pc, ec) < biteRange && s.tick%10 == 0 {
			p.Health -= int16(5 + s.roll(10))
			p.Flags |= 0x1
		}
	}
}

func (s *Sim) updateItems() {
	pc := s.player().Transform.Center()
	for i := 1; i <= MaxItems; i++ {
		if it := s.objects[i]; it != nil && distance(pc, it.live.Position) < pickupRange {
			s.objects[i] = nil
			s.player().Health = int16(core.Clamp(int(s.player().Health)+40, 0, playerHealth))
		}
	}
}

func (s *Sim) maybeSpawn() {
	if s.roll(48) != 0 {
		return
	}
	for i := 1; i <= MaxEnemies; i++ {
		if s.characters[i] != nil {
			continue
		}
		kind, parts := KindCrawler, 5
		if s.roll(3) == 0 {
			kind, parts = KindBrute, 12
		}
		mp := make([]core.Transform, parts)
		for j := range mp {
			mp[j].Matrix = core.IdentityMatrix()
		}
		x, z := int32(s.roll(RoomSize)), int32(RoomSize-s.roll(RoomSize/4))
		s.characters[i] = &actor{live: tracker.LiveActor{
			Handle:     s.nextHandle(),
			State:      stateIdle,
			Kind:       kind,
			Transform:  core.Transform{Matrix: quarterTurn(core.FixedOne / 2), Translation: core.Vec3{X: x, Z: z}},
			Parts:      [delta.MaxParts]*tracker.LivePart{{SizeX: 150, SizeZ: 150}},
			ModelParts: mp,
			Facing:     core.FixedOne / 2,
			SizeX:      500,
			SizeZ:      500,
			Floor:      int16(s.global.Room % 2),
			Health:     int16(20 + s.roll(40)),
		}}
		return
	}
}

func (s *Sim) clearRoom() {
	for i := 1; i < len(s.characters); i++ {
		s.characters[i] = nil
	}
	s.objects = [delta.ObjectSlots]*actor{}
}

func (s *Sim) enterNextRoom() {
	s.global.Room++
	if s.global.Room >= RoomsPerStage {
		s.global.Room = 0
		s.global.Stage = (s.global.Stage + 1) % Stages
	}
	s.global.SoundFlags = uint8(s.roll(4)) << 4

	s.clearRoom()
	p := s.player()
	p.Transform.Translation.Z = 1000
	p.Floor = int16(s.global.Room % 2)
	s.furnishRoom()
}

func (s *Sim) newGame() {
	s.global.NewGame = true
	s.global.Stage, s.global.Room = 0, 0
	s.global.Player ^= 1
	s.global.IgtSeconds, s.global.IgtFrames = 0, 0
	s.global.SoundFlags = 0

	s.clearRoom()
	s.spawnPlayer()
	s.furnishRoom()
}
