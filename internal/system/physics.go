package system

import (
	"time"

	coresys "github.com/terrastream/server/internal/core/system"
	"github.com/terrastream/server/internal/data"
	"github.com/terrastream/server/internal/handler"
	"github.com/terrastream/server/internal/world"
)

// PhysicsSystem steps every player body against its owner's resident
// terrain, pushes authoritative position updates, and feeds center-cell
// changes to the streamer. Phase 2 (Update).
type PhysicsSystem struct {
	world     *world.State
	streamer  *world.Streamer
	materials *data.MaterialTable
	gravity   float64
}

func NewPhysicsSystem(ws *world.State, streamer *world.Streamer, materials *data.MaterialTable, gravity float64) *PhysicsSystem {
	return &PhysicsSystem{
		world:     ws,
		streamer:  streamer,
		materials: materials,
		gravity:   gravity,
	}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *PhysicsSystem) Update(dt time.Duration) {
	step := dt.Seconds()
	s.world.AllPlayers(func(p *world.PlayerInfo) {
		oldCell := s.world.QuantizeCell(p.Pos)

		world.StepPlayer(p, s.world.Store(p.OwnerID), s.materials.Solid, s.gravity, step)

		if p.Dirty {
			p.Session.Send(handler.BuildUpdatePlayer(p))
			p.Dirty = false
		}

		// One cell change per tick at most: movement is bounded well below
		// a block edge per tick, so consecutive diffs never skip a cell.
		if newCell := s.world.QuantizeCell(p.Pos); newCell != oldCell {
			s.streamer.Move(p.OwnerID, newCell)
		}
	})
}
