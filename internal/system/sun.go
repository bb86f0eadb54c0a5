package system

import (
	"time"

	coresys "github.com/terrastream/server/internal/core/system"
	"github.com/terrastream/server/internal/handler"
	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/world"
)

// broadcastEvery is how often the sun phase is pushed to clients. Clients
// interpolate between updates; the broadcast just corrects drift.
const broadcastEvery = 10 * time.Second

// SunSystem advances the day/night cycle and periodically broadcasts the
// phase. Phase 3 (PostUpdate).
type SunSystem struct {
	sun      *world.Sun
	sessions *net.SessionStore
	elapsed  time.Duration
}

func NewSunSystem(sun *world.Sun, sessions *net.SessionStore) *SunSystem {
	return &SunSystem{sun: sun, sessions: sessions}
}

func (s *SunSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SunSystem) Update(dt time.Duration) {
	s.sun.Advance(dt)

	s.elapsed += dt
	if s.elapsed < broadcastEvery {
		return
	}
	s.elapsed = 0
	handler.Broadcast(s.sessions, handler.BuildUpdateSun(s.sun.Phase()))
}
