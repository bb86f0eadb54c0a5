package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/terrastream/server/internal/core/event"
	coresys "github.com/terrastream/server/internal/core/system"
	"github.com/terrastream/server/internal/world"
)

// statsEvery is how often the residency gauges are logged.
const statsEvery = 30 * time.Second

// CleanupSystem runs last in the tick: it rotates the event bus so this
// tick's events are delivered at the start of the next, and periodically
// logs residency gauges. Phase 6 (Cleanup).
type CleanupSystem struct {
	bus     *event.Bus
	loader  *world.Loader
	world   *world.State
	log     *zap.Logger
	elapsed time.Duration

	// churn counters since the last gauge line
	joined int
	left   int
}

func NewCleanupSystem(bus *event.Bus, loader *world.Loader, ws *world.State, log *zap.Logger) *CleanupSystem {
	s := &CleanupSystem{bus: bus, loader: loader, world: ws, log: log}
	event.Subscribe(bus, func(event.ObserverJoined) { s.joined++ })
	event.Subscribe(bus, func(event.ObserverLeft) { s.left++ })
	return s
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(dt time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()

	s.elapsed += dt
	if s.elapsed < statsEvery {
		return
	}
	s.elapsed = 0

	resident, pending := s.loader.Stats()
	s.log.Info("世界狀態",
		zap.Int("players", s.world.PlayerCount()),
		zap.Int("resident_blocks", resident),
		zap.Int("pending_loads", pending),
		zap.Int("joined", s.joined),
		zap.Int("left", s.left),
	)
	s.joined, s.left = 0, 0
}
