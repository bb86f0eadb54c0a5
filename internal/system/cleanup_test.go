package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/terrastream/server/internal/core/event"
	"github.com/terrastream/server/internal/geom"
	"github.com/terrastream/server/internal/world"
)

type noopGen struct{}

func (noopGen) Dispatch(geom.BlockPos, world.LODIndex) {}

type noopDelivery struct{}

func (noopDelivery) SendBlock(uint64, *world.Block) {}

func (noopDelivery) Commit(world.OwnerID, *world.Block) {}

func (noopDelivery) Evict(world.OwnerID, world.BlockKey) {}

func TestCleanupCountsObserverChurn(t *testing.T) {
	bus := event.NewBus()
	loader := world.NewLoader(noopGen{}, noopDelivery{}, zap.NewNop())
	s := NewCleanupSystem(bus, loader, world.NewState(16), zap.NewNop())

	event.Emit(bus, event.ObserverJoined{SessionID: 1, OwnerID: 1})
	event.Emit(bus, event.ObserverJoined{SessionID: 2, OwnerID: 2})
	event.Emit(bus, event.ObserverLeft{SessionID: 1, OwnerID: 1})

	// Double-buffered bus: events emitted this tick are dispatched by the
	// next Update.
	s.Update(time.Millisecond)
	assert.Equal(t, 2, s.joined)
	assert.Equal(t, 1, s.left)

	// The gauge line resets the churn window.
	s.Update(statsEvery)
	assert.Zero(t, s.joined)
	assert.Zero(t, s.left)
}

func TestCleanupEventsDeliveredNextTickOnly(t *testing.T) {
	bus := event.NewBus()
	loader := world.NewLoader(noopGen{}, noopDelivery{}, zap.NewNop())
	s := NewCleanupSystem(bus, loader, world.NewState(16), zap.NewNop())

	s.Update(time.Millisecond)
	event.Emit(bus, event.ObserverJoined{SessionID: 7, OwnerID: 7})
	assert.Zero(t, s.joined, "emitted after rotation, delivered next tick")

	s.Update(time.Millisecond)
	assert.Equal(t, 1, s.joined)
}
