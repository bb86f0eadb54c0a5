package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terrastream/server/internal/geom"
)

func TestTrackerEntryLifecycle(t *testing.T) {
	tr := NewTracker()
	key := BlockKey{Pos: geom.BlockPos{X: 1, Y: 2, Z: 3}, LOD: 0}

	assert.False(t, tr.HasReasons(key))

	assert.True(t, tr.MarkLoaded(key, LocalReason(1)))
	assert.False(t, tr.MarkLoaded(key, LocalReason(1)), "re-adding the same reason is a no-op")
	assert.True(t, tr.MarkLoaded(key, LocalReason(2)))

	assert.True(t, tr.HasReasons(key))
	assert.True(t, tr.Holds(key, LocalReason(1)))
	assert.False(t, tr.Holds(key, LocalReason(3)))

	assert.False(t, tr.MarkUnloaded(key, LocalReason(1)), "one reason remains")
	assert.True(t, tr.MarkUnloaded(key, LocalReason(2)), "last reason destroys the entry")
	assert.False(t, tr.HasReasons(key))

	assert.False(t, tr.MarkUnloaded(key, LocalReason(2)), "removing from a dead entry")
}

func TestTrackerReasonsNotInterchangeable(t *testing.T) {
	tr := NewTracker()
	key := BlockKey{Pos: geom.BlockPos{X: 0, Y: 0, Z: 0}, LOD: 1}

	tr.MarkLoaded(key, LocalReason(1))
	tr.MarkLoaded(key, ClientReason(1))

	assert.False(t, tr.MarkUnloaded(key, LocalReason(1)))
	assert.True(t, tr.HasReasons(key), "client reason is distinct from the owner's")
}

func TestTrackerHeldLODs(t *testing.T) {
	tr := NewTracker()
	pos := geom.BlockPos{X: 5, Y: -5, Z: 5}

	tr.MarkLoaded(BlockKey{Pos: pos, LOD: 0}, LocalReason(4))
	tr.MarkLoaded(BlockKey{Pos: pos, LOD: 3}, LocalReason(4))
	tr.MarkLoaded(BlockKey{Pos: pos, LOD: 1}, LocalReason(8))

	assert.ElementsMatch(t, []LODIndex{0, 3}, tr.HeldLODs(4, pos))
	assert.ElementsMatch(t, []LODIndex{1}, tr.HeldLODs(8, pos))
	assert.Empty(t, tr.HeldLODs(9, pos))

	tr.MarkUnloaded(BlockKey{Pos: pos, LOD: 0}, LocalReason(4))
	assert.ElementsMatch(t, []LODIndex{3}, tr.HeldLODs(4, pos))
}

func TestTrackerOwnerKeys(t *testing.T) {
	tr := NewTracker()
	a := geom.BlockPos{X: 1, Y: 0, Z: 0}
	b := geom.BlockPos{X: 0, Y: 1, Z: 0}

	tr.MarkLoaded(BlockKey{Pos: a, LOD: 0}, LocalReason(2))
	tr.MarkLoaded(BlockKey{Pos: a, LOD: 1}, LocalReason(2))
	tr.MarkLoaded(BlockKey{Pos: b, LOD: 0}, LocalReason(2))
	tr.MarkLoaded(BlockKey{Pos: b, LOD: 0}, ClientReason(7))

	keys := tr.OwnerKeys(2)
	assert.ElementsMatch(t, []BlockKey{
		{Pos: a, LOD: 0},
		{Pos: a, LOD: 1},
		{Pos: b, LOD: 0},
	}, keys)

	assert.Empty(t, tr.OwnerKeys(7), "client reasons are not owner holdings")
}
