package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/terrastream/server/internal/geom"
)

type dispatchCall struct {
	pos geom.BlockPos
	lod LODIndex
}

type fakeGen struct {
	calls []dispatchCall
}

func (g *fakeGen) Dispatch(pos geom.BlockPos, lod LODIndex) {
	g.calls = append(g.calls, dispatchCall{pos, lod})
}

type fakeDelivery struct {
	sends   map[uint64][]BlockKey
	commits map[OwnerID][]BlockKey
	evicts  map[OwnerID][]BlockKey
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{
		sends:   make(map[uint64][]BlockKey),
		commits: make(map[OwnerID][]BlockKey),
		evicts:  make(map[OwnerID][]BlockKey),
	}
}

func (d *fakeDelivery) SendBlock(session uint64, blk *Block) {
	d.sends[session] = append(d.sends[session], blk.Key())
}

func (d *fakeDelivery) Commit(owner OwnerID, blk *Block) {
	d.commits[owner] = append(d.commits[owner], blk.Key())
}

func (d *fakeDelivery) Evict(owner OwnerID, key BlockKey) {
	d.evicts[owner] = append(d.evicts[owner], key)
}

func testBlock(pos geom.BlockPos, lod LODIndex) *Block {
	return &Block{Pos: pos, LOD: lod, Edge: 2, Materials: make([]byte, 8)}
}

func newTestLoader() (*Loader, *fakeGen, *fakeDelivery) {
	gen := &fakeGen{}
	del := newFakeDelivery()
	return NewLoader(gen, del, zap.NewNop()), gen, del
}

func TestRequestCoalescesReasons(t *testing.T) {
	l, gen, del := newTestLoader()
	l.AttachOwner(7)

	pos := geom.BlockPos{X: 1, Y: 2, Z: 3}
	l.Request(pos, 0, LocalReason(7))
	l.Request(pos, 0, ClientReason(99))

	require.Len(t, gen.calls, 1, "second request for an in-flight key must not dispatch")
	assert.True(t, l.IsPending(pos, 0))
	assert.False(t, l.IsPresent(pos, 0))

	l.Loaded(pos, 0, testBlock(pos, 0))

	key := BlockKey{Pos: pos, LOD: 0}
	assert.Equal(t, []BlockKey{key}, del.commits[7], "local reason committed")
	assert.Equal(t, []BlockKey{key}, del.sends[99], "client reason delivered")
	assert.True(t, l.IsPresent(pos, 0))
	assert.False(t, l.IsPending(pos, 0))
}

func TestLODsLoadIndependently(t *testing.T) {
	l, gen, _ := newTestLoader()
	l.AttachOwner(1)

	pos := geom.BlockPos{X: 4, Y: 0, Z: -4}
	l.Request(pos, 0, LocalReason(1))
	l.Request(pos, 2, LocalReason(1))

	require.Len(t, gen.calls, 2, "different LODs of one cell are distinct loads")

	l.Loaded(pos, 2, testBlock(pos, 2))
	assert.False(t, l.IsPresent(pos, 0))
	assert.True(t, l.IsPresent(pos, 2))
	assert.True(t, l.IsPending(pos, 0))
}

func TestRequestAlreadyPresent(t *testing.T) {
	l, gen, del := newTestLoader()
	l.AttachOwner(3)

	pos := geom.BlockPos{X: 0, Y: 0, Z: 0}
	l.Request(pos, 1, LocalReason(3))
	l.Loaded(pos, 1, testBlock(pos, 1))
	require.Len(t, gen.calls, 1)

	// A client asking for resident content gets it without a new dispatch.
	l.Request(pos, 1, ClientReason(5))
	assert.Len(t, gen.calls, 1)
	assert.Equal(t, []BlockKey{{Pos: pos, LOD: 1}}, del.sends[5])

	// A second owner piggybacks on the resident content.
	l.AttachOwner(4)
	l.Request(pos, 1, LocalReason(4))
	assert.Len(t, gen.calls, 1)
	assert.Len(t, del.commits[4], 1)
}

func TestReleaseLastReasonFreesContent(t *testing.T) {
	l, _, del := newTestLoader()
	l.AttachOwner(2)

	pos := geom.BlockPos{X: -1, Y: 5, Z: 9}
	l.Request(pos, 0, LocalReason(2))
	l.Loaded(pos, 0, testBlock(pos, 0))
	require.True(t, l.IsPresent(pos, 0))

	l.Release(pos, 0, LocalReason(2))

	assert.False(t, l.IsPresent(pos, 0))
	assert.False(t, l.IsPending(pos, 0))
	assert.Equal(t, []BlockKey{{Pos: pos, LOD: 0}}, del.evicts[2])
}

func TestReleaseKeepsContentWhileOtherReasonsHold(t *testing.T) {
	l, _, del := newTestLoader()
	l.AttachOwner(10)
	l.AttachOwner(11)

	pos := geom.BlockPos{X: 2, Y: 2, Z: 2}
	l.Request(pos, 0, LocalReason(10))
	l.Request(pos, 0, LocalReason(11))
	l.Loaded(pos, 0, testBlock(pos, 0))

	l.Release(pos, 0, LocalReason(10))

	assert.True(t, l.IsPresent(pos, 0), "second owner still holds the content")
	assert.Len(t, del.evicts[10], 1, "releasing owner's store copy is evicted regardless")
	assert.Empty(t, del.evicts[11])

	l.Release(pos, 0, LocalReason(11))
	assert.False(t, l.IsPresent(pos, 0))
}

func TestClientOnlyCompletionNotRetained(t *testing.T) {
	l, _, del := newTestLoader()

	pos := geom.BlockPos{X: 8, Y: -3, Z: 1}
	l.Request(pos, 0, ClientReason(42))
	l.Loaded(pos, 0, testBlock(pos, 0))

	assert.Len(t, del.sends[42], 1)
	assert.False(t, l.IsPresent(pos, 0), "delivery-only content leaves no residue")
	assert.False(t, l.IsPending(pos, 0))
}

func TestDetachedOwnerCompletionIsNoOp(t *testing.T) {
	l, _, del := newTestLoader()
	l.AttachOwner(6)

	pos := geom.BlockPos{X: 3, Y: 3, Z: 3}
	l.Request(pos, 0, LocalReason(6))
	l.DetachOwner(6)

	l.Loaded(pos, 0, testBlock(pos, 0))

	assert.Empty(t, del.commits[6], "torn-down owner must not receive a commit")
	assert.False(t, l.IsPresent(pos, 0))
	assert.False(t, l.IsPending(pos, 0))
}

func TestDuplicateCompletionDropped(t *testing.T) {
	l, _, del := newTestLoader()
	l.AttachOwner(1)

	pos := geom.BlockPos{X: 1, Y: 1, Z: 1}
	l.Request(pos, 0, LocalReason(1))
	l.Loaded(pos, 0, testBlock(pos, 0))
	l.Loaded(pos, 0, testBlock(pos, 0))

	assert.Len(t, del.commits[1], 1)
}

func TestReleaseCellCoversAllHeldLODs(t *testing.T) {
	l, _, del := newTestLoader()
	l.AttachOwner(5)

	pos := geom.BlockPos{X: 0, Y: 0, Z: 7}
	l.Request(pos, 0, LocalReason(5))
	l.Request(pos, 2, LocalReason(5))
	l.Loaded(pos, 0, testBlock(pos, 0))
	l.Loaded(pos, 2, testBlock(pos, 2))

	l.ReleaseCell(5, pos)

	assert.False(t, l.IsPresent(pos, 0))
	assert.False(t, l.IsPresent(pos, 2))
	assert.Len(t, del.evicts[5], 2)
}

func TestDetachOwnerReleasesEverything(t *testing.T) {
	l, _, _ := newTestLoader()
	l.AttachOwner(9)

	cells := []geom.BlockPos{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	for _, c := range cells {
		l.Request(c, 0, LocalReason(9))
		l.Loaded(c, 0, testBlock(c, 0))
	}

	l.DetachOwner(9)

	resident, pending := l.Stats()
	assert.Zero(t, resident)
	assert.Zero(t, pending)
}
