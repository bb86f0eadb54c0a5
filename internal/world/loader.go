package world

import (
	"sync"

	"github.com/terrastream/server/internal/geom"
	"go.uber.org/zap"
)

// GenDispatcher is the generation collaborator. Dispatch is fire-and-forget:
// the result arrives later through Loader.Loaded, exactly once per dispatch.
type GenDispatcher interface {
	Dispatch(pos geom.BlockPos, lod LODIndex)
}

// Delivery routes completed blocks to their consumers. Implementations must
// not block: sends are buffered, commits are in-memory.
type Delivery interface {
	// SendBlock delivers content over one client's outbound channel.
	SendBlock(session uint64, blk *Block)
	// Commit places content into an owner's resident store for physics.
	Commit(owner OwnerID, blk *Block)
	// Evict removes content from an owner's resident store.
	Evict(owner OwnerID, key BlockKey)
}

// pendingLoad is one in-flight generation request. At most one exists per
// block key; reasons arriving while it is in flight are merged into its
// reason set and fanned out together on completion.
type pendingLoad struct {
	reasons map[LoadReason]struct{}
}

// Loader is the load-request coordinator. It owns the resident content map,
// the residency tracker, and the pending-load table, and guards all three
// with one mutex so "present" and "pending" are mutually exclusive,
// atomically checked states: a Request can never double-dispatch against a
// completion it did not see, and a completion can never race a Request it
// should have deduplicated.
type Loader struct {
	mu       sync.Mutex
	terrain  map[BlockKey]*Block
	tracker  *Tracker
	pending  map[BlockKey]*pendingLoad
	owners   map[OwnerID]struct{}
	gen      GenDispatcher
	delivery Delivery
	log      *zap.Logger
}

func NewLoader(gen GenDispatcher, delivery Delivery, log *zap.Logger) *Loader {
	return &Loader{
		terrain:  make(map[BlockKey]*Block),
		tracker:  NewTracker(),
		pending:  make(map[BlockKey]*pendingLoad),
		owners:   make(map[OwnerID]struct{}),
		gen:      gen,
		delivery: delivery,
		log:      log,
	}
}

// AttachOwner registers a live owner. Completions for owners never attached
// (or already detached) commit as unreferenced no-ops.
func (l *Loader) AttachOwner(owner OwnerID) {
	l.mu.Lock()
	l.owners[owner] = struct{}{}
	l.mu.Unlock()
}

// Request asks for a block's content on behalf of a reason.
//
// Already resident: no generation call is made; a ForClient reason gets the
// content delivered immediately, a Local reason gains residency and a
// physics commit. Already pending: the reason merges into the in-flight
// request's reason set. Otherwise a pending load is created and exactly one
// dispatch goes to the generator.
func (l *Loader) Request(pos geom.BlockPos, lod LODIndex, reason LoadReason) {
	key := BlockKey{Pos: pos, LOD: lod}

	l.mu.Lock()
	if blk := l.terrain[key]; blk != nil {
		switch reason.Kind {
		case ReasonForClient:
			l.delivery.SendBlock(reason.Session, blk)
		case ReasonLocal:
			if l.tracker.MarkLoaded(key, reason) {
				l.delivery.Commit(reason.Owner, blk)
			}
		}
		l.mu.Unlock()
		return
	}

	if p := l.pending[key]; p != nil {
		p.reasons[reason] = struct{}{}
		l.mu.Unlock()
		return
	}

	l.pending[key] = &pendingLoad{
		reasons: map[LoadReason]struct{}{reason: {}},
	}
	l.mu.Unlock()

	// Dispatch outside the lock: the generator cannot complete a request
	// before seeing it, so the pending entry is already visible to Loaded.
	l.gen.Dispatch(pos, lod)
}

// Loaded accepts a completed generation and fans the content out to every
// reason merged into the pending load. Local reasons commit into their
// owner's store (whether or not the observer still wants the cell — commit
// is not re-validated, matching the load path's contract); ForClient
// reasons get a one-shot delivery. Content is retained only when at least
// one live Local reason gained residency; a delivery-only completion leaves
// nothing behind.
func (l *Loader) Loaded(pos geom.BlockPos, lod LODIndex, blk *Block) {
	key := BlockKey{Pos: pos, LOD: lod}

	l.mu.Lock()
	p := l.pending[key]
	if p == nil {
		// Duplicate completion, or the generator answered something we no
		// longer track. Drop it.
		l.log.Debug("completion without pending load",
			zap.String("pos", pos.String()),
			zap.Uint8("lod", uint8(lod)),
		)
		l.mu.Unlock()
		return
	}
	delete(l.pending, key)

	retained := false
	for reason := range p.reasons {
		switch reason.Kind {
		case ReasonLocal:
			if _, live := l.owners[reason.Owner]; !live {
				// Owner torn down mid-flight: successful but unreferenced.
				continue
			}
			if l.tracker.MarkLoaded(key, reason) {
				l.delivery.Commit(reason.Owner, blk)
			}
			retained = true
		case ReasonForClient:
			l.delivery.SendBlock(reason.Session, blk)
		}
	}
	if retained {
		l.terrain[key] = blk
	}
	l.mu.Unlock()
}

// Release drops one reason's interest in a block. The content is freed when
// the last reason goes; a Local release always evicts the owner's store
// copy even while other reasons keep the shared content alive.
func (l *Loader) Release(pos geom.BlockPos, lod LODIndex, reason LoadReason) {
	key := BlockKey{Pos: pos, LOD: lod}

	l.mu.Lock()
	if l.tracker.MarkUnloaded(key, reason) {
		delete(l.terrain, key)
	}
	if reason.Kind == ReasonLocal {
		l.delivery.Evict(reason.Owner, key)
	}
	l.mu.Unlock()
}

// ReleaseCell drops an owner's interest in a cell across every LOD it
// holds there. Used for cells leaving the owner's resident region.
func (l *Loader) ReleaseCell(owner OwnerID, pos geom.BlockPos) {
	l.mu.Lock()
	for _, lod := range l.tracker.HeldLODs(owner, pos) {
		key := BlockKey{Pos: pos, LOD: lod}
		if l.tracker.MarkUnloaded(key, LocalReason(owner)) {
			delete(l.terrain, key)
		}
		l.delivery.Evict(owner, key)
	}
	l.mu.Unlock()
}

// DetachOwner tears an owner down: every held block is released and the
// owner is removed from the live set so in-flight completions for it become
// no-ops. Never blocks on pending loads.
func (l *Loader) DetachOwner(owner OwnerID) {
	l.mu.Lock()
	for _, key := range l.tracker.OwnerKeys(owner) {
		if l.tracker.MarkUnloaded(key, LocalReason(owner)) {
			delete(l.terrain, key)
		}
		l.delivery.Evict(owner, key)
	}
	delete(l.owners, owner)
	l.mu.Unlock()
}

// IsPresent reports whether content for the block is resident.
func (l *Loader) IsPresent(pos geom.BlockPos, lod LODIndex) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.terrain[BlockKey{Pos: pos, LOD: lod}]
	return ok
}

// IsPending reports whether a generation request for the block is in flight.
func (l *Loader) IsPending(pos geom.BlockPos, lod LODIndex) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[BlockKey{Pos: pos, LOD: lod}]
	return ok
}

// Get returns resident content, or nil.
func (l *Loader) Get(pos geom.BlockPos, lod LODIndex) *Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.terrain[BlockKey{Pos: pos, LOD: lod}]
}

// Stats returns the resident and pending block counts.
func (l *Loader) Stats() (resident, pending int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.terrain), len(l.pending)
}
