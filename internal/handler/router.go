package handler

import (
	"go.uber.org/zap"

	"github.com/terrastream/server/internal/core/event"
	"github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/world"
)

// Router routes loader output to its consumers: client sessions for
// explicit requests, per-owner stores for resident terrain. It is the
// loader's Delivery implementation. Called under the loader's lock — it
// must never block, so sends only buffer on the session's outBuf path
// via OutQueue-backed channels.
type Router struct {
	Sessions *net.SessionStore
	World    *world.State
	Bus      *event.Bus
	Log      *zap.Logger
}

// SendBlock delivers one block to a client that asked for it. The session
// may have died since the request; deliveries to dead sessions are dropped.
func (r *Router) SendBlock(session uint64, blk *world.Block) {
	s := r.Sessions.Get(session)
	if s == nil || s.IsClosed() {
		r.Log.Debug("方塊送達時連線已不存在", zap.Uint64("session", session))
		return
	}
	s.Send(BuildAddBlock(blk))
}

// Commit places a block into the owner's resident store and mirrors it to
// the owner's client so the rendered world tracks the physics world.
func (r *Router) Commit(owner world.OwnerID, blk *world.Block) {
	store := r.World.Store(owner)
	if store == nil {
		return
	}
	store.Commit(blk)

	if p := r.World.GetByOwner(owner); p != nil && !p.Session.IsClosed() {
		p.Session.Send(BuildAddBlock(blk))
	}
	event.Emit(r.Bus, event.BlockCommitted{Pos: blk.Pos, LOD: uint8(blk.LOD), OwnerID: uint32(owner)})
}

// Evict removes a block from the owner's resident store.
func (r *Router) Evict(owner world.OwnerID, key world.BlockKey) {
	if store := r.World.Store(owner); store != nil {
		store.Evict(key)
	}
}
