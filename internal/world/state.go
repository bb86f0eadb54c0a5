package world

import (
	"github.com/terrastream/server/internal/geom"
	"github.com/terrastream/server/internal/net"
)

// DefaultSpawn is where new observers enter the world.
var DefaultSpawn = Vec3{X: 0.5, Y: 80, Z: 0.5}

// PlayerInfo is the server-side view of one connected observer: its session,
// its owner lease, and its simulated body. Game loop goroutine only.
type PlayerInfo struct {
	SessionID uint64
	Session   *net.Session
	OwnerID   OwnerID
	Name      string

	Pos  Vec3
	Vel  Vec3
	Walk Vec3 // client walk intent, world-space, unit-ish magnitude

	Yaw   float32
	Pitch float32

	IsJumping bool
	OnGround  bool

	// Dirty marks that the player moved this tick and needs a position push.
	Dirty bool
}

// State holds all connected players and their per-owner resident terrain
// stores. Accessed only from the game loop goroutine — no locks.
type State struct {
	BlockEdge int

	players   map[uint64]*PlayerInfo
	byOwner   map[OwnerID]*PlayerInfo
	stores    map[OwnerID]*OwnerStore
	nextOwner OwnerID
}

func NewState(blockEdge int) *State {
	return &State{
		BlockEdge: blockEdge,
		players:   make(map[uint64]*PlayerInfo),
		byOwner:   make(map[OwnerID]*PlayerInfo),
		stores:    make(map[OwnerID]*OwnerStore),
	}
}

// AddPlayer creates a player for a session, leasing it a fresh OwnerID and
// an empty resident store.
func (st *State) AddPlayer(sess *net.Session, name string) *PlayerInfo {
	st.nextOwner++
	p := &PlayerInfo{
		SessionID: sess.ID,
		Session:   sess,
		OwnerID:   st.nextOwner,
		Name:      name,
		Pos:       DefaultSpawn,
	}
	st.players[sess.ID] = p
	st.byOwner[p.OwnerID] = p
	st.stores[p.OwnerID] = NewOwnerStore(st.BlockEdge)
	return p
}

func (st *State) GetBySession(id uint64) *PlayerInfo {
	return st.players[id]
}

func (st *State) GetByOwner(owner OwnerID) *PlayerInfo {
	return st.byOwner[owner]
}

// RemovePlayer drops a player and its store. Returns the removed player,
// or nil.
func (st *State) RemovePlayer(sessionID uint64) *PlayerInfo {
	p := st.players[sessionID]
	if p == nil {
		return nil
	}
	delete(st.players, sessionID)
	delete(st.byOwner, p.OwnerID)
	delete(st.stores, p.OwnerID)
	return p
}

func (st *State) AllPlayers(fn func(*PlayerInfo)) {
	for _, p := range st.players {
		fn(p)
	}
}

func (st *State) PlayerCount() int {
	return len(st.players)
}

// Store returns an owner's resident terrain store, or nil after teardown.
func (st *State) Store(owner OwnerID) *OwnerStore {
	return st.stores[owner]
}

// QuantizeCell maps a continuous world position to its containing cell.
func (st *State) QuantizeCell(pos Vec3) geom.BlockPos {
	e := int32(st.BlockEdge)
	return geom.BlockPos{
		X: floorDiv(int32(floorF(pos.X)), e),
		Y: floorDiv(int32(floorF(pos.Y)), e),
		Z: floorDiv(int32(floorF(pos.Z)), e),
	}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorF(v float64) float64 {
	i := float64(int64(v))
	if v < i {
		return i - 1
	}
	return i
}
