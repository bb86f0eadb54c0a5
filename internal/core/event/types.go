package event

import "github.com/terrastream/server/internal/geom"

// ObserverJoined fires when a session finishes the hello exchange and is
// granted an owner lease.
type ObserverJoined struct {
	SessionID uint64
	OwnerID   uint32
}

// ObserverLeft fires when a session's observer is torn down.
type ObserverLeft struct {
	SessionID uint64
	OwnerID   uint32
}

// BlockCommitted fires when a generated terrain block is committed into an
// owner's resident store.
type BlockCommitted struct {
	Pos     geom.BlockPos
	LOD     uint8
	OwnerID uint32
}
