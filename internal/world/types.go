package world

import (
	"fmt"

	"github.com/terrastream/server/internal/geom"
)

// OwnerID identifies an independent observer whose resident terrain volume
// is tracked separately (each player's server-side physics view).
type OwnerID uint32

// LODIndex selects a level of detail for a block's content. 0 is full
// resolution; each step halves the samples per axis.
type LODIndex uint8

// ReasonKind tags why a block's content is wanted.
type ReasonKind uint8

const (
	// ReasonLocal: the block maintains an observer's resident volume and is
	// committed into that owner's store for physics.
	ReasonLocal ReasonKind = iota
	// ReasonForClient: a client explicitly asked for the block; the content
	// is delivered once over that client's channel.
	ReasonForClient
)

// LoadReason is a comparable tagged value usable as a set key. Reasons are
// not interchangeable: fulfilling one does not satisfy another.
type LoadReason struct {
	Kind    ReasonKind
	Owner   OwnerID // ReasonLocal only
	Session uint64  // ReasonForClient only
}

func LocalReason(owner OwnerID) LoadReason {
	return LoadReason{Kind: ReasonLocal, Owner: owner}
}

func ClientReason(session uint64) LoadReason {
	return LoadReason{Kind: ReasonForClient, Session: session}
}

func (r LoadReason) String() string {
	if r.Kind == ReasonLocal {
		return fmt.Sprintf("local(owner=%d)", r.Owner)
	}
	return fmt.Sprintf("client(session=%d)", r.Session)
}

// BlockKey addresses one block's content at one level of detail. Multiple
// LODs of the same cell coexist independently.
type BlockKey struct {
	Pos geom.BlockPos
	LOD LODIndex
}

// Block is the generated voxel content of one cell at one level of detail.
// Materials holds Edge³ material IDs in x-major order:
// index = (x*Edge+y)*Edge + z.
type Block struct {
	Pos       geom.BlockPos
	LOD       LODIndex
	Edge      int
	Materials []byte
}

func (b *Block) Key() BlockKey {
	return BlockKey{Pos: b.Pos, LOD: b.LOD}
}

// MaterialAt returns the material sample at local coordinates. Out-of-range
// coordinates are a programmer error and panic via slice bounds.
func (b *Block) MaterialAt(x, y, z int) byte {
	return b.Materials[(x*b.Edge+y)*b.Edge+z]
}

// Vec3 is a continuous world-space position or velocity.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}
