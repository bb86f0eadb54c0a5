package world

import (
	"github.com/terrastream/server/internal/geom"
	"go.uber.org/zap"
)

// Observer is one moving reference point whose surrounding cube of terrain
// is kept resident.
type Observer struct {
	Owner  OwnerID
	Center geom.BlockPos
}

// Streamer drives residency from observer movement. When an observer's
// quantized center cell changes it computes the leaving and entering cells
// as two cube diffs — never by re-enumerating the cube volumes — evicts the
// leaving cells and requests the entering ones.
//
// Movement updates for one owner must arrive in order and never overlap:
// each diff is taken against the immediately preceding center. The game
// loop provides that serialization.
type Streamer struct {
	loader    *Loader
	radius    int32
	lodFor    func(dist int32) LODIndex
	observers map[OwnerID]*Observer
	log       *zap.Logger
}

func NewStreamer(loader *Loader, radius int32, lodFor func(dist int32) LODIndex, log *zap.Logger) *Streamer {
	if radius < 1 {
		panic("world: streamer radius must be >= 1")
	}
	return &Streamer{
		loader:    loader,
		radius:    radius,
		lodFor:    lodFor,
		observers: make(map[OwnerID]*Observer),
		log:       log,
	}
}

func (s *Streamer) Radius() int32 {
	return s.radius
}

// Attach registers a new observer and requests its full initial volume,
// nearest shells first so close terrain becomes solid before the horizon.
func (s *Streamer) Attach(owner OwnerID, center geom.BlockPos) {
	if _, ok := s.observers[owner]; ok {
		s.log.Warn("observer already attached", zap.Uint32("owner", uint32(owner)))
		return
	}
	s.loader.AttachOwner(owner)
	s.observers[owner] = &Observer{Owner: owner, Center: center}

	for r := int32(0); r <= s.radius; r++ {
		lod := s.lodFor(r)
		for _, cell := range geom.CubeShell(center, r) {
			s.loader.Request(cell, lod, LocalReason(owner))
		}
	}
}

// Move processes one in-order center change for an observer. A no-op when
// the center is unchanged.
func (s *Streamer) Move(owner OwnerID, newCenter geom.BlockPos) {
	o := s.observers[owner]
	if o == nil {
		s.log.Warn("movement for unknown observer", zap.Uint32("owner", uint32(owner)))
		return
	}
	if o.Center == newCenter {
		return
	}
	oldCenter := o.Center
	o.Center = newCenter

	for _, cell := range geom.CubeDiff(oldCenter, newCenter, s.radius) {
		s.loader.ReleaseCell(owner, cell)
	}
	for _, cell := range geom.CubeDiff(newCenter, oldCenter, s.radius) {
		s.loader.Request(cell, s.lodFor(geom.Chebyshev(newCenter, cell)), LocalReason(owner))
	}
}

// Detach tears an observer down, releasing everything it holds. Pending
// loads for it are left to complete as unreferenced no-ops.
func (s *Streamer) Detach(owner OwnerID) {
	if _, ok := s.observers[owner]; !ok {
		return
	}
	delete(s.observers, owner)
	s.loader.DetachOwner(owner)
}

// Center returns an observer's current center cell.
func (s *Streamer) Center(owner OwnerID) (geom.BlockPos, bool) {
	o := s.observers[owner]
	if o == nil {
		return geom.BlockPos{}, false
	}
	return o.Center, true
}
