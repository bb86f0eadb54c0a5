package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastream/server/internal/geom"
)

const testGravity = -9.8

func solidByID(m byte) bool { return m != 0 }

// floorStore returns an owner store with one resident cell at the origin:
// voxels with y < floorTop are stone, everything above is air.
func floorStore(edge, floorTop int) *OwnerStore {
	blk := &Block{
		Pos:       geom.BlockPos{},
		LOD:       0,
		Edge:      edge,
		Materials: make([]byte, edge*edge*edge),
	}
	for x := 0; x < edge; x++ {
		for y := 0; y < floorTop; y++ {
			for z := 0; z < edge; z++ {
				blk.Materials[(x*edge+y)*edge+z] = 1
			}
		}
	}
	st := NewOwnerStore(edge)
	st.Commit(blk)
	return st
}

func TestStepPlayerFallsAndLands(t *testing.T) {
	st := floorStore(4, 2)
	p := &PlayerInfo{Pos: Vec3{X: 0.5, Y: 3.5, Z: 0.5}}

	for i := 0; i < 100 && !p.OnGround; i++ {
		StepPlayer(p, st, solidByID, testGravity, 0.05)
	}

	require.True(t, p.OnGround, "player should land on the floor")
	assert.Equal(t, 2.0, p.Pos.Y, "feet snap to the top of the floor voxel")
	assert.Zero(t, p.Vel.Y)
	assert.True(t, p.Dirty)
}

func TestStepPlayerGravityHeldWhileUnloaded(t *testing.T) {
	st := NewOwnerStore(4)
	p := &PlayerInfo{Pos: Vec3{X: 0.5, Y: 3.5, Z: 0.5}}

	moved := StepPlayer(p, st, solidByID, testGravity, 0.05)

	assert.False(t, moved, "nothing resident under the player, no fall")
	assert.Equal(t, 3.5, p.Pos.Y)
	assert.Zero(t, p.Vel.Y)
}

func TestStepPlayerWalk(t *testing.T) {
	st := floorStore(4, 2)
	p := &PlayerInfo{
		Pos:      Vec3{X: 0.5, Y: 2, Z: 0.5},
		Walk:     Vec3{X: 1},
		OnGround: true,
	}

	moved := StepPlayer(p, st, solidByID, testGravity, 0.1)

	require.True(t, moved)
	assert.InDelta(t, 0.95, p.Pos.X, 1e-9)
	assert.Equal(t, 2.0, p.Pos.Y, "walking on flat ground keeps height")
	assert.True(t, p.OnGround)
}

func TestStepPlayerJumpLeavesGround(t *testing.T) {
	st := floorStore(4, 2)
	p := &PlayerInfo{
		Pos:       Vec3{X: 0.5, Y: 2, Z: 0.5},
		OnGround:  true,
		IsJumping: true,
	}

	StepPlayer(p, st, solidByID, testGravity, 0.05)

	assert.False(t, p.OnGround)
	assert.Greater(t, p.Pos.Y, 2.0)
}

func TestStepPlayerZeroDtNoOp(t *testing.T) {
	st := floorStore(4, 2)
	p := &PlayerInfo{Pos: Vec3{X: 0.5, Y: 3, Z: 0.5}}

	assert.False(t, StepPlayer(p, st, solidByID, testGravity, 0))
	assert.False(t, StepPlayer(p, nil, solidByID, testGravity, 0.05))
}

func TestOwnerStoreMaterialAtPrefersFinestLOD(t *testing.T) {
	st := NewOwnerStore(4)

	coarse := &Block{LOD: 1, Edge: 2, Materials: make([]byte, 8)}
	for i := range coarse.Materials {
		coarse.Materials[i] = 1
	}
	st.Commit(coarse)

	m, loaded := st.MaterialAt(0, 0, 0)
	require.True(t, loaded)
	assert.Equal(t, byte(1), m, "coarse block serves until a finer one arrives")

	fine := &Block{LOD: 0, Edge: 4, Materials: make([]byte, 64)}
	st.Commit(fine)

	m, loaded = st.MaterialAt(0, 0, 0)
	require.True(t, loaded)
	assert.Equal(t, byte(0), m, "finest resident LOD wins")
}

func TestOwnerStoreMaterialAtNegativeCoords(t *testing.T) {
	st := NewOwnerStore(4)
	blk := &Block{
		Pos:       geom.BlockPos{X: -1, Y: -1, Z: -1},
		LOD:       0,
		Edge:      4,
		Materials: make([]byte, 64),
	}
	// Voxel (-1,-1,-1) is local (3,3,3) of cell (-1,-1,-1).
	blk.Materials[(3*4+3)*4+3] = 1
	st.Commit(blk)

	m, loaded := st.MaterialAt(-1, -1, -1)
	require.True(t, loaded)
	assert.Equal(t, byte(1), m)

	_, loaded = st.MaterialAt(0, 0, 0)
	assert.False(t, loaded, "neighboring cell is not resident")
}
