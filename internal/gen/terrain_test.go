package gen

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastream/server/internal/data"
	"github.com/terrastream/server/internal/geom"
	"github.com/terrastream/server/internal/world"
)

func TestGenerateDeterministic(t *testing.T) {
	pos := geom.BlockPos{X: 3, Y: 4, Z: -2}

	a := NewTerrain(42, 16, nil).Generate(pos, 0)
	b := NewTerrain(42, 16, nil).Generate(pos, 0)

	require.True(t, bytes.Equal(a.Materials, b.Materials),
		"same seed and position must produce identical payloads")
}

func TestGenerateSeedVariation(t *testing.T) {
	pos := geom.BlockPos{X: 0, Y: 4, Z: 0}

	a := NewTerrain(1, 16, nil).Generate(pos, 0)
	b := NewTerrain(2, 16, nil).Generate(pos, 0)

	assert.False(t, bytes.Equal(a.Materials, b.Materials),
		"different seeds should shape different terrain")
}

func TestGeneratePayloadSize(t *testing.T) {
	terrain := NewTerrain(7, 16, nil)
	pos := geom.BlockPos{X: 0, Y: 4, Z: 0}

	for lod := world.LODIndex(0); lod <= world.MaxLOD; lod++ {
		blk := terrain.Generate(pos, lod)
		samples := 16 >> lod
		require.Equal(t, samples, blk.Edge)
		require.Len(t, blk.Materials, samples*samples*samples, "lod %d", lod)
		assert.Equal(t, pos, blk.Pos)
		assert.Equal(t, lod, blk.LOD)
	}
}

// A coarse sample must carry the material of its lowest-corner full-detail
// voxel, so distant terrain agrees with what loads in close up.
func TestGenerateLODConsistency(t *testing.T) {
	terrain := NewTerrain(99, 16, nil)
	pos := geom.BlockPos{X: -1, Y: 4, Z: 5}

	fine := terrain.Generate(pos, 0)
	for lod := world.LODIndex(1); lod <= world.MaxLOD; lod++ {
		coarse := terrain.Generate(pos, lod)
		step := 1 << lod
		for sx := 0; sx < coarse.Edge; sx++ {
			for sy := 0; sy < coarse.Edge; sy++ {
				for sz := 0; sz < coarse.Edge; sz++ {
					want := fine.MaterialAt(sx*step, sy*step, sz*step)
					got := coarse.MaterialAt(sx, sy, sz)
					require.Equal(t, want, got,
						"lod %d sample (%d,%d,%d)", lod, sx, sy, sz)
				}
			}
		}
	}
}

func TestColumnMaterialBands(t *testing.T) {
	const surface = 70 // above water level

	assert.Equal(t, byte(data.MatAir), columnMaterial(surface+1, surface))
	assert.Equal(t, byte(data.MatGrass), columnMaterial(surface, surface))
	assert.Equal(t, byte(data.MatDirt), columnMaterial(surface-1, surface))
	assert.Equal(t, byte(data.MatDirt), columnMaterial(surface-dirtDepth+1, surface))
	assert.Equal(t, byte(data.MatStone), columnMaterial(surface-dirtDepth, surface))
}

func TestColumnMaterialUnderwater(t *testing.T) {
	const surface = 50 // below water level

	// The column above a submerged surface fills with water up to the
	// water line, then air.
	assert.Equal(t, byte(data.MatWater), columnMaterial(surface+1, surface))
	assert.Equal(t, byte(data.MatWater), columnMaterial(waterLevel, surface))
	assert.Equal(t, byte(data.MatAir), columnMaterial(waterLevel+1, surface))

	// A submerged surface is dirt, not grass.
	assert.Equal(t, byte(data.MatDirt), columnMaterial(surface, surface))
}

func TestValueNoiseRange(t *testing.T) {
	terrain := NewTerrain(1234, 16, nil)
	for x := int32(-64); x < 64; x += 7 {
		for z := int32(-64); z < 64; z += 7 {
			v := terrain.valueNoise(x, z, 32)
			require.GreaterOrEqual(t, v, -1.0)
			require.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestValueNoiseContinuousAtLatticeSeam(t *testing.T) {
	terrain := NewTerrain(555, 16, nil)

	// Adjacent world columns across a lattice boundary must not jump more
	// than the lattice amplitude allows.
	for z := int32(-8); z <= 8; z++ {
		left := terrain.valueNoise(31, z, 32)
		right := terrain.valueNoise(32, z, 32)
		assert.InDelta(t, left, right, 0.25, "seam at z=%d", z)
	}
}
