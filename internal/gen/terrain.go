package gen

import (
	"github.com/terrastream/server/internal/data"
	"github.com/terrastream/server/internal/geom"
	"github.com/terrastream/server/internal/scripting"
	"github.com/terrastream/server/internal/world"
)

const (
	baseHeight = 64.0
	waterLevel = 60
	dirtDepth  = 4
)

// Terrain is the built-in deterministic heightmap generator. The same
// seed, position and LOD always produce the same payload, on any worker,
// in any run. An optional Lua engine perturbs the surface height and the
// material choice.
type Terrain struct {
	seed   int64
	edge   int
	engine *scripting.Engine // may be nil
}

func NewTerrain(seed int64, blockEdge int, engine *scripting.Engine) *Terrain {
	return &Terrain{seed: seed, edge: blockEdge, engine: engine}
}

// Generate produces the block at pos/lod. A LOD-n block covers the same
// world extent as LOD 0 with edge>>n samples, each sample a (1<<n)-wide
// voxel; the sample takes the material of its lowest-corner voxel so
// coarser LODs stay consistent with finer ones.
func (t *Terrain) Generate(pos geom.BlockPos, lod world.LODIndex) *world.Block {
	step := int32(1) << lod
	samples := t.edge >> lod
	if samples < 1 {
		samples = 1
		step = int32(t.edge)
	}

	blk := &world.Block{
		Pos:       pos,
		LOD:       lod,
		Edge:      samples,
		Materials: make([]byte, samples*samples*samples),
	}

	e := int32(t.edge)
	origin := geom.BlockPos{X: pos.X * e, Y: pos.Y * e, Z: pos.Z * e}

	for sx := 0; sx < samples; sx++ {
		wx := origin.X + int32(sx)*step
		for sz := 0; sz < samples; sz++ {
			wz := origin.Z + int32(sz)*step
			surface := t.surfaceHeight(wx, wz)
			for sy := 0; sy < samples; sy++ {
				wy := origin.Y + int32(sy)*step
				m := columnMaterial(wy, surface)
				if t.engine != nil && t.engine.HasMaterial() {
					m = t.engine.Material(wx, wy, wz, m)
				}
				blk.Materials[(sx*samples+sy)*samples+sz] = m
			}
		}
	}
	return blk
}

// surfaceHeight is two octaves of bilinear value noise over a 32- and
// 8-voxel lattice.
func (t *Terrain) surfaceHeight(wx, wz int32) int32 {
	h := baseHeight +
		24*t.valueNoise(wx, wz, 32) +
		6*t.valueNoise(wx, wz, 8)
	if t.engine != nil && t.engine.HasHeight() {
		h = t.engine.Height(wx, wz, h)
	}
	return int32(floor(h))
}

func columnMaterial(wy, surface int32) byte {
	switch {
	case wy > surface:
		if wy <= waterLevel {
			return data.MatWater
		}
		return data.MatAir
	case wy == surface:
		if wy < waterLevel {
			return data.MatDirt
		}
		return data.MatGrass
	case wy > surface-dirtDepth:
		return data.MatDirt
	default:
		return data.MatStone
	}
}

// valueNoise interpolates hashed lattice values at the given period.
// Returns a value in [-1, 1].
func (t *Terrain) valueNoise(wx, wz, period int32) float64 {
	x0 := floorDiv32(wx, period)
	z0 := floorDiv32(wz, period)
	fx := float64(wx-x0*period) / float64(period)
	fz := float64(wz-z0*period) / float64(period)

	v00 := t.lattice(x0, z0)
	v10 := t.lattice(x0+1, z0)
	v01 := t.lattice(x0, z0+1)
	v11 := t.lattice(x0+1, z0+1)

	fx = smooth(fx)
	fz = smooth(fz)
	top := v00 + (v10-v00)*fx
	bot := v01 + (v11-v01)*fx
	return top + (bot-top)*fz
}

// lattice hashes one noise lattice point to [-1, 1]. splitmix64 finalizer
// over the seed and coordinates.
func (t *Terrain) lattice(x, z int32) float64 {
	h := uint64(t.seed) ^ uint64(uint32(x))*0x9E3779B97F4A7C15 ^ uint64(uint32(z))*0xC2B2AE3D27D4EB4F
	h ^= h >> 30
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 31
	return float64(h>>11)/float64(1<<53)*2 - 1
}

func smooth(f float64) float64 {
	return f * f * (3 - 2*f)
}

func floorDiv32(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floor(v float64) float64 {
	i := float64(int64(v))
	if v < i {
		return i - 1
	}
	return i
}
