package world

import "github.com/terrastream/server/internal/geom"

// MaxLOD is the coarsest level of detail the server will generate or serve.
const MaxLOD LODIndex = 3

// OwnerStore holds the terrain blocks committed for one owner, the store
// physics reads from. Written only by Local completions and evictions.
// Game loop goroutine only.
type OwnerStore struct {
	blocks map[BlockKey]*Block
	edge   int
}

func NewOwnerStore(blockEdge int) *OwnerStore {
	return &OwnerStore{
		blocks: make(map[BlockKey]*Block),
		edge:   blockEdge,
	}
}

func (os *OwnerStore) Commit(blk *Block) {
	os.blocks[blk.Key()] = blk
}

func (os *OwnerStore) Evict(key BlockKey) {
	delete(os.blocks, key)
}

func (os *OwnerStore) Count() int {
	return len(os.blocks)
}

func (os *OwnerStore) Get(key BlockKey) *Block {
	return os.blocks[key]
}

// MaterialAt samples the material at a world voxel coordinate from the
// finest resident LOD of the containing cell. The second return is false
// when no LOD of that cell is resident.
func (os *OwnerStore) MaterialAt(wx, wy, wz int32) (byte, bool) {
	e := int32(os.edge)
	cell := geom.BlockPos{
		X: floorDiv(wx, e),
		Y: floorDiv(wy, e),
		Z: floorDiv(wz, e),
	}
	lx := int(wx - cell.X*e)
	ly := int(wy - cell.Y*e)
	lz := int(wz - cell.Z*e)

	for lod := LODIndex(0); lod <= MaxLOD; lod++ {
		blk := os.blocks[BlockKey{Pos: cell, LOD: lod}]
		if blk == nil {
			continue
		}
		shift := uint(lod)
		return blk.MaterialAt(lx>>shift, ly>>shift, lz>>shift), true
	}
	return 0, false
}
