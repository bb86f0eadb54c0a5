package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"github.com/terrastream/server/internal/geom"
	"github.com/terrastream/server/internal/world"
)

var (
	blockEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	blockDecoder, _ = zstd.NewReader(nil)
)

// BlockRepo is the generated-terrain cache. Generation workers check it
// before running the generator and save what they produce, so a block is
// only ever computed once per world instance.
type BlockRepo struct {
	db *DB
}

func NewBlockRepo(db *DB) *BlockRepo {
	return &BlockRepo{db: db}
}

// Load returns the cached block, or nil when it was never generated.
func (r *BlockRepo) Load(ctx context.Context, pos geom.BlockPos, lod world.LODIndex) (*world.Block, error) {
	var edge int16
	var payload []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT edge, payload FROM blocks WHERE x = $1 AND y = $2 AND z = $3 AND lod = $4`,
		pos.X, pos.Y, pos.Z, int16(lod),
	).Scan(&edge, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	materials, err := blockDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress block %s lod %d: %w", pos, lod, err)
	}
	want := int(edge) * int(edge) * int(edge)
	if len(materials) != want {
		return nil, fmt.Errorf("block %s lod %d: %d material bytes, want %d", pos, lod, len(materials), want)
	}

	return &world.Block{
		Pos:       pos,
		LOD:       lod,
		Edge:      int(edge),
		Materials: materials,
	}, nil
}

// Save stores one generated block. Concurrent workers may race on the same
// key after a cache miss; last write wins and the payloads are identical.
func (r *BlockRepo) Save(ctx context.Context, blk *world.Block) error {
	payload := blockEncoder.EncodeAll(blk.Materials, nil)
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO blocks (x, y, z, lod, edge, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (x, y, z, lod) DO UPDATE SET payload = EXCLUDED.payload`,
		blk.Pos.X, blk.Pos.Y, blk.Pos.Z, int16(blk.LOD), int16(blk.Edge), payload,
	)
	return err
}

// SaveBatch stores a batch of blocks in one transaction. Used by the
// offline pre-fill tool.
func (r *BlockRepo) SaveBatch(ctx context.Context, blocks []*world.Block) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("block batch begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, blk := range blocks {
		payload := blockEncoder.EncodeAll(blk.Materials, nil)
		if _, err := tx.Exec(ctx,
			`INSERT INTO blocks (x, y, z, lod, edge, payload)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (x, y, z, lod) DO NOTHING`,
			blk.Pos.X, blk.Pos.Y, blk.Pos.Z, int16(blk.LOD), int16(blk.Edge), payload,
		); err != nil {
			return fmt.Errorf("block batch insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Count returns the number of cached blocks.
func (r *BlockRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&n)
	return n, err
}
