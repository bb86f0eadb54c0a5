package persist

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// The embedded schema is two tables: blocks (the terrain cache, one row per
// cell and detail level) and world_meta (instance identity, seed, clock).
//
//go:embed migrations/*.sql
var blockSchema embed.FS

// Migrate brings the block-cache schema up to date. Run at boot, before any
// repository touches the pool; worldgen runs it too so the offline pre-fill
// can target an empty database.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(blockSchema)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("migrate block cache schema: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	db.log.Info("方塊快取結構已就緒", zap.Int64("schema_version", version))
	return nil
}
