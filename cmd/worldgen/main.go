// Command worldgen pre-fills the block cache offline so a fresh server
// boots with warm terrain instead of generating everything on first
// contact. It generates every block in a cube around a center cell, at
// one or more detail levels, and batch-inserts them. Existing cache rows
// are left untouched.
//
// Usage:
//
//	worldgen -config config/server.toml -center 0,4,0 -radius 8 -lods 0,1,2,3
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/terrastream/server/internal/config"
	"github.com/terrastream/server/internal/gen"
	"github.com/terrastream/server/internal/geom"
	"github.com/terrastream/server/internal/persist"
	"github.com/terrastream/server/internal/scripting"
	"github.com/terrastream/server/internal/world"
)

const batchSize = 256

func main() {
	cfgPath := flag.String("config", "config/server.toml", "server config path")
	centerArg := flag.String("center", "0,4,0", "center cell as x,y,z")
	radius := flag.Int("radius", 8, "Chebyshev radius in blocks")
	lodsArg := flag.String("lods", "0,1,2,3", "detail levels to generate")
	flag.Parse()

	if err := run(*cfgPath, *centerArg, *radius, *lodsArg); err != nil {
		fmt.Fprintf(os.Stderr, "worldgen: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, centerArg string, radius int, lodsArg string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	center, err := parseCenter(centerArg)
	if err != nil {
		return err
	}
	lods, err := parseLODs(lodsArg)
	if err != nil {
		return err
	}
	if radius < 0 {
		return fmt.Errorf("radius must be >= 0, got %d", radius)
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	repo := persist.NewBlockRepo(db)

	engine, err := scripting.NewEngine(cfg.Generator.ScriptsDir, cfg.Generator.Seed, log)
	if err != nil {
		return err
	}
	defer engine.Close()
	terrain := gen.NewTerrain(cfg.Generator.Seed, cfg.World.BlockEdge, engine)

	edge := 2*radius + 1
	total := edge * edge * edge * len(lods)
	log.Info("開始預先生成地形",
		zap.Int64("seed", cfg.Generator.Seed),
		zap.Int("radius", radius),
		zap.Int("total_blocks", total),
	)

	start := time.Now()
	written := 0
	batch := make([]*world.Block, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := repo.SaveBatch(ctx, batch); err != nil {
			return fmt.Errorf("save batch: %w", err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	r := int32(radius)
	for _, lod := range lods {
		for x := center.X - r; x <= center.X+r; x++ {
			for y := center.Y - r; y <= center.Y+r; y++ {
				for z := center.Z - r; z <= center.Z+r; z++ {
					batch = append(batch, terrain.Generate(geom.BlockPos{X: x, Y: y, Z: z}, lod))
					if len(batch) >= batchSize {
						if err := flush(); err != nil {
							return err
						}
					}
				}
			}
		}
		log.Info("細節層級完成", zap.Uint8("lod", uint8(lod)))
	}
	if err := flush(); err != nil {
		return err
	}

	log.Info("預先生成完成",
		zap.Int("blocks", written),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
	)
	return nil
}

func parseCenter(s string) (geom.BlockPos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geom.BlockPos{}, fmt.Errorf("center must be x,y,z, got %q", s)
	}
	var c [3]int32
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return geom.BlockPos{}, fmt.Errorf("center component %q: %w", p, err)
		}
		c[i] = int32(v)
	}
	return geom.BlockPos{X: c[0], Y: c[1], Z: c[2]}, nil
}

func parseLODs(s string) ([]world.LODIndex, error) {
	var out []world.LODIndex
	seen := make(map[world.LODIndex]bool)
	for _, p := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("lod %q: %w", p, err)
		}
		lod := world.LODIndex(v)
		if lod > world.MaxLOD {
			return nil, fmt.Errorf("lod %d exceeds max %d", lod, world.MaxLOD)
		}
		if seen[lod] {
			continue
		}
		seen[lod] = true
		out = append(out, lod)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no detail levels given")
	}
	return out, nil
}
