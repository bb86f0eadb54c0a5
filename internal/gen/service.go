package gen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/terrastream/server/internal/config"
	"github.com/terrastream/server/internal/geom"
	"github.com/terrastream/server/internal/persist"
	"github.com/terrastream/server/internal/scripting"
	"github.com/terrastream/server/internal/world"
)

// Request is one unit of generation work.
type Request struct {
	Pos geom.BlockPos
	LOD world.LODIndex
}

// Completion carries one generated block back to the game loop. Exactly
// one Completion is produced per dispatched Request.
type Completion struct {
	Pos   geom.BlockPos
	LOD   world.LODIndex
	Block *world.Block
}

// Service is the asynchronous terrain generation pool. Requests arrive via
// Dispatch, workers check the database cache, run the generator on a miss,
// and push the result onto the completion channel for the game loop to
// drain once per tick.
type Service struct {
	cfg  config.GeneratorConfig
	log  *zap.Logger
	repo *persist.BlockRepo // nil runs uncached

	reqCh  chan Request
	compCh chan Completion

	terrains []*Terrain
	engines  []*scripting.Engine

	wg     sync.WaitGroup
	cancel context.CancelFunc
	done   chan struct{} // closed by Stop; unblocks slow-path enqueues
}

// New builds the service. Each worker gets its own Lua engine: gopher-lua
// states cannot be shared across goroutines.
func New(cfg config.GeneratorConfig, blockEdge int, repo *persist.BlockRepo, log *zap.Logger) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		log:    log,
		repo:   repo,
		reqCh:  make(chan Request, cfg.QueueSize),
		compCh: make(chan Completion, cfg.QueueSize),
		done:   make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		eng, err := scripting.NewEngine(cfg.ScriptsDir, cfg.Seed, log)
		if err != nil {
			for _, e := range s.engines {
				e.Close()
			}
			return nil, fmt.Errorf("worker %d lua engine: %w", i, err)
		}
		s.engines = append(s.engines, eng)
		s.terrains = append(s.terrains, NewTerrain(cfg.Seed, blockEdge, eng))
	}

	return s, nil
}

// Start launches the worker pool.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for i := range s.terrains {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.log.Info("生成工作池已啟動",
		zap.Int("workers", len(s.terrains)),
		zap.Int64("seed", s.cfg.Seed),
	)
}

// Stop drains the pool. Safe to call once after Start.
func (s *Service) Stop() {
	close(s.done)
	s.cancel()
	s.wg.Wait()
	for _, e := range s.engines {
		e.Close()
	}
}

// Dispatch hands one request to the pool without ever blocking the caller.
// Queue overflow falls back to a goroutine send so the request is delayed,
// not lost: the loader counts on exactly one completion per dispatch.
func (s *Service) Dispatch(pos geom.BlockPos, lod world.LODIndex) {
	req := Request{Pos: pos, LOD: lod}
	select {
	case s.reqCh <- req:
	default:
		s.log.Warn("生成佇列已滿，改用慢速路徑",
			zap.String("pos", pos.String()),
			zap.Uint8("lod", uint8(lod)),
		)
		go s.slowEnqueue(req)
	}
}

// slowEnqueue blocks until a worker drains queue space, or gives up when
// the pool stops. Reports whether the request was enqueued.
func (s *Service) slowEnqueue(req Request) bool {
	select {
	case s.reqCh <- req:
		return true
	case <-s.done:
		return false
	}
}

// Completions is drained by the game loop once per tick.
func (s *Service) Completions() <-chan Completion {
	return s.compCh
}

func (s *Service) worker(ctx context.Context, idx int) {
	defer s.wg.Done()
	terrain := s.terrains[idx]

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.reqCh:
			blk := s.produce(ctx, terrain, req)
			if blk == nil {
				return // shutdown mid-request
			}
			select {
			case s.compCh <- Completion{Pos: req.Pos, LOD: req.LOD, Block: blk}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// produce resolves one request: cache hit, or generate then cache. Cache
// errors degrade to uncached generation after the retries are exhausted —
// terrain must keep streaming through a database outage.
func (s *Service) produce(ctx context.Context, terrain *Terrain, req Request) *world.Block {
	if s.repo != nil {
		var cached *world.Block
		err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
			var err error
			cached, err = s.repo.Load(ctx, req.Pos, req.LOD)
			if err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil && ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.log.Warn("方塊快取讀取失敗，改為即時生成",
				zap.String("pos", req.Pos.String()),
				zap.Error(err),
			)
		}
		if cached != nil {
			return cached
		}
	}

	blk := terrain.Generate(req.Pos, req.LOD)

	if s.repo != nil {
		err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
			if err := s.repo.Save(ctx, blk); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil && ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.log.Warn("方塊快取寫入失敗",
				zap.String("pos", req.Pos.String()),
				zap.Error(err),
			)
		}
	}

	return blk
}

func (s *Service) backoff() retry.Backoff {
	base := s.cfg.RetryBase
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	attempts := uint64(s.cfg.MaxAttempts)
	if attempts == 0 {
		attempts = 3
	}
	return retry.WithMaxRetries(attempts, retry.NewExponential(base))
}
