package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/terrastream/server/internal/core/system"
	"github.com/terrastream/server/internal/gen"
	"github.com/terrastream/server/internal/world"
)

// CompletionSystem drains finished generation work into the loader. Phase 1
// (Completions): completions land before update logic runs, so physics in
// the same tick already sees terrain that finished generating.
type CompletionSystem struct {
	svc    *gen.Service
	loader *world.Loader
	// maxPerTick bounds fan-out work per tick so a burst of completions
	// cannot stall the loop.
	maxPerTick int
	log        *zap.Logger
}

func NewCompletionSystem(svc *gen.Service, loader *world.Loader, maxPerTick int, log *zap.Logger) *CompletionSystem {
	if maxPerTick < 1 {
		maxPerTick = 256
	}
	return &CompletionSystem{svc: svc, loader: loader, maxPerTick: maxPerTick, log: log}
}

func (s *CompletionSystem) Phase() coresys.Phase { return coresys.PhaseCompletions }

func (s *CompletionSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case c := <-s.svc.Completions():
			s.loader.Loaded(c.Pos, c.LOD, c.Block)
		default:
			return
		}
	}
}
