package system

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	coresys "github.com/terrastream/server/internal/core/system"
	"github.com/terrastream/server/internal/persist"
	"github.com/terrastream/server/internal/world"
)

// PersistenceSystem periodically saves the world clock (sun phase, uptime)
// so a restart resumes the day/night cycle where it left off. Phase 5
// (Persist). The write runs in a goroutine: the game loop never blocks on
// the database.
type PersistenceSystem struct {
	metaRepo   *persist.MetaRepo
	sun        *world.Sun
	instanceID uuid.UUID
	startedAt  time.Time
	log        *zap.Logger

	tickCount int
	interval  int // save every N ticks

	saving chan struct{} // 1-slot token so saves never overlap
}

func NewPersistenceSystem(metaRepo *persist.MetaRepo, sun *world.Sun, instanceID uuid.UUID, intervalTicks int, log *zap.Logger) *PersistenceSystem {
	s := &PersistenceSystem{
		metaRepo:   metaRepo,
		sun:        sun,
		instanceID: instanceID,
		startedAt:  time.Now(),
		log:        log,
		interval:   intervalTicks,
		saving:     make(chan struct{}, 1),
	}
	s.saving <- struct{}{}
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	select {
	case <-s.saving:
	default:
		return // previous save still running
	}

	phase := float64(s.sun.Phase())
	uptime := int64(time.Since(s.startedAt).Seconds())

	go func() {
		defer func() { s.saving <- struct{}{} }()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.metaRepo.SaveClock(ctx, s.instanceID, phase, uptime); err != nil {
			s.log.Error("世界時鐘存檔失敗", zap.Error(err))
		}
	}()
}

// SaveNow persists the clock synchronously. Called at graceful shutdown.
func (s *PersistenceSystem) SaveNow(ctx context.Context) error {
	return s.metaRepo.SaveClock(ctx, s.instanceID,
		float64(s.sun.Phase()), int64(time.Since(s.startedAt).Seconds()))
}
