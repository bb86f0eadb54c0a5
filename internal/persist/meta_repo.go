package persist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WorldMetaRow is the persisted identity and clock of one world instance.
type WorldMetaRow struct {
	InstanceID uuid.UUID
	Seed       int64
	SunPhase   float64
	UptimeSec  int64
}

type MetaRepo struct {
	db *DB
}

func NewMetaRepo(db *DB) *MetaRepo {
	return &MetaRepo{db: db}
}

// EnsureInstance loads the world instance row, creating it with a fresh
// UUID and the configured seed on first boot. The cached block table is
// only valid for the instance/seed pair it was generated under.
func (r *MetaRepo) EnsureInstance(ctx context.Context, seed int64) (*WorldMetaRow, error) {
	row := &WorldMetaRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT instance_id, seed, sun_phase, uptime_sec FROM world_meta LIMIT 1`,
	).Scan(&row.InstanceID, &row.Seed, &row.SunPhase, &row.UptimeSec)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	row.InstanceID = uuid.New()
	row.Seed = seed
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO world_meta (instance_id, seed) VALUES ($1, $2)`,
		row.InstanceID, row.Seed,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// SaveClock persists the sun phase and uptime for the instance.
func (r *MetaRepo) SaveClock(ctx context.Context, instanceID uuid.UUID, sunPhase float64, uptimeSec int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE world_meta SET sun_phase = $2, uptime_sec = $3, updated_at = NOW()
		 WHERE instance_id = $1`,
		instanceID, sunPhase, uptimeSec,
	)
	return err
}
