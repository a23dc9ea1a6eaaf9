package mood

import (
	"context"
	"database/sql"

	"github.com/HerbHall/moodwatch/pkg/plugin"
)

// Timestamps are stored as unix milliseconds (UTC) so range predicates
// compare numerically regardless of the writer's zone.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create mood samples table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS mood_samples (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL,
						score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 10),
						mood TEXT NOT NULL,
						notes TEXT NOT NULL DEFAULT '',
						is_emergency INTEGER NOT NULL DEFAULT 0,
						emergency_triggered INTEGER NOT NULL DEFAULT 0
							CHECK (emergency_triggered = 0 OR is_emergency = 1),
						emergency_detail TEXT,
						analysis TEXT,
						recorded_at INTEGER NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_mood_samples_user_time ON mood_samples(user_id, recorded_at)`,
				}
				for _, s := range stmts {
					if _, err := tx.Exec(s); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version:     2,
			Description: "index triggered emergencies for the daily dedup lookup",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_mood_samples_triggered
					ON mood_samples(user_id, recorded_at) WHERE is_emergency = 1 AND emergency_triggered = 1`)
				return err
			},
		},
		{
			Version:     3,
			Description: "mark samples written by the alerting engine",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`ALTER TABLE mood_samples ADD COLUMN origin TEXT NOT NULL DEFAULT 'user'`)
				return err
			},
		},
	}
}

// Migrate applies the mood schema.
func Migrate(ctx context.Context, s plugin.Store) error {
	return s.Migrate(ctx, "mood", migrations())
}
