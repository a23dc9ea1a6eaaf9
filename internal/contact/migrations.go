package contact

import (
	"context"
	"database/sql"

	"github.com/HerbHall/moodwatch/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create users and emergency contacts",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS users (
						id TEXT PRIMARY KEY,
						first_name TEXT NOT NULL DEFAULT '',
						last_name TEXT NOT NULL DEFAULT '',
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE TABLE IF NOT EXISTS emergency_contacts (
						user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
						name TEXT NOT NULL DEFAULT '',
						phone TEXT NOT NULL DEFAULT '',
						relationship TEXT NOT NULL DEFAULT '',
						is_active INTEGER NOT NULL DEFAULT 1,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_emergency_contacts_active ON emergency_contacts(is_active)`,
				}
				for _, s := range stmts {
					if _, err := tx.Exec(s); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

// Migrate applies the contact schema.
func Migrate(ctx context.Context, s plugin.Store) error {
	return s.Migrate(ctx, "contact", migrations())
}
