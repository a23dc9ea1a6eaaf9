package chat

import (
	"context"
	"database/sql"

	"github.com/HerbHall/moodwatch/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create chat messages",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS chat_messages (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL,
						room_id TEXT NOT NULL DEFAULT 'bot-chat',
						message TEXT NOT NULL,
						is_bot INTEGER NOT NULL DEFAULT 0,
						bot_response TEXT,
						created_at INTEGER NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_chat_messages_user_room
						ON chat_messages(user_id, room_id, created_at)`,
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

// Migrate applies the chat schema.
func Migrate(ctx context.Context, s plugin.Store) error {
	return s.Migrate(ctx, "chat", migrations())
}
