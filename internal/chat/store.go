// Package chat stores chatbot conversations and relays each user turn to
// the AI service.
package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/moodwatch/pkg/models"
)

// DefaultRoom is the one-to-one chatbot conversation.
const DefaultRoom = "bot-chat"

// BotResponse is the AI metadata attached to a bot message.
type BotResponse struct {
	MoodAnalysis       *models.MoodReading `json:"mood_analysis,omitempty"`
	Suggestions        []string            `json:"suggestions,omitempty"`
	EmergencyTriggered bool                `json:"emergency_triggered"`
}

// Message is one chat line from the user or the bot.
type Message struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	RoomID      string       `json:"room_id"`
	Message     string       `json:"message"`
	IsBot       bool         `json:"is_bot"`
	BotResponse *BotResponse `json:"bot_response,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Store persists chat messages in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Insert appends a message, filling in ID, room and timestamp.
func (s *Store) Insert(ctx context.Context, m *Message) error {
	if m.UserID == "" {
		return errors.New("insert chat message: user_id is required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.RoomID == "" {
		m.RoomID = DefaultRoom
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}

	var meta sql.NullString
	if m.BotResponse != nil {
		b, err := json.Marshal(m.BotResponse)
		if err != nil {
			return fmt.Errorf("encode bot response: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	isBot := 0
	if m.IsBot {
		isBot = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, user_id, room_id, message, is_bot, bot_response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.RoomID, m.Message, isBot, meta, m.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// RecentUserMessages returns the user's own last limit messages before
// before, oldest first.
func (s *Store) RecentUserMessages(ctx context.Context, userID string, before time.Time, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, room_id, message, is_bot, bot_response, created_at
		FROM chat_messages
		WHERE user_id = ? AND is_bot = 0 AND created_at < ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		userID, before.UnixMilli(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent user messages: %w", err)
	}
	msgs, err := collect(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// List returns a page of the user's messages in room, newest first.
func (s *Store) List(ctx context.Context, userID, roomID string, limit, offset int) ([]Message, error) {
	if roomID == "" {
		roomID = DefaultRoom
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, room_id, message, is_bot, bot_response, created_at
		FROM chat_messages
		WHERE user_id = ? AND room_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`,
		userID, roomID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var (
			m     Message
			isBot int
			meta  sql.NullString
			ts    int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.RoomID, &m.Message, &isBot, &meta, &ts); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.IsBot = isBot == 1
		m.CreatedAt = time.UnixMilli(ts).UTC()
		if meta.Valid && meta.String != "" {
			var br BotResponse
			if err := json.Unmarshal([]byte(meta.String), &br); err != nil {
				return nil, fmt.Errorf("decode bot response: %w", err)
			}
			m.BotResponse = &br
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
