// Package contact is the read side of user profiles the emergency engine
// needs: names and the single emergency contact per user.
package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/HerbHall/moodwatch/pkg/models"
)

// Store provides database access for users and their emergency contacts.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListMonitoredUsers returns users whose emergency contact is active and
// has a phone number, ordered by id.
func (s *Store) ListMonitoredUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.first_name, u.last_name, c.name, c.phone, c.relationship, c.is_active
		FROM users u
		JOIN emergency_contacts c ON c.user_id = u.id
		WHERE c.is_active = 1 AND c.phone != ''
		ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list monitored users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var c models.EmergencyContact
		var active int
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &c.Name, &c.Phone, &c.Relationship, &active); err != nil {
			return nil, fmt.Errorf("scan monitored user: %w", err)
		}
		c.IsActive = active != 0
		u.Contact = &c
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser returns a user with their contact, if any. Returns nil, nil if
// the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var (
		u                         models.User
		name, phone, relationship sql.NullString
		active                    sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.first_name, u.last_name, c.name, c.phone, c.relationship, c.is_active
		FROM users u
		LEFT JOIN emergency_contacts c ON c.user_id = u.id
		WHERE u.id = ?`, id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &name, &phone, &relationship, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if active.Valid {
		u.Contact = &models.EmergencyContact{
			Name:         name.String,
			Phone:        phone.String,
			Relationship: relationship.String,
			IsActive:     active.Int64 != 0,
		}
	}
	return &u, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertUser creates or renames a user.
func (s *Store) UpsertUser(ctx context.Context, u models.User) error {
	return upsertUser(ctx, s.db, u)
}

// SetContact replaces the user's emergency contact. A nil contact removes it.
func (s *Store) SetContact(ctx context.Context, userID string, c *models.EmergencyContact) error {
	return setContact(ctx, s.db, userID, c)
}

// SaveUser upserts the user and replaces their contact in one transaction.
func (s *Store) SaveUser(ctx context.Context, u models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertUser(ctx, tx, u); err != nil {
		return err
	}
	if err := setContact(ctx, tx, u.ID, u.Contact); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertUser(ctx context.Context, db execer, u models.User) error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name`,
		u.ID, strings.TrimSpace(u.FirstName), strings.TrimSpace(u.LastName),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func setContact(ctx context.Context, db execer, userID string, c *models.EmergencyContact) error {
	if c == nil {
		if _, err := db.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("delete contact: %w", err)
		}
		return nil
	}
	active := 0
	if c.IsActive {
		active = 1
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO emergency_contacts (user_id, name, phone, relationship, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name, phone = excluded.phone, relationship = excluded.relationship,
			is_active = excluded.is_active, updated_at = CURRENT_TIMESTAMP`,
		userID, strings.TrimSpace(c.Name), strings.TrimSpace(c.Phone), strings.TrimSpace(c.Relationship), active,
	)
	if err != nil {
		return fmt.Errorf("set contact: %w", err)
	}
	return nil
}
