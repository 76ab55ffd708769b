package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrNoAdminSession = errors.New("no valid admin session")

// AdminSessionTTL is how long an admin stays logged in.
const AdminSessionTTL = 7 * 24 * time.Hour

type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// EnsureAdmin creates the admin account, or resets its password when it
// already exists.
func (s *Store) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash) VALUES (?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET password_hash = excluded.password_hash
	`, newID(), email, string(hash))
	if err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	return nil
}

// Authenticate checks the credentials and returns the admin.
func (s *Store) Authenticate(ctx context.Context, email, password string) (Admin, error) {
	var a Admin
	var hash string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash FROM admins WHERE email = ?
	`, strings.TrimSpace(strings.ToLower(email))).Scan(&a.ID, &a.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNoAdminSession
	}
	if err != nil {
		return a, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return a, ErrNoAdminSession
	}
	return a, nil
}

func (s *Store) CreateAdminSession(ctx context.Context, adminID string, now time.Time) (string, error) {
	id := newToken(32)
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO admin_sessions (id, admin_id, expires_at) VALUES (?, ?, ?)
	`, id, adminID, formatTime(now.Add(AdminSessionTTL)))
	if err != nil {
		return "", fmt.Errorf("creating admin session: %w", err)
	}
	return id, nil
}

func (s *Store) DeleteAdminSession(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, id)
	return err
}

func (s *Store) AdminFromSession(ctx context.Context, id string, now time.Time) (Admin, error) {
	var a Admin
	err := s.q.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ? AND s.expires_at > ?
	`, id, formatTime(now)).Scan(&a.ID, &a.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNoAdminSession
	}
	return a, err
}
