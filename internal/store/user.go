package store

import (
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/tfarias/oabsim/internal/model"
)

// CreateUser inserts a new user. Emails are stored lowercased and are
// case-insensitively unique; a duplicate registration fails here.
func (s *Store) CreateUser(u model.UserProfile) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, email, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Role, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create user", "email", u.Email, "error", err)
		return err
	}
	slog.Info("created user", "id", u.ID, "email", u.Email, "role", u.Role)
	return nil
}

// GetUserByEmail returns a user by email (case-insensitive), or nil.
func (s *Store) GetUserByEmail(email string) (*model.UserProfile, error) {
	var u model.UserProfile
	err := s.db.QueryRow(
		`SELECT id, name, email, password_hash, role, created_at
		 FROM users WHERE lower(email) = lower(?)`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns a user by ID, or nil.
func (s *Store) GetUserByID(id string) (*model.UserProfile, error) {
	var u model.UserProfile
	err := s.db.QueryRow(
		`SELECT id, name, email, password_hash, role, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users, oldest first.
func (s *Store) ListUsers() ([]model.UserProfile, error) {
	rows, err := s.db.Query(
		`SELECT id, name, email, password_hash, role, created_at
		 FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.UserProfile
	for rows.Next() {
		var u model.UserProfile
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListStudents returns all users with the student role.
func (s *Store) ListStudents() ([]model.UserProfile, error) {
	rows, err := s.db.Query(
		`SELECT id, name, email, password_hash, role, created_at
		 FROM users WHERE role = ? ORDER BY created_at, id`, model.UserRoleStudent,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.UserProfile
	for rows.Next() {
		var u model.UserProfile
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
