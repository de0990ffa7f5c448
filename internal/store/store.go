// Package store persists user profiles, per-user exam result histories and
// app metadata in a local SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tfarias/oabsim/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));

	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		date DATETIME NOT NULL,
		subject TEXT NOT NULL,
		score INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		time_spent_seconds INTEGER NOT NULL,
		tab_exit_count INTEGER NOT NULL DEFAULT 0,
		details TEXT NOT NULL,
		ai_diagnostic TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_results_user ON results (user_id, position);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordResult appends a result at the head of the user's history. The
// prepend happens here and only here: position 0 is always the most recent
// result, and every consumer relies on that ordering. The shift and the
// insert run in one transaction so the per-user list stays consistent.
func (s *Store) RecordResult(userID string, r model.ExamResult) error {
	details, err := json.Marshal(r.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE results SET position = position + 1 WHERE user_id = ?`, userID); err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO results (id, user_id, position, date, subject, score, total_questions, time_spent_seconds, tab_exit_count, details, ai_diagnostic)
		 VALUES (?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, userID, r.Date, r.Subject, r.Score, r.TotalQuestions, r.TimeSpentSeconds, r.TabExitCount, string(details), r.AIDiagnostic,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ResultsForUser returns the user's history, most recent first. Rows whose
// detail snapshot fails to parse are dropped with a warning rather than
// failing the whole read.
func (s *Store) ResultsForUser(userID string) ([]model.ExamResult, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, date, subject, score, total_questions, time_spent_seconds, tab_exit_count, details, ai_diagnostic
		 FROM results WHERE user_id = ? ORDER BY position`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

// GetResult returns one result by id, or nil when not found.
func (s *Store) GetResult(id string) (*model.ExamResult, error) {
	var r model.ExamResult
	var details string
	err := s.db.QueryRow(
		`SELECT id, user_id, date, subject, score, total_questions, time_spent_seconds, tab_exit_count, details, ai_diagnostic
		 FROM results WHERE id = ?`, id,
	).Scan(&r.ID, &r.UserID, &r.Date, &r.Subject, &r.Score, &r.TotalQuestions, &r.TimeSpentSeconds, &r.TabExitCount, &details, &r.AIDiagnostic)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(details), &r.Details); err != nil {
		// Same degrade as the list readers: a corrupt snapshot means the
		// result is gone, not half-present.
		slog.Warn("corrupt result details, dropping row", "result_id", r.ID, "error", err)
		return nil, nil
	}
	return &r, nil
}

// LoadAll rehydrates every user's history, keyed by user id, most recent
// first within each list. This backs the mentor's cross-student views; the
// per-user lists remain the source of truth.
func (s *Store) LoadAll() (map[string][]model.ExamResult, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, date, subject, score, total_questions, time_spent_seconds, tab_exit_count, details, ai_diagnostic
		 FROM results ORDER BY user_id, position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	all := make(map[string][]model.ExamResult)
	for _, r := range results {
		all[r.UserID] = append(all[r.UserID], r)
	}
	return all, nil
}

func scanResults(rows *sql.Rows) ([]model.ExamResult, error) {
	var results []model.ExamResult
	for rows.Next() {
		var r model.ExamResult
		var details string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Date, &r.Subject, &r.Score, &r.TotalQuestions, &r.TimeSpentSeconds, &r.TabExitCount, &details, &r.AIDiagnostic); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &r.Details); err != nil {
			slog.Warn("corrupt result details, dropping row", "result_id", r.ID, "error", err)
			continue
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ResultCount returns the number of stored results across all users.
func (s *Store) ResultCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}
