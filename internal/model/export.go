package model

import "time"

// ResultsExport is the top-level JSON structure for the export subcommand.
type ResultsExport struct {
	ExportedAt time.Time    `json:"exported_at"`
	UserCount  int          `json:"user_count"`
	Users      []UserExport `json:"users"`
}

// UserExport holds one user's profile and full result history for export.
type UserExport struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Role      UserRole     `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
	Results   []ExamResult `json:"results"`
}
