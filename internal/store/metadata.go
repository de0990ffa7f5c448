package store

import (
	"database/sql"

	"github.com/tfarias/oabsim/internal/model"
)

const themeKey = "theme"

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetTheme persists the UI theme preference.
func (s *Store) SetTheme(t model.Theme) error {
	return s.SetMetadata(themeKey, string(t))
}

// GetTheme returns the persisted theme, defaulting to light.
func (s *Store) GetTheme() (model.Theme, error) {
	v, err := s.GetMetadata(themeKey)
	if err != nil {
		return model.ThemeLight, err
	}
	if v == string(model.ThemeDark) {
		return model.ThemeDark, nil
	}
	return model.ThemeLight, nil
}
