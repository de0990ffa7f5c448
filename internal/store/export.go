package store

import (
	"fmt"
	"time"

	"github.com/tfarias/oabsim/internal/model"
)

// ExportAll builds an export of every user's profile and result history.
func (s *Store) ExportAll() (model.ResultsExport, error) {
	users, err := s.ListUsers()
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list users: %w", err)
	}
	all, err := s.LoadAll()
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("load results: %w", err)
	}

	export := model.ResultsExport{
		ExportedAt: time.Now(),
		UserCount:  len(users),
	}
	for _, u := range users {
		export.Users = append(export.Users, model.UserExport{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			Results:   all[u.ID],
		})
	}
	return export, nil
}
