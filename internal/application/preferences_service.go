package application

import (
	"context"
	"fmt"

	"github.com/bnema/atlas-crm-cli/internal/ports"
)

type PreferencesService struct {
	repo ports.PreferencesRepository
}

func NewPreferencesService(repo ports.PreferencesRepository) *PreferencesService {
	return &PreferencesService{repo: repo}
}

func (s *PreferencesService) DarkMode(ctx context.Context) (bool, error) {
	prefs, err := s.repo.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load preferences: %w", err)
	}
	return prefs.DarkMode, nil
}

func (s *PreferencesService) SetDarkMode(ctx context.Context, enabled bool) error {
	prefs, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	prefs.DarkMode = enabled
	if err := s.repo.Save(ctx, prefs); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// ToggleDarkMode flips the stored flag and returns the new value.
func (s *PreferencesService) ToggleDarkMode(ctx context.Context) (bool, error) {
	current, err := s.DarkMode(ctx)
	if err != nil {
		return false, err
	}
	if err := s.SetDarkMode(ctx, !current); err != nil {
		return false, err
	}
	return !current, nil
}
