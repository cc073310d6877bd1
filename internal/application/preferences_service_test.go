package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	portmocks "github.com/bnema/atlas-crm-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesServiceToggleDarkMode(t *testing.T) {
	t.Parallel()

	repo := portmocks.NewMockPreferencesRepository(t)
	repo.EXPECT().Load(mockAnyContext()).Return(domain.Preferences{DarkMode: false}, nil).Twice()
	repo.EXPECT().Save(mockAnyContext(), domain.Preferences{DarkMode: true}).Return(nil).Once()

	enabled, err := NewPreferencesService(repo).ToggleDarkMode(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestPreferencesServiceDarkModeLoadError(t *testing.T) {
	t.Parallel()

	repo := portmocks.NewMockPreferencesRepository(t)
	repo.EXPECT().Load(mockAnyContext()).Return(domain.Preferences{}, errors.New("disk gone")).Once()

	_, err := NewPreferencesService(repo).DarkMode(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "load preferences: disk gone")
}

func TestPreferencesServiceSetDarkModeSaveError(t *testing.T) {
	t.Parallel()

	repo := portmocks.NewMockPreferencesRepository(t)
	repo.EXPECT().Load(mockAnyContext()).Return(domain.Preferences{}, nil).Once()
	repo.EXPECT().Save(mockAnyContext(), domain.Preferences{DarkMode: true}).Return(errors.New("read-only")).Once()

	err := NewPreferencesService(repo).SetDarkMode(context.Background(), true)
	assert.ErrorContains(t, err, "save preferences: read-only")
}
