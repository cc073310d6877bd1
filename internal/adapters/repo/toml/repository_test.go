package toml

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryLoadDefaultsWhenMissing(t *testing.T) {
	t.Parallel()

	repo, err := NewRepository(filepath.Join(t.TempDir(), "preferences.toml"))
	require.NoError(t, err)

	prefs, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Preferences{}, prefs)
}

func TestRepositoryRoundTripWritesVersionedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "preferences.toml")
	repo, err := NewRepository(path)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), domain.Preferences{DarkMode: true}))

	prefs, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, prefs.DarkMode)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "dark_mode = true")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(preferencesFileMode), info.Mode().Perm())
}

func TestRepositoryRejectsNewerSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 9\n[ui]\ndark_mode = true\n"), 0o600))

	repo, err := NewRepository(path)
	require.NoError(t, err)

	_, err = repo.Load(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported preferences schema version 9")
}

func TestRepositoryRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = [\n"), 0o600))

	repo, err := NewRepository(path)
	require.NoError(t, err)

	_, err = repo.Load(context.Background())
	assert.ErrorContains(t, err, "decode preferences file")
}

func TestRepositoryConcurrentSavesSharePathLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.toml")
	first, err := NewRepository(path)
	require.NoError(t, err)
	second, err := NewRepository(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		repo := first
		if i%2 == 1 {
			repo = second
		}
		wg.Add(1)
		go func(dark bool) {
			defer wg.Done()
			assert.NoError(t, repo.Save(context.Background(), domain.Preferences{DarkMode: dark}))
		}(i%2 == 0)
	}
	wg.Wait()

	_, err = first.Load(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewRepositoryRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewRepository("")
	require.Error(t, err)
}
