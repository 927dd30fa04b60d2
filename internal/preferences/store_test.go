package preferences

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mistportal/internal/types"
)

func TestStore_MissingFileIsLight(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "prefs.json"))

	on, err := s.DarkMode()
	require.NoError(t, err)
	assert.False(t, on)
}

func TestStore_SetAndToggle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistportal", "prefs.json")
	s := NewStore(path)

	require.NoError(t, s.SetDarkMode(true))
	on, err := s.DarkMode()
	require.NoError(t, err)
	assert.True(t, on)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"darkMode":true}`, string(data))

	on, err = s.Toggle()
	require.NoError(t, err)
	assert.False(t, on)

	// A second store over the same file sees the persisted value.
	on, err = NewStore(path).DarkMode()
	require.NoError(t, err)
	assert.False(t, on)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{dark"), 0o644))

	_, err := NewStore(path).DarkMode()
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalPreferences, appErr.Code)
}

func TestThemeFor(t *testing.T) {
	assert.Equal(t, "dark", ThemeFor(true).Name)
	assert.Equal(t, "light", ThemeFor(false).Name)
	assert.NotEqual(t, ThemeFor(true).Title, ThemeFor(false).Title)
	assert.Empty(t, Plain(true).Title)
	assert.Equal(t, "dark", Plain(true).Name)
}
