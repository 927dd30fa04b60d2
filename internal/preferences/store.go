// Package preferences persists the local display preferences. Today that is
// one flag, the dark-mode theme, kept in a small JSON file.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"mistportal/internal/types"
)

// Prefs is the on-disk document.
type Prefs struct {
	DarkMode bool `json:"darkMode"`
}

// Store reads and writes Prefs at a fixed path.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a Store for path. The file is created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

// DarkMode reports the stored flag. A missing file means false.
func (s *Store) DarkMode() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.load()
	if err != nil {
		return false, err
	}
	return p.DarkMode, nil
}

// SetDarkMode stores the flag.
func (s *Store) SetDarkMode(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.load()
	if err != nil {
		return err
	}
	p.DarkMode = on
	return s.save(p)
}

// Toggle flips the flag and returns the new value.
func (s *Store) Toggle() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.load()
	if err != nil {
		return false, err
	}
	p.DarkMode = !p.DarkMode
	if err := s.save(p); err != nil {
		return false, err
	}
	return p.DarkMode, nil
}

func (s *Store) load() (Prefs, error) {
	var p Prefs
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, types.NewAppError(types.ErrCodeInternalPreferences,
			fmt.Sprintf("failed to read preferences %s", s.path), err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefs{}, types.NewAppError(types.ErrCodeInternalPreferences,
			fmt.Sprintf("preferences file %s is not valid JSON", s.path), err)
	}
	return p, nil
}

// save writes through a temp file so a crash never leaves a truncated file.
func (s *Store) save(p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return types.NewAppError(types.ErrCodeInternalPreferences, "failed to create preferences directory", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalPreferences, "failed to encode preferences", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return types.NewAppError(types.ErrCodeInternalPreferences,
			fmt.Sprintf("failed to write preferences %s", s.path), err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return types.NewAppError(types.ErrCodeInternalPreferences,
			fmt.Sprintf("failed to replace preferences %s", s.path), err)
	}
	return nil
}
