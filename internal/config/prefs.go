package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Theme is the persisted UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme applies until the user picks one.
const DefaultTheme = ThemeDark

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
}

type prefsFile struct {
	Theme Theme `json:"theme"`
}

func prefsPath(base string) string {
	return filepath.Join(base, "prefs.json")
}

// LoadTheme reads the theme preference from base. A missing or unreadable
// value yields DefaultTheme.
func LoadTheme(base string) (Theme, error) {
	data, err := os.ReadFile(prefsPath(base))
	if os.IsNotExist(err) {
		return DefaultTheme, nil
	}
	if err != nil {
		return DefaultTheme, fmt.Errorf("reading preferences: %w", err)
	}
	var p prefsFile
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultTheme, fmt.Errorf("corrupt preferences file %s: %w", prefsPath(base), err)
	}
	if t, err := ParseTheme(string(p.Theme)); err == nil {
		return t, nil
	}
	return DefaultTheme, nil
}

// SaveTheme atomically writes the theme preference under base.
func SaveTheme(base string, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	if err := os.MkdirAll(base, 0o700); err != nil {
		return fmt.Errorf("creating preferences directory: %w", err)
	}
	data, err := json.MarshalIndent(prefsFile{Theme: t}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling preferences: %w", err)
	}
	path := prefsPath(base)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
