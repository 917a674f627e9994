package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink persists settings as indented JSON at a fixed path. Writes
// go through a temp file and rename so a crash mid-write never leaves a
// truncated document.
type FileSink struct {
	Path string
}

func (f *FileSink) Persist(settings map[string]Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// LoadSettings reads a settings file written by FileSink. A missing
// file is not an error and yields an empty map.
func LoadSettings(path string) (map[string]Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Settings{}, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var out map[string]Settings
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if out == nil {
		out = map[string]Settings{}
	}
	return out, nil
}
