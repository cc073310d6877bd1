package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int      `toml:"version"`
	UI      uiSchema `toml:"ui"`
}

type uiSchema struct {
	DarkMode bool `toml:"dark_mode"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported preferences schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}
