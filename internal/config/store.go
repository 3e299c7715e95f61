package config

import (
	"os"
	"path/filepath"

	apperrors "dateisort/internal/errors"
	"dateisort/internal/log"
)

// Store loads and persists the sorter configuration at a fixed path.
//
// Load never fails: a missing file is replaced by the documented default
// configuration, a malformed file degrades to an empty configuration with
// the decode error logged. Disk errors are caught at this boundary and
// reported through the log sink plus the Save error return; they never
// escape as panics.
type Store struct {
	path string
	logf LogFunc
}

// NewStore creates a store for the configuration file at path.
func NewStore(path string) *Store {
	return &Store{path: path, logf: log.Info}
}

// SetLogFunc redirects the store's warnings, e.g. into a UI log pane.
func (s *Store) SetLogFunc(logf LogFunc) {
	if logf != nil {
		s.logf = logf
	}
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration. Three outcomes: a missing file synthesizes
// and persists the default configuration; an unreadable or unparseable file
// is logged and degrades to an empty configuration (the bad file is left
// untouched); a valid file is validated through ParseDocument.
func (s *Store) Load() *SorterConfig {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logf("'%s' not found, creating default configuration", filepath.Base(s.path))
			return s.createDefault()
		}
		s.logf("error reading configuration: %v", err)
		return NewSorterConfig()
	}

	cfg, err := ParseDocument(data, s.logf)
	if err != nil {
		s.logf("error decoding '%s': %v", filepath.Base(s.path), err)
		return NewSorterConfig()
	}
	return cfg
}

// Save serializes the configuration and replaces the file atomically
// (write to a temp file in the same directory, then rename) so a crash
// cannot leave a half-written document behind.
func (s *Store) Save(cfg *SorterConfig) error {
	data, err := MarshalDocument(cfg)
	if err != nil {
		s.logf("error serializing configuration: %v", err)
		return apperrors.Wrap(err, "serialize configuration")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logf("error creating configuration directory: %v", err)
		return apperrors.Wrap(err, "create configuration directory")
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		s.logf("error saving configuration: %v", err)
		return apperrors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.logf("error saving configuration: %v", err)
		return apperrors.Wrap(err, "write configuration")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.logf("error saving configuration: %v", err)
		return apperrors.Wrap(err, "write configuration")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		s.logf("error saving configuration: %v", err)
		return apperrors.Wrap(err, "write configuration")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		s.logf("error saving configuration: %v", err)
		return apperrors.Wrap(err, "replace configuration file")
	}
	return nil
}

func (s *Store) createDefault() *SorterConfig {
	cfg := DefaultSorterConfig()
	if err := s.Save(cfg); err != nil {
		return NewSorterConfig()
	}
	s.logf("default configuration '%s' created", filepath.Base(s.path))
	return cfg
}
