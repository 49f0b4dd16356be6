// Package manifest handles slip.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a slip.toml configuration.
type Manifest struct {
	Session  Session  `toml:"session"`
	History  History  `toml:"history"`
	Snapshot Snapshot `toml:"snapshot"`
	Log      Log      `toml:"log"`

	// Dir is the directory containing the slip.toml file (set at load time).
	Dir string `toml:"-"`
}

// Session configures the interpreter session.
type Session struct {
	Prompt    string `toml:"prompt"`
	StepLimit int64  `toml:"step-limit"`
}

// History configures the evaluation log.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Snapshot configures dictionary snapshots.
type Snapshot struct {
	Path string `toml:"path"`
}

// Log configures logging verbosity (0 quiet, higher is chattier).
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no slip.toml exists.
func Default() *Manifest {
	return &Manifest{
		Session:  Session{Prompt: "slip> "},
		History:  History{Enabled: true, Path: "slip-history.db"},
		Snapshot: Snapshot{Path: "slip.image"},
	}
}

// Load parses a slip.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "slip.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a slip.toml file, then loads
// and returns the manifest. Returns the defaults if none is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "slip.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// HistoryPath returns the absolute path of the history database.
func (m *Manifest) HistoryPath() string {
	return m.resolve(m.History.Path)
}

// SnapshotPath returns the absolute path of the snapshot file.
func (m *Manifest) SnapshotPath() string {
	return m.resolve(m.Snapshot.Path)
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}
