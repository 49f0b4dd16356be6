package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slip.toml"), []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	m := Default()
	assert.Equal(t, "slip> ", m.Session.Prompt)
	assert.True(t, m.History.Enabled)
	assert.Equal(t, "slip-history.db", m.History.Path)
	assert.Equal(t, "slip.image", m.Snapshot.Path)
	assert.Zero(t, m.Session.StepLimit)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[session]
prompt = ">> "
step-limit = 50000

[history]
enabled = false
path = "custom.db"

[log]
verbosity = 2
`)

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ">> ", m.Session.Prompt)
	assert.Equal(t, int64(50000), m.Session.StepLimit)
	assert.False(t, m.History.Enabled)
	assert.Equal(t, "custom.db", m.History.Path)
	assert.Equal(t, 2, m.Log.Verbosity)

	// Unset sections keep their defaults.
	assert.Equal(t, "slip.image", m.Snapshot.Path)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, m.Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[session\nprompt = ")
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `[session]
prompt = "found> "
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, err := FindAndLoad(nested)
	require.NoError(t, err)
	assert.Equal(t, "found> ", m.Session.Prompt)
}

func TestFindAndLoadDefaultsWithoutFile(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default().Session.Prompt, m.Session.Prompt)
	assert.Empty(t, m.Dir)
}

func TestPathResolution(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `[history]
path = "state/history.db"
`)
	m, err := Load(dir)
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, filepath.Join(abs, "state", "history.db"), m.HistoryPath())
	assert.Equal(t, filepath.Join(abs, "slip.image"), m.SnapshotPath())

	// Absolute paths pass through untouched.
	m.History.Path = "/var/lib/slip.db"
	assert.Equal(t, "/var/lib/slip.db", m.HistoryPath())

	// Without a manifest directory, relative paths stay relative.
	assert.Equal(t, "slip.image", Default().SnapshotPath())
}
