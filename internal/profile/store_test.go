package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "profile.json"))
	require.NoError(t, err)
	return s
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	name, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("prod-env"))

	name, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "prod-env", name)
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("prod-env"))
	require.NoError(t, s.Save("stg-env"))

	name, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "stg-env", name)
}

func TestClearForgetsProfile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("prod-env"))
	require.NoError(t, s.Clear())

	name, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestClearWithoutFileIsNoOp(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Clear())
	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0750))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0600))

	_, err := s.Load()
	assert.Error(t, err)
}
