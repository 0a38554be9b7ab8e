package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreCreateAndGet(t *testing.T) {
	ss := NewSessionStore(t.TempDir())

	created, err := ss.Create("abc-123", "Unit 7")
	require.NoError(t, err)
	assert.DirExists(t, created.ClipsDir())
	assert.DirExists(t, created.ImagesDir())
	assert.DirExists(t, created.FinalDir())
	assert.DirExists(t, created.DeckDir())

	got, err := ss.Get("abc-123")
	require.NoError(t, err)
	assert.Equal(t, "Unit 7", got.Name)
	assert.Equal(t, created.Dir, got.Dir)
}

func TestSessionStoreGetUnknown(t *testing.T) {
	ss := NewSessionStore(t.TempDir())
	_, err := ss.Get("nope")
	assert.Error(t, err)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.mp3"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.mp3"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	assert.Equal(t, []string{"1.mp3", "2.mp3"}, ListFiles(dir))
	assert.Empty(t, ListFiles(filepath.Join(dir, "missing")))
}

func TestDeckPathSanitizesName(t *testing.T) {
	s := Session{Dir: "/tmp/s"}
	assert.Equal(t, filepath.Join("/tmp/s", "deck", "Unit 7_ Animals.apkg"), s.DeckPath(`Unit 7: Animals`))
	assert.Equal(t, filepath.Join("/tmp/s", "deck", "untitled.apkg"), s.DeckPath(""))
}
