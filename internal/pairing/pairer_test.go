package pairing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
}

func TestPairFiles(t *testing.T) {
	imageDir := t.TempDir()
	audioDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "final")

	touch(t, imageDir, "1.png", "2.png", "4.png", "notes.txt")
	touch(t, audioDir, "1.mp3", "2.mp3", "3.mp3")

	res, err := PairFiles(imageDir, audioDir, outDir)
	require.NoError(t, err)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, 1, res.Pairs[0].Number)
	assert.Equal(t, 2, res.Pairs[1].Number)
	assert.Equal(t, []int{4}, res.MissingAudio)
	assert.Equal(t, []int{3}, res.MissingImages)

	assert.FileExists(t, filepath.Join(outDir, "1.mp3"))
	assert.FileExists(t, filepath.Join(outDir, "1.png"))
	assert.FileExists(t, filepath.Join(outDir, "2.mp3"))
}

func TestPairFilesPrefersPlainNameOverOccurrence(t *testing.T) {
	imageDir := t.TempDir()
	audioDir := t.TempDir()

	touch(t, imageDir, "5.png")
	touch(t, audioDir, "5_2.mp3", "5.mp3")

	res, err := PairFiles(imageDir, audioDir, filepath.Join(t.TempDir(), "final"))
	require.NoError(t, err)
	require.Len(t, res.Pairs, 1)

	data, err := os.ReadFile(res.Pairs[0].AudioPath)
	require.NoError(t, err)
	assert.Equal(t, "5.mp3", string(data))
}

func TestPairFilesEmptyDirs(t *testing.T) {
	res, err := PairFiles(t.TempDir(), t.TempDir(), filepath.Join(t.TempDir(), "final"))
	require.NoError(t, err)
	assert.Empty(t, res.Pairs)
}
