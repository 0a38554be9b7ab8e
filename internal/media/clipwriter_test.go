package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckforge/deckforge/internal/segment"
)

// fakeSlicer writes an empty file instead of invoking ffmpeg.
type fakeSlicer struct {
	calls []segment.Range
}

func (s *fakeSlicer) Slice(src string, startMs, endMs int64, dst string) error {
	s.calls = append(s.calls, segment.Range{StartMs: startMs, EndMs: endMs})
	return os.WriteFile(dst, nil, 0644)
}

func TestMaterializeWritesLabelName(t *testing.T) {
	dir := t.TempDir()
	w := NewClipWriter("src.mp3", dir, &fakeSlicer{})

	path, err := w.Materialize(segment.ClipIntent{Label: 3, StartMs: 100, EndMs: 900})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "3.mp3"), path)
	assert.FileExists(t, path)
}

func TestForeignFileGetsOccurrenceSuffix(t *testing.T) {
	dir := t.TempDir()
	// Leftover from a prior, already-finalized run.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.mp3"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3_2.mp3"), nil, 0644))

	w := NewClipWriter("src.mp3", dir, &fakeSlicer{})
	path, err := w.Materialize(segment.ClipIntent{Label: 3})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "3_3.mp3"), path)
}

func TestRemoveThenRewriteReusesBaseName(t *testing.T) {
	dir := t.TempDir()
	w := NewClipWriter("src.mp3", dir, &fakeSlicer{})

	first, err := w.Materialize(segment.ClipIntent{Label: 1})
	require.NoError(t, err)
	require.NoError(t, w.Remove(first))
	assert.NoFileExists(t, first)

	// After the reset the label is free again inside this run.
	second, err := w.Materialize(segment.ClipIntent{Label: 1})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRemoveMissingFileIsNotAnError(t *testing.T) {
	w := NewClipWriter("src.mp3", t.TempDir(), &fakeSlicer{})
	assert.NoError(t, w.Remove(filepath.Join(t.TempDir(), "nope.mp3")))
}
