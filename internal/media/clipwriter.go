package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deckforge/deckforge/internal/segment"
)

// ClipWriter materializes clip intents as numbered MP3 files in one
// output directory. It implements segment.Sink.
//
// Files already present on disk from outside the current run get an
// occurrence suffix (3_2.mp3, 3_3.mp3, ...) instead of being
// overwritten. Files this run wrote itself are tracked so a retake can
// remove exactly them and nothing else.
type ClipWriter struct {
	src     string
	dir     string
	slicer  Slicer
	written map[string]bool
}

// NewClipWriter prepares a writer slicing out of src into dir.
func NewClipWriter(src, dir string, slicer Slicer) *ClipWriter {
	return &ClipWriter{
		src:     src,
		dir:     dir,
		slicer:  slicer,
		written: make(map[string]bool),
	}
}

// Materialize slices the intent's range and writes it under the
// label-derived name.
func (w *ClipWriter) Materialize(in segment.ClipIntent) (string, error) {
	path := w.targetPath(in.Label)
	if err := w.slicer.Slice(w.src, in.StartMs, in.EndMs, path); err != nil {
		return "", fmt.Errorf("clip %d: %w", in.Label, err)
	}
	w.written[path] = true
	return path, nil
}

// Remove deletes a clip this run produced, after a sequence restart
// invalidated its attempt.
func (w *ClipWriter) Remove(path string) error {
	delete(w.written, path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WriteRange slices an arbitrary sub-range under an explicit name,
// used by the silence-based sub-splitting stage.
func (w *ClipWriter) WriteRange(name string, r segment.Range) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := w.slicer.Slice(w.src, r.StartMs, r.EndMs, path); err != nil {
		return "", err
	}
	w.written[path] = true
	return path, nil
}

// targetPath picks <label>.mp3, or the first free occurrence suffix
// when a foreign file with that label already exists.
func (w *ClipWriter) targetPath(label int) string {
	base := filepath.Join(w.dir, fmt.Sprintf("%d.mp3", label))
	if w.written[base] || !exists(base) {
		return base
	}
	for occ := 2; ; occ++ {
		path := filepath.Join(w.dir, fmt.Sprintf("%d_%d.mp3", label, occ))
		if w.written[path] || !exists(path) {
			return path
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
