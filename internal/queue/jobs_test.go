package queue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckforge/deckforge/internal/types"
)

func TestNewJobStartsQueued(t *testing.T) {
	job := NewJob("j1", "s1", types.KindExtractAudio, "/tmp/in.mp3")
	snap := job.Snapshot()
	assert.Equal(t, types.StatusQueued, snap.Status)
	assert.Equal(t, 0, snap.Progress)
	assert.False(t, snap.Done())
}

func TestProgressNeverMovesBackwards(t *testing.T) {
	job := NewJob("j1", "s1", types.KindExtractAudio, "")
	job.SetProgress(40, "halfway there")
	job.SetProgress(20, "late report")
	snap := job.Snapshot()
	assert.Equal(t, 40, snap.Progress)
	assert.Equal(t, "late report", snap.Message)
}

func TestCompleteForcesFullProgress(t *testing.T) {
	job := NewJob("j1", "s1", types.KindBuildDeck, "")
	job.SetProgress(60, "building")
	job.complete()
	snap := job.Snapshot()
	assert.Equal(t, types.StatusCompleted, snap.Status)
	assert.Equal(t, 100, snap.Progress)
	assert.True(t, snap.Done())
}

func TestFailCarriesError(t *testing.T) {
	job := NewJob("j1", "s1", types.KindExtractImages, "")
	job.fail(errors.New("bad docx"))
	snap := job.Snapshot()
	assert.Equal(t, types.StatusFailed, snap.Status)
	assert.Equal(t, "bad docx", snap.Error)
	assert.True(t, snap.Done())
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	job := NewJob("j1", "s1", types.KindExtractAudio, "")
	reg.Add(job)

	got, err := reg.Get("j1")
	require.NoError(t, err)
	assert.Same(t, job, got)

	_, err = reg.Get("missing")
	assert.Error(t, err)
}
