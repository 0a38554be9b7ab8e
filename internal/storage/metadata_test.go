package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckforge/deckforge/internal/types"
)

func openTestDB(t *testing.T) *MetadataDB {
	t.Helper()
	db, err := NewMetadataDB(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetRun(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveSession("s1", "Unit 1"))

	run := Run{
		JobID:           "j1",
		SessionID:       "s1",
		Kind:            types.KindExtractAudio,
		Status:          types.StatusCompleted,
		ClipsSaved:      4,
		MarkersDetected: 6,
		MarkersRejected: 1,
		DurationMs:      120_000,
		WordCount:       300,
	}
	require.NoError(t, db.SaveRun(run))

	got, err := db.GetRun("j1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.ClipsSaved)
	assert.Equal(t, 6, got.MarkersDetected)
	assert.Equal(t, 1, got.MarkersRejected)
	assert.Equal(t, int64(120_000), got.DurationMs)
	assert.Empty(t, got.Error)
}

func TestSaveRunRejectsDuplicateJobID(t *testing.T) {
	db := openTestDB(t)
	run := Run{JobID: "j1", SessionID: "s1", Kind: types.KindExtractImages, Status: types.StatusFailed, Error: "bad docx"}
	require.NoError(t, db.SaveRun(run))
	assert.Error(t, db.SaveRun(run))
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.SaveRun(Run{
			JobID: id, SessionID: "s1",
			Kind: types.KindExtractAudio, Status: types.StatusCompleted,
		}))
	}
	require.NoError(t, db.SaveRun(Run{
		JobID: "other", SessionID: "s2",
		Kind: types.KindExtractAudio, Status: types.StatusCompleted,
	}))

	runs, err := db.ListRuns("s1", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	for _, run := range runs {
		assert.Equal(t, "s1", run.SessionID)
	}
}

func TestLatestDeckSkipsFailedBuilds(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveRun(Run{
		JobID: "d1", SessionID: "s1", Kind: types.KindBuildDeck,
		Status: types.StatusCompleted, DeckPath: "/tmp/old.apkg",
	}))
	require.NoError(t, db.SaveRun(Run{
		JobID: "d2", SessionID: "s1", Kind: types.KindBuildDeck,
		Status: types.StatusFailed, Error: "no pairs",
	}))

	latest, err := db.LatestDeck("s1")
	require.NoError(t, err)
	assert.Equal(t, "d1", latest.JobID)
	assert.Equal(t, "/tmp/old.apkg", latest.DeckPath)
}
