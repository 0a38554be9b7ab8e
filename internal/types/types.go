package types

import (
	"time"

	"github.com/deckforge/deckforge/internal/pairing"
	"github.com/deckforge/deckforge/internal/segment"
)

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Job kind constants
const (
	KindExtractAudio  = "extract_audio"
	KindExtractImages = "extract_images"
	KindBuildDeck     = "build_deck"
)

// AudioResult is the outcome of an audio extraction job: the transcript
// plus the segmentation summary for the recording.
type AudioResult struct {
	JobID       string           `json:"job_id"`
	SessionID   string           `json:"session_id"`
	Language    string           `json:"language"`
	Transcript  string           `json:"transcript"`
	DurationMs  int64            `json:"duration_ms"`
	WordCount   int              `json:"word_count"`
	Empty       bool             `json:"empty"` // transcription ran but heard no words
	Summary     *segment.Summary `json:"summary,omitempty"`
	ProcessedAt time.Time        `json:"processed_at"`
}

// ImagesResult is the outcome of a document extraction job.
type ImagesResult struct {
	JobID       string    `json:"job_id"`
	SessionID   string    `json:"session_id"`
	ImagesSaved int       `json:"images_saved"`
	ProcessedAt time.Time `json:"processed_at"`
}

// DeckResult is the outcome of a deck build job.
type DeckResult struct {
	JobID       string          `json:"job_id"`
	SessionID   string          `json:"session_id"`
	DeckPath    string          `json:"deck_path"`
	CardCount   int             `json:"card_count"`
	Pairing     *pairing.Result `json:"pairing,omitempty"`
	GDriveURL   string          `json:"gdrive_url,omitempty"`
	ProcessedAt time.Time       `json:"processed_at"`
}
