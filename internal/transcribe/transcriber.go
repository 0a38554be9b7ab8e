package transcribe

import (
	"github.com/deckforge/deckforge/internal/segment"
)

// Result is the complete word-level transcript of one recording,
// returned as a single blocking, all-or-nothing call. There is no
// partial or streaming consumption of words.
type Result struct {
	Language string
	Text     string
	Words    []segment.Word
}

// Transcriber turns a recording into a timestamped word stream. The
// segmentation engine consumes only this contract; model choice and
// accuracy are the implementation's business.
type Transcriber interface {
	Transcribe(audioPath string) (*Result, error)
}
