package segment

import (
	"fmt"
)

// Word is one transcribed token with its time range in seconds. The
// ordered word sequence is the engine's sole input; it is produced once
// per run by the transcription collaborator and never mutated.
type Word struct {
	Start float64
	End   float64
	Raw   string
	Norm  string
}

// NewWord builds a Word, deriving the normalized form from the raw token.
func NewWord(start, end float64, raw string) Word {
	return Word{Start: start, End: end, Raw: raw, Norm: NormalizeToken(raw)}
}

// ClipIntent is an instruction to slice one labeled time range out of
// the source audio.
type ClipIntent struct {
	Label   int
	StartMs int64
	EndMs   int64
}

// Sink materializes clip intents and removes clips invalidated by a
// sequence restart. Materialize returns the written path so the engine
// can delete exactly the files of the current attempt, never unrelated
// files that happen to share a label.
type Sink interface {
	Materialize(intent ClipIntent) (string, error)
	Remove(path string) error
}

// ProgressFunc receives one-way progress notifications with a
// monotonically non-decreasing percentage. It has no effect on control
// flow and is never required for correctness.
type ProgressFunc func(percent int, message string)

// Config tunes the segmentation policy.
type Config struct {
	// BufferMs is the padding subtracted from each clip's start and
	// added to its end before clamping to the audio bounds.
	BufferMs int64

	// RequireLeadingOne rejects every marker until a "1" has been
	// accepted. Off by default: a stream that starts at "three" accepts
	// it as the first clip, which is the intended behavior.
	RequireLeadingOne bool
}

// MarkerRecord is the diagnostic trace of one marker encountered during
// the scan, kept for troubleshooting misrecognition.
type MarkerRecord struct {
	Value    int    `json:"value"`
	Position int    `json:"position"`
	Raw      string `json:"raw"`
	Accepted bool   `json:"accepted"`
}

// ClipResult describes one clip that survived the run.
type ClipResult struct {
	Label   int    `json:"label"`
	Path    string `json:"path"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

// ClipFailure records a clip that could not be written or removed.
type ClipFailure struct {
	Label int    `json:"label"`
	Error string `json:"error"`
}

// Summary reports the outcome of one segmentation run.
type Summary struct {
	Saved    int            `json:"saved"`
	Detected int            `json:"detected"`
	Rejected int            `json:"rejected"`
	Clips    []ClipResult   `json:"clips"`
	Markers  []MarkerRecord `json:"markers"`
	Failed   []ClipFailure  `json:"failed,omitempty"`
}

// Engine scans a word stream once, decides which markers are genuine
// sequence points, and materializes the audio range owned by each
// accepted marker. It owns no state across runs.
type Engine struct {
	detector *Detector
	cfg      Config
}

// NewEngine builds an engine over the given vocabulary and policy.
func NewEngine(vocab Vocabulary, cfg Config) *Engine {
	return &Engine{detector: NewDetector(vocab), cfg: cfg}
}

// Run performs the single left-to-right scan. durationMs is the total
// length of the source audio; padded clip ranges are clamped to
// [0, durationMs]. A zero-word stream is a successful run with zero
// clips. Per-clip materialization failures are recorded in the summary
// and the scan continues.
func (e *Engine) Run(words []Word, durationMs int64, sink Sink, progress ProgressFunc) *Summary {
	if progress == nil {
		progress = func(int, string) {}
	}
	sum := &Summary{}
	if len(words) == 0 {
		return sum
	}

	lastAccepted := 0
	var attempt []ClipResult

	i := 0
	for i < len(words) {
		m, ok := e.detector.DetectAt(words, i)
		if !ok {
			i++
			continue
		}
		sum.Detected++
		rec := MarkerRecord{Value: m.Value, Position: m.Position, Raw: m.Raw}

		if m.Value == 1 {
			// Retake: the speaker restarted the sequence. Wipe the
			// current attempt from disk before starting over.
			for _, c := range attempt {
				if err := sink.Remove(c.Path); err != nil {
					sum.Failed = append(sum.Failed, ClipFailure{
						Label: c.Label,
						Error: fmt.Sprintf("remove superseded clip: %v", err),
					})
				}
			}
			attempt = attempt[:0]
			lastAccepted = 0
		} else if m.Value <= lastAccepted || (e.cfg.RequireLeadingOne && lastAccepted == 0) {
			// Breaks the strictly-increasing order: noise, not a
			// sequence point.
			sum.Rejected++
			sum.Markers = append(sum.Markers, rec)
			i += m.Tokens
			continue
		}

		lastAccepted = m.Value
		rec.Accepted = true
		sum.Markers = append(sum.Markers, rec)

		// The block owned by this marker runs to the next marker or to
		// the end of the stream.
		blockStart := i + m.Tokens
		j := blockStart
		for j < len(words) {
			if _, next := e.detector.DetectAt(words, j); next {
				break
			}
			j++
		}

		if j > blockStart {
			// The marker word itself is retained: it anchors playback
			// context for the clip.
			intent := e.clipIntent(m.Value, words[i].Start, words[j-1].End, durationMs)
			path, err := sink.Materialize(intent)
			if err != nil {
				sum.Failed = append(sum.Failed, ClipFailure{Label: m.Value, Error: err.Error()})
			} else {
				attempt = append(attempt, ClipResult{
					Label:   m.Value,
					Path:    path,
					StartMs: intent.StartMs,
					EndMs:   intent.EndMs,
				})
				progress(100*j/len(words), fmt.Sprintf("Extracted clip %d", m.Value))
			}
		}
		i = j
	}

	// Only the final attempt survives; earlier attempts were deleted on
	// their resets.
	sum.Clips = attempt
	sum.Saved = len(attempt)
	progress(100, fmt.Sprintf("Extracted %d clips", sum.Saved))
	return sum
}

// clipIntent applies the buffer padding and clamps to the media bounds.
func (e *Engine) clipIntent(label int, startSec, endSec float64, durationMs int64) ClipIntent {
	startMs := int64(startSec*1000) - e.cfg.BufferMs
	endMs := int64(endSec*1000) + e.cfg.BufferMs
	if startMs < 0 {
		startMs = 0
	}
	if durationMs > 0 && endMs > durationMs {
		endMs = durationMs
	}
	return ClipIntent{Label: label, StartMs: startMs, EndMs: endMs}
}
