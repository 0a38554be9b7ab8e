package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/deckforge/deckforge/internal/deck"
	"github.com/deckforge/deckforge/internal/types"
)

// Job represents one unit of work: an audio extraction, a document
// extraction, or a deck build. Handlers poll it for status and the
// WebSocket route streams its progress, so all mutable fields are
// guarded by the mutex and read through Snapshot.
type Job struct {
	ID        string
	SessionID string
	Kind      string
	FilePath  string
	CreatedAt time.Time

	// Per-job overrides for extract_audio.
	BufferMs int64

	// Deck build parameters, only set for build_deck jobs.
	DeckOptions  deck.Options
	UploadToGDrive bool

	mu       sync.Mutex
	status   string
	progress int
	message  string
	err      error
	audio    *types.AudioResult
	images   *types.ImagesResult
	deckRes  *types.DeckResult
}

// Snapshot is a consistent read of a job's mutable state, safe to
// serialize while workers keep updating the job.
type Snapshot struct {
	JobID     string              `json:"job_id"`
	SessionID string              `json:"session_id"`
	Kind      string              `json:"kind"`
	Status    string              `json:"status"`
	Progress  int                 `json:"progress"`
	Message   string              `json:"message,omitempty"`
	Error     string              `json:"error,omitempty"`
	Audio     *types.AudioResult  `json:"audio,omitempty"`
	Images    *types.ImagesResult `json:"images,omitempty"`
	Deck      *types.DeckResult   `json:"deck,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// NewJob creates a new job with default values
func NewJob(id, sessionID, kind, filePath string) *Job {
	return &Job{
		ID:        id,
		SessionID: sessionID,
		Kind:      kind,
		FilePath:  filePath,
		CreatedAt: time.Now(),
		status:    types.StatusQueued,
	}
}

// SetProgress records a progress step. Percent never moves backwards,
// so callers can report coarse stage boundaries without bookkeeping.
func (j *Job) SetProgress(percent int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if percent > j.progress {
		j.progress = percent
	}
	if message != "" {
		j.message = message
	}
}

func (j *Job) setStatus(status string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = types.StatusFailed
	j.err = err
}

func (j *Job) complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = types.StatusCompleted
	j.progress = 100
}

func (j *Job) setAudioResult(r *types.AudioResult)   { j.mu.Lock(); j.audio = r; j.mu.Unlock() }
func (j *Job) setImagesResult(r *types.ImagesResult) { j.mu.Lock(); j.images = r; j.mu.Unlock() }
func (j *Job) setDeckResult(r *types.DeckResult)     { j.mu.Lock(); j.deckRes = r; j.mu.Unlock() }

// Snapshot returns a copy of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := Snapshot{
		JobID:     j.ID,
		SessionID: j.SessionID,
		Kind:      j.Kind,
		Status:    j.status,
		Progress:  j.progress,
		Message:   j.message,
		Audio:     j.audio,
		Images:    j.images,
		Deck:      j.deckRes,
		CreatedAt: j.CreatedAt,
	}
	if j.err != nil {
		snap.Error = j.err.Error()
	}
	return snap
}

// Done reports whether the job reached a terminal state.
func (s Snapshot) Done() bool {
	return s.Status == types.StatusCompleted || s.Status == types.StatusFailed
}

// Registry tracks jobs by ID so HTTP handlers can answer status
// queries for work that is still in flight.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Add registers a job. IDs are UUIDs, collisions are a caller bug.
func (r *Registry) Add(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

// Get looks up a job by ID.
func (r *Registry) Get(id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("unknown job %s", id)
	}
	return job, nil
}
