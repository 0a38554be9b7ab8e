package queue

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/deckforge/deckforge/internal/deck"
	"github.com/deckforge/deckforge/internal/docx"
	"github.com/deckforge/deckforge/internal/media"
	"github.com/deckforge/deckforge/internal/pairing"
	"github.com/deckforge/deckforge/internal/segment"
	"github.com/deckforge/deckforge/internal/storage"
	"github.com/deckforge/deckforge/internal/transcribe"
	"github.com/deckforge/deckforge/internal/types"
)

// SilenceSplit tunes the optional post-pass that cuts each clip into
// voiced sub-ranges. Disabled by default.
type SilenceSplit struct {
	Enabled      bool
	NoiseDB      float64
	MinSilenceMs int64
	MergeGapMs   int64
	BufferMs     int64
}

// Settings carries the segmentation parameters shared by all workers.
// Per-job overrides (clip buffer) live on the Job itself.
type Settings struct {
	TempDir          string
	Segment          segment.Config
	ExtraNumberWords map[string]int
	SilenceSplit     SilenceSplit
}

// WorkerPool manages a pool of workers processing session jobs
type WorkerPool struct {
	jobQueue    chan *Job
	registry    *Registry
	workerCount int
	transcriber transcribe.Transcriber
	sessions    *storage.SessionStore
	driveClient *storage.DriveClient
	db          *storage.MetadataDB
	ffmpeg      media.FFmpeg
	settings    Settings
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(
	workerCount int,
	registry *Registry,
	transcriber transcribe.Transcriber,
	sessions *storage.SessionStore,
	driveClient *storage.DriveClient,
	db *storage.MetadataDB,
	settings Settings,
) *WorkerPool {
	return &WorkerPool{
		jobQueue:    make(chan *Job, 100), // Buffer of 100 jobs
		registry:    registry,
		workerCount: workerCount,
		transcriber: transcriber,
		sessions:    sessions,
		driveClient: driveClient,
		db:          db,
		settings:    settings,
	}
}

// Start initializes all workers
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// Enqueue registers a job and adds it to the queue
func (wp *WorkerPool) Enqueue(job *Job) {
	wp.registry.Add(job)
	wp.jobQueue <- job
	log.Printf("Job %s enqueued (kind: %s, session: %s)", job.ID, job.Kind, job.SessionID)
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		// Panic recovery
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
						id, job.ID, r, string(debug.Stack()))
					wp.failJob(job, fmt.Errorf("worker panic: %v", r))
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

// processJob dispatches a job to its pipeline
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log.Printf("Worker %d: Processing job %s (%s)", workerID, job.ID, job.Kind)
	job.setStatus(types.StatusProcessing)

	switch job.Kind {
	case types.KindExtractAudio:
		wp.processAudio(workerID, job)
	case types.KindExtractImages:
		wp.processImages(workerID, job)
	case types.KindBuildDeck:
		wp.processDeck(workerID, job)
	default:
		wp.failJob(job, fmt.Errorf("unknown job kind %q", job.Kind))
	}
}

// processAudio runs the full audio pipeline: probe, normalize,
// transcribe, cut clips at spoken number markers, optionally sub-split
// each clip on silence.
func (wp *WorkerPool) processAudio(workerID int, job *Job) {
	session, err := wp.sessions.Get(job.SessionID)
	if err != nil {
		wp.failJob(job, err)
		return
	}

	job.SetProgress(5, "Probing audio")
	durationMs, err := wp.ffmpeg.DurationMs(job.FilePath)
	if err != nil {
		wp.failJob(job, fmt.Errorf("audio probe failed: %w", err))
		return
	}

	job.SetProgress(10, "Normalizing audio")
	normalizedPath, err := transcribe.NormalizeAudio(job.FilePath, wp.settings.TempDir)
	if err != nil {
		wp.failJob(job, fmt.Errorf("audio normalization failed: %w", err))
		return
	}
	defer wp.cleanupTempFile(normalizedPath)

	job.SetProgress(20, "Transcribing")
	tr, err := wp.transcriber.Transcribe(normalizedPath)
	if err != nil {
		wp.failJob(job, fmt.Errorf("transcription failed: %w", err))
		return
	}

	result := &types.AudioResult{
		JobID:      job.ID,
		SessionID:  job.SessionID,
		Language:   tr.Language,
		Transcript: tr.Text,
		DurationMs: durationMs,
		WordCount:  len(tr.Words),
	}

	if len(tr.Words) == 0 {
		log.Printf("Worker %d: Job %s transcribed to an empty word list", workerID, job.ID)
		result.Empty = true
		result.Summary = &segment.Summary{}
		wp.finishAudio(workerID, job, result)
		return
	}

	job.SetProgress(50, "Cutting clips")
	cfg := wp.settings.Segment
	if job.BufferMs > 0 {
		cfg.BufferMs = job.BufferMs
	}
	engine := segment.NewEngine(segment.NewVocabulary(wp.settings.ExtraNumberWords), cfg)
	writer := media.NewClipWriter(job.FilePath, session.ClipsDir(), wp.ffmpeg)

	summary := engine.Run(tr.Words, durationMs, writer, func(percent int, message string) {
		// Engine progress occupies the 50-90 band of the job.
		job.SetProgress(50+percent*40/100, message)
	})
	result.Summary = summary

	if wp.settings.SilenceSplit.Enabled {
		job.SetProgress(90, "Splitting clips on silence")
		wp.subSplitClips(workerID, job, writer, summary, durationMs)
	}

	wp.finishAudio(workerID, job, result)
}

func (wp *WorkerPool) finishAudio(workerID int, job *Job, result *types.AudioResult) {
	result.ProcessedAt = time.Now()
	job.setAudioResult(result)

	run := storage.Run{
		JobID:      job.ID,
		SessionID:  job.SessionID,
		Kind:       job.Kind,
		Status:     types.StatusCompleted,
		DurationMs: result.DurationMs,
		WordCount:  result.WordCount,
	}
	if s := result.Summary; s != nil {
		run.ClipsSaved = s.Saved
		run.MarkersDetected = s.Detected
		run.MarkersRejected = s.Rejected
	}
	wp.saveRun(run)

	wp.cleanupTempFile(job.FilePath)
	job.complete()
	log.Printf("Worker %d: Job %s completed (%d clips saved, %d markers rejected)",
		workerID, job.ID, run.ClipsSaved, run.MarkersRejected)
}

// subSplitClips replaces each clip that contains silence gaps with its
// voiced sub-ranges. A failure leaves the original clip in place and
// never fails the job.
func (wp *WorkerPool) subSplitClips(workerID int, job *Job, writer *media.ClipWriter, summary *segment.Summary, durationMs int64) {
	sc := wp.settings.SilenceSplit
	splitCfg := segment.SplitConfig{MergeGapMs: sc.MergeGapMs, BufferMs: sc.BufferMs}

	for i, clip := range summary.Clips {
		span := segment.Range{StartMs: clip.StartMs, EndMs: clip.EndMs}
		silences, err := wp.ffmpeg.Silences(job.FilePath, span, sc.NoiseDB, sc.MinSilenceMs)
		if err != nil {
			log.Printf("Worker %d: silence scan failed for clip %d: %v", workerID, clip.Label, err)
			continue
		}

		parts := segment.SubRanges(span, silences, splitCfg, durationMs)
		if len(parts) <= 1 {
			continue
		}

		base := strings.TrimSuffix(filepath.Base(clip.Path), filepath.Ext(clip.Path))
		written := make([]string, 0, len(parts))
		ok := true
		for k, part := range parts {
			name := fmt.Sprintf("%s_word_%d.mp3", base, k+1)
			path, err := writer.WriteRange(name, part)
			if err != nil {
				log.Printf("Worker %d: sub-split write failed for clip %d: %v", workerID, clip.Label, err)
				ok = false
				break
			}
			written = append(written, path)
		}
		if !ok {
			// Keep the whole clip, discard the partial set.
			for _, path := range written {
				wp.cleanupTempFile(path)
			}
			continue
		}

		if err := writer.Remove(clip.Path); err != nil {
			log.Printf("Worker %d: failed to remove split clip %d: %v", workerID, clip.Label, err)
		}
		summary.Clips[i].Path = written[0]
		log.Printf("Worker %d: clip %d split into %d voiced parts", workerID, clip.Label, len(parts))
	}
}

// processImages extracts numbered images from an uploaded document.
func (wp *WorkerPool) processImages(workerID int, job *Job) {
	session, err := wp.sessions.Get(job.SessionID)
	if err != nil {
		wp.failJob(job, err)
		return
	}

	job.SetProgress(20, "Reading document")
	count, err := docx.ExtractNumberedImages(job.FilePath, session.ImagesDir())
	if err != nil {
		wp.failJob(job, fmt.Errorf("image extraction failed: %w", err))
		return
	}

	result := &types.ImagesResult{
		JobID:       job.ID,
		SessionID:   job.SessionID,
		ImagesSaved: count,
		ProcessedAt: time.Now(),
	}
	job.setImagesResult(result)

	wp.saveRun(storage.Run{
		JobID:       job.ID,
		SessionID:   job.SessionID,
		Kind:        job.Kind,
		Status:      types.StatusCompleted,
		ImagesSaved: count,
	})

	wp.cleanupTempFile(job.FilePath)
	job.complete()
	log.Printf("Worker %d: Job %s completed (%d images extracted)", workerID, job.ID, count)
}

// processDeck pairs clips with images and packages them into a deck.
func (wp *WorkerPool) processDeck(workerID int, job *Job) {
	session, err := wp.sessions.Get(job.SessionID)
	if err != nil {
		wp.failJob(job, err)
		return
	}

	job.SetProgress(10, "Pairing clips with images")
	pairRes, err := pairing.PairFiles(session.ImagesDir(), session.ClipsDir(), session.FinalDir())
	if err != nil {
		wp.failJob(job, fmt.Errorf("pairing failed: %w", err))
		return
	}
	if len(pairRes.MissingAudio) > 0 || len(pairRes.MissingImages) > 0 {
		log.Printf("Worker %d: Job %s has unmatched numbers (no audio: %v, no image: %v)",
			workerID, job.ID, pairRes.MissingAudio, pairRes.MissingImages)
	}

	job.SetProgress(50, "Building deck package")
	deckPath := session.DeckPath(job.DeckOptions.DeckName)
	if err := deck.CreateAnkiDeck(pairRes.Pairs, deckPath, job.DeckOptions); err != nil {
		wp.failJob(job, fmt.Errorf("deck build failed: %w", err))
		return
	}

	result := &types.DeckResult{
		JobID:     job.ID,
		SessionID: job.SessionID,
		DeckPath:  deckPath,
		CardCount: deck.CardsFor(job.DeckOptions.Style, len(pairRes.Pairs)),
		Pairing:   pairRes,
	}

	// Upload to Google Drive (with retry)
	if job.UploadToGDrive && wp.driveClient != nil {
		job.SetProgress(80, "Uploading to Google Drive")
		var url string
		for attempt := 1; attempt <= 3; attempt++ {
			url, err = wp.driveClient.UploadDeck(deckPath)
			if err == nil {
				result.GDriveURL = url
				break
			}
			log.Printf("Worker %d: Google Drive upload attempt %d/3 failed: %v", workerID, attempt, err)
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second) // Exponential backoff
			}
		}
		if err != nil {
			log.Printf("Worker %d: WARNING - Google Drive upload failed after 3 attempts, deck kept locally", workerID)
		}
	}

	result.ProcessedAt = time.Now()
	job.setDeckResult(result)

	wp.saveRun(storage.Run{
		JobID:     job.ID,
		SessionID: job.SessionID,
		Kind:      job.Kind,
		Status:    types.StatusCompleted,
		DeckPath:  deckPath,
		GDriveURL: result.GDriveURL,
	})

	job.complete()
	log.Printf("Worker %d: Job %s completed (deck: %s, cards: %d)",
		workerID, job.ID, deckPath, result.CardCount)
}

// failJob marks the job failed, records the run, and removes the input.
func (wp *WorkerPool) failJob(job *Job, err error) {
	log.Printf("Job %s failed: %v", job.ID, err)
	job.fail(err)
	wp.saveRun(storage.Run{
		JobID:     job.ID,
		SessionID: job.SessionID,
		Kind:      job.Kind,
		Status:    types.StatusFailed,
		Error:     err.Error(),
	})
	wp.cleanupTempFile(job.FilePath)
}

func (wp *WorkerPool) saveRun(run storage.Run) {
	if wp.db == nil {
		return
	}
	if err := wp.db.SaveRun(run); err != nil {
		log.Printf("Database save failed for job %s: %v", run.JobID, err)
	}
}

// cleanupTempFile removes a temporary file
func (wp *WorkerPool) cleanupTempFile(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to cleanup temp file %s: %v", filePath, err)
	}
}
