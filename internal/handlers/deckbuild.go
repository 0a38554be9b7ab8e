package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deckforge/deckforge/internal/deck"
	"github.com/deckforge/deckforge/internal/queue"
	"github.com/deckforge/deckforge/internal/storage"
	"github.com/deckforge/deckforge/internal/types"
)

// DeckHandler triggers deck builds and serves the built packages
type DeckHandler struct {
	workerPool *queue.WorkerPool
	sessions   *storage.SessionStore
	db         *storage.MetadataDB
	defaults   DeckDefaults
}

// DeckDefaults fills in build options the request leaves unset.
type DeckDefaults struct {
	ModelName string
	Style     deck.CardStyle
	Tags      []string
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(workerPool *queue.WorkerPool, sessions *storage.SessionStore, db *storage.MetadataDB, defaults DeckDefaults) *DeckHandler {
	return &DeckHandler{
		workerPool: workerPool,
		sessions:   sessions,
		db:         db,
		defaults:   defaults,
	}
}

// BuildRequest represents the deck build body
type BuildRequest struct {
	DeckName       string   `json:"deck_name"`
	ModelName      string   `json:"model_name"`
	Tags           []string `json:"tags"`
	Prefix         string   `json:"prefix"`
	Style          string   `json:"style"`
	UploadToGDrive bool     `json:"upload_to_gdrive"`
}

// HandleBuild enqueues a deck build for the session's current pairs
func (h *DeckHandler) HandleBuild(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_SESSION_NOT_FOUND",
		})
	}

	var req BuildRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	opts := deck.Options{
		DeckName:  req.DeckName,
		ModelName: req.ModelName,
		Tags:      req.Tags,
		Prefix:    req.Prefix,
		Style:     deck.CardStyle(req.Style),
	}
	if opts.DeckName == "" {
		opts.DeckName = session.Name
	}
	if opts.ModelName == "" {
		opts.ModelName = h.defaults.ModelName
	}
	if opts.Style == "" {
		opts.Style = h.defaults.Style
	}
	if len(opts.Tags) == 0 {
		opts.Tags = h.defaults.Tags
	}

	jobID := uuid.New().String()
	job := queue.NewJob(jobID, session.ID, types.KindBuildDeck, "")
	job.DeckOptions = opts
	job.UploadToGDrive = req.UploadToGDrive

	h.workerPool.Enqueue(job)

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Deck build started",
	})
}

// HandleDownload serves the session's most recent completed deck
func (h *DeckHandler) HandleDownload(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_SESSION_NOT_FOUND",
		})
	}

	run, err := h.db.LatestDeck(session.ID)
	if err != nil || run.DeckPath == "" {
		return c.Status(404).JSON(fiber.Map{
			"error": "No deck built for this session yet",
			"code":  "ERR_NO_DECK",
		})
	}

	if _, err := os.Stat(run.DeckPath); err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Deck package is no longer on disk",
			"code":  "ERR_DECK_MISSING",
		})
	}

	return c.Download(run.DeckPath)
}
