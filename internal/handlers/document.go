package handlers

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deckforge/deckforge/internal/queue"
	"github.com/deckforge/deckforge/internal/storage"
	"github.com/deckforge/deckforge/internal/types"
)

// DocumentHandler ingests the session's numbered-image document
type DocumentHandler struct {
	workerPool *queue.WorkerPool
	sessions   *storage.SessionStore
	tempDir    string
	maxSizeMB  int
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(workerPool *queue.WorkerPool, sessions *storage.SessionStore, tempDir string, maxSizeMB int) *DocumentHandler {
	return &DocumentHandler{
		workerPool: workerPool,
		sessions:   sessions,
		tempDir:    tempDir,
		maxSizeMB:  maxSizeMB,
	}
}

// Handle processes a .docx upload and enqueues image extraction
func (h *DocumentHandler) Handle(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_SESSION_NOT_FOUND",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".docx") {
		return c.Status(400).JSON(fiber.Map{
			"error": "Only .docx documents are supported",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	jobID := uuid.New().String()
	tempPath := filepath.Join(h.tempDir, fmt.Sprintf("%s.docx", jobID))

	if err := c.SaveFile(file, tempPath); err != nil {
		log.Printf("Failed to save uploaded document: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	job := queue.NewJob(jobID, session.ID, types.KindExtractImages, tempPath)
	h.workerPool.Enqueue(job)

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Document uploaded, image extraction started",
	})
}
