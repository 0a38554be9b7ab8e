package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deckforge/deckforge/internal/queue"
	"github.com/deckforge/deckforge/internal/storage"
	"github.com/deckforge/deckforge/internal/transcribe"
	"github.com/deckforge/deckforge/internal/types"
)

// AudioHandler ingests session recordings, either as direct uploads or
// from a public Google Drive link, and enqueues extraction jobs.
type AudioHandler struct {
	workerPool *queue.WorkerPool
	sessions   *storage.SessionStore
	tempDir    string
	maxSizeMB  int
}

// NewAudioHandler creates a new audio ingest handler
func NewAudioHandler(workerPool *queue.WorkerPool, sessions *storage.SessionStore, tempDir string, maxSizeMB int) *AudioHandler {
	return &AudioHandler{
		workerPool: workerPool,
		sessions:   sessions,
		tempDir:    tempDir,
		maxSizeMB:  maxSizeMB,
	}
}

// HandleUpload processes a multipart recording upload
func (h *AudioHandler) HandleUpload(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_SESSION_NOT_FOUND",
		})
	}

	// Get uploaded file
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	// Validate file size
	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	// Validate file format
	if !transcribe.ValidateAudioFormat(file.Filename) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported audio format",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	// Generate unique filename
	jobID := uuid.New().String()
	extension := filepath.Ext(file.Filename)
	tempPath := filepath.Join(h.tempDir, fmt.Sprintf("%s%s", jobID, extension))

	// Save file
	if err := c.SaveFile(file, tempPath); err != nil {
		log.Printf("Failed to save uploaded file: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	job := queue.NewJob(jobID, session.ID, types.KindExtractAudio, tempPath)
	job.BufferMs = parseBufferMs(c.FormValue("buffer_ms"))

	h.workerPool.Enqueue(job)

	// Return job ID immediately
	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Recording uploaded, extraction started",
	})
}

// GDriveRequest represents the request body for link ingest
type GDriveRequest struct {
	URL      string `json:"url"`
	BufferMs int64  `json:"buffer_ms"`
}

// HandleGDrive downloads a recording from a public Google Drive link
func (h *AudioHandler) HandleGDrive(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_SESSION_NOT_FOUND",
		})
	}

	var req GDriveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	// Validate URL
	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}

	// Extract file ID from various Google Drive URL formats
	fileID := extractGDriveFileID(req.URL)
	if fileID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid Google Drive URL",
			"code":  "ERR_INVALID_URL",
		})
	}

	jobID := uuid.New().String()
	tempPath := filepath.Join(h.tempDir, fmt.Sprintf("%s.mp3", jobID))

	// Download file from Google Drive
	downloadURL := fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", fileID)

	log.Printf("Downloading from Google Drive: %s", fileID)

	resp, err := http.Get(downloadURL)
	if err != nil {
		log.Printf("Failed to download from Google Drive: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to download file from Google Drive",
			"code":  "ERR_DOWNLOAD_FAILED",
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return c.Status(400).JSON(fiber.Map{
			"error": "File not accessible (may be private or doesn't exist)",
			"code":  "ERR_FILE_NOT_ACCESSIBLE",
		})
	}

	// Save to temp file
	out, err := os.Create(tempPath)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save downloaded file",
			"code":  "ERR_SAVE_FAILED",
		})
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to write downloaded file",
			"code":  "ERR_WRITE_FAILED",
		})
	}

	job := queue.NewJob(jobID, session.ID, types.KindExtractAudio, tempPath)
	job.BufferMs = req.BufferMs

	h.workerPool.Enqueue(job)

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Google Drive file downloaded, extraction started",
	})
}

// parseBufferMs reads an optional clip padding override form value.
func parseBufferMs(value string) int64 {
	if value == "" {
		return 0
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil || ms < 0 {
		return 0
	}
	return ms
}

// extractGDriveFileID extracts the file ID from various Google Drive URL formats
func extractGDriveFileID(url string) string {
	// Pattern 1: https://drive.google.com/file/d/{ID}/view
	re1 := regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	if matches := re1.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	// Pattern 2: https://drive.google.com/open?id={ID}
	re2 := regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	if matches := re2.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	// Pattern 3: Direct ID (25-40 characters)
	re3 := regexp.MustCompile(`^([a-zA-Z0-9_-]{25,40})$`)
	if matches := re3.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	return ""
}
