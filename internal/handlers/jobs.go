package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deckforge/deckforge/internal/queue"
	"github.com/deckforge/deckforge/internal/storage"
)

// JobHandler answers job status queries
type JobHandler struct {
	registry *queue.Registry
	db       *storage.MetadataDB
}

// NewJobHandler creates a new job status handler
func NewJobHandler(registry *queue.Registry, db *storage.MetadataDB) *JobHandler {
	return &JobHandler{
		registry: registry,
		db:       db,
	}
}

// Handle returns the current state of a job. In-flight jobs come from
// the registry; jobs from before a restart fall back to the run table.
func (h *JobHandler) Handle(c *fiber.Ctx) error {
	jobID := c.Params("id")

	if job, err := h.registry.Get(jobID); err == nil {
		return c.JSON(job.Snapshot())
	}

	run, err := h.db.GetRun(jobID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Job not found",
			"code":  "ERR_JOB_NOT_FOUND",
		})
	}
	return c.JSON(run)
}
