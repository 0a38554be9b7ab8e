package handlers

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/deckforge/deckforge/internal/queue"
)

// ProgressHandler streams job progress over WebSocket
type ProgressHandler struct {
	registry *queue.Registry
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(registry *queue.Registry) *ProgressHandler {
	return &ProgressHandler{
		registry: registry,
	}
}

// Handle pushes job snapshots to the client until the job reaches a
// terminal state or the client disconnects.
func (h *ProgressHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")
	job, err := h.registry.Get(jobID)
	if err != nil {
		c.WriteJSON(map[string]string{"error": "Job not found"})
		return
	}

	log.Printf("WebSocket progress stream opened for job %s", jobID)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastStatus string
	lastProgress := -1

	for range ticker.C {
		snap := job.Snapshot()
		if snap.Progress == lastProgress && snap.Status == lastStatus {
			continue
		}
		lastProgress = snap.Progress
		lastStatus = snap.Status

		if err := c.WriteJSON(snap); err != nil {
			log.Printf("WebSocket write error for job %s: %v", jobID, err)
			return
		}
		if snap.Done() {
			return
		}
	}
}
