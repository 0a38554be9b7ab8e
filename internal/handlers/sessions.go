package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deckforge/deckforge/internal/storage"
)

// SessionHandler manages recording session lifecycle
type SessionHandler struct {
	sessions *storage.SessionStore
	db       *storage.MetadataDB
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *storage.SessionStore, db *storage.MetadataDB) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		db:       db,
	}
}

// CreateRequest represents the session creation body
type CreateRequest struct {
	Name string `json:"name"`
}

// Create provisions a new session working area
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}
	if req.Name == "" {
		req.Name = "untitled"
	}

	sessionID := uuid.New().String()
	session, err := h.sessions.Create(sessionID, req.Name)
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to create session",
			"code":  "ERR_SESSION_CREATE",
		})
	}

	if err := h.db.SaveSession(sessionID, req.Name); err != nil {
		log.Printf("Failed to record session %s: %v", sessionID, err)
	}

	log.Printf("Session %s created (name: %s)", sessionID, req.Name)
	return c.JSON(fiber.Map{
		"session_id": session.ID,
		"name":       session.Name,
	})
}

// Get returns a session's current contents and recent job runs
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_SESSION_NOT_FOUND",
		})
	}

	runs, err := h.db.ListRuns(session.ID, 20)
	if err != nil {
		log.Printf("Failed to list runs for session %s: %v", session.ID, err)
	}

	return c.JSON(fiber.Map{
		"session_id": session.ID,
		"name":       session.Name,
		"clips":      storage.ListFiles(session.ClipsDir()),
		"images":     storage.ListFiles(session.ImagesDir()),
		"pairs":      storage.ListFiles(session.FinalDir()),
		"decks":      storage.ListFiles(session.DeckDir()),
		"runs":       runs,
	})
}
