package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gopkg.in/yaml.v3"

	"github.com/deckforge/deckforge/internal/cleanup"
	"github.com/deckforge/deckforge/internal/deck"
	"github.com/deckforge/deckforge/internal/handlers"
	"github.com/deckforge/deckforge/internal/queue"
	"github.com/deckforge/deckforge/internal/segment"
	"github.com/deckforge/deckforge/internal/storage"
	"github.com/deckforge/deckforge/internal/transcribe"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Whisper struct {
		Model  string `yaml:"model"`
		Device string `yaml:"device"`
		UseVAD bool   `yaml:"use_vad"`
	} `yaml:"whisper"`

	Segmenter struct {
		BufferMs          int64          `yaml:"buffer_ms"`
		RequireLeadingOne bool           `yaml:"require_leading_one"`
		ExtraNumberWords  map[string]int `yaml:"extra_number_words"`
		SilenceSplit      struct {
			Enabled      bool    `yaml:"enabled"`
			NoiseDB      float64 `yaml:"noise_db"`
			MinSilenceMs int64   `yaml:"min_silence_ms"`
			MergeGapMs   int64   `yaml:"merge_gap_ms"`
			BufferMs     int64   `yaml:"buffer_ms"`
		} `yaml:"silence_split"`
	} `yaml:"segmenter"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		TempDir     string `yaml:"temp_dir"`
		SessionsDir string `yaml:"sessions_dir"`
		Database    string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Deck struct {
		ModelName string   `yaml:"model_name"`
		Style     string   `yaml:"style"`
		Tags      []string `yaml:"tags"`
	} `yaml:"deck"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

func main() {
	// Load configuration
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure directories exist
	if err := cleanup.EnsureSpoolDirExists(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	if err := os.MkdirAll(config.Storage.SessionsDir, 0755); err != nil {
		log.Fatalf("Failed to create sessions directory: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	// Initialize components
	log.Println("Initializing components...")

	// Whisper transcriber
	transcriber, err := transcribe.NewWhisperTranscriber(
		config.Whisper.Model,
		config.Whisper.Device,
		config.Storage.TempDir,
		config.Whisper.UseVAD,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Whisper: %v", err)
	}

	// Session storage
	sessions := storage.NewSessionStore(config.Storage.SessionsDir)

	// Google Drive client (optional - may fail if credentials not set up)
	var driveClient *storage.DriveClient
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Decks will only be saved locally")
			driveClient = nil
		} else {
			log.Println("Google Drive integration enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	// Database
	db, err := storage.NewMetadataDB(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Worker pool
	registry := queue.NewRegistry()
	settings := queue.Settings{
		TempDir: config.Storage.TempDir,
		Segment: segment.Config{
			BufferMs:          config.Segmenter.BufferMs,
			RequireLeadingOne: config.Segmenter.RequireLeadingOne,
		},
		ExtraNumberWords: config.Segmenter.ExtraNumberWords,
		SilenceSplit: queue.SilenceSplit{
			Enabled:      config.Segmenter.SilenceSplit.Enabled,
			NoiseDB:      config.Segmenter.SilenceSplit.NoiseDB,
			MinSilenceMs: config.Segmenter.SilenceSplit.MinSilenceMs,
			MergeGapMs:   config.Segmenter.SilenceSplit.MergeGapMs,
			BufferMs:     config.Segmenter.SilenceSplit.BufferMs,
		},
	}
	workerPool := queue.NewWorkerPool(
		config.Workers.Count,
		registry,
		transcriber,
		sessions,
		driveClient,
		db,
		settings,
	)
	workerPool.Start()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		config.Storage.TempDir,
		config.Cleanup.IntervalMinutes,
		config.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessions, db)
	audioHandler := handlers.NewAudioHandler(workerPool, sessions, config.Storage.TempDir, config.Limits.MaxFileSizeMB)
	documentHandler := handlers.NewDocumentHandler(workerPool, sessions, config.Storage.TempDir, config.Limits.MaxFileSizeMB)
	deckHandler := handlers.NewDeckHandler(workerPool, sessions, db, handlers.DeckDefaults{
		ModelName: config.Deck.ModelName,
		Style:     deck.CardStyle(config.Deck.Style),
		Tags:      config.Deck.Tags,
	})
	jobHandler := handlers.NewJobHandler(registry, db)
	progressHandler := handlers.NewProgressHandler(registry)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/sessions", sessionHandler.Create)
	app.Get("/sessions/:id", sessionHandler.Get)
	app.Post("/sessions/:id/audio", audioHandler.HandleUpload)
	app.Post("/sessions/:id/audio/gdrive", audioHandler.HandleGDrive)
	app.Post("/sessions/:id/document", documentHandler.Handle)
	app.Post("/sessions/:id/deck", deckHandler.HandleBuild)
	app.Get("/sessions/:id/deck/download", deckHandler.HandleDownload)
	app.Get("/jobs/:id", jobHandler.Handle)

	// WebSocket route
	app.Get("/ws/jobs/:id", websocket.New(progressHandler.Handle))

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /sessions                    - Create a session")
	log.Println("   GET  /sessions/:id                - Session contents and runs")
	log.Println("   POST /sessions/:id/audio          - Upload session recording")
	log.Println("   POST /sessions/:id/audio/gdrive   - Ingest recording from Drive link")
	log.Println("   POST /sessions/:id/document       - Upload numbered-image document")
	log.Println("   POST /sessions/:id/deck           - Build deck from pairs")
	log.Println("   GET  /sessions/:id/deck/download  - Download latest deck")
	log.Println("   GET  /jobs/:id                    - Job status")
	log.Println("   GET  /ws/jobs/:id                 - WebSocket job progress")
	log.Println("   GET  /logs                        - View server logs")
	log.Println("   GET  /health                      - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	// Append new line
	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	// Return copy of slice
	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
