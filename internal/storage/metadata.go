package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deckforge/deckforge/internal/types"
)

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens the metadata database and creates its schema.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		clips_saved INTEGER,
		markers_detected INTEGER,
		markers_rejected INTEGER,
		images_saved INTEGER,
		deck_path TEXT,
		gdrive_url TEXT,
		duration_ms INTEGER,
		word_count INTEGER,
		error TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveSession records a new session.
func (mdb *MetadataDB) SaveSession(id, name string) error {
	_, err := mdb.db.Exec(
		`INSERT INTO sessions (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Run is one recorded job outcome. Counter fields only apply to some
// job kinds and stay zero for the others.
type Run struct {
	JobID           string    `json:"job_id"`
	SessionID       string    `json:"session_id"`
	Kind            string    `json:"kind"`
	Status          string    `json:"status"`
	ClipsSaved      int       `json:"clips_saved"`
	MarkersDetected int       `json:"markers_detected"`
	MarkersRejected int       `json:"markers_rejected"`
	ImagesSaved     int       `json:"images_saved"`
	DeckPath        string    `json:"deck_path,omitempty"`
	GDriveURL       string    `json:"gdrive_url,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
	WordCount       int       `json:"word_count"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SaveRun records a finished job, successful or not.
func (mdb *MetadataDB) SaveRun(run Run) error {
	_, err := mdb.db.Exec(`
	INSERT INTO runs (job_id, session_id, kind, status, clips_saved, markers_detected,
		markers_rejected, images_saved, deck_path, gdrive_url, duration_ms, word_count, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.JobID, run.SessionID, run.Kind, run.Status,
		run.ClipsSaved, run.MarkersDetected, run.MarkersRejected, run.ImagesSaved,
		run.DeckPath, run.GDriveURL, run.DurationMs, run.WordCount, run.Error, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by job ID.
func (mdb *MetadataDB) GetRun(jobID string) (*Run, error) {
	row := mdb.db.QueryRow(`
	SELECT job_id, session_id, kind, status, clips_saved, markers_detected,
		markers_rejected, images_saved, deck_path, gdrive_url, duration_ms, word_count, error, created_at
	FROM runs WHERE job_id = ?`, jobID)
	return scanRun(row)
}

// ListRuns returns the most recent runs for a session.
func (mdb *MetadataDB) ListRuns(sessionID string, limit int) ([]Run, error) {
	rows, err := mdb.db.Query(`
	SELECT job_id, session_id, kind, status, clips_saved, markers_detected,
		markers_rejected, images_saved, deck_path, gdrive_url, duration_ms, word_count, error, created_at
	FROM runs WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			continue
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// LatestDeck returns the newest completed deck build for a session.
func (mdb *MetadataDB) LatestDeck(sessionID string) (*Run, error) {
	row := mdb.db.QueryRow(`
	SELECT job_id, session_id, kind, status, clips_saved, markers_detected,
		markers_rejected, images_saved, deck_path, gdrive_url, duration_ms, word_count, error, created_at
	FROM runs WHERE session_id = ? AND kind = ? AND status = ?
	ORDER BY created_at DESC LIMIT 1`,
		sessionID, types.KindBuildDeck, types.StatusCompleted)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	err := row.Scan(&run.JobID, &run.SessionID, &run.Kind, &run.Status,
		&run.ClipsSaved, &run.MarkersDetected, &run.MarkersRejected, &run.ImagesSaved,
		&run.DeckPath, &run.GDriveURL, &run.DurationMs, &run.WordCount, &run.Error, &run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	return &run, nil
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
