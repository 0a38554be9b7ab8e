// Package cleanup sweeps the upload spool directory. Uploaded
// recordings and documents are deleted by the worker that consumes
// them, so anything left behind is an abandoned or crashed job.
package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Scheduler periodically removes stale files from the spool directory.
type Scheduler struct {
	spoolDir        string
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(spoolDir string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		spoolDir:        spoolDir,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the cleanup scheduler
func (s *Scheduler) Start() {
	// Run initial cleanup on startup
	log.Println("Running initial spool cleanup...")
	s.sweep()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %dm, max age: %dh)",
		s.intervalMinutes, s.maxAgeHours)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

// sweep removes spool files older than the configured age
func (s *Scheduler) sweep() {
	entries, err := os.ReadDir(s.spoolDir)
	if err != nil {
		log.Printf("Error reading spool directory: %v", err)
		return
	}

	now := time.Now()
	maxAge := time.Duration(s.maxAgeHours) * time.Hour

	var deletedCount int
	var deletedSize int64

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		age := now.Sub(info.ModTime())
		if age <= maxAge {
			continue
		}

		path := filepath.Join(s.spoolDir, entry.Name())
		size := info.Size()
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to delete stale spool file %s: %v", path, err)
			continue
		}
		deletedCount++
		deletedSize += size
		log.Printf("Deleted stale spool file: %s (age: %s, size: %dKB)",
			entry.Name(), age.Round(time.Hour), size/1024)
	}

	if deletedCount > 0 {
		log.Printf("Cleanup complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
}

// EnsureSpoolDirExists creates the spool directory if it doesn't exist
func EnsureSpoolDirExists(spoolDir string) error {
	if err := os.MkdirAll(spoolDir, 0755); err != nil {
		return err
	}
	log.Printf("Spool directory ready: %s", spoolDir)
	return nil
}
