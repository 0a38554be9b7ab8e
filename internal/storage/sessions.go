package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Session is one recording unit's working area on disk. Clips, images
// and the staged pairs each get their own subdirectory so the pairing
// and deck stages can operate on plain directory listings.
type Session struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Dir  string `json:"-"`
}

// ClipsDir holds the audio clips cut from the session recording.
func (s Session) ClipsDir() string { return filepath.Join(s.Dir, "clips") }

// ImagesDir holds the numbered images extracted from the document.
func (s Session) ImagesDir() string { return filepath.Join(s.Dir, "images") }

// FinalDir holds matched clip/image pairs under canonical names.
func (s Session) FinalDir() string { return filepath.Join(s.Dir, "final") }

// DeckDir holds built .apkg packages.
func (s Session) DeckDir() string { return filepath.Join(s.Dir, "deck") }

// SessionStore lays out session working areas under a root directory.
type SessionStore struct {
	root string
}

// NewSessionStore creates a session store rooted at root.
func NewSessionStore(root string) *SessionStore {
	return &SessionStore{root: root}
}

// Create makes the session directory tree and writes the session name
// marker so Get can recover it after a restart.
func (ss *SessionStore) Create(id, name string) (Session, error) {
	s := Session{ID: id, Name: name, Dir: filepath.Join(ss.root, id)}
	for _, dir := range []string{s.Dir, s.ClipsDir(), s.ImagesDir(), s.FinalDir(), s.DeckDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Session{}, fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.Dir, "name"), []byte(name), 0644); err != nil {
		return Session{}, fmt.Errorf("failed to write session name: %w", err)
	}
	return s, nil
}

// Get returns the session for id, or an error if it was never created.
func (ss *SessionStore) Get(id string) (Session, error) {
	dir := filepath.Join(ss.root, id)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return Session{}, fmt.Errorf("unknown session %s", id)
	}
	s := Session{ID: id, Dir: dir}
	if data, err := os.ReadFile(filepath.Join(dir, "name")); err == nil {
		s.Name = strings.TrimSpace(string(data))
	}
	return s, nil
}

// ListFiles returns the sorted filenames in dir, skipping subdirectories.
// A missing directory lists as empty.
func ListFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// DeckPath is the canonical package path for a named deck in a session.
func (s Session) DeckPath(deckName string) string {
	return filepath.Join(s.DeckDir(), sanitizeFilename(deckName)+".apkg")
}

// sanitizeFilename replaces characters that are unsafe in filenames.
func sanitizeFilename(name string) string {
	const invalid = `/\:*?"<>|`
	result := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalid, r) {
			return '_'
		}
		return r
	}, name)
	result = strings.TrimSpace(result)
	if result == "" {
		result = "untitled"
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
