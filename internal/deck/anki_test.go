package deck

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckforge/deckforge/internal/pairing"
)

func stagePairs(t *testing.T) (string, []int) {
	t.Helper()
	dir := t.TempDir()
	numbers := []int{1, 2, 3}
	for _, n := range numbers {
		require.NoError(t, os.WriteFile(filepath.Join(dir, itoa(n)+".mp3"), []byte("mp3"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, itoa(n)+".png"), []byte("png"), 0644))
	}
	return dir, numbers
}

func itoa(n int) string { return string(rune('0' + n)) }

func testPairs(t *testing.T) []pairing.Pair {
	t.Helper()
	dir, numbers := stagePairs(t)
	pairs := make([]pairing.Pair, 0, len(numbers))
	for _, n := range numbers {
		pairs = append(pairs, pairing.Pair{
			Number:    n,
			AudioPath: filepath.Join(dir, itoa(n)+".mp3"),
			ImagePath: filepath.Join(dir, itoa(n)+".png"),
		})
	}
	return pairs
}

func TestCreateAnkiDeck(t *testing.T) {
	pairs := testPairs(t)
	out := filepath.Join(t.TempDir(), "deck.apkg")

	err := CreateAnkiDeck(pairs, out, Options{
		DeckName: "Unit 1", ModelName: "Vocabulary",
		Tags: []string{"auto", "vocab"}, Prefix: "Unit_1",
		Style: StyleAudioToImage,
	})
	require.NoError(t, err)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["collection.anki2"])
	assert.True(t, names["media"])
	// Three audio + three image media entries.
	for i := 0; i < 6; i++ {
		assert.True(t, names[string(rune('0'+i))], "missing media entry %d", i)
	}

	// The manifest maps indexes back to original filenames.
	manifest := readManifest(t, &zr.Reader)
	assert.Len(t, manifest, 6)
	assert.Contains(t, mapValues(manifest), "1.mp3")
	assert.Contains(t, mapValues(manifest), "3.png")

	// The collection holds one note and two cards per pair.
	colPath := extractCollection(t, &zr.Reader)
	db, err := sql.Open("sqlite", colPath)
	require.NoError(t, err)
	defer db.Close()

	var notes, cards int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&notes))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&cards))
	assert.Equal(t, 3, notes)
	assert.Equal(t, 6, cards)

	var sortField string
	require.NoError(t, db.QueryRow("SELECT sfld FROM notes ORDER BY id LIMIT 1").Scan(&sortField))
	assert.Equal(t, "Unit_1_1", sortField)
}

func TestCreateAnkiDeckSingleCardStyles(t *testing.T) {
	for _, style := range []CardStyle{StyleAudioOnly, StyleImageOnly, StyleBothSides} {
		t.Run(string(style), func(t *testing.T) {
			pairs := testPairs(t)
			out := filepath.Join(t.TempDir(), "deck.apkg")
			require.NoError(t, CreateAnkiDeck(pairs, out, Options{Style: style}))

			colPath := openDeckCollection(t, out)
			db, err := sql.Open("sqlite", colPath)
			require.NoError(t, err)
			defer db.Close()

			var cards int
			require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&cards))
			assert.Equal(t, len(pairs), cards)
		})
	}
}

func TestCreateAnkiDeckRejectsEmptyInput(t *testing.T) {
	err := CreateAnkiDeck(nil, filepath.Join(t.TempDir(), "deck.apkg"), Options{})
	assert.Error(t, err)
}

func TestHashIDIsStable(t *testing.T) {
	a := hashID("My Vocabulary Deck")
	b := hashID("My Vocabulary Deck")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, hashID("Another Deck"))
	assert.NotZero(t, a)
}

func readManifest(t *testing.T, zr *zip.Reader) map[string]string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != "media" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		var manifest map[string]string
		require.NoError(t, json.NewDecoder(rc).Decode(&manifest))
		return manifest
	}
	t.Fatal("media manifest not found")
	return nil
}

func extractCollection(t *testing.T, zr *zip.Reader) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != "collection.anki2" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		dst := filepath.Join(t.TempDir(), "collection.anki2")
		out, err := os.Create(dst)
		require.NoError(t, err)
		defer out.Close()
		_, err = io.Copy(out, rc)
		require.NoError(t, err)
		return dst
	}
	t.Fatal("collection.anki2 not found")
	return ""
}

func openDeckCollection(t *testing.T, apkgPath string) string {
	t.Helper()
	zr, err := zip.OpenReader(apkgPath)
	require.NoError(t, err)
	defer zr.Close()
	return extractCollection(t, &zr.Reader)
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
