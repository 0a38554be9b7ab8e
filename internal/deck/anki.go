// Package deck exports paired clips and images as an Anki .apkg
// archive: a SQLite collection plus a zip of numbered media files.
package deck

import (
	"archive/zip"
	"crypto/md5"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deckforge/deckforge/internal/pairing"
)

// CardStyle selects the note templates generated for each pair.
type CardStyle string

const (
	// StyleAudioToImage generates two cards per note: Audio→Image and
	// Image→Audio.
	StyleAudioToImage CardStyle = "audio_to_image"
	// StyleAudioOnly generates one card: audio on the front.
	StyleAudioOnly CardStyle = "audio_only"
	// StyleImageOnly generates one card: image on the front.
	StyleImageOnly CardStyle = "image_only"
	// StyleBothSides puts audio and image on the front, number on the back.
	StyleBothSides CardStyle = "both_sides"
)

// Options configures one deck export.
type Options struct {
	DeckName  string
	ModelName string
	Tags      []string
	Prefix    string // unit/session prefix for card numbers
	Style     CardStyle
}

type template struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
	Qfmt string `json:"qfmt"`
	Afmt string `json:"afmt"`
}

const answerSuffix = `{{FrontSide}}<hr id="answer"><br>%s<br><small>{{Number}}</small>`

// templatesFor returns the card templates for a style. Unknown styles
// fall back to both_sides rather than erroring.
func templatesFor(style CardStyle) []template {
	soundToImage := template{
		Name: "Sound->Image",
		Qfmt: "{{Audio}}",
		Afmt: fmt.Sprintf(answerSuffix, "{{Image}}"),
	}
	imageToSound := template{
		Name: "Image->Sound",
		Qfmt: "{{Image}}",
		Afmt: fmt.Sprintf(answerSuffix, "{{Audio}}"),
	}
	switch style {
	case StyleAudioToImage:
		imageToSound.Ord = 1
		return []template{soundToImage, imageToSound}
	case StyleAudioOnly:
		return []template{soundToImage}
	case StyleImageOnly:
		return []template{imageToSound}
	default:
		return []template{{
			Name: "Both->Number",
			Qfmt: "{{Audio}}<br>{{Image}}",
			Afmt: `{{FrontSide}}<hr id="answer"><br>{{Number}}`,
		}}
	}
}

// CardsFor reports how many cards a deck of pairCount notes generates
// under the given style.
func CardsFor(style CardStyle, pairCount int) int {
	return pairCount * len(templatesFor(style))
}

// CreateAnkiDeck builds an .apkg file at outPath from the paired media.
// Deck and model IDs are hash-derived from their names so re-imports of
// the same deck update instead of duplicating.
func CreateAnkiDeck(pairs []pairing.Pair, outPath string, opts Options) error {
	if len(pairs) == 0 {
		return fmt.Errorf("no paired files to export")
	}
	if opts.DeckName == "" {
		opts.DeckName = "Vocabulary Deck"
	}
	if opts.ModelName == "" {
		opts.ModelName = "Vocabulary"
	}

	workDir, err := os.MkdirTemp("", "apkg_")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	collectionPath := filepath.Join(workDir, "collection.anki2")
	if err := writeCollection(collectionPath, pairs, opts); err != nil {
		return fmt.Errorf("failed to build collection: %w", err)
	}

	return writeArchive(outPath, collectionPath, pairs)
}

// hashID derives a stable 32-bit ID from a name, mirroring the md5
// prefix scheme the deck format expects for conflict-free re-imports.
func hashID(name string) int64 {
	sum := md5.Sum([]byte(name))
	id, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return id
}

func writeCollection(path string, pairs []pairing.Pair, opts Options) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open collection db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(collectionSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	now := time.Now()
	nowSec := now.Unix()
	deckID := hashID(opts.DeckName)
	modelID := hashID(opts.ModelName + "_" + string(opts.Style))
	tmpls := templatesFor(opts.Style)

	colJSON, err := collectionJSON(opts, deckID, modelID, tmpls, nowSec)
	if err != nil {
		return err
	}
	if _, err := db.Exec(
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (1, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		nowSec, nowSec*1000, nowSec*1000,
		colJSON.conf, colJSON.models, colJSON.decks, colJSON.dconf,
	); err != nil {
		return fmt.Errorf("failed to insert collection row: %w", err)
	}

	noteStmt, err := db.Prepare(
		`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		 VALUES (?, ?, ?, ?, -1, ?, ?, ?, ?, 0, '')`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	cardStmt, err := db.Prepare(
		`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl,
		                    factor, reps, lapses, left, odue, odid, flags, data)
		 VALUES (?, ?, ?, ?, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	tags := " " + strings.Join(opts.Tags, " ") + " "
	if len(opts.Tags) == 0 {
		tags = ""
	}

	noteID := now.UnixMilli()
	cardID := noteID + int64(len(pairs))
	for i, p := range pairs {
		number := strconv.Itoa(p.Number)
		if opts.Prefix != "" {
			number = opts.Prefix + "_" + number
		}
		fields := []string{
			number,
			fmt.Sprintf("[sound:%s]", filepath.Base(p.AudioPath)),
			fmt.Sprintf(`<img src="%s">`, filepath.Base(p.ImagePath)),
		}
		flds := strings.Join(fields, "\x1f")

		id := noteID + int64(i)
		if _, err := noteStmt.Exec(id, noteGUID(flds), modelID, nowSec, tags, flds, fields[0], fieldChecksum(fields[0])); err != nil {
			return fmt.Errorf("note %d: %w", p.Number, err)
		}
		for _, tmpl := range tmpls {
			if _, err := cardStmt.Exec(cardID, id, deckID, tmpl.Ord, nowSec, i+1); err != nil {
				return fmt.Errorf("card %d/%d: %w", p.Number, tmpl.Ord, err)
			}
			cardID++
		}
	}
	return nil
}

// noteGUID derives a stable per-note identifier from the field content.
func noteGUID(flds string) string {
	sum := md5.Sum([]byte(flds))
	return hex.EncodeToString(sum[:])[:10]
}

// fieldChecksum is the integer form of the first 8 hex chars of the
// sort field's sha1, as the collection format requires.
func fieldChecksum(sortField string) int64 {
	sum := sha1.Sum([]byte(sortField))
	n, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return n
}

type colBlobs struct {
	conf, models, decks, dconf string
}

func collectionJSON(opts Options, deckID, modelID int64, tmpls []template, nowSec int64) (colBlobs, error) {
	mid := strconv.FormatInt(modelID, 10)
	did := strconv.FormatInt(deckID, 10)

	conf := map[string]any{
		"activeDecks": []int64{deckID}, "addToCur": true, "collapseTime": 1200,
		"curDeck": deckID, "curModel": mid, "dueCounts": true, "estTimes": true,
		"newBury": true, "newSpread": 0, "nextPos": 1, "sortBackwards": false,
		"sortType": "noteFld", "timeLim": 0,
	}

	fieldNames := []string{"Number", "Audio", "Image"}
	flds := make([]map[string]any, len(fieldNames))
	for i, name := range fieldNames {
		flds[i] = map[string]any{
			"name": name, "ord": i, "sticky": false, "rtl": false,
			"font": "Arial", "size": 20, "media": []string{},
		}
	}
	tmplMaps := make([]map[string]any, len(tmpls))
	req := make([][]any, len(tmpls))
	for i, tm := range tmpls {
		tmplMaps[i] = map[string]any{
			"name": tm.Name, "ord": tm.Ord, "qfmt": tm.Qfmt, "afmt": tm.Afmt,
			"bqfmt": "", "bafmt": "", "did": nil, "bfont": "", "bsize": 0,
		}
		// The front side always renders at least one non-empty field.
		req[i] = []any{tm.Ord, "any", []int{0, 1, 2}}
	}
	models := map[string]any{
		mid: map[string]any{
			"id": modelID, "name": opts.ModelName, "type": 0, "mod": nowSec,
			"usn": -1, "sortf": 0, "did": deckID, "vers": []string{}, "tags": []string{},
			"flds": flds, "tmpls": tmplMaps, "req": req,
			"css":       ".card { font-family: arial; font-size: 24px; text-align: center; color: black; background-color: white; }",
			"latexPre":  "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\pagestyle{empty}\n\\begin{document}\n",
			"latexPost": "\\end{document}",
			"latexsvg":  false,
		},
	}

	decks := map[string]any{
		"1": map[string]any{
			"id": 1, "name": "Default", "desc": "", "mod": nowSec, "usn": 0,
			"collapsed": false, "browserCollapsed": false,
			"newToday": []int{0, 0}, "revToday": []int{0, 0},
			"lrnToday": []int{0, 0}, "timeToday": []int{0, 0},
			"dyn": 0, "extendNew": 0, "extendRev": 0, "conf": 1,
		},
		did: map[string]any{
			"id": deckID, "name": opts.DeckName, "desc": "", "mod": nowSec, "usn": -1,
			"collapsed": false, "browserCollapsed": false,
			"newToday": []int{0, 0}, "revToday": []int{0, 0},
			"lrnToday": []int{0, 0}, "timeToday": []int{0, 0},
			"dyn": 0, "extendNew": 0, "extendRev": 0, "conf": 1,
		},
	}

	dconf := map[string]any{
		"1": map[string]any{
			"id": 1, "name": "Default", "autoplay": true, "dyn": false,
			"maxTaken": 60, "replayq": true, "timer": 0, "usn": 0, "mod": 0,
			"new": map[string]any{
				"bury": true, "delays": []int{1, 10}, "initialFactor": 2500,
				"ints": []int{1, 4, 7}, "order": 1, "perDay": 20, "separate": true,
			},
			"lapse": map[string]any{
				"delays": []int{10}, "leechAction": 0, "leechFails": 8,
				"minInt": 1, "mult": 0,
			},
			"rev": map[string]any{
				"bury": true, "ease4": 1.3, "fuzz": 0.05, "ivlFct": 1,
				"maxIvl": 36500, "minSpace": 1, "perDay": 100,
			},
		},
	}

	out := colBlobs{}
	for _, blob := range []struct {
		dst *string
		src any
	}{
		{&out.conf, conf}, {&out.models, models}, {&out.decks, decks}, {&out.dconf, dconf},
	} {
		b, err := json.Marshal(blob.src)
		if err != nil {
			return colBlobs{}, fmt.Errorf("failed to encode collection blob: %w", err)
		}
		*blob.dst = string(b)
	}
	return out, nil
}

// writeArchive zips the collection and media into the .apkg layout:
// media files named by index with a "media" JSON manifest.
func writeArchive(outPath, collectionPath string, pairs []pairing.Pair) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	manifest := make(map[string]string)
	idx := 0
	addMedia := func(path string) error {
		name := strconv.Itoa(idx)
		manifest[name] = filepath.Base(path)
		idx++
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	}

	for _, p := range pairs {
		if err := addMedia(p.AudioPath); err != nil {
			return fmt.Errorf("failed to add %s: %w", p.AudioPath, err)
		}
		if err := addMedia(p.ImagePath); err != nil {
			return fmt.Errorf("failed to add %s: %w", p.ImagePath, err)
		}
	}

	mw, err := zw.Create("media")
	if err != nil {
		return err
	}
	if err := json.NewEncoder(mw).Encode(manifest); err != nil {
		return fmt.Errorf("failed to write media manifest: %w", err)
	}

	cw, err := zw.Create("collection.anki2")
	if err != nil {
		return err
	}
	col, err := os.Open(collectionPath)
	if err != nil {
		return err
	}
	defer col.Close()
	if _, err := io.Copy(cw, col); err != nil {
		return fmt.Errorf("failed to write collection: %w", err)
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

const collectionSchema = `
CREATE TABLE col (
    id     integer primary key,
    crt    integer not null,
    mod    integer not null,
    scm    integer not null,
    ver    integer not null,
    dty    integer not null,
    usn    integer not null,
    ls     integer not null,
    conf   text not null,
    models text not null,
    decks  text not null,
    dconf  text not null,
    tags   text not null
);
CREATE TABLE notes (
    id    integer primary key,
    guid  text not null,
    mid   integer not null,
    mod   integer not null,
    usn   integer not null,
    tags  text not null,
    flds  text not null,
    sfld  integer not null,
    csum  integer not null,
    flags integer not null,
    data  text not null
);
CREATE TABLE cards (
    id     integer primary key,
    nid    integer not null,
    did    integer not null,
    ord    integer not null,
    mod    integer not null,
    usn    integer not null,
    type   integer not null,
    queue  integer not null,
    due    integer not null,
    ivl    integer not null,
    factor integer not null,
    reps   integer not null,
    lapses integer not null,
    left   integer not null,
    odue   integer not null,
    odid   integer not null,
    flags  integer not null,
    data   text not null
);
CREATE TABLE revlog (
    id      integer primary key,
    cid     integer not null,
    usn     integer not null,
    ease    integer not null,
    ivl     integer not null,
    lastIvl integer not null,
    factor  integer not null,
    time    integer not null,
    type    integer not null
);
CREATE TABLE graves (
    usn  integer not null,
    oid  integer not null,
    type integer not null
);
CREATE INDEX ix_notes_usn ON notes (usn);
CREATE INDEX ix_cards_usn ON cards (usn);
CREATE INDEX ix_revlog_usn ON revlog (usn);
CREATE INDEX ix_cards_nid ON cards (nid);
CREATE INDEX ix_cards_sched ON cards (did, queue, due);
CREATE INDEX ix_revlog_cid ON revlog (cid);
CREATE INDEX ix_notes_csum ON notes (csum);
`
