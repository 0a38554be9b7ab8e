// Package docx extracts numbered reference images from Word documents.
// A paragraph starting with "3." (or "3)", "3:") that embeds a picture
// yields 3.png in the output directory.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
)

const (
	nsWordprocessing = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsDrawing        = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsVML            = "urn:schemas-microsoft-com:vml"
)

var leadingNumber = regexp.MustCompile(`^\s*(\d+)[\.\):]?\s*`)

// ExtractNumberedImages pulls the first embedded image of every
// numbered paragraph out of a .docx file and writes it as
// <number>.png under outputDir. Returns the count of images saved.
func ExtractNumberedImages(docxPath, outputDir string) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	archive, err := zip.OpenReader(docxPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open document: %w", err)
	}
	defer archive.Close()

	media := make(map[string][]byte)
	var documentXML, relsXML []byte
	for _, f := range archive.File {
		switch {
		case strings.HasPrefix(f.Name, "word/media/"):
			data, err := readZipFile(f)
			if err != nil {
				return 0, err
			}
			media[path.Base(f.Name)] = data
		case f.Name == "word/document.xml":
			if documentXML, err = readZipFile(f); err != nil {
				return 0, err
			}
		case f.Name == "word/_rels/document.xml.rels":
			if relsXML, err = readZipFile(f); err != nil {
				return 0, err
			}
		}
	}
	if documentXML == nil {
		return 0, fmt.Errorf("not a Word document: missing word/document.xml")
	}

	relTargets, err := parseRelationships(relsXML)
	if err != nil {
		return 0, err
	}

	paragraphs, err := parseParagraphs(documentXML)
	if err != nil {
		return 0, err
	}

	saved := make(map[int]bool)
	for _, p := range paragraphs {
		m := leadingNumber.FindStringSubmatch(p.text)
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil || saved[number] {
			continue
		}
		for _, relID := range p.imageRels {
			target, ok := relTargets[relID]
			if !ok {
				continue
			}
			data, ok := media[path.Base(target)]
			if !ok {
				continue
			}
			dst := filepath.Join(outputDir, fmt.Sprintf("%d.png", number))
			if err := savePNG(data, dst); err != nil {
				return len(saved), fmt.Errorf("image %d: %w", number, err)
			}
			saved[number] = true
			break // first image per number wins
		}
	}
	return len(saved), nil
}

// paragraph is one <w:p> with its flattened text and the relationship
// IDs of any embedded pictures, in document order.
type paragraph struct {
	text      string
	imageRels []string
}

// parseParagraphs walks document.xml once, collecting paragraph text
// (from w:t runs) and image relationships: both the modern DrawingML
// form (a:blip r:embed) and the legacy VML form (v:imagedata r:id).
func parseParagraphs(documentXML []byte) ([]paragraph, error) {
	var (
		paragraphs []paragraph
		current    *paragraph
		text       strings.Builder
		inText     bool
	)

	dec := xml.NewDecoder(bytes.NewReader(documentXML))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document.xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Space == nsWordprocessing && el.Name.Local == "p":
				current = &paragraph{}
				text.Reset()
			case el.Name.Space == nsWordprocessing && el.Name.Local == "t":
				inText = current != nil
			case el.Name.Space == nsDrawing && el.Name.Local == "blip":
				if current != nil {
					if id := attr(el, nsRelationships, "embed"); id != "" {
						current.imageRels = append(current.imageRels, id)
					}
				}
			case el.Name.Space == nsVML && el.Name.Local == "imagedata":
				if current != nil {
					if id := attr(el, nsRelationships, "id"); id != "" {
						current.imageRels = append(current.imageRels, id)
					}
				}
			}
		case xml.CharData:
			if inText {
				text.Write(el)
			}
		case xml.EndElement:
			switch {
			case el.Name.Space == nsWordprocessing && el.Name.Local == "t":
				inText = false
			case el.Name.Space == nsWordprocessing && el.Name.Local == "p":
				if current != nil {
					current.text = text.String()
					paragraphs = append(paragraphs, *current)
					current = nil
				}
			}
		}
	}
	return paragraphs, nil
}

// parseRelationships maps relationship IDs to their media targets.
func parseRelationships(relsXML []byte) (map[string]string, error) {
	targets := make(map[string]string)
	if relsXML == nil {
		return targets, nil
	}
	var rels struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.Unmarshal(relsXML, &rels); err != nil {
		return nil, fmt.Errorf("malformed document relationships: %w", err)
	}
	for _, r := range rels.Relationships {
		targets[r.ID] = r.Target
	}
	return targets, nil
}

// savePNG re-encodes the image as PNG; if decoding fails (e.g. an EMF
// drawing) the raw bytes are written as-is.
func savePNG(data []byte, dst string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return os.WriteFile(dst, data, 0644)
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func attr(el xml.StartElement, space, local string) string {
	for _, a := range el.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
