// Package pairing matches extracted audio clips with reference images
// by their leading number and stages the pairs for deck export.
package pairing

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var firstNumber = regexp.MustCompile(`(\d+)`)

// Pair links one number's audio clip and image, already copied under
// canonical names in the staging directory.
type Pair struct {
	Number    int    `json:"number"`
	AudioPath string `json:"audio_path"`
	ImagePath string `json:"image_path"`
}

// Result reports the matched pairs and what was left unmatched on each
// side, so callers can warn about gaps.
type Result struct {
	Pairs         []Pair `json:"pairs"`
	MissingAudio  []int  `json:"missing_audio,omitempty"`  // images with no clip
	MissingImages []int  `json:"missing_images,omitempty"` // clips with no image
}

// PairFiles matches <n>.mp3 clips in audioDir with <n>.png images in
// imageDir and copies each matched pair into outputDir as n.mp3/n.png.
func PairFiles(imageDir, audioDir, outputDir string) (*Result, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	images, err := numberedFiles(imageDir, ".png")
	if err != nil {
		return nil, err
	}
	audio, err := numberedFiles(audioDir, ".mp3")
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for n := range images {
		if _, ok := audio[n]; !ok {
			res.MissingAudio = append(res.MissingAudio, n)
		}
	}
	var common []int
	for n := range audio {
		if _, ok := images[n]; ok {
			common = append(common, n)
		} else {
			res.MissingImages = append(res.MissingImages, n)
		}
	}
	sort.Ints(common)
	sort.Ints(res.MissingAudio)
	sort.Ints(res.MissingImages)

	for _, n := range common {
		audioDst := filepath.Join(outputDir, fmt.Sprintf("%d.mp3", n))
		imageDst := filepath.Join(outputDir, fmt.Sprintf("%d.png", n))
		if err := copyFile(filepath.Join(audioDir, audio[n]), audioDst); err != nil {
			return nil, fmt.Errorf("pair %d: %w", n, err)
		}
		if err := copyFile(filepath.Join(imageDir, images[n]), imageDst); err != nil {
			return nil, fmt.Errorf("pair %d: %w", n, err)
		}
		res.Pairs = append(res.Pairs, Pair{Number: n, AudioPath: audioDst, ImagePath: imageDst})
	}
	return res, nil
}

// numberedFiles maps each leading file number to its filename. When a
// number occurs twice (occurrence-suffixed clips) the plain name wins.
func numberedFiles(dir, ext string) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	files := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		m := firstNumber.FindString(e.Name())
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if prev, ok := files[n]; ok && len(prev) <= len(e.Name()) {
			continue
		}
		files[n] = e.Name()
	}
	return files, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
