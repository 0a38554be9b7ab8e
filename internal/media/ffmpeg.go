package media

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/deckforge/deckforge/internal/segment"
)

// Slicer cuts one [startMs, endMs) range out of a source audio file and
// encodes it at dst. Split out as an interface so the segmentation
// pipeline can be exercised without the ffmpeg binary.
type Slicer interface {
	Slice(src string, startMs, endMs int64, dst string) error
}

// FFmpeg drives the system ffmpeg and ffprobe binaries.
type FFmpeg struct{}

// Slice extracts a clip and encodes it as MP3.
func (FFmpeg) Slice(src string, startMs, endMs int64, dst string) error {
	cmd := exec.Command("ffmpeg",
		"-y",
		"-ss", formatMs(startMs),
		"-to", formatMs(endMs),
		"-i", src,
		"-vn",
		"-codec:a", "libmp3lame",
		"-q:a", "2",
		dst,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg slice failed: %w\noutput: %s", err, string(output))
	}
	return nil
}

// DurationMs probes the total length of a media file.
func (FFmpeg) DurationMs(path string) (int64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q: %w", out, err)
	}
	return int64(seconds * 1000), nil
}

// Silences runs the silencedetect filter over one region of the source
// audio and returns the detected silence intervals in absolute
// milliseconds. noiseDB is the threshold below which audio counts as
// silence (e.g. -30), minSilenceMs the shortest reported pause.
func (FFmpeg) Silences(path string, region segment.Range, noiseDB float64, minSilenceMs int64) ([]segment.Range, error) {
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-nostats",
		"-ss", formatMs(region.StartMs),
		"-to", formatMs(region.EndMs),
		"-i", path,
		"-af", fmt.Sprintf("silencedetect=noise=%.1fdB:d=%s", noiseDB, formatMs(minSilenceMs)),
		"-f", "null", "-",
	)
	// silencedetect reports on stderr.
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg silencedetect failed: %w\noutput: %s", err, string(output))
	}
	return parseSilences(output, region.StartMs, region.EndMs), nil
}

// parseSilences extracts silence_start/silence_end pairs from ffmpeg's
// silencedetect log output. Timestamps are relative to the cut region,
// so they are shifted back by offsetMs. A silence still open at region
// end is closed at endMs.
func parseSilences(output []byte, offsetMs, endMs int64) []segment.Range {
	var (
		silences []segment.Range
		current  *segment.Range
	)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if ms, ok := silenceField(line, "silence_start:"); ok {
			current = &segment.Range{StartMs: ms + offsetMs}
			continue
		}
		if ms, ok := silenceField(line, "silence_end:"); ok && current != nil {
			current.EndMs = ms + offsetMs
			silences = append(silences, *current)
			current = nil
		}
	}
	if current != nil {
		current.EndMs = endMs
		silences = append(silences, *current)
	}
	return silences
}

func silenceField(line, key string) (int64, bool) {
	idx := strings.Index(line, key)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[idx+len(key):])
	if cut := strings.IndexByte(rest, ' '); cut >= 0 {
		rest = rest[:cut]
	}
	seconds, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return 0, false
	}
	return int64(seconds * 1000), true
}

// formatMs renders milliseconds as fractional seconds for ffmpeg args.
func formatMs(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 3, 64)
}
