package transcribe

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/deckforge/deckforge/internal/segment"
)

// WhisperTranscriber wraps the faster-whisper CLI (whisper-ctranslate2)
// for word-level transcription.
type WhisperTranscriber struct {
	modelName string
	device    string
	useVAD    bool
	tempDir   string
	mu        sync.Mutex // one transcription at a time
}

// NewWhisperTranscriber creates a transcriber for the given model
// (tiny/base/small/medium/large), device (cpu/cuda/auto) and VAD
// setting. CLI availability is verified on first transcription.
func NewWhisperTranscriber(modelName, device, tempDir string, useVAD bool) (*WhisperTranscriber, error) {
	if modelName == "" {
		modelName = "small"
	}
	if device == "" {
		device = "cpu"
	}

	log.Printf("Initializing faster-whisper with model: %s (device: %s, vad: %v)", modelName, device, useVAD)

	return &WhisperTranscriber{
		modelName: modelName,
		device:    device,
		useVAD:    useVAD,
		tempDir:   tempDir,
	}, nil
}

// Transcribe processes an audio file and returns the word stream.
func (wt *WhisperTranscriber) Transcribe(audioPath string) (*Result, error) {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	log.Printf("Transcribing with faster-whisper: %s", audioPath)

	outDir, err := os.MkdirTemp(wt.tempDir, "whisper_output_")
	if err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	args := []string{
		absAudioPath,
		"--model", wt.modelName,
		"--device", wt.device,
		"--output_dir", outDir,
		"--output_format", "json",
		"--language", "en",
		"--word_timestamps", "True",
		"--vad_filter", strconv.FormatBool(wt.useVAD),
	}

	cmd := exec.Command("whisper-ctranslate2", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w\noutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outDir, baseName+".json")

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}

	result, err := ParseWhisperJSON(jsonData)
	if err != nil {
		return nil, err
	}

	log.Printf("Transcription completed: %d words, language %s", len(result.Words), result.Language)
	return result, nil
}

// ParseWhisperJSON flattens whisper's JSON output into the word stream
// the segmentation engine consumes.
func ParseWhisperJSON(data []byte) (*Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %w", err)
	}

	result := &Result{
		Language: out.Language,
		Text:     strings.TrimSpace(out.Text),
	}
	for _, seg := range out.Segments {
		for _, w := range seg.Words {
			raw := strings.TrimSpace(w.Word)
			if raw == "" {
				continue
			}
			result.Words = append(result.Words, segment.NewWord(w.Start, w.End, raw))
		}
	}
	return result, nil
}

// whisperOutput matches the whisper JSON output format with word
// timestamps enabled.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
		Words []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Word  string  `json:"word"`
		} `json:"words"`
	} `json:"segments"`
}
