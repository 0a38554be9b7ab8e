package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhisperJSON(t *testing.T) {
	data := []byte(`{
		"text": " Number one. Cat.",
		"language": "en",
		"segments": [
			{
				"id": 0, "start": 0.0, "end": 2.4, "text": " Number one. Cat.",
				"words": [
					{"start": 0.0, "end": 0.5, "word": " Number"},
					{"start": 0.5, "end": 0.9, "word": " one."},
					{"start": 1.4, "end": 2.4, "word": " Cat."}
				]
			}
		]
	}`)

	result, err := ParseWhisperJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "en", result.Language)
	assert.Equal(t, "Number one. Cat.", result.Text)
	require.Len(t, result.Words, 3)

	assert.Equal(t, "Number", result.Words[0].Raw)
	assert.Equal(t, "number", result.Words[0].Norm)
	assert.Equal(t, "one", result.Words[1].Norm)
	assert.Equal(t, 1.4, result.Words[2].Start)
	assert.Equal(t, 2.4, result.Words[2].End)
}

func TestParseWhisperJSONEmptyTranscript(t *testing.T) {
	result, err := ParseWhisperJSON([]byte(`{"text": "", "language": "en", "segments": []}`))
	require.NoError(t, err)
	assert.Empty(t, result.Words)
}

func TestParseWhisperJSONMalformed(t *testing.T) {
	_, err := ParseWhisperJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestValidateAudioFormat(t *testing.T) {
	assert.True(t, ValidateAudioFormat("recording.MP3"))
	assert.True(t, ValidateAudioFormat("take2.aac"))
	assert.False(t, ValidateAudioFormat("notes.txt"))
	assert.False(t, ValidateAudioFormat("noextension"))
}
