package handlers

import "testing"

func TestExtractGDriveFileID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://drive.google.com/file/d/1aBcD_efG-123456789012345/view", "1aBcD_efG-123456789012345"},
		{"https://drive.google.com/open?id=1aBcD_efG-123456789012345", "1aBcD_efG-123456789012345"},
		{"1aBcD_efG-1234567890123456789012345", "1aBcD_efG-1234567890123456789012345"},
		{"https://example.com/not-drive", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractGDriveFileID(tt.url); got != tt.want {
			t.Errorf("extractGDriveFileID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestParseBufferMs(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{"", 0},
		{"250", 250},
		{"-5", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseBufferMs(tt.value); got != tt.want {
			t.Errorf("parseBufferMs(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}
