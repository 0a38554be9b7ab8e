package media

import (
	"reflect"
	"testing"

	"github.com/deckforge/deckforge/internal/segment"
)

func TestParseSilences(t *testing.T) {
	out := []byte(`[silencedetect @ 0x55] silence_start: 1.25
[silencedetect @ 0x55] silence_end: 2.5 | silence_duration: 1.25
[silencedetect @ 0x55] silence_start: 4.0
[silencedetect @ 0x55] silence_end: 4.75 | silence_duration: 0.75
size=N/A time=00:00:06.00 bitrate=N/A speed= 512x
`)
	got := parseSilences(out, 1000, 7000)
	want := []segment.Range{
		{StartMs: 2250, EndMs: 3500},
		{StartMs: 5000, EndMs: 5750},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseSilencesClosesOpenInterval(t *testing.T) {
	out := []byte("[silencedetect @ 0x55] silence_start: 5.0\n")
	got := parseSilences(out, 0, 6000)
	want := []segment.Range{{StartMs: 5000, EndMs: 6000}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFormatMs(t *testing.T) {
	cases := map[int64]string{
		0:     "0.000",
		400:   "0.400",
		12345: "12.345",
	}
	for ms, want := range cases {
		if got := formatMs(ms); got != want {
			t.Errorf("formatMs(%d) = %q, want %q", ms, got, want)
		}
	}
}
