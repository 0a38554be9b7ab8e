package segment

import (
	"reflect"
	"testing"
)

func TestVoicedFromSilences(t *testing.T) {
	span := Range{StartMs: 1000, EndMs: 5000}

	cases := []struct {
		name     string
		silences []Range
		want     []Range
	}{
		{
			"no silences",
			nil,
			[]Range{{1000, 5000}},
		},
		{
			"single interior silence",
			[]Range{{2000, 2500}},
			[]Range{{1000, 2000}, {2500, 5000}},
		},
		{
			"silence at span start",
			[]Range{{1000, 1800}},
			[]Range{{1800, 5000}},
		},
		{
			"silence past span end",
			[]Range{{4500, 6000}},
			[]Range{{1000, 4500}},
		},
		{
			"silence outside span ignored",
			[]Range{{0, 500}, {6000, 7000}},
			[]Range{{1000, 5000}},
		},
		{
			"fully silent",
			[]Range{{500, 6000}},
			nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := VoicedFromSilences(span, c.silences)
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestMergeClose(t *testing.T) {
	voiced := []Range{{0, 100}, {150, 300}, {900, 1000}}

	got := MergeClose(voiced, 100)
	want := []Range{{0, 300}, {900, 1000}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if MergeClose(nil, 100) != nil {
		t.Error("merging nothing should stay nil")
	}
}

func TestSubRangesFallsBackToWholeSpan(t *testing.T) {
	span := Range{StartMs: 1000, EndMs: 2000}
	// Everything silent: the whole span must survive.
	got := SubRanges(span, []Range{{900, 2100}}, SplitConfig{BufferMs: 100}, 10_000)
	want := []Range{{900, 2100}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSubRangesPadsAndClamps(t *testing.T) {
	span := Range{StartMs: 100, EndMs: 4000}
	cfg := SplitConfig{MergeGapMs: 470, BufferMs: 400}

	got := SubRanges(span, []Range{{1500, 2500}}, cfg, 4200)
	want := []Range{
		{0, 1900},    // 100-400 clamped to 0, 1500+400
		{2100, 4200}, // 2500-400, 4000+400 clamped to duration
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
