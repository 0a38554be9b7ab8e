package segment

// Range is a [StartMs, EndMs) interval within the source audio.
type Range struct {
	StartMs int64
	EndMs   int64
}

// SplitConfig tunes the optional silence-based sub-splitting of one
// clip's range into individual take-repeats. This stage never changes
// marker detection or the monotonicity policy; it only subdivides a
// range the engine already accepted.
type SplitConfig struct {
	MergeGapMs int64 // voiced intervals closer than this are joined
	BufferMs   int64 // padding applied to each sub-range
}

// VoicedFromSilences inverts a list of silence intervals into the
// voiced intervals they leave inside span. Silences are expected in
// ascending order, as ffmpeg's silencedetect reports them.
func VoicedFromSilences(span Range, silences []Range) []Range {
	var voiced []Range
	cursor := span.StartMs
	for _, s := range silences {
		if s.EndMs <= span.StartMs || s.StartMs >= span.EndMs {
			continue
		}
		if s.StartMs > cursor {
			voiced = append(voiced, Range{StartMs: cursor, EndMs: s.StartMs})
		}
		if s.EndMs > cursor {
			cursor = s.EndMs
		}
	}
	if cursor < span.EndMs {
		voiced = append(voiced, Range{StartMs: cursor, EndMs: span.EndMs})
	}
	return voiced
}

// MergeClose joins voiced intervals separated by gaps at or below
// mergeGapMs, so a short breath inside one utterance does not split it.
func MergeClose(voiced []Range, mergeGapMs int64) []Range {
	if len(voiced) == 0 {
		return nil
	}
	merged := []Range{voiced[0]}
	for _, r := range voiced[1:] {
		last := &merged[len(merged)-1]
		if r.StartMs-last.EndMs <= mergeGapMs {
			if r.EndMs > last.EndMs {
				last.EndMs = r.EndMs
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// SubRanges computes the padded, clamped sub-ranges for one clip span
// given the silences detected inside it. When nothing voiced was found
// the whole span is returned, so a clip is never lost to an overly
// aggressive silence threshold.
func SubRanges(span Range, silences []Range, cfg SplitConfig, durationMs int64) []Range {
	utterances := MergeClose(VoicedFromSilences(span, silences), cfg.MergeGapMs)
	if len(utterances) == 0 {
		utterances = []Range{span}
	}
	out := make([]Range, 0, len(utterances))
	for _, u := range utterances {
		start := u.StartMs - cfg.BufferMs
		end := u.EndMs + cfg.BufferMs
		if start < 0 {
			start = 0
		}
		if durationMs > 0 && end > durationMs {
			end = durationMs
		}
		out = append(out, Range{StartMs: start, EndMs: end})
	}
	return out
}
