package segment

import "strings"

// Marker is a word or word-pair recognized as denoting a sequence number.
type Marker struct {
	Value    int
	Position int
	Tokens   int    // words consumed: 1 or 2
	Raw      string // originating transcript token, kept for diagnostics
}

// matcher inspects the word stream at a cursor and reports a candidate
// marker value plus the number of tokens it would consume.
type matcher func(words []Word, i int) (value, tokens int, ok bool)

// Detector recognizes number markers inside a timestamped word stream.
// It holds no state beyond its vocabulary.
type Detector struct {
	vocab    Vocabulary
	matchers []matcher
}

// NewDetector builds a detector over the given vocabulary. Matchers are
// tried in priority order, first match wins: a spoken "number one" must
// not be split into a bare "number" plus a bare "one".
func NewDetector(vocab Vocabulary) *Detector {
	d := &Detector{vocab: vocab}
	d.matchers = []matcher{
		d.matchCompound,
		d.matchExact,
		d.matchLooseRaw,
	}
	return d
}

// DetectAt reports whether a marker starts at index i.
func (d *Detector) DetectAt(words []Word, i int) (Marker, bool) {
	if i < 0 || i >= len(words) {
		return Marker{}, false
	}
	for _, m := range d.matchers {
		if value, tokens, ok := m(words, i); ok {
			return Marker{
				Value:    value,
				Position: i,
				Tokens:   tokens,
				Raw:      words[i].Raw,
			}, true
		}
	}
	return Marker{}, false
}

// matchCompound handles the "number X" form, where X is a spelled-out
// number word or an all-digit token. Consumes both words.
func (d *Detector) matchCompound(words []Word, i int) (int, int, bool) {
	if words[i].Norm != "number" || i+1 >= len(words) {
		return 0, 0, false
	}
	if n, ok := d.vocab.Value(words[i+1].Norm); ok {
		return n, 2, true
	}
	return 0, 0, false
}

// matchExact handles a bare number word or digit token.
func (d *Detector) matchExact(words []Word, i int) (int, int, bool) {
	if n, ok := d.vocab.Value(words[i].Norm); ok {
		return n, 1, true
	}
	return 0, 0, false
}

// matchLooseRaw re-normalizes the raw token independently of the
// primary tokenization and collapses hyphens, catching compounds like
// "twenty-one" that the stricter forms missed. Digits are not
// re-checked here; the exact matcher already covers them.
func (d *Detector) matchLooseRaw(words []Word, i int) (int, int, bool) {
	loose := strings.ReplaceAll(NormalizeToken(words[i].Raw), "-", "")
	if n, ok := d.vocab.Lookup(loose); ok {
		return n, 1, true
	}
	return 0, 0, false
}
