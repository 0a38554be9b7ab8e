package segment

import "testing"

func TestNormalizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{" One.", "one"},
		{"TWENTY-ONE", "twenty-one"},
		{"number!", "number"},
		{"8,", "8"},
		{"...", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeToken(c.in); got != c.want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDetectAt(t *testing.T) {
	d := NewDetector(NewVocabulary(nil))

	cases := []struct {
		name   string
		tokens []string
		at     int
		value  int
		consumed int
		ok     bool
	}{
		{"bare word", []string{"one", "cat"}, 0, 1, 1, true},
		{"bare digit", []string{"8", "cat"}, 0, 8, 1, true},
		{"compound word", []string{"number", "two", "cat"}, 0, 2, 2, true},
		{"compound digit", []string{"number", "12", "cat"}, 0, 12, 2, true},
		{"compound wins over bare number", []string{"number", "one"}, 0, 1, 2, true},
		{"bare number without successor", []string{"cat", "number"}, 1, 0, 0, false},
		{"number before non-number", []string{"number", "cat"}, 0, 0, 0, false},
		{"hyphenated compound via loose raw", []string{"twenty-one", "cat"}, 0, 21, 1, true},
		{"plain word", []string{"cat"}, 0, 0, 0, false},
		{"out of range", []string{"one"}, 3, 0, 0, false},
		{"punctuated word", []string{"Three,", "cat"}, 0, 3, 1, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			words := speech(c.tokens...)
			m, ok := d.DetectAt(words, c.at)
			if ok != c.ok {
				t.Fatalf("ok = %v, want %v", ok, c.ok)
			}
			if !ok {
				return
			}
			if m.Value != c.value || m.Tokens != c.consumed {
				t.Errorf("got value=%d tokens=%d, want value=%d tokens=%d",
					m.Value, m.Tokens, c.value, c.consumed)
			}
			if m.Position != c.at {
				t.Errorf("position = %d, want %d", m.Position, c.at)
			}
		})
	}
}

func TestVocabularyExtension(t *testing.T) {
	v := NewVocabulary(map[string]int{"forty": 40, "Fifty!": 50})

	if n, ok := v.Value("forty"); !ok || n != 40 {
		t.Errorf("extended word not recognized: %d %v", n, ok)
	}
	// Extra entries are normalized on the way in.
	if n, ok := v.Value("fifty"); !ok || n != 50 {
		t.Errorf("extra entry not normalized: %d %v", n, ok)
	}
	if _, ok := v.Lookup("31"); ok {
		t.Error("Lookup should not match digits")
	}
	if n, ok := v.Value("31"); !ok || n != 31 {
		t.Errorf("Value should parse digits: %d %v", n, ok)
	}
}
