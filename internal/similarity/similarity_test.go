package similarity

import "testing"

func TestScore_Identity(t *testing.T) {
	for _, s := range []string{"go", "technology", "slow burn", "C++", "a"} {
		if got := Score(s, s); got != MaxScore {
			t.Errorf("Score(%q, %q) = %d, want %d", s, s, got, MaxScore)
		}
	}
}

func TestScore_IdentityAfterNormalization(t *testing.T) {
	if got := Score("  Technology ", "technology"); got != MaxScore {
		t.Errorf("Score with whitespace/case differences = %d, want %d", got, MaxScore)
	}
}

func TestScore_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"technology", "technolgy"},
		{"news", "new"},
		{"golang", "go"},
		{"science fiction", "fiction science"},
		{"cats", "dogs"},
		{"", "something"},
	}
	for _, p := range pairs {
		ab := Score(p[0], p[1])
		ba := Score(p[1], p[0])
		if ab != ba {
			t.Errorf("Score(%q, %q) = %d but Score(%q, %q) = %d", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestScore_TypoScoresHigh(t *testing.T) {
	// Single-character edits must clear the deduplication warning bar,
	// including on short names where bigram overlap alone falls short.
	typos := [][2]string{
		{"technology", "technolgy"},
		{"programming", "programing"},
		{"javascript", "javascrpt"},
		{"news", "new"},
		{"cat", "cats"},
		{"go", "got"},
	}
	for _, p := range typos {
		if got := Score(p[0], p[1]); got < 80 {
			t.Errorf("Score(%q, %q) = %d, want >= 80", p[0], p[1], got)
		}
	}
}

func TestScore_DisjointScoresLow(t *testing.T) {
	pairs := [][2]string{
		{"abc", "xyz"},
		{"golang", "music"},
		{"qqq", "zzz"},
	}
	for _, p := range pairs {
		if got := Score(p[0], p[1]); got > 15 {
			t.Errorf("Score(%q, %q) = %d, want near 0", p[0], p[1], got)
		}
	}
}

func TestScore_EmptyInputs(t *testing.T) {
	if got := Score("", ""); got != 0 {
		t.Errorf("Score(\"\", \"\") = %d, want 0", got)
	}
	if got := Score("", "tag"); got != 0 {
		t.Errorf("Score(\"\", \"tag\") = %d, want 0", got)
	}
}

func TestScore_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "ab"},
		{"long tag name here", "another long tag name"},
		{"x", "x y z"},
		{"go lang", "lang go"},
	}
	for _, p := range pairs {
		got := Score(p[0], p[1])
		if got < 0 || got > MaxScore {
			t.Errorf("Score(%q, %q) = %d, out of [0,%d]", p[0], p[1], got, MaxScore)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"technology", "technolgy", 1},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
