package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
)

var validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Science Fiction", "science-fiction"},
		{"slow_burn", "slow-burn"},
		{"SLOW-BURN", "slow-burn"},
		{"  multi   word ", "multi-word"},
		{"--leading--", "leading"},
		{"Café Culture", "cafe-culture"},
		{"C++ & Go", "cpp-and-go"},
		{"C# Tips", "c-sharp-tips"},
		{"Node.js Patterns", "nodejs-patterns"},
		{"Łódź", "lodz"},
		{"Straße", "strasse"},
		{"50% Off", "50-percent-off"},
		{"me@home", "me-at-home"},
		{"naïve façade", "naive-facade"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Generate(tt.input, 0)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate_EmptyInputs(t *testing.T) {
	if got := Generate("", 0); got != "" {
		t.Errorf("Generate(\"\") = %q, want empty", got)
	}
	if got := Generate("   ", 0); got != "" {
		t.Errorf("Generate(whitespace) = %q, want empty", got)
	}
	// Pure symbols strip to nothing.
	if got := Generate("!!!", 0); got != "" {
		t.Errorf("Generate(\"!!!\") = %q, want empty", got)
	}
}

func TestGenerate_CharsetAndLength(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"  Tabs\tand\nnewlines  ",
		"ÀÉÎÕÜ çñ",
		"a very long title that keeps going and going and going and going and going",
		"1234567890",
		"emoji 🐉 dragons",
		"C++ && C# @ 50%",
	}

	for _, in := range inputs {
		for _, maxLen := range []int{10, 25, 100} {
			got := Generate(in, maxLen)
			if got == "" {
				continue
			}
			if !validSlug.MatchString(got) {
				t.Errorf("Generate(%q, %d) = %q: invalid characters or hyphen placement", in, maxLen, got)
			}
			if len(got) > maxLen {
				t.Errorf("Generate(%q, %d) = %q: length %d exceeds max", in, maxLen, got, len(got))
			}
		}
	}
}

func TestGenerate_TruncationNoTrailingHyphen(t *testing.T) {
	// Truncation point lands on a hyphen; it must be trimmed.
	got := Generate("abcde fghij klmno", 12)
	if strings.HasSuffix(got, "-") {
		t.Errorf("Generate truncation left trailing hyphen: %q", got)
	}
	if len(got) > 12 {
		t.Errorf("Generate = %q, exceeds max length 12", got)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate("Enemies to Lovers", 50)
	b := Generate("Enemies to Lovers", 50)
	if a != b {
		t.Errorf("Generate not deterministic: %q vs %q", a, b)
	}
}

func TestRandom(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		r := Random()
		if len(r) != 8 {
			t.Fatalf("Random() = %q, want 8 characters", r)
		}
		if !validSlug.MatchString(r) {
			t.Fatalf("Random() = %q, not slug-safe", r)
		}
		seen[r] = true
	}
	if len(seen) < 90 {
		t.Errorf("Random() produced only %d distinct values in 100 draws", len(seen))
	}
}

// memExists builds an ExistsFunc over a fixed set of taken slugs.
func memExists(taken ...string) ExistsFunc {
	set := make(map[string]bool, len(taken))
	for _, s := range taken {
		set[s] = true
	}
	return func(_ context.Context, slug, _ string) (bool, error) {
		return set[slug], nil
	}
}

func TestGenerateUnique_NoCollision(t *testing.T) {
	got, err := GenerateUnique(context.Background(), "Fresh Title", 100, memExists(), "")
	if err != nil {
		t.Fatalf("GenerateUnique: %v", err)
	}
	if got != "fresh-title" {
		t.Errorf("got %q, want %q", got, "fresh-title")
	}
}

func TestGenerateUnique_CounterSuffix(t *testing.T) {
	exists := memExists("fresh-title", "fresh-title-1", "fresh-title-2")
	got, err := GenerateUnique(context.Background(), "Fresh Title", 100, exists, "")
	if err != nil {
		t.Fatalf("GenerateUnique: %v", err)
	}
	if got != "fresh-title-3" {
		t.Errorf("got %q, want %q", got, "fresh-title-3")
	}
}

func TestGenerateUnique_EmptyInputFallsBackToRandom(t *testing.T) {
	got, err := GenerateUnique(context.Background(), "   ", 100, memExists(), "")
	if err != nil {
		t.Fatalf("GenerateUnique: %v", err)
	}
	if len(got) != 8 || !validSlug.MatchString(got) {
		t.Errorf("got %q, want 8-char random slug", got)
	}
}

func TestGenerateUnique_ExhaustedCounterUsesRandomSuffix(t *testing.T) {
	// Everything with the base prefix is taken.
	exists := func(_ context.Context, slug, _ string) (bool, error) {
		return strings.HasPrefix(slug, "hot"), nil
	}
	got, err := GenerateUnique(context.Background(), "hot", 100, exists, "")
	if err != nil {
		t.Fatalf("GenerateUnique: %v", err)
	}
	if !strings.HasPrefix(got, "hot-") {
		t.Fatalf("got %q, want random-suffixed slug", got)
	}
	suffix := strings.TrimPrefix(got, "hot-")
	if len(suffix) != 8 {
		t.Errorf("got suffix %q, want 8 hex characters", suffix)
	}
}

func TestGenerateUnique_ReservesSuffixBudget(t *testing.T) {
	long := strings.Repeat("word ", 40)
	exists := memExists()
	got, err := GenerateUnique(context.Background(), long, 50, exists, "")
	if err != nil {
		t.Fatalf("GenerateUnique: %v", err)
	}
	if len(got) > 40 {
		t.Errorf("base slug %q (len %d) should leave room for suffixes", got, len(got))
	}
}

func TestGenerateUnique_PropagatesExistsError(t *testing.T) {
	wantErr := fmt.Errorf("connection lost")
	exists := func(_ context.Context, _, _ string) (bool, error) {
		return false, wantErr
	}
	_, err := GenerateUnique(context.Background(), "anything", 100, exists, "")
	if err == nil {
		t.Fatal("expected error from exists callback")
	}
}

func TestGenerateUnique_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exists := func(_ context.Context, _, _ string) (bool, error) {
		return true, nil // force the counter loop, which checks ctx
	}
	_, err := GenerateUnique(ctx, "anything", 100, exists, "")
	if err == nil {
		t.Fatal("expected context error")
	}
}
