// Package slug converts display names to URL-safe slugs and resolves
// collisions against an externally supplied existence check.
package slug

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength bounds generated slugs when callers pass no explicit limit.
const DefaultMaxLength = 100

// suffixReserve is the number of characters held back from the length budget
// so a collision suffix never pushes a unique slug past the limit.
const suffixReserve = 10

// maxCounterSuffix is the last numeric suffix tried before falling back to a
// random suffix. Beyond this the counter scheme is clearly losing the race.
const maxCounterSuffix = 999

var (
	// Matches any run of characters that cannot appear in a slug.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// phraseTable maps multi-character phrases to their slug form. Applied
// longest-match-first before per-rune transliteration so "C++" becomes
// "cpp" rather than "c".
var phraseTable = []struct {
	phrase string
	repl   string
}{
	{"c++", "cpp"},
	{"c#", "c-sharp"},
	{"f#", "f-sharp"},
	{".net", "dotnet"},
	{"node.js", "nodejs"},
	{"&&", " and "},
	{"&", " and "},
	{"@", " at "},
	{"%", " percent "},
	{"+", " plus "},
}

// runeTable maps single runes that NFKD decomposition does not reduce to
// ASCII. Mostly Latin letters with strokes and a few typographic symbols.
var runeTable = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'đ': "d",
	'ħ': "h",
	'ł': "l",
	'þ': "th",
	'ð': "d",
	'€': "eur",
	'£': "gbp",
	'$': "usd",
	'©': "c",
	'™': "tm",
}

// Generate converts text to a URL-safe slug no longer than maxLength.
// Pure function: lowercase, phrase then rune transliteration, NFKD
// diacritic stripping, non-alphanumeric runs collapsed to single hyphens,
// no leading/trailing hyphen. Empty or whitespace-only input yields "".
//
//	"Science Fiction"  → "science-fiction"
//	"C++ & Go"         → "cpp-and-go"
//	"Café Culture"     → "cafe-culture"
func Generate(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return ""
	}

	// Phrase transliteration first, longest match first.
	for _, p := range phraseTable {
		s = strings.ReplaceAll(s, p.phrase, p.repl)
	}

	// Per-rune transliteration for characters NFKD cannot decompose.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := runeTable[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	// Decompose accents, then drop everything outside ASCII.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxLength {
		s = strings.TrimRight(s[:maxLength], "-")
	}

	return s
}

// Random returns an 8-character hex identifier for use when a name slugs to
// nothing, or when the counter suffix scheme is exhausted.
func Random() string {
	buf := make([]byte, 4)
	// rand.Read never fails on supported platforms; a short read would panic
	// in hex.EncodeToString anyway, so ignore the error here.
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// ExistsFunc reports whether a candidate slug is already taken. excludeID
// names a record whose own slug should not count as a collision (updates).
type ExistsFunc func(ctx context.Context, slug, excludeID string) (bool, error)

// GenerateUnique produces a slug for text that exists returns false for.
// On collision it appends -1, -2, … and, past 999, a random suffix so the
// loop always terminates. Storage is only reached through the callback.
func GenerateUnique(ctx context.Context, text string, maxLength int, exists ExistsFunc, excludeID string) (string, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	base := Generate(text, maxLength-suffixReserve)
	if base == "" {
		base = Random()
	}

	taken, err := exists(ctx, base, excludeID)
	if err != nil {
		return "", fmt.Errorf("check slug %q: %w", base, err)
	}
	if !taken {
		return base, nil
	}

	for i := 1; i <= maxCounterSuffix; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%s-%d", base, i)
		taken, err := exists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	// Counter scheme exhausted. A random suffix makes collision astronomically
	// unlikely; return it without probing so the call terminates.
	return base + "-" + Random(), nil
}
