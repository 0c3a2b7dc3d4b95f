// Package moderation censors comment text before it is stored or
// broadcast, and tags each comment with its detected language.
package moderation

import (
	"bufio"
	"bytes"
	_ "embed"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed censored.txt
var defaultWordList []byte

// Moderator matches a censored-word list against normalized comment text
// (lowercased, leet-speak folded, punctuation stripped) and stars out the
// matched spans in the original, preserving spacing.
type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// word list.
func NewModerator(censoredWords []string, censoredChar rune) (*Moderator, error) {
	// Pure-noise entries normalize to nothing; an empty pattern would
	// panic the automaton build.
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		if p := normalizeRunes([]rune(word)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, censoredChar: censoredChar}, nil
}

// NewDefaultModerator uses the embedded word list.
func NewDefaultModerator() (*Moderator, error) {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(defaultWordList))
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			words = append(words, line)
		}
	}
	return NewModerator(words, '*')
}

// Censor replaces every span of the original text whose normalized form
// matches a censored word. Positions are tracked through normalization
// so the replacement lands on the original runes.
func (m *Moderator) Censor(original string) string {
	origRunes := []rune(original)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	if len(norm) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(norm, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.censoredChar
		}
	}
	return string(origRunes)
}

// DetectLanguage returns the ISO 639-3 code of the text's likely
// language, or "" when detection is unreliable. Display hint only.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return whatlanggo.LangToString(info.Lang)
}

// normalizeRunes applies the same folding used on inbound text to the
// word list, so patterns and text meet in one normalized space.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet-speak characters back to their standard
// alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters ignored during pattern matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
