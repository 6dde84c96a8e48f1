// Package moderation censors forbidden words in message content before it
// is persisted and fanned out.
package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"strings"
	"unicode"

	"chat-hub/errors"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed censored/words.txt
var censoredFS embed.FS

// Moderator matches a normalized view of the content against an
// Aho-Corasick automaton and masks matched spans in the original text.
type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the automaton from the embedded word list plus any
// extra words.
func NewModerator(censoredChar rune, extra ...string) (Moderator, error) {
	words, err := loadWords()
	if err != nil {
		return Moderator{}, err
	}
	words = append(words, extra...)
	if len(words) == 0 {
		return Moderator{}, errors.ErrEmptyWords
	}

	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalizeRunes([]rune(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: m, censoredChar: censoredChar}, nil
}

// Censor replaces every character of a forbidden span with the censor rune,
// preserving spacing and untouched text. It returns the censored text and
// the normalized words that matched.
func (m *Moderator) Censor(original string) (string, []string) {
	mapping := normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	var found []string
	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)
		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}
		found = append(found, string(span.Word))

		origStart := mapping.origIdx[normStart]
		origEnd := mapping.origIdx[normEnd-1] + 1
		for i := origStart; i < origEnd; i++ {
			origRunes[i] = m.censoredChar
		}
	}
	return string(origRunes), found
}

// DetectLanguage tags the content with an ISO 639-1 code for moderation
// logs. Empty when detection is unreliable.
func DetectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

// normalize lowercases the input and strips noise runes while tracking
// original positions, so leetspeak-ish spacing cannot dodge the automaton.
func normalize(input string) textMapping {
	origRunes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		if isNoise(r) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(r))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if isNoise(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}

func isNoise(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

func loadWords() ([]string, error) {
	data, err := censoredFS.ReadFile("censored/words.txt")
	if err != nil {
		return nil, err
	}
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	return words, scanner.Err()
}
