// Package moderation masks banned words in chat content before it is stored.
package moderation

import (
	"log/slog"
	"slices"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator is safe for concurrent use once built.
type Moderator struct {
	log         *slog.Logger
	matcher     *goahocorasick.Machine
	replacement rune
}

// folded is the searchable form of a text. Positions[i] is the index in the
// original runes of Runes[i].
type folded struct {
	Runes     []rune
	Positions []int
}

// NewModerator builds the automaton over the folded form of words.
// Words that fold to nothing are ignored.
func NewModerator(words []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	folds := lo.Uniq(lo.FilterMap(words, func(word string, _ int) (string, bool) {
		f := fold(word)
		return string(f.Runes), len(f.Runes) > 0
	}))
	slices.Sort(folds)
	patterns := lo.Map(folds, func(word string, _ int) []rune { return []rune(word) })
	m := &Moderator{log: log, replacement: replacement}
	if len(patterns) == 0 {
		return m, nil
	}
	m.matcher = new(goahocorasick.Machine)
	if err := m.matcher.Build(patterns); err != nil {
		return nil, err
	}
	log.Info("Moderator ready", "words", len(patterns))
	return m, nil
}

// Censor replaces every character of a banned word, including the noise
// inside it, and returns the matched words in order of appearance.
func (m *Moderator) Censor(content string) (string, []string) {
	if m.matcher == nil {
		return content, nil
	}
	f := fold(content)
	if len(f.Runes) == 0 {
		return content, nil
	}
	terms := m.matcher.MultiPatternSearch(f.Runes, false)
	if len(terms) == 0 {
		return content, nil
	}

	runes := []rune(content)
	var words []string
	for _, term := range terms {
		first, last := term.Pos, term.Pos+len(term.Word)-1
		if first < 0 || last >= len(f.Positions) {
			continue
		}
		for i := f.Positions[first]; i <= f.Positions[last]; i++ {
			runes[i] = m.replacement
		}
		words = append(words, string(term.Word))
	}
	return string(runes), words
}

func fold(text string) folded {
	runes := []rune(text)
	f := folded{Runes: make([]rune, 0, len(runes)), Positions: make([]int, 0, len(runes))}
	for i, r := range runes {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		f.Runes = append(f.Runes, unicode.ToLower(r))
		f.Positions = append(f.Positions, i)
	}
	return f
}

// unleet maps look-alike characters back to letters.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	}
	return r
}
