// Package translate detects Marathi (Devanagari) text and translates it to
// English through a pluggable backend, memoizing results per source string.
package translate

import (
	"context"
	"fmt"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Source and Target fix the language pair of every backend.
var (
	Source = language.Marathi
	Target = language.English
)

// ContainsDevanagari reports whether s has any rune in U+0900..U+097F.
func ContainsDevanagari(s string) bool {
	for _, r := range s {
		if r >= 'ऀ' && r <= 'ॿ' {
			return true
		}
	}
	return false
}

// Translator converts one Marathi string to English. Implementations may
// fail per call; callers fall back to the original text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, text string) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// PairName describes the fixed pair, e.g. "Marathi → English".
func PairName() string {
	namer := display.English.Languages()
	return fmt.Sprintf("%s → %s", namer.Name(Source), namer.Name(Target))
}

// code returns the bare ISO 639-1 code for t ("mr", "en").
func code(t language.Tag) string {
	base, _ := t.Base()
	return base.String()
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
