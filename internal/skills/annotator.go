package skills

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// Token is one word of annotated text.
type Token struct {
	Text string
	// POS is a Penn-style part-of-speech tag; only the NN prefix matters here.
	POS string
	// NER is an entity label; "O" means no entity.
	NER string
}

// Annotator tags words of free text. Implementations may be remote and are
// always invoked under a deadline.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]Token, error)
}

// AnnotatorFunc adapts a function to Annotator.
type AnnotatorFunc func(ctx context.Context, text string) ([]Token, error)

// Annotate implements Annotator.
func (f AnnotatorFunc) Annotate(ctx context.Context, text string) ([]Token, error) {
	return f(ctx, text)
}

var wordPattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9+#./\-]*`)

// RegexAnnotator is the in-process default. Capitalized words are tagged as
// proper nouns, all-caps words of two or more letters as organizations,
// numbers as CD and everything else as NN.
type RegexAnnotator struct{}

// Annotate implements Annotator.
func (RegexAnnotator) Annotate(ctx context.Context, text string) ([]Token, error) {
	words := wordPattern.FindAllString(text, -1)
	out := make([]Token, 0, len(words))
	for i, w := range words {
		if i%512 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		w = strings.TrimRight(w, "./-")
		if w == "" {
			continue
		}
		out = append(out, Token{Text: w, POS: posTag(w), NER: nerTag(w)})
	}
	return out, nil
}

func posTag(w string) string {
	digits := true
	for _, r := range w {
		if !unicode.IsDigit(r) {
			digits = false
			break
		}
	}
	if digits {
		return "CD"
	}
	if unicode.IsUpper([]rune(w)[0]) {
		return "NNP"
	}
	return "NN"
}

func nerTag(w string) string {
	letters := 0
	for _, r := range w {
		if unicode.IsLower(r) {
			return "O"
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters >= 2 {
		return "ORGANIZATION"
	}
	return "O"
}
