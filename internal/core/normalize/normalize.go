// Package normalize repairs systematic recognition errors in poster text.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/agenthands/posterlens/internal/config"
)

// maxPasses bounds the fixpoint loop. Default tables settle in two passes.
const maxPasses = 4

var quoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`,
	"‘", "'", "’", "'",
)

// Normalizer applies the correction tables it was built with. The tables are
// copied at construction and never change, so a Normalizer is safe for
// concurrent use.
type Normalizer struct {
	mixed    *strings.Replacer
	letters  map[rune]rune
	cyrillic *strings.Replacer
}

func New(cfg config.NormalizeConfig) *Normalizer {
	letters := make(map[rune]rune, len(cfg.Letters))
	for _, r := range cfg.Letters {
		from, _ := utf8.DecodeRuneInString(r.Old)
		to, _ := utf8.DecodeRuneInString(r.New)
		if from == utf8.RuneError || to == utf8.RuneError {
			continue
		}
		letters[from] = to
	}
	return &Normalizer{
		mixed:    newReplacer(cfg.MixedWords),
		letters:  letters,
		cyrillic: newReplacer(cfg.CyrillicWords),
	}
}

func newReplacer(table []config.Replacement) *strings.Replacer {
	pairs := make([]string, 0, len(table)*2)
	for _, r := range table {
		if r.Old == "" {
			continue
		}
		pairs = append(pairs, r.Old, r.New)
	}
	return strings.NewReplacer(pairs...)
}

// Normalize returns the corrected text. It never fails; empty input yields
// empty output. Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(text string) string {
	for range maxPasses {
		next := n.pass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

// pass runs every correction step once, in order. Letter substitution can
// expose a table key that was not visible earlier in the same pass, which is
// why Normalize repeats it until nothing changes.
func (n *Normalizer) pass(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = norm.NFC.String(text)
	text = quoteReplacer.Replace(text)

	lines := splitLines(text)
	out := lines[:0]
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		tokens = joinSpacedLetters(tokens)
		line = n.mixed.Replace(strings.Join(tokens, " "))
		line = n.foldLookalikes(line)
		line = n.cyrillic.Replace(line)
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '\n', '\r', '\v', '\f', '\u0085', '\u2028', '\u2029':
			return true
		}
		return false
	})
}

// joinSpacedLetters merges runs of two or more single-letter tokens, which is
// how letter-spaced headlines come out of OCR.
func joinSpacedLetters(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		j := i
		for j < len(tokens) && isSingleLetter(tokens[j]) {
			j++
		}
		if j-i >= 2 {
			out = append(out, strings.Join(tokens[i:j], ""))
			i = j
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return out
}

func isSingleLetter(tok string) bool {
	r, size := utf8.DecodeRuneInString(tok)
	return size == len(tok) && unicode.IsLetter(r)
}

// foldLookalikes replaces Latin letters with their Cyrillic twins, but only
// inside tokens that already contain Cyrillic, so Latin words are kept.
func (n *Normalizer) foldLookalikes(line string) string {
	if len(n.letters) == 0 {
		return line
	}
	tokens := strings.Split(line, " ")
	for i, tok := range tokens {
		if !hasCyrillic(tok) {
			continue
		}
		tokens[i] = strings.Map(func(r rune) rune {
			if c, ok := n.letters[r]; ok {
				return c
			}
			return r
		}, tok)
	}
	return strings.Join(tokens, " ")
}

func hasCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}
