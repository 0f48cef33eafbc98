package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minQuotedTitle = 3
	maxQuotedTitle = 50
	minLineTitle   = 5
	maxLineTitle   = 100
)

var (
	concertRe = regexp.MustCompile(`(?i)КОНЦ?Е?РТ\s+ГРУП+Ы?\s*[«"]([^»"\n]{3,50})[»"]`)
	quotedRe  = regexp.MustCompile(`«([^»\n]{3,50})»|"([^"\n]{3,50})"`)
)

type titleRule struct {
	name  string
	match func(text string, lines []string) (string, bool)
}

func defaultTitleRules(stopWords map[string]struct{}) []titleRule {
	return []titleRule{
		{name: "concert", match: matchConcertTitle},
		{name: "quoted", match: matchQuotedTitle},
		{name: "first_line", match: func(_ string, lines []string) (string, bool) {
			return matchFirstLine(lines, stopWords)
		}},
	}
}

// matchConcertTitle handles "КОНЦЕРТ ГРУППЫ «NAME»", tolerating the usual
// dropped letters.
func matchConcertTitle(text string, _ []string) (string, bool) {
	m := concertRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return quotedLength(m[1])
}

// matchQuotedTitle takes the first quoted phrase in reading order, either
// guillemets or straight quotes.
func matchQuotedTitle(text string, _ []string) (string, bool) {
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		inner := m[1]
		if inner == "" {
			inner = m[2]
		}
		if title, ok := quotedLength(inner); ok {
			return title, true
		}
	}
	return "", false
}

func quotedLength(s string) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n >= minQuotedTitle && n <= maxQuotedTitle
}

// matchFirstLine returns the first line of reasonable length that says more
// than stop words.
func matchFirstLine(lines []string, stopWords map[string]struct{}) (string, bool) {
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n < minLineTitle || n > maxLineTitle {
			continue
		}
		if !onlyStopWords(line, stopWords) {
			return line, true
		}
	}
	return "", false
}

func onlyStopWords(line string, stopWords map[string]struct{}) bool {
	for _, w := range strings.Fields(strings.ToLower(line)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w == "" {
			continue
		}
		if _, ok := stopWords[w]; !ok {
			return false
		}
	}
	return true
}
