package dedupe

import (
	"slices"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"

	"github.com/agenthands/posterlens/internal/core/model"
)

// TokenSetRatio scores two strings 0..100 by comparing their word sets,
// ignoring case, punctuation, word order and repeated words. If one word set
// contains the other the score is 100. The score is not rounded; callers
// compare it against thresholds as is.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	slices.Sort(common)
	slices.Sort(onlyA)
	slices.Sort(onlyB)
	sect := strings.Join(common, " ")
	withA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return max(ratio(sect, withA), ratio(sect, withB), ratio(withA, withB))
}

// ratio is the normalized indel similarity, 100 * 2*LCS / (len(a)+len(b)).
func ratio(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}
	return 100 * float64(2*edlib.LCS(a, b)) / float64(total)
}

func tokenSet(s string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		set[tok] = struct{}{}
	}
	return set
}

// RankByDistance returns fingerprinted records within maxDistance of fp,
// nearest first, at most limit entries. limit <= 0 means no limit; a negative
// maxDistance accepts every record.
func RankByDistance(fp model.Fingerprint, records []model.CatalogRecord, maxDistance, limit int) []model.SimilarMatch {
	var out []model.SimilarMatch
	for _, rec := range records {
		if !rec.HasFingerprint() {
			continue
		}
		d := fp.Distance(*rec.Fingerprint)
		if maxDistance >= 0 && d > maxDistance {
			continue
		}
		out = append(out, model.SimilarMatch{Record: rec, Distance: d})
	}
	slices.SortStableFunc(out, func(a, b model.SimilarMatch) int {
		return a.Distance - b.Distance
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
