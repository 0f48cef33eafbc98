package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type priceRule struct {
	name string
	re   *regexp.Regexp
}

var defaultPriceRules = []priceRule{
	{name: "label", re: regexp.MustCompile(`(?i)цена[:\s]*(\d{1,6})`)},
	{name: "currency", re: regexp.MustCompile(`(?i)(\d{3,6})\s*(?:₽|руб|р\.)`)},
	{name: "cost", re: regexp.MustCompile(`(?i)стоимость[:\s]*(\d{1,6})`)},
}

// A location must be longer than this after cleanup.
const minLocationRunes = 2

var locationNoiseRe = regexp.MustCompile(`["'\d]+`)

type locationRule struct {
	name   string
	re     *regexp.Regexp
	prefix string
}

// The name runs up to a quote, a comma or the end of the line.
var defaultLocationRules = []locationRule{
	{
		name:   "club",
		re:     regexp.MustCompile(`(?m)[Кк][Лл][Уу][Бб][ \t]*["']?([А-ЯЁ][А-ЯЁа-яёA-Za-z \t]{2,30})(?:["',]|$)`),
		prefix: "Клуб ",
	},
	{
		name: "in_place",
		re:   regexp.MustCompile(`(?m)(?:^|[^\p{L}])[Вв][ \t]+([А-ЯЁ][а-яё \t]{5,40})(?:,|$)`),
	},
}

func (r locationRule) match(text string) (string, bool) {
	m := r.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	loc := strings.TrimSpace(locationNoiseRe.ReplaceAllString(m[1], ""))
	if utf8.RuneCountInString(loc) <= minLocationRunes {
		return "", false
	}
	return r.prefix + loc, true
}
