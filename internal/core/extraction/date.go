package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Events without a printed time are assumed to start in the evening.
const (
	defaultHour   = 20
	defaultMinute = 0
)

var monthNames = map[string]time.Month{
	"января": time.January, "февраля": time.February, "марта": time.March,
	"апреля": time.April, "мая": time.May, "июня": time.June,
	"июля": time.July, "августа": time.August, "сентября": time.September,
	"октября": time.October, "ноября": time.November, "декабря": time.December,
	"янв": time.January, "фев": time.February, "мар": time.March,
	"апр": time.April, "май": time.May, "июн": time.June,
	"июл": time.July, "авг": time.August, "сен": time.September,
	"окт": time.October, "ноя": time.November, "дек": time.December,
}

// Full names come first so the alternation prefers them over abbreviations.
const monthAlt = `января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря|` +
	`янв|фев|мар|апр|май|июн|июл|авг|сен|окт|ноя|дек`

type dateParts struct {
	year, month, day, hour, minute int
	hasYear                        bool
}

type dateRule struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string) (dateParts, bool)
}

// Numbers must not continue a longer number or an ISO date, so "2025-07-01"
// is never read as the 7th of January.
var defaultDateRules = []dateRule{
	{
		name: "day_month_time",
		re:   regexp.MustCompile(`(?:^|\D)(\d{1,2})\s+(` + monthAlt + `)[,\s]*(\d{1,2}):(\d{2})`),
		extract: func(m []string) (dateParts, bool) {
			month, ok := monthNames[m[2]]
			return dateParts{day: atoi(m[1]), month: int(month), hour: atoi(m[3]), minute: atoi(m[4])}, ok
		},
	},
	{
		name: "day_month",
		re:   regexp.MustCompile(`(?:^|\D)(\d{1,2})\s+(` + monthAlt + `)`),
		extract: func(m []string) (dateParts, bool) {
			month, ok := monthNames[m[2]]
			return dateParts{day: atoi(m[1]), month: int(month), hour: defaultHour, minute: defaultMinute}, ok
		},
	},
	{
		name: "numeric_year_time",
		re:   regexp.MustCompile(`(?:^|[^\d./-])(\d{1,2})[./-](\d{1,2})[./-](\d{4})[,\s]*(\d{1,2}):(\d{2})`),
		extract: func(m []string) (dateParts, bool) {
			return dateParts{
				day: atoi(m[1]), month: atoi(m[2]), year: atoi(m[3]), hasYear: true,
				hour: atoi(m[4]), minute: atoi(m[5]),
			}, true
		},
	},
	{
		name: "numeric_time",
		re:   regexp.MustCompile(`(?:^|[^\d./-])(\d{1,2})[./-](\d{1,2})[,\s]*(\d{1,2}):(\d{2})`),
		extract: func(m []string) (dateParts, bool) {
			return dateParts{day: atoi(m[1]), month: atoi(m[2]), hour: atoi(m[3]), minute: atoi(m[4])}, true
		},
	},
}

// matchDate tries each rule against the lowercased text. A rule whose first
// match is not a real calendar date fails and the next rule is tried.
func matchDate(rules []dateRule, text string, now time.Time) (time.Time, string, bool) {
	lower := strings.ToLower(text)
	now = now.UTC()
	for _, rule := range rules {
		m := rule.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		parts, ok := rule.extract(m)
		if !ok {
			continue
		}
		if t, ok := resolveDate(parts, now); ok {
			return t, rule.name, true
		}
	}
	return time.Time{}, "", false
}

// resolveDate builds a UTC time from parts. When the year was not printed it
// is the current year, moved to the next one if the date would fall before
// the start of the current month.
func resolveDate(p dateParts, now time.Time) (time.Time, bool) {
	year := p.year
	if !p.hasYear {
		year = now.Year()
	}
	t, ok := calendarDate(year, p)
	if !ok {
		return time.Time{}, false
	}
	if !p.hasYear {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		if t.Before(monthStart) {
			return calendarDate(year+1, p)
		}
	}
	return t, true
}

func calendarDate(year int, p dateParts) (time.Time, bool) {
	if p.month < 1 || p.month > 12 || p.day < 1 || p.hour < 0 || p.hour > 23 || p.minute < 0 || p.minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(p.month), p.day, p.hour, p.minute, 0, 0, time.UTC)
	if t.Day() != p.day || int(t.Month()) != p.month {
		return time.Time{}, false
	}
	return t, true
}

// ParseDateText interprets a date string scraped from an external site. The
// poster date rules are tried first, then common machine formats such as
// ISO 8601 and RFC 1123. The result is in UTC; nil means unparseable.
func ParseDateText(text string, now time.Time) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if t, _, ok := matchDate(defaultDateRules, text, now); ok {
		return &t
	}
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
