package extraction

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/posterlens/internal/config"
)

const placeholder = "Событие без названия"

func newTestParser(now time.Time) *Parser {
	p := NewParser(config.Default().Parser, zerolog.Nop())
	p.Now = func() time.Time { return now }
	return p
}

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestParseConcertPoster(t *testing.T) {
	p := newTestParser(date(2025, time.March, 10, 12, 0))
	text := "КОНЦЕРТ ГРУППЫ «ФЕНИС»\nновый альбом\n25 июня, 20:00\nЦена: 1500 руб\nКлуб Москва"

	fields := p.Parse(text)

	assert.Equal(t, "ФЕНИС", fields.Title)
	require.NotNil(t, fields.Date)
	assert.Equal(t, date(2025, time.June, 25, 20, 0), *fields.Date)
	assert.Equal(t, "1500", fields.Price)
	assert.Equal(t, "Клуб Москва", fields.Location)
	assert.Equal(t, text, fields.RawText)
}

func TestParseTitleRules(t *testing.T) {
	p := newTestParser(date(2025, time.March, 10, 12, 0))

	tests := []struct {
		name string
		text string
		want string
	}{
		{"concert tolerant spelling", "конерт групы «Кино»", "Кино"},
		{"first quoted phrase", `Фестиваль "Летний джаз" и «Другое»`, "Летний джаз"},
		{"blank quote skipped", "«   » и «Имя группы»", "Имя группы"},
		{"first meaningful line", "концерт группы\nЛетний вечер джаза\nЦена 500", "Летний вечер джаза"},
		{"stop words with punctuation", "Концерт, группа!\nНочные снайперы", "Ночные снайперы"},
		{"too short", "абв", placeholder},
		{"empty", "", placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.text).Title)
		})
	}
}

func TestParseDateRules(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		text string
		want *time.Time
	}{
		{
			name: "rolls into next year",
			now:  date(2025, time.November, 15, 9, 0),
			text: "5 января",
			want: ptr(date(2026, time.January, 5, 20, 0)),
		},
		{
			name: "earlier this month stays",
			now:  date(2025, time.November, 15, 9, 0),
			text: "3 ноября 19:30",
			want: ptr(date(2025, time.November, 3, 19, 30)),
		},
		{
			name: "abbreviated month",
			now:  date(2025, time.January, 2, 9, 0),
			text: "12 мар",
			want: ptr(date(2025, time.March, 12, 20, 0)),
		},
		{
			name: "explicit year never rolls",
			now:  date(2025, time.November, 15, 9, 0),
			text: "25.06.2024, 19:30",
			want: ptr(date(2024, time.June, 25, 19, 30)),
		},
		{
			name: "numeric without year",
			now:  date(2025, time.January, 10, 9, 0),
			text: "12/03 18:00",
			want: ptr(date(2025, time.March, 12, 18, 0)),
		},
		{
			name: "invalid calendar date falls through",
			now:  date(2025, time.January, 10, 9, 0),
			text: "31 февраля 19:00, перенос на 12.03 18:00",
			want: ptr(date(2025, time.March, 12, 18, 0)),
		},
		{
			name: "no date",
			now:  date(2025, time.January, 10, 9, 0),
			text: "Без даты",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestParser(tt.now).Parse(tt.text).Date
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParsePrice(t *testing.T) {
	p := newTestParser(date(2025, time.March, 10, 12, 0))

	assert.Equal(t, "700", p.Parse("ЦЕНА: 700").Price)
	assert.Equal(t, "1200", p.Parse("Билеты 1200 ₽").Price)
	assert.Equal(t, "950", p.Parse("вход 950 р.").Price)
	assert.Equal(t, "800", p.Parse("Стоимость: 800").Price)
	assert.Empty(t, p.Parse("Вход свободный").Price)
}

func TestParseLocation(t *testing.T) {
	p := newTestParser(date(2025, time.March, 10, 12, 0))

	assert.Equal(t, "Клуб Космонавт", p.Parse(`Клуб "Космонавт", 20:00`).Location)
	assert.Equal(t, "Доме культуры", p.Parse("Большой концерт в Доме культуры, 19:00").Location)
	assert.Empty(t, p.Parse("в клубе").Location)
	assert.Empty(t, p.Parse("Просто текст").Location)
}

func TestParseRecoversFromPanickingRule(t *testing.T) {
	p := newTestParser(date(2025, time.March, 10, 12, 0))
	p.titleRules = []titleRule{{name: "boom", match: func(string, []string) (string, bool) {
		panic("boom")
	}}}

	fields := p.Parse("Летний вечер\nЦена: 300")

	assert.Equal(t, placeholder, fields.Title)
	assert.Equal(t, "300", fields.Price)
}

func TestParseDateText(t *testing.T) {
	now := date(2025, time.November, 15, 9, 0)

	got := ParseDateText("2025-07-01T19:00:00+03:00", now)
	require.NotNil(t, got)
	assert.Equal(t, date(2025, time.July, 1, 16, 0), *got)

	got = ParseDateText("5 января, 19:00", now)
	require.NotNil(t, got)
	assert.Equal(t, date(2026, time.January, 5, 19, 0), *got)

	got = ParseDateText("2025-12-24", now)
	require.NotNil(t, got)
	assert.Equal(t, date(2025, time.December, 24, 0, 0), *got)

	assert.Nil(t, ParseDateText("   ", now))
}

func ptr(t time.Time) *time.Time {
	return &t
}
