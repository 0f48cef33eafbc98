package sources

import (
	"github.com/gocolly/colly/v2"

	"github.com/agenthands/posterlens/internal/core/common"
)

// ldEvent holds the schema.org Event fields we read from JSON-LD.
type ldEvent struct {
	Name        string
	Description string
	StartDate   string
}

// readJSONLD returns the first JSON-LD node on the page that has a name.
// Malformed blocks are skipped.
func readJSONLD(e *colly.HTMLElement) ldEvent {
	var found ldEvent
	e.ForEach(`script[type="application/ld+json"]`, func(_ int, el *colly.HTMLElement) {
		if found.Name != "" {
			return
		}
		doc, err := common.ParseJSON[any](el.Text)
		if err != nil {
			return
		}
		if ev, ok := findLDEvent(doc); ok {
			found = ev
		}
	})
	return found
}

// findLDEvent walks objects, arrays and @graph containers depth first.
func findLDEvent(node any) (ldEvent, bool) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if ev, ok := findLDEvent(item); ok {
				return ev, true
			}
		}
	case map[string]any:
		if name := stringField(v, "name"); name != "" {
			return ldEvent{
				Name:        name,
				Description: stringField(v, "description"),
				StartDate:   stringField(v, "startDate"),
			}, true
		}
		if graph, ok := v["@graph"]; ok {
			return findLDEvent(graph)
		}
	}
	return ldEvent{}, false
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
