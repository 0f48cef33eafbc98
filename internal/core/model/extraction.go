package model

import "time"

// Fields is the structured parse of normalized poster text.
type Fields struct {
	Title    string     `json:"title"`
	Date     *time.Time `json:"date,omitempty"`
	Price    string     `json:"price,omitempty"`
	Location string     `json:"location,omitempty"`
	RawText  string     `json:"raw_text"`
}

// Candidate is the unsaved representation of a poster. Built once per
// submission and passed by value.
type Candidate struct {
	Fields
	Fingerprint Fingerprint `json:"fingerprint"`
}

// NewCandidate joins parsed fields with the image fingerprint. An empty title
// is replaced by placeholder.
func NewCandidate(fields Fields, fp Fingerprint, placeholder string) Candidate {
	if fields.Title == "" {
		fields.Title = placeholder
	}
	return Candidate{Fields: fields, Fingerprint: fp}
}

// ExternalResult is an event found on a third-party site.
type ExternalResult struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DateText    string `json:"date_text,omitempty"`
	URL         string `json:"url"`
}

// Empty reports whether the result carries nothing usable.
func (r *ExternalResult) Empty() bool {
	return r == nil || r.URL == "" || (r.Title == "" && r.Description == "")
}
