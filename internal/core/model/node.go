package model

import "time"

// CatalogRecord is a stored event. Stores persist it as an Event node or row.
type CatalogRecord struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Date        *time.Time   `json:"date,omitempty"`
	Location    string       `json:"location"`
	Price       string       `json:"price,omitempty"`
	Fingerprint *Fingerprint `json:"image_hash,omitempty"`
	RawText     string       `json:"raw_text,omitempty"`
	SourceURL   string       `json:"source_url,omitempty"`
	ParsedByAI  bool         `json:"parsed_by_ai"`
	CreatedAt   time.Time    `json:"created_at"`
}

// HasFingerprint reports whether the record carries an image fingerprint.
func (r CatalogRecord) HasFingerprint() bool {
	return r.Fingerprint != nil
}
