package model

// Match tiers, in cascade order.
const (
	TierFingerprint = "fingerprint"
	TierTitle       = "title"
	TierDate        = "date"
)

// MatchOutcome is the result of resolving a candidate against the catalog.
// Score is the Hamming distance for the fingerprint tier and the similarity
// for the title tier, truncated to an integer.
type MatchOutcome struct {
	Matched bool          `json:"matched"`
	Record  CatalogRecord `json:"record"`
	Tier    string        `json:"tier,omitempty"`
	Score   int           `json:"score,omitempty"`
}

// Unmatched is the zero outcome.
var Unmatched = MatchOutcome{}

// SimilarMatch is a catalog record ranked by fingerprint distance.
type SimilarMatch struct {
	Record   CatalogRecord `json:"record"`
	Distance int           `json:"distance"`
}

// DebugReport lists the nearest fingerprints to a query image.
type DebugReport struct {
	QueryHash    Fingerprint    `json:"query_hash"`
	Matches      []SimilarMatch `json:"matches"`
	TotalChecked int            `json:"total_checked"`
}
