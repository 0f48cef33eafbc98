package model

// Pipeline actions, as reported to callers.
const (
	ActionMatched       = "matched"
	ActionFoundExternal = "found_external"
	ActionCreated       = "created"
)

// PipelineResult is the terminal outcome of one submission.
type PipelineResult struct {
	Action    string        `json:"action"`
	Record    CatalogRecord `json:"record"`
	SourceURL string        `json:"source_url,omitempty"`
	Tier      string        `json:"tier,omitempty"`
}
