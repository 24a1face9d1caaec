package ranking

import "time"

// File is an uploaded resume as received by the service. Size is the
// declared size used for validation; Data holds the file content.
type File struct {
	Name string
	Size int64
	Data []byte
}

// Candidate is the scored result for a single resume. Rank is assigned after
// the final sort and the struct is not modified afterwards.
type Candidate struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
	Assessment  string  `json:"assessment,omitempty"`
	Rank        int     `json:"rank"`
}

// Summary aggregates a single batch. Recomputed per request, never persisted.
type Summary struct {
	Total       int       `json:"total"`
	TopScore    float64   `json:"top_score"`
	AvgScore    float64   `json:"avg_score"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Result is the full response of a ranking run: candidates sorted by score
// descending with 1-based ranks, plus the batch summary.
type Result struct {
	Results []*Candidate `json:"results"`
	Summary Summary      `json:"summary"`
}

// itemStatus classifies the outcome of processing one resume.
type itemStatus int

const (
	// itemScored means the full extract/embed/score/explain chain succeeded.
	itemScored itemStatus = iota
	// itemDegraded means the score is meaningful but the explanation is a
	// fallback (explainer failed or text was unextractable).
	itemDegraded
	// itemFailed means processing errored and the candidate carries a zero
	// score with the error description.
	itemFailed
)

// itemOutcome carries the candidate together with its processing status so
// the batch loop can log degradations without aborting.
type itemOutcome struct {
	status    itemStatus
	candidate *Candidate
	reason    string
}
