package ai

import "context"

// Embedder produces a fixed-length vector representation of text for
// semantic comparison. Implementations are expected to be latency-bearing
// and may fail when the upstream model is unavailable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Explainer generates a natural-language rationale for how well a resume
// matches a job description. Implementations must bound the amount of input
// they forward upstream. May fail; callers degrade rather than abort.
type Explainer interface {
	Explain(ctx context.Context, resumeText, jobDescription string) (string, error)
}
