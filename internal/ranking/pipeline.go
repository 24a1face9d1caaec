// Package ranking scores a batch of resume files against a job description,
// isolating per-file failures so one bad input never aborts the batch.
package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spigell/resume-ranker/internal/ai"
	"github.com/spigell/resume-ranker/internal/cache"
	"github.com/spigell/resume-ranker/internal/extract"
	"github.com/spigell/resume-ranker/internal/textproc"
	"go.uber.org/zap"
)

const (
	// minExtractedLength is the trimmed length below which extracted text is
	// treated as unextractable and the file short-circuits to a zero score.
	minExtractedLength = 10

	unextractableExplanation = "Unable to extract text from PDF"
	fallbackExplanation      = "Unable to generate AI analysis at this time."
)

// Assessment tiers on the raw [0,1] similarity score.
const (
	assessmentExcellent = "Excellent match - Strong alignment with job requirements"
	assessmentGood      = "Good match - Significant alignment with key requirements"
	assessmentFair      = "Fair match - Some relevant skills and experience"
	assessmentLimited   = "Limited match - Minimal alignment with requirements"
)

// Deps aggregates the collaborators consumed by the pipeline.
type Deps struct {
	Extractor  extract.Extractor
	Cleaner    textproc.Cleaner
	Embeddings *cache.Cache
	Explainer  ai.Explainer
	// Similarity scores two embeddings in [0,1]. Defaults to cosine.
	Similarity func(a, b []float64) float64
	Logger     *zap.Logger
}

// Pipeline orchestrates extraction, embedding, scoring and explanation for a
// batch of resumes.
type Pipeline struct {
	deps Deps
	now  func() time.Time // for testing
}

// New creates a ranking pipeline from its dependencies.
func New(deps Deps) *Pipeline {
	if deps.Similarity == nil {
		deps.Similarity = ai.CosineSimilarity
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Pipeline{
		deps: deps,
		now:  time.Now,
	}
}

// Rank validates the input, scores every file against the job description
// and returns the candidates sorted by score descending with 1-based ranks.
// It fails with *ValidationError before any expensive work when input
// constraints are violated; per-file failures become degraded candidates.
func (p *Pipeline) Rank(ctx context.Context, jobDescription string, files []File) (*Result, error) {
	if verr := validate(jobDescription, files); verr != nil {
		return nil, verr
	}

	jdClean := p.deps.Cleaner.Clean(jobDescription)
	jdVector, err := p.deps.Embeddings.Resolve(ctx, jdClean)
	if err != nil {
		return nil, fmt.Errorf("resolve job description embedding: %w", err)
	}

	results := make([]*Candidate, 0, len(files))
	for idx, file := range files {
		outcome := p.processFile(ctx, file, jobDescription, jdVector)

		switch outcome.status {
		case itemScored:
			p.deps.Logger.Debug("processed resume",
				zap.Int("index", idx+1),
				zap.Int("total", len(files)),
				zap.String("file", file.Name),
				zap.Float64("score", outcome.candidate.Score),
			)
		case itemDegraded:
			p.deps.Logger.Warn("processed resume with degraded result",
				zap.String("file", file.Name),
				zap.String("reason", outcome.reason),
			)
		case itemFailed:
			p.deps.Logger.Warn("failed to process resume",
				zap.String("file", file.Name),
				zap.String("reason", outcome.reason),
			)
		}

		results = append(results, outcome.candidate)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for idx, result := range results {
		result.Rank = idx + 1
	}

	return &Result{
		Results: results,
		Summary: summarize(results, p.now()),
	}, nil
}

// processFile runs the extract/clean/embed/score/explain chain for one file.
// Every failure is converted into a candidate so the batch always completes.
func (p *Pipeline) processFile(ctx context.Context, file File, jobDescription string, jdVector []float64) itemOutcome {
	text, err := p.deps.Extractor.Extract(file.Name, file.Data)
	if err != nil {
		return failedOutcome(file.Name, err)
	}

	if len(strings.TrimSpace(text)) < minExtractedLength {
		return itemOutcome{
			status: itemDegraded,
			reason: "no extractable text",
			candidate: &Candidate{
				Name:        file.Name,
				Score:       0,
				Explanation: unextractableExplanation,
			},
		}
	}

	cleaned := p.deps.Cleaner.Clean(text)
	vector, err := p.deps.Embeddings.Resolve(ctx, cleaned)
	if err != nil {
		return failedOutcome(file.Name, err)
	}

	score := p.deps.Similarity(jdVector, vector)

	candidate := &Candidate{
		Name:  file.Name,
		Score: round2(score * 100),
	}

	explanation, err := p.deps.Explainer.Explain(ctx, text, jobDescription)
	if err != nil {
		// The numeric score is still meaningful without the narrative.
		candidate.Assessment = fmt.Sprintf("Score: %.1f%%", score*100)
		candidate.Explanation = fallbackExplanation
		return itemOutcome{status: itemDegraded, candidate: candidate, reason: err.Error()}
	}

	candidate.Assessment = assess(score)
	candidate.Explanation = explanation

	return itemOutcome{status: itemScored, candidate: candidate}
}

func failedOutcome(name string, err error) itemOutcome {
	return itemOutcome{
		status: itemFailed,
		reason: err.Error(),
		candidate: &Candidate{
			Name:        name,
			Score:       0,
			Explanation: fmt.Sprintf("Error processing file: %s", err),
		},
	}
}

// assess maps the raw [0,1] score to a qualitative tier.
func assess(score float64) string {
	switch {
	case score >= 0.8:
		return assessmentExcellent
	case score >= 0.6:
		return assessmentGood
	case score >= 0.4:
		return assessmentFair
	default:
		return assessmentLimited
	}
}

func summarize(results []*Candidate, processedAt time.Time) Summary {
	summary := Summary{
		Total:       len(results),
		ProcessedAt: processedAt,
	}

	if len(results) == 0 {
		return summary
	}

	var sum float64
	for _, result := range results {
		sum += result.Score
		if result.Score > summary.TopScore {
			summary.TopScore = result.Score
		}
	}
	summary.AvgScore = round2(sum / float64(len(results)))

	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
