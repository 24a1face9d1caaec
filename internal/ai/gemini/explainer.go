package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/resume-ranker/internal/logger"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	// defaultMaxInputLength bounds how much of the resume and job description
	// is forwarded to the model, keeping prompt cost and latency predictable.
	defaultMaxInputLength = 2000

	defaultMaxLogLength = 200
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Explainer produces a natural-language match rationale via Gemini.
type Explainer struct {
	generator contentGenerator
	maxInput  int
	maxLogLen int
	logger    *zap.Logger
}

// NewExplainer creates an Explainer on top of the provided generator.
func NewExplainer(generator contentGenerator, maxInputLength, maxLogLength int, log *zap.Logger) *Explainer {
	if maxInputLength <= 0 {
		maxInputLength = defaultMaxInputLength
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Explainer{
		generator: generator,
		maxInput:  maxInputLength,
		maxLogLen: maxLogLength,
		logger:    log,
	}
}

// Explain asks the model how well the resume matches the job description.
// Both inputs are truncated to the configured prefix length before they are
// sent upstream.
func (e *Explainer) Explain(ctx context.Context, resumeText, jobDescription string) (string, error) {
	resumeText = truncate(resumeText, e.maxInput)
	jobDescription = truncate(jobDescription, e.maxInput)

	if strings.TrimSpace(resumeText) == "" {
		return "", fmt.Errorf("resume text must not be empty")
	}
	if strings.TrimSpace(jobDescription) == "" {
		return "", fmt.Errorf("job description must not be empty")
	}

	prompt := buildPrompt(resumeText, jobDescription)

	e.logger.Debug("gemini explain request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	e.logger.Debug("gemini explain response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
	)

	return strings.TrimSpace(raw), nil
}

func buildPrompt(resumeText, jobDescription string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job description:\n{{JOB_DESCRIPTION}}\n\nResume:\n{{RESUME}}\n\nExplanation:"
	}
	prompt := strings.ReplaceAll(template, "{{RESUME}}", resumeText)
	prompt = strings.ReplaceAll(prompt, "{{JOB_DESCRIPTION}}", jobDescription)
	return prompt
}

// truncate cuts the string to at most limit runes.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
