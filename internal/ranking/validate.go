package ranking

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minJobDescriptionLength = 50
	maxJobDescriptionLength = 50000
	maxFiles                = 10
	maxFileSize             = 5 * 1024 * 1024
)

// ValidationError carries all input violations found in a single pass.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Issues, "; ")
}

// validate checks the request constraints before any expensive work. All
// violations are accumulated and returned together.
func validate(jobDescription string, files []File) *ValidationError {
	var issues []string

	jd := strings.TrimSpace(jobDescription)
	switch jdLen := utf8.RuneCountInString(jd); {
	case jd == "":
		issues = append(issues, "Job description is required")
	case jdLen < minJobDescriptionLength:
		issues = append(issues, fmt.Sprintf("Job description must be at least %d characters", minJobDescriptionLength))
	case jdLen > maxJobDescriptionLength:
		issues = append(issues, fmt.Sprintf("Job description exceeds maximum length (%d characters)", maxJobDescriptionLength))
	}

	switch {
	case len(files) == 0:
		issues = append(issues, "At least one resume file is required")
	case len(files) > maxFiles:
		issues = append(issues, fmt.Sprintf("Maximum %d resume files allowed", maxFiles))
	}

	for _, file := range files {
		if file.Size > maxFileSize {
			issues = append(issues, fmt.Sprintf("File '%s' exceeds 5MB limit", file.Name))
		}
	}

	if len(issues) == 0 {
		return nil
	}

	return &ValidationError{Issues: issues}
}
