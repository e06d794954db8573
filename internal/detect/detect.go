// Package detect classifies page text as syllabus-like. The classifier is a
// pure, case-insensitive scan over a fixed indicator vocabulary; it performs
// no I/O and is safe to run repeatedly over the same text.
package detect

import "strings"

// indicators is the fixed vocabulary of syllabus markers. Matching is
// substring-based and case-insensitive.
var indicators = []string{
	"syllabus",
	"course outline",
	"course schedule",
	"learning objectives",
	"grading policy",
	"attendance policy",
	"required textbook",
	"office hours",
	"instructor:",
	"professor:",
	"prerequisites",
	"course description",
	"assignments",
	"final exam",
	"midterm",
	"course objectives",
}

// matchThreshold is the number of distinct indicators required for a page to
// count as a syllabus.
const matchThreshold = 3

// confidenceScale divides the match count to produce a confidence in [0,1].
const confidenceScale = 5

// Result is the classifier's verdict for one page text.
type Result struct {
	IsMatch      bool     `json:"is_match"`
	Confidence   float64  `json:"confidence"`
	MatchedTerms []string `json:"matched_terms"`
}

// Detect scans pageText for the indicator vocabulary. Confidence is
// min(matches/5, 1); a page matches when at least three distinct indicators
// are present.
func Detect(pageText string) Result {
	lower := strings.ToLower(pageText)
	var matched []string
	for _, term := range indicators {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	confidence := float64(len(matched)) / confidenceScale
	if confidence > 1 {
		confidence = 1
	}
	return Result{
		IsMatch:      len(matched) >= matchThreshold,
		Confidence:   confidence,
		MatchedTerms: matched,
	}
}
