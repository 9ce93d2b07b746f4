// Package columns picks the column of an uploaded dataset that identifies
// proposals and guards later changes to that choice.
package columns

import (
	"regexp"
	"strings"

	"granttrack/domain/core"
	"granttrack/domain/proposal"

	"gonum.org/v1/gonum/floats"
)

// CanonicalHeader is the header name the intake form uses for proposal names
const CanonicalHeader = "Project Name"

// Confidence flags whether the caller should warn before trusting a choice
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Fallback names the rule that overrode plain scoring, if any
type Fallback string

const (
	FallbackNone     Fallback = ""
	FallbackNoRows   Fallback = "no_rows"
	FallbackFileLike Fallback = "file_like_winner"
)

// Options are the scoring weights. Zero values are not defaults; use DefaultOptions.
type Options struct {
	HintBonus          float64
	SubmissionWeight   float64
	UniquenessWeight   float64
	CompletenessWeight float64
	FilePenalty        float64
	CanonicalBonus     float64
	// FalsePositiveRatio is the file-likeness above which a winner is rejected
	FalsePositiveRatio float64
	// LowFileRatio is the file-likeness below which a header is a safe fallback
	LowFileRatio float64
	// AmbiguousMargin is the score gap under which the top two are a toss-up
	AmbiguousMargin float64
}

// DefaultOptions returns the tuned weights
func DefaultOptions() Options {
	return Options{
		HintBonus:          40,
		SubmissionWeight:   30,
		UniquenessWeight:   20,
		CompletenessWeight: 10,
		FilePenalty:        200,
		CanonicalBonus:     1000,
		FalsePositiveRatio: 0.5,
		LowFileRatio:       0.2,
		AmbiguousMargin:    5,
	}
}

var nameHints = []string{
	"project", "title", "name", "application", "proposal",
	"what is the", "title of", "initiative",
}

var (
	urlPattern  = regexp.MustCompile(`(?i)^(https?://|www\.|ftp://)`)
	filePattern = regexp.MustCompile(`(?i)\.(pdf|docx?|xlsx?|csv|txt|pptx?|png|jpe?g|gif|zip|odt|rtf)$`)
)

// HeaderScore is the breakdown behind one header's score
type HeaderScore struct {
	Header          string  `json:"header"`
	Score           float64 `json:"score"`
	Hint            bool    `json:"hint"`
	SubmissionRatio float64 `json:"submission_ratio"`
	Uniqueness      float64 `json:"uniqueness"`
	Completeness    float64 `json:"completeness"`
	FileRatio       float64 `json:"file_ratio"`
	NonEmpty        int     `json:"non_empty"`
}

// Inference is the outcome of Infer
type Inference struct {
	Column     string        `json:"column"`
	Confidence Confidence    `json:"confidence"`
	Fallback   Fallback      `json:"fallback,omitempty"`
	Scores     []HeaderScore `json:"scores,omitempty"`
}

// Ambiguous reports whether the caller should warn instead of silently trusting the result
func (i Inference) Ambiguous() bool {
	return i.Confidence != ConfidenceHigh
}

// Infer returns the header most likely to hold proposal names. known holds
// project identities already recorded by submissions and may be empty.
func Infer(headers []string, rows []proposal.Row, known []string, opts Options) (Inference, error) {
	if len(headers) == 0 {
		return Inference{}, core.ErrNoMatchColumn
	}
	if len(rows) == 0 {
		return Inference{Column: headers[0], Confidence: ConfidenceLow, Fallback: FallbackNoRows}, nil
	}

	knownKeys := make(map[string]bool, len(known))
	for _, k := range known {
		if key := proposal.Key(k); key != "" {
			knownKeys[key] = true
		}
	}

	scores := make([]HeaderScore, len(headers))
	values := make([]float64, len(headers))
	for i, h := range headers {
		scores[i] = scoreHeader(h, rows, knownKeys, opts)
		values[i] = scores[i].Score
	}

	best := floats.MaxIdx(values)
	result := Inference{
		Column:     headers[best],
		Confidence: ConfidenceHigh,
		Scores:     scores,
	}

	if scores[best].FileRatio > opts.FalsePositiveRatio {
		result.Column = fallbackHeader(headers, scores, opts)
		result.Confidence = ConfidenceLow
		result.Fallback = FallbackFileLike
		return result, nil
	}

	if scores[best].Uniqueness < 0.5 || closeRunnerUp(values, best, opts.AmbiguousMargin) {
		result.Confidence = ConfidenceLow
	}
	return result, nil
}

func scoreHeader(header string, rows []proposal.Row, knownKeys map[string]bool, opts Options) HeaderScore {
	s := HeaderScore{Header: header}

	distinct := make(map[string]bool)
	fileLike := 0
	for _, row := range rows {
		v := row.Value(header)
		if v == "" {
			continue
		}
		s.NonEmpty++
		distinct[strings.ToLower(v)] = true
		if looksLikeFile(v) {
			fileLike++
		}
	}

	lower := strings.ToLower(header)
	for _, hint := range nameHints {
		if strings.Contains(lower, hint) {
			s.Hint = true
			break
		}
	}

	if len(knownKeys) > 0 {
		found := 0
		for key := range knownKeys {
			if distinct[key] {
				found++
			}
		}
		s.SubmissionRatio = float64(found) / float64(len(knownKeys))
	}
	if s.NonEmpty > 0 {
		s.Uniqueness = float64(len(distinct)) / float64(s.NonEmpty)
		s.FileRatio = float64(fileLike) / float64(s.NonEmpty)
	}
	s.Completeness = float64(s.NonEmpty) / float64(len(rows))

	if s.Hint {
		s.Score += opts.HintBonus
	}
	s.Score += opts.SubmissionWeight * s.SubmissionRatio
	s.Score += opts.UniquenessWeight * s.Uniqueness
	s.Score += opts.CompletenessWeight * s.Completeness
	s.Score -= opts.FilePenalty * s.FileRatio
	if isCanonical(header) && s.Uniqueness >= 0.8 {
		s.Score += opts.CanonicalBonus
	}
	return s
}

func fallbackHeader(headers []string, scores []HeaderScore, opts Options) string {
	for _, h := range headers {
		if isCanonical(h) {
			return h
		}
	}
	for i, h := range headers {
		if scores[i].FileRatio < opts.LowFileRatio {
			return h
		}
	}
	return headers[0]
}

func closeRunnerUp(values []float64, best int, margin float64) bool {
	for i, v := range values {
		if i != best && values[best]-v < margin {
			return true
		}
	}
	return false
}

func isCanonical(header string) bool {
	return strings.EqualFold(strings.TrimSpace(header), CanonicalHeader)
}

func looksLikeFile(v string) bool {
	return urlPattern.MatchString(v) || filePattern.MatchString(v)
}
