// Package speedtype pulls validated accounting codes ("speedtypes") out of
// free-form spreadsheet rows.
package speedtype

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"granttrack/domain/proposal"
)

// Pattern is the only accepted shape of a code: eight digits, leading 1
var Pattern = regexp.MustCompile(`^1\d{7}$`)

// Valid reports whether code matches Pattern exactly
func Valid(code string) bool {
	return Pattern.MatchString(code)
}

// Source names the step that produced a code
type Source string

const (
	SourceNone         Source = ""
	SourceExplicit     Source = "explicit_column"
	SourceConventional Source = "conventional_column"
	SourceRowText      Source = "row_text"
	SourceApproved     Source = "approved_record"
)

// conventionalHeaders are compared after stripping everything but lowercase letters and digits
var conventionalHeaders = map[string]bool{
	"speedtype":       true,
	"speedtypes":      true,
	"speedtypenumber": true,
	"speedtypecode":   true,
	"st":              true,
	"stnumber":        true,
	"account":         true,
	"accountnumber":   true,
	"accountno":       true,
	"acct":            true,
	"acctnumber":      true,
	"acctno":          true,
}

var (
	digitRun = regexp.MustCompile(`\d+`)
	// a short label followed by digits that may be broken up by spaces or dashes
	prefixed = regexp.MustCompile(`(?i)\b(?:speed\s*type|acct|account|st)\b\s*(?:#|no\.?|number)?\s*[-:#.]?\s*(\d[\d \t-]*)`)
)

// Input is one row to search
type Input struct {
	Headers []string
	Row     proposal.Row
	// Column is an explicitly chosen code column; empty when unmapped
	Column   string
	Approved *proposal.ApprovedRecord
}

// Result is a validated code and where it came from. Code is empty when nothing validated.
type Result struct {
	Code   string `json:"code"`
	Source Source `json:"source,omitempty"`
	Column string `json:"column,omitempty"`
}

// Extract runs the search order: explicit column, conventional columns, the
// whole row's text, then the approved record's stored code.
func Extract(in Input) Result {
	headers := in.Headers
	if len(headers) == 0 {
		headers = sortedHeaders(in.Row)
	}

	if in.Column != "" {
		if code := FromText(in.Row.Value(in.Column)); code != "" {
			return Result{Code: code, Source: SourceExplicit, Column: in.Column}
		}
	}

	for _, h := range headers {
		if h == in.Column || !IsConventionalHeader(h) {
			continue
		}
		if code := FromText(in.Row.Value(h)); code != "" {
			return Result{Code: code, Source: SourceConventional, Column: h}
		}
	}

	parts := make([]string, 0, len(headers))
	for _, h := range headers {
		if v := in.Row.Value(h); v != "" {
			parts = append(parts, v)
		}
	}
	if code := FromText(strings.Join(parts, " | ")); code != "" {
		return Result{Code: code, Source: SourceRowText}
	}

	if in.Approved != nil {
		if code := strings.TrimSpace(in.Approved.Code); Valid(code) {
			return Result{Code: code, Source: SourceApproved}
		}
	}
	return Result{}
}

// ExtractCode is Extract returning only the code
func ExtractCode(in Input) string {
	return Extract(in).Code
}

// FromText finds a code in free text. It tries a standalone 8-digit run, then
// a labelled code whose digits may be split by spaces or dashes, then the
// first 8-digit window starting with 1 inside a longer run.
func FromText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	runs := digitRun.FindAllString(text, -1)
	for _, run := range runs {
		if Valid(run) {
			return run
		}
	}

	for _, m := range prefixed.FindAllStringSubmatch(text, -1) {
		if code := leadingCode(m[1]); code != "" {
			return code
		}
	}

	for _, run := range runs {
		if len(run) <= 8 {
			continue
		}
		for i := 0; i+8 <= len(run); i++ {
			if run[i] == '1' {
				return run[i : i+8]
			}
		}
	}
	return ""
}

// leadingCode collects digits from s, skipping separators, and returns them
// once exactly eight have been read and the next character ends the group.
func leadingCode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			b.WriteByte(c)
			if b.Len() > 8 {
				return ""
			}
			continue
		}
		if b.Len() == 8 {
			break
		}
	}
	if code := b.String(); Valid(code) {
		return code
	}
	return ""
}

// IsConventionalHeader reports whether header is a usual name for a code column
func IsConventionalHeader(header string) bool {
	return conventionalHeaders[squash(header)]
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sortedHeaders(row proposal.Row) []string {
	out := make([]string, 0, len(row.Cells))
	for h := range row.Cells {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
