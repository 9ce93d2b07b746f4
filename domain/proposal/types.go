// Package proposal holds the tracker's data model: uploaded datasets, the
// per-proposal maps joined to them by identity, reviewer submissions and
// approved records.
package proposal

import (
	"fmt"
	"strings"
	"time"

	"granttrack/domain/core"

	"github.com/shopspring/decimal"
)

// Row is one spreadsheet row: header -> cell value, plus optional per-header hyperlinks
type Row struct {
	Cells  map[string]string `json:"cells"`
	Links  map[string]string `json:"links,omitempty"`
	Hidden bool              `json:"hidden,omitempty"`
}

// Value returns the trimmed cell under header, or "" when absent
func (r Row) Value(header string) string {
	if r.Cells == nil {
		return ""
	}
	return strings.TrimSpace(r.Cells[header])
}

// Link returns the hyperlink attached to the cell under header, if any
func (r Row) Link(header string) string {
	if r.Links == nil {
		return ""
	}
	return strings.TrimSpace(r.Links[header])
}

// ColumnChangeKind classifies an entry in a dataset's match-column history.
// ColumnMissing marks a column dropped because replaced data no longer has it.
type ColumnChangeKind string

const (
	ColumnInferred ColumnChangeKind = "inferred"
	ColumnSelected ColumnChangeKind = "selected"
	ColumnLocked   ColumnChangeKind = "locked"
	ColumnUnlocked ColumnChangeKind = "unlocked"
	ColumnMissing  ColumnChangeKind = "missing"
)

// ColumnChangeEvent is one append-only record of a match-column decision
type ColumnChangeEvent struct {
	At        time.Time        `json:"at"`
	Kind      ColumnChangeKind `json:"kind"`
	Previous  string           `json:"previous"`
	Column    string           `json:"column"`
	Locked    bool             `json:"locked"`
	Confirmed bool             `json:"confirmed"`
	Reason    string           `json:"reason,omitempty"`
}

// Dataset is one uploaded spreadsheet, i.e. one funding cycle
type Dataset struct {
	ID                core.DatasetID      `json:"id"`
	Name              string              `json:"name"`
	Headers           []string            `json:"headers"`
	Rows              []Row               `json:"rows"`
	MatchColumn       string              `json:"match_column"`
	MatchColumnLocked bool                `json:"match_column_locked"`
	CodeColumn        string              `json:"code_column,omitempty"`
	ColumnHistory     []ColumnChangeEvent `json:"column_history"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// NewDataset creates a dataset, rejecting blank or duplicate headers
func NewDataset(name string, headers []string, rows []Row) (*Dataset, error) {
	seen := make(map[string]bool, len(headers))
	clean := make([]string, 0, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("%w: header %d is blank", core.ErrUnknownHeader, i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("%w: duplicate header %q", core.ErrUnknownHeader, h)
		}
		seen[h] = true
		clean = append(clean, h)
	}

	now := time.Now().UTC()
	return &Dataset{
		ID:        core.NewDatasetID(),
		Name:      strings.TrimSpace(name),
		Headers:   clean,
		Rows:      rows,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasHeader reports whether header is one of the dataset's columns
func (d *Dataset) HasHeader(header string) bool {
	for _, h := range d.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// Identity returns the proposal identity held by row, or "" when no match column is set
func (d *Dataset) Identity(row Row) string {
	if d.MatchColumn == "" {
		return ""
	}
	return Identity(row.Value(d.MatchColumn))
}

// Identities lists the distinct non-empty identities of visible rows in row order
func (d *Dataset) Identities() []string {
	return d.identities(false)
}

// AllIdentities is Identities including hidden rows
func (d *Dataset) AllIdentities() []string {
	return d.identities(true)
}

func (d *Dataset) identities(includeHidden bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, row := range d.Rows {
		if row.Hidden && !includeHidden {
			continue
		}
		id := d.Identity(row)
		if id == "" || seen[Key(id)] {
			continue
		}
		seen[Key(id)] = true
		out = append(out, id)
	}
	return out
}

// RowFor returns the first visible row whose identity equals identity,
// falling back to the first hidden one
func (d *Dataset) RowFor(identity string) (Row, bool) {
	key := Key(identity)
	if key == "" {
		return Row{}, false
	}
	var hidden Row
	found := false
	for _, row := range d.Rows {
		if Key(d.Identity(row)) != key {
			continue
		}
		if !row.Hidden {
			return row, true
		}
		if !found {
			hidden, found = row, true
		}
	}
	return hidden, found
}

// Submission is one reviewer's write-up for a proposal
type Submission struct {
	ID                    core.SubmissionID `json:"id" db:"id"`
	DatasetID             core.DatasetID    `json:"dataset_id" db:"dataset_id"`
	ProjectIdentity       string            `json:"project_identity" db:"project_identity"`
	ReviewerName          string            `json:"reviewer_name" db:"reviewer_name"`
	Timestamp             time.Time         `json:"timestamp" db:"submitted_at"`
	OverallThoughts       string            `json:"overall_thoughts" db:"overall_thoughts"`
	LineItems             string            `json:"line_items" db:"line_items"`
	FundingRecommendation string            `json:"funding_recommendation" db:"funding_recommendation"`
}

// ApprovedRecord marks a proposal as approved; its absence means not approved
type ApprovedRecord struct {
	ProjectIdentity string              `json:"project_identity"`
	RequestedAmount decimal.NullDecimal `json:"requested_amount"`
	GivenAmount     decimal.NullDecimal `json:"given_amount"`
	FundingStatus   FundingStatus       `json:"funding_status"`
	Notes           string              `json:"notes"`
	Code            string              `json:"code"`
	ApprovedAt      time.Time           `json:"approved_at"`
}

// Status is the derived workflow state of a proposal
type Status string

const (
	StatusApproved        Status = "approved"
	StatusUnassigned      Status = "unassigned"
	StatusReadyForReview  Status = "ready_for_review"
	StatusWaitingApproval Status = "waiting_approval"
	StatusUnderReview     Status = "under_review"
)

// AllStatuses lists statuses in classifier priority order
var AllStatuses = []Status{
	StatusApproved,
	StatusUnassigned,
	StatusReadyForReview,
	StatusWaitingApproval,
	StatusUnderReview,
}
