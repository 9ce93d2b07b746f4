package proposal

import (
	"strings"

	"granttrack/domain/core"

	"github.com/shopspring/decimal"
)

// Meta holds the four parallel per-proposal maps an admin edits
type Meta struct {
	GivenAmounts    map[string]decimal.NullDecimal `json:"given_amounts"`
	FundingStatuses map[string]FundingStatus       `json:"funding_statuses"`
	DueDates        map[string]core.Date           `json:"due_dates"`
	Notes           map[string]string              `json:"notes"`
}

// NewMeta returns an empty Meta with all maps allocated
func NewMeta() *Meta {
	return &Meta{
		GivenAmounts:    make(map[string]decimal.NullDecimal),
		FundingStatuses: make(map[string]FundingStatus),
		DueDates:        make(map[string]core.Date),
		Notes:           make(map[string]string),
	}
}

// lookup finds identity in m exactly, then by identity equality
func lookup[V any](m map[string]V, identity string) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	if v, ok := m[Identity(identity)]; ok {
		return v, true
	}
	key := Key(identity)
	for k, v := range m {
		if Key(k) == key {
			return v, true
		}
	}
	return zero, false
}

// Given returns the recorded given amount; invalid when unset
func (m *Meta) Given(identity string) decimal.NullDecimal {
	if m == nil {
		return decimal.NullDecimal{}
	}
	v, _ := lookup(m.GivenAmounts, identity)
	return v
}

// Funding returns the recorded funding status, FundingEmpty when unset
func (m *Meta) Funding(identity string) FundingStatus {
	if m == nil {
		return FundingEmpty
	}
	v, _ := lookup(m.FundingStatuses, identity)
	return v
}

// DueDate returns the recorded due date, zero when unset
func (m *Meta) DueDate(identity string) core.Date {
	if m == nil {
		return core.Date{}
	}
	v, _ := lookup(m.DueDates, identity)
	return v
}

// Note returns the internal note, "" when unset
func (m *Meta) Note(identity string) string {
	if m == nil {
		return ""
	}
	v, _ := lookup(m.Notes, identity)
	return v
}

// MetaPatch is an incremental edit of one proposal's meta; nil fields are untouched
type MetaPatch struct {
	GivenAmount   *string `json:"given_amount,omitempty"`
	FundingStatus *string `json:"funding_status,omitempty"`
	DueDate       *string `json:"due_date,omitempty"`
	Note          *string `json:"note,omitempty"`
}

// ParsedMetaPatch is a validated MetaPatch
type ParsedMetaPatch struct {
	GivenAmount   *decimal.NullDecimal
	FundingStatus *FundingStatus
	DueDate       *core.Date
	Note          *string
}

// IsEmpty reports whether the patch changes nothing
func (p MetaPatch) IsEmpty() bool {
	return p.GivenAmount == nil && p.FundingStatus == nil && p.DueDate == nil && p.Note == nil
}

// Parse validates every present field
func (p MetaPatch) Parse() (ParsedMetaPatch, error) {
	var out ParsedMetaPatch
	if p.GivenAmount != nil {
		amount, err := ParseAmount(*p.GivenAmount)
		if err != nil {
			return ParsedMetaPatch{}, err
		}
		out.GivenAmount = &amount
	}
	if p.FundingStatus != nil {
		status, err := ParseFundingStatus(*p.FundingStatus)
		if err != nil {
			return ParsedMetaPatch{}, err
		}
		out.FundingStatus = &status
	}
	if p.DueDate != nil {
		date, err := core.ParseDate(*p.DueDate)
		if err != nil {
			return ParsedMetaPatch{}, err
		}
		out.DueDate = &date
	}
	if p.Note != nil {
		note := strings.TrimRight(*p.Note, " \t\r\n")
		out.Note = &note
	}
	return out, nil
}

// Apply writes the parsed fields for identity into m; empty values delete the entry.
// Entries stored under a differently cased spelling of identity are replaced.
func (m *Meta) Apply(identity string, p ParsedMetaPatch) {
	identity = Identity(identity)
	if p.GivenAmount != nil {
		forget(m.GivenAmounts, identity)
		if p.GivenAmount.Valid {
			m.GivenAmounts[identity] = *p.GivenAmount
		}
	}
	if p.FundingStatus != nil {
		forget(m.FundingStatuses, identity)
		if *p.FundingStatus != FundingEmpty {
			m.FundingStatuses[identity] = *p.FundingStatus
		}
	}
	if p.DueDate != nil {
		forget(m.DueDates, identity)
		if !p.DueDate.IsZero() {
			m.DueDates[identity] = *p.DueDate
		}
	}
	if p.Note != nil {
		forget(m.Notes, identity)
		if *p.Note != "" {
			m.Notes[identity] = *p.Note
		}
	}
}

func forget[V any](m map[string]V, identity string) {
	key := Key(identity)
	for k := range m {
		if Key(k) == key {
			delete(m, k)
		}
	}
}
