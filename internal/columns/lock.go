package columns

import (
	"fmt"
	"time"

	"granttrack/domain/core"
	"granttrack/domain/proposal"
)

// SelectOptions controls a match-column change
type SelectOptions struct {
	// ConfirmUnlock must be set to replace a locked column
	ConfirmUnlock bool
	// Lock locks the column after the change
	Lock   bool
	Kind   proposal.ColumnChangeKind
	Reason string
	At     time.Time
}

// Select records header as ds's match column and appends the decision to the
// dataset's history. Replacing a locked column needs ConfirmUnlock.
func Select(ds *proposal.Dataset, header string, opts SelectOptions) error {
	if !ds.HasHeader(header) {
		return fmt.Errorf("%w: %q", core.ErrUnknownHeader, header)
	}
	if ds.MatchColumnLocked && ds.MatchColumn != "" && ds.MatchColumn != header && !opts.ConfirmUnlock {
		return fmt.Errorf("%w: %q is locked; confirm to replace it with %q", core.ErrColumnLocked, ds.MatchColumn, header)
	}
	if ds.MatchColumn == header && ds.MatchColumnLocked == opts.Lock {
		return nil
	}

	kind := opts.Kind
	if kind == "" {
		kind = proposal.ColumnSelected
	}
	ds.ColumnHistory = append(ds.ColumnHistory, proposal.ColumnChangeEvent{
		At:        stamp(opts.At),
		Kind:      kind,
		Previous:  ds.MatchColumn,
		Column:    header,
		Locked:    opts.Lock,
		Confirmed: opts.ConfirmUnlock,
		Reason:    opts.Reason,
	})
	ds.MatchColumn = header
	ds.MatchColumnLocked = opts.Lock
	return nil
}

// Record applies an inference to ds and locks it, unless a locked column is already set
func Record(ds *proposal.Dataset, inf Inference, at time.Time) (bool, error) {
	if ds.MatchColumnLocked && ds.HasHeader(ds.MatchColumn) {
		return false, nil
	}
	reason := fmt.Sprintf("confidence=%s", inf.Confidence)
	if inf.Fallback != FallbackNone {
		reason += fmt.Sprintf(" fallback=%s", inf.Fallback)
	}
	err := Select(ds, inf.Column, SelectOptions{
		ConfirmUnlock: true,
		Lock:          true,
		Kind:          proposal.ColumnInferred,
		Reason:        reason,
		At:            at,
	})
	return err == nil, err
}

// SetLocked toggles the lock on ds's match column. Unlocking needs confirm.
func SetLocked(ds *proposal.Dataset, locked, confirm bool, at time.Time) error {
	if ds.MatchColumn == "" {
		return core.ErrNoMatchColumn
	}
	if ds.MatchColumnLocked == locked {
		return nil
	}
	if !locked && !confirm {
		return fmt.Errorf("%w: unlocking %q needs confirmation", core.ErrColumnLocked, ds.MatchColumn)
	}

	kind := proposal.ColumnLocked
	if !locked {
		kind = proposal.ColumnUnlocked
	}
	ds.ColumnHistory = append(ds.ColumnHistory, proposal.ColumnChangeEvent{
		At:        stamp(at),
		Kind:      kind,
		Previous:  ds.MatchColumn,
		Column:    ds.MatchColumn,
		Locked:    locked,
		Confirmed: confirm,
	})
	ds.MatchColumnLocked = locked
	return nil
}

// MarkMissing clears ds's match column when its headers no longer contain it,
// recording the old column in the history. It reports whether it did so.
func MarkMissing(ds *proposal.Dataset, at time.Time) bool {
	if ds.MatchColumn == "" || ds.HasHeader(ds.MatchColumn) {
		return false
	}
	ds.ColumnHistory = append(ds.ColumnHistory, proposal.ColumnChangeEvent{
		At:       stamp(at),
		Kind:     proposal.ColumnMissing,
		Previous: ds.MatchColumn,
		Locked:   false,
		Reason:   "column not in replaced data",
	})
	ds.MatchColumn = ""
	ds.MatchColumnLocked = false
	return true
}

func stamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}
