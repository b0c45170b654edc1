// Package loc turns per-commit line deltas into an absolute lines-of-code curve.
package loc

import "github.com/huangsam/codemonitor/schema"

// Clamp applies one commit's change to a running total, flooring at zero.
// Totals derived from diffs alone can undershoot when history is filtered or
// contains binary churn, so a negative result is reported as zero.
func Clamp(total, inserted, deleted int64) int64 {
	return max(0, total+inserted-deleted)
}

// Accumulator threads a running total through a sequence of commits.
type Accumulator struct {
	total int64
}

// New returns an Accumulator starting at the given total.
func New(start int64) *Accumulator {
	return &Accumulator{total: max(0, start)}
}

// Apply folds one commit into the running total and returns the resulting snapshot.
func (a *Accumulator) Apply(d schema.CommitDelta) schema.LOCSnapshot {
	a.total = Clamp(a.total, d.Inserted, d.Deleted)
	return schema.LOCSnapshot{
		Timestamp: d.AuthoredAt,
		CommitID:  d.ID,
		TotalLOC:  a.total,
	}
}

// Total returns the current running total.
func (a *Accumulator) Total() int64 {
	return a.total
}

// Accumulate converts deltas, oldest first, into snapshots of the same length.
func Accumulate(deltas []schema.CommitDelta, start int64) []schema.LOCSnapshot {
	acc := New(start)
	snapshots := make([]schema.LOCSnapshot, 0, len(deltas))
	for _, d := range deltas {
		snapshots = append(snapshots, acc.Apply(d))
	}
	return snapshots
}
