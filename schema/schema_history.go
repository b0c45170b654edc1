package schema

import "time"

// DayLayout is the calendar-day key used to bucket history records.
const DayLayout = "2006-01-02"

// CommitDelta is the net line change of a single commit, summed across all
// files it touched.
type CommitDelta struct {
	ID         string    `json:"id"`
	AuthoredAt time.Time `json:"authored_at"`
	Inserted   int64     `json:"inserted"`
	Deleted    int64     `json:"deleted"`
}

// LineDelta is an aggregate line change between two revisions.
type LineDelta struct {
	Inserted int64 `json:"inserted"`
	Deleted  int64 `json:"deleted"`
}

// LOCSnapshot is the running code-size total observed right after a commit.
type LOCSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	CommitID  string    `json:"commit_id"`
	TotalLOC  int64     `json:"total_loc"`
}

// HistoryRecord is a persisted LOCSnapshot bound to a repository.
type HistoryRecord struct {
	ID     int64 `json:"id"`
	RepoID int64 `json:"repo_id"`
	LOCSnapshot
}

// HistoryPoint is one day-bucketed row returned by a range query.
type HistoryPoint struct {
	RepoID    int64     `json:"repo_id"`
	Timestamp time.Time `json:"timestamp"`
	TotalLOC  int64     `json:"total_loc"`
}

// DayKey returns the UTC calendar day a timestamp falls in.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// LOCCount is a point-in-time line count of a working tree.
type LOCCount struct {
	Files   int64 `json:"files"`
	Code    int64 `json:"code"`
	Blank   int64 `json:"blank"`
	Comment int64 `json:"comment"`
}

// StatsSeries is the history of one repository, ready for charting.
type StatsSeries struct {
	RepoID int64          `json:"repo_id"`
	Name   string         `json:"name"`
	Points []HistoryPoint `json:"points"`
}

// ResyncResult describes what an incremental resync did.
type ResyncResult struct {
	RepoID      int64     `json:"repo_id"`
	BaseCommit  string    `json:"base_commit"`
	HeadCommit  string    `json:"head_commit"`
	Delta       LineDelta `json:"delta"`
	PreviousLOC int64     `json:"previous_loc"`
	TotalLOC    int64     `json:"total_loc"`
	UpToDate    bool      `json:"up_to_date"`
}

// BaselineReport compares a full-tree count with the stored history.
type BaselineReport struct {
	RepoID     int64    `json:"repo_id"`
	Name       string   `json:"name"`
	Count      LOCCount `json:"count"`
	StoredLOC  int64    `json:"stored_loc"`
	HasHistory bool     `json:"has_history"`
	Drift      int64    `json:"drift"`
}
