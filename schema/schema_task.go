package schema

import "time"

// BackfillTask is a point-in-time view of a backfill job.
type BackfillTask struct {
	ID             string     `json:"id"`
	RepoID         int64      `json:"repo_id"`
	RepoPath       string     `json:"repo_path"`
	PathFilter     string     `json:"path_filter,omitempty"`
	Status         TaskStatus `json:"status"`
	ProcessedCount int64      `json:"processed_count"`
	TotalCount     int64      `json:"total_count"`
	Error          string     `json:"error,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Repository is a tracked repository and its scan bookkeeping.
type Repository struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Path          string     `json:"path"`
	IncludePath   string     `json:"include_path,omitempty"`
	Status        RepoStatus `json:"status"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
