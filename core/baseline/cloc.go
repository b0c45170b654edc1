// Package baseline measures a working tree with an external line counter so the
// delta-derived history can be compared against ground truth.
package baseline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
)

// ClocCounter runs the cloc executable.
type ClocCounter struct {
	Path string // executable name or path; empty means "cloc"
}

var _ contract.LineCounter = (*ClocCounter)(nil) // Compile-time check

// NewClocCounter creates a counter for the given executable.
func NewClocCounter(path string) *ClocCounter {
	return &ClocCounter{Path: path}
}

func (c *ClocCounter) bin() string {
	if c.Path == "" {
		return contract.DefaultClocPath
	}
	return c.Path
}

// Available reports whether the executable can be started.
func (c *ClocCounter) Available(ctx context.Context) bool {
	return exec.CommandContext(ctx, c.bin(), "--version").Run() == nil
}

// Count measures the files under dir.
func (c *ClocCounter) Count(ctx context.Context, dir string) (schema.LOCCount, error) {
	cmd := exec.CommandContext(ctx, c.bin(), ".", "--json", "--quiet")
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return schema.LOCCount{}, fmt.Errorf("cloc failed: %w: %s", err, msg)
		}
		return schema.LOCCount{}, fmt.Errorf("cloc failed: %w", err)
	}
	return ParseClocJSON(out)
}

type clocSum struct {
	Files   int64 `json:"nFiles"`
	Blank   int64 `json:"blank"`
	Comment int64 `json:"comment"`
	Code    int64 `json:"code"`
}

// ParseClocJSON extracts the SUM section of cloc's JSON report. A report
// without one (an empty tree prints nothing) counts as zero.
func ParseClocJSON(data []byte) (schema.LOCCount, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return schema.LOCCount{}, nil
	}
	var report struct {
		Sum *clocSum `json:"SUM"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return schema.LOCCount{}, fmt.Errorf("failed to parse cloc output: %w", err)
	}
	if report.Sum == nil {
		return schema.LOCCount{}, nil
	}
	return schema.LOCCount{
		Files:   report.Sum.Files,
		Code:    report.Sum.Code,
		Blank:   report.Sum.Blank,
		Comment: report.Sum.Comment,
	}, nil
}

// Report counts the repository's working tree and compares it with the latest
// stored total. Drift is only meaningful when the repository has history.
func Report(ctx context.Context, counter contract.LineCounter, history contract.HistoryStore, repo schema.Repository) (schema.BaselineReport, error) {
	report := schema.BaselineReport{RepoID: repo.ID, Name: repo.Name}
	if !counter.Available(ctx) {
		return report, errors.New("line counter is not available; install cloc or set --cloc-path")
	}

	count, err := counter.Count(ctx, filepath.Join(repo.Path, filepath.FromSlash(repo.IncludePath)))
	if err != nil {
		return report, err
	}
	report.Count = count

	latest, ok, err := history.Latest(ctx, repo.ID)
	if err != nil {
		return report, err
	}
	if ok {
		report.HasHistory = true
		report.StoredLOC = latest.TotalLOC
		report.Drift = Drift(count, latest.TotalLOC)
	}
	return report, nil
}

// Drift is how far the stored total has wandered from the measured code lines.
// Positive means the history over-counts.
func Drift(count schema.LOCCount, storedTotal int64) int64 {
	return storedTotal - count.Code
}
