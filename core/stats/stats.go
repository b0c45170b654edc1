// Package stats turns stored history into per-repository series for charting.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
)

// Window returns the inclusive range covering the last `days` calendar days
// up to and including the day of now, in UTC.
func Window(now time.Time, days int) (time.Time, time.Time) {
	if days <= 0 {
		days = contract.DefaultDays
	}
	today := now.UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -days)
	end := today.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

// Series loads the day-bucketed history of the named repositories between
// start and end. No names means every registered repository. Repositories
// without any point in range are left out.
func Series(ctx context.Context, registry contract.RepositoryRegistry, history contract.HistoryStore, names []string, start, end time.Time) ([]schema.StatsSeries, error) {
	labels, ids, err := resolve(ctx, registry, names)
	if err != nil {
		return nil, err
	}

	points, err := history.QueryRange(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}

	series := schema.GroupPoints(points, labels)
	for i := range series {
		if series[i].Name == "" {
			series[i].Name = fmt.Sprintf("Repo %d", series[i].RepoID)
		}
	}
	if series == nil {
		series = []schema.StatsSeries{}
	}
	return series, nil
}

func resolve(ctx context.Context, registry contract.RepositoryRegistry, names []string) (map[int64]string, []int64, error) {
	var repos []schema.Repository
	if len(names) == 0 {
		all, err := registry.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		repos = all
	} else {
		for _, name := range names {
			repo, err := registry.GetByName(ctx, name)
			if err != nil {
				return nil, nil, err
			}
			repos = append(repos, repo)
		}
	}

	labels := make(map[int64]string, len(repos))
	ids := make([]int64, 0, len(repos))
	for _, r := range repos {
		if _, seen := labels[r.ID]; seen {
			continue
		}
		labels[r.ID] = r.Name
		ids = append(ids, r.ID)
	}
	return labels, ids, nil
}
