package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/huangsam/codemonitor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.FixedZone("KST", 9*3600))

	start, end := Window(now, 7)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999999999, time.UTC), end)

	start, _ = Window(now, 0)
	assert.Equal(t, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), start, "falls back to the default window")
}

func TestSeries_GroupsByRepository(t *testing.T) {
	ctx := context.Background()
	start, end := Window(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 30)
	day := func(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }

	registry := new(iocache.MockRepositoryRegistry)
	registry.On("List", ctx).Return([]schema.Repository{{ID: 1, Name: "api"}, {ID: 2, Name: "web"}, {ID: 3, Name: "docs"}}, nil)
	history := new(iocache.MockHistoryStore)
	history.On("QueryRange", ctx, []int64{1, 2, 3}, start, end).Return([]schema.HistoryPoint{
		{RepoID: 1, Timestamp: day(2), TotalLOC: 10},
		{RepoID: 1, Timestamp: day(5), TotalLOC: 30},
		{RepoID: 2, Timestamp: day(3), TotalLOC: 7},
	}, nil)

	series, err := Series(ctx, registry, history, nil, start, end)
	require.NoError(t, err)
	require.Len(t, series, 2, "repositories without points are left out")
	assert.Equal(t, "api", series[0].Name)
	assert.Len(t, series[0].Points, 2)
	assert.Equal(t, "web", series[1].Name)
	assert.Equal(t, int64(7), series[1].Points[0].TotalLOC)
}

func TestSeries_NamedRepositories(t *testing.T) {
	ctx := context.Background()
	registry := new(iocache.MockRepositoryRegistry)
	registry.On("GetByName", ctx, "web").Return(schema.Repository{ID: 2, Name: "web"}, nil)
	registry.On("GetByName", ctx, "nope").Return(schema.Repository{}, contract.ErrRepositoryNotFound)
	history := new(iocache.MockHistoryStore)
	history.On("QueryRange", ctx, []int64{2}, mock.Anything, mock.Anything).
		Return([]schema.HistoryPoint{{RepoID: 2, TotalLOC: 1}}, nil)

	series, err := Series(ctx, registry, history, []string{"web", "web"}, time.Time{}, time.Now())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, int64(2), series[0].RepoID)

	_, err = Series(ctx, registry, history, []string{"nope"}, time.Time{}, time.Now())
	assert.ErrorIs(t, err, contract.ErrRepositoryNotFound)
}

func TestSeries_FallbackName(t *testing.T) {
	ctx := context.Background()
	registry := new(iocache.MockRepositoryRegistry)
	registry.On("List", ctx).Return([]schema.Repository{{ID: 9}}, nil)
	history := new(iocache.MockHistoryStore)
	history.On("QueryRange", ctx, []int64{9}, mock.Anything, mock.Anything).
		Return([]schema.HistoryPoint{{RepoID: 9, TotalLOC: 5}}, nil)

	series, err := Series(ctx, registry, history, nil, time.Time{}, time.Now())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Repo 9", series[0].Name)
}

func TestSeries_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("registry", func(t *testing.T) {
		registry := new(iocache.MockRepositoryRegistry)
		registry.On("List", ctx).Return(nil, errors.New("boom"))
		_, err := Series(ctx, registry, new(iocache.MockHistoryStore), nil, time.Time{}, time.Now())
		assert.EqualError(t, err, "boom")
	})

	t.Run("history", func(t *testing.T) {
		registry := new(iocache.MockRepositoryRegistry)
		registry.On("List", ctx).Return([]schema.Repository{}, nil)
		history := new(iocache.MockHistoryStore)
		history.On("QueryRange", ctx, []int64{}, mock.Anything, mock.Anything).Return(nil, contract.ErrPersistence)
		_, err := Series(ctx, registry, history, nil, time.Time{}, time.Now())
		assert.ErrorIs(t, err, contract.ErrPersistence)
	})
}
