package iocache

import (
	"context"
	"time"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// History implements the StoreManager interface.
func (m *MockStoreManager) History() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// Repositories implements the StoreManager interface.
func (m *MockStoreManager) Repositories() contract.RepositoryRegistry {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RepositoryRegistry)
	return store
}

// Settings implements the StoreManager interface.
func (m *MockStoreManager) Settings() contract.SettingsStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SettingsStore)
	return store
}

// Status implements the StoreManager interface.
func (m *MockStoreManager) Status(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the StoreManager interface.
func (m *MockStoreManager) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// AppendBatch implements the HistoryStore interface.
func (m *MockHistoryStore) AppendBatch(ctx context.Context, repoID int64, snapshots []schema.LOCSnapshot) (int, error) {
	args := m.Called(ctx, repoID, snapshots)
	return args.Int(0), args.Error(1)
}

// QueryRange implements the HistoryStore interface.
func (m *MockHistoryStore) QueryRange(ctx context.Context, repoIDs []int64, start, end time.Time) ([]schema.HistoryPoint, error) {
	args := m.Called(ctx, repoIDs, start, end)
	points, _ := args.Get(0).([]schema.HistoryPoint)
	return points, args.Error(1)
}

// Latest implements the HistoryStore interface.
func (m *MockHistoryStore) Latest(ctx context.Context, repoID int64) (schema.HistoryRecord, bool, error) {
	args := m.Called(ctx, repoID)
	return args.Get(0).(schema.HistoryRecord), args.Bool(1), args.Error(2)
}

// Count implements the HistoryStore interface.
func (m *MockHistoryStore) Count(ctx context.Context, repoID int64) (int64, error) {
	args := m.Called(ctx, repoID)
	return args.Get(0).(int64), args.Error(1)
}

// All implements the HistoryStore interface.
func (m *MockHistoryStore) All(ctx context.Context) ([]schema.HistoryRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.HistoryRecord)
	return records, args.Error(1)
}

// DeleteRepository implements the HistoryStore interface.
func (m *MockHistoryStore) DeleteRepository(ctx context.Context, repoID int64) error {
	args := m.Called(ctx, repoID)
	return args.Error(0)
}

// MockRepositoryRegistry is a mock implementation of RepositoryRegistry for testing.
type MockRepositoryRegistry struct {
	mock.Mock
}

var _ contract.RepositoryRegistry = &MockRepositoryRegistry{} // Compile-time check

// Add implements the RepositoryRegistry interface.
func (m *MockRepositoryRegistry) Add(ctx context.Context, name, path, includePath string) (int64, error) {
	args := m.Called(ctx, name, path, includePath)
	return args.Get(0).(int64), args.Error(1)
}

// Get implements the RepositoryRegistry interface.
func (m *MockRepositoryRegistry) Get(ctx context.Context, repoID int64) (schema.Repository, error) {
	args := m.Called(ctx, repoID)
	return args.Get(0).(schema.Repository), args.Error(1)
}

// GetByName implements the RepositoryRegistry interface.
func (m *MockRepositoryRegistry) GetByName(ctx context.Context, name string) (schema.Repository, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(schema.Repository), args.Error(1)
}

// List implements the RepositoryRegistry interface.
func (m *MockRepositoryRegistry) List(ctx context.Context) ([]schema.Repository, error) {
	args := m.Called(ctx)
	repos, _ := args.Get(0).([]schema.Repository)
	return repos, args.Error(1)
}

// Remove implements the RepositoryRegistry interface.
func (m *MockRepositoryRegistry) Remove(ctx context.Context, repoID int64) error {
	args := m.Called(ctx, repoID)
	return args.Error(0)
}

// SetStatus implements the RepositoryRegistry interface.
func (m *MockRepositoryRegistry) SetStatus(ctx context.Context, repoID int64, status schema.RepoStatus) error {
	args := m.Called(ctx, repoID, status)
	return args.Error(0)
}

// SetLastScanned implements the RepositoryRegistry interface.
func (m *MockRepositoryRegistry) SetLastScanned(ctx context.Context, repoID int64, at time.Time) error {
	args := m.Called(ctx, repoID, at)
	return args.Error(0)
}
