package iocache

import (
	"fmt"
	"sync"

	"github.com/huangsam/codemonitor/schema"
)

// Global store manager for command execution.
var (
	Manager   *StoreManagerImpl
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStore connects the global Manager. Only the first call has any effect.
func InitStore(backend schema.DatabaseBackend, connStr string) error {
	var initErr error
	initOnce.Do(func() {
		mgr, err := NewStoreManager(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize history store: %w", err)
			return
		}
		Manager = mgr
	})
	return initErr
}

// CloseStore should be called on application shutdown.
func CloseStore() { // called in main defer
	closeOnce.Do(func() {
		if Manager != nil {
			_ = Manager.Close()
		}
	})
}
