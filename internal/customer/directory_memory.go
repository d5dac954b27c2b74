package customer

import (
	"context"
	"fmt"
	"sync"

	"ghostlogin/pkg/platform/sentinel"
)

// InMemoryDirectory serves customer snapshots from memory for tests/dev.
type InMemoryDirectory struct {
	mu        sync.RWMutex
	customers map[int64]Snapshot
}

// NewMemory constructs an empty in-memory directory.
func NewMemory() *InMemoryDirectory {
	return &InMemoryDirectory{customers: make(map[int64]Snapshot)}
}

// Seed registers a customer. Test helper; last write wins.
func (d *InMemoryDirectory) Seed(snapshot Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[snapshot.ID] = snapshot
}

func (d *InMemoryDirectory) GetByID(_ context.Context, id int64) (Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snapshot, ok := d.customers[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("customer %d: %w", id, sentinel.ErrNotFound)
	}
	return snapshot, nil
}
