// Package queue provides the position-tracked media queue, its storage contract and its manager.
package queue

import (
	"sort"
	"sync"

	"github.com/samber/mo"

	"github.com/osa030/mediaqueue/internal/domain/media"
)

// Storage is the ordered collection behind a Queue.
// Every method is total: out-of-range access yields nil, never an error.
type Storage interface {
	// All returns the held media in order.
	All() []*media.Media
	// Add inserts items at position, or appends them when position is absent.
	// The relative order of items is preserved. It returns what was inserted.
	Add(items []*media.Media, position mo.Option[int]) []*media.Media
	// Get returns the media at position, or nil when out of range.
	Get(position int) *media.Media
	// Remove removes and returns the media at position, or nil when out of range.
	Remove(position int) *media.Media
	// Clear empties the collection.
	Clear()
	// IndexOf returns the position of m by identity, or -1.
	IndexOf(m *media.Media) int
}

// StorageFactory creates an empty Storage for a new queue.
type StorageFactory func() Storage

// storages holds registered storage factories.
var (
	storagesMu sync.RWMutex
	storages   = make(map[string]StorageFactory)
)

// MemoryStorageName is the registered name of the in-memory storage.
const MemoryStorageName = "memory"

func init() {
	RegisterStorage(MemoryStorageName, func() Storage { return NewMemoryStorage() })
}

// RegisterStorage registers a storage factory under name.
func RegisterStorage(name string, factory StorageFactory) {
	storagesMu.Lock()
	defer storagesMu.Unlock()
	storages[name] = factory
}

// LookupStorage returns the factory registered under name.
func LookupStorage(name string) (StorageFactory, bool) {
	storagesMu.RLock()
	defer storagesMu.RUnlock()
	f, ok := storages[name]
	return f, ok
}

// RegisteredStorages returns the sorted names of all registered storages.
func RegisteredStorages() []string {
	storagesMu.RLock()
	defer storagesMu.RUnlock()
	names := make([]string, 0, len(storages))
	for name := range storages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
