package queue

import (
	"slices"

	"github.com/samber/mo"

	"github.com/osa030/mediaqueue/internal/domain/media"
)

// MemoryStorage is a slice-backed Storage.
type MemoryStorage struct {
	list []*media.Media
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		list: make([]*media.Media, 0),
	}
}

// All returns a copy of the held media.
func (s *MemoryStorage) All() []*media.Media {
	return slices.Clone(s.list)
}

// Add inserts items using splice semantics: a negative position counts from
// the end, and positions past either end are clamped.
func (s *MemoryStorage) Add(items []*media.Media, position mo.Option[int]) []*media.Media {
	pos, ok := position.Get()
	if !ok {
		s.list = append(s.list, items...)
		return items
	}

	if pos < 0 {
		pos = max(len(s.list)+pos, 0)
	}
	pos = min(pos, len(s.list))
	s.list = slices.Insert(s.list, pos, items...)
	return items
}

// Get returns the media at position, or nil.
func (s *MemoryStorage) Get(position int) *media.Media {
	if position < 0 || position >= len(s.list) {
		return nil
	}
	return s.list[position]
}

// Remove removes and returns the media at position, or nil.
func (s *MemoryStorage) Remove(position int) *media.Media {
	if position < 0 || position >= len(s.list) {
		return nil
	}
	m := s.list[position]
	s.list = slices.Delete(s.list, position, position+1)
	return m
}

// Clear empties the storage.
func (s *MemoryStorage) Clear() {
	s.list = make([]*media.Media, 0)
}

// IndexOf returns the position of m by identity, or -1.
func (s *MemoryStorage) IndexOf(m *media.Media) int {
	if m == nil {
		return -1
	}
	return slices.Index(s.list, m)
}
