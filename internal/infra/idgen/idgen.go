// Package idgen provides identifier generation for media, extractors and queues.
package idgen

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Generator produces unique identifiers.
type Generator interface {
	NewID() string
}

// UUID generates random (version 4) UUIDs.
type UUID struct{}

// NewID returns a new random UUID string.
func (UUID) NewID() string {
	return uuid.New().String()
}

var defaultGenerator Generator = UUID{}

// Default returns the process-wide generator.
func Default() Generator {
	return defaultGenerator
}

// OrDefault returns g, or the process-wide generator when g is nil.
func OrDefault(g Generator) Generator {
	if g == nil {
		return defaultGenerator
	}
	return g
}

// Sequence generates deterministic ids of the form "<prefix>-<n>".
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequence creates a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if s.prefix == "" {
		return strconv.Itoa(s.n)
	}
	return s.prefix + "-" + strconv.Itoa(s.n)
}
