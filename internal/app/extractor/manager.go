// Package extractor provides the extractor manager that resolves text input to Media.
package extractor

import (
	"context"
	"sort"

	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/mediaqueue/internal/domain/errdef"
	"github.com/osa030/mediaqueue/internal/domain/media"
)

// Ref identifies an extractor either by id or by value.
type Ref struct {
	id        string
	extractor media.Extractor
}

// ByID refers to a registered extractor by its id.
func ByID(id string) Ref {
	return Ref{id: id}
}

// Of refers to an extractor value.
func Of(e media.Extractor) Ref {
	return Ref{extractor: e}
}

// Manager holds registered extractors and resolves input through them.
// It is not safe for concurrent mutation; callers serialize access.
type Manager struct {
	extractors map[string]media.Extractor
	order      []string // registration order, used to keep priority ties stable
}

// NewManager creates a manager with the given initial extractors.
func NewManager(extractors ...media.Extractor) (*Manager, error) {
	m := &Manager{
		extractors: make(map[string]media.Extractor),
		order:      make([]string, 0, len(extractors)),
	}
	for _, e := range extractors {
		if _, err := m.Add(e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add registers an extractor by its id.
func (m *Manager) Add(e media.Extractor) (media.Extractor, error) {
	if e == nil {
		return nil, errdef.New(errdef.ErrMissingArgument, "extractor")
	}
	if _, ok := m.extractors[e.ID()]; ok {
		return nil, errdef.New(errdef.ErrDuplicateExtractor, e)
	}

	m.extractors[e.ID()] = e
	m.order = append(m.order, e.ID())
	zlog.Debug().Msgf("registered extractor: id=%s name=%s priority=%d", e.ID(), e.Name(), e.Priority())
	return e, nil
}

// Remove unregisters the referenced extractor and returns it, or nil if none is registered.
func (m *Manager) Remove(ref Ref) media.Extractor {
	e := m.Get(ref)
	if e == nil {
		return nil
	}

	delete(m.extractors, e.ID())
	m.order = lo.Without(m.order, e.ID())
	return e
}

// Get resolves ref to the registered extractor, or nil.
func (m *Manager) Get(ref Ref) media.Extractor {
	id := m.GetID(ref)
	if id == "" {
		return nil
	}
	return m.extractors[id]
}

// GetID resolves ref to an extractor id.
// An unregistered raw id resolves to ""; an extractor value always resolves to its own id.
func (m *Manager) GetID(ref Ref) string {
	if ref.extractor != nil {
		return ref.extractor.ID()
	}
	if _, ok := m.extractors[ref.id]; ok {
		return ref.id
	}
	return ""
}

// Has reports whether ref resolves to a registered extractor.
func (m *Manager) Has(ref Ref) bool {
	return m.Get(ref) != nil
}

// Len returns the number of registered extractors.
func (m *Manager) Len() int {
	return len(m.extractors)
}

// All returns a copy of the id to extractor mapping.
func (m *Manager) All() map[string]media.Extractor {
	out := make(map[string]media.Extractor, len(m.extractors))
	for id, e := range m.extractors {
		out[id] = e
	}
	return out
}

// Values returns the registered extractors sorted by priority, highest first.
// Extractors with equal priority keep their registration order.
func (m *Manager) Values() []media.Extractor {
	values := lo.Map(m.order, func(id string, _ int) media.Extractor {
		return m.extractors[id]
	})
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Priority() > values[j].Priority()
	})
	return values
}

// Extract resolves input with the first extractor, in priority order, that validates it.
// Empty input, or input no extractor validates, yields media.None().
// Errors from the selected extractor are returned unchanged.
func (m *Manager) Extract(ctx context.Context, input string) (media.Result, error) {
	if input == "" {
		return media.None(), nil
	}

	e, ok := lo.Find(m.Values(), func(e media.Extractor) bool {
		return e.Validate(input)
	})
	if !ok {
		zlog.Debug().Msgf("no extractor validated input: input=%q", input)
		return media.None(), nil
	}

	zlog.Debug().Msgf("extracting input: input=%q extractor=%s", input, e.ID())
	return e.Extract(ctx, input)
}
