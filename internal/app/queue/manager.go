package queue

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mediaqueue/internal/domain/errdef"
	"github.com/osa030/mediaqueue/internal/infra/idgen"
)

// Ref identifies a queue either by id or by value.
type Ref struct {
	id    string
	queue *Queue
}

// QueueID refers to a registered queue by its id.
func QueueID(id string) Ref {
	return Ref{id: id}
}

// QueueOf refers to a queue value.
func QueueOf(q *Queue) Ref {
	return Ref{queue: q}
}

// Manager creates, stores and looks up queues.
// It is not safe for concurrent mutation; callers serialize access.
type Manager struct {
	resolver    Resolver
	factory     StorageFactory
	storageName string
	gen         idgen.Generator
	list        map[string]*Queue
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIDGenerator sets the generator used for queues created without an id.
func WithIDGenerator(g idgen.Generator) ManagerOption {
	return func(m *Manager) { m.gen = g }
}

// WithStorageName records the registered name of the storage factory.
func WithStorageName(name string) ManagerOption {
	return func(m *Manager) { m.storageName = name }
}

// NewManager creates a queue manager. The storage factory is required.
// resolver is used by queues to resolve text targets; it may be nil.
func NewManager(resolver Resolver, factory StorageFactory, opts ...ManagerOption) (*Manager, error) {
	if factory == nil {
		return nil, errdef.New(errdef.ErrInvalidQueueStruct, "storage factory")
	}
	m := &Manager{
		resolver: resolver,
		factory:  factory,
		list:     make(map[string]*Queue),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.gen = idgen.OrDefault(m.gen)
	return m, nil
}

// Resolver returns the resolver handed to queues.
func (m *Manager) Resolver() Resolver {
	return m.resolver
}

// StorageName returns the recorded storage name, if any.
func (m *Manager) StorageName() string {
	return m.storageName
}

// Create makes a new queue with fresh storage and registers it.
// An empty id is generated. An existing queue with the same id is replaced.
func (m *Manager) Create(id string) *Queue {
	if id == "" {
		id = m.gen.NewID()
	}
	q := &Queue{
		id:       id,
		manager:  m,
		storage:  m.factory(),
		position: -1,
	}
	m.list[id] = q
	zlog.Debug().Msgf("created queue: id=%s storage=%s", id, m.storageName)
	return q
}

// Add registers an existing queue and binds it to this manager.
func (m *Manager) Add(q *Queue) (*Queue, error) {
	if q == nil {
		return nil, errdef.New(errdef.ErrMissingArgument, "queue")
	}
	if _, ok := m.list[q.id]; ok {
		return nil, errdef.New(errdef.ErrDuplicateQueue, q)
	}
	q.manager = m
	m.list[q.id] = q
	return q, nil
}

// Remove unregisters the referenced queue and returns it, or nil.
func (m *Manager) Remove(ref Ref) *Queue {
	q := m.Get(ref)
	if q == nil {
		return nil
	}
	delete(m.list, q.id)
	return q
}

// Get resolves ref to the registered queue, or nil.
func (m *Manager) Get(ref Ref) *Queue {
	id := m.GetID(ref)
	if id == "" {
		return nil
	}
	return m.list[id]
}

// GetID resolves ref to a queue id.
// An unregistered raw id resolves to ""; a queue value always resolves to its own id.
func (m *Manager) GetID(ref Ref) string {
	if ref.queue != nil {
		return ref.queue.id
	}
	if _, ok := m.list[ref.id]; ok {
		return ref.id
	}
	return ""
}

// All returns a copy of the id to queue mapping.
func (m *Manager) All() map[string]*Queue {
	out := make(map[string]*Queue, len(m.list))
	for id, q := range m.list {
		out[id] = q
	}
	return out
}

// Len returns the number of registered queues.
func (m *Manager) Len() int {
	return len(m.list)
}
