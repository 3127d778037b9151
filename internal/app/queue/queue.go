package queue

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/osa030/mediaqueue/internal/domain/errdef"
	"github.com/osa030/mediaqueue/internal/domain/media"
)

// Resolver resolves text input to media. The extractor manager satisfies it.
type Resolver interface {
	Extract(ctx context.Context, input string) (media.Result, error)
}

// Queue is an ordered, position-tracked collection of media.
// Ordering is delegated to a Storage; navigation and play are implemented here.
// A Queue assumes a single writer; callers serialize concurrent use.
type Queue struct {
	id       string
	manager  *Manager
	storage  Storage
	position int
}

// New creates a standalone queue over storage. Use Manager.Create for managed queues.
func New(id string, storage Storage) (*Queue, error) {
	if storage == nil {
		return nil, errdef.New(errdef.ErrInvalidQueueStruct, id)
	}
	return &Queue{
		id:       id,
		storage:  storage,
		position: -1,
	}, nil
}

// ID returns the queue id.
func (q *Queue) ID() string { return q.id }

// Manager returns the owning manager, nil for a standalone queue.
func (q *Queue) Manager() *Manager { return q.manager }

// Storage returns the underlying storage.
func (q *Queue) Storage() Storage { return q.storage }

// Position returns the current position; -1 means nothing is selected.
func (q *Queue) Position() int { return q.position }

// SetPosition moves the position without any bounds check.
func (q *Queue) SetPosition(position int) { q.position = position }

// All returns every media in order.
func (q *Queue) All() []*media.Media { return q.storage.All() }

// Add appends items and returns them.
func (q *Queue) Add(items ...*media.Media) []*media.Media {
	return q.storage.Add(items, mo.None[int]())
}

// Insert inserts items at position and returns them.
func (q *Queue) Insert(position int, items ...*media.Media) []*media.Media {
	return q.storage.Add(items, mo.Some(position))
}

// Get returns the media at position, or nil.
func (q *Queue) Get(position int) *media.Media { return q.storage.Get(position) }

// Remove removes and returns the media at position, or nil.
func (q *Queue) Remove(position int) *media.Media { return q.storage.Remove(position) }

// Clear empties the queue. The position is left as is.
func (q *Queue) Clear() { q.storage.Clear() }

// IndexOf returns the position of m, or -1.
func (q *Queue) IndexOf(m *media.Media) int { return q.storage.IndexOf(m) }

// Size returns the number of media held.
func (q *Queue) Size() int { return len(q.storage.All()) }

// Current returns the media at the current position, or nil.
func (q *Queue) Current() *media.Media { return q.storage.Get(q.position) }

// Next advances the position and returns the new current media.
// It returns nil without moving when position+1 >= Size()-1, so the last
// index is never reached through Next.
func (q *Queue) Next() *media.Media {
	last := q.Size() - 1
	next := q.position + 1
	if next >= last {
		return nil
	}
	q.position = next
	return q.Current()
}

// Previous moves the position back and returns the new current media.
// It returns nil without moving when the position would drop to -1 or below.
func (q *Queue) Previous() *media.Media {
	prev := q.position - 1
	if prev <= -1 {
		return nil
	}
	q.position = prev
	return q.Current()
}

// Play resolves target, fetches its stream, and appends the media to the
// queue if it is not held yet. The position is not changed.
//
// A position target must point at an existing item. Other targets that
// resolve to nothing fall back to Current(). Text resolving to a list adds
// the whole list and plays its first item. Extractor errors are returned unchanged.
func (q *Queue) Play(ctx context.Context, target Target) (io.ReadCloser, error) {
	_, stream, err := q.PlayMedia(ctx, target)
	return stream, err
}

// PlayMedia is Play, also returning the media that was resolved.
func (q *Queue) PlayMedia(ctx context.Context, target Target) (*media.Media, io.ReadCloser, error) {
	m, err := q.resolve(ctx, target)
	if err != nil {
		return nil, nil, err
	}

	stream, err := m.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}

	if q.IndexOf(m) == -1 {
		q.Add(m)
	}

	zlog.Debug().Msgf("playing media: queue=%s media=%s title=%q", q.id, m.ID(), m.Title())
	return m, stream, nil
}

func (q *Queue) resolve(ctx context.Context, target Target) (*media.Media, error) {
	if target == nil {
		return nil, errdef.New(errdef.ErrMissingArgument, "target")
	}

	if pos, ok := target.(PositionTarget); ok {
		m := q.Get(int(pos))
		if m == nil {
			return nil, errors.Wrapf(errdef.New(errdef.ErrInvalidArgument, target), "no media at position %d", int(pos))
		}
		return m, nil
	}

	m, err := q.resolveMedia(ctx, target)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = q.Current()
	}
	if m == nil {
		return nil, errdef.New(errdef.ErrInvalidArgument, target)
	}
	return m, nil
}

// resolveMedia turns a non-positional target into media. A text target that
// extracts to a list adds the list to the queue.
func (q *Queue) resolveMedia(ctx context.Context, target Target) (*media.Media, error) {
	switch t := target.(type) {
	case MediaTarget:
		return t.Media, nil
	case QueueTarget:
		if t.Queue == nil {
			return nil, nil
		}
		return t.Queue.Get(0), nil
	case TextTarget:
		resolver := q.resolver()
		if resolver == nil {
			return nil, nil
		}
		res, err := resolver.Extract(ctx, string(t))
		if err != nil {
			return nil, err
		}
		if list, ok := res.List(); ok {
			q.Add(list...)
			return res.First(), nil
		}
		m, _ := res.Single()
		return m, nil
	default:
		return nil, nil
	}
}

func (q *Queue) resolver() Resolver {
	if q.manager == nil {
		return nil
	}
	return q.manager.resolver
}
