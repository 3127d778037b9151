package queue

import (
	"context"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mediaqueue/internal/app/extractor"
	"github.com/osa030/mediaqueue/internal/domain/errdef"
	"github.com/osa030/mediaqueue/internal/domain/media"
	"github.com/osa030/mediaqueue/internal/domain/media/mediatest"
)

func newQueueWith(t *testing.T, n int) (*Queue, []*media.Media) {
	t.Helper()
	q, err := New("q", NewMemoryStorage())
	require.NoError(t, err)

	ext := mediatest.New("foo", 0, "foo")
	items := make([]*media.Media, n)
	for i := range items {
		items[i] = mediatest.Media(ext, string(rune('a'+i)), string(rune('a'+i)))
	}
	q.Add(items...)
	return q, items
}

func newManagedQueue(t *testing.T, extractors ...media.Extractor) *Queue {
	t.Helper()
	em, err := extractor.NewManager(extractors...)
	require.NoError(t, err)
	qm, err := NewManager(em, func() Storage { return NewMemoryStorage() })
	require.NoError(t, err)
	return qm.Create("q")
}

func TestNew_RequiresStorage(t *testing.T) {
	_, err := New("q", nil)
	assert.True(t, errors.Is(err, errdef.ErrInvalidQueueStruct))
}

func TestQueue_InitialState(t *testing.T) {
	q, _ := newQueueWith(t, 0)

	assert.Equal(t, -1, q.Position())
	assert.Equal(t, 0, q.Size())
	assert.Nil(t, q.Current())
	assert.Nil(t, q.Next())
	assert.Nil(t, q.Previous())
	assert.Equal(t, -1, q.Position())
}

func TestQueue_Next(t *testing.T) {
	tests := []struct {
		name         string
		size         int
		start        int
		wantTitle    string
		wantNil      bool
		wantPosition int
	}{
		{name: "from nothing selected", size: 4, start: -1, wantTitle: "a", wantPosition: 0},
		{name: "advance in the middle", size: 4, start: 1, wantTitle: "c", wantPosition: 2},
		{name: "blocked at size-2", size: 4, start: 2, wantNil: true, wantPosition: 2},
		{name: "blocked at last index", size: 4, start: 3, wantNil: true, wantPosition: 3},
		{name: "single item never reachable", size: 1, start: -1, wantNil: true, wantPosition: -1},
		{name: "two items", size: 2, start: -1, wantTitle: "a", wantPosition: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := newQueueWith(t, tt.size)
			q.SetPosition(tt.start)

			got := q.Next()
			if tt.wantNil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantTitle, got.Title())
			}
			assert.Equal(t, tt.wantPosition, q.Position())
		})
	}
}

func TestQueue_Previous(t *testing.T) {
	tests := []struct {
		name         string
		start        int
		wantTitle    string
		wantNil      bool
		wantPosition int
	}{
		{name: "step back", start: 2, wantTitle: "b", wantPosition: 1},
		{name: "to head", start: 1, wantTitle: "a", wantPosition: 0},
		{name: "blocked at head", start: 0, wantNil: true, wantPosition: 0},
		{name: "blocked before head", start: -1, wantNil: true, wantPosition: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := newQueueWith(t, 3)
			q.SetPosition(tt.start)

			got := q.Previous()
			if tt.wantNil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantTitle, got.Title())
			}
			assert.Equal(t, tt.wantPosition, q.Position())
		})
	}
}

func TestQueue_StorageDelegation(t *testing.T) {
	q, items := newQueueWith(t, 3)

	assert.Equal(t, 3, q.Size())
	assert.Nil(t, q.Remove(7))
	assert.Equal(t, 3, q.Size())

	ext := mediatest.New("bar", 0, "bar")
	stray := mediatest.Media(ext, "stray", "stray")
	assert.Equal(t, -1, q.IndexOf(stray))

	q.Insert(1, stray)
	assert.Same(t, stray, q.Get(q.IndexOf(stray)))
	assert.Equal(t, []string{"a", "stray", "b", "c"}, titles(q.All()))

	q.SetPosition(2)
	assert.Same(t, items[1], q.Current())

	q.Clear()
	assert.Equal(t, 0, q.Size())
	assert.Equal(t, 2, q.Position())
	assert.Nil(t, q.Current())
}

func TestQueue_AddGetRoundTrip(t *testing.T) {
	q, _ := newQueueWith(t, 2)
	ext := mediatest.New("foo", 0, "foo")
	m := mediatest.Media(ext, "new", "new")

	q.Add(m)
	assert.Same(t, m, q.Get(q.IndexOf(m)))
}

func TestQueue_Play(t *testing.T) {
	ctx := context.Background()

	t.Run("text target appends extracted media", func(t *testing.T) {
		q := newManagedQueue(t, mediatest.New("foo", 0, "foo"))

		stream, err := q.Play(ctx, ByText("very foo"))
		require.NoError(t, err)
		s, ok := stream.(*mediatest.Stream)
		require.True(t, ok)
		assert.Equal(t, "foo", s.Name)

		all := q.All()
		require.Len(t, all, 1)
		assert.Equal(t, "very foo", all[0].Data().Title)
		assert.Equal(t, -1, q.Position())
	})

	t.Run("position out of range", func(t *testing.T) {
		q := newManagedQueue(t)

		_, err := q.Play(ctx, ByPosition(42))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errdef.ErrInvalidArgument))
	})

	t.Run("position in range does not re-add", func(t *testing.T) {
		q, items := newQueueWith(t, 3)

		stream, err := q.Play(ctx, ByPosition(1))
		require.NoError(t, err)
		body, err := io.ReadAll(stream)
		require.NoError(t, err)
		assert.Equal(t, items[1].URL(), string(body))
		assert.Equal(t, 3, q.Size())
	})

	t.Run("media target not held is appended", func(t *testing.T) {
		q, _ := newQueueWith(t, 2)
		ext := mediatest.New("bar", 0, "bar")
		m := mediatest.Media(ext, "m", "m")

		_, err := q.Play(ctx, ByMedia(m))
		require.NoError(t, err)
		assert.Equal(t, 3, q.Size())
		assert.Equal(t, 2, q.IndexOf(m))
		assert.Equal(t, 1, ext.FetchCalls())
	})

	t.Run("queue target plays its head", func(t *testing.T) {
		src, items := newQueueWith(t, 2)
		dst, _ := newQueueWith(t, 0)

		_, err := dst.Play(ctx, ByQueue(src))
		require.NoError(t, err)
		require.Equal(t, 1, dst.Size())
		assert.Same(t, items[0], dst.Get(0))
	})

	t.Run("nothing resolved falls back to current", func(t *testing.T) {
		q, items := newQueueWith(t, 3)
		q.SetPosition(2)
		empty, _ := newQueueWith(t, 0)

		_, err := q.Play(ctx, ByQueue(empty))
		require.NoError(t, err)
		assert.Equal(t, 3, q.Size())
		assert.Same(t, items[2], q.Current())
	})

	t.Run("nothing resolved and no current", func(t *testing.T) {
		q := newManagedQueue(t, mediatest.New("foo", 0, "foo"))

		_, err := q.Play(ctx, ByText("no match"))
		assert.True(t, errors.Is(err, errdef.ErrInvalidArgument))
		assert.Equal(t, 0, q.Size())
	})

	t.Run("nil target", func(t *testing.T) {
		q, _ := newQueueWith(t, 1)

		_, err := q.Play(ctx, nil)
		assert.True(t, errors.Is(err, errdef.ErrMissingArgument))
	})

	t.Run("text on standalone queue falls back to current", func(t *testing.T) {
		q, items := newQueueWith(t, 2)
		q.SetPosition(0)

		_, err := q.Play(ctx, ByText("very foo"))
		require.NoError(t, err)
		assert.Same(t, items[0], q.Current())
		assert.Equal(t, 2, q.Size())
	})

	t.Run("list result is added whole and first is played", func(t *testing.T) {
		foo := mediatest.New("foo", 0, "foo")
		a := mediatest.Media(foo, "a", "a")
		b := mediatest.Media(foo, "b", "b")
		foo.ExtractFn = func(context.Context, string) (media.Result, error) {
			return media.List([]*media.Media{a, b}), nil
		}
		q := newManagedQueue(t, foo)

		stream, err := q.Play(ctx, ByText("album foo"))
		require.NoError(t, err)
		body, err := io.ReadAll(stream)
		require.NoError(t, err)
		assert.Equal(t, a.URL(), string(body))
		assert.Equal(t, []*media.Media{a, b}, q.All())
	})

	t.Run("extract error propagates", func(t *testing.T) {
		boom := errors.New("extract failed")
		foo := mediatest.New("foo", 0, "foo")
		foo.ExtractFn = func(context.Context, string) (media.Result, error) {
			return media.None(), boom
		}
		q := newManagedQueue(t, foo)

		_, err := q.Play(ctx, ByText("im foo"))
		assert.Same(t, boom, err)
	})

	t.Run("fetch error propagates and nothing is added", func(t *testing.T) {
		boom := errors.New("fetch failed")
		foo := mediatest.New("foo", 0, "foo")
		foo.FetchFn = func(context.Context, string) (io.ReadCloser, error) {
			return nil, boom
		}
		q := newManagedQueue(t, foo)

		_, err := q.Play(ctx, ByText("im foo"))
		assert.Same(t, boom, err)
		assert.Equal(t, 0, q.Size())
	})
}
