package playback

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mediaqueue/internal/app/extractor"
	"github.com/osa030/mediaqueue/internal/app/queue"
	"github.com/osa030/mediaqueue/internal/domain/media"
	"github.com/osa030/mediaqueue/internal/domain/media/mediatest"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("device gone") }

func newQueue(t *testing.T, extractors ...media.Extractor) *queue.Queue {
	t.Helper()
	em, err := extractor.NewManager(extractors...)
	require.NoError(t, err)
	qm, err := queue.NewManager(em, func() queue.Storage { return queue.NewMemoryStorage() })
	require.NoError(t, err)
	return qm.Create("q")
}

func drain(ch <-chan Event) []EventType {
	var types []EventType
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return types
			}
			types = append(types, e.Type)
		default:
			return types
		}
	}
}

func TestNewPlayer(t *testing.T) {
	q := newQueue(t)

	p, err := NewPlayer(q, io.Discard, Config{})
	require.NoError(t, err)
	assert.Equal(t, 32768, p.config.BufferSize)
	assert.Equal(t, 16, p.config.EventBuffer)
	assert.Equal(t, time.Second, p.config.StopTimeout)
	assert.Equal(t, StateIdle, p.State())

	_, err = NewPlayer(q, io.Discard, Config{BufferSize: 10})
	assert.Error(t, err)

	_, err = NewPlayer(nil, io.Discard, Config{})
	assert.Error(t, err)

	_, err = NewPlayer(q, nil, Config{})
	assert.Error(t, err)
}

func TestPlayer_PlayToEnd(t *testing.T) {
	q := newQueue(t, mediatest.New("foo", 0, "foo"))
	out := &syncBuffer{}
	p, err := NewPlayer(q, out, Config{})
	require.NoError(t, err)
	defer p.Close()

	m, err := p.Play(context.Background(), queue.ByText("very foo"))
	require.NoError(t, err)
	assert.Equal(t, "very foo", m.Title())
	assert.Equal(t, 0, q.Position())

	started := <-p.Events()
	assert.Equal(t, EventTrackStarted, started.Type)
	assert.Same(t, m, started.Media)
	assert.Equal(t, 0, started.Position)

	ended := <-p.Events()
	assert.Equal(t, EventTrackEnded, ended.Type)
	assert.Equal(t, StateIdle, ended.State)

	assert.Equal(t, m.URL(), out.String())
	assert.Equal(t, StateIdle, p.State())
	assert.Nil(t, p.NowPlaying())
}

func TestPlayer_PauseResumeStop(t *testing.T) {
	pr, pw := io.Pipe()
	foo := mediatest.New("foo", 0, "foo")
	foo.FetchFn = func(context.Context, string) (io.ReadCloser, error) {
		return pr, nil
	}
	q := newQueue(t, foo)
	out := &syncBuffer{}
	p, err := NewPlayer(q, out, Config{BufferSize: 512})
	require.NoError(t, err)
	defer p.Close()

	m, err := p.Play(context.Background(), queue.ByText("live foo"))
	require.NoError(t, err)
	assert.Same(t, m, p.NowPlaying())
	assert.Equal(t, StatePlaying, p.State())

	go func() { _, _ = pw.Write([]byte("first")) }()
	assert.Eventually(t, func() bool { return out.String() == "first" }, waitFor, tick)

	require.NoError(t, p.Pause())
	assert.Equal(t, StatePaused, p.State())
	assert.Nil(t, p.NowPlaying())

	go func() { _, _ = pw.Write([]byte("second")) }()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "first", out.String())

	require.NoError(t, p.Resume())
	assert.Equal(t, StatePlaying, p.State())
	assert.Eventually(t, func() bool { return out.String() == "firstsecond" }, waitFor, tick)

	require.NoError(t, p.Stop())
	assert.Equal(t, StateIdle, p.State())

	_, err = pw.Write([]byte("after stop"))
	assert.Error(t, err)

	assert.Equal(t, []EventType{
		EventTrackStarted,
		EventStateChanged,
		EventStateChanged,
		EventTrackStopped,
	}, drain(p.Events()))
}

func TestPlayer_NoOpTransitions(t *testing.T) {
	q := newQueue(t)
	p, err := NewPlayer(q, io.Discard, Config{})
	require.NoError(t, err)

	assert.NoError(t, p.Pause())
	assert.NoError(t, p.Resume())
	assert.NoError(t, p.Stop())
	assert.Equal(t, StateIdle, p.State())
	assert.Empty(t, drain(p.Events()))

	p.Close()
	p.Close()
	_, ok := <-p.Events()
	assert.False(t, ok)
}

func TestPlayer_Closed(t *testing.T) {
	q := newQueue(t, mediatest.New("foo", 0, "foo"))
	p, err := NewPlayer(q, io.Discard, Config{})
	require.NoError(t, err)
	p.Close()

	assert.ErrorIs(t, p.Pause(), ErrClosed)
	assert.ErrorIs(t, p.Resume(), ErrClosed)
	assert.ErrorIs(t, p.Stop(), ErrClosed)
	assert.ErrorIs(t, p.PlayStream(io.NopCloser(strings.NewReader("x")), mo.None[int]()), ErrClosed)

	_, err = p.Play(context.Background(), queue.ByText("very foo"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, q.Size())
}

func TestPlayer_StalledOutput(t *testing.T) {
	// Nothing reads the pipe, so the first Write blocks.
	stalledR, stalled := io.Pipe()
	defer stalledR.Close()

	q := newQueue(t, mediatest.New("foo", 0, "foo"))
	p, err := NewPlayer(q, stalled, Config{StopTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = p.Play(context.Background(), queue.ByText("very foo"))
	require.NoError(t, err)

	returned := func(f func()) bool {
		done := make(chan struct{})
		go func() {
			f()
			close(done)
		}()
		select {
		case <-done:
			return true
		case <-time.After(waitFor):
			return false
		}
	}

	assert.True(t, returned(func() { assert.NoError(t, p.Stop()) }), "Stop blocked on a stalled write")
	assert.Equal(t, StateIdle, p.State())

	assert.True(t, returned(func() {
		_, err := p.Play(context.Background(), queue.ByText("still foo"))
		assert.NoError(t, err)
	}), "Play blocked on a stalled write")
	assert.True(t, returned(p.Close), "Close blocked on a stalled write")
}

func TestPlayer_PlayReplacesCurrent(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	first := mediatest.New("first", 1, "first")
	first.FetchFn = func(context.Context, string) (io.ReadCloser, error) { return pr, nil }
	second := mediatest.New("second", 0, "second")
	q := newQueue(t, first, second)
	out := &syncBuffer{}
	p, err := NewPlayer(q, out, Config{})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Play(context.Background(), queue.ByText("song first"))
	require.NoError(t, err)

	m, err := p.Play(context.Background(), queue.ByText("song second"))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Position())
	assert.Equal(t, 2, q.Size())

	assert.Eventually(t, func() bool { return p.State() == StateIdle }, waitFor, tick)
	assert.Equal(t, m.URL(), out.String())
	assert.Equal(t, []EventType{
		EventTrackStarted,
		EventTrackStopped,
		EventTrackStarted,
		EventTrackEnded,
	}, drain(p.Events()))
}

func TestPlayer_NextPrevious(t *testing.T) {
	foo := mediatest.New("foo", 0, "foo")
	q := newQueue(t, foo)
	for _, title := range []string{"a", "b", "c", "d"} {
		q.Add(mediatest.Media(foo, title, title))
	}
	out := &syncBuffer{}
	p, err := NewPlayer(q, out, Config{})
	require.NoError(t, err)
	defer p.Close()
	ctx := context.Background()

	m, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", m.Title())

	m, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", m.Title())

	m, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", m.Title())

	// Advancing onto the last index is refused.
	m, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, 2, q.Position())

	m, err = p.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", m.Title())
	assert.Equal(t, 1, q.Position())
}

func TestPlayer_PlayStream(t *testing.T) {
	foo := mediatest.New("foo", 0, "foo")
	q := newQueue(t, foo)
	a := mediatest.Media(foo, "a", "a")
	b := mediatest.Media(foo, "b", "b")
	q.Add(a, b)
	out := &syncBuffer{}
	p, err := NewPlayer(q, out, Config{})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.PlayStream(io.NopCloser(strings.NewReader("raw bytes")), mo.Some(1)))
	started := <-p.Events()
	assert.Same(t, b, started.Media)
	assert.Equal(t, 1, q.Position())

	assert.Eventually(t, func() bool { return out.String() == "raw bytes" }, waitFor, tick)

	// A nil stream only resumes, and nothing is paused here.
	require.NoError(t, p.PlayStream(nil, mo.None[int]()))
	assert.Equal(t, 1, q.Position())
}

func TestPlayer_WriteError(t *testing.T) {
	q := newQueue(t, mediatest.New("foo", 0, "foo"))
	p, err := NewPlayer(q, failingWriter{}, Config{})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Play(context.Background(), queue.ByText("im foo"))
	require.NoError(t, err)

	<-p.Events()
	e := <-p.Events()
	assert.Equal(t, EventError, e.Type)
	assert.ErrorContains(t, e.Err, "device gone")
	assert.Equal(t, StateIdle, p.State())
}

func TestPlayer_PlayErrorLeavesStateUntouched(t *testing.T) {
	q := newQueue(t)
	p, err := NewPlayer(q, io.Discard, Config{})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Play(context.Background(), queue.ByPosition(42))
	assert.Error(t, err)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, -1, q.Position())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "paused", StatePaused.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, "track_started", EventTrackStarted.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
