package playback

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/osa030/mediaqueue/internal/app/queue"
	"github.com/osa030/mediaqueue/internal/domain/media"
)

// ErrClosed is returned by operations on a closed player.
var ErrClosed = errors.New("player is closed")

// Config holds player configuration.
type Config struct {
	BufferSize  int           `yaml:"buffer_size" default:"32768" validate:"gte=512"` // Copy buffer size in bytes
	EventBuffer int           `yaml:"event_buffer" default:"16" validate:"gte=1"`    // Capacity of the event channel
	StopTimeout time.Duration `yaml:"stop_timeout" default:"1s" validate:"gte=0"`    // Wait for a stopped copy loop to exit
}

// Player copies the stream of the playing media of a queue into an output.
// It layers play/pause/stop state on top of Queue.Play, which only hands off streams.
type Player struct {
	mu sync.Mutex

	queue  *queue.Queue
	out    io.Writer
	config Config

	state   State
	current *session
	closed  bool

	eventCh chan Event
}

// session is one stream being copied to the output.
type session struct {
	stream   io.ReadCloser
	media    *media.Media
	position int
	gate     *gate
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPlayer creates a player for q writing to out.
func NewPlayer(q *queue.Queue, out io.Writer, config Config) (*Player, error) {
	if q == nil {
		return nil, errors.New("queue is required")
	}
	if out == nil {
		return nil, errors.New("output is required")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	return &Player{
		queue:   q,
		out:     out,
		config:  config,
		state:   StateIdle,
		eventCh: make(chan Event, config.EventBuffer),
	}, nil
}

// Events returns the event channel. It is closed by Close.
func (p *Player) Events() <-chan Event {
	return p.eventCh
}

// Queue returns the played queue.
func (p *Player) Queue() *queue.Queue {
	return p.queue
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// NowPlaying returns the media being copied, or nil when idle or paused.
func (p *Player) NowPlaying() *media.Media {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying || p.current == nil {
		return nil
	}
	return p.current.media
}

// Play resolves target through the queue, moves the queue position onto the
// resolved media, and starts copying its stream. Any current stream is stopped.
func (p *Player) Play(ctx context.Context, target queue.Target) (*media.Media, error) {
	if p.isClosed() {
		return nil, ErrClosed
	}
	m, stream, err := p.queue.PlayMedia(ctx, target)
	if err != nil {
		return nil, err
	}

	position := p.queue.IndexOf(m)
	if pos, ok := target.(queue.PositionTarget); ok {
		position = int(pos)
	}

	if err := p.start(stream, m, position); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return m, nil
}

// PlayStream copies an already fetched stream, optionally moving the queue
// position. A nil stream resumes paused playback instead.
func (p *Player) PlayStream(stream io.ReadCloser, position mo.Option[int]) error {
	if stream == nil {
		return p.Resume()
	}

	pos, ok := position.Get()
	var m *media.Media
	if ok {
		m = p.queue.Get(pos)
	} else {
		pos = p.queue.Position()
	}
	return p.start(stream, m, pos)
}

// Next advances the queue and plays the new current media.
// It returns nil without playing when the queue cannot advance.
func (p *Player) Next(ctx context.Context) (*media.Media, error) {
	if p.queue.Next() == nil {
		return nil, nil
	}
	return p.Play(ctx, queue.ByPosition(p.queue.Position()))
}

// Previous moves the queue back and plays the new current media.
// It returns nil without playing when the queue cannot move back.
func (p *Player) Previous(ctx context.Context) (*media.Media, error) {
	if p.queue.Previous() == nil {
		return nil, nil
	}
	return p.Play(ctx, queue.ByPosition(p.queue.Position()))
}

// Pause holds the current stream. It is a no-op unless playing.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.current == nil || p.state != StatePlaying {
		return nil
	}
	p.current.gate.close()
	p.state = StatePaused
	p.sendEventLocked(p.eventLocked(EventStateChanged))
	return nil
}

// Resume continues a paused stream. It is a no-op unless paused.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.current == nil || p.state != StatePaused {
		return nil
	}
	p.current.gate.open()
	p.state = StatePlaying
	p.sendEventLocked(p.eventLocked(EventStateChanged))
	return nil
}

// Stop closes the current stream and waits, at most StopTimeout, for
// copying to end. It is a no-op when idle.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	s := p.stopLocked()
	p.mu.Unlock()

	p.await(s)
	return nil
}

// Close stops playback and closes the event channel.
func (p *Player) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	s := p.stopLocked()
	p.closed = true
	close(p.eventCh)
	p.mu.Unlock()

	p.await(s)
}

func (p *Player) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// await waits for a detached session's copy loop. A loop stuck in a
// blocking Write is abandoned after StopTimeout; finish drops its result.
func (p *Player) await(s *session) {
	if s == nil {
		return
	}
	select {
	case <-s.done:
	case <-time.After(p.config.StopTimeout):
		zlog.Warn().Msgf("copy loop did not exit in %s, detaching: queue=%s", p.config.StopTimeout, p.queue.ID())
	}
}

func (p *Player) start(stream io.ReadCloser, m *media.Media, position int) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	prev := p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		stream:   stream,
		media:    m,
		position: position,
		gate:     newGate(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	p.current = s
	p.state = StatePlaying
	p.queue.SetPosition(position)
	p.sendEventLocked(p.eventLocked(EventTrackStarted))
	p.mu.Unlock()

	p.await(prev)

	if m != nil {
		zlog.Info().Msgf("playback started: queue=%s position=%d title=%q", p.queue.ID(), position, m.Title())
	}
	go p.pipe(s)
	return nil
}

// stopLocked detaches the current session and closes its stream.
// Must be called with p.mu held.
func (p *Player) stopLocked() *session {
	s := p.current
	if s == nil {
		return nil
	}

	s.cancel()
	if err := s.stream.Close(); err != nil {
		zlog.Debug().Msgf("closing stream failed: queue=%s error=%v", p.queue.ID(), err)
	}
	p.state = StateIdle
	p.sendEventLocked(p.eventLocked(EventTrackStopped))
	p.current = nil
	return s
}

func (p *Player) pipe(s *session) {
	defer close(s.done)

	buf := make([]byte, p.config.BufferSize)
	for {
		n, rerr := s.stream.Read(buf)
		if n > 0 {
			if err := s.gate.wait(s.ctx); err != nil {
				return
			}
			if _, werr := p.out.Write(buf[:n]); werr != nil {
				p.finish(s, errors.Wrap(werr, "failed to write stream"))
				return
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				p.finish(s, nil)
			} else {
				p.finish(s, errors.Wrap(rerr, "failed to read stream"))
			}
			return
		}
	}
}

// finish ends s after its stream was drained or failed.
func (p *Player) finish(s *session, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A stopped or replaced session reports nothing.
	if p.current != s || s.ctx.Err() != nil {
		return
	}

	s.cancel()
	_ = s.stream.Close()
	p.current = nil
	p.state = StateIdle

	if err != nil {
		zlog.Warn().Msgf("playback failed: queue=%s error=%v", p.queue.ID(), err)
		e := p.eventForLocked(EventError, s)
		e.Err = err
		p.sendEventLocked(e)
		return
	}
	p.sendEventLocked(p.eventForLocked(EventTrackEnded, s))
}

func (p *Player) eventLocked(t EventType) Event {
	return p.eventForLocked(t, p.current)
}

func (p *Player) eventForLocked(t EventType, s *session) Event {
	e := Event{
		Type:     t,
		QueueID:  p.queue.ID(),
		Position: -1,
		State:    p.state,
	}
	if s != nil {
		e.Media = s.media
		e.Position = s.position
	}
	return e
}

// sendEventLocked sends an event without blocking.
// Must be called with p.mu held.
func (p *Player) sendEventLocked(e Event) {
	if p.closed {
		return
	}
	select {
	case p.eventCh <- e:
	default:
		// Channel full, drop event
	}
}

// gate blocks copying while paused.
type gate struct {
	mu     sync.Mutex
	opened chan struct{}
}

func newGate() *gate {
	g := &gate{opened: make(chan struct{})}
	close(g.opened)
	return g
}

func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.opened:
		g.opened = make(chan struct{})
	default:
	}
}

func (g *gate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.opened:
	default:
		close(g.opened)
	}
}

func (g *gate) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	ch := g.opened
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
