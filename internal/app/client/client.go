// Package client provides the composition root of the media queue engine.
package client

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/osa030/mediaqueue/internal/app/extractor"
	"github.com/osa030/mediaqueue/internal/app/playback"
	"github.com/osa030/mediaqueue/internal/app/queue"
	"github.com/osa030/mediaqueue/internal/domain/errdef"
	"github.com/osa030/mediaqueue/internal/domain/media"
	"github.com/osa030/mediaqueue/internal/infra/config"
	"github.com/osa030/mediaqueue/internal/infra/idgen"
	"github.com/osa030/mediaqueue/internal/infra/plugins"
)

// Options configures New.
type Options struct {
	Extractors  []media.Extractor
	Storage     queue.StorageFactory // takes precedence over StorageName
	StorageName string               // registered storage, "memory" when empty
	IDGenerator idgen.Generator
	Playback    playback.Config
}

// Client owns one extractor manager and one queue manager wired to it.
type Client struct {
	extractors *extractor.Manager
	queues     *queue.Manager
	playback   playback.Config
}

// New creates a client.
func New(opts Options) (*Client, error) {
	em, err := extractor.NewManager(opts.Extractors...)
	if err != nil {
		return nil, err
	}

	name := opts.StorageName
	factory := opts.Storage
	if factory == nil {
		if name == "" {
			name = queue.MemoryStorageName
		}
		var ok bool
		factory, ok = queue.LookupStorage(name)
		if !ok {
			return nil, errors.Wrapf(errdef.New(errdef.ErrInvalidQueueStruct, name), "unknown storage %q", name)
		}
	}

	qm, err := queue.NewManager(em, factory,
		queue.WithIDGenerator(opts.IDGenerator),
		queue.WithStorageName(name),
	)
	if err != nil {
		return nil, err
	}

	return &Client{extractors: em, queues: qm, playback: opts.Playback}, nil
}

// NewFromConfig creates a client whose extractors and storage come from cfg.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	extractors, err := plugins.NewExtractorsFromConfig(cfg, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create extractors")
	}
	return New(Options{
		Extractors:  extractors,
		StorageName: cfg.Queue.Storage,
		Playback: playback.Config{
			BufferSize:  cfg.Playback.BufferSize,
			EventBuffer: cfg.Playback.EventBuffer,
			StopTimeout: cfg.Playback.StopTimeout,
		},
	})
}

// Extractors returns the extractor manager.
func (c *Client) Extractors() *extractor.Manager {
	return c.extractors
}

// Queues returns the queue manager.
func (c *Client) Queues() *queue.Manager {
	return c.queues
}

// NewPlayer creates a player for q using the client's playback configuration.
func (c *Client) NewPlayer(q *queue.Queue, out io.Writer) (*playback.Player, error) {
	return playback.NewPlayer(q, out, c.playback)
}
