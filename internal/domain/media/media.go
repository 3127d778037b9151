// Package media provides the Media entity and the Extractor capability that produces it.
package media

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/osa030/mediaqueue/internal/domain/errdef"
	"github.com/osa030/mediaqueue/internal/infra/idgen"
)

var validate = validator.New()

// Media is a playable item produced by an Extractor.
// It is immutable after construction.
type Media struct {
	id        string
	extractor Extractor
	url       string
	data      Data
}

type options struct {
	id  string
	gen idgen.Generator
}

// Option configures New.
type Option func(*options)

// WithID sets an explicit id. An empty id means "generate one".
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithIDGenerator sets the generator used when no id is given.
func WithIDGenerator(g idgen.Generator) Option {
	return func(o *options) { o.gen = g }
}

// New creates a Media owned by extractor.
func New(extractor Extractor, url string, data Data, opts ...Option) (*Media, error) {
	if extractor == nil {
		return nil, errdef.New(errdef.ErrMissingArgument, "extractor")
	}
	if err := validate.Struct(data); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid media data"), errdef.ErrInvalidArgument)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	id := o.id
	if id == "" {
		id = idgen.OrDefault(o.gen).NewID()
	}

	return &Media{
		id:        id,
		extractor: extractor,
		url:       url,
		data:      data.clone(),
	}, nil
}

// ID returns the media id.
func (m *Media) ID() string { return m.id }

// Extractor returns the extractor that produced the media.
func (m *Media) Extractor() Extractor { return m.extractor }

// URL returns the opaque url handed back to the extractor on fetch.
func (m *Media) URL() string { return m.url }

// Data returns a copy of the media payload.
func (m *Media) Data() Data { return m.data.clone() }

// Title is shorthand for Data().Title.
func (m *Media) Title() string { return m.data.Title }

// Fetch opens the byte stream of the media through its extractor.
// Extractor errors are returned unchanged.
func (m *Media) Fetch(ctx context.Context) (io.ReadCloser, error) {
	return m.extractor.Fetch(ctx, m.url)
}
