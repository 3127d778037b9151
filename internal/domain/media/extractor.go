package media

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/mediaqueue/internal/infra/idgen"
)

// Extractor turns text input into Media and opens byte streams for them.
// Implementations are supplied by plugins.
type Extractor interface {
	// ID returns the unique id of the extractor.
	ID() string
	// Name returns a human-readable label.
	Name() string
	// Priority orders extractors during resolution; higher wins.
	Priority() int
	// Validate reports whether the extractor can handle input.
	Validate(input string) bool
	// Extract converts input into one or more Media.
	Extract(ctx context.Context, input string) (Result, error)
	// Fetch opens the byte stream behind a url produced by Extract.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// PriorityKey is the settings key holding the extractor priority.
const PriorityKey = "priority"

// BaseExtractor implements the identity part of Extractor.
// Plugins embed it and provide Validate, Extract and Fetch.
type BaseExtractor struct {
	id       string
	name     string
	priority int
	options  map[string]any
}

// NewBaseExtractor builds a BaseExtractor from raw settings.
// The "priority" key is removed from settings and stored separately (default 0).
// An empty id is generated with gen, or the process-wide generator when gen is nil.
func NewBaseExtractor(name string, settings map[string]any, id string, gen idgen.Generator) (BaseExtractor, error) {
	opts := make(map[string]any, len(settings))
	priority := 0
	for k, v := range settings {
		if k != PriorityKey {
			opts[k] = v
			continue
		}
		if v == nil {
			continue
		}
		if err := mapstructure.WeakDecode(v, &priority); err != nil {
			return BaseExtractor{}, errors.Wrapf(err, "invalid priority for extractor %q", name)
		}
	}
	if id == "" {
		id = idgen.OrDefault(gen).NewID()
	}
	return BaseExtractor{
		id:       id,
		name:     name,
		priority: priority,
		options:  opts,
	}, nil
}

// ID returns the extractor id.
func (b BaseExtractor) ID() string { return b.id }

// Name returns the extractor name.
func (b BaseExtractor) Name() string { return b.name }

// Priority returns the extractor priority.
func (b BaseExtractor) Priority() int { return b.priority }

// Options returns the extractor settings without the priority key.
func (b BaseExtractor) Options() map[string]any {
	out := make(map[string]any, len(b.options))
	for k, v := range b.options {
		out[k] = v
	}
	return out
}
