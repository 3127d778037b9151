// Package mediatest provides a configurable Extractor for tests.
package mediatest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/osa030/mediaqueue/internal/domain/media"
)

// Stream is the reader returned by Extractor.Fetch.
type Stream struct {
	*strings.Reader
	Name   string
	URL    string
	closed bool
	mu     sync.Mutex
}

// Close marks the stream closed.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Extractor is a test double. Nil hooks fall back to suffix matching on
// Suffix, a single Media titled after the input, and a Stream named after ID.
type Extractor struct {
	media.BaseExtractor

	Suffix     string
	ValidateFn func(input string) bool
	ExtractFn  func(ctx context.Context, input string) (media.Result, error)
	FetchFn    func(ctx context.Context, url string) (io.ReadCloser, error)

	mu            sync.Mutex
	validateCalls int
	extractCalls  int
	fetchCalls    int
}

// New creates an Extractor with the given id, priority, and match suffix.
func New(id string, priority int, suffix string) *Extractor {
	base, err := media.NewBaseExtractor(id+"-extractor", map[string]any{media.PriorityKey: priority}, id, nil)
	if err != nil {
		panic(err)
	}
	return &Extractor{BaseExtractor: base, Suffix: suffix}
}

// Validate implements media.Extractor.
func (e *Extractor) Validate(input string) bool {
	e.mu.Lock()
	e.validateCalls++
	e.mu.Unlock()
	if e.ValidateFn != nil {
		return e.ValidateFn(input)
	}
	return strings.HasSuffix(input, e.Suffix)
}

// Extract implements media.Extractor.
func (e *Extractor) Extract(ctx context.Context, input string) (media.Result, error) {
	e.mu.Lock()
	e.extractCalls++
	e.mu.Unlock()
	if e.ExtractFn != nil {
		return e.ExtractFn(ctx, input)
	}
	m, err := media.New(e, "https://"+e.ID()+".example.com/"+input, media.Data{Title: input})
	if err != nil {
		return media.None(), err
	}
	return media.Single(m), nil
}

// Fetch implements media.Extractor.
func (e *Extractor) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	e.mu.Lock()
	e.fetchCalls++
	e.mu.Unlock()
	if e.FetchFn != nil {
		return e.FetchFn(ctx, url)
	}
	return &Stream{Reader: strings.NewReader(url), Name: e.ID(), URL: url}, nil
}

// ValidateCalls returns how often Validate ran.
func (e *Extractor) ValidateCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateCalls
}

// ExtractCalls returns how often Extract ran.
func (e *Extractor) ExtractCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.extractCalls
}

// FetchCalls returns how often Fetch ran.
func (e *Extractor) FetchCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fetchCalls
}

// Media builds a Media owned by e, panicking on error.
func Media(e media.Extractor, id, title string) *media.Media {
	m, err := media.New(e, "https://example.com/"+title, media.Data{Title: title}, media.WithID(id))
	if err != nil {
		panic(err)
	}
	return m
}
