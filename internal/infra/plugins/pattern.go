package plugins

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/mediaqueue/internal/domain/media"
	"github.com/osa030/mediaqueue/internal/infra/idgen"
)

// PatternType is the config type of PatternExtractor.
const PatternType = "pattern"

// PatternSettings configures a PatternExtractor.
type PatternSettings struct {
	Pattern       string `mapstructure:"pattern" validate:"required"`
	URLTemplate   string `mapstructure:"url_template" default:"pattern://%s"`
	TitleTemplate string `mapstructure:"title_template" default:"%s"`
	Payload       string `mapstructure:"payload"`
	Repeat        int    `mapstructure:"repeat" default:"1" validate:"gte=1"`
}

// PatternExtractor accepts input matching a regexp and serves a
// deterministic in-memory stream for it.
//
// The first capture group, when present, replaces the whole input in
// the url and title templates.
type PatternExtractor struct {
	media.BaseExtractor

	settings PatternSettings
	re       *regexp.Regexp
	gen      idgen.Generator
}

// NewPatternExtractor creates a PatternExtractor from raw settings.
func NewPatternExtractor(name, id string, settings map[string]any, gen idgen.Generator) (*PatternExtractor, error) {
	base, err := media.NewBaseExtractor(name, settings, id, gen)
	if err != nil {
		return nil, err
	}

	var s PatternSettings
	if err := decodeSettings(base.Options(), &s); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", s.Pattern)
	}

	return &PatternExtractor{BaseExtractor: base, settings: s, re: re, gen: gen}, nil
}

// Settings returns the decoded settings.
func (e *PatternExtractor) Settings() PatternSettings { return e.settings }

// Validate reports whether input matches the pattern.
func (e *PatternExtractor) Validate(input string) bool {
	return e.re.MatchString(input)
}

// Extract builds a single Media for input. Non-matching input yields none.
func (e *PatternExtractor) Extract(_ context.Context, input string) (media.Result, error) {
	match := e.re.FindStringSubmatch(input)
	if match == nil {
		return media.None(), nil
	}
	key := input
	if len(match) > 1 {
		key = match[1]
	}

	m, err := media.New(e,
		fmt.Sprintf(e.settings.URLTemplate, key),
		media.Data{
			Title:  fmt.Sprintf(e.settings.TitleTemplate, key),
			Source: e.ID(),
			Extra:  map[string]any{"input": input},
		},
		media.WithIDGenerator(e.gen),
	)
	if err != nil {
		return media.None(), err
	}
	return media.Single(m), nil
}

// Fetch returns the payload, or url itself, repeated.
func (e *PatternExtractor) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	body := e.settings.Payload
	if body == "" {
		body = url
	}
	return io.NopCloser(strings.NewReader(strings.Repeat(body, e.settings.Repeat))), nil
}
