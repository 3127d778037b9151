// Package plugins provides the built-in extractors and builds them from configuration.
package plugins

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/mediaqueue/internal/domain/media"
	"github.com/osa030/mediaqueue/internal/infra/config"
	"github.com/osa030/mediaqueue/internal/infra/idgen"
)

// Factory builds an extractor from a configured name, id, and settings.
// Settings still carry the "priority" key, which media.NewBaseExtractor consumes.
type Factory func(name, id string, settings map[string]any, gen idgen.Generator) (media.Extractor, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register(PatternType, func(name, id string, settings map[string]any, gen idgen.Generator) (media.Extractor, error) {
		return NewPatternExtractor(name, id, settings, gen)
	})
	Register(FileType, func(name, id string, settings map[string]any, gen idgen.Generator) (media.Extractor, error) {
		return NewFileExtractor(name, id, settings, gen)
	})
}

// Register makes an extractor type available to NewExtractorsFromConfig.
// Registering an existing type replaces it.
func Register(typ string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typ] = f
}

// Types returns the registered extractor types, sorted.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := lo.Keys(registry)
	sort.Strings(types)
	return types
}

func lookup(typ string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[typ]
	return f, ok
}

// NewExtractorsFromConfig creates one extractor per configured entry, in order.
// A nil gen uses the process-wide id generator.
func NewExtractorsFromConfig(cfg *config.Config, gen idgen.Generator) ([]media.Extractor, error) {
	extractors := make([]media.Extractor, 0, len(cfg.Extractors))

	for i, ecfg := range cfg.Extractors {
		zlog.Debug().Msgf("creating extractor: index=%d type=%s settings=%+v", i+1, ecfg.Type, ecfg.Settings)

		f, ok := lookup(ecfg.Type)
		if !ok {
			return nil, errors.Newf("unsupported extractor type: %s (extractor index %d)", ecfg.Type, i)
		}

		name := ecfg.Name
		if name == "" {
			name = ecfg.Type
		}
		settings := make(map[string]any, len(ecfg.Settings)+1)
		for k, v := range ecfg.Settings {
			settings[k] = v
		}
		if _, ok := settings[media.PriorityKey]; !ok {
			settings[media.PriorityKey] = ecfg.Priority
		}

		e, err := f(name, ecfg.ID, settings, gen)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create extractor (index %d, type %s)", i, ecfg.Type)
		}
		extractors = append(extractors, e)

		zlog.Info().Msgf("registered extractor: index=%d type=%s id=%s name=%s priority=%d", i+1, ecfg.Type, e.ID(), e.Name(), e.Priority())
	}

	return extractors, nil
}

// decodeSettings decodes, defaults, and validates plugin settings into out.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
