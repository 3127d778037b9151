package plugins

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/osa030/mediaqueue/internal/domain/media"
	"github.com/osa030/mediaqueue/internal/infra/idgen"
)

// FileType is the config type of FileExtractor.
const FileType = "file"

const fileScheme = "file://"

// FileSettings configures a FileExtractor.
type FileSettings struct {
	Extensions string `mapstructure:"extensions" default:".mp3,.ogg,.opus,.flac,.wav,.m4a"`
	Root       string `mapstructure:"root"`
}

// FileExtractor resolves local audio files and directories.
type FileExtractor struct {
	media.BaseExtractor

	fs         afero.Afero
	root       string
	extensions []string
	gen        idgen.Generator
}

// FileOption configures NewFileExtractor.
type FileOption func(*FileExtractor)

// WithFs sets the filesystem backend. The OS filesystem is used by default.
func WithFs(fs afero.Fs) FileOption {
	return func(e *FileExtractor) { e.fs = afero.Afero{Fs: fs} }
}

// NewFileExtractor creates a FileExtractor from raw settings.
func NewFileExtractor(name, id string, settings map[string]any, gen idgen.Generator, opts ...FileOption) (*FileExtractor, error) {
	base, err := media.NewBaseExtractor(name, settings, id, gen)
	if err != nil {
		return nil, err
	}

	var s FileSettings
	if err := decodeSettings(base.Options(), &s); err != nil {
		return nil, err
	}

	e := &FileExtractor{
		BaseExtractor: base,
		fs:            afero.Afero{Fs: afero.NewOsFs()},
		root:          s.Root,
		extensions:    parseExtensions(s.Extensions),
		gen:           gen,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// parseExtensions turns ".mp3, OGG,,.mp3" into [".mp3" ".ogg"].
func parseExtensions(list string) []string {
	exts := lo.FilterMap(strings.Split(list, ","), func(s string, _ int) (string, bool) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return "", false
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		return s, true
	})
	return lo.Uniq(exts)
}

// Extensions returns the accepted file extensions.
func (e *FileExtractor) Extensions() []string {
	return append([]string(nil), e.extensions...)
}

func (e *FileExtractor) path(input string) string {
	p := strings.TrimPrefix(input, fileScheme)
	if e.root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(e.root, p)
	}
	return filepath.Clean(p)
}

func (e *FileExtractor) accepts(name string) bool {
	return lo.Contains(e.extensions, strings.ToLower(filepath.Ext(name)))
}

// Validate reports whether input names a directory or a file with an accepted extension.
func (e *FileExtractor) Validate(input string) bool {
	if input == "" {
		return false
	}
	info, err := e.fs.Stat(e.path(input))
	if err != nil {
		return false
	}
	return info.IsDir() || e.accepts(info.Name())
}

// Extract returns a single Media for a file, or a list of the accepted
// files of a directory sorted by name. Subdirectories are not walked.
func (e *FileExtractor) Extract(_ context.Context, input string) (media.Result, error) {
	p := e.path(input)
	info, err := e.fs.Stat(p)
	if err != nil {
		return media.None(), errors.Wrapf(err, "failed to stat %s", p)
	}

	if !info.IsDir() {
		m, err := e.newMedia(p, info)
		if err != nil {
			return media.None(), err
		}
		return media.Single(m), nil
	}

	// ReadDir sorts by name.
	entries, err := e.fs.ReadDir(p)
	if err != nil {
		return media.None(), errors.Wrapf(err, "failed to read directory %s", p)
	}
	items := make([]*media.Media, 0, len(entries))
	for _, fi := range entries {
		if fi.IsDir() || !e.accepts(fi.Name()) {
			continue
		}
		m, err := e.newMedia(filepath.Join(p, fi.Name()), fi)
		if err != nil {
			return media.None(), err
		}
		items = append(items, m)
	}
	return media.List(items), nil
}

func (e *FileExtractor) newMedia(path string, info os.FileInfo) (*media.Media, error) {
	// Only the OS filesystem shares the process working directory.
	if _, ok := e.fs.Fs.(*afero.OsFs); ok {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve %s", path)
		}
		path = abs
	}
	name := info.Name()
	return media.New(e,
		fileScheme+path,
		media.Data{
			Title:  strings.TrimSuffix(name, filepath.Ext(name)),
			Source: FileType,
			Extra:  map[string]any{"size": info.Size()},
		},
		media.WithIDGenerator(e.gen),
	)
}

// Fetch opens the file behind url.
func (e *FileExtractor) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	f, err := e.fs.Open(strings.TrimPrefix(url, fileScheme))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open media file")
	}
	return f, nil
}
