package media

import "time"

// Data is the payload describing a media item.
// Well-known fields are typed; anything else goes into Extra.
type Data struct {
	Title       string         `yaml:"title" mapstructure:"title" validate:"required"`
	Duration    time.Duration  `yaml:"duration" mapstructure:"duration"`
	Description string         `yaml:"description" mapstructure:"description"`
	Thumbnail   string         `yaml:"thumbnail" mapstructure:"thumbnail"`
	Source      string         `yaml:"source" mapstructure:"source"`
	Quality     string         `yaml:"quality" mapstructure:"quality"`
	Extra       map[string]any `yaml:"extra,omitempty" mapstructure:",remain"`
}

// Get returns the value stored under key, checking well-known fields first.
func (d Data) Get(key string) (any, bool) {
	switch key {
	case "title":
		return d.Title, true
	case "duration":
		return d.Duration, d.Duration != 0
	case "description":
		return d.Description, d.Description != ""
	case "thumbnail":
		return d.Thumbnail, d.Thumbnail != ""
	case "source":
		return d.Source, d.Source != ""
	case "quality":
		return d.Quality, d.Quality != ""
	}
	v, ok := d.Extra[key]
	return v, ok
}

func (d Data) clone() Data {
	if d.Extra == nil {
		return d
	}
	extra := make(map[string]any, len(d.Extra))
	for k, v := range d.Extra {
		extra[k] = v
	}
	d.Extra = extra
	return d
}
