package media

import "github.com/samber/mo"

// Result is the output of an extraction: a single Media, a list of Media, or none.
// The zero value is none.
type Result struct {
	value mo.Either[*Media, []*Media]
	set   bool
}

// None returns the empty result.
func None() Result {
	return Result{}
}

// Single wraps one Media. A nil media yields none.
func Single(m *Media) Result {
	if m == nil {
		return Result{}
	}
	return Result{value: mo.Left[*Media, []*Media](m), set: true}
}

// List wraps a list of Media. A nil list yields none; an empty list does not.
func List(items []*Media) Result {
	if items == nil {
		return Result{}
	}
	return Result{value: mo.Right[*Media, []*Media](items), set: true}
}

// IsNone reports whether the result carries nothing.
func (r Result) IsNone() bool {
	return !r.set
}

// IsList reports whether the result is a list.
func (r Result) IsList() bool {
	return r.set && r.value.IsRight()
}

// Single returns the single Media, if the result is one.
func (r Result) Single() (*Media, bool) {
	if !r.set {
		return nil, false
	}
	return r.value.Left()
}

// List returns the list, if the result is one.
func (r Result) List() ([]*Media, bool) {
	if !r.set {
		return nil, false
	}
	return r.value.Right()
}

// Items returns every Media in the result, in order.
func (r Result) Items() []*Media {
	if !r.set {
		return nil
	}
	if m, ok := r.value.Left(); ok {
		return []*Media{m}
	}
	return r.value.MustRight()
}

// First returns the single Media or the head of the list, nil when there is none.
func (r Result) First() *Media {
	items := r.Items()
	if len(items) == 0 {
		return nil
	}
	return items[0]
}
