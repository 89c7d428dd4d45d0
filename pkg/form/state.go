package form

import (
	"maps"
	"net/url"
	"slices"
)

// State is the transient FormState of a page.
//
// It is owned by the page's event loop and is not safe for concurrent use.
type State struct {
	initial    url.Values
	values     url.Values
	dirty      bool
	submitting bool
	invalid    map[string]string
}

// NewState creates a state seeded with initial values.
func NewState(initial url.Values) *State {
	return &State{
		initial: cloneValues(initial),
		values:  cloneValues(initial),
		invalid: make(map[string]string),
	}
}

// Set replaces a single field value, marks the form dirty and clears the
// field's error indicator.
func (s *State) Set(field, value string) {
	s.values.Set(field, value)
	s.Touch(field)
}

// SetAll replaces every value of a multi-value field.
func (s *State) SetAll(field string, values []string) {
	if len(values) == 0 {
		s.values.Del(field)
	} else {
		s.values[field] = slices.Clone(values)
	}
	s.Touch(field)
}

// Touch marks the form dirty and clears the field's error indicator
// without changing its value. Used for inputs whose value lives elsewhere.
func (s *State) Touch(field string) {
	s.dirty = true
	delete(s.invalid, field)
}

// Get returns the first value of field.
func (s *State) Get(field string) string {
	return s.values.Get(field)
}

// Values returns a copy of the current values.
func (s *State) Values() url.Values {
	return cloneValues(s.values)
}

// Dirty reports whether any field changed since creation or the last Reset.
func (s *State) Dirty() bool {
	return s.dirty
}

// MarkClean clears the dirty flag, e.g. once a submission went out.
func (s *State) MarkClean() {
	s.dirty = false
}

// Submitting reports whether a submission is in flight.
func (s *State) Submitting() bool {
	return s.submitting
}

// SetSubmitting sets the submitting flag.
func (s *State) SetSubmitting(submitting bool) {
	s.submitting = submitting
}

// MarkInvalid sets the error indicator on field.
func (s *State) MarkInvalid(field, message string) {
	s.invalid[field] = message
}

// Invalid returns the error message of field, if it is marked.
func (s *State) Invalid(field string) (string, bool) {
	msg, ok := s.invalid[field]
	return msg, ok
}

// InvalidFields returns the marked fields in sorted order.
func (s *State) InvalidFields() []string {
	return slices.Sorted(maps.Keys(s.invalid))
}

// ClearInvalid removes every error indicator.
func (s *State) ClearInvalid() {
	clear(s.invalid)
}

// Reset restores the initial values and clears all flags.
func (s *State) Reset() {
	s.values = cloneValues(s.initial)
	s.dirty = false
	s.submitting = false
	clear(s.invalid)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = slices.Clone(vs)
	}
	return out
}
