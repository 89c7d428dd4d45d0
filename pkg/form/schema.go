package form

import (
	"net/url"

	"github.com/vango-dev/counsel/internal/errors"
)

// Field is a named input with its validators in declaration order.
type Field struct {
	Name string

	// Group marks checkbox/radio groups whose value is every selected option.
	Group bool

	Validators []Validator
}

// Schema is an ordered set of fields.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{index: make(map[string]int)}
}

// Field declares a single-value field, or appends validators to an
// existing one. Returns the schema for chaining.
func (s *Schema) Field(name string, validators ...Validator) *Schema {
	return s.add(name, false, validators)
}

// Group declares a multi-value field (checkbox or radio group).
func (s *Schema) Group(name string, validators ...Validator) *Schema {
	return s.add(name, true, validators)
}

func (s *Schema) add(name string, group bool, validators []Validator) *Schema {
	if i, ok := s.index[name]; ok {
		s.fields[i].Validators = append(s.fields[i].Validators, validators...)
		s.fields[i].Group = s.fields[i].Group || group
		return s
	}
	s.index[name] = len(s.fields)
	s.fields = append(s.fields, Field{
		Name:       name,
		Group:      group,
		Validators: append([]Validator(nil), validators...),
	})
	return s
}

// Fields returns the declared fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Has reports whether the field is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// IsGroup reports whether the field is a multi-value group.
func (s *Schema) IsGroup(name string) bool {
	i, ok := s.index[name]
	return ok && s.fields[i].Group
}

// Result is the verdict of a validation run.
type Result struct {
	Valid   bool
	Field   string
	Rule    string
	Message string
}

// Err converts a failed result into a coded validation error.
// Returns nil for a valid result.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New("C101").
		WithField(r.Field).
		WithDetail(r.Message).
		Wrap(ValidationError{Field: r.Field, Rule: r.Rule, Message: r.Message})
}

// Validate checks values against the schema in declaration order and
// stops at the first failing validator.
func (s *Schema) Validate(values url.Values) Result {
	form := valuesForm{values: values, schema: s}
	for _, f := range s.fields {
		value := form.Get(f.Name)
		for _, v := range f.Validators {
			err := runValidator(v, value, form)
			if err == nil {
				continue
			}
			res := Result{Field: f.Name, Message: err.Error(), Rule: "custom"}
			if ve, ok := err.(ValidationError); ok && ve.Rule != "" {
				res.Rule = ve.Rule
			}
			return res
		}
	}
	return Result{Valid: true}
}

// valuesForm exposes url.Values through the Form interface, returning
// []string for groups and a single string otherwise.
type valuesForm struct {
	values url.Values
	schema *Schema
}

func (f valuesForm) Get(field string) any {
	if f.schema != nil && f.schema.IsGroup(field) {
		vs := f.values[field]
		if vs == nil {
			return []string{}
		}
		return vs
	}
	return f.values.Get(field)
}
