package page

import (
	"strings"
	"time"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/form"
	"github.com/vango-dev/counsel/pkg/toast"
	"github.com/vango-dev/counsel/pkg/toggle"
)

// Definition declares one portal page.
type Definition struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`

	// Endpoint receives the form submission. Pages without an endpoint
	// have no submit control.
	Endpoint string `yaml:"endpoint,omitempty"`
	Method   string `yaml:"method,omitempty"`

	SubmitLabel string `yaml:"submit_label,omitempty"`
	BusyLabel   string `yaml:"busy_label,omitempty"`

	// SafetyTimeout overrides the host default.
	SafetyTimeout time.Duration `yaml:"safety_timeout,omitempty"`

	// Success and Failure are the outcome notifications.
	Success string `yaml:"success,omitempty"`
	Failure string `yaml:"failure,omitempty"`

	// ResetOnSuccess clears the form after a successful submission.
	ResetOnSuccess bool `yaml:"reset_on_success,omitempty"`

	Fields       []FieldDef       `yaml:"fields,omitempty"`
	Sections     []toggle.Section `yaml:"sections,omitempty"`
	Actions      []ActionDef      `yaml:"actions,omitempty"`
	Flags        []FlagDef        `yaml:"flags,omitempty"`
	Availability *AvailabilityDef `yaml:"availability,omitempty"`
	Image        *ImageDef        `yaml:"image,omitempty"`
	Table        *TableDef        `yaml:"table,omitempty"`

	// Scroll is the session key under which the scroll position is kept
	// for a single restore.
	Scroll string `yaml:"scroll,omitempty"`

	schema *form.Schema
}

// FieldDef declares a form field and its rules.
type FieldDef struct {
	Name string `yaml:"name"`

	// Rules is a rule string such as "required,min=6".
	Rules string `yaml:"rules,omitempty"`

	// Messages overrides the message per rule name.
	Messages map[string]string `yaml:"messages,omitempty"`

	// When limits the rules to while another field is checked ("field")
	// or has a given option selected ("field=option").
	When string `yaml:"when,omitempty"`

	// Counter shows a character counter against this maximum.
	Counter int `yaml:"counter,omitempty"`

	// Secret marks a password input that can be revealed.
	Secret bool `yaml:"secret,omitempty"`
}

// ActionDef declares a secondary action such as cancel or delete.
type ActionDef struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`

	// Confirm is the prompt shown before the action runs. Actions with a
	// prompt only run when the event carries an explicit confirmation.
	Confirm string `yaml:"confirm,omitempty"`

	// Endpoint receives the action. Without one the action is local.
	Endpoint string `yaml:"endpoint,omitempty"`

	Success string `yaml:"success,omitempty"`
	Failure string `yaml:"failure,omitempty"`

	// Reset clears the form when the action runs.
	Reset bool `yaml:"reset,omitempty"`
}

// FlagDef shows a notification on mount when a query parameter is present.
type FlagDef struct {
	Param   string     `yaml:"param"`
	Value   string     `yaml:"value"`
	Kind    toast.Type `yaml:"kind"`
	Message string     `yaml:"message"`
}

// AvailabilityDef names the slot groups composed into the availability
// text fields.
type AvailabilityDef struct {
	Weekday string `yaml:"weekday"`
	Weekend string `yaml:"weekend"`
}

// ImageDef declares an image picker.
type ImageDef struct {
	// Field receives the staged temp ID on submit.
	Field string `yaml:"field"`
}

// TableDef declares a filterable table.
type TableDef struct {
	// Pref is the preference key for the last used filter.
	Pref string `yaml:"pref,omitempty"`

	// Debounce delays search evaluation.
	Debounce bool `yaml:"debounce,omitempty"`
}

// compile validates the definition and builds its schema.
func (d *Definition) compile() error {
	if d.Name == "" {
		return errors.New("C410").WithDetail("page without a name")
	}
	fail := func(detail string, err error) error {
		e := errors.New("C410").WithField(d.Name).WithDetail(detail)
		if err != nil {
			e = e.Wrap(err)
		}
		return e
	}

	set, err := toggle.New(nil, d.Sections...)
	if err != nil {
		return fail("invalid sections", err)
	}
	groups := map[string]bool{}
	for _, g := range set.Groups() {
		groups[g] = true
	}
	for _, f := range set.Fields() {
		groups[f] = true
	}

	schema := form.NewSchema()
	seen := map[string]bool{}
	for _, f := range d.Fields {
		if f.Name == "" || seen[f.Name] {
			return fail("invalid or duplicate field "+f.Name, nil)
		}
		seen[f.Name] = true

		validators, err := form.ParseRules(f.Rules, f.Messages)
		if err != nil {
			return fail("field "+f.Name, err)
		}
		if f.When != "" {
			for i, v := range validators {
				validators[i] = when(f.When, v)
			}
		}
		if groups[f.Name] {
			schema.Group(f.Name, validators...)
		} else {
			schema.Field(f.Name, validators...)
		}
	}

	actions := map[string]bool{}
	for _, a := range d.Actions {
		if a.Name == "" || a.Name == "submit" || actions[a.Name] {
			return fail("invalid or duplicate action "+a.Name, nil)
		}
		actions[a.Name] = true
	}
	for _, fl := range d.Flags {
		if fl.Param == "" || !fl.Kind.Valid() {
			return fail("invalid flag "+fl.Param, nil)
		}
	}
	if a := d.Availability; a != nil && (!set.HasGroup(a.Weekday) || !set.HasGroup(a.Weekend)) {
		return fail("availability groups must be declared in sections", nil)
	}
	if d.Image != nil && d.Image.Field == "" {
		return fail("image without a field", nil)
	}
	if d.Endpoint != "" && d.SubmitLabel == "" {
		d.SubmitLabel = "Submit"
	}
	if d.Failure == "" {
		d.Failure = "Something went wrong. Please try again."
	}

	d.schema = schema
	return nil
}

func when(cond string, v form.Validator) form.Validator {
	if field, option, ok := strings.Cut(cond, "="); ok {
		return form.IfSelected(field, option, v)
	}
	return form.IfChecked(cond, v)
}

// Schema returns the compiled validation schema.
func (d *Definition) Schema() *form.Schema {
	return d.schema
}

// Field returns the field declaration with the given name.
func (d *Definition) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Action returns the action declaration with the given name.
func (d *Definition) Action(name string) (ActionDef, bool) {
	for _, a := range d.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return ActionDef{}, false
}
