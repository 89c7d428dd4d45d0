package toggle

import (
	"log/slog"
	"net/url"
	"slices"

	"github.com/vango-dev/counsel/internal/errors"
)

// Kind is the input kind of a group.
type Kind string

const (
	Checkbox Kind = "checkbox"
	Radio    Kind = "radio"
)

// Group declares an input group. Name is the submitted field name.
type Group struct {
	Name    string   `yaml:"name"`
	Kind    Kind     `yaml:"kind"`
	Options []string `yaml:"options"`
	Default string   `yaml:"default,omitempty"`
}

// Section declares a collapsible section.
type Section struct {
	Name string `yaml:"name"`

	// Field, when set, is submitted while the section is active (the
	// card's own checkbox). Sections may share a Field to form a group.
	Field string `yaml:"field,omitempty"`

	// Value is submitted under Field. Default: "on".
	Value string `yaml:"value,omitempty"`

	// Active is the initial state.
	Active bool `yaml:"active,omitempty"`

	Groups []Group `yaml:"groups,omitempty"`
}

// GroupState is a snapshot of a group.
type GroupState struct {
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Options  []string `json:"options"`
	Selected []string `json:"selected"`
}

// SectionState is a snapshot of a section.
type SectionState struct {
	Name   string       `json:"name"`
	Active bool         `json:"active"`
	Groups []GroupState `json:"groups,omitempty"`
}

type group struct {
	def      Group
	section  *section
	selected map[string]bool
}

type section struct {
	def    Section
	active bool
	groups []*group
}

// Set is the toggle controller of one page. It must only be used from the
// page's event loop.
type Set struct {
	sections    []*section
	byName      map[string]*section
	groups      map[string]*group
	initialized bool
	logger      *slog.Logger
}

// New creates a Set from section declarations. Section and group names must
// be unique across the set.
func New(logger *slog.Logger, defs ...Section) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Set{
		byName: make(map[string]*section),
		groups: make(map[string]*group),
		logger: logger,
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, errors.New("C410").WithDetail("section without a name")
		}
		if _, dup := s.byName[def.Name]; dup {
			return nil, errors.New("C410").WithDetail("duplicate section " + def.Name)
		}
		sec := &section{def: def, active: def.Active}
		for _, gdef := range def.Groups {
			if _, dup := s.groups[gdef.Name]; dup || gdef.Name == "" {
				return nil, errors.New("C410").WithDetail("invalid or duplicate group " + gdef.Name)
			}
			if gdef.Kind == "" {
				gdef.Kind = Checkbox
			}
			if gdef.Default != "" && !slices.Contains(gdef.Options, gdef.Default) {
				return nil, errors.New("C410").WithDetail("default " + gdef.Default + " is not an option of " + gdef.Name)
			}
			g := &group{def: gdef, section: sec, selected: make(map[string]bool)}
			sec.groups = append(sec.groups, g)
			s.groups[gdef.Name] = g
		}
		s.sections = append(s.sections, sec)
		s.byName[def.Name] = sec
	}
	return s, nil
}

// Init applies group defaults to active groups with no selection.
// Only the first call has any effect.
func (s *Set) Init() {
	if s.initialized {
		return
	}
	s.initialized = true
	for _, sec := range s.sections {
		if !sec.active {
			continue
		}
		for _, g := range sec.groups {
			if g.def.Default != "" && len(g.selected) == 0 {
				g.selected[g.def.Default] = true
			}
		}
	}
}

// SetActive shows or hides a section. Hiding clears every input in it.
func (s *Set) SetActive(name string, active bool) error {
	sec, ok := s.byName[name]
	if !ok {
		return errors.New("C302").WithField(name)
	}
	sec.active = active
	if !active {
		for _, g := range sec.groups {
			clear(g.selected)
		}
	}
	s.logger.Debug("section toggled", "section", name, "active", active)
	return nil
}

// Flip toggles a section and returns its new state.
func (s *Set) Flip(name string) (bool, error) {
	sec, ok := s.byName[name]
	if !ok {
		return false, errors.New("C302").WithField(name)
	}
	return !sec.active, s.SetActive(name, !sec.active)
}

// Active reports whether a section is shown.
func (s *Set) Active(name string) bool {
	sec, ok := s.byName[name]
	return ok && sec.active
}

// HasGroup reports whether the set owns an input group with that name.
func (s *Set) HasGroup(name string) bool {
	_, ok := s.groups[name]
	return ok
}

// Check sets the checked state of one option. Radio groups keep at most one
// selection. Changes in an inactive section are rejected.
func (s *Set) Check(groupName, option string, checked bool) error {
	g, ok := s.groups[groupName]
	if !ok {
		return errors.New("C303").WithField(groupName)
	}
	if !slices.Contains(g.def.Options, option) {
		return errors.New("C303").WithField(groupName).WithDetail("unknown option " + option)
	}
	if !g.section.active {
		return errors.New("C304").WithField(groupName).WithDetail("section " + g.section.def.Name)
	}

	if !checked {
		delete(g.selected, option)
		return nil
	}
	if g.def.Kind == Radio {
		clear(g.selected)
	}
	g.selected[option] = true
	return nil
}

// Select checks an option.
func (s *Set) Select(groupName, option string) error {
	return s.Check(groupName, option, true)
}

// Selected returns the selected options of a group in declaration order.
func (s *Set) Selected(groupName string) []string {
	g, ok := s.groups[groupName]
	if !ok {
		return nil
	}
	return g.selectedOptions()
}

func (g *group) selectedOptions() []string {
	var out []string
	for _, opt := range g.def.Options {
		if g.selected[opt] {
			out = append(out, opt)
		}
	}
	return out
}

// Values returns the submitted values of every section: the section field
// of active sections plus every selected option.
func (s *Set) Values() url.Values {
	v := url.Values{}
	for _, sec := range s.sections {
		if sec.def.Field != "" && sec.active {
			value := sec.def.Value
			if value == "" {
				value = "on"
			}
			v.Add(sec.def.Field, value)
		}
		for _, g := range sec.groups {
			if opts := g.selectedOptions(); len(opts) > 0 {
				v[g.def.Name] = opts
			}
		}
	}
	return v
}

// Fields returns the distinct section field names in declaration order.
func (s *Set) Fields() []string {
	var out []string
	for _, sec := range s.sections {
		if sec.def.Field != "" && !slices.Contains(out, sec.def.Field) {
			out = append(out, sec.def.Field)
		}
	}
	return out
}

// Groups returns every group name in declaration order.
func (s *Set) Groups() []string {
	var out []string
	for _, sec := range s.sections {
		for _, g := range sec.groups {
			out = append(out, g.def.Name)
		}
	}
	return out
}

// Sections returns a snapshot of every section in declaration order.
func (s *Set) Sections() []SectionState {
	out := make([]SectionState, 0, len(s.sections))
	for _, sec := range s.sections {
		st := SectionState{Name: sec.def.Name, Active: sec.active}
		for _, g := range sec.groups {
			st.Groups = append(st.Groups, GroupState{
				Name:     g.def.Name,
				Kind:     g.def.Kind,
				Options:  slices.Clone(g.def.Options),
				Selected: g.selectedOptions(),
			})
		}
		out = append(out, st)
	}
	return out
}
