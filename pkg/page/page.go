package page

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/availability"
	"github.com/vango-dev/counsel/pkg/filter"
	"github.com/vango-dev/counsel/pkg/form"
	"github.com/vango-dev/counsel/pkg/metrics"
	"github.com/vango-dev/counsel/pkg/pref"
	"github.com/vango-dev/counsel/pkg/sched"
	"github.com/vango-dev/counsel/pkg/submit"
	"github.com/vango-dev/counsel/pkg/toast"
	"github.com/vango-dev/counsel/pkg/toggle"
	"github.com/vango-dev/counsel/pkg/transport"
	"github.com/vango-dev/counsel/pkg/upload"
)

const tracerName = "counsel/page"

// Deps are the collaborators of a page. Only Scheduler is required.
type Deps struct {
	Scheduler sched.Scheduler

	// Sender submits forms and actions. Without one, submissions fail
	// with a transport error.
	Sender transport.Sender

	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Tracer  trace.Tracer

	// Prefs keeps filter preferences across sessions.
	Prefs pref.Store

	// Session keeps values for the current browser session only.
	Session pref.Store

	// Uploads holds staged images.
	Uploads upload.Store

	// Toast sets the notification timings.
	Toast toast.Config

	// SafetyTimeout applies when the definition sets none.
	SafetyTimeout time.Duration

	// Debounce applies to debounced tables. Default: filter.DefaultDebounce.
	Debounce time.Duration
}

// MountOptions carry what the server rendered into the page.
type MountOptions struct {
	// Query is the page URL query, checked against the definition's flags.
	Query url.Values

	// Values seeds the form, e.g. an existing record on edit pages.
	Values url.Values

	// Rows fill the page's table.
	Rows []filter.Row
}

// Page is the controller of one page instance. All methods must be called
// from the scheduler's loop.
type Page struct {
	def    *Definition
	deps   Deps
	logger *slog.Logger
	tracer trace.Tracer

	state    *form.State
	submit   *submit.Controller
	toasts   *toast.Stack
	toggles  *toggle.Set
	image    *upload.Selection
	table    *filter.Table
	revealed map[string]bool
	scroll   int
	mounted  bool

	// selections are the group values applied at Mount.
	selections url.Values

	observers []func(View)
}

// New creates a page from a compiled definition.
func New(def *Definition, deps Deps) (*Page, error) {
	if def == nil || def.schema == nil {
		return nil, errors.New("C410").WithDetail("definition is not compiled")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("C401").WithDetail("page needs a scheduler")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}

	p := &Page{
		def:      def,
		deps:     deps,
		logger:   deps.Logger.With("page", def.Name),
		tracer:   deps.Tracer,
		state:    form.NewState(nil),
		revealed: make(map[string]bool),
	}

	toggles, err := toggle.New(p.logger, def.Sections...)
	if err != nil {
		return nil, err
	}
	p.toggles = toggles

	timeout := def.SafetyTimeout
	if timeout <= 0 {
		timeout = deps.SafetyTimeout
	}
	p.submit = submit.New(deps.Scheduler, submit.Config{
		Label:         def.SubmitLabel,
		BusyLabel:     def.BusyLabel,
		SafetyTimeout: timeout,
	},
		submit.WithLogger(p.logger),
		submit.OnTransition(func(_, to submit.Phase) {
			p.state.SetSubmitting(to == submit.Submitting)
			p.changed()
		}),
		submit.OnSettle(p.recordSettlement),
	)

	p.toasts = toast.NewStack(deps.Scheduler, deps.Toast, p.logger)
	p.toasts.OnChange(func([]toast.Item) { p.changed() })

	if def.Image != nil && deps.Uploads != nil {
		p.image = upload.NewSelection(deps.Uploads)
	}
	return p, nil
}

// OnChange registers fn to receive a snapshot after every state change.
func (p *Page) OnChange(fn func(View)) {
	p.observers = append(p.observers, fn)
}

// Mount applies the server-rendered state: initial values, query flags,
// table rows and the saved scroll position. Only the first call has any
// effect.
func (p *Page) Mount(opts MountOptions) {
	if p.mounted {
		p.logger.Debug("page already mounted")
		return
	}
	p.mounted = true

	initial := url.Values{}
	p.selections = url.Values{}
	for field, vs := range opts.Values {
		if p.toggles.HasGroup(field) {
			p.selections[field] = vs
			continue
		}
		initial[field] = vs
	}
	if p.def.Availability != nil {
		if text := opts.Values.Get("avb_time_text"); text != "" {
			p.selections.Set("avb_time_text", text)
		}
	}
	p.applySelections()
	p.state = form.NewState(initial)

	if t := p.def.Table; t != nil {
		p.table = filter.NewTable(p.deps.Scheduler, opts.Rows, p.tableOptions(t)...)
	}

	if p.def.Scroll != "" && p.deps.Session != nil {
		pos, ok, err := pref.TakeOnce[int](p.deps.Session, p.def.Scroll)
		if err != nil {
			p.logger.Warn("scroll position not restored", "error", err)
		} else if ok {
			p.scroll = pos
		}
	}

	for _, f := range p.def.Flags {
		if opts.Query.Get(f.Param) == f.Value {
			p.notify(f.Message, f.Kind)
		}
	}
	p.changed()
}

func (p *Page) tableOptions(t *TableDef) []filter.Option {
	opts := []filter.Option{
		filter.WithLogger(p.logger),
		filter.OnChange(func([]string) { p.changed() }),
	}
	if t.Debounce {
		d := p.deps.Debounce
		if d <= 0 {
			d = filter.DefaultDebounce
		}
		opts = append(opts, filter.WithDebounce(d))
	}
	if t.Pref != "" && p.deps.Prefs != nil {
		opts = append(opts, filter.WithPref(pref.New(t.Pref,
			filter.Criteria{Status: filter.StatusAll},
			pref.Persist(p.deps.Prefs),
			pref.WithLogger(p.logger),
		)))
	}
	return opts
}

// applySelections checks the mounted group selections on the current toggle
// set, then applies group defaults.
func (p *Page) applySelections() {
	for field, vs := range p.selections {
		if !p.toggles.HasGroup(field) {
			continue
		}
		for _, v := range vs {
			if err := p.toggles.Check(field, v, true); err != nil {
				p.logger.Debug("initial selection ignored", "group", field, "option", v, "error", err)
			}
		}
	}
	if p.def.Availability != nil {
		p.restoreAvailability(p.selections.Get("avb_time_text"))
	}
	p.toggles.Init()
}

func (p *Page) restoreAvailability(text string) {
	if text == "" {
		return
	}
	a := availability.Parse(text)
	for group, slot := range map[string]availability.Slot{
		p.def.Availability.Weekday: a.Weekday,
		p.def.Availability.Weekend: a.Weekend,
	} {
		if slot == "" {
			continue
		}
		if err := p.toggles.Select(group, string(slot)); err != nil {
			p.logger.Debug("availability slot ignored", "group", group, "slot", slot, "error", err)
		}
	}
}

// Input sets a text field.
func (p *Page) Input(field, value string) error {
	if _, ok := p.def.Field(field); !ok || p.def.schema.IsGroup(field) {
		return p.ignore(errors.New("C301").WithField(field))
	}
	p.state.Set(field, value)
	p.changed()
	return nil
}

// Check sets one option of an input group.
func (p *Page) Check(group, option string, checked bool) error {
	if err := p.toggles.Check(group, option, checked); err != nil {
		return p.ignore(err)
	}
	p.state.Touch(group)
	p.changed()
	return nil
}

// SetSection shows or hides a section. Hiding clears its inputs.
func (p *Page) SetSection(name string, active bool) error {
	if err := p.toggles.SetActive(name, active); err != nil {
		return p.ignore(err)
	}
	p.touchSection(name)
	p.changed()
	return nil
}

// Flip toggles a section, as a click on its card does.
func (p *Page) Flip(name string) error {
	if _, err := p.toggles.Flip(name); err != nil {
		return p.ignore(err)
	}
	p.touchSection(name)
	p.changed()
	return nil
}

func (p *Page) touchSection(name string) {
	for _, s := range p.def.Sections {
		if s.Name != name {
			continue
		}
		if s.Field != "" {
			p.state.Touch(s.Field)
		}
		for _, g := range s.Groups {
			p.state.Touch(g.Name)
		}
	}
}

// TogglePassword reveals or masks a secret field.
func (p *Page) TogglePassword(field string) error {
	f, ok := p.def.Field(field)
	if !ok || !f.Secret {
		return p.ignore(errors.New("C301").WithField(field).WithDetail("not a password field"))
	}
	p.revealed[field] = !p.revealed[field]
	p.changed()
	return nil
}

// Dismiss removes a notification.
func (p *Page) Dismiss(id uint64) error {
	if err := p.toasts.Dismiss(id); err != nil {
		return p.ignore(err)
	}
	return nil
}

// SelectImage picks a staged upload for the page's image field. A rejected
// file is reported as an error notification and discarded.
func (p *Page) SelectImage(tempID string) error {
	if p.image == nil {
		return p.ignore(errors.New("C301").WithField("image").WithDetail("page has no image input"))
	}
	if err := p.image.Select(tempID, upload.DefaultConfig()); err != nil {
		ce := errors.FromError(err, "C110")
		p.notify(ce.Detail, toast.TypeError)
		return err
	}
	p.state.Touch(p.def.Image.Field)
	p.changed()
	return nil
}

// RemoveImage clears the image selection.
func (p *Page) RemoveImage() error {
	if p.image == nil {
		return p.ignore(errors.New("C301").WithField("image").WithDetail("page has no image input"))
	}
	if err := p.image.Remove(); err != nil {
		p.logger.Warn("staged image not removed", "error", err)
	}
	p.state.Touch(p.def.Image.Field)
	p.changed()
	return nil
}

// Search sets the table search text.
func (p *Page) Search(query string) error {
	if p.table == nil {
		return p.ignore(errors.New("C306").WithDetail("page has no table"))
	}
	p.table.SetQuery(query)
	p.changed()
	return nil
}

// FilterStatus sets the table status filter.
func (p *Page) FilterStatus(status string) error {
	if p.table == nil {
		return p.ignore(errors.New("C306").WithDetail("page has no table"))
	}
	s, err := filter.ParseStatus(status)
	if err != nil {
		return p.ignore(err)
	}
	p.table.SetStatus(s)
	return nil
}

// SaveScroll keeps the scroll position for the next mount in this session.
func (p *Page) SaveScroll(pos int) error {
	if p.def.Scroll == "" || p.deps.Session == nil {
		return nil
	}
	p.scroll = pos
	return pref.SaveOnce(p.deps.Session, p.def.Scroll, pos)
}

// Values returns what a submission would send: text fields, section and
// group selections, availability text and the staged image.
func (p *Page) Values() url.Values {
	values := p.state.Values()
	for k, vs := range p.toggles.Values() {
		values[k] = vs
	}
	if a := p.def.Availability; a != nil {
		for k, v := range p.availability().Fields() {
			values.Set(k, v)
		}
	}
	if p.image != nil {
		if f := p.image.File(); f != nil {
			values.Set(p.def.Image.Field, f.ID)
		}
	}
	return values
}

func (p *Page) availability() availability.Availability {
	first := func(group string) availability.Slot {
		if sel := p.toggles.Selected(group); len(sel) > 0 {
			return availability.Slot(sel[0])
		}
		return ""
	}
	return availability.Availability{
		Weekday: first(p.def.Availability.Weekday),
		Weekend: first(p.def.Availability.Weekend),
	}
}

// Reset restores the page to its mounted state. An attempt in flight keeps
// the form marked as submitting.
func (p *Page) Reset() {
	p.state.Reset()
	p.state.SetSubmitting(p.Submitting())
	if toggles, err := toggle.New(p.logger, p.def.Sections...); err == nil {
		p.toggles = toggles
		p.applySelections()
	}
	if p.image != nil {
		if err := p.image.Remove(); err != nil {
			p.logger.Warn("staged image not removed", "error", err)
		}
	}
	clear(p.revealed)
	p.changed()
}

// Submitting reports whether a submission or action is in flight.
func (p *Page) Submitting() bool {
	return p.submit.Phase() == submit.Submitting
}

func (p *Page) notify(message string, kind toast.Type) {
	if message == "" {
		return
	}
	p.toasts.Notify(message, kind)
	p.deps.Metrics.RecordToast(string(kind))
}

// ignore logs an event that targets nothing on the page.
func (p *Page) ignore(err error) error {
	p.logger.Debug("event ignored", "error", err)
	return err
}

func (p *Page) changed() {
	if len(p.observers) == 0 {
		return
	}
	v := p.View()
	for _, fn := range p.observers {
		fn(v)
	}
}

func (p *Page) recordSettlement(s submit.Settlement) {
	outcome := "failure"
	switch {
	case s.Reason == submit.ReasonTimeout:
		outcome = "timeout"
	case s.Success:
		outcome = "success"
	}
	p.deps.Metrics.RecordSubmission(p.def.Name, outcome, s.Duration)
}

func (p *Page) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "page."+name, trace.WithAttributes(pageAttrs(p.def.Name)...))
}
