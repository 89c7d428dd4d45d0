package page_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/filter"
	"github.com/vango-dev/counsel/pkg/form"
	"github.com/vango-dev/counsel/pkg/metrics"
	"github.com/vango-dev/counsel/pkg/page"
	"github.com/vango-dev/counsel/pkg/pref"
	"github.com/vango-dev/counsel/pkg/sched"
	"github.com/vango-dev/counsel/pkg/submit"
	"github.com/vango-dev/counsel/pkg/toast"
	"github.com/vango-dev/counsel/pkg/transport"
	"github.com/vango-dev/counsel/pkg/upload"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// recorder is a Sender that holds every request until the test answers it.
type recorder struct {
	reqs []transport.Request
	done []func(transport.Outcome)
}

func (r *recorder) Send(_ context.Context, req transport.Request, done func(transport.Outcome)) {
	r.reqs = append(r.reqs, req)
	r.done = append(r.done, done)
}

func (r *recorder) answer(i int, o transport.Outcome) {
	r.done[i](o)
}

type fixture struct {
	page   *page.Page
	clock  *sched.Virtual
	sender *recorder
}

func newFixture(t *testing.T, name string, deps page.Deps) fixture {
	t.Helper()
	c, err := page.LoadCatalogue("")
	if err != nil {
		t.Fatal(err)
	}
	def, err := c.Get(name)
	if err != nil {
		t.Fatal(err)
	}

	clock := sched.NewVirtual(epoch)
	sender := &recorder{}
	deps.Scheduler = clock
	if deps.Sender == nil {
		deps.Sender = sender
	}
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	p, err := page.New(def, deps)
	if err != nil {
		t.Fatal(err)
	}
	return fixture{page: p, clock: clock, sender: sender}
}

func (f fixture) input(t *testing.T, values map[string]string) {
	t.Helper()
	for k, v := range values {
		if err := f.page.Input(k, v); err != nil {
			t.Fatalf("Input(%q): %v", k, err)
		}
	}
}

type toastView struct {
	Message string
	Kind    toast.Type
}

func toasts(p *page.Page) []toastView {
	var out []toastView
	for _, tv := range p.View().Toasts {
		out = append(out, toastView{tv.Message, tv.Kind})
	}
	return out
}

func validationError(t *testing.T, err error) *errors.Error {
	t.Helper()
	var ce *errors.Error
	if !stderrors.As(err, &ce) || ce.Code != "C101" {
		t.Fatalf("err = %v, want C101", err)
	}
	return ce
}

func TestShortPasswordStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t, "user_register", page.Deps{})
	f.page.Mount(page.MountOptions{})
	f.input(t, map[string]string{
		"full_name":        "Jane Doe",
		"email":            "jane@example.com",
		"password":         "abc12",
		"confirm_password": "abc12",
	})

	ce := validationError(t, f.page.Submit(context.Background()))
	if ce.Field != "password" || ce.Detail != "Password must be at least 6 characters" {
		t.Errorf("failure = %s %q", ce.Field, ce.Detail)
	}
	if len(f.sender.reqs) != 0 {
		t.Errorf("sent %d requests, want none", len(f.sender.reqs))
	}

	v := f.page.View()
	if diff := cmp.Diff(map[string]string{"password": "Password must be at least 6 characters"}, v.Invalid); diff != "" {
		t.Errorf("Invalid (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]toastView{{"Password must be at least 6 characters", toast.TypeError}}, toasts(f.page)); diff != "" {
		t.Errorf("toasts (-want +got):\n%s", diff)
	}

	// Editing the field clears its indicator.
	f.input(t, map[string]string{"password": "abc123"})
	if _, marked := f.page.View().Invalid["password"]; marked {
		t.Error("indicator should clear on edit")
	}
}

func TestConfirmMismatch(t *testing.T) {
	f := newFixture(t, "user_register", page.Deps{})
	f.page.Mount(page.MountOptions{})
	f.input(t, map[string]string{
		"full_name":        "Jane Doe",
		"email":            "jane@example.com",
		"password":         "abc123",
		"confirm_password": "abc124",
	})

	ce := validationError(t, f.page.Submit(context.Background()))
	if ce.Field != "confirm_password" || ce.Detail != "Passwords do not match" {
		t.Errorf("failure = %s %q", ce.Field, ce.Detail)
	}
}

func TestInvalidEmailSendsNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, "user_login", page.Deps{Metrics: metrics.New(metrics.WithRegistry(reg))})
	f.page.Mount(page.MountOptions{})
	f.input(t, map[string]string{"email": "not-an-email", "password": "secret1"})

	ce := validationError(t, f.page.Submit(context.Background()))
	if ce.Field != "email" || ce.Detail != "Please enter a valid email address" {
		t.Errorf("failure = %s %q", ce.Field, ce.Detail)
	}
	if len(f.sender.reqs) != 0 {
		t.Errorf("sent %d requests, want none", len(f.sender.reqs))
	}
	if n, err := testutil.GatherAndCount(reg, "counsel_validation_failures_total"); err != nil || n != 1 {
		t.Errorf("validation failure series = %d, %v", n, err)
	}
}

func TestWhitespaceIsEmpty(t *testing.T) {
	for _, email := range []string{"", "   ", "\t"} {
		f := newFixture(t, "user_login", page.Deps{})
		f.page.Mount(page.MountOptions{})
		f.input(t, map[string]string{"email": email, "password": "secret1"})

		ce := validationError(t, f.page.Submit(context.Background()))
		if ce.Detail != "Please enter your email address" {
			t.Errorf("email %q: message %q", email, ce.Detail)
		}
	}
}

func loggedIn(t *testing.T, deps page.Deps) fixture {
	t.Helper()
	f := newFixture(t, "user_login", deps)
	f.page.Mount(page.MountOptions{})
	f.input(t, map[string]string{"email": "jane@example.com", "password": "secret1"})
	if err := f.page.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return f
}

func TestSubmitSuccess(t *testing.T) {
	f := loggedIn(t, page.Deps{})

	v := f.page.View()
	if diff := cmp.Diff(submit.Button{Label: "Signing In...", Disabled: true, Busy: true}, v.Button); diff != "" {
		t.Errorf("busy button (-want +got):\n%s", diff)
	}
	if !v.Submitting {
		t.Error("view should be submitting")
	}
	req := f.sender.reqs[0]
	if req.Path != "/login" || req.Page != "user_login" || req.Values.Get("email") != "jane@example.com" {
		t.Errorf("request = %+v", req)
	}

	f.sender.answer(0, transport.Outcome{Success: true, Status: 200})

	v = f.page.View()
	if diff := cmp.Diff(submit.Button{Label: "Sign In"}, v.Button); diff != "" {
		t.Errorf("restored button (-want +got):\n%s", diff)
	}
	if v.Submitting || f.page.Submitting() || v.Dirty {
		t.Errorf("submitting=%v dirty=%v after success", v.Submitting, v.Dirty)
	}
	if diff := cmp.Diff([]toastView{{"Login successful!", toast.TypeSuccess}}, toasts(f.page)); diff != "" {
		t.Errorf("toasts (-want +got):\n%s", diff)
	}

	// The safety timer fires later as a no-op and the toast auto-removes.
	f.clock.Advance(5*time.Second + 300*time.Millisecond)
	if n := len(f.page.View().Toasts); n != 0 {
		t.Errorf("%d toasts left after 5.3s", n)
	}
	if f.page.Submitting() {
		t.Error("stale safety timer changed the lifecycle")
	}
}

func TestSubmitNeverAnswered(t *testing.T) {
	f := loggedIn(t, page.Deps{})

	f.clock.Advance(5*time.Second - time.Millisecond)
	if !f.page.Submitting() {
		t.Fatal("released before the safety timeout")
	}
	f.clock.Advance(time.Millisecond)
	if diff := cmp.Diff(submit.Button{Label: "Sign In"}, f.page.View().Button); diff != "" {
		t.Errorf("button after timeout (-want +got):\n%s", diff)
	}

	// A late answer reports its outcome without touching the lifecycle.
	f.sender.answer(0, transport.Outcome{Success: true, Status: 200})
	if f.page.Submitting() {
		t.Error("late answer changed the lifecycle")
	}
	if diff := cmp.Diff([]toastView{{"Login successful!", toast.TypeSuccess}}, toasts(f.page)); diff != "" {
		t.Errorf("toasts (-want +got):\n%s", diff)
	}

	// The user can retry.
	if err := f.page.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(f.sender.reqs) != 2 {
		t.Errorf("requests = %d, want 2", len(f.sender.reqs))
	}
}

func TestSubmitWhileBusy(t *testing.T) {
	f := loggedIn(t, page.Deps{})

	if err := f.page.Submit(context.Background()); !errors.HasCode(err, "C203") {
		t.Errorf("second Submit = %v, want C203", err)
	}
	if len(f.sender.reqs) != 1 {
		t.Errorf("requests = %d, want 1", len(f.sender.reqs))
	}
}

func TestSubmitFailure(t *testing.T) {
	f := loggedIn(t, page.Deps{})
	f.sender.answer(0, transport.Outcome{Status: 500, Err: errors.New("C202")})

	if diff := cmp.Diff([]toastView{{"Something went wrong. Please try again.", toast.TypeError}}, toasts(f.page)); diff != "" {
		t.Errorf("toasts (-want +got):\n%s", diff)
	}
	if f.page.Submitting() {
		t.Error("failure should settle the lifecycle")
	}
	if !f.page.View().Dirty {
		t.Error("a failed submission keeps the form dirty")
	}
}

func TestSynchronousFailure(t *testing.T) {
	f := newFixture(t, "user_login", page.Deps{Sender: transport.SenderFunc(func(_ context.Context, _ transport.Request, done func(transport.Outcome)) {
		done(transport.Outcome{Err: errors.New("C201")})
	})})
	f.page.Mount(page.MountOptions{})
	f.input(t, map[string]string{"email": "jane@example.com", "password": "secret1"})

	if err := f.page.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.page.Submitting() {
		t.Error("a synchronous failure should settle at once")
	}
	if got := toasts(f.page); len(got) != 1 || got[0].Kind != toast.TypeError {
		t.Errorf("toasts = %v", got)
	}
}

func TestAddLawyerDayTypes(t *testing.T) {
	f := newFixture(t, "add_lawyer", page.Deps{})
	f.page.Mount(page.MountOptions{})
	ctx := context.Background()
	f.input(t, map[string]string{"full_name": "Ada Counsel"})

	steps := []struct {
		do   func() error
		want string
	}{
		{func() error { return nil }, "Please select at least one day type (Weekdays or Weekend)"},
		{func() error { return f.page.SetSection("weekday", true) }, "Please select at least one weekday"},
		{func() error { return f.page.Check("weekday_days", "mon", true) }, "Please select a time slot for weekdays"},
		{func() error {
			if err := f.page.Check("weekday_time", "morning", true); err != nil {
				return err
			}
			return f.page.Flip("weekend")
		}, "Please select at least one weekend day"},
		{func() error { return f.page.Check("weekend_days", "sat", true) }, "Please select a time slot for weekend"},
	}
	for i, step := range steps {
		if err := step.do(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		ce := validationError(t, f.page.Submit(ctx))
		if ce.Detail != step.want {
			t.Errorf("step %d: message %q, want %q", i, ce.Detail, step.want)
		}
	}

	// Hiding the weekend card drops its requirements.
	if err := f.page.SetSection("weekend", false); err != nil {
		t.Fatal(err)
	}
	if err := f.page.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := f.sender.reqs[0].Values
	want := url.Values{
		"full_name":    {"Ada Counsel"},
		"day_types":    {"weekday"},
		"weekday_days": {"mon"},
		"weekday_time": {"morning"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sent values (-want +got):\n%s", diff)
	}

	f.sender.answer(0, transport.Outcome{Success: true, Status: 201})
	v := f.page.View()
	if v.Values.Get("full_name") != "" || len(v.Values["day_types"]) != 0 {
		t.Errorf("form not reset: %v", v.Values)
	}
	for _, s := range v.Sections {
		if s.Active {
			t.Errorf("section %s still active after reset", s.Name)
		}
	}
	if diff := cmp.Diff([]toastView{{"Lawyer profile saved successfully!", toast.TypeSuccess}}, toasts(f.page)); diff != "" {
		t.Errorf("toasts (-want +got):\n%s", diff)
	}
}

func TestHidingSectionClearsInputs(t *testing.T) {
	f := newFixture(t, "add_lawyer", page.Deps{})
	f.page.Mount(page.MountOptions{})

	if err := f.page.Check("weekday_days", "mon", true); !errors.HasCode(err, "C304") {
		t.Errorf("Check in hidden section = %v, want C304", err)
	}

	f.page.SetSection("weekday", true)
	for _, d := range []string{"mon", "tue", "fri"} {
		if err := f.page.Check("weekday_days", d, true); err != nil {
			t.Fatal(err)
		}
	}
	f.page.Check("weekday_time", "evening", true)
	f.page.SetSection("weekday", false)

	for _, s := range f.page.View().Sections {
		for _, g := range s.Groups {
			if len(g.Selected) != 0 {
				t.Errorf("%s.%s still has %v", s.Name, g.Name, g.Selected)
			}
		}
	}
	values := f.page.Values()
	for _, k := range []string{"day_types", "weekday_days", "weekday_time"} {
		if len(values[k]) != 0 {
			t.Errorf("%s = %v after hiding", k, values[k])
		}
	}

	// Revealing selects nothing.
	f.page.SetSection("weekday", true)
	if got := f.page.Values()["weekday_days"]; len(got) != 0 {
		t.Errorf("weekday_days = %v after reveal", got)
	}
}

func TestCancelResetsForm(t *testing.T) {
	f := newFixture(t, "add_lawyer", page.Deps{})
	f.page.Mount(page.MountOptions{})
	f.input(t, map[string]string{"full_name": "Ada Counsel"})
	ctx := context.Background()

	if err := f.page.Action(ctx, "cancel", nil, false); !errors.HasCode(err, "C307") {
		t.Fatalf("unconfirmed cancel = %v, want C307", err)
	}
	if f.page.View().Values.Get("full_name") != "Ada Counsel" {
		t.Fatal("unconfirmed cancel changed the form")
	}

	if err := f.page.Action(ctx, "cancel", nil, true); err != nil {
		t.Fatal(err)
	}
	v := f.page.View()
	if v.Values.Get("full_name") != "" || v.Dirty {
		t.Errorf("after cancel: %v dirty=%v", v.Values, v.Dirty)
	}
	if len(f.sender.reqs) != 0 {
		t.Error("a local action sends nothing")
	}
}

func TestAvailabilityRoundTrip(t *testing.T) {
	f := newFixture(t, "lawyer_profile", page.Deps{})
	f.page.Mount(page.MountOptions{Values: url.Values{
		"full_name":     {"Ada Counsel"},
		"avb_time_text": {"Weekdays: 12:00 PM - 4:00 PM\nWeekends: Evening"},
	}})

	v := f.page.View()
	if want := "Weekdays: 12:00 PM - 4:00 PM\nWeekends: 4:00 PM - 8:00 PM"; v.Availability != want {
		t.Errorf("Availability = %q, want %q", v.Availability, want)
	}
	values := f.page.Values()
	if values.Get("weekday_slot_hidden") != "afternoon" || values.Get("weekend_slot_hidden") != "evening" {
		t.Errorf("hidden slots = %q %q", values.Get("weekday_slot_hidden"), values.Get("weekend_slot_hidden"))
	}
	if values.Get("avb_time_text") != v.Availability {
		t.Errorf("avb_time_text = %q", values.Get("avb_time_text"))
	}

	// Radio selection is exclusive.
	if err := f.page.Check("weekend_slot", "fullday", true); err != nil {
		t.Fatal(err)
	}
	if got := f.page.Values()["weekend_slot"]; !cmp.Equal(got, []string{"fullday"}) {
		t.Errorf("weekend_slot = %v", got)
	}
}

func TestAvailabilityDefaults(t *testing.T) {
	f := newFixture(t, "lawyer_profile", page.Deps{})
	f.page.Mount(page.MountOptions{})

	if want := "Weekdays: 8:00 AM - 12:00 PM\nWeekends: 8:00 AM - 12:00 PM"; f.page.View().Availability != want {
		t.Errorf("Availability = %q", f.page.View().Availability)
	}
}

func TestQueryFlags(t *testing.T) {
	tests := []struct {
		page  string
		query url.Values
		want  []toastView
	}{
		{"user_login", url.Values{"error": {"1"}}, []toastView{{"Invalid Credential", toast.TypeError}}},
		{"lawyer_login", url.Values{"error": {"0"}}, nil},
		{"content_edit", url.Values{"saved": {"true"}}, []toastView{{"Content updated successfully!", toast.TypeSuccess}}},
		{"content_edit", nil, nil},
	}

	for _, tt := range tests {
		f := newFixture(t, tt.page, page.Deps{})
		f.page.Mount(page.MountOptions{Query: tt.query})
		if diff := cmp.Diff(tt.want, toasts(f.page)); diff != "" {
			t.Errorf("%s %v (-want +got):\n%s", tt.page, tt.query, diff)
		}
	}
}

func TestConfirmedDelete(t *testing.T) {
	f := newFixture(t, "content_view", page.Deps{})
	f.page.Mount(page.MountOptions{})
	ctx := context.Background()

	err := f.page.Handle(ctx, page.Event{Type: page.EventAction, Field: "delete", Values: url.Values{"id": {"42"}}})
	if !errors.HasCode(err, "C307") {
		t.Fatalf("unconfirmed delete = %v, want C307", err)
	}
	if len(f.sender.reqs) != 0 {
		t.Fatal("unconfirmed delete was sent")
	}

	err = f.page.Handle(ctx, page.Event{Type: page.EventAction, Field: "delete", Confirmed: true, Values: url.Values{"id": {"42"}}})
	if err != nil {
		t.Fatal(err)
	}
	req := f.sender.reqs[0]
	if req.Path != "/admin/content/delete" || req.Values.Get("action") != "delete" || req.Values.Get("id") != "42" {
		t.Errorf("request = %+v", req)
	}
	if !f.page.Submitting() {
		t.Error("action should hold the lifecycle")
	}

	f.sender.answer(0, transport.Outcome{Success: true, Status: 204})
	if diff := cmp.Diff([]toastView{{"Content deleted.", toast.TypeSuccess}}, toasts(f.page)); diff != "" {
		t.Errorf("toasts (-want +got):\n%s", diff)
	}

	if err := f.page.Submit(ctx); !errors.HasCode(err, "C306") {
		t.Errorf("Submit on a page without a form = %v, want C306", err)
	}
}

func TestAppointmentActionTimeout(t *testing.T) {
	f := newFixture(t, "lawyer_appointments", page.Deps{SafetyTimeout: 5 * time.Second})
	f.page.Mount(page.MountOptions{})

	if err := f.page.Action(context.Background(), "confirm", url.Values{"id": {"7"}}, true); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(2 * time.Second)
	if f.page.Submitting() {
		t.Error("appointment actions release after 2s")
	}
}

var rows = []filter.Row{
	{ID: "a1", Columns: []string{"Jane Doe", "Divorce"}, Status: "1"},
	{ID: "a2", Columns: []string{"John Roe", "Property"}, Status: "0"},
	{ID: "a3", Columns: []string{"Janet Poe", "Tax"}, Status: "1"},
}

func TestTableFilter(t *testing.T) {
	store := pref.NewMemoryStore()
	f := newFixture(t, "lawyer_appointments", page.Deps{Prefs: store})
	f.page.Mount(page.MountOptions{Rows: rows})

	if diff := cmp.Diff([]string{"a1", "a2", "a3"}, f.page.View().Visible); diff != "" {
		t.Fatalf("initial (-want +got):\n%s", diff)
	}

	f.page.Search("JAN")
	f.clock.Advance(299 * time.Millisecond)
	if n := len(f.page.View().Visible); n != 3 {
		t.Errorf("search applied before the debounce: %d rows", n)
	}
	f.clock.Advance(time.Millisecond)
	if diff := cmp.Diff([]string{"a1", "a3"}, f.page.View().Visible); diff != "" {
		t.Errorf("after debounce (-want +got):\n%s", diff)
	}

	if err := f.page.FilterStatus("inactive"); err != nil {
		t.Fatal(err)
	}
	if n := len(f.page.View().Visible); n != 0 {
		t.Errorf("inactive jan rows = %d", n)
	}
	if err := f.page.FilterStatus("archived"); !errors.HasCode(err, "C103") {
		t.Errorf("FilterStatus(archived) = %v, want C103", err)
	}
	f.page.FilterStatus("all")

	// The last filter is restored on the next visit.
	next := newFixture(t, "lawyer_appointments", page.Deps{Prefs: store})
	next.page.Mount(page.MountOptions{Rows: rows})
	v := next.page.View()
	if diff := cmp.Diff(filter.Criteria{Query: "JAN", Status: filter.StatusAll}, v.Criteria); diff != "" {
		t.Errorf("restored criteria (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a1", "a3"}, v.Visible); diff != "" {
		t.Errorf("restored rows (-want +got):\n%s", diff)
	}
}

func TestScrollRestoredOnce(t *testing.T) {
	session := pref.NewMemoryStore()

	first := newFixture(t, "content_view", page.Deps{Session: session})
	first.page.Mount(page.MountOptions{})
	if err := first.page.Handle(context.Background(), page.Event{Type: page.EventScroll, Position: 420}); err != nil {
		t.Fatal(err)
	}

	second := newFixture(t, "content_view", page.Deps{Session: session})
	second.page.Mount(page.MountOptions{})
	if got := second.page.View().Scroll; got != 420 {
		t.Errorf("restored scroll = %d, want 420", got)
	}

	third := newFixture(t, "content_view", page.Deps{Session: session})
	third.page.Mount(page.MountOptions{})
	if got := third.page.View().Scroll; got != 0 {
		t.Errorf("scroll restored twice: %d", got)
	}
}

func TestRevealPassword(t *testing.T) {
	f := newFixture(t, "user_login", page.Deps{})
	f.page.Mount(page.MountOptions{})
	ctx := context.Background()

	f.page.Handle(ctx, page.Event{Type: page.EventReveal, Field: "password"})
	if diff := cmp.Diff([]string{"password"}, f.page.View().Revealed); diff != "" {
		t.Errorf("Revealed (-want +got):\n%s", diff)
	}
	f.page.Handle(ctx, page.Event{Type: page.EventReveal, Field: "password"})
	if got := f.page.View().Revealed; len(got) != 0 {
		t.Errorf("Revealed = %v after second toggle", got)
	}
	if err := f.page.TogglePassword("email"); !errors.HasCode(err, "C301") {
		t.Errorf("TogglePassword(email) = %v, want C301", err)
	}
}

func TestUnknownTargetsAreIgnored(t *testing.T) {
	f := newFixture(t, "user_login", page.Deps{})
	f.page.Mount(page.MountOptions{})
	ctx := context.Background()

	tests := []struct {
		ev   page.Event
		code string
	}{
		{page.Event{Type: "hover"}, "C306"},
		{page.Event{Type: page.EventInput, Field: "nickname", Value: "x"}, "C301"},
		{page.Event{Type: page.EventFlip, Field: "weekday"}, "C302"},
		{page.Event{Type: page.EventCheck, Field: "weekday_days", Value: "mon", Checked: true}, "C303"},
		{page.Event{Type: page.EventDismiss, ID: 99}, "C305"},
		{page.Event{Type: page.EventSearch, Value: "x"}, "C306"},
		{page.Event{Type: page.EventImage, Value: "x"}, "C301"},
		{page.Event{Type: page.EventAction, Field: "delete"}, "C306"},
	}
	for _, tt := range tests {
		if err := f.page.Handle(ctx, tt.ev); !errors.HasCode(err, tt.code) {
			t.Errorf("%+v = %v, want %s", tt.ev, err, tt.code)
		}
	}
	if f.page.View().Dirty {
		t.Error("ignored events changed the form")
	}
}

func TestCharacterCounter(t *testing.T) {
	f := newFixture(t, "content_new", page.Deps{})
	f.page.Mount(page.MountOptions{})
	f.input(t, map[string]string{"title": strings.Repeat("a", 160)})

	want := form.Counter{Length: 160, Max: 200, Level: form.CounterWarning}
	if diff := cmp.Diff(want, f.page.View().Counters["title"]); diff != "" {
		t.Errorf("counter (-want +got):\n%s", diff)
	}
	if got := f.page.View().Counters["summary"]; got.Length != 0 || got.Max != 500 {
		t.Errorf("summary counter = %+v", got)
	}
}

func TestDismissAndObservers(t *testing.T) {
	f := newFixture(t, "user_login", page.Deps{})
	var views []page.View
	f.page.OnChange(func(v page.View) { views = append(views, v) })
	f.page.Mount(page.MountOptions{Query: url.Values{"error": {"1"}}})

	id := f.page.View().Toasts[0].ID
	if err := f.page.Handle(context.Background(), page.Event{Type: page.EventDismiss, ID: id}); err != nil {
		t.Fatal(err)
	}
	if n := len(f.page.View().Toasts); n != 0 {
		t.Errorf("%d toasts after dismiss", n)
	}
	if len(views) < 2 {
		t.Errorf("observer saw %d snapshots", len(views))
	}
}

func TestImageSelection(t *testing.T) {
	store, err := upload.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	png, err := store.Save("me.png", "image/png", 4, bytes.NewReader([]byte{1, 2, 3, 4}))
	if err != nil {
		t.Fatal(err)
	}
	txt, err := store.Save("notes.txt", "text/plain", 5, strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}

	f := newFixture(t, "add_lawyer", page.Deps{Uploads: store})
	f.page.Mount(page.MountOptions{})

	if err := f.page.SelectImage(png); err != nil {
		t.Fatal(err)
	}
	v := f.page.View()
	if v.Image == nil || v.Image.Filename != "me.png" || v.Image.ContentType != "image/png" {
		t.Fatalf("Image = %+v", v.Image)
	}
	if f.page.Values().Get("lawyer_img") != png {
		t.Errorf("lawyer_img = %q", f.page.Values().Get("lawyer_img"))
	}

	if err := f.page.SelectImage(txt); !errors.HasCode(err, "C110") {
		t.Errorf("SelectImage(txt) = %v, want C110", err)
	}
	if diff := cmp.Diff([]toastView{{"Please select a valid image file", toast.TypeError}}, toasts(f.page)); diff != "" {
		t.Errorf("toasts (-want +got):\n%s", diff)
	}
	if f.page.View().Image.ID != png {
		t.Error("rejected file replaced the selection")
	}

	if err := f.page.RemoveImage(); err != nil {
		t.Fatal(err)
	}
	if f.page.View().Image != nil {
		t.Error("image still selected")
	}
	if _, err := store.Stat(png); err == nil {
		t.Error("removed image is still staged")
	}
}

func TestLateAnswerLeavesNewerAttemptAlone(t *testing.T) {
	f := newFixture(t, "content_new", page.Deps{})
	f.page.Mount(page.MountOptions{})
	ctx := context.Background()

	f.input(t, map[string]string{"title": "First", "content_type": "news"})
	if err := f.page.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(5 * time.Second)
	if f.page.Submitting() {
		t.Fatal("safety timeout did not settle the first attempt")
	}

	f.input(t, map[string]string{"title": "Second"})
	if err := f.page.Submit(ctx); err != nil {
		t.Fatal(err)
	}

	// The first attempt answers while the second is in flight.
	f.sender.answer(0, transport.Outcome{Success: true, Status: 200})

	v := f.page.View()
	if !f.page.Submitting() || !v.Submitting {
		t.Errorf("controller submitting=%v view submitting=%v, want both true", f.page.Submitting(), v.Submitting)
	}
	if diff := cmp.Diff(submit.Button{Label: "Publishing...", Disabled: true, Busy: true}, v.Button); diff != "" {
		t.Errorf("button (-want +got):\n%s", diff)
	}
	if got := v.Values.Get("title"); got != "Second" {
		t.Errorf("title = %q, want the values of the attempt in flight", got)
	}
	if !v.Dirty {
		t.Error("late answer marked the newer edits clean")
	}
	if diff := cmp.Diff([]toastView{{"Content published successfully!", toast.TypeSuccess}}, toasts(f.page)); diff != "" {
		t.Errorf("toasts (-want +got):\n%s", diff)
	}

	// The second attempt settles normally and resets the form.
	f.sender.answer(1, transport.Outcome{Success: true, Status: 200})
	v = f.page.View()
	if v.Submitting || v.Values.Get("title") != "" || v.Dirty {
		t.Errorf("after second answer: submitting=%v title=%q dirty=%v", v.Submitting, v.Values.Get("title"), v.Dirty)
	}
}

func TestResetKeepsMountedSelections(t *testing.T) {
	f := newFixture(t, "lawyer_profile", page.Deps{})
	f.page.Mount(page.MountOptions{Values: url.Values{
		"full_name":     {"Ada Counsel"},
		"avb_time_text": {"Weekdays: 12:00 PM - 4:00 PM"},
		"weekend_slot":  {"evening"},
	}})

	f.page.Check("weekday_slot", "fullday", true)
	f.page.Check("weekend_slot", "morning", true)
	f.input(t, map[string]string{"full_name": "Someone Else"})

	f.page.Reset()

	values := f.page.Values()
	if got := values["weekday_slot"]; !cmp.Equal(got, []string{"afternoon"}) {
		t.Errorf("weekday_slot = %v, want [afternoon]", got)
	}
	if got := values["weekend_slot"]; !cmp.Equal(got, []string{"evening"}) {
		t.Errorf("weekend_slot = %v, want [evening]", got)
	}
	if values.Get("full_name") != "Ada Counsel" {
		t.Errorf("full_name = %q", values.Get("full_name"))
	}
}
