package toast_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/sched"
	"github.com/vango-dev/counsel/pkg/toast"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func newStack() (*toast.Stack, *sched.Virtual) {
	clock := sched.NewVirtual(epoch)
	return toast.NewStack(clock, toast.Config{}, nil), clock
}

type view struct {
	Message string
	Kind    toast.Type
	Phase   toast.Phase
}

func snapshot(s *toast.Stack) []view {
	var out []view
	for _, it := range s.Items() {
		out = append(out, view{it.Message(), it.Kind(), it.Phase})
	}
	return out
}

func TestNotifyLifecycle(t *testing.T) {
	s, clock := newStack()

	id := s.Notify("Lawyer added successfully!", toast.TypeSuccess)
	if diff := cmp.Diff([]view{{"Lawyer added successfully!", toast.TypeSuccess, toast.PhaseEntering}}, snapshot(s)); diff != "" {
		t.Fatalf("after Notify (-want +got):\n%s", diff)
	}

	it, _ := s.Get(id)
	if !it.CreatedAt().Equal(epoch) {
		t.Errorf("CreatedAt = %v, want %v", it.CreatedAt(), epoch)
	}

	clock.Advance(toast.DefaultFrame)
	if it, _ := s.Get(id); it.Phase != toast.PhaseVisible {
		t.Fatalf("phase after frame = %v, want visible", it.Phase)
	}

	clock.Advance(toast.DefaultDuration - toast.DefaultFrame - time.Millisecond)
	if it, _ := s.Get(id); it.Phase != toast.PhaseVisible {
		t.Fatalf("left too early: %v", it.Phase)
	}

	clock.Advance(time.Millisecond)
	if it, _ := s.Get(id); it.Phase != toast.PhaseLeaving {
		t.Fatalf("phase at 5s = %v, want leaving", it.Phase)
	}

	clock.Advance(toast.DefaultTransition - time.Millisecond)
	if s.Len() != 1 {
		t.Fatal("detached before the transition finished")
	}
	clock.Advance(time.Millisecond)
	if s.Len() != 0 {
		t.Fatalf("still attached after transition: %v", snapshot(s))
	}
	if clock.Pending() != 0 {
		t.Errorf("pending tasks left: %d", clock.Pending())
	}
}

func TestNewestOnTopWithoutDedup(t *testing.T) {
	s, _ := newStack()

	s.Notify("Saved", toast.TypeSuccess)
	s.Notify("Saved", toast.TypeSuccess)
	s.Notify("Network error", toast.TypeError)

	want := []view{
		{"Network error", toast.TypeError, toast.PhaseEntering},
		{"Saved", toast.TypeSuccess, toast.PhaseEntering},
		{"Saved", toast.TypeSuccess, toast.PhaseEntering},
	}
	if diff := cmp.Diff(want, snapshot(s)); diff != "" {
		t.Errorf("stack (-want +got):\n%s", diff)
	}
}

func TestDismissCancelsOnlyItsOwnTimer(t *testing.T) {
	s, clock := newStack()

	first := s.Notify("first", toast.TypeInfo)
	clock.Advance(time.Second)
	second := s.Notify("second", toast.TypeWarning)
	clock.Advance(time.Second)

	if err := s.Dismiss(first); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if _, ok := s.Get(first); ok {
		t.Fatal("dismissed notification still attached")
	}
	if _, ok := s.Get(second); !ok {
		t.Fatal("dismiss removed the wrong notification")
	}

	// second was created at +1s; it must still leave at +6s and detach at +6.3s.
	clock.Advance(4*time.Second - time.Millisecond)
	if it, _ := s.Get(second); it.Phase != toast.PhaseVisible {
		t.Fatalf("second phase = %v, want visible", it.Phase)
	}
	clock.Advance(time.Millisecond + toast.DefaultTransition)
	if s.Len() != 0 {
		t.Errorf("second not auto-removed: %v", snapshot(s))
	}
}

func TestDismissWhileLeaving(t *testing.T) {
	s, clock := newStack()
	id := s.Notify("bye", toast.TypeInfo)
	clock.Advance(toast.DefaultDuration)

	if err := s.Dismiss(id); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if clock.Pending() != 0 {
		t.Errorf("transition timer not cancelled, pending=%d", clock.Pending())
	}
}

func TestDismissUnknown(t *testing.T) {
	s, _ := newStack()
	err := s.Dismiss(42)
	if !errors.HasCode(err, "C305") {
		t.Errorf("Dismiss(42) = %v, want C305", err)
	}
}

func TestUnknownKindFallsBackToInfo(t *testing.T) {
	s, _ := newStack()
	id := s.Notify("hello", toast.Type("fancy"))
	if it, _ := s.Get(id); it.Kind() != toast.TypeInfo {
		t.Errorf("kind = %q, want info", it.Kind())
	}
}

func TestOnChange(t *testing.T) {
	s, clock := newStack()
	var sizes []int
	s.OnChange(func(items []toast.Item) { sizes = append(sizes, len(items)) })

	s.Notify("x", toast.TypeInfo)
	clock.Advance(toast.DefaultDuration + toast.DefaultTransition)

	// insert, visible, leaving, detached
	if diff := cmp.Diff([]int{1, 1, 1, 0}, sizes); diff != "" {
		t.Errorf("change sizes (-want +got):\n%s", diff)
	}
}

func TestCustomTimings(t *testing.T) {
	clock := sched.NewVirtual(epoch)
	s := toast.NewStack(clock, toast.Config{Duration: time.Second, Transition: 100 * time.Millisecond}, nil)
	s.Notify("quick", toast.TypeInfo)

	clock.Advance(1100 * time.Millisecond)
	if s.Len() != 0 {
		t.Errorf("custom timings not applied")
	}
}

type recorder struct {
	messages []string
	kinds    []toast.Type
}

func (r *recorder) Notify(message string, kind toast.Type) uint64 {
	r.messages = append(r.messages, message)
	r.kinds = append(r.kinds, kind)
	return uint64(len(r.messages))
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(toast.Notifier, string) uint64
		want toast.Type
	}{
		{"Success", toast.Success, toast.TypeSuccess},
		{"Error", toast.Error, toast.TypeError},
		{"Warning", toast.Warning, toast.TypeWarning},
		{"Info", toast.Info, toast.TypeInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			tt.fn(r, "message")
			if len(r.kinds) != 1 || r.kinds[0] != tt.want || r.messages[0] != "message" {
				t.Errorf("got %v %v", r.kinds, r.messages)
			}
		})
	}
}

func TestTypeValid(t *testing.T) {
	for _, typ := range []toast.Type{toast.TypeSuccess, toast.TypeError, toast.TypeWarning, toast.TypeInfo} {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	if toast.Type("").Valid() {
		t.Error("empty type should be invalid")
	}
}
