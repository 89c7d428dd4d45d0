package form

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateLifecycle(t *testing.T) {
	s := NewState(url.Values{"status": {"on"}})

	if s.Dirty() || s.Submitting() {
		t.Fatal("new state should be clean and idle")
	}

	s.MarkInvalid("email", "bad email")
	s.Set("email", "a@b.co")
	if !s.Dirty() {
		t.Error("Set should mark dirty")
	}
	if _, ok := s.Invalid("email"); ok {
		t.Error("editing a field should clear its indicator")
	}

	s.SetAll("days[]", []string{"mon", "wed"})
	want := url.Values{"status": {"on"}, "email": {"a@b.co"}, "days[]": {"mon", "wed"}}
	if diff := cmp.Diff(want, s.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	s.SetAll("days[]", nil)
	if _, ok := s.Values()["days[]"]; ok {
		t.Error("SetAll(nil) should delete the field")
	}

	s.SetSubmitting(true)
	s.MarkInvalid("b", "x")
	s.MarkInvalid("a", "y")
	if diff := cmp.Diff([]string{"a", "b"}, s.InvalidFields()); diff != "" {
		t.Errorf("InvalidFields (-want +got):\n%s", diff)
	}

	s.Reset()
	if s.Dirty() || s.Submitting() || len(s.InvalidFields()) != 0 {
		t.Error("Reset should clear flags and indicators")
	}
	if diff := cmp.Diff(url.Values{"status": {"on"}}, s.Values()); diff != "" {
		t.Errorf("Reset values (-want +got):\n%s", diff)
	}
}

func TestStateValuesAreCopies(t *testing.T) {
	s := NewState(nil)
	s.Set("a", "1")
	v := s.Values()
	v.Set("a", "2")
	if s.Get("a") != "1" {
		t.Error("Values() must return a copy")
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		text  string
		max   int
		level CounterLevel
	}{
		{"", 200, CounterNormal},
		{string(make([]rune, 150)), 200, CounterNormal},
		{string(make([]rune, 151)), 200, CounterWarning},
		{string(make([]rune, 181)), 200, CounterDanger},
		{"abc", 0, CounterNormal},
	}

	for _, tt := range tests {
		c := Count(tt.text, tt.max)
		if c.Level != tt.level {
			t.Errorf("Count(len %d, %d).Level = %q, want %q", c.Length, tt.max, c.Level, tt.level)
		}
	}

	if got := Count("hello", 200).Text(); got != "5 / 200 characters" {
		t.Errorf("Text() = %q", got)
	}
}
