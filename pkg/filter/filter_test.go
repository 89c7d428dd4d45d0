package filter

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/counsel/pkg/pref"
	"github.com/vango-dev/counsel/pkg/sched"
)

var users = []Row{
	{ID: "U001", Columns: []string{"Jane Doe", "jane@example.com", "U001"}, Status: "1"},
	{ID: "U002", Columns: []string{"John Roe", "john@example.com", "U002"}, Status: "0"},
	{ID: "U003", Columns: []string{"Ana Lima", "ana@lawfirm.ph", "U003"}, Status: "1"},
}

func TestCriteriaMatch(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"all", Criteria{Status: StatusAll}, []string{"U001", "U002", "U003"}},
		{"active", Criteria{Status: StatusActive}, []string{"U001", "U003"}},
		{"inactive", Criteria{Status: StatusInactive}, []string{"U002"}},
		{"name search", Criteria{Query: "jane", Status: StatusAll}, []string{"U001"}},
		{"case-insensitive email", Criteria{Query: "LAWFIRM", Status: StatusAll}, []string{"U003"}},
		{"id search", Criteria{Query: "u002", Status: StatusAll}, []string{"U002"}},
		{"search and status", Criteria{Query: "example", Status: StatusActive}, []string{"U001"}},
		{"no match", Criteria{Query: "zzz", Status: StatusAll}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, r := range users {
				if tt.criteria.Match(r) {
					got = append(got, r.ID)
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("match (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTableImmediate(t *testing.T) {
	clock := sched.NewVirtual(time.Time{})
	table := NewTable(clock, users)

	table.SetQuery("john")
	if diff := cmp.Diff([]string{"U002"}, table.Visible()); diff != "" {
		t.Errorf("visible (-want +got):\n%s", diff)
	}
	table.SetStatus(StatusActive)
	if got := table.Visible(); len(got) != 0 {
		t.Errorf("visible = %v, want none", got)
	}
}

func TestTableDebounce(t *testing.T) {
	clock := sched.NewVirtual(time.Time{})
	evaluations := 0
	table := NewTable(clock, users, WithDebounce(DefaultDebounce), OnChange(func([]string) { evaluations++ }))
	evaluations = 0

	table.SetQuery("j")
	clock.Advance(200 * time.Millisecond)
	table.SetQuery("ja")
	clock.Advance(200 * time.Millisecond)
	table.SetQuery("jan")

	if evaluations != 0 {
		t.Fatalf("evaluated %d times during typing", evaluations)
	}
	if table.Criteria().Query != "jan" {
		t.Errorf("Criteria().Query = %q", table.Criteria().Query)
	}

	clock.Advance(DefaultDebounce)
	if evaluations != 1 {
		t.Errorf("evaluations = %d, want 1", evaluations)
	}
	if diff := cmp.Diff([]string{"U001"}, table.Visible()); diff != "" {
		t.Errorf("visible (-want +got):\n%s", diff)
	}
}

func TestTableRestoresCriteria(t *testing.T) {
	store := pref.NewMemoryStore()
	clock := sched.NewVirtual(time.Time{})

	first := NewTable(clock, users, WithPref(pref.New("userFilters", Criteria{}, pref.Persist(store))))
	first.SetStatus(StatusInactive)

	second := NewTable(clock, users, WithPref(pref.New("userFilters", Criteria{}, pref.Persist(store))))
	if second.Criteria().Status != StatusInactive {
		t.Errorf("restored status = %q", second.Criteria().Status)
	}
	if diff := cmp.Diff([]string{"U002"}, second.Visible()); diff != "" {
		t.Errorf("visible (-want +got):\n%s", diff)
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{"": StatusAll, "all": StatusAll, "active": StatusActive, "inactive": StatusInactive} {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStatus("archived"); err == nil {
		t.Error("ParseStatus accepted an unknown status")
	}
}
