// Package filter narrows dashboard tables by free-text search and status.
//
// A Table re-evaluates row visibility whenever its criteria change. Search
// input can be debounced through the page scheduler, and the last used
// criteria can be kept in a preference so the dashboard reopens with them.
package filter

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/pref"
	"github.com/vango-dev/counsel/pkg/sched"
)

// DefaultDebounce is the search delay used by the appointment list.
const DefaultDebounce = 300 * time.Millisecond

// Status selects rows by their active flag.
type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus validates a status value. Empty means all.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusActive, StatusInactive:
		return Status(s), nil
	}
	return "", errors.New("C103").WithField("status").WithDetail("unknown status " + s)
}

// Row is one table row. Columns are the searchable cell texts. Status is
// the row's data-status attribute: "1" active, "0" inactive.
type Row struct {
	ID      string   `json:"id"`
	Columns []string `json:"columns"`
	Status  string   `json:"status"`
}

// Criteria is the current filter.
type Criteria struct {
	Query  string `json:"q"`
	Status Status `json:"status"`
}

// Match reports whether r passes the criteria. The query matches
// case-insensitively against any column.
func (c Criteria) Match(r Row) bool {
	switch c.Status {
	case StatusActive:
		if r.Status != "1" {
			return false
		}
	case StatusInactive:
		if r.Status != "0" {
			return false
		}
	}

	q := strings.ToLower(strings.TrimSpace(c.Query))
	if q == "" {
		return true
	}
	return slices.ContainsFunc(r.Columns, func(col string) bool {
		return strings.Contains(strings.ToLower(col), q)
	})
}

// Option configures a Table.
type Option func(*Table)

// WithDebounce delays search evaluation until input pauses for d.
func WithDebounce(d time.Duration) Option {
	return func(t *Table) {
		t.debounce = d
	}
}

// WithPref restores and saves the criteria through p.
func WithPref(p *pref.Pref[Criteria]) Option {
	return func(t *Table) {
		t.pref = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		t.logger = logger
	}
}

// OnChange registers fn to receive the visible row IDs after each
// evaluation.
func OnChange(fn func(visible []string)) Option {
	return func(t *Table) {
		t.observers = append(t.observers, fn)
	}
}

// Table filters a fixed set of rows. It must only be used from the
// scheduler's loop.
type Table struct {
	sched     sched.Scheduler
	rows      []Row
	criteria  Criteria
	visible   []string
	debounce  time.Duration
	pending   sched.Task
	pref      *pref.Pref[Criteria]
	logger    *slog.Logger
	observers []func([]string)
}

// NewTable creates a table and evaluates it once.
func NewTable(s sched.Scheduler, rows []Row, opts ...Option) *Table {
	t := &Table{
		sched:    s,
		rows:     rows,
		criteria: Criteria{Status: StatusAll},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.pref != nil {
		t.criteria = t.pref.Get()
		if t.criteria.Status == "" {
			t.criteria.Status = StatusAll
		}
	}
	t.evaluate()
	return t
}

// SetQuery updates the search text. With a debounce configured, evaluation
// waits until no further SetQuery arrives for the debounce period.
func (t *Table) SetQuery(q string) {
	t.criteria.Query = q
	if t.debounce <= 0 {
		t.commit()
		return
	}
	if t.pending != nil {
		t.pending.Cancel()
	}
	t.pending = t.sched.After(t.debounce, func() {
		t.pending = nil
		t.commit()
	})
}

// SetStatus updates the status filter and evaluates immediately.
func (t *Table) SetStatus(s Status) {
	t.criteria.Status = s
	t.commit()
}

func (t *Table) commit() {
	t.evaluate()
	if t.pref != nil {
		if err := t.pref.Set(t.criteria); err != nil {
			t.logger.Warn("filter preference not saved", "key", t.pref.Key(), "error", err)
		}
	}
}

func (t *Table) evaluate() {
	visible := make([]string, 0, len(t.rows))
	for _, r := range t.rows {
		if t.criteria.Match(r) {
			visible = append(visible, r.ID)
		}
	}
	t.visible = visible
	for _, fn := range t.observers {
		fn(slices.Clone(visible))
	}
}

// Criteria returns the current criteria, including a query still waiting
// for its debounce.
func (t *Table) Criteria() Criteria {
	return t.criteria
}

// Visible returns the IDs of visible rows in table order.
func (t *Table) Visible() []string {
	return slices.Clone(t.visible)
}
