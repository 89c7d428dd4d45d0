package metrics

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/counsel/internal/errors"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))
}

func TestRecordEvent(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordEvent("user_login", "submit", 10*time.Millisecond, nil)
	m.RecordEvent("user_login", "select", time.Millisecond, errors.New("C304"))
	m.RecordEvent("user_login", "input", time.Millisecond, stderrors.New("boom"))

	tests := []struct {
		event, status string
		want          float64
	}{
		{"submit", "success", 1},
		{"select", "dom", 1},
		{"input", "internal", 1},
		{"submit", "dom", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.eventsTotal.WithLabelValues("user_login", tt.event, tt.status))
		if got != tt.want {
			t.Errorf("events_total{%s,%s} = %v, want %v", tt.event, tt.status, got, tt.want)
		}
	}
	if n := testutil.CollectAndCount(m.eventDuration); n != 1 {
		t.Errorf("event_duration_seconds series = %d, want 1", n)
	}
}

func TestRecordSubmissionAndValidation(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSubmission("content_edit", "timeout", 10*time.Second)
	m.RecordSubmission("content_edit", "success", time.Second)
	m.RecordValidationFailure("user_register", "eq")
	m.RecordToast("error")
	m.RecordToast("error")

	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues("content_edit", "timeout")); got != 1 {
		t.Errorf("timeouts = %v", got)
	}
	if got := testutil.ToFloat64(m.validationFailures.WithLabelValues("user_register", "eq")); got != 1 {
		t.Errorf("validation failures = %v", got)
	}
	if got := testutil.ToFloat64(m.toastsTotal.WithLabelValues("error")); got != 2 {
		t.Errorf("toasts = %v", got)
	}
}

func TestSessions(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordSessionCreate()
	m.RecordSessionCreate()
	m.RecordSessionDestroy()
	m.RecordWebSocketError("read")

	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.wsErrors.WithLabelValues("read")); got != 1 {
		t.Errorf("websocket_errors_total = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordEvent("p", "e", 0, nil)
	m.RecordSubmission("p", "success", 0)
	m.RecordValidationFailure("p", "required")
	m.RecordToast("info")
	m.RecordSessionCreate()
	m.RecordSessionDestroy()
	m.RecordWebSocketError("x")
}
