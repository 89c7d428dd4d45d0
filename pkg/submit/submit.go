package submit

import (
	"log/slog"
	"time"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/sched"
)

// DefaultSafetyTimeout re-enables the control when no response arrives.
const DefaultSafetyTimeout = 5 * time.Second

// Phase is the lifecycle state of a submit control.
type Phase int

const (
	Idle Phase = iota
	Submitting
	Settled
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// Reason records what settled an attempt.
type Reason string

const (
	ReasonResponse Reason = "response"
	ReasonTimeout  Reason = "timeout"
)

// Settlement describes how an attempt ended.
type Settlement struct {
	Attempt  uint64
	Reason   Reason
	Success  bool
	Duration time.Duration
}

// Button is the render state of the submit control.
type Button struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
	Busy     bool   `json:"busy"`
}

// Config configures a Controller.
type Config struct {
	// Label is the enabled label, e.g. "Save Lawyer Profile".
	Label string

	// BusyLabel replaces Label while submitting, e.g. "Saving...".
	BusyLabel string

	// SafetyTimeout bounds how long the control stays disabled.
	// Default: DefaultSafetyTimeout.
	SafetyTimeout time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// OnTransition registers fn to run after every phase change.
func OnTransition(fn func(from, to Phase)) Option {
	return func(c *Controller) {
		c.transitions = append(c.transitions, fn)
	}
}

// OnSettle registers fn to run whenever an attempt settles.
func OnSettle(fn func(Settlement)) Option {
	return func(c *Controller) {
		c.settles = append(c.settles, fn)
	}
}

// ErrBusy is returned by Begin while an attempt is in flight.
var ErrBusy = errors.New("C203")

// Controller drives one submit control. It must only be used from the
// scheduler's loop.
type Controller struct {
	sched       sched.Scheduler
	cfg         Config
	logger      *slog.Logger
	transitions []func(from, to Phase)
	settles     []func(Settlement)

	phase     Phase
	attempt   uint64
	startedAt time.Time
	last      *Settlement
}

// New creates a Controller in the Idle phase.
func New(s sched.Scheduler, cfg Config, opts ...Option) *Controller {
	if cfg.SafetyTimeout <= 0 {
		cfg.SafetyTimeout = DefaultSafetyTimeout
	}
	if cfg.BusyLabel == "" {
		cfg.BusyLabel = cfg.Label
	}
	c := &Controller{
		sched:  s,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin starts a new attempt and returns its number.
// Returns ErrBusy if an attempt is already in flight.
func (c *Controller) Begin() (uint64, error) {
	if c.phase == Submitting {
		return 0, ErrBusy
	}

	c.attempt++
	attempt := c.attempt
	c.startedAt = c.sched.Now()
	c.transition(Submitting)

	// Never cancelled. settle ignores a stale or settled attempt.
	c.sched.After(c.cfg.SafetyTimeout, func() {
		if c.settle(attempt, ReasonTimeout, false) {
			c.logger.Warn("submission safety timeout elapsed",
				"attempt", attempt,
				"timeout", c.cfg.SafetyTimeout,
			)
		}
	})
	return attempt, nil
}

// Resolve settles attempt with the response outcome.
// Returns false if the attempt is stale or already settled.
func (c *Controller) Resolve(attempt uint64, success bool) bool {
	return c.settle(attempt, ReasonResponse, success)
}

func (c *Controller) settle(attempt uint64, reason Reason, success bool) bool {
	if c.phase != Submitting || attempt != c.attempt {
		return false
	}

	s := Settlement{
		Attempt:  attempt,
		Reason:   reason,
		Success:  success,
		Duration: c.sched.Now().Sub(c.startedAt),
	}
	c.last = &s

	c.transition(Settled)
	for _, fn := range c.settles {
		fn(s)
	}
	c.transition(Idle)
	return true
}

func (c *Controller) transition(to Phase) {
	from := c.phase
	c.phase = to
	for _, fn := range c.transitions {
		fn(from, to)
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Button returns the render state of the control.
func (c *Controller) Button() Button {
	if c.phase == Submitting {
		return Button{Label: c.cfg.BusyLabel, Disabled: true, Busy: true}
	}
	return Button{Label: c.cfg.Label}
}

// Last returns the most recent settlement, if any.
func (c *Controller) Last() (Settlement, bool) {
	if c.last == nil {
		return Settlement{}, false
	}
	return *c.last, true
}

// SafetyTimeout returns the configured safety timeout.
func (c *Controller) SafetyTimeout() time.Duration {
	return c.cfg.SafetyTimeout
}
