package toast

import (
	"log/slog"
	"time"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/sched"
)

// EventName is the event name sent to the client for toast updates.
const EventName = "counsel:toast"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeSuccess, TypeError, TypeWarning, TypeInfo:
		return true
	}
	return false
}

// Phase is the animation phase of a notification.
type Phase string

const (
	PhaseEntering Phase = "entering"
	PhaseVisible  Phase = "visible"
	PhaseLeaving  Phase = "leaving"
)

// Default timings.
const (
	DefaultFrame      = 10 * time.Millisecond
	DefaultDuration   = 5 * time.Second
	DefaultTransition = 300 * time.Millisecond
)

// Config holds the stack timings.
type Config struct {
	// Frame is the delay before an entering notification becomes visible.
	Frame time.Duration

	// Duration is how long a notification is shown, counted from creation.
	Duration time.Duration

	// Transition is the length of the leave animation.
	Transition time.Duration
}

func (c Config) withDefaults() Config {
	if c.Frame <= 0 {
		c.Frame = DefaultFrame
	}
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.Transition <= 0 {
		c.Transition = DefaultTransition
	}
	return c
}

// Notification is an immutable toast message.
type Notification struct {
	id        uint64
	message   string
	kind      Type
	createdAt time.Time
}

func (n Notification) ID() uint64           { return n.id }
func (n Notification) Message() string      { return n.message }
func (n Notification) Kind() Type           { return n.kind }
func (n Notification) CreatedAt() time.Time { return n.createdAt }

// Item is a notification together with its current phase.
type Item struct {
	Notification
	Phase Phase
}

// Notifier shows notifications.
type Notifier interface {
	Notify(message string, kind Type) uint64
}

type entry struct {
	n     Notification
	phase Phase
	frame sched.Task
	timer sched.Task
}

// Stack is the toast container of one page. It must only be used from the
// scheduler's loop.
type Stack struct {
	sched     sched.Scheduler
	cfg       Config
	logger    *slog.Logger
	seq       uint64
	entries   []*entry // top first
	observers []func([]Item)
}

// NewStack creates an empty stack.
func NewStack(s sched.Scheduler, cfg Config, logger *slog.Logger) *Stack {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stack{
		sched:  s,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// OnChange registers fn to receive a snapshot after every change.
func (s *Stack) OnChange(fn func([]Item)) {
	s.observers = append(s.observers, fn)
}

// Notify inserts a notification at the top of the stack and returns its ID.
// Unknown kinds are shown as info.
func (s *Stack) Notify(message string, kind Type) uint64 {
	if !kind.Valid() {
		s.logger.Debug("unknown toast type, using info", "type", string(kind))
		kind = TypeInfo
	}

	s.seq++
	e := &entry{
		n: Notification{
			id:        s.seq,
			message:   message,
			kind:      kind,
			createdAt: s.sched.Now(),
		},
		phase: PhaseEntering,
	}
	s.entries = append([]*entry{e}, s.entries...)

	e.frame = s.sched.After(s.cfg.Frame, func() {
		e.frame = nil
		if e.phase == PhaseEntering {
			e.phase = PhaseVisible
			s.changed()
		}
	})
	e.timer = s.sched.After(s.cfg.Duration, func() {
		s.leave(e)
	})

	s.changed()
	return e.n.id
}

func (s *Stack) leave(e *entry) {
	if e.frame != nil {
		e.frame.Cancel()
		e.frame = nil
	}
	e.phase = PhaseLeaving
	e.timer = s.sched.After(s.cfg.Transition, func() {
		e.timer = nil
		s.detach(e.n.id)
	})
	s.changed()
}

// Dismiss detaches the notification immediately and cancels its own pending
// timers. Other notifications are unaffected.
func (s *Stack) Dismiss(id uint64) error {
	i := s.index(id)
	if i < 0 {
		return errors.New("C305").WithDetail("no notification with that id")
	}
	e := s.entries[i]
	if e.frame != nil {
		e.frame.Cancel()
		e.frame = nil
	}
	if e.timer != nil {
		e.timer.Cancel()
		e.timer = nil
	}
	s.detach(id)
	return nil
}

func (s *Stack) detach(id uint64) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.changed()
}

func (s *Stack) index(id uint64) int {
	for i, e := range s.entries {
		if e.n.id == id {
			return i
		}
	}
	return -1
}

// Items returns the current stack, top first.
func (s *Stack) Items() []Item {
	items := make([]Item, len(s.entries))
	for i, e := range s.entries {
		items[i] = Item{Notification: e.n, Phase: e.phase}
	}
	return items
}

// Get returns the notification with the given ID.
func (s *Stack) Get(id uint64) (Item, bool) {
	i := s.index(id)
	if i < 0 {
		return Item{}, false
	}
	e := s.entries[i]
	return Item{Notification: e.n, Phase: e.phase}, true
}

// Len returns the number of attached notifications.
func (s *Stack) Len() int {
	return len(s.entries)
}

func (s *Stack) changed() {
	if len(s.observers) == 0 {
		return
	}
	items := s.Items()
	for _, fn := range s.observers {
		fn(items)
	}
}

// Show displays a toast notification through n.
func Show(n Notifier, level Type, message string) uint64 {
	return n.Notify(message, level)
}

// Success shows a success toast.
//
//	toast.Success(stack, "Changes saved!")
func Success(n Notifier, message string) uint64 {
	return Show(n, TypeSuccess, message)
}

// Error shows an error toast.
//
//	toast.Error(stack, "Failed to delete item")
func Error(n Notifier, message string) uint64 {
	return Show(n, TypeError, message)
}

// Warning shows a warning toast.
//
//	toast.Warning(stack, "This action cannot be undone")
func Warning(n Notifier, message string) uint64 {
	return Show(n, TypeWarning, message)
}

// Info shows an info toast.
//
//	toast.Info(stack, "New features available")
func Info(n Notifier, message string) uint64 {
	return Show(n, TypeInfo, message)
}
