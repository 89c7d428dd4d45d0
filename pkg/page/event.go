package page

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vango-dev/counsel/internal/errors"
)

// Event types sent by the client.
const (
	EventInput       = "input"
	EventCheck       = "check"
	EventSection     = "section"
	EventFlip        = "flip"
	EventSubmit      = "submit"
	EventAction      = "action"
	EventDismiss     = "dismiss"
	EventReveal      = "reveal"
	EventImage       = "image"
	EventImageRemove = "image_remove"
	EventSearch      = "search"
	EventStatus      = "status"
	EventScroll      = "scroll"
)

// Event is a user interaction forwarded by the client.
type Event struct {
	Type string `json:"type"`

	// Field names the input, group, section, action or password field.
	Field string `json:"field,omitempty"`

	// Value is the text, option, image ID, search query or status.
	Value string `json:"value,omitempty"`

	// Checked is the new state for check and section events.
	Checked bool `json:"checked,omitempty"`

	// Confirmed answers an action's confirmation prompt.
	Confirmed bool `json:"confirmed,omitempty"`

	// ID is the notification of a dismiss event.
	ID uint64 `json:"id,omitempty"`

	// Position is the scroll offset of a scroll event.
	Position int `json:"position,omitempty"`

	// Values are sent with an action, e.g. the appointment ID.
	Values url.Values `json:"values,omitempty"`
}

// Handle dispatches an event to the page. Events targeting nothing on the
// page are logged at debug level and reported as C3xx errors; the page
// state is left unchanged.
func (p *Page) Handle(ctx context.Context, ev Event) error {
	ctx, span := p.startSpan(ctx, ev.Type)
	defer span.End()
	span.SetAttributes(attribute.String("counsel.event", ev.Type))

	start := time.Now()
	err := p.dispatch(ctx, ev)
	p.deps.Metrics.RecordEvent(p.def.Name, ev.Type, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Page) dispatch(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventInput:
		return p.Input(ev.Field, ev.Value)
	case EventCheck:
		return p.Check(ev.Field, ev.Value, ev.Checked)
	case EventSection:
		return p.SetSection(ev.Field, ev.Checked)
	case EventFlip:
		return p.Flip(ev.Field)
	case EventSubmit:
		return p.Submit(ctx)
	case EventAction:
		return p.Action(ctx, ev.Field, ev.Values, ev.Confirmed)
	case EventDismiss:
		return p.Dismiss(ev.ID)
	case EventReveal:
		return p.TogglePassword(ev.Field)
	case EventImage:
		return p.SelectImage(ev.Value)
	case EventImageRemove:
		return p.RemoveImage()
	case EventSearch:
		return p.Search(ev.Value)
	case EventStatus:
		return p.FilterStatus(ev.Value)
	case EventScroll:
		return p.SaveScroll(ev.Position)
	default:
		return p.ignore(errors.New("C306").WithField(ev.Type))
	}
}
