package page

import (
	"context"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/toast"
	"github.com/vango-dev/counsel/pkg/transport"
)

func pageAttrs(page string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("counsel.page", page)}
}

// outcomeMessages are the notifications of a settled request.
type outcomeMessages struct {
	success string
	failure string
	reset   bool
}

// Submit validates the form and sends it. A validation failure marks the
// failing field, shows its message and sends nothing.
func (p *Page) Submit(ctx context.Context) error {
	if p.def.Endpoint == "" {
		return p.ignore(errors.New("C306").WithDetail("page has no submit control"))
	}

	values := p.Values()
	if res := p.def.schema.Validate(values); !res.Valid {
		p.state.MarkInvalid(res.Field, res.Message)
		p.notify(res.Message, toast.TypeError)
		p.deps.Metrics.RecordValidationFailure(p.def.Name, res.Rule)
		p.changed()
		return res.Err()
	}
	p.state.ClearInvalid()

	return p.send(ctx, transport.Request{
		Page:   p.def.Name,
		Method: p.def.Method,
		Path:   p.def.Endpoint,
		Values: values,
	}, outcomeMessages{
		success: p.def.Success,
		failure: p.def.Failure,
		reset:   p.def.ResetOnSuccess,
	})
}

// Action runs a secondary action. Actions that ask for confirmation only
// run when confirmed is set. values are sent along with the action name.
func (p *Page) Action(ctx context.Context, name string, values url.Values, confirmed bool) error {
	a, ok := p.def.Action(name)
	if !ok {
		return p.ignore(errors.New("C306").WithField(name).WithDetail("unknown action"))
	}
	if a.Confirm != "" && !confirmed {
		return p.ignore(errors.New("C307").WithField(name).WithDetail(a.Confirm))
	}

	if a.Endpoint == "" {
		if a.Reset {
			p.Reset()
		}
		p.notify(a.Success, toast.TypeSuccess)
		return nil
	}

	body := url.Values{}
	for k, vs := range values {
		body[k] = append([]string(nil), vs...)
	}
	body.Set("action", name)

	failure := a.Failure
	if failure == "" {
		failure = p.def.Failure
	}
	return p.send(ctx, transport.Request{
		Page:   p.def.Name,
		Path:   a.Endpoint,
		Values: body,
	}, outcomeMessages{success: a.Success, failure: failure, reset: a.Reset})
}

func (p *Page) send(ctx context.Context, req transport.Request, msgs outcomeMessages) error {
	attempt, err := p.submit.Begin()
	if err != nil {
		return p.ignore(err)
	}

	if p.deps.Sender == nil {
		p.settle(attempt, transport.Outcome{Err: errors.New("C201").WithDetail("no sender configured")}, msgs)
		return nil
	}
	p.deps.Sender.Send(ctx, req, func(o transport.Outcome) {
		p.settle(attempt, o, msgs)
	})
	return nil
}

// settle applies a response. A response arriving after the safety timeout
// still reports its outcome but leaves the lifecycle alone, and it leaves
// the form alone too while a newer attempt is in flight.
func (p *Page) settle(attempt uint64, o transport.Outcome, msgs outcomeMessages) {
	resolved := p.submit.Resolve(attempt, o.Success)
	if !resolved {
		p.logger.Info("late response", "attempt", attempt, "success", o.Success)
	}

	if !o.Success {
		p.logger.Warn("submission failed", "attempt", attempt, "status", o.Status, "error", o.Err)
		p.notify(msgs.failure, toast.TypeError)
		return
	}
	if !resolved && p.Submitting() {
		p.notify(msgs.success, toast.TypeSuccess)
		return
	}

	p.state.MarkClean()
	if msgs.reset {
		p.Reset()
	}
	p.notify(msgs.success, toast.TypeSuccess)
}
