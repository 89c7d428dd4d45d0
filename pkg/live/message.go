package live

import (
	stderrors "errors"
	"net/url"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/filter"
	"github.com/vango-dev/counsel/pkg/page"
)

// Message kinds.
const (
	KindMount = "mount"
	KindEvent = "event"
	KindView  = "view"
	KindError = "error"
)

// Inbound is a client message.
type Inbound struct {
	Kind string `json:"kind"`

	// Mount payload. Query is merged over the WebSocket URL query.
	Query  url.Values   `json:"query,omitempty"`
	Values url.Values   `json:"values,omitempty"`
	Rows   []filter.Row `json:"rows,omitempty"`

	Event page.Event `json:"event,omitempty"`
}

// Outbound is a host message.
type Outbound struct {
	Kind  string        `json:"kind"`
	View  *page.View    `json:"view,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload reports a rejected event.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func errorMessage(err error) Outbound {
	p := &ErrorPayload{Message: err.Error()}
	var ce *errors.Error
	if stderrors.As(err, &ce) {
		p.Code = ce.Code
		p.Message = ce.Message
		p.Field = ce.Field
		p.Detail = ce.Detail
	}
	return Outbound{Kind: KindError, Error: p}
}

// sanitizer strips markup from text shown in notifications and field
// error boxes.
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() sanitizer {
	return sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s sanitizer) text(in string) string {
	return s.policy.Sanitize(in)
}

// view returns a copy of v with user-facing messages sanitised.
func (s sanitizer) view(v page.View) page.View {
	toasts := make([]page.ToastView, len(v.Toasts))
	for i, t := range v.Toasts {
		t.Message = s.text(t.Message)
		toasts[i] = t
	}
	v.Toasts = toasts

	if v.Invalid != nil {
		invalid := make(map[string]string, len(v.Invalid))
		for field, msg := range v.Invalid {
			invalid[field] = s.text(msg)
		}
		v.Invalid = invalid
	}
	return v
}
