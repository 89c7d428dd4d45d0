package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/sched"
)

const defaultTracerName = "counsel/transport"

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

// Request is a form submission.
type Request struct {
	// Page is the page name, used for tracing and logs.
	Page string

	// Method defaults to POST.
	Method string

	// Path is resolved against the sender's base URL.
	Path string

	Values url.Values
}

// Outcome is the result of a submission.
type Outcome struct {
	Success bool
	Status  int
	Err     error
}

// Sender submits requests. done must be invoked on the page's event loop,
// at most once.
type Sender interface {
	Send(ctx context.Context, req Request, done func(Outcome))
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req Request, done func(Outcome))

func (f SenderFunc) Send(ctx context.Context, req Request, done func(Outcome)) {
	f(ctx, req, done)
}

// HTTPSender is a Sender backed by net/http.
type HTTPSender struct {
	base   *url.URL
	sched  sched.Scheduler
	client *http.Client
	tracer trace.Tracer
	logger *slog.Logger
	header http.Header
}

// Option configures an HTTPSender.
type Option func(*HTTPSender)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(h *HTTPSender) {
		h.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *HTTPSender) {
		h.logger = logger
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(h *HTTPSender) {
		h.header.Add(key, value)
	}
}

// NewHTTPSender creates a sender posting to endpoints under baseURL.
// Callbacks are dispatched through s.
func NewHTTPSender(baseURL string, s sched.Scheduler, opts ...Option) (*HTTPSender, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.New("C401").
			WithField("upstream").
			WithDetail("invalid base URL " + baseURL).
			WithSuggestion("Use an absolute URL such as http://localhost:8080")
	}
	h := &HTTPSender{
		base:   base,
		sched:  s,
		client: &http.Client{Timeout: DefaultTimeout},
		tracer: otel.Tracer(defaultTracerName),
		logger: slog.Default(),
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Send performs the request off-loop and dispatches done onto the loop.
func (h *HTTPSender) Send(ctx context.Context, req Request, done func(Outcome)) {
	go func() {
		out := h.Do(ctx, req)
		h.sched.Dispatch(func() { done(out) })
	}()
}

// Do performs the request synchronously.
func (h *HTTPSender) Do(ctx context.Context, req Request) Outcome {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	target := h.base.ResolveReference(&url.URL{Path: req.Path})

	ctx, span := h.tracer.Start(ctx, "counsel.submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("counsel.page", req.Page),
			attribute.String("http.method", method),
			attribute.String("http.url", target.String()),
		),
	)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), strings.NewReader(req.Values.Encode()))
	if err != nil {
		return h.fail(span, req, 0, errors.FromError(err, "C201"))
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vs := range h.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return h.fail(span, req, 0, errors.FromError(err, "C201"))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return h.fail(span, req, resp.StatusCode, errors.New("C202").WithDetail(resp.Status))
	}

	span.SetStatus(codes.Ok, "")
	h.logger.Debug("submission accepted", "page", req.Page, "status", resp.StatusCode)
	return Outcome{Success: true, Status: resp.StatusCode}
}

func (h *HTTPSender) fail(span trace.Span, req Request, status int, err error) Outcome {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	h.logger.Warn("submission failed", "page", req.Page, "status", status, "error", err)
	return Outcome{Status: status, Err: err}
}
