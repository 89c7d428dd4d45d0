package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/metrics"
	"github.com/vango-dev/counsel/pkg/page"
	"github.com/vango-dev/counsel/pkg/pref"
	"github.com/vango-dev/counsel/pkg/sched"
	"github.com/vango-dev/counsel/pkg/toast"
	"github.com/vango-dev/counsel/pkg/transport"
	"github.com/vango-dev/counsel/pkg/upload"
)

// browserCookieAge keeps the session cookie, and with it the browser's
// filter preferences, for a year.
const browserCookieAge = 365 * 24 * time.Hour

// SessionCookie identifies a browser across page loads. Session-scoped
// values such as the scroll position are kept per cookie.
const SessionCookie = "counsel_sid"

// Config configures a Host.
type Config struct {
	Catalogue *page.Catalogue

	// Sender builds the sender of a session from its loop.
	Sender func(s sched.Scheduler) (transport.Sender, error)

	Metrics *metrics.Metrics

	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger

	// Prefs keeps filter preferences, namespaced by session cookie.
	Prefs pref.Store

	// Uploads enables the /upload routes and image inputs.
	Uploads upload.Store

	Toast         toast.Config
	SafetyTimeout time.Duration
	Debounce      time.Duration

	// AllowedOrigins lists cross-origin hosts allowed to connect. Empty
	// allows same-origin connections only.
	AllowedOrigins []string

	WriteTimeout time.Duration
	PingInterval time.Duration
	QueueSize    int

	// BrowserTTL is how long a browser's session values outlive its last
	// session, so a reload still finds them. Default: 30 minutes.
	BrowserTTL time.Duration

	// Clock replaces time.Now for browser expiry.
	Clock func() time.Time
}

// browser is the state kept per session cookie.
type browser struct {
	store     *pref.MemoryStore
	sessions  int
	idleSince time.Time
}

// Host serves the page catalogue.
type Host struct {
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	clean    sanitizer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*Session
	browsers map[string]*browser
}

// NewHost creates a Host.
func NewHost(cfg Config) (*Host, error) {
	if cfg.Catalogue == nil {
		return nil, errors.New("C401").WithDetail("host needs a page catalogue")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.BrowserTTL <= 0 {
		cfg.BrowserTTL = 30 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		cfg:      cfg,
		logger:   cfg.Logger,
		clean:    newSanitizer(),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
		browsers: make(map[string]*browser),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h, nil
}

// checkOrigin accepts same-origin requests and the configured origins.
func (h *Host) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, u.Host) || slices.Contains(h.cfg.AllowedOrigins, origin)
}

// Routes returns the host's HTTP routes.
func (h *Host) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	r.Get("/pages", h.servePages)
	r.Get("/live/{page}", h.serveLive)
	if h.cfg.Uploads != nil {
		r.Method(http.MethodPost, "/upload", upload.Handler(h.cfg.Uploads, upload.DefaultConfig()))
		r.Method(http.MethodGet, "/upload/{id}", upload.Preview(h.cfg.Uploads))
	}
	if h.cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type pageInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

func (h *Host) servePages(w http.ResponseWriter, _ *http.Request) {
	var out []pageInfo
	for _, name := range h.cfg.Catalogue.Names() {
		d, _ := h.cfg.Catalogue.Get(name)
		out = append(out, pageInfo{Name: d.Name, Title: d.Title, Endpoint: d.Endpoint})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (h *Host) serveLive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	def, err := h.cfg.Catalogue.Get(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	header := http.Header{}
	var sid string
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		sid = c.Value
	} else {
		sid = uuid.NewString()
		header.Add("Set-Cookie", (&http.Cookie{
			Name:     SessionCookie,
			Value:    sid,
			Path:     "/",
			MaxAge:   int(browserCookieAge / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}).String())
	}

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		h.cfg.Metrics.RecordWebSocketError("upgrade")
		h.logger.Warn("upgrade failed", "page", name, "error", err)
		return
	}

	session := h.acquireBrowser(sid)
	defer h.releaseBrowser(sid)

	s, err := h.newSession(def, conn, sid, session, r.URL.Query())
	if err != nil {
		h.logger.Error("session setup failed", "page", name, "error", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session setup failed"))
		conn.Close()
		return
	}

	h.track(s, true)
	defer h.track(s, false)

	if err := s.run(h.ctx); err != nil {
		s.logger.Warn("session error", "error", err)
	}
}

func (h *Host) newSession(def *page.Definition, conn *websocket.Conn, sid string, session pref.Store, query url.Values) (*Session, error) {
	id := uuid.NewString()
	logger := h.logger.With("session_id", id, "page", def.Name)
	loop := sched.NewLoop(h.cfg.QueueSize, logger)

	var sender transport.Sender
	if h.cfg.Sender != nil {
		var err error
		if sender, err = h.cfg.Sender(loop); err != nil {
			return nil, err
		}
	}

	var prefs pref.Store
	if h.cfg.Prefs != nil {
		prefs = pref.Namespace(h.cfg.Prefs, sid)
	}

	p, err := page.New(def, page.Deps{
		Scheduler:     loop,
		Sender:        sender,
		Metrics:       h.cfg.Metrics,
		Logger:        logger,
		Prefs:         prefs,
		Session:       session,
		Uploads:       h.cfg.Uploads,
		Toast:         h.cfg.Toast,
		SafetyTimeout: h.cfg.SafetyTimeout,
		Debounce:      h.cfg.Debounce,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:           id,
		conn:         conn,
		loop:         loop,
		page:         p,
		query:        query,
		logger:       logger,
		metrics:      h.cfg.Metrics,
		clean:        h.clean,
		writeTimeout: h.cfg.WriteTimeout,
		pingInterval: h.cfg.PingInterval,
		wake:         make(chan struct{}, 1),
		out:          make(chan Outbound, 32),
		start:        time.Now(),
	}
	p.OnChange(s.push)
	return s, nil
}

// acquireBrowser returns the session store of a browser and counts one
// more open session for it. Idle browsers past the TTL are dropped first.
func (h *Host) acquireBrowser(sid string) *pref.MemoryStore {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.expireBrowsers()
	b, ok := h.browsers[sid]
	if !ok {
		b = &browser{store: pref.NewMemoryStore()}
		h.browsers[sid] = b
	}
	b.sessions++
	return b.store
}

func (h *Host) releaseBrowser(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.browsers[sid]; ok {
		b.sessions--
		if b.sessions == 0 {
			b.idleSince = h.cfg.Clock()
		}
	}
	h.expireBrowsers()
}

// expireBrowsers drops browsers idle for longer than the TTL.
// h.mu must be held.
func (h *Host) expireBrowsers() {
	cutoff := h.cfg.Clock().Add(-h.cfg.BrowserTTL)
	for sid, b := range h.browsers {
		if b.sessions == 0 && b.idleSince.Before(cutoff) {
			delete(h.browsers, sid)
		}
	}
}

// Browsers returns the number of browsers whose session values are kept.
func (h *Host) Browsers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.browsers)
}

func (h *Host) track(s *Session, open bool) {
	h.mu.Lock()
	if open {
		h.sessions[s.id] = s
	} else {
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()

	if open {
		h.cfg.Metrics.RecordSessionCreate()
		s.logger.Info("session started")
	} else {
		h.cfg.Metrics.RecordSessionDestroy()
	}
}

// Sessions returns the number of open sessions.
func (h *Host) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every session and waits for them to end or ctx to
// expire.
func (h *Host) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.cancel()
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		h.logger.Info("all sessions closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
