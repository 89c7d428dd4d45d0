package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/counsel/pkg/metrics"
	"github.com/vango-dev/counsel/pkg/page"
	"github.com/vango-dev/counsel/pkg/sched"
)

// Session is one page instance bound to one WebSocket connection.
type Session struct {
	id      string
	conn    *websocket.Conn
	loop    *sched.Loop
	page    *page.Page
	query   url.Values
	logger  *slog.Logger
	metrics *metrics.Metrics
	clean   sanitizer

	writeTimeout time.Duration
	pingInterval time.Duration

	// The latest view is coalesced: a slow client only gets the newest.
	mu    sync.Mutex
	view  *page.View
	wake  chan struct{}
	out   chan Outbound
	start time.Time
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// push stores the newest view for the writer. Called on the loop.
func (s *Session) push(v page.View) {
	s.mu.Lock()
	s.view = &v
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) takeView() *page.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	s.view = nil
	return v
}

// reply queues a message other than a view. Messages are dropped when the
// client does not keep up.
func (s *Session) reply(msg Outbound) {
	select {
	case s.out <- msg:
	default:
		s.logger.Warn("outbound queue full, dropping message", "kind", msg.Kind)
	}
}

// run serves the session until the client leaves or ctx is cancelled.
func (s *Session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if err := s.loop.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return s.writeLoop(ctx)
	})
	g.Go(func() error {
		defer cancel()
		s.readLoop(ctx)
		return nil
	})
	err := g.Wait()

	s.logger.Info("session ended", "duration", time.Since(s.start))
	return err
}

func (s *Session) readLoop(ctx context.Context) {
	pongWait := 2 * s.pingInterval
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Warn("read error", "error", err)
				s.metrics.RecordWebSocketError("read")
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			s.logger.Debug("undecodable message", "error", err)
			s.metrics.RecordWebSocketError("decode")
			s.reply(Outbound{Kind: KindError, Error: &ErrorPayload{Message: "invalid message"}})
			continue
		}
		s.receive(ctx, in)
	}
}

// receive hands a decoded message to the loop.
func (s *Session) receive(ctx context.Context, in Inbound) {
	switch in.Kind {
	case KindMount:
		query := url.Values{}
		for k, vs := range s.query {
			query[k] = vs
		}
		for k, vs := range in.Query {
			query[k] = vs
		}
		s.loop.Dispatch(func() {
			s.page.Mount(page.MountOptions{Query: query, Values: in.Values, Rows: in.Rows})
		})
	case KindEvent:
		ev := in.Event
		s.loop.Dispatch(func() {
			if err := s.page.Handle(ctx, ev); err != nil {
				s.reply(errorMessage(err))
			}
		})
	default:
		s.reply(Outbound{Kind: KindError, Error: &ErrorPayload{Message: "unknown message kind " + in.Kind}})
	}
}

func (s *Session) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	defer s.conn.Close()

	for {
		var err error
		select {
		case <-ctx.Done():
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil

		case <-s.wake:
			if v := s.takeView(); v != nil {
				clean := s.clean.view(*v)
				err = s.write(Outbound{Kind: KindView, View: &clean})
			}

		case msg := <-s.out:
			err = s.write(msg)

		case <-ticker.C:
			err = s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout))
		}
		if err != nil {
			s.logger.Warn("write error", "error", err)
			s.metrics.RecordWebSocketError("write")
			return nil
		}
	}
}

func (s *Session) write(msg Outbound) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteJSON(msg)
}
