package remote

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"desabafa/pkg/board"
	"desabafa/pkg/envelope"
	"desabafa/pkg/hub"
	"desabafa/pkg/logger"
	"desabafa/pkg/models"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"
)

const (
	minBackoff   = time.Second
	maxBackoff   = 30 * time.Second
	pingInterval = 25 * time.Second
)

// Events keeps a WebSocket to /ws open and forwards auth.session frames.
// The server greets every connection with INITIAL_SESSION, so a reconnect
// re-resolves the session on its own.
type Events struct {
	wsURL string
	token func() string
	// OnEnvelope, when set, sees every frame before it is filtered.
	OnEnvelope func(envelope.Envelope)
	log        *zap.Logger
}

var _ board.EventSource = (*Events)(nil)

// NewEvents derives the ws URL from baseURL. token is read on every dial so
// refreshed tokens are picked up.
func NewEvents(baseURL string, token func() string) (*Events, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Events{wsURL: u.String(), token: token, log: logger.Named("events")}, nil
}

func (e *Events) Subscribe(ctx context.Context, fn func(models.SessionEvent)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{events: e, fn: fn, done: make(chan struct{})}
	go s.run(ctx)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			s.closeConn()
			<-s.done
		})
	}, nil
}

type subscription struct {
	events *Events
	fn     func(models.SessionEvent)
	done   chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscription) run(ctx context.Context) {
	defer close(s.done)
	backoff := minBackoff

	for ctx.Err() == nil {
		conn, err := s.dial(ctx)
		if err != nil {
			s.events.log.Debug("conexão falhou", zap.Error(err), zap.Duration("retry", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = minBackoff
		s.events.log.Debug("conectado", zap.String("url", s.events.wsURL))
		s.readLoop(ctx, conn)
		s.closeConn()
		if !sleep(ctx, minBackoff) {
			return
		}
	}
}

func (s *subscription) dial(ctx context.Context) (*websocket.Conn, error) {
	u, _ := url.Parse(s.events.wsURL)
	if tok := s.events.token(); tok != "" {
		q := u.Query()
		q.Set("token", tok)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return conn, nil
}

func (s *subscription) readLoop(ctx context.Context, conn *websocket.Conn) {
	pingDone := make(chan struct{})
	defer close(pingDone)
	go s.keepAlive(conn, pingDone)

	for ctx.Err() == nil {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := envelope.Unmarshal(raw)
		if err != nil {
			continue
		}
		if s.events.OnEnvelope != nil {
			s.events.OnEnvelope(env)
		}
		if env.Action != hub.ActionSession {
			continue
		}
		ev, err := envelope.ParseData[models.SessionEvent](env)
		if err != nil {
			s.events.log.Debug("evento de sessão inválido", zap.Error(err))
			continue
		}
		s.fn(ev)
	}
}

func (s *subscription) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			raw, err := envelope.New("ping", "cli").Marshal()
			if err != nil {
				continue
			}
			s.mu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, raw)
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *subscription) closeConn() {
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
