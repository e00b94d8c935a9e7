// Package hub holds the WebSocket connections of signed-in and anonymous
// clients and delivers bus events to them.
package hub

import (
	"sync"

	"desabafa/pkg/envelope"
	"desabafa/pkg/logger"
	"desabafa/pkg/metrics"
	"desabafa/pkg/models"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

const (
	ActionSession    = "auth.session"
	ActionSessionGet = "session.get"
	service          = "hub"
)

// Conn is the part of *websocket.Conn the hub uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type ActionHandler func(envelope.Envelope)

type clientConn struct {
	conn   Conn
	userID string
	mu     sync.Mutex
}

func (cc *clientConn) send(data []byte) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := cc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.Named("hub").Debug("send falhou", zap.String("user_id", cc.userID), zap.Error(err))
	}
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[*clientConn]struct{}
	byUser   map[string][]*clientConn
	handlers map[string]ActionHandler

	// replies go back to the socket that sent the request
	connMu  sync.Mutex
	connMap map[string]*clientConn

	log *zap.Logger
}

func New() *Hub {
	return &Hub{
		clients:  make(map[*clientConn]struct{}),
		byUser:   make(map[string][]*clientConn),
		handlers: make(map[string]ActionHandler),
		connMap:  make(map[string]*clientConn),
		log:      logger.Named("hub"),
	}
}

// On registers a handler for client requests. Call before serving.
func (h *Hub) On(action string, fn ActionHandler) {
	h.handlers[action] = fn
}

// Serve owns c until the client disconnects. userID is empty for anonymous
// connections. The first frame is always the INITIAL_SESSION event.
func (h *Hub) Serve(c Conn, userID string) {
	cc := &clientConn{conn: c, userID: userID}
	h.add(cc)
	defer h.remove(cc)

	h.log.Debug("cliente conectado", zap.String("user_id", userID), zap.Int("total", h.ClientCount()))
	if env, err := envelope.NewUserEvent(ActionSession, "auth", userID, models.SessionEvent{
		Event:  models.EventInitialSession,
		UserID: userID,
	}); err == nil {
		h.sendEnv(cc, env)
	}

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		env, err := envelope.Unmarshal(raw)
		if err != nil {
			h.sendEnv(cc, envelope.NewError(envelope.New("error", service), "VALIDATION_ERROR", "JSON inválido"))
			continue
		}

		if env.Action == "ping" {
			h.sendEnv(cc, envelope.New("pong", service))
			continue
		}

		handler, ok := h.handlers[env.Action]
		if !ok {
			h.sendEnv(cc, envelope.NewError(env, "NOT_FOUND", "ação não encontrada: "+env.Action))
			continue
		}

		// identity comes from the token, never from the frame
		env.UserID = userID
		h.connMu.Lock()
		h.connMap[env.ID] = cc
		h.connMu.Unlock()

		handler(env)
	}
}

func (h *Hub) add(cc *clientConn) {
	h.mu.Lock()
	h.clients[cc] = struct{}{}
	if cc.userID != "" {
		h.byUser[cc.userID] = append(h.byUser[cc.userID], cc)
	}
	h.mu.Unlock()
	metrics.WSConnections.Inc()
}

func (h *Hub) remove(cc *clientConn) {
	h.mu.Lock()
	delete(h.clients, cc)
	if cc.userID != "" {
		conns := h.byUser[cc.userID]
		for i, conn := range conns {
			if conn == cc {
				h.byUser[cc.userID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.byUser[cc.userID]) == 0 {
			delete(h.byUser, cc.userID)
		}
	}
	h.mu.Unlock()

	h.connMu.Lock()
	for id, owner := range h.connMap {
		if owner == cc {
			delete(h.connMap, id)
		}
	}
	h.connMu.Unlock()

	metrics.WSConnections.Dec()
	cc.conn.Close()
	h.log.Debug("cliente desconectado", zap.String("user_id", cc.userID), zap.Int("total", h.ClientCount()))
}

// Reply answers the request on the exact socket that sent it.
func (h *Hub) Reply(original envelope.Envelope, data any) {
	env, err := envelope.NewReply(original, data)
	if err != nil {
		h.log.Warn("reply marshal", zap.Error(err))
		return
	}
	h.replyTo(original, env)
}

func (h *Hub) ReplyError(original envelope.Envelope, code, msg string) {
	h.replyTo(original, envelope.NewError(original, code, msg))
}

// AnswerSession replies to session.get with the socket's own session.
// Anonymous sockets get an UNAUTHORIZED error.
func (h *Hub) AnswerSession(env envelope.Envelope) {
	if env.UserID == "" {
		h.ReplyError(env, "UNAUTHORIZED", "Sessão ausente")
		return
	}
	h.Reply(env, models.SessionEvent{Event: models.EventInitialSession, UserID: env.UserID})
}

func (h *Hub) replyTo(original, env envelope.Envelope) {
	h.connMu.Lock()
	cc, ok := h.connMap[original.ID]
	delete(h.connMap, original.ID)
	h.connMu.Unlock()

	if ok {
		h.sendEnv(cc, env)
		return
	}
	h.Deliver(env)
}

// Deliver routes a bus envelope: to one user's sockets when it is addressed,
// to everyone otherwise.
func (h *Hub) Deliver(env envelope.Envelope) {
	raw, err := env.Marshal()
	if err != nil {
		return
	}

	h.mu.RLock()
	var targets []*clientConn
	if env.UserID != "" {
		targets = append(targets, h.byUser[env.UserID]...)
	} else {
		for cc := range h.clients {
			targets = append(targets, cc)
		}
	}
	h.mu.RUnlock()

	for _, cc := range targets {
		cc.send(raw)
	}
}

func (h *Hub) sendEnv(cc *clientConn, env envelope.Envelope) {
	raw, err := env.Marshal()
	if err != nil {
		return
	}
	cc.send(raw)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) AuthenticatedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}
