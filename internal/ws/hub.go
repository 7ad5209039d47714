package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/order"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/jwt"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/session"

	"go.uber.org/zap"
)

// Hub fans order events out to connected back-office clients. The feed is
// one way: the server pushes, clients only answer pings.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	jwtVerifier    *jwt.Verifier
	sessionManager *session.Manager
	logger         *zap.Logger
}

func NewHub(jwtVerifier *jwt.Verifier, sessionManager *session.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		Register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan []byte, 256),
		jwtVerifier:    jwtVerifier,
		sessionManager: sessionManager,
		logger:         logger,
	}
}

// ClientAuth holds the authenticated identity behind a connection.
type ClientAuth struct {
	UserID int64
	JTI    string
	Email  string
}

// AuthenticateClient verifies the token, checks the session is alive and
// requires the admin role. The feed carries every order in the store, so
// customers never get on it.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	if !claims.IsAdmin() {
		return nil, xerrors.ErrForbidden
	}

	if _, err := h.sessionManager.GetSession(ctx, claims.UserID, claims.ID); err != nil {
		return nil, err
	}

	return &ClientAuth{
		UserID: claims.UserID,
		JTI:    claims.ID,
		Email:  claims.Email,
	}, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToAll(msg)
		}
	}
}

// BroadcastOrderEvent queues an order event for every connected admin.
// Safe to call with no listeners; events are dropped once the buffer fills.
func (h *Hub) BroadcastOrderEvent(ev order.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal order event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("order feed buffer full, dropping event",
			zap.String("number", ev.Number),
		)
	}
}

// TotalClients reports the current connection count.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info("order feed client connected",
		zap.Int64("user_id", client.userID),
		zap.Int("total", len(h.clients)),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()

		h.logger.Info("order feed client disconnected",
			zap.Int64("user_id", client.userID),
			zap.Int("total", len(h.clients)),
		)
	}
}

// broadcastToAll runs on the hub goroutine. A slow consumer is dropped
// right here, never via the unregister channel: the hub is that channel's
// only receiver and would block sending to itself.
func (h *Hub) broadcastToAll(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			client.Close()

			h.logger.Warn("order feed client dropped, send buffer full",
				zap.Int64("user_id", client.userID),
				zap.Int("total", len(h.clients)),
			)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]bool)
}
