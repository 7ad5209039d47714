package feed

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/response"
	"github.com/KobiNisim21/destiny-commerce/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// originChecker allows browser connects only from the configured site
// origin. Requests without an Origin header (CLI tools, monitoring) pass;
// a browser always sends one on websocket upgrades.
func originChecker(siteBaseURL string) func(r *http.Request) bool {
	allowed, parseErr := url.Parse(siteBaseURL)

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if parseErr != nil || allowed.Host == "" {
			return false
		}

		got, err := url.Parse(origin)
		if err != nil {
			return false
		}

		return strings.EqualFold(got.Scheme, allowed.Scheme) &&
			strings.EqualFold(got.Host, allowed.Host)
	}
}

// FeedHandler upgrades admin connections onto the live order feed.
type FeedHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewFeedHandler(hub *ws.Hub, siteBaseURL string, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(siteBaseURL),
		},
		logger: logger,
	}
}

// HandleConnection authenticates and upgrades a websocket connection.
func (h *FeedHandler) HandleConnection(c *gin.Context) {
	token := h.extractToken(c)
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing authentication token", nil)
		return
	}

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if errors.Is(err, xerrors.ErrForbidden) {
		response.Forbidden(c, "admin role required")
		return
	}
	if err != nil {
		h.logger.Warn("order feed authentication failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		response.Error(c, http.StatusUnauthorized, "authentication failed", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, auth)
	h.hub.Register <- client

	h.logger.Info("order feed client connected",
		zap.Int64("user_id", auth.UserID),
		zap.String("email", auth.Email),
	)

	go client.WritePump()
	go client.ReadPump()
}

// extractToken reads the token from the query string, falling back to the
// Authorization header. Browsers cannot set headers on websocket connects,
// so the query parameter comes first.
func (h *FeedHandler) extractToken(c *gin.Context) string {
	token := c.Query("token")
	if token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return ""
}

// GetStats reports feed connection counts (admin only).
func (h *FeedHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now(),
	}

	response.Success(c, http.StatusOK, "order feed stats", stats)
}
