package newsletter

import (
	"errors"
	"net/http"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/newsletter"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/response"
	newslettersvc "github.com/KobiNisim21/destiny-commerce/internal/service/newsletter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NewsletterHandler struct {
	newsletterService *newslettersvc.Service
	logger            *zap.Logger
}

func NewNewsletterHandler(newsletterService *newslettersvc.Service, logger *zap.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		newsletterService: newsletterService,
		logger:            logger,
	}
}

// ========== Storefront ==========

// Subscribe adds an email to the mailing list (public, idempotent).
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req newsletter.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if _, err := h.newsletterService.Subscribe(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("subscription failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "subscription failed", err)
		return
	}

	response.Success(c, http.StatusOK, "נרשמת בהצלחה לניוזלטר / Subscribed successfully", nil)
}

// Unsubscribe deactivates the subscriber behind a token. Linked from every
// outgoing email, so it is a GET with no auth.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusBadRequest, "missing token", nil)
		return
	}

	err := h.newsletterService.Unsubscribe(c.Request.Context(), token)
	if errors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "subscription not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "unsubscribe failed", err)
		return
	}

	response.Success(c, http.StatusOK, "הוסרת מרשימת התפוצה / Unsubscribed successfully", nil)
}

// ========== Back Office ==========

func (h *NewsletterHandler) ListSubscribers(c *gin.Context) {
	subs, err := h.newsletterService.ListSubscribers(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list subscribers", err)
		return
	}

	response.Success(c, http.StatusOK, "subscribers retrieved", subs)
}

// SendCampaign blasts an email to every active subscriber.
func (h *NewsletterHandler) SendCampaign(c *gin.Context) {
	var req newsletter.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.newsletterService.SendCampaign(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "campaign failed", err)
		return
	}

	response.Success(c, http.StatusOK, "campaign sent", result)
}
