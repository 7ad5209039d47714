package content

import (
	"errors"
	"net/http"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/content"
	"github.com/KobiNisim21/destiny-commerce/internal/middleware"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/response"
	contentsvc "github.com/KobiNisim21/destiny-commerce/internal/service/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ContentHandler struct {
	contentService *contentsvc.Service
	logger         *zap.Logger
}

func NewContentHandler(contentService *contentsvc.Service, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// GetBlock returns one content block by key (public endpoint).
func (h *ContentHandler) GetBlock(c *gin.Context) {
	key := c.Param("key")

	b, err := h.contentService.GetBlock(c.Request.Context(), key)
	if errors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "content block not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to get content", err)
		return
	}

	response.Success(c, http.StatusOK, "content retrieved", b)
}

// ========== Back Office ==========

func (h *ContentHandler) ListBlocks(c *gin.Context) {
	blocks, err := h.contentService.ListBlocks(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list content", err)
		return
	}

	response.Success(c, http.StatusOK, "content retrieved", blocks)
}

func (h *ContentHandler) UpsertBlock(c *gin.Context) {
	key := c.Param("key")
	editorID := middleware.MustGetUserID(c)

	var req content.UpsertBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	b, err := h.contentService.UpsertBlock(c.Request.Context(), key, editorID, &req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to save content", err)
		return
	}

	response.Success(c, http.StatusOK, "content saved", b)
}

func (h *ContentHandler) DeleteBlock(c *gin.Context) {
	key := c.Param("key")

	if err := h.contentService.DeleteBlock(c.Request.Context(), key); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "content block not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to delete content", err)
		return
	}

	response.Success(c, http.StatusOK, "content deleted", nil)
}
