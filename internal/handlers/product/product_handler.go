package product

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/response"
	"github.com/KobiNisim21/destiny-commerce/internal/service/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalogService *catalog.Service
	logger         *zap.Logger
}

func NewProductHandler(catalogService *catalog.Service, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// ========== Storefront ==========

// ListProducts returns active products, filterable by section and category.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var filters product.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid filters", err)
		return
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to list products", err)
		return
	}

	response.Success(c, http.StatusOK, "products retrieved", products)
}

// GetProduct returns one product by its public slug.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")

	p, err := h.catalogService.GetProduct(c.Request.Context(), slug)
	if errors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "product not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to get product", err)
		return
	}

	response.Success(c, http.StatusOK, "product retrieved", p)
}

// ========== Back Office ==========

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if errors.Is(err, xerrors.ErrConflict) {
		response.Error(c, http.StatusConflict, "slug already in use", nil)
		return
	}
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to create product", err)
		return
	}

	response.Success(c, http.StatusCreated, "product created", p)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid product id", err)
		return
	}

	var req product.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &req)
	if errors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "product not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to update product", err)
		return
	}

	response.Success(c, http.StatusOK, "product updated", p)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid product id", err)
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to delete product", err)
		return
	}

	response.Success(c, http.StatusOK, "product deleted", nil)
}
