package app

import (
	authHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/auth"
	contentHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/content"
	couponHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/coupon"
	feedHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/feed"
	newsletterHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/newsletter"
	orderHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/order"
	productHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/product"
	"github.com/KobiNisim21/destiny-commerce/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler       *authHandler.AuthHandler
	ProductHandler    *productHandler.ProductHandler
	CouponHandler     *couponHandler.CouponHandler
	OrderHandler      *orderHandler.OrderHandler
	ContentHandler    *contentHandler.ContentHandler
	NewsletterHandler *newsletterHandler.NewsletterHandler
	FeedHandler       *feedHandler.FeedHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Admin Order Feed (WebSocket) ====================
	r.GET("/ws/admin/orders", h.FeedHandler.HandleConnection)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
		authProtected.PUT("/profile", h.AuthHandler.UpdateProfile)
		authProtected.PUT("/change-password", h.AuthHandler.ChangePassword)
	}

	// ==================== Catalog (Storefront) ====================
	products := api.Group("/products")
	{
		products.GET("", h.ProductHandler.ListProducts) // ?section=xxx&category=xxx
		products.GET("/:slug", h.ProductHandler.GetProduct)
	}

	// ==================== Coupons (Storefront) ====================
	api.POST("/coupons/validate", h.CouponHandler.Validate)

	// ==================== Orders (Storefront) ====================
	orders := api.Group("/orders")
	orders.Use(h.AuthMiddleware.Auth())
	{
		orders.POST("", h.OrderHandler.CreateOrder)
		orders.GET("", h.OrderHandler.ListMyOrders)
		orders.GET("/:number", h.OrderHandler.GetOrder)
	}

	// ==================== Site Content (Storefront) ====================
	api.GET("/content/:key", h.ContentHandler.GetBlock)

	// ==================== Newsletter (Storefront) ====================
	newsletter := api.Group("/newsletter")
	{
		newsletter.POST("/subscribe", h.NewsletterHandler.Subscribe)
		newsletter.GET("/unsubscribe", h.NewsletterHandler.Unsubscribe) // ?token=xxx
	}

	// ==================== ADMIN ROUTES ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		// Catalog Management
		adminProducts := admin.Group("/products")
		{
			adminProducts.POST("", h.ProductHandler.CreateProduct)
			adminProducts.PUT("/:id", h.ProductHandler.UpdateProduct)
			adminProducts.DELETE("/:id", h.ProductHandler.DeleteProduct)
		}

		// Coupon Management
		adminCoupons := admin.Group("/coupons")
		{
			adminCoupons.POST("", h.CouponHandler.CreateCoupon)
			adminCoupons.GET("", h.CouponHandler.ListCoupons)
			adminCoupons.PUT("/:id/deactivate", h.CouponHandler.DeactivateCoupon)
			adminCoupons.DELETE("/:id", h.CouponHandler.DeleteCoupon)
		}

		// Order Management
		adminOrders := admin.Group("/orders")
		{
			adminOrders.GET("", h.OrderHandler.ListOrders) // ?status=xxx&limit=50&offset=0
			adminOrders.PUT("/:id/status", h.OrderHandler.UpdateStatus)
		}

		// Site Content Management
		adminContent := admin.Group("/content")
		{
			adminContent.GET("", h.ContentHandler.ListBlocks)
			adminContent.PUT("/:key", h.ContentHandler.UpsertBlock)
			adminContent.DELETE("/:key", h.ContentHandler.DeleteBlock)
		}

		// Newsletter Management
		adminNewsletter := admin.Group("/newsletter")
		{
			adminNewsletter.GET("/subscribers", h.NewsletterHandler.ListSubscribers)
			adminNewsletter.POST("/campaigns", h.NewsletterHandler.SendCampaign)
		}

		// Order Feed Stats
		admin.GET("/ws/stats", h.FeedHandler.GetStats)
	}
}
