package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/cache"
	"github.com/KobiNisim21/destiny-commerce/internal/config"
	"github.com/KobiNisim21/destiny-commerce/internal/db"
	authHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/auth"
	contentHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/content"
	couponHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/coupon"
	feedHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/feed"
	newsletterHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/newsletter"
	orderHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/order"
	productHandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/product"
	"github.com/KobiNisim21/destiny-commerce/internal/middleware"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/jwt"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/session"
	"github.com/KobiNisim21/destiny-commerce/internal/repository/postgres"
	authUsecase "github.com/KobiNisim21/destiny-commerce/internal/service/auth"
	catalogUsecase "github.com/KobiNisim21/destiny-commerce/internal/service/catalog"
	contentUsecase "github.com/KobiNisim21/destiny-commerce/internal/service/content"
	couponUsecase "github.com/KobiNisim21/destiny-commerce/internal/service/coupon"
	"github.com/KobiNisim21/destiny-commerce/internal/service/email"
	newsletterUsecase "github.com/KobiNisim21/destiny-commerce/internal/service/newsletter"
	orderUsecase "github.com/KobiNisim21/destiny-commerce/internal/service/order"
	"github.com/KobiNisim21/destiny-commerce/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg         config.AppConfig
	engine      *gin.Engine
	httpServer  *http.Server
	hubCancel   context.CancelFunc
	logger      *zap.Logger
	authService *authUsecase.AuthService
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logger.Info("connected to postgres")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to redis")

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Email -----
	emailSender := email.NewSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
	)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	contentRepo := postgres.NewContentRepository(pool)
	newsletterRepo := postgres.NewNewsletterRepository(pool)

	// ----- WebSocket Hub (admin order feed) -----
	hub := ws.NewHub(jwtManager.Verifier, sessionManager, logger)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	s.hubCancel = hubCancel
	go hub.Run(hubCtx)

	// ----- Services -----
	listingCache := cache.NewProductCache(s.cfg.ProductCacheTTL, nil)
	evaluator := couponUsecase.NewEvaluator(nil)

	authService := authUsecase.NewAuthService(userRepo, jwtManager, sessionManager, rateLimiter, logger)
	s.authService = authService

	catalogService := catalogUsecase.NewService(productRepo, listingCache, logger)
	couponService := couponUsecase.NewService(couponRepo, productRepo, evaluator, logger)
	orderService := orderUsecase.NewService(
		orderRepo,
		couponRepo,
		productRepo,
		dbWrapper,
		evaluator,
		hub,
		emailSender,
		logger,
	)
	contentService := contentUsecase.NewService(contentRepo, logger)
	newsletterService := newsletterUsecase.NewService(newsletterRepo, emailSender, s.cfg.SiteBaseURL, logger)

	// ----- Initialize Admin -----
	if err := s.initializeAdmin(); err != nil {
		logger.Error("failed to initialize admin account", zap.Error(err))
		// Don't fail startup, just log the error
	}

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, logger)
	productHandlerInst := productHandler.NewProductHandler(catalogService, logger)
	couponHandlerInst := couponHandler.NewCouponHandler(couponService, rateLimiter, logger)
	orderHandlerInst := orderHandler.NewOrderHandler(orderService, logger)
	contentHandlerInst := contentHandler.NewContentHandler(contentService, logger)
	newsletterHandlerInst := newsletterHandler.NewNewsletterHandler(newsletterService, logger)
	feedHandlerInst := feedHandler.NewFeedHandler(hub, s.cfg.SiteBaseURL, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:       authHandlerInst,
		ProductHandler:    productHandlerInst,
		CouponHandler:     couponHandlerInst,
		OrderHandler:      orderHandlerInst,
		ContentHandler:    contentHandlerInst,
		NewsletterHandler: newsletterHandlerInst,
		FeedHandler:       feedHandlerInst,
		AuthMiddleware:    authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight HTTP requests until ctx expires, then stops
// the order feed hub so connected admins get a close frame.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.hubCancel != nil {
		s.hubCancel()
	}
	return err
}

// initializeAdmin creates the back-office admin account if it doesn't exist.
func (s *Server) initializeAdmin() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	fullName := os.Getenv("ADMIN_NAME")

	if email == "" || password == "" {
		s.logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}
	if fullName == "" {
		fullName = "Store Administrator"
	}

	if len(password) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters")
	}

	if err := s.authService.EnsureAdminExists(ctx, email, password, fullName); err != nil {
		return fmt.Errorf("failed to ensure admin exists: %w", err)
	}

	return nil
}
