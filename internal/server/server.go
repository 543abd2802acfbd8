// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "crwn/docs" // swagger docs
	"crwn/internal/config"
	"crwn/internal/featureflags"
	"crwn/internal/middleware"
	"crwn/internal/models"
	"crwn/internal/notifications"
	"crwn/internal/observability"
	"crwn/internal/onboarding"
	"crwn/internal/realtime"
	"crwn/internal/remote"
	"crwn/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	remote         *remote.Client
	svc            *service.Services
	drafts         *onboarding.DraftStore
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	promMiddleware *fiberprometheus.FiberPrometheus

	app         *fiber.App
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
	feedSub     realtime.Subscription
}

// NewServer creates a server over an opened backend and its services.
func NewServer(cfg *config.Config, rc *remote.Client, svc *service.Services) *Server {
	ttl := time.Duration(cfg.DraftTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	catalog := onboarding.DefaultCatalog()
	registrar := svc.Auth.Registrar()

	return &Server{
		config: cfg,
		remote: rc,
		svc:    svc,
		drafts: onboarding.NewDraftStore(ttl, func() *onboarding.Sequencer {
			return onboarding.NewSequencer(registrar, catalog)
		}),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.FromConfig(cfg.FeatureFlags),
		promMiddleware: middleware.InitMetrics("crwn-api"),
	}
}

// Drafts exposes the onboarding drafts so the scheduler can sweep them.
func (s *Server) Drafts() *onboarding.DraftStore {
	return s.drafts
}

// App returns the configured Fiber app, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	maxUploadMB := s.config.ImageMaxUploadSizeMB
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	app := fiber.New(fiber.Config{
		AppName: "CRWN API",
		// A post carries up to ten photos.
		BodyLimit:    (maxUploadMB*10 + 1) << 20,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8081,http://localhost:19006"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	rdb := s.remote.Redis
	authRequired := middleware.AuthRequired(s.remote.Auth)
	optionalAuth := middleware.OptionalAuth(s.remote.Auth)

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/storage/v1/object/public/:bucket/*", s.ServeObject)

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/features", optionalAuth, s.GetFeatureFlags)

	// Auth routes
	auth := api.Group("/auth")
	signupLimit := middleware.RateLimit(rdb, 3, 10*time.Minute, "signup")
	auth.Post("/register", signupLimit, s.Register)
	auth.Post("/signup", signupLimit, s.Register)
	auth.Post("/login", middleware.RateLimit(rdb, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", authRequired, s.Logout)
	auth.Post("/refresh", authRequired, s.Refresh)
	auth.Get("/session", authRequired, s.GetSession)

	// Onboarding drafts
	onboard := api.Group("/onboard")
	onboard.Get("/catalog", s.GetCatalog)
	onboard.Post("/", middleware.RateLimit(rdb, 20, 10*time.Minute, "onboard"), s.CreateDraft)
	onboard.Get("/:id", s.GetDraft)
	onboard.Patch("/:id", s.UpdateDraft)
	onboard.Post("/:id/next", s.RegistrationLimit(signupLimit), s.NextStep)
	onboard.Post("/:id/back", s.PreviousStep)

	// Current user
	me := api.Group("/user", authRequired)
	me.Get("/profile", s.GetMyProfile)
	me.Put("/profile", s.UpdateMyProfile)
	me.Put("/profile/hair", s.UpdateHairProfile)
	me.Post("/profile/avatar", middleware.RateLimit(rdb, 10, 10*time.Minute, "avatar"), s.UploadAvatar)
	me.Get("/settings", s.GetSettings)
	me.Put("/settings", s.UpdateSettings)
	me.Get("/bookmarks", s.GetBookmarks)
	me.Post("/feedback", middleware.RateLimit(rdb, 5, time.Hour, "feedback"), s.SubmitFeedback)

	// Other users. Specific /:id/:resource routes before the generic /:id route.
	users := api.Group("/users")
	users.Get("/:id/posts", optionalAuth, s.GetUserPosts)
	users.Post("/:id/follow", authRequired, s.FollowUser)
	users.Delete("/:id/follow", authRequired, s.UnfollowUser)
	users.Get("/:id", s.GetUserProfile)

	api.Get("/stylists", s.FeatureRequired(featureflags.StylistMode), s.ListStylists)

	// Posts
	posts := api.Group("/posts")
	posts.Get("/", optionalAuth, s.GetPosts)
	posts.Post("/", authRequired, middleware.RateLimit(rdb, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", authRequired, s.LikePost)
	posts.Delete("/:id/like", authRequired, s.UnlikePost)
	posts.Get("/:id/like", authRequired, s.GetLikeStatus)
	posts.Post("/:id/bookmark", authRequired, s.BookmarkPost)
	posts.Delete("/:id/bookmark", authRequired, s.RemoveBookmark)
	posts.Get("/:id", optionalAuth, s.GetPost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	// Notifications
	notes := api.Group("/notifications", authRequired)
	notes.Get("/", s.GetNotifications)
	notes.Post("/:id/read", s.MarkNotificationRead)

	// Websocket notification feed
	api.Get("/ws", middleware.WebSocketAuthRequired(s.remote.Auth), s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "up",
		"version": config.AppVersion,
		"time":    time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.remote.DB.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; without it the feed and rate limits run in process.
	redisStatus := "disabled"
	if s.remote.Redis != nil {
		redisStatus = "healthy"
		if err := s.remote.Redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "CRWN",
		"version": config.AppVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"realtime": s.remote.Realtime.Driver(),
		},
		"time": time.Now(),
	})
}

// Start wires the notification hub to the change feed and listens on the
// configured port until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	sub, err := s.hub.StartWiring(s.shutdownCtx, s.remote.Realtime)
	if err != nil {
		return err
	}
	s.feedSub = sub

	observability.GlobalLogger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server. The backend stays open; its
// owner closes it.
func (s *Server) Shutdown(ctx context.Context) error {
	log := observability.GlobalLogger

	// Cancel the server-scoped context to stop the feed wiring
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.feedSub != nil {
		if err := s.feedSub.Unsubscribe(); err != nil {
			log.Warn("error unsubscribing notification feed", slog.String("error", err.Error()))
		}
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close WebSocket connections gracefully
	if err := s.hub.Shutdown(ctx); err != nil {
		log.Error("error shutting down notification hub", slog.String("error", err.Error()))
	}

	log.Info("server shutdown complete")
	return nil
}
