// Package server contains the HTTP handlers and routing for the blog pages.
package server

import (
	"context"
	"fmt"
	"time"

	"yatube/internal/bootstrap"
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	views          fiber.Views
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	groupRepo      repository.GroupRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	followRepo     repository.FollowRepository
	pageCache      cache.PageCache
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	authService    *service.AuthService
}

// NewServer connects to Postgres and Redis and wires every dependency.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedDemo: cfg.SeedDemo})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps wires a server around existing connections. A nil
// redisClient disables the index page cache.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("yatube"),
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		pageCache:      cache.NewRedisPageCache(redisClient),
	}

	server.views = views.New(views.Options{
		MediaURL:  server.mediaURL(),
		MediaRoot: server.mediaRoot(),
		Reload:    !cfg.IsProduction() && cfg.Env != "test",
	})
	server.wireServices()

	return server, nil
}

func (s *Server) wireServices() {
	cfg := s.config
	s.postService = service.NewPostService(
		s.postRepo,
		s.groupRepo,
		s.userRepo,
		s.followRepo,
		s.commentRepo,
		service.NewImageService(cfg),
		s.pageCache,
		service.PostServiceOptions{PerPage: cfg.PageSize, IndexCacheTTL: cfg.IndexCacheTTL()},
	)
	s.commentService = service.NewCommentService(s.commentRepo)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo, s.postRepo, cfg.PageSize)
	s.authService = service.NewAuthService(s.userRepo)
}

// NewApp builds the Fiber application with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := 4 * 1024 * 1024
	if limit := int(s.maxUploadBytes()) + 1024*1024; limit > bodyLimit {
		bodyLimit = limit
	}

	appCfg := fiber.Config{
		AppName:      "Yatube",
		ErrorHandler: s.errorHandler,
		BodyLimit:    bodyLimit,
	}
	if s.views != nil {
		appCfg.Views = s.views
	}
	app := fiber.New(appCfg)

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures all middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware, "/health", "/metrics", s.mediaURL()))
	}

	app.Use(helmet.New(helmet.Config{
		// Uploaded images are served from the same origin.
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(middleware.StructuredLogger())
	app.Use(s.Identify())
}

// SetupRoutes configures all routes for the application. Fixed prefixes are
// registered before the username catch-alls so "/new/" is never read as a
// profile.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(s.mediaURL(), s.mediaRoot(), fiber.Static{MaxAge: 3600})

	auth := app.Group("/auth")
	auth.Get("/login", s.LoginPage)
	auth.Post("/login", s.Login)
	auth.Get("/signup", s.SignupPage)
	auth.Post("/signup", s.Signup)
	auth.Get("/logout", s.Logout)
	auth.Post("/logout", s.Logout)

	about := app.Group("/about")
	about.Get("/author", s.AboutAuthor)
	about.Get("/tech", s.AboutTech)

	app.Get("/404", s.NotFoundPage)
	app.Get("/500", s.ServerErrorPage)

	app.Get("/", s.Index)
	app.Get("/new", s.LoginRequired(), s.NewPostPage)
	app.Post("/new", s.LoginRequired(), s.CreatePost)
	app.Get("/follow", s.LoginRequired(), s.FollowIndex)
	app.Get("/group/:slug", s.GroupPosts)

	app.Get("/:username/follow", s.LoginRequired(), s.ProfileFollow)
	app.Get("/:username/unfollow", s.LoginRequired(), s.ProfileUnfollow)

	app.Get("/:username/:post_id/edit", s.LoginRequired(), s.EditPostPage)
	app.Post("/:username/:post_id/edit", s.LoginRequired(), s.EditPost)
	app.Get("/:username/:post_id/comment", s.LoginRequired(), s.CommentPage)
	app.Post("/:username/:post_id/comment", s.LoginRequired(), s.AddComment)
	app.Get("/:username/:post_id", s.PostView)
	app.Get("/:username", s.Profile)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis. Redis only
// backs the index cache, so losing it degrades the service without failing it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "degraded"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server and its connections
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func (s *Server) mediaURL() string {
	if s.config.MediaURL == "" {
		return "/media"
	}
	return s.config.MediaURL
}

func (s *Server) mediaRoot() string {
	if s.config.MediaRoot == "" {
		return service.DefaultMediaRoot
	}
	return s.config.MediaRoot
}
