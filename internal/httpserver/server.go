package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"portfolio/backend/internal/config"
	authusecase "portfolio/backend/internal/usecase/auth"
	uploadusecase "portfolio/backend/internal/usecase/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// uploadOverhead is the multipart framing allowed on top of the file ceiling.
const uploadOverhead = 64 << 10

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer    *http.Server
	router        chi.Router
	logger        *slog.Logger
	audit         *auditLogger
	authService   *authusecase.Service
	uploads       *uploadusecase.Manager
	cookies       CookieOptions
	loginLimiter  *rateLimiter
	uploadPrefix  string
	allowedOrigin []string
	addr          string
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, logger *slog.Logger, authService *authusecase.Service, uploads *uploadusecase.Manager) *Server {
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	srv := &Server{
		router:        chi.NewRouter(),
		logger:        logger,
		audit:         newAuditLogger(logger),
		authService:   authService,
		uploads:       uploads,
		cookies:       BuildCookieOptions(cfg.CookieName, cfg.IsProduction(), cfg.JWTExpiry),
		loginLimiter:  newRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow),
		uploadPrefix:  strings.TrimRight(cfg.UploadURLPrefix, "/"),
		allowedOrigin: cfg.AllowedOrigins,
		addr:          addr,
	}
	srv.registerRoutes()

	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadTimeout:       time.Duration(cfg.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeoutSec) * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return srv
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withLogging(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(withCORS(s.allowedOrigin))

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.With(s.loginLimiter.middleware(func(req *http.Request) {
			s.audit.log(AuditLoginRateLimited, req)
		})).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/me", s.handleMe)
			r.Put("/password", s.handleChangePassword)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(s.requireRole(adminRole))
		r.Post("/upload/image", s.handleUploadImage)
		r.Get("/upload/images", s.handleListImages)
		r.Delete("/upload/image/{filename}", s.handleDeleteImage)
		// multi-segment names never reach the store
		r.Delete("/upload/image/*", s.handleInvalidFilename)
	})

	if strings.HasPrefix(s.uploadPrefix, "/") && s.uploadPrefix != "/" {
		r.Get(s.uploadPrefix+"/{filename}", s.handleServeImage)
	}
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.loginLimiter.close()
	return s.httpServer.Shutdown(ctx)
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.loginLimiter.close()
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
