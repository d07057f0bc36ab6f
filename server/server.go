// Package server exposes the clock configuration store and the solar
// geometry over HTTP.
package server

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/echoflaresat/geochron/metrics"
	"github.com/echoflaresat/geochron/render"
	"github.com/echoflaresat/geochron/storage"
)

const anonymousUser = "anonymous-user"

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	store      storage.Store
	render     render.Options
	now        func() time.Time
}

// NewServer creates a configured HTTP server. renderOpts supplies the theme
// and worker count for map requests; size and shading come from the query.
func NewServer(addr string, logger *slog.Logger, store storage.Store, renderOpts render.Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger: logger,
		store:  store,
		render: renderOpts,
		now:    time.Now,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Routes builds the router: metrics -> logging -> recoverer -> handlers.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/save-configuration", s.handleSaveConfig)
		r.Get("/load-configuration", s.handleLoadConfig)
		r.Delete("/delete-configuration", s.handleDeleteConfig)

		r.Route("/solar", func(r chi.Router) {
			r.Get("/geometry", s.handleGeometry)
			r.Get("/subsolar", s.handleSubsolar)
			r.Get("/daylight", s.handleDaylight)
			r.Get("/terminator", s.handleTerminator)
			r.Get("/map.png", s.handleMap)
		})
	})
	return r
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// userID identifies the caller by session header, then address.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Session-Id")); id != "" {
		return id
	}
	if ip := clientIP(r); ip != "" {
		return ip
	}
	return anonymousUser
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// probePath returns true for health probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/api/health" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", clientIP(r),
			)
		})
	}
}
