// Package http serves the back-office JSON API over a session.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"conservadora/internal/cache"
	"conservadora/internal/core"
	"conservadora/internal/log"
	"conservadora/internal/middleware/ratelimit"
	"conservadora/internal/middleware/security"
	"conservadora/internal/report"
	"conservadora/internal/session"

	"github.com/rs/cors"
)

type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	// RateLimit caps mutating requests per client per minute.
	RateLimit int
	// AllowedOrigins enables CORS for these browser origins.
	AllowedOrigins []string
	Logger         *log.Logger
}

type Server struct {
	*http.Server

	session  *session.Session
	reports  *cache.LRUCache[report.Report]
	caches   *cache.Manager
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *log.Logger
	now      func() time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, sess *session.Session, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		session:  sess,
		reports:  cache.NewLRUCache[report.Report](opts.CacheSize, opts.CacheTTL),
		caches:   cache.NewManager(logger),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		detector: security.NewDetector(),
		logger:   logger,
		now:      time.Now,
	}
	s.caches.Register(s.reports)
	s.caches.Register(s.limiter)

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(opts.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(origins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	registerEntity[core.Staff](mux, "/api/staff", s.session.Staff)
	registerEntity[core.Condominium](mux, "/api/condominiums", s.session.Condominiums)
	registerEntity[core.Schedule](mux, "/api/schedules", s.session.Schedules)
	registerEntity[core.Absence](mux, "/api/absences", s.session.Absences)
	registerReadOnly[core.Payroll](mux, "/api/payroll", s.session.Payroll)

	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/report.xlsx", s.handleReportXLSX)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/documents", s.handleDocuments)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	limit := s.limiter.Middleware(security.ClientIP, isMutation, func(w http.ResponseWriter, r *http.Request) {
		errorReply(http.StatusTooManyRequests, "muitas requisições, tente novamente em instantes").Write(w)
	})

	var h http.Handler = mux
	h = limit(h)
	h = s.inspect(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	if len(origins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", log.RequestIDHeader},
			ExposedHeaders: []string{log.RequestIDHeader, CacheHeader, "Content-Disposition"},
			MaxAge:         600,
		}).Handler(h)
	}
	h = log.Middleware(s.logger)(h)
	return h
}

func isMutation(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// inspect logs scanner-like requests and lets them through.
func (s *Server) inspect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason, ok := s.detector.Suspicious(r); ok {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				"client_ip", security.ClientIP(r),
				"reason", reason)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

type readiness struct {
	Status   string            `json:"status"`
	Revision uint64            `json:"revision"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// handleReady answers 503 until every table finished its first fetch.
// Tables that failed to load are listed but do not make the API unready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.session.Loading() {
		NewJSONResponse().Status(http.StatusServiceUnavailable).
			Data(readiness{Status: "loading", Revision: s.session.Revision()}).Write(w)
		return
	}
	body := readiness{Status: "ready", Revision: s.session.Revision()}
	if errs := s.session.LoadErrors(); len(errs) > 0 {
		body.Status = "degraded"
		body.Errors = make(map[string]string, len(errs))
		for name, err := range errs {
			body.Errors[name] = err.Error()
		}
	}
	NewJSONResponse().Data(body).Write(w)
}

// Start runs the cache cleanup loop and serves until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.caches.Start(ctx, time.Minute)
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
