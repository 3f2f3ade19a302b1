package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/priceforge/priceforge/internal/analytics"
	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/store"
)

// Server exposes the engine over HTTP: public event-intake endpoints for
// the pricing snippet, and token-protected read/recommendation endpoints.
type Server struct {
	engine    *engine.Engine
	store     store.Store
	agg       *analytics.Aggregator
	logger    *zap.Logger
	port      int
	token     string
	router    *chi.Mux
	startTime time.Time
}

// New builds a Server. An empty token generates a random one, printed at
// startup.
func New(eng *engine.Engine, st store.Store, port int, token string, logger *zap.Logger) *Server {
	if token == "" {
		token = generateToken()
	}

	s := &Server{
		engine:    eng,
		store:     st,
		agg:       analytics.New(st),
		logger:    logger,
		port:      port,
		token:     token,
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLogger)

	// Public endpoints: health plus the high-volume event intake.
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/pricing", s.handlePricing)
	s.router.Post("/api/conversions", s.handleConversion)
	s.router.Get("/api/quick-analysis", s.handleQuickAnalysis)

	// Protected management and read surface.
	s.router.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/experiments", s.handleListExperiments)
		r.Get("/api/experiments/{id}/results", s.handleResults)
		r.Post("/api/experiments/{id}/recommendation", s.handleRecommendation)
		r.Get("/api/analytics/overview", s.handleOverview)
	})
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("priceforge server listening",
		zap.String("addr", addr),
		zap.String("token", s.token))
	return http.ListenAndServe(addr, s.router)
}

// Token returns the API token protecting the management endpoints.
func (s *Server) Token() string {
	return s.token
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func generateToken() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; a fixed
		// fallback keeps local dev usable.
		return "a1b2c3d4e5f6a7b8"
	}
	return hex.EncodeToString(bytes)
}
