// Package server implements the Ecosight HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/restorical/ecosight/internal/auth"
	"github.com/restorical/ecosight/internal/processing"
	"github.com/restorical/ecosight/internal/ratelimit"
	"github.com/restorical/ecosight/internal/storage"
)

// Server is the Ecosight HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a
// Server. Optional fields (nil-safe): Limiter, Processor, Gate.
type ServerConfig struct {
	// Required dependencies.
	DB     *storage.DB
	JWTMgr *auth.JWTManager
	Logger *slog.Logger

	// Viewer credential.
	PasswordHash string

	// Processing trigger (nil = endpoint disabled).
	Processor *processing.Client
	Gate      *processing.Gate

	// Optional rate limiter (nil = unlimited).
	Limiter ratelimit.Limiter

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
	MaxPageSize         int
	ResultsBaseURL      string
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		DB:                  cfg.DB,
		JWTMgr:              cfg.JWTMgr,
		PasswordHash:        cfg.PasswordHash,
		Processor:           cfg.Processor,
		Gate:                cfg.Gate,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		MaxPageSize:         cfg.MaxPageSize,
		ResultsBaseURL:      cfg.ResultsBaseURL,
	})

	mux := http.NewServeMux()

	// Auth endpoint (no auth required, rate limited by IP with the rest).
	mux.HandleFunc("POST /auth/token", h.HandleAuthToken)

	// Health (no auth, no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Meta and overview.
	mux.HandleFunc("GET /v1/meta", h.HandleMeta)
	mux.HandleFunc("GET /v1/overview", h.HandleOverview)

	// Sites and subresources.
	mux.HandleFunc("GET /v1/sites", h.HandleListSites)
	mux.HandleFunc("GET /v1/sites/{site_id}", h.HandleGetSite)
	mux.HandleFunc("GET /v1/sites/{site_id}/narratives", h.HandleSiteNarratives)
	mux.HandleFunc("GET /v1/sites/{site_id}/documents", h.HandleSiteDocuments)
	mux.HandleFunc("GET /v1/sites/{site_id}/qualifications", h.HandleSiteQualification)
	mux.HandleFunc("GET /v1/sites/{site_id}/contaminants", h.HandleSiteContaminants)
	mux.HandleFunc("GET /v1/sites/{site_id}/contacts", h.HandleSiteContacts)
	mux.HandleFunc("GET /v1/sites/{site_id}/ownership", h.HandleSiteOwnership)

	// Cross-site listings.
	mux.HandleFunc("GET /v1/documents", h.HandleListDocuments)
	mux.HandleFunc("GET /v1/narratives", h.HandleListNarratives)
	mux.HandleFunc("GET /v1/contaminants", h.HandleListContaminants)
	mux.HandleFunc("GET /v1/contacts", h.HandleListContacts)
	mux.HandleFunc("GET /v1/qualifications", h.HandleListQualifications)
	mux.HandleFunc("GET /v1/customers", h.HandleListCustomers)
	mux.HandleFunc("GET /v1/customers/sites", h.HandleListCustomerSites)
	mux.HandleFunc("GET /v1/feedback", h.HandleListFeedback)
	mux.HandleFunc("GET /v1/feedback/{site_id}", h.HandleSiteFeedback)
	mux.HandleFunc("GET /v1/filtered/tribal", h.HandleTribalSites)
	mux.HandleFunc("GET /v1/filtered/dnc", h.HandleDoNotContactSites)
	mux.HandleFunc("GET /v1/dictionary", h.HandleDictionary)
	mux.HandleFunc("GET /v1/dictionary/{name}", h.HandleDictionaryRelation)

	// CSV exports.
	mux.HandleFunc("GET /v1/export/sites", h.HandleExportSites)
	mux.HandleFunc("GET /v1/export/documents", h.HandleExportDocuments)
	mux.HandleFunc("GET /v1/export/contaminants", h.HandleExportContaminants)
	mux.HandleFunc("GET /v1/export/contacts", h.HandleExportContacts)
	mux.HandleFunc("GET /v1/export/qualifications", h.HandleExportQualifications)
	mux.HandleFunc("GET /v1/export/feedback", h.HandleExportFeedback)
	mux.HandleFunc("GET /v1/export/customers", h.HandleExportCustomers)
	mux.HandleFunc("GET /v1/export/filtered", h.HandleExportFiltered)

	// Processing trigger.
	mux.HandleFunc("POST /v1/process/{site_id}", h.HandleProcessSite)
	mux.HandleFunc("GET /v1/process/status", h.HandleProcessStatus)

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → rate limit → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = rateLimitMiddleware(cfg.Limiter, cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
