package server

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/restorical/ecosight/internal/auth"
	"github.com/restorical/ecosight/internal/model"
	"github.com/restorical/ecosight/internal/processing"
	"github.com/restorical/ecosight/internal/storage"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	db                  *storage.DB
	jwtMgr              *auth.JWTManager
	passwordHash        string
	processor           *processing.Client
	gate                *processing.Gate
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	maxPageSize         int
	resultsBaseURL      string
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Processor, Gate.
type HandlersDeps struct {
	DB                  *storage.DB
	JWTMgr              *auth.JWTManager
	PasswordHash        string
	Processor           *processing.Client
	Gate                *processing.Gate
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	MaxPageSize         int
	ResultsBaseURL      string
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		db:                  d.DB,
		jwtMgr:              d.JWTMgr,
		passwordHash:        d.PasswordHash,
		processor:           d.Processor,
		gate:                d.Gate,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		maxPageSize:         d.MaxPageSize,
		resultsBaseURL:      d.ResultsBaseURL,
	}
}

// HandleAuthToken handles POST /auth/token. The dashboard has a single
// shared viewer credential; a constant-time dummy verification runs when it
// is unset so response timing does not reveal that.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
		return
	}
	if req.Password == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "password is required")
		return
	}

	if h.passwordHash == "" {
		auth.DummyVerify()
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}
	ok, err := auth.VerifyPassword(req.Password, h.passwordHash)
	if err != nil || !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken()
	if err != nil {
		h.logger.Error("issue token failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to issue token")
		return
	}
	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{Token: token, ExpiresAt: expiresAt})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := "ok"
	if err := h.db.Ping(r.Context()); err != nil {
		dbStatus = "unreachable"
		status = "degraded"
	}
	resp := model.HealthResponse{
		Status:   status,
		Version:  h.version,
		Database: dbStatus,
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, resp)
}

// metaResponse is the filter vocabulary of the listing surfaces: every
// distinct label plus the observed numeric bounds.
type metaResponse struct {
	Tiers            []string                     `json:"tiers"`
	Media            []string                     `json:"media"`
	MediaStatuses    []string                     `json:"media_statuses"`
	HistoricalUse    []string                     `json:"historical_use_categories"`
	Batches          []model.BatchRun             `json:"batches"`
	SummaryBounds    model.SummaryBounds          `json:"summary_bounds"`
	DocumentFacets   model.DocumentFacets         `json:"document_facets"`
	ContactFacets    model.ContactFacets          `json:"contact_facets"`
	SitesPerCustomer model.SitesPerCustomerBounds `json:"sites_per_customer"`
}

// HandleMeta handles GET /v1/meta. The lookups are independent, so they fan
// out concurrently.
func (h *Handlers) HandleMeta(w http.ResponseWriter, r *http.Request) {
	var resp metaResponse
	resp.Media = model.Media()

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		resp.Tiers, err = h.db.QualificationTiers(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.MediaStatuses, err = h.db.MediaStatuses(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		resp.HistoricalUse, err = h.db.HistoricalUseCategories(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.Batches, err = h.db.ListBatches(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.SummaryBounds, err = h.db.SummaryBounds(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.DocumentFacets, err = h.db.DocumentFacets(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.ContactFacets, err = h.db.ContactFacets(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.SitesPerCustomer, err = h.db.SitesPerCustomerBounds(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("meta lookup failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "meta lookup failed")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// overviewResponse is the dashboard landing surface: headline counts and the
// aggregate breakdowns under the active filter.
type overviewResponse struct {
	Metrics         model.DashboardMetrics   `json:"metrics"`
	Documents       model.DocumentSummary    `json:"documents"`
	TopContaminants []model.ContaminantCount `json:"top_contaminants"`
	Tiers           []model.TierCount        `json:"tiers"`
}

// HandleOverview handles GET /v1/overview.
func (h *Handlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	f, err := siteFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	var resp overviewResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		resp.Metrics, err = h.db.DashboardMetrics(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		resp.Documents, err = h.db.DocumentSummary(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		resp.TopContaminants, err = h.db.TopContaminants(ctx, f, 10)
		return err
	})
	g.Go(func() (err error) {
		resp.Tiers, err = h.db.TierBreakdown(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("overview lookup failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "overview lookup failed")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}
