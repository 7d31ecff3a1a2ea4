package ecosight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the EcoSight server (e.g. "http://localhost:8080").
	BaseURL string

	// Password is the shared viewer credential used to obtain a JWT token.
	Password string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with a 30-second timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 30 seconds.
	Timeout time.Duration
}

// Client is an HTTP client for the EcoSight site analytics API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL  string
	client   *http.Client
	tokenMgr *tokenManager
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL or Password is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ecosight: BaseURL is required")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("ecosight: Password is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  baseURL,
		client:   httpClient,
		tokenMgr: newTokenManager(baseURL, cfg.Password, httpClient),
	}, nil
}

// ListSitesOptions are the optional filters and pagination controls for the
// ListSites method. Zero values are omitted from the request.
type ListSitesOptions struct {
	Search        string
	Tiers         []string
	Media         []string
	MediaStatuses []string
	HistoricalUse []string
	Batches       []string
	HasDocuments  *bool
	Processed     *bool
	ScoreMin      *int
	ScoreMax      *int
	Limit         int
	Offset        int
}

func (o *ListSitesOptions) query() url.Values {
	params := url.Values{}
	if o == nil {
		return params
	}
	if o.Search != "" {
		params.Set("search", o.Search)
	}
	setCSV := func(name string, vals []string) {
		if len(vals) > 0 {
			params.Set(name, strings.Join(vals, ","))
		}
	}
	setCSV("tiers", o.Tiers)
	setCSV("media", o.Media)
	setCSV("media_statuses", o.MediaStatuses)
	setCSV("historical_use", o.HistoricalUse)
	setCSV("batches", o.Batches)
	if o.HasDocuments != nil {
		params.Set("has_documents", strconv.FormatBool(*o.HasDocuments))
	}
	if o.Processed != nil {
		params.Set("processed", strconv.FormatBool(*o.Processed))
	}
	if o.ScoreMin != nil {
		params.Set("score_min", strconv.Itoa(*o.ScoreMin))
	}
	if o.ScoreMax != nil {
		params.Set("score_max", strconv.Itoa(*o.ScoreMax))
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		params.Set("offset", strconv.Itoa(o.Offset))
	}
	return params
}

// ListSites retrieves a filtered, paginated page of sites with their
// resolved scores and tiers.
func (c *Client) ListSites(ctx context.Context, opts *ListSitesOptions) (*SiteList, error) {
	path := "/v1/sites"
	if params := opts.query(); len(params) > 0 {
		path += "?" + params.Encode()
	}

	var sites []Site
	page, err := c.getList(ctx, path, &sites)
	if err != nil {
		return nil, err
	}
	return &SiteList{
		Sites:   sites,
		Total:   page.Total,
		HasMore: page.HasMore,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}, nil
}

// GetSite retrieves the detail record for one site.
func (c *Client) GetSite(ctx context.Context, siteID string) (*SiteDetail, error) {
	var resp SiteDetail
	if err := c.get(ctx, "/v1/sites/"+url.PathEscape(siteID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SiteQualification retrieves the qualification breakdown for one site:
// overall score and tier, per-check scores, and cleaned evidence.
func (c *Client) SiteQualification(ctx context.Context, siteID string) (*Qualification, error) {
	var resp Qualification
	if err := c.get(ctx, "/v1/sites/"+url.PathEscape(siteID)+"/qualifications", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TriggerProcess asks the server to dispatch the site to the external
// processing service. Returns IsConflict errors while another site holds the
// cooldown gate.
func (c *Client) TriggerProcess(ctx context.Context, siteID string) (*TriggerResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/process/"+url.PathEscape(siteID), nil)
	if err != nil {
		return nil, fmt.Errorf("ecosight: create request: %w", err)
	}

	var result TriggerResult
	status, err := c.doRequestStatus(ctx, req, &result.ProcessStatus)
	if err != nil {
		return nil, err
	}
	result.Queued = status == http.StatusAccepted
	return &result, nil
}

// ProcessStatus reports whether the processing cooldown gate is held and by
// which site.
func (c *Client) ProcessStatus(ctx context.Context) (*ProcessStatus, error) {
	var resp ProcessStatus
	if err := c.get(ctx, "/v1/process/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the server's health status. This endpoint does not require
// authentication and will work even if the client has invalid credentials.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("ecosight: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ecosight: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out HealthResponse
	if err := handleResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// apiEnvelope is the server's standard response wrapper.
type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// listEnvelope is the server's paginated list wrapper.
type listEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Total   int             `json:"total"`
	HasMore bool            `json:"has_more"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// apiErrorEnvelope is the server's standard error response wrapper.
type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("ecosight: create request: %w", err)
	}

	_, err = c.doRequestStatus(ctx, req, dest)
	return err
}

func (c *Client) getList(ctx context.Context, path string, dest any) (*listEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("ecosight: create request: %w", err)
	}

	resp, err := c.authedDo(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ecosight: read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	var envelope listEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return nil, fmt.Errorf("ecosight: decode response envelope: %w", err)
	}
	if envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, dest); err != nil {
			return nil, fmt.Errorf("ecosight: decode list items: %w", err)
		}
	}
	return &envelope, nil
}

func (c *Client) doRequestStatus(ctx context.Context, req *http.Request, dest any) (int, error) {
	resp, err := c.authedDo(ctx, req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, handleResponse(resp, dest)
}

func (c *Client) authedDo(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, err := c.tokenMgr.getToken(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ecosight: %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func handleResponse(resp *http.Response, dest any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ecosight: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if resp.StatusCode == http.StatusNoContent || dest == nil {
		return nil
	}

	// Unwrap the server's { "data": ... } envelope.
	var envelope apiEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return fmt.Errorf("ecosight: decode response envelope: %w", err)
	}

	if envelope.Data == nil {
		// Fallback: some endpoints may not wrap in "data".
		return json.Unmarshal(bodyBytes, dest)
	}

	return json.Unmarshal(envelope.Data, dest)
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Code = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}

	return apiErr
}
