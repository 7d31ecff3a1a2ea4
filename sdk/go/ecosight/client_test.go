package ecosight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockServer creates an httptest server that mimics the EcoSight API.
func mockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	// Always register auth endpoint.
	if _, ok := handlers["POST /auth/token"]; !ok {
		mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"token":      "test-token-xyz",
					"expires_at": time.Now().Add(1 * time.Hour).Format(time.RFC3339),
				},
			})
		})
	}

	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}

	return httptest.NewServer(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:  serverURL,
		Password: "viewer-secret",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Password: "x"})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://localhost:8080"})
	assert.Error(t, err)
}

func TestListSites(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /v1/sites": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-token-xyz" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error": map[string]any{"code": "unauthorized", "message": "bad token"},
				})
				return
			}
			assert.Equal(t, "Tier 1,Tier 2", r.URL.Query().Get("tiers"))
			assert.Equal(t, "plating", r.URL.Query().Get("search"))
			assert.Equal(t, "25", r.URL.Query().Get("limit"))

			score := 87
			name := "Acme Plating"
			writeJSON(w, http.StatusOK, map[string]any{
				"data": []Site{
					{SiteID: "1043", SiteName: &name, FinalScore: &score},
				},
				"total":    1,
				"has_more": false,
				"limit":    25,
				"offset":   0,
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	page, err := client.ListSites(context.Background(), &ListSitesOptions{
		Search: "plating",
		Tiers:  []string{"Tier 1", "Tier 2"},
		Limit:  25,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasMore)
	require.Len(t, page.Sites, 1)
	assert.Equal(t, "1043", page.Sites[0].SiteID)
	require.NotNil(t, page.Sites[0].FinalScore)
	assert.Equal(t, 87, *page.Sites[0].FinalScore)
}

func TestGetSiteNotFound(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /v1/sites/{site_id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"code": "not_found", "message": "site not found"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.GetSite(context.Background(), "9999")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "site not found", apiErr.Message)
}

func TestSiteQualification(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /v1/sites/{site_id}/qualifications": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1043", r.PathValue("site_id"))
			age := 40.0
			writeJSON(w, http.StatusOK, map[string]any{
				"data": Qualification{
					SiteID:       "1043",
					OverallScore: 72,
					OverallTier:  "Tier 2",
					AgeScore:     &age,
					AgeEvidence: []Evidence{
						{Text: "Operations documented since 1952"},
					},
				},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	q, err := client.SiteQualification(context.Background(), "1043")
	require.NoError(t, err)
	assert.Equal(t, 72, q.OverallScore)
	assert.Equal(t, "Tier 2", q.OverallTier)
	require.Len(t, q.AgeEvidence, 1)
	assert.Equal(t, "Operations documented since 1952", q.AgeEvidence[0].Text)
}

func TestTriggerProcess(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/process/{site_id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": ProcessStatus{Active: true, SiteID: r.PathValue("site_id"), RemainingSeconds: 600},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.TriggerProcess(context.Background(), "1043")
	require.NoError(t, err)
	assert.False(t, result.Queued)
	assert.True(t, result.Active)
	assert.Equal(t, "1043", result.SiteID)
}

func TestTriggerProcessQueued(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/process/{site_id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusAccepted, map[string]any{
				"data": ProcessStatus{Active: true, SiteID: "1043", RemainingSeconds: 590},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.TriggerProcess(context.Background(), "1043")
	require.NoError(t, err)
	assert.True(t, result.Queued)
}

func TestTriggerProcessConflict(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/process/{site_id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": map[string]any{"code": "conflict", "message": "processing 305, retry in 540s"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.TriggerProcess(context.Background(), "1043")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestHealthSkipsAuth(t *testing.T) {
	var authCalls atomic.Int32
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /auth/token": func(w http.ResponseWriter, r *http.Request) {
			authCalls.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"code": "unauthorized", "message": "invalid credentials"},
			})
		},
		"GET /health": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": HealthResponse{Status: "ok", Version: "1.2.0", Database: "ok"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	h, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, int32(0), authCalls.Load())
}

func TestTokenReuseAcrossRequests(t *testing.T) {
	var authCalls atomic.Int32
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /auth/token": func(w http.ResponseWriter, r *http.Request) {
			authCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"token":      "test-token-xyz",
					"expires_at": time.Now().Add(1 * time.Hour).Format(time.RFC3339),
				},
			})
		},
		"GET /v1/process/status": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"data": ProcessStatus{}})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	for range 3 {
		_, err := client.ProcessStatus(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), authCalls.Load())
}

func TestTokenRefreshAfterExpiry(t *testing.T) {
	var authCalls atomic.Int32
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /auth/token": func(w http.ResponseWriter, r *http.Request) {
			authCalls.Add(1)
			// Already inside the refresh margin, so every request re-authenticates.
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"token":      "test-token-xyz",
					"expires_at": time.Now().Add(10 * time.Second).Format(time.RFC3339),
				},
			})
		},
		"GET /v1/process/status": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"data": ProcessStatus{}})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	for range 2 {
		_, err := client.ProcessStatus(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), authCalls.Load())
}
