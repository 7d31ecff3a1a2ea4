package processing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTrigger(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit", 2*time.Second)
	err := c.Trigger(context.Background(), "CS-1043")
	require.NoError(t, err)
	assert.Equal(t, "/api/process/CS-1043", gotPath)
	assert.Equal(t, "sekrit", gotToken)
}

func TestClientTriggerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", 2*time.Second)
	err := c.Trigger(context.Background(), "CS-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClientTriggerTimeoutIsQueued(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, "t", 50*time.Millisecond)
	err := c.Trigger(context.Background(), "CS-2")
	require.ErrorIs(t, err, ErrQueued)
}

func TestGateAcquireRelease(t *testing.T) {
	g := NewGate(10 * time.Minute)

	ok, st := g.Acquire("CS-1")
	require.True(t, ok)
	assert.Equal(t, "CS-1", st.SiteID)

	ok, st = g.Acquire("CS-2")
	assert.False(t, ok)
	assert.Equal(t, "CS-1", st.SiteID)
	assert.Greater(t, st.Remaining, time.Duration(0))

	g.Release("CS-1")
	ok, _ = g.Acquire("CS-2")
	assert.True(t, ok)
}

func TestGateReleaseWrongSiteKeepsHold(t *testing.T) {
	g := NewGate(10 * time.Minute)
	g.Acquire("CS-1")
	g.Release("CS-9")

	ok, _ := g.Acquire("CS-2")
	assert.False(t, ok)
}

func TestGateCooldownExpiry(t *testing.T) {
	g := NewGate(10 * time.Minute)
	current := time.Unix(1_700_000_000, 0)
	g.now = func() time.Time { return current }

	ok, _ := g.Acquire("CS-1")
	require.True(t, ok)

	current = current.Add(5 * time.Minute)
	ok, _ = g.Acquire("CS-2")
	assert.False(t, ok)
	assert.Equal(t, "CS-1", g.Status().SiteID)

	current = current.Add(6 * time.Minute)
	assert.False(t, g.Status().Active)
	ok, _ = g.Acquire("CS-2")
	assert.True(t, ok)
}
