package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restorical/ecosight/internal/storage"
	"github.com/restorical/ecosight/internal/testutil"
)

func fptr(v float64) *float64 { return &v }

func TestResolveScoresQualificationWins(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedRun(t, "run-1", "1043", "2025-01-10 09:00:00", "completed", fptr(30))
	f.SeedQualification(t, "1043", true, "Tier 1", 87, "2026-08-01 10:00:00")
	// An older analysis that must lose to the latest one.
	f.SeedQualification(t, "1043", false, "Tier 3", 12, "2025-06-01 10:00:00")

	scores, err := f.DB.ResolveScores(ctx, storage.SiteFilter{})
	require.NoError(t, err)

	s, ok := scores["1043"]
	require.True(t, ok)
	require.NotNil(t, s.Score)
	assert.Equal(t, 87, *s.Score)
	require.NotNil(t, s.LastProcessed)
	assert.Equal(t, "2026-08-01 10:00:00", *s.LastProcessed)
}

func TestResolveScoresLegacyModuleResult(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")
	f.SeedRun(t, "run-2", "2077", "2025-03-05 14:00:00", "completed", fptr(10))
	f.SeedModuleResult(t, "run-2", "Score Calculation Module", `{"data":{"final_score":42}}`)

	scores, err := f.DB.ResolveScores(ctx, storage.SiteFilter{})
	require.NoError(t, err)

	s := scores["2077"]
	require.NotNil(t, s.Score)
	assert.Equal(t, 42, *s.Score, "module final_score beats the run column")
}

func TestResolveScoresRunColumnFallback(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "3001", "Valley Dry Cleaners", "77 Main St")
	f.SeedRun(t, "run-3", "3001", "2025-03-05 14:00:00", "completed", fptr(10))

	scores, err := f.DB.ResolveScores(ctx, storage.SiteFilter{})
	require.NoError(t, err)

	s := scores["3001"]
	require.NotNil(t, s.Score)
	assert.Equal(t, 10, *s.Score)
}

func TestResolveScoresMalformedModuleJSON(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "3002", "Old Mill Works", "1 River Rd")
	f.SeedRun(t, "run-4", "3002", "2025-03-05 14:00:00", "completed", fptr(7))
	f.SeedModuleResult(t, "run-4", "Score Calculation Module", `{not json`)

	scores, err := f.DB.ResolveScores(ctx, storage.SiteFilter{})
	require.NoError(t, err)

	s := scores["3002"]
	require.NotNil(t, s.Score)
	assert.Equal(t, 7, *s.Score, "malformed JSON falls through to the run score")
}

func TestResolveScoresDefaultZero(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "3003", "Empty Run Site", "9 Side St")
	f.SeedRun(t, "run-5", "3003", "2025-03-05 14:00:00", "completed", nil)

	scores, err := f.DB.ResolveScores(ctx, storage.SiteFilter{})
	require.NoError(t, err)

	s := scores["3003"]
	require.NotNil(t, s.Score)
	assert.Equal(t, 0, *s.Score)
}

func TestResolveScoresUnprocessedSiteAbsent(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "3004", "Never Processed", "2 End Ln")

	scores, err := f.DB.ResolveScores(ctx, storage.SiteFilter{})
	require.NoError(t, err)
	_, ok := scores["3004"]
	assert.False(t, ok)
}

func TestSiteFinalScore(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")

	score, err := f.DB.SiteFinalScore(ctx, "1043")
	require.NoError(t, err)
	assert.Nil(t, score, "no completed run means no score")

	f.SeedRun(t, "run-1", "1043", "2025-01-10 09:00:00", "completed", fptr(55))
	score, err = f.DB.SiteFinalScore(ctx, "1043")
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, 55, *score)
}

func TestResolveTiers(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedQualification(t, "1043", true, "Tier 2", 64, "2026-08-01 10:00:00")
	f.SeedQualification(t, "1043", true, "Tier 3", 40, "2025-01-01 10:00:00")

	tiers, err := f.DB.ResolveTiers(ctx, storage.SiteFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Tier 2", tiers["1043"], "latest analysis wins")
}
