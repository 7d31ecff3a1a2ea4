package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restorical/ecosight/internal/storage"
	"github.com/restorical/ecosight/internal/testutil"
)

func TestGetQualificationDetail(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedRun(t, "run-1", "1043", "2025-01-10 09:00:00", "qualified", fptr(30))
	f.SeedModuleResult(t, "run-1", "Score Calculation Module",
		`{"data":{"final_score":72,"age_score":40,"third_party_score":32}}`)
	f.SeedDocument(t, "1043", "Site Hazard Assessment", "Technical Reports", "success")
	f.Exec(t, `INSERT INTO site_qualification_results
    (site_id, qualified, qualification_tier, final_calculated_score, age_evidence, third_party_evidence, age_qualified, third_party_qualified, analyzed_at)
VALUES ('1043', 1, 'Tier 1', 87,
    '[{"evidence_text":"Operations documented since 1952","source_document":"Site Hazard Assessment"}]',
    '[{"evidence_text":"Neighboring parcel affected"}]',
    1, 1, '2026-08-01 10:00:00')`)

	d, err := f.DB.GetQualificationDetail(ctx, "1043")
	require.NoError(t, err)

	assert.Equal(t, "1043", d.SiteID)
	require.NotNil(t, d.Qualified)
	assert.True(t, *d.Qualified)
	assert.Equal(t, 72, d.OverallScore)
	require.NotNil(t, d.AgeScore)
	assert.Equal(t, 40.0, *d.AgeScore)
	require.NotNil(t, d.Run)
	assert.Equal(t, "run-1", d.Run.RunID)

	// Evidence items are normalized and linked to the matching document URL.
	require.Len(t, d.AgeEvidence, 1)
	assert.Equal(t, "Operations documented since 1952", d.AgeEvidence[0].Text)
	require.NotNil(t, d.AgeEvidence[0].SourceURL)
	require.Len(t, d.ThirdPartyEvidence, 1)
	assert.Nil(t, d.ThirdPartyEvidence[0].SourceURL)
}

func TestGetQualificationDetailNeverAnalyzed(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")

	_, err := f.DB.GetQualificationDetail(ctx, "1043")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetQualificationDetailRunOnly(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")
	f.SeedRun(t, "run-2", "2077", "2025-03-05 14:00:00", "not_qualified", fptr(18))

	d, err := f.DB.GetQualificationDetail(ctx, "2077")
	require.NoError(t, err)
	assert.Equal(t, 18, d.OverallScore)
	assert.Nil(t, d.Qualified)
	assert.Empty(t, d.AgeEvidence)
}

func TestGetQualificationDetailDisqualifyingFactors(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "3001", "Valley Dry Cleaners", "77 Main St")
	f.Exec(t, `INSERT INTO site_qualification_results
    (site_id, qualified, qualification_tier, final_calculated_score, disqualifying_factors, analyzed_at)
VALUES ('3001', 0, 'Tier 3', 10,
    '[{"category":"cleanup","reason":"MINIMAL_CLEANUP","description":"Only surface soil removed"}]',
    '2026-08-01 10:00:00')`)

	d, err := f.DB.GetQualificationDetail(ctx, "3001")
	require.NoError(t, err)
	require.Len(t, d.DisqualifyingFactors, 1)
	assert.Equal(t, "MINIMAL_CLEANUP", d.DisqualifyingFactors[0].Reason)
	assert.True(t, d.MinimalCleanup)
}

func TestAgeCheck(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")

	// No run yet.
	check, err := f.DB.AgeCheck(ctx, "1043")
	require.NoError(t, err)
	assert.Nil(t, check)

	f.SeedRun(t, "run-1", "1043", "2025-01-10 09:00:00", "qualified", fptr(30))
	f.SeedModuleResult(t, "run-1", "Age Qualification Module", `{"data":{"score":50,"age_confidence":90}}`)

	check, err = f.DB.AgeCheck(ctx, "1043")
	require.NoError(t, err)
	require.NotNil(t, check)
	assert.True(t, check.Passed)
	assert.Equal(t, 50, check.Score)
	assert.Equal(t, 90, check.Confidence)
}

func TestAgeCheckFailsBelowThreshold(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")
	f.SeedRun(t, "run-2", "2077", "2025-03-05 14:00:00", "qualified", fptr(30))
	f.SeedModuleResult(t, "run-2", "Age Qualification Module", `{"data":{"score":0,"age_confidence":20}}`)

	check, err := f.DB.AgeCheck(ctx, "2077")
	require.NoError(t, err)
	require.NotNil(t, check)
	assert.False(t, check.Passed)
}

func TestListQualificationsAndTierCounts(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")
	f.SeedQualification(t, "1043", true, "Tier 1", 87, "2026-08-01 10:00:00")
	f.SeedQualification(t, "2077", false, "Tier 3", 12, "2026-08-02 10:00:00")

	results, err := f.DB.ListQualifications(ctx, storage.QualificationFilter{}, 100, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = f.DB.ListQualifications(ctx, storage.QualificationFilter{Tiers: []string{"Tier 1"}}, 100, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1043", results[0].SiteID)

	counts, err := f.DB.QualificationTierCounts(ctx, storage.QualificationFilter{})
	require.NoError(t, err)
	byTier := map[string]int{}
	for _, c := range counts {
		byTier[c.Tier] = c.Count
	}
	assert.Equal(t, 1, byTier["Tier 1"])
	assert.Equal(t, 1, byTier["Tier 3"])

	tiers, err := f.DB.QualificationTiers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Tier 1", "Tier 3"}, tiers)
}
