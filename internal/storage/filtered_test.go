package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restorical/ecosight/internal/storage"
	"github.com/restorical/ecosight/internal/testutil"
)

func TestTribalSites(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")
	f.Exec(t, `INSERT INTO site_qualification_results (site_id, tribal_site, analyzed_at)
VALUES ('2077', 1, '2026-08-01 10:00:00')`)

	sites, err := f.DB.TribalSites(ctx, "", 100)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "2077", sites[0].SiteID)

	sites, err = f.DB.TribalSites(ctx, "acme", 100)
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestDoNotContactSites(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")
	// Name match is case-insensitive after trimming.
	f.Exec(t, `INSERT INTO "Do_Not_Contact_Sites" (organization_name, site_address, active)
VALUES ('  ACME PLATING ', NULL, 1)`)
	// Inactive records never match.
	f.Exec(t, `INSERT INTO "Do_Not_Contact_Sites" (organization_name, site_address, active)
VALUES ('Harbor Fuel Depot', NULL, 0)`)

	sites, err := f.DB.DoNotContactSites(ctx, "", 100)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "1043", sites[0].SiteID)
	require.NotNil(t, sites[0].MatchedOrg)

	// Address match works when the name differs.
	f.Exec(t, `INSERT INTO "Do_Not_Contact_Sites" (organization_name, site_address, active)
VALUES ('Different Org', '3 pier way', 1)`)
	sites, err = f.DB.DoNotContactSites(ctx, "", 100)
	require.NoError(t, err)
	assert.Len(t, sites, 2)
}

func TestListBatches(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.Exec(t, `INSERT INTO batch_runs (batch_name, batch_description, started_at, total_sites, successful_sites, site_ids)
VALUES ('august-sweep', 'August county sweep', '2026-08-01 08:00:00', 2, 2, '["1043","2077"]')`)

	batches, err := f.DB.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "august-sweep", batches[0].BatchName)
}

func TestBatchFilterOnSites(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")
	f.SeedSite(t, "3001", "Valley Dry Cleaners", "77 Main St")
	f.Exec(t, `INSERT INTO batch_runs (batch_name, started_at, total_sites, successful_sites, site_ids)
VALUES ('august-sweep', '2026-08-01 08:00:00', 2, 2, '["1043","2077"]')`)

	sites, err := f.DB.ListSites(ctx, storage.SiteFilter{BatchNames: []string{"august-sweep"}}, 100, 0)
	require.NoError(t, err)
	assert.Len(t, sites, 2)
}
