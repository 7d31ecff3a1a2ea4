package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restorical/ecosight/internal/testutil"
)

func TestSiteNarratives(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.Exec(t, `INSERT INTO site_narratives (site_id, section_order, section_title, section_content)
VALUES ('1043', 2, 'Cleanup Status', 'Interim action completed in 2019.')`)
	f.Exec(t, `INSERT INTO site_narratives (site_id, section_order, section_title, section_content)
VALUES ('1043', 1, 'Site History', 'Plating operations from 1952 to 1991.')`)

	sections, err := f.DB.SiteNarratives(ctx, "1043")
	require.NoError(t, err)
	require.Len(t, sections, 2)

	// Reading order, not insertion order.
	require.NotNil(t, sections[0].SectionTitle)
	assert.Equal(t, "Site History", *sections[0].SectionTitle)
	assert.Equal(t, "Cleanup Status", *sections[1].SectionTitle)

	ids, err := f.DB.NarrativeSiteIDs(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"1043"}, ids)
}

func TestSiteOwnership(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.Exec(t, `INSERT INTO site_ownership_history (site_id, ownership_start_year, owner_name, is_current)
VALUES ('1043', 1991, 'Acme Holdings Inc', 1)`)
	f.Exec(t, `INSERT INTO site_ownership_history (site_id, ownership_start_year, ownership_end_year, owner_name, is_current)
VALUES ('1043', 1952, 1991, 'Mill Road Plating Co', 0)`)
	// Unknown start year sorts last.
	f.Exec(t, `INSERT INTO site_ownership_history (site_id, owner_name, is_current)
VALUES ('1043', 'Unknown Estate', 0)`)

	records, err := f.DB.SiteOwnership(ctx, "1043")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.NotNil(t, records[0].OwnerName)
	assert.Equal(t, "Mill Road Plating Co", *records[0].OwnerName)
	assert.Equal(t, "Acme Holdings Inc", *records[1].OwnerName)
	assert.Equal(t, "Unknown Estate", *records[2].OwnerName)
}

func TestMediaStatuses(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.Exec(t, `INSERT INTO site_contaminants (site_id, contaminant_type, groundwater_status, sediment_status)
VALUES ('1043', 'TCE', 'C', 'S')`)

	statuses, err := f.DB.MediaStatuses(ctx, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C", "S"}, statuses)

	statuses, err = f.DB.MediaStatuses(ctx, []string{"Groundwater"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, statuses)

	contaminants, err := f.DB.ListContaminants(ctx, "1043", 100, 0)
	require.NoError(t, err)
	require.Len(t, contaminants, 1)
	require.NotNil(t, contaminants[0].GroundwaterStatus)
	assert.Equal(t, "C", *contaminants[0].GroundwaterStatus)

	n, err := f.DB.CountContaminants(ctx, "1043")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.DB.MediaStatuses(ctx, []string{"Lava"})
	assert.Error(t, err)
}
