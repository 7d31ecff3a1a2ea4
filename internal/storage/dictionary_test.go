package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restorical/ecosight/internal/storage"
	"github.com/restorical/ecosight/internal/testutil"
)

func TestListRelations(t *testing.T) {
	f := testutil.OpenFixture(t)

	relations, err := f.DB.ListRelations(context.Background())
	require.NoError(t, err)

	byName := map[string]string{}
	for _, r := range relations {
		byName[r.Name] = r.Type
	}
	assert.Equal(t, "table", byName["sites"])
	assert.Equal(t, "view", byName["site_overview"])

	// Views sort before tables.
	assert.Equal(t, "view", relations[0].Type)
}

func TestDescribeRelation(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")

	d, err := f.DB.DescribeRelation(ctx, "sites", 1)
	require.NoError(t, err)
	assert.Equal(t, "sites", d.Name)
	assert.Equal(t, "table", d.Type)
	assert.Equal(t, int64(2), d.RowCount)
	require.Len(t, d.Sample, 1)
	assert.Equal(t, "1043", d.Sample[0]["site_id"])

	cols := map[string]bool{}
	for _, c := range d.Columns {
		cols[c.Name] = true
	}
	assert.True(t, cols["site_id"])
	assert.True(t, cols["scrape_status"])
}

func TestDescribeRelationNotFound(t *testing.T) {
	f := testutil.OpenFixture(t)

	_, err := f.DB.DescribeRelation(context.Background(), "no_such_table", 10)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHasRelation(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	ok, err := f.DB.HasRelation(ctx, "site_overview")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.DB.HasRelation(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
