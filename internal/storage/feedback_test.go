package storage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restorical/ecosight/internal/storage"
	"github.com/restorical/ecosight/internal/testutil"
)

func TestSiteFeedback(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	doc1 := f.SeedDocument(t, "1043", "Site Hazard Assessment", "Technical Reports", "success")
	doc2 := f.SeedDocument(t, "1043", "Cleanup Action Plan", "Technical Reports", "success")

	f.Exec(t, `INSERT INTO ai_feedback
    (site_id, run_id, age_correct, age_feedback, selected_documents_shown, submitted_at)
VALUES ('1043', 'run-1', 1, 'Dates check out', ?, '2026-08-10 09:00:00')`,
		fmt.Sprintf("[%d,%d]", doc2, doc1))
	f.Exec(t, `INSERT INTO ai_feedback
    (site_id, run_id, age_correct, submitted_at)
VALUES ('1043', 'run-1', 0, '2026-08-20 09:00:00')`)

	entries, err := f.DB.SiteFeedback(ctx, "1043")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	require.NotNil(t, entries[0].SubmittedAt)
	assert.Equal(t, "2026-08-20 09:00:00", *entries[0].SubmittedAt)

	// Shown documents resolve in their stored priority order.
	older := entries[1]
	require.Len(t, older.ShownDocuments, 2)
	assert.Equal(t, doc2, older.ShownDocuments[0].ID)
	require.NotNil(t, older.ShownDocuments[0].DocumentTitle)
	assert.Equal(t, "Cleanup Action Plan", *older.ShownDocuments[0].DocumentTitle)
	assert.Equal(t, doc1, older.ShownDocuments[1].ID)
}

func TestSiteFeedbackNotFound(t *testing.T) {
	f := testutil.OpenFixture(t)

	_, err := f.DB.SiteFeedback(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFeedbackSummaries(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.SeedSite(t, "2077", "Harbor Fuel Depot", "3 Pier Way")
	f.Exec(t, `INSERT INTO ai_feedback (site_id, age_correct, submitted_at) VALUES ('1043', 1, '2026-08-01 09:00:00')`)
	f.Exec(t, `INSERT INTO ai_feedback (site_id, age_correct, submitted_at) VALUES ('1043', 0, '2026-08-02 09:00:00')`)
	f.Exec(t, `INSERT INTO ai_feedback (site_id, third_party_correct, submitted_at) VALUES ('2077', 1, '2026-08-15 09:00:00')`)

	summaries, err := f.DB.FeedbackSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Latest activity first.
	assert.Equal(t, "2077", summaries[0].SiteID)
	assert.Equal(t, "1043", summaries[1].SiteID)
	assert.Equal(t, 2, summaries[1].FeedbackCount)
	assert.Equal(t, 1, summaries[1].AgeCorrectCount)
}

func TestFeedbackCountsByFilter(t *testing.T) {
	f := testutil.OpenFixture(t)
	ctx := context.Background()

	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
	f.Exec(t, `INSERT INTO ai_feedback (site_id, submitted_at) VALUES ('1043', '2026-08-01 09:00:00')`)
	f.Exec(t, `INSERT INTO ai_feedback (site_id, submitted_at) VALUES ('1043', '2026-08-02 09:00:00')`)

	counts, err := f.DB.FeedbackCounts(ctx, storage.SiteFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, counts["1043"])
}
