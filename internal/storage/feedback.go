package storage

import (
	"context"
	"fmt"

	"github.com/restorical/ecosight/internal/model"
)

// FeedbackSummaries aggregates feedback per site, newest activity first.
func (db *DB) FeedbackSummaries(ctx context.Context) ([]model.FeedbackSummary, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT
    af.site_id,
    so.site_name,
    so.site_address,
    COUNT(*) AS feedback_count,
    MAX(af.submitted_at) AS latest_feedback,
    SUM(CASE WHEN af.age_correct = 1 THEN 1 ELSE 0 END),
    SUM(CASE WHEN af.third_party_correct = 1 THEN 1 ELSE 0 END),
    SUM(CASE WHEN af.document_selection_correct = 1 THEN 1 ELSE 0 END)
FROM ai_feedback af
LEFT JOIN site_overview so ON af.site_id = so.site_id
GROUP BY af.site_id, so.site_name, so.site_address
ORDER BY latest_feedback DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: feedback summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.FeedbackSummary
	for rows.Next() {
		var s model.FeedbackSummary
		if err := rows.Scan(&s.SiteID, &s.SiteName, &s.SiteAddress, &s.FeedbackCount, &s.LatestFeedback,
			&s.AgeCorrectCount, &s.ThirdPartyCorrectCount, &s.DocumentCorrectCount); err != nil {
			return nil, fmt.Errorf("storage: scan feedback summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: feedback summaries: %w", err)
	}
	return summaries, nil
}

const feedbackColumns = `af.id, af.site_id, af.run_id, so.site_name, so.site_address,
    af.age_correct, af.age_feedback,
    af.third_party_correct, af.third_party_feedback,
    af.document_selection_correct, af.document_selection_feedback,
    af.selected_documents_shown, af.overall_notes, af.submitted_at`

func scanFeedback(rows interface {
	Scan(dest ...any) error
}) (model.FeedbackEntry, error) {
	var e model.FeedbackEntry
	err := rows.Scan(&e.ID, &e.SiteID, &e.RunID, &e.SiteName, &e.SiteAddress,
		&e.AgeCorrect, &e.AgeFeedback,
		&e.ThirdPartyCorrect, &e.ThirdPartyFeedback,
		&e.DocumentSelectionCorrect, &e.DocumentSelectionFeedback,
		&e.SelectedDocumentsShown, &e.OverallNotes, &e.SubmittedAt)
	if err != nil {
		return model.FeedbackEntry{}, fmt.Errorf("storage: scan feedback entry: %w", err)
	}
	return e, nil
}

// SiteFeedback returns every feedback entry for one site, newest first,
// with the shown-document priority list resolved to document links.
func (db *DB) SiteFeedback(ctx context.Context, siteID string) ([]model.FeedbackEntry, error) {
	query := fmt.Sprintf(`SELECT %s
FROM ai_feedback af
LEFT JOIN site_overview so ON af.site_id = so.site_id
WHERE af.site_id = ?
ORDER BY af.submitted_at DESC`, feedbackColumns)

	rows, err := db.sqlDB.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("storage: site feedback %s: %w", siteID, err)
	}
	defer rows.Close()

	var entries []model.FeedbackEntry
	for rows.Next() {
		e, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: site feedback %s: %w", siteID, err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	for i := range entries {
		ids := entries[i].ShownDocumentIDs()
		if len(ids) == 0 {
			continue
		}
		links, err := db.DocumentsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[int64]model.DocumentLink, len(links))
		for _, l := range links {
			byID[l.ID] = l
		}
		ordered := make([]model.DocumentLink, 0, len(ids))
		for _, id := range ids {
			if l, ok := byID[id]; ok {
				ordered = append(ordered, l)
			} else {
				ordered = append(ordered, model.DocumentLink{ID: id})
			}
		}
		entries[i].ShownDocuments = ordered
	}
	return entries, nil
}

// AllFeedback returns every feedback entry ordered by site then recency,
// for export.
func (db *DB) AllFeedback(ctx context.Context) ([]model.FeedbackEntry, error) {
	query := fmt.Sprintf(`SELECT %s
FROM ai_feedback af
LEFT JOIN site_overview so ON af.site_id = so.site_id
ORDER BY af.site_id, af.submitted_at DESC`, feedbackColumns)

	rows, err := db.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: all feedback: %w", err)
	}
	defer rows.Close()

	var entries []model.FeedbackEntry
	for rows.Next() {
		e, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: all feedback: %w", err)
	}
	return entries, nil
}
