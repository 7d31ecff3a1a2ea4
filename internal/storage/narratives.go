package storage

import (
	"context"
	"fmt"

	"github.com/restorical/ecosight/internal/model"
)

// NarrativeSiteIDs returns the distinct site ids that have narrative
// sections, ordered numerically.
func (db *DB) NarrativeSiteIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := db.sqlDB.QueryContext(ctx,
		"SELECT DISTINCT site_id FROM site_narratives ORDER BY CAST(site_id AS INTEGER) LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("storage: narrative site ids: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows, "narrative site id")
}

// SiteNarratives returns a site's narrative sections in reading order.
func (db *DB) SiteNarratives(ctx context.Context, siteID string) ([]model.NarrativeSection, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT section_order, section_title, section_content, scraped_at
FROM site_narratives
WHERE site_id = ?
ORDER BY section_order, scraped_at`, siteID)
	if err != nil {
		return nil, fmt.Errorf("storage: site narratives %s: %w", siteID, err)
	}
	defer rows.Close()

	var sections []model.NarrativeSection
	for rows.Next() {
		s := model.NarrativeSection{SiteID: siteID}
		if err := rows.Scan(&s.SectionOrder, &s.SectionTitle, &s.SectionContent, &s.ScrapedAt); err != nil {
			return nil, fmt.Errorf("storage: scan narrative section: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: site narratives %s: %w", siteID, err)
	}
	return sections, nil
}
