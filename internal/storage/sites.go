package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/restorical/ecosight/internal/model"
)

// ListSites returns one page of site_overview rows under the filter,
// ordered by numeric site id.
func (db *DB) ListSites(ctx context.Context, f SiteFilter, limit, offset int) ([]model.SiteOverview, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return nil, fmt.Errorf("storage: list sites: %w", err)
	}
	query := fmt.Sprintf(`SELECT site_id, site_name, site_address, total_documents, total_contaminants,
       has_documents, has_contaminants, scrape_status, status_icon
FROM site_overview
%s
ORDER BY CAST(site_id AS INTEGER)
LIMIT ? OFFSET ?`, whereSQL)
	args = append(args, limit, offset)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list sites: %w", err)
	}
	defer rows.Close()

	var sites []model.SiteOverview
	for rows.Next() {
		var s model.SiteOverview
		if err := rows.Scan(&s.SiteID, &s.SiteName, &s.SiteAddress, &s.TotalDocuments, &s.TotalContaminants,
			&s.HasDocuments, &s.HasContaminants, &s.ScrapeStatus, &s.StatusIcon); err != nil {
			return nil, fmt.Errorf("storage: scan site: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list sites: %w", err)
	}
	return sites, nil
}

// CountSites returns the number of site_overview rows matching the filter.
func (db *DB) CountSites(ctx context.Context, f SiteFilter) (int, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return 0, fmt.Errorf("storage: count sites: %w", err)
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM site_overview %s", whereSQL)
	if err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count sites: %w", err)
	}
	return count, nil
}

// GetSite returns the detail row for one site: its overview record with the
// extra identity columns from the sites table.
func (db *DB) GetSite(ctx context.Context, siteID string) (model.SiteDetail, error) {
	var d model.SiteDetail
	err := db.sqlDB.QueryRowContext(ctx, `SELECT so.site_id, so.site_name, so.site_address, so.total_documents,
       so.total_contaminants, so.has_documents, so.has_contaminants, so.scrape_status, so.status_icon,
       so.regional_office, so.office_phone, so.cleanup_program_type,
       so.site_report_url, so.neighborhood_map_url, so.url, so.found_documents,
       s.county, s.historical_use_category
FROM site_overview so
LEFT JOIN sites s ON s.site_id = so.site_id
WHERE so.site_id = ?`, siteID).Scan(
		&d.SiteID, &d.SiteName, &d.SiteAddress, &d.TotalDocuments,
		&d.TotalContaminants, &d.HasDocuments, &d.HasContaminants, &d.ScrapeStatus, &d.StatusIcon,
		&d.RegionalOffice, &d.OfficePhone, &d.CleanupProgramType,
		&d.SiteReportURL, &d.NeighborhoodMapURL, &d.URL, &d.FoundDocuments,
		&d.County, &d.HistoricalUseCategory,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SiteDetail{}, ErrNotFound
		}
		return model.SiteDetail{}, fmt.Errorf("storage: get site %s: %w", siteID, err)
	}
	return d, nil
}

// SiteOptions returns compact (id, name, address) tuples for pickers,
// ordered by numeric site id.
func (db *DB) SiteOptions(ctx context.Context, limit int) ([]model.SiteOption, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT s.site_id,
       COALESCE(ss.site_name,'') AS site_name,
       COALESCE(ss.site_address,'') AS site_address
FROM sites s
LEFT JOIN site_summary ss ON s.site_id = ss.site_id
ORDER BY CAST(s.site_id AS INTEGER)
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: site options: %w", err)
	}
	defer rows.Close()

	var opts []model.SiteOption
	for rows.Next() {
		var o model.SiteOption
		if err := rows.Scan(&o.SiteID, &o.SiteName, &o.SiteAddress); err != nil {
			return nil, fmt.Errorf("storage: scan site option: %w", err)
		}
		opts = append(opts, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: site options: %w", err)
	}
	return opts, nil
}

// SummaryBounds returns the observed min/max of the site_summary columns
// backing the numeric range filters.
func (db *DB) SummaryBounds(ctx context.Context) (model.SummaryBounds, error) {
	var b model.SummaryBounds
	err := db.sqlDB.QueryRowContext(ctx, `SELECT
  COALESCE(MIN(COALESCE(total_narrative_sections,0)), 0), COALESCE(MAX(COALESCE(total_narrative_sections,0)), 0),
  COALESCE(MIN(COALESCE(total_documents,0)), 0), COALESCE(MAX(COALESCE(total_documents,0)), 0),
  COALESCE(MIN(COALESCE(document_date_range_years,0)), 0), COALESCE(MAX(COALESCE(document_date_range_years,0)), 0)
FROM site_summary`).Scan(
		&b.NarrativeMin, &b.NarrativeMax,
		&b.DocumentsMin, &b.DocumentsMax,
		&b.YearSpanMin, &b.YearSpanMax,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SummaryBounds{}, nil
		}
		return model.SummaryBounds{}, fmt.Errorf("storage: summary bounds: %w", err)
	}
	return b, nil
}

// DashboardMetrics returns the headline counts under the filter.
func (db *DB) DashboardMetrics(ctx context.Context, f SiteFilter) (model.DashboardMetrics, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return model.DashboardMetrics{}, fmt.Errorf("storage: dashboard metrics: %w", err)
	}
	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT
  (SELECT COUNT(*) FROM filtered_sites) AS total_sites,
  (SELECT COUNT(*) FROM filtered_sites fs JOIN site_summary ss USING(site_id) WHERE COALESCE(ss.has_narrative_content,0)=1) AS sites_with_narratives,
  (SELECT COUNT(*) FROM filtered_sites fs JOIN site_summary ss USING(site_id) WHERE COALESCE(ss.has_documents,0)=1) AS sites_with_documents,
  (SELECT COUNT(*) FROM site_qualification_results WHERE COALESCE(qualified,0)=1 AND site_id IN (SELECT site_id FROM filtered_sites)) AS qualified_sites`, whereSQL)

	var m model.DashboardMetrics
	if err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(
		&m.TotalSites, &m.SitesWithNarratives, &m.SitesWithDocuments, &m.QualifiedSites,
	); err != nil {
		return model.DashboardMetrics{}, fmt.Errorf("storage: dashboard metrics: %w", err)
	}
	return m, nil
}

// DocumentSummary aggregates site_documents for the filtered sites.
func (db *DB) DocumentSummary(ctx context.Context, f SiteFilter) (model.DocumentSummary, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return model.DocumentSummary{}, fmt.Errorf("storage: document summary: %w", err)
	}
	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN download_status='success' THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN flagged_for_analysis THEN 1 ELSE 0 END), 0)
FROM site_documents
WHERE site_id IN (SELECT site_id FROM filtered_sites)`, whereSQL)

	var s model.DocumentSummary
	if err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(&s.Documents, &s.Downloaded, &s.Flagged); err != nil {
		return model.DocumentSummary{}, fmt.Errorf("storage: document summary: %w", err)
	}
	return s, nil
}

// TopContaminants returns the most frequent contaminant types among the
// filtered sites.
func (db *DB) TopContaminants(ctx context.Context, f SiteFilter, limit int) ([]model.ContaminantCount, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return nil, fmt.Errorf("storage: top contaminants: %w", err)
	}
	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT contaminant_type, COUNT(*) AS n
FROM site_contaminants
WHERE site_id IN (SELECT site_id FROM filtered_sites)
GROUP BY contaminant_type
ORDER BY n DESC
LIMIT ?`, whereSQL)
	args = append(args, limit)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: top contaminants: %w", err)
	}
	defer rows.Close()

	var counts []model.ContaminantCount
	for rows.Next() {
		var c model.ContaminantCount
		if err := rows.Scan(&c.ContaminantType, &c.Count); err != nil {
			return nil, fmt.Errorf("storage: scan contaminant count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: top contaminants: %w", err)
	}
	return counts, nil
}

// TierBreakdown counts qualification results per tier for the filtered
// sites. NULL tiers report as UNSPECIFIED.
func (db *DB) TierBreakdown(ctx context.Context, f SiteFilter) ([]model.TierCount, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return nil, fmt.Errorf("storage: tier breakdown: %w", err)
	}
	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT COALESCE(qualification_tier, 'UNSPECIFIED') AS tier, COUNT(*) AS n
FROM site_qualification_results
WHERE site_id IN (SELECT site_id FROM filtered_sites)
GROUP BY COALESCE(qualification_tier, 'UNSPECIFIED')
ORDER BY n DESC`, whereSQL)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: tier breakdown: %w", err)
	}
	defer rows.Close()

	var counts []model.TierCount
	for rows.Next() {
		var t model.TierCount
		if err := rows.Scan(&t.Tier, &t.Count); err != nil {
			return nil, fmt.Errorf("storage: scan tier count: %w", err)
		}
		counts = append(counts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: tier breakdown: %w", err)
	}
	return counts, nil
}

// HistoricalUseCategories returns the distinct non-empty categories from the
// sites table.
func (db *DB) HistoricalUseCategories(ctx context.Context) ([]string, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT DISTINCT historical_use_category
FROM sites
WHERE historical_use_category IS NOT NULL AND TRIM(historical_use_category) != ''
ORDER BY historical_use_category`)
	if err != nil {
		return nil, fmt.Errorf("storage: historical use categories: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows, "historical use category")
}

// HistoricalUseBySite returns the category per site for the filtered sites.
func (db *DB) HistoricalUseBySite(ctx context.Context, f SiteFilter) (map[string]*string, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return nil, fmt.Errorf("storage: historical use by site: %w", err)
	}
	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT s.site_id, s.historical_use_category
FROM sites s
WHERE s.site_id IN (SELECT site_id FROM filtered_sites)`, whereSQL)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: historical use by site: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*string)
	for rows.Next() {
		var siteID string
		var category *string
		if err := rows.Scan(&siteID, &category); err != nil {
			return nil, fmt.Errorf("storage: scan historical use: %w", err)
		}
		out[siteID] = category
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: historical use by site: %w", err)
	}
	return out, nil
}

func scanStrings(rows *sql.Rows, what string) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("storage: scan %s: %w", what, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", what, err)
	}
	return out, nil
}
