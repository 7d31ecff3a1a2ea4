package storage

import (
	"context"
	"fmt"

	"github.com/restorical/ecosight/internal/model"
)

// TribalSites returns sites excluded for tribal relation, optionally
// narrowed by a free-text search over id, name, and address.
func (db *DB) TribalSites(ctx context.Context, search string, limit int) ([]model.FilteredSite, error) {
	query := `SELECT DISTINCT s.site_id, s.site_name, s.site_address
FROM site_overview s
WHERE s.site_id IN (
  SELECT site_id FROM site_qualification_results WHERE COALESCE(tribal_site,0)=1
)`
	var args []any
	if search != "" {
		query += `
AND (s.site_id LIKE ? OR COALESCE(s.site_name,'') LIKE ? OR COALESCE(s.site_address,'') LIKE ?)`
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	query += `
ORDER BY CAST(s.site_id AS INTEGER)
LIMIT ?`
	args = append(args, limit)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: tribal sites: %w", err)
	}
	defer rows.Close()

	var sites []model.FilteredSite
	for rows.Next() {
		var s model.FilteredSite
		if err := rows.Scan(&s.SiteID, &s.SiteName, &s.SiteAddress); err != nil {
			return nil, fmt.Errorf("storage: scan tribal site: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: tribal sites: %w", err)
	}
	return sites, nil
}

// DoNotContactSites returns sites matching an active do-not-contact record
// by normalized name or address.
func (db *DB) DoNotContactSites(ctx context.Context, search string, limit int) ([]model.FilteredSite, error) {
	query := `SELECT DISTINCT s.site_id, s.site_name, s.site_address, d.organization_name AS matched_org
FROM site_overview s
JOIN "Do_Not_Contact_Sites" d
  ON UPPER(TRIM(COALESCE(s.site_name,''))) = UPPER(TRIM(COALESCE(d.organization_name,'')))
  OR UPPER(TRIM(COALESCE(s.site_address,''))) = UPPER(TRIM(COALESCE(d.site_address,'')))
WHERE COALESCE(d.active,1)=1`
	var args []any
	if search != "" {
		query += `
AND (s.site_id LIKE ? OR COALESCE(s.site_name,'') LIKE ? OR COALESCE(s.site_address,'') LIKE ? OR COALESCE(d.organization_name,'') LIKE ?)`
		like := "%" + search + "%"
		args = append(args, like, like, like, like)
	}
	query += `
ORDER BY CAST(s.site_id AS INTEGER)
LIMIT ?`
	args = append(args, limit)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: do-not-contact sites: %w", err)
	}
	defer rows.Close()

	var sites []model.FilteredSite
	for rows.Next() {
		var s model.FilteredSite
		if err := rows.Scan(&s.SiteID, &s.SiteName, &s.SiteAddress, &s.MatchedOrg); err != nil {
			return nil, fmt.Errorf("storage: scan do-not-contact site: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: do-not-contact sites: %w", err)
	}
	return sites, nil
}
