package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/restorical/ecosight/internal/model"
)

// CustomerFilter declares the customer-surface filters. SitesPerCustomer
// always applies; its zero value is widened to the observed bounds by the
// caller.
type CustomerFilter struct {
	SitesPerCustomer IntRange
	Customers        []string
	HistoricalUse    []string
}

// The customer surface joins overview identity with the box case match and
// the most recently created opportunity per site.
const customerJoins = `FROM site_overview so
LEFT JOIN sites s ON so.site_id = s.site_id
LEFT JOIN site_summary ss ON so.site_id = ss.site_id
LEFT JOIN box_case_matches bcm ON so.site_id = bcm.site_id
LEFT JOIN (
    SELECT site_id, sfdc_opportunity_name, stage, created_date, close_date
    FROM site_opportunities
    WHERE (site_id, created_date) IN (
        SELECT site_id, MAX(created_date)
        FROM site_opportunities
        GROUP BY site_id
    )
) sfo ON so.site_id = sfo.site_id`

func (f CustomerFilter) buildWhere() (string, []any) {
	where := []string{`bcm.box_case_name IN (
    SELECT box_case_name
    FROM box_case_matches
    WHERE box_case_name IS NOT NULL AND TRIM(box_case_name) != ''
    GROUP BY box_case_name
    HAVING COUNT(*) BETWEEN ? AND ?
)`}
	args := []any{f.SitesPerCustomer.Min, f.SitesPerCustomer.Max}

	if len(f.Customers) > 0 {
		where = append(where, fmt.Sprintf("bcm.box_case_name IN (%s)", placeholders(len(f.Customers))))
		for _, c := range f.Customers {
			args = append(args, c)
		}
	}
	if len(f.HistoricalUse) > 0 {
		where = append(where, fmt.Sprintf(`so.site_id IN (
    SELECT site_id
    FROM sites
    WHERE historical_use_category IN (%s)
)`, placeholders(len(f.HistoricalUse))))
		for _, h := range f.HistoricalUse {
			args = append(args, h)
		}
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

// SitesPerCustomerBounds returns the observed min/max site counts per box
// case.
func (db *DB) SitesPerCustomerBounds(ctx context.Context) (model.SitesPerCustomerBounds, error) {
	var b model.SitesPerCustomerBounds
	err := db.sqlDB.QueryRowContext(ctx, `SELECT
    COALESCE(MIN(site_count), 1), COALESCE(MAX(site_count), 1)
FROM (
    SELECT box_case_name, COUNT(*) AS site_count
    FROM box_case_matches
    WHERE box_case_name IS NOT NULL AND TRIM(box_case_name) != ''
    GROUP BY box_case_name
)`).Scan(&b.Min, &b.Max)
	if err != nil {
		return model.SitesPerCustomerBounds{}, fmt.Errorf("storage: sites per customer bounds: %w", err)
	}
	return b, nil
}

// ListCustomers returns the box case names whose site count falls in the
// range, with their counts.
func (db *DB) ListCustomers(ctx context.Context, sitesPerCustomer IntRange) ([]model.Customer, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT box_case_name, COUNT(*) AS site_count
FROM box_case_matches
WHERE box_case_name IS NOT NULL AND TRIM(box_case_name) != ''
GROUP BY box_case_name
HAVING COUNT(*) BETWEEN ? AND ?
ORDER BY box_case_name`, sitesPerCustomer.Min, sitesPerCustomer.Max)
	if err != nil {
		return nil, fmt.Errorf("storage: list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.Name, &c.SiteCount); err != nil {
			return nil, fmt.Errorf("storage: scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list customers: %w", err)
	}
	return customers, nil
}

// ListCustomerSites returns one page of customer site rows, newest site id
// first.
func (db *DB) ListCustomerSites(ctx context.Context, f CustomerFilter, limit, offset int) ([]model.CustomerSite, error) {
	whereSQL, args := f.buildWhere()
	query := fmt.Sprintf(`SELECT so.site_id, s.county, so.site_name, so.site_address, s.sfdc_lead_url, ss.site_status,
       sfo.sfdc_opportunity_name, sfo.stage, sfo.created_date, sfo.close_date,
       bcm.box_case_name, bcm.matched_via_contact, bcm.matched_via_org
%s
%s
ORDER BY CAST(so.site_id AS INTEGER) DESC
LIMIT ? OFFSET ?`, customerJoins, whereSQL)
	args = append(args, limit, offset)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list customer sites: %w", err)
	}
	defer rows.Close()

	var sites []model.CustomerSite
	for rows.Next() {
		var cs model.CustomerSite
		if err := rows.Scan(&cs.SiteID, &cs.County, &cs.SiteName, &cs.SiteAddress, &cs.SFDCLeadURL, &cs.SiteStatus,
			&cs.OpportunityName, &cs.OpportunityStage, &cs.OpportunityCreated, &cs.OpportunityClose,
			&cs.BoxCaseName, &cs.MatchedViaContact, &cs.MatchedViaOrg); err != nil {
			return nil, fmt.Errorf("storage: scan customer site: %w", err)
		}
		sites = append(sites, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list customer sites: %w", err)
	}
	return sites, nil
}

// CountCustomerSites returns the number of rows matching the filter.
func (db *DB) CountCustomerSites(ctx context.Context, f CustomerFilter) (int, error) {
	whereSQL, args := f.buildWhere()
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) %s %s", customerJoins, whereSQL)
	if err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count customer sites: %w", err)
	}
	return count, nil
}
