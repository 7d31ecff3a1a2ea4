package storage

import (
	"context"
	"fmt"

	"github.com/restorical/ecosight/internal/model"
)

// SiteOwnership returns a site's ownership history in chronological order.
// Records with no start year sort last.
func (db *DB) SiteOwnership(ctx context.Context, siteID string) ([]model.OwnershipRecord, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT
    ownership_start_year, ownership_end_year, ownership_duration_years,
    owner_name, organization_name, is_current,
    acquired_from, sold_to, acquisition_type,
    business_name, business_type, operated_business,
    operation_start_year, operation_end_year,
    parent_company, successor_company, assumes_prior_liabilities
FROM site_ownership_history
WHERE site_id = ?
ORDER BY COALESCE(ownership_start_year, 9999), ownership_start_date`, siteID)
	if err != nil {
		return nil, fmt.Errorf("storage: site ownership %s: %w", siteID, err)
	}
	defer rows.Close()

	var records []model.OwnershipRecord
	for rows.Next() {
		var r model.OwnershipRecord
		if err := rows.Scan(
			&r.OwnershipStartYear, &r.OwnershipEndYear, &r.OwnershipDurationYears,
			&r.OwnerName, &r.OrganizationName, &r.IsCurrent,
			&r.AcquiredFrom, &r.SoldTo, &r.AcquisitionType,
			&r.BusinessName, &r.BusinessType, &r.OperatedBusiness,
			&r.OperationStartYear, &r.OperationEndYear,
			&r.ParentCompany, &r.SuccessorCompany, &r.AssumesPriorLiabilities,
		); err != nil {
			return nil, fmt.Errorf("storage: scan ownership record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: site ownership %s: %w", siteID, err)
	}
	return records, nil
}
