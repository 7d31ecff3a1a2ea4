package storage

import (
	"context"
	"fmt"

	"github.com/restorical/ecosight/internal/model"
)

// ListContaminants returns site_contaminants rows, optionally scoped to one
// site, ordered by site then type.
func (db *DB) ListContaminants(ctx context.Context, siteID string, limit, offset int) ([]model.Contaminant, error) {
	whereSQL := ""
	var args []any
	if siteID != "" {
		whereSQL = "WHERE site_id = ?"
		args = append(args, siteID)
	}
	query := fmt.Sprintf(`SELECT site_id, contaminant_type, soil_status, groundwater_status, surface_water_status,
       air_status, sediment_status, bedrock_status
FROM site_contaminants
%s
ORDER BY site_id, contaminant_type
LIMIT ? OFFSET ?`, whereSQL)
	args = append(args, limit, offset)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list contaminants: %w", err)
	}
	defer rows.Close()

	var cs []model.Contaminant
	for rows.Next() {
		var c model.Contaminant
		if err := rows.Scan(&c.SiteID, &c.ContaminantType, &c.SoilStatus, &c.GroundwaterStatus, &c.SurfaceWaterStatus,
			&c.AirStatus, &c.SedimentStatus, &c.BedrockStatus); err != nil {
			return nil, fmt.Errorf("storage: scan contaminant: %w", err)
		}
		cs = append(cs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list contaminants: %w", err)
	}
	return cs, nil
}

// CountContaminants returns the number of contaminant rows, optionally
// scoped to one site.
func (db *DB) CountContaminants(ctx context.Context, siteID string) (int, error) {
	whereSQL := ""
	var args []any
	if siteID != "" {
		whereSQL = "WHERE site_id = ?"
		args = append(args, siteID)
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM site_contaminants %s", whereSQL)
	if err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count contaminants: %w", err)
	}
	return count, nil
}

// MediaStatuses returns the distinct non-empty status values across the
// given media columns. Unknown media are rejected before any SQL runs.
func (db *DB) MediaStatuses(ctx context.Context, media []string) ([]string, error) {
	if len(media) == 0 {
		media = model.Media()
	}
	union := ""
	for i, m := range media {
		col, err := model.MediumColumn(m)
		if err != nil {
			return nil, fmt.Errorf("storage: media statuses: %w", err)
		}
		if i > 0 {
			union += " UNION "
		}
		union += fmt.Sprintf("SELECT %s AS s FROM site_contaminants", col)
	}
	query := fmt.Sprintf("SELECT DISTINCT s AS status FROM (%s) t WHERE s IS NOT NULL AND TRIM(s) <> '' ORDER BY status", union)

	rows, err := db.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: media statuses: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows, "media status")
}
