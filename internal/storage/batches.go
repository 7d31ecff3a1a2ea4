package storage

import (
	"context"
	"fmt"

	"github.com/restorical/ecosight/internal/model"
)

// ListBatches returns the named batches available as a listing filter.
func (db *DB) ListBatches(ctx context.Context) ([]model.BatchRun, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT DISTINCT batch_name, batch_description,
       datetime(started_at, 'localtime') AS run_date,
       total_sites, successful_sites
FROM batch_runs
ORDER BY batch_name`)
	if err != nil {
		return nil, fmt.Errorf("storage: list batches: %w", err)
	}
	defer rows.Close()

	var batches []model.BatchRun
	for rows.Next() {
		var b model.BatchRun
		if err := rows.Scan(&b.BatchName, &b.BatchDescription, &b.StartedAt, &b.TotalSites, &b.SuccessfulSites); err != nil {
			return nil, fmt.Errorf("storage: scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list batches: %w", err)
	}
	return batches, nil
}
