package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/restorical/ecosight/internal/model"
)

// ListRelations returns the tables and views of the database, views first.
func (db *DB) ListRelations(ctx context.Context) ([]model.RelationInfo, error) {
	rows, err := db.sqlDB.QueryContext(ctx, `SELECT name, type
FROM sqlite_master
WHERE type IN ('table','view') AND name NOT LIKE 'sqlite_%'
ORDER BY type DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list relations: %w", err)
	}
	defer rows.Close()

	var relations []model.RelationInfo
	for rows.Next() {
		var r model.RelationInfo
		if err := rows.Scan(&r.Name, &r.Type); err != nil {
			return nil, fmt.Errorf("storage: scan relation: %w", err)
		}
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list relations: %w", err)
	}
	return relations, nil
}

// HasRelation reports whether a table or view with this name exists.
func (db *DB) HasRelation(ctx context.Context, name string) (bool, error) {
	var count int
	err := db.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("storage: has relation %s: %w", name, err)
	}
	return count > 0, nil
}

// DescribeRelation returns the dictionary entry for one table or view:
// schema, columns, row count, and a capped sample. The relation name is
// checked against sqlite_master before it is interpolated; PRAGMA and
// SELECT * cannot take bind parameters for identifiers.
func (db *DB) DescribeRelation(ctx context.Context, name string, sampleLimit int) (model.RelationDetail, error) {
	var detail model.RelationDetail
	err := db.sqlDB.QueryRowContext(ctx,
		"SELECT name, type, COALESCE(sql,'') FROM sqlite_master WHERE type IN ('table','view') AND name = ?", name).Scan(
		&detail.Name, &detail.Type, &detail.SQL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RelationDetail{}, ErrNotFound
		}
		return model.RelationDetail{}, fmt.Errorf("storage: describe relation %s: %w", name, err)
	}

	colRows, err := db.sqlDB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", detail.Name))
	if err != nil {
		return model.RelationDetail{}, fmt.Errorf("storage: table info %s: %w", name, err)
	}
	defer colRows.Close()
	for colRows.Next() {
		var c model.ColumnInfo
		if err := colRows.Scan(&c.CID, &c.Name, &c.Type, &c.NotNull, &c.DefaultValue, &c.PrimaryKey); err != nil {
			return model.RelationDetail{}, fmt.Errorf("storage: scan column info: %w", err)
		}
		detail.Columns = append(detail.Columns, c)
	}
	if err := colRows.Err(); err != nil {
		return model.RelationDetail{}, fmt.Errorf("storage: table info %s: %w", name, err)
	}

	if err := db.sqlDB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", detail.Name)).Scan(&detail.RowCount); err != nil {
		return model.RelationDetail{}, fmt.Errorf("storage: count %s: %w", name, err)
	}

	sample, err := db.sampleRows(ctx, detail.Name, sampleLimit)
	if err != nil {
		return model.RelationDetail{}, err
	}
	detail.Sample = sample
	return detail, nil
}

// sampleRows reads up to limit rows of a relation into generic maps.
func (db *DB) sampleRows(ctx context.Context, name string, limit int) ([]map[string]any, error) {
	rows, err := db.sqlDB.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q LIMIT ?", name), limit)
	if err != nil {
		return nil, fmt.Errorf("storage: sample %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("storage: sample columns %s: %w", name, err)
	}

	var sample []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("storage: scan sample row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		sample = append(sample, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: sample %s: %w", name, err)
	}
	return sample, nil
}
