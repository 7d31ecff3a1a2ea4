package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/restorical/ecosight/internal/model"
)

// DocumentFilter declares the document listing filters. NULL categories
// collapse to "Uncategorized" and NULL statuses to "unknown", matching the
// facet labels.
type DocumentFilter struct {
	SiteID     string
	Categories []string
	Statuses   []string
	Year       string // substring match on document_date
}

func (f DocumentFilter) buildWhere() (string, []any) {
	var where []string
	var args []any
	if f.SiteID != "" {
		where = append(where, "site_id = ?")
		args = append(args, f.SiteID)
	}
	if len(f.Categories) > 0 {
		where = append(where, fmt.Sprintf("COALESCE(document_category,'Uncategorized') IN (%s)", placeholders(len(f.Categories))))
		for _, c := range f.Categories {
			args = append(args, c)
		}
	}
	if len(f.Statuses) > 0 {
		where = append(where, fmt.Sprintf("COALESCE(download_status,'unknown') IN (%s)", placeholders(len(f.Statuses))))
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.Year != "" {
		where = append(where, "COALESCE(document_date,'') LIKE ?")
		args = append(args, "%"+f.Year+"%")
	}
	if len(where) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

// ListDocuments returns site_documents rows under the filter, newest id
// first.
func (db *DB) ListDocuments(ctx context.Context, f DocumentFilter, limit, offset int) ([]model.SiteDocument, error) {
	whereSQL, args := f.buildWhere()
	query := fmt.Sprintf(`SELECT id, site_id, document_category, document_title, document_date, document_type,
       document_url, download_status, flagged_for_analysis, file_extension, file_size_bytes
FROM site_documents
%s
ORDER BY id DESC
LIMIT ? OFFSET ?`, whereSQL)
	args = append(args, limit, offset)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list documents: %w", err)
	}
	defer rows.Close()

	var docs []model.SiteDocument
	for rows.Next() {
		var d model.SiteDocument
		if err := rows.Scan(&d.ID, &d.SiteID, &d.DocumentCategory, &d.DocumentTitle, &d.DocumentDate, &d.DocumentType,
			&d.DocumentURL, &d.DownloadStatus, &d.FlaggedForAnalysis, &d.FileExtension, &d.FileSizeBytes); err != nil {
			return nil, fmt.Errorf("storage: scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of rows matching the filter.
func (db *DB) CountDocuments(ctx context.Context, f DocumentFilter) (int, error) {
	whereSQL, args := f.buildWhere()
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM site_documents %s", whereSQL)
	if err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count documents: %w", err)
	}
	return count, nil
}

// DocumentFacets returns the distinct category and status labels.
func (db *DB) DocumentFacets(ctx context.Context) (model.DocumentFacets, error) {
	var facets model.DocumentFacets

	rows, err := db.sqlDB.QueryContext(ctx,
		"SELECT DISTINCT COALESCE(document_category,'Uncategorized') AS c FROM site_documents ORDER BY c")
	if err != nil {
		return facets, fmt.Errorf("storage: document categories: %w", err)
	}
	defer rows.Close()
	if facets.Categories, err = scanStrings(rows, "document category"); err != nil {
		return facets, err
	}

	statusRows, err := db.sqlDB.QueryContext(ctx,
		"SELECT DISTINCT COALESCE(download_status,'unknown') AS s FROM site_documents ORDER BY s")
	if err != nil {
		return facets, fmt.Errorf("storage: document statuses: %w", err)
	}
	defer statusRows.Close()
	if facets.Statuses, err = scanStrings(statusRows, "document status"); err != nil {
		return facets, err
	}
	return facets, nil
}

// DocumentsByIDs resolves documents by id, preserving nothing about order;
// callers reorder by their own priority list.
func (db *DB) DocumentsByIDs(ctx context.Context, ids []int64) ([]model.DocumentLink, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, document_title, document_type, document_date, site_id, document_url
FROM site_documents
WHERE id IN (%s)`, placeholders(len(ids)))

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: documents by ids: %w", err)
	}
	defer rows.Close()

	var links []model.DocumentLink
	for rows.Next() {
		var l model.DocumentLink
		if err := rows.Scan(&l.ID, &l.DocumentTitle, &l.DocumentType, &l.DocumentDate, &l.SiteID, &l.DocumentURL); err != nil {
			return nil, fmt.Errorf("storage: scan document link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: documents by ids: %w", err)
	}
	return links, nil
}

// DocumentURLsByTitle maps each distinct document title of a site to a URL.
// Earlier rows win when titles repeat, matching the oldest-first precedence
// of the source data.
func (db *DB) DocumentURLsByTitle(ctx context.Context, siteID string) (map[string]*string, error) {
	rows, err := db.sqlDB.QueryContext(ctx,
		"SELECT document_title, document_url FROM site_documents WHERE site_id = ? ORDER BY id", siteID)
	if err != nil {
		return nil, fmt.Errorf("storage: document urls %s: %w", siteID, err)
	}
	defer rows.Close()

	out := make(map[string]*string)
	for rows.Next() {
		var title, u *string
		if err := rows.Scan(&title, &u); err != nil {
			return nil, fmt.Errorf("storage: scan document url: %w", err)
		}
		if title == nil {
			continue
		}
		t := strings.TrimSpace(*title)
		if t == "" {
			continue
		}
		if _, ok := out[t]; !ok {
			out[t] = u
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: document urls %s: %w", siteID, err)
	}
	return out, nil
}
