package storage

import (
	"fmt"
	"strings"

	"github.com/restorical/ecosight/internal/model"
)

// IntRange is an inclusive numeric range filter.
type IntRange struct {
	Min int
	Max int
}

// SiteFilter declares the site-level filters applied to site_overview.
// Zero values mean "not filtered". The builder turns it into a WHERE
// clause with positional placeholders; every user value travels as a
// bind argument, never as SQL text.
type SiteFilter struct {
	Search        string // matches site_name, site_address, or site_id
	DocumentTitle string // matches document titles of the site's documents
	HasDocuments  *bool
	HasNarrative  *bool
	Tiers         []string // qualification tiers; "UNSPECIFIED" matches NULL
	Processed     *bool    // has a completed run carrying a score
	Media         []string // contamination media labels
	MediaStatuses []string // statuses within the selected media columns
	Narratives    *IntRange
	Documents     *IntRange
	YearSpan      *IntRange
	AgeCheckScore *int // age evidence confidence, 0 or 50
	Score         *IntRange
	HistoricalUse []string
	BatchNames    []string
}

// Sites with a completed orchestration run that produced a score, either in
// the run row itself or via a Score Calculation module result.
const processedSites = `SELECT DISTINCT site_id
FROM orchestration_runs
WHERE completed_at IS NOT NULL
AND (final_score IS NOT NULL OR EXISTS (
    SELECT 1 FROM orchestration_module_results
    WHERE run_id = orchestration_runs.run_id
    AND module_name LIKE '%Score Calculation%'
))`

// Latest qualification score per site unioned with the legacy run-derived
// score for sites the newer table does not cover.
const scoredSites = `SELECT sqr.site_id
FROM site_qualification_results sqr
WHERE sqr.analyzed_at = (
    SELECT MAX(analyzed_at)
    FROM site_qualification_results
    WHERE site_id = sqr.site_id
)
AND CAST(sqr.final_calculated_score AS INTEGER) BETWEEN ? AND ?
UNION
SELECT s.site_id
FROM (
    WITH lr AS (
        SELECT or1.site_id, or1.run_id, or1.final_score AS run_final_score, or1.completed_at
        FROM orchestration_runs or1
        WHERE or1.completed_at IS NOT NULL
        AND or1.site_id NOT IN (SELECT DISTINCT site_id FROM site_qualification_results)
    ), picked AS (
        SELECT l1.site_id, l1.run_id, l1.run_final_score
        FROM lr l1
        JOIN (
            SELECT site_id, MAX(completed_at) AS mc FROM lr GROUP BY site_id
        ) m ON m.site_id = l1.site_id AND m.mc = l1.completed_at
    )
    SELECT
        p.site_id,
        COALESCE(
            CAST(json_extract(omr.module_result_json, '$.data.final_score') AS INTEGER),
            CAST(p.run_final_score AS INTEGER),
            0
        ) AS final_score
    FROM picked p
    LEFT JOIN orchestration_module_results omr
        ON omr.run_id = p.run_id
        AND omr.module_name LIKE '%Score Calculation%'
) s
WHERE s.final_score BETWEEN ? AND ?`

// BuildWhere renders the filter as a WHERE clause over site_overview,
// returning the clause (including the WHERE keyword, or "" when no filter
// is active) and its bind arguments.
func (f SiteFilter) BuildWhere() (string, []any, error) {
	var where []string
	var args []any

	if f.Search != "" {
		like := "%" + f.Search + "%"
		where = append(where, "(COALESCE(site_name,'') LIKE ? OR COALESCE(site_address,'') LIKE ? OR site_id LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.DocumentTitle != "" {
		where = append(where, `EXISTS (
    SELECT 1 FROM site_documents sd
    WHERE sd.site_id = site_overview.site_id
    AND LOWER(sd.document_title) LIKE LOWER(?)
)`)
		args = append(args, "%"+f.DocumentTitle+"%")
	}
	if f.HasDocuments != nil {
		where = append(where, "has_documents = ?")
		args = append(args, boolToInt(*f.HasDocuments))
	}
	if f.HasNarrative != nil {
		where = append(where, "site_id IN (SELECT site_id FROM site_summary WHERE COALESCE(has_narrative_content,0) = ?)")
		args = append(args, boolToInt(*f.HasNarrative))
	}
	if len(f.Tiers) > 0 {
		ph := placeholders(len(f.Tiers))
		where = append(where, fmt.Sprintf(
			"site_id IN (SELECT site_id FROM site_qualification_results WHERE COALESCE(qualification_tier,'UNSPECIFIED') IN (%s))", ph))
		for _, t := range f.Tiers {
			args = append(args, t)
		}
	}
	if f.Processed != nil {
		op := "IN"
		if !*f.Processed {
			op = "NOT IN"
		}
		where = append(where, fmt.Sprintf("site_id %s (\n%s\n)", op, processedSites))
	}
	if len(f.Media) > 0 || len(f.MediaStatuses) > 0 {
		clause, mediaArgs, err := f.mediaClause()
		if err != nil {
			return "", nil, err
		}
		where = append(where, clause)
		args = append(args, mediaArgs...)
	}
	if f.Narratives != nil {
		where = append(where, "site_id IN (SELECT site_id FROM site_summary WHERE COALESCE(total_narrative_sections,0) BETWEEN ? AND ?)")
		args = append(args, f.Narratives.Min, f.Narratives.Max)
	}
	if f.Documents != nil {
		where = append(where, "site_id IN (SELECT site_id FROM site_summary WHERE COALESCE(total_documents,0) BETWEEN ? AND ?)")
		args = append(args, f.Documents.Min, f.Documents.Max)
	}
	if f.YearSpan != nil {
		where = append(where, "site_id IN (SELECT site_id FROM site_summary WHERE COALESCE(document_date_range_years,0) BETWEEN ? AND ?)")
		args = append(args, f.YearSpan.Min, f.YearSpan.Max)
	}
	if f.AgeCheckScore != nil {
		where = append(where, "site_id IN (SELECT site_id FROM site_summary WHERE age_evidence_confidence_score = ?)")
		args = append(args, *f.AgeCheckScore)
	}
	if f.Score != nil {
		where = append(where, fmt.Sprintf("site_id IN (\n%s\n)", scoredSites))
		args = append(args, f.Score.Min, f.Score.Max, f.Score.Min, f.Score.Max)
	}
	if len(f.HistoricalUse) > 0 {
		ph := placeholders(len(f.HistoricalUse))
		where = append(where, fmt.Sprintf("site_id IN (SELECT site_id FROM sites WHERE historical_use_category IN (%s))", ph))
		for _, h := range f.HistoricalUse {
			args = append(args, h)
		}
	}
	if len(f.BatchNames) > 0 {
		ph := placeholders(len(f.BatchNames))
		where = append(where, fmt.Sprintf(`site_id IN (
    SELECT DISTINCT json_each.value
    FROM batch_runs, json_each(site_ids)
    WHERE batch_name IN (%s)
)`, ph))
		for _, b := range f.BatchNames {
			args = append(args, b)
		}
	}

	if len(where) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(where, " AND "), args, nil
}

// mediaClause builds the contamination subquery. With only media selected
// it requires any non-empty status in those columns; with statuses it
// requires one of the statuses in each candidate column. No media selected
// means all media columns are candidates.
func (f SiteFilter) mediaClause() (string, []any, error) {
	media := f.Media
	if len(media) == 0 {
		media = model.Media()
	}
	cols := make([]string, 0, len(media))
	for _, m := range media {
		col, err := model.MediumColumn(m)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, col)
	}

	var args []any
	ors := make([]string, 0, len(cols))
	if len(f.MediaStatuses) > 0 {
		ph := placeholders(len(f.MediaStatuses))
		for _, col := range cols {
			ors = append(ors, fmt.Sprintf("COALESCE(%s,'') IN (%s)", col, ph))
			for _, s := range f.MediaStatuses {
				args = append(args, s)
			}
		}
	} else {
		for _, col := range cols {
			ors = append(ors, fmt.Sprintf("TRIM(COALESCE(%s,'')) <> ''", col))
		}
	}
	clause := "site_id IN (SELECT site_id FROM site_contaminants WHERE (" + strings.Join(ors, " OR ") + "))"
	return clause, args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
