package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SiteScore is a site's resolved final score with the timestamp of the
// analysis that produced it.
type SiteScore struct {
	Score         *int
	LastProcessed *string
}

// moduleResult is the JSON envelope stored in
// orchestration_module_results.module_result_json.
type moduleResult struct {
	Data struct {
		FinalScore      *float64 `json:"final_score"`
		AgeScore        *float64 `json:"age_score"`
		ThirdPartyScore *float64 `json:"third_party_score"`
		Score           *float64 `json:"score"`
		AgeConfidence   *float64 `json:"age_confidence"`
	} `json:"data"`
}

// ResolveScores computes the final score per site for the filtered set.
// The latest site_qualification_results row wins; sites absent from that
// table fall back to their latest completed run, preferring the Score
// Calculation module's final_score over the run's own, defaulting to 0.
// Malformed module JSON silently falls through to the run score.
func (db *DB) ResolveScores(ctx context.Context, f SiteFilter) (map[string]SiteScore, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return nil, fmt.Errorf("storage: resolve scores: %w", err)
	}
	scores := make(map[string]SiteScore)

	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT sqr.site_id, sqr.final_calculated_score, sqr.analyzed_at
FROM site_qualification_results sqr
WHERE sqr.site_id IN (SELECT site_id FROM filtered_sites)
AND sqr.analyzed_at = (
    SELECT MAX(analyzed_at)
    FROM site_qualification_results
    WHERE site_id = sqr.site_id
)`, whereSQL)
	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var siteID string
		var score *float64
		var analyzedAt *string
		if err := rows.Scan(&siteID, &score, &analyzedAt); err != nil {
			return nil, fmt.Errorf("storage: scan qualification score: %w", err)
		}
		var s SiteScore
		if score != nil {
			n := int(*score)
			s.Score = &n
		}
		s.LastProcessed = analyzedAt
		scores[siteID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: resolve scores: %w", err)
	}

	query = fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
), lr AS (
  SELECT or1.site_id, or1.run_id, or1.final_score AS run_final_score, or1.completed_at
  FROM orchestration_runs or1
  WHERE or1.site_id IN (SELECT site_id FROM filtered_sites)
    AND or1.completed_at IS NOT NULL
), picked AS (
  SELECT l1.site_id, l1.run_id, l1.run_final_score, l1.completed_at
  FROM lr l1
  JOIN (
    SELECT site_id, MAX(completed_at) AS mc FROM lr GROUP BY site_id
  ) m ON m.site_id = l1.site_id AND m.mc = l1.completed_at
)
SELECT p.site_id, p.run_final_score, p.completed_at, omr.module_result_json
FROM picked p
LEFT JOIN orchestration_module_results omr
  ON omr.run_id = p.run_id AND omr.module_name LIKE '%%Score Calculation%%'`, whereSQL)
	runRows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve legacy scores: %w", err)
	}
	defer runRows.Close()
	for runRows.Next() {
		var siteID string
		var runScore *float64
		var completedAt *string
		var resultJSON *string
		if err := runRows.Scan(&siteID, &runScore, &completedAt, &resultJSON); err != nil {
			return nil, fmt.Errorf("storage: scan run score: %w", err)
		}
		if _, ok := scores[siteID]; ok {
			continue
		}
		n := legacyScore(resultJSON, runScore)
		scores[siteID] = SiteScore{Score: &n, LastProcessed: completedAt}
	}
	if err := runRows.Err(); err != nil {
		return nil, fmt.Errorf("storage: resolve legacy scores: %w", err)
	}
	return scores, nil
}

// legacyScore extracts the module's final_score, falling back to the run
// column and then to 0.
func legacyScore(resultJSON *string, runScore *float64) int {
	if resultJSON != nil && *resultJSON != "" {
		var mr moduleResult
		if err := json.Unmarshal([]byte(*resultJSON), &mr); err == nil && mr.Data.FinalScore != nil {
			return int(*mr.Data.FinalScore)
		}
	}
	if runScore != nil {
		return int(*runScore)
	}
	return 0
}

// SiteFinalScore resolves one site's score from its latest completed run.
// Sites with no completed run return nil.
func (db *DB) SiteFinalScore(ctx context.Context, siteID string) (*int, error) {
	var runScore *float64
	var resultJSON *string
	err := db.sqlDB.QueryRowContext(ctx, `WITH lr AS (
    SELECT or1.run_id, or1.final_score AS run_final_score, or1.completed_at
    FROM orchestration_runs or1
    WHERE or1.site_id = ? AND or1.completed_at IS NOT NULL
    ORDER BY or1.completed_at DESC
    LIMIT 1
)
SELECT lr.run_final_score, omr.module_result_json
FROM lr
LEFT JOIN orchestration_module_results omr
    ON omr.run_id = lr.run_id AND omr.module_name LIKE '%Score Calculation%'`, siteID).Scan(&runScore, &resultJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: site final score %s: %w", siteID, err)
	}
	n := legacyScore(resultJSON, runScore)
	return &n, nil
}

// ResolveTiers returns each filtered site's tier from its newest
// qualification result.
func (db *DB) ResolveTiers(ctx context.Context, f SiteFilter) (map[string]string, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return nil, fmt.Errorf("storage: resolve tiers: %w", err)
	}
	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT sqr.site_id, COALESCE(sqr.qualification_tier, 'UNSPECIFIED')
FROM site_qualification_results sqr
WHERE sqr.site_id IN (SELECT site_id FROM filtered_sites)
AND sqr.analyzed_at = (
    SELECT MAX(analyzed_at)
    FROM site_qualification_results
    WHERE site_id = sqr.site_id
)`, whereSQL)
	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve tiers: %w", err)
	}
	defer rows.Close()

	tiers := make(map[string]string)
	for rows.Next() {
		var siteID, tier string
		if err := rows.Scan(&siteID, &tier); err != nil {
			return nil, fmt.Errorf("storage: scan tier: %w", err)
		}
		tiers[siteID] = tier
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: resolve tiers: %w", err)
	}
	return tiers, nil
}

// AgeCheckScores returns the age evidence confidence score per filtered
// site from site_summary.
func (db *DB) AgeCheckScores(ctx context.Context, f SiteFilter) (map[string]*int, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return nil, fmt.Errorf("storage: age check scores: %w", err)
	}
	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT ss.site_id, ss.age_evidence_confidence_score
FROM site_summary ss
WHERE ss.site_id IN (SELECT site_id FROM filtered_sites)`, whereSQL)
	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: age check scores: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*int)
	for rows.Next() {
		var siteID string
		var score *int
		if err := rows.Scan(&siteID, &score); err != nil {
			return nil, fmt.Errorf("storage: scan age check score: %w", err)
		}
		out[siteID] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: age check scores: %w", err)
	}
	return out, nil
}

// FeedbackCounts returns the feedback entry count per filtered site.
func (db *DB) FeedbackCounts(ctx context.Context, f SiteFilter) (map[string]int, error) {
	whereSQL, args, err := f.BuildWhere()
	if err != nil {
		return nil, fmt.Errorf("storage: feedback counts: %w", err)
	}
	query := fmt.Sprintf(`WITH filtered_sites AS (
  SELECT site_id FROM site_overview %s
)
SELECT site_id, COUNT(*)
FROM ai_feedback
WHERE site_id IN (SELECT site_id FROM filtered_sites)
GROUP BY site_id`, whereSQL)
	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: feedback counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var siteID string
		var n int
		if err := rows.Scan(&siteID, &n); err != nil {
			return nil, fmt.Errorf("storage: scan feedback count: %w", err)
		}
		counts[siteID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: feedback counts: %w", err)
	}
	return counts, nil
}
