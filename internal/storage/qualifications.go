package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/restorical/ecosight/internal/model"
)

// QualificationFilter declares the qualification listing filters.
type QualificationFilter struct {
	Tiers     []string // "UNSPECIFIED" matches NULL
	Qualified *bool
}

func (f QualificationFilter) buildWhere() (string, []any) {
	var where []string
	var args []any
	if len(f.Tiers) > 0 {
		where = append(where, fmt.Sprintf("COALESCE(qualification_tier,'UNSPECIFIED') IN (%s)", placeholders(len(f.Tiers))))
		for _, t := range f.Tiers {
			args = append(args, t)
		}
	}
	if f.Qualified != nil {
		where = append(where, "qualified = ?")
		args = append(args, boolToInt(*f.Qualified))
	}
	if len(where) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

// ListQualifications returns qualification rows, newest analysis first.
func (db *DB) ListQualifications(ctx context.Context, f QualificationFilter, limit, offset int) ([]model.QualificationResult, error) {
	whereSQL, args := f.buildWhere()
	query := fmt.Sprintf(`SELECT id, site_id, qualified, qualification_tier, confidence_score,
       document_type_analyzed, document_quality_score, analyzed_at
FROM site_qualification_results
%s
ORDER BY analyzed_at DESC
LIMIT ? OFFSET ?`, whereSQL)
	args = append(args, limit, offset)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list qualifications: %w", err)
	}
	defer rows.Close()

	var results []model.QualificationResult
	for rows.Next() {
		var q model.QualificationResult
		if err := rows.Scan(&q.ID, &q.SiteID, &q.Qualified, &q.QualificationTier, &q.ConfidenceScore,
			&q.DocumentTypeAnalyzed, &q.DocumentQualityScore, &q.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("storage: scan qualification: %w", err)
		}
		results = append(results, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list qualifications: %w", err)
	}
	return results, nil
}

// CountQualifications returns the number of rows matching the filter.
func (db *DB) CountQualifications(ctx context.Context, f QualificationFilter) (int, error) {
	whereSQL, args := f.buildWhere()
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM site_qualification_results %s", whereSQL)
	if err := db.sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count qualifications: %w", err)
	}
	return count, nil
}

// QualificationTierCounts aggregates per-tier counts under the filter.
func (db *DB) QualificationTierCounts(ctx context.Context, f QualificationFilter) ([]model.TierCount, error) {
	whereSQL, args := f.buildWhere()
	query := fmt.Sprintf(`SELECT COALESCE(qualification_tier,'UNSPECIFIED') AS tier, COUNT(*) AS n
FROM site_qualification_results
%s
GROUP BY COALESCE(qualification_tier,'UNSPECIFIED')
ORDER BY n DESC`, whereSQL)

	rows, err := db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: qualification tier counts: %w", err)
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
		return nil, fmt.Errorf("storage: qualification tier counts: %w", err)
	}
	return counts, nil
}

// QualificationTiers returns the distinct tier labels.
func (db *DB) QualificationTiers(ctx context.Context) ([]string, error) {
	rows, err := db.sqlDB.QueryContext(ctx,
		"SELECT DISTINCT COALESCE(qualification_tier,'UNSPECIFIED') AS t FROM site_qualification_results ORDER BY t")
	if err != nil {
		return nil, fmt.Errorf("storage: qualification tiers: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows, "qualification tier")
}

// GetQualificationDetail assembles the full qualification view for one site:
// the latest completed run with its Score Calculation module, the newest
// qualification row with evidence and confidence from site_summary, and the
// document links resolved for evidence sources.
func (db *DB) GetQualificationDetail(ctx context.Context, siteID string) (model.QualificationDetail, error) {
	detail := model.QualificationDetail{SiteID: siteID, OverallTier: "UNSPECIFIED"}

	run, moduleJSON, err := db.latestRunWithScoreModule(ctx, siteID)
	if err != nil {
		return model.QualificationDetail{}, err
	}
	if run != nil {
		detail.Run = run
		if run.FinalStatus != nil {
			detail.OverallTier = model.TierFromStatus(*run.FinalStatus)
		}
		detail.OverallScore = legacyScore(moduleJSON, run.FinalScore)
		if moduleJSON != nil && *moduleJSON != "" {
			var mr moduleResult
			if err := json.Unmarshal([]byte(*moduleJSON), &mr); err == nil {
				detail.AgeScore = mr.Data.AgeScore
				detail.ThirdPartyScore = mr.Data.ThirdPartyScore
			}
		}
	}

	var ageEvidence, tpEvidence, factors *string
	var ageConf, tpConf *int
	err = db.sqlDB.QueryRowContext(ctx, `SELECT
  sqr.age_evidence,
  sqr.third_party_evidence,
  sqr.qualified,
  sqr.disqualifying_factors,
  sqr.age_qualified,
  sqr.third_party_qualified,
  ss.age_evidence_confidence_score,
  ss.third_party_confidence_score,
  ss.age_evidence_source
FROM site_qualification_results sqr
LEFT JOIN site_summary ss ON ss.site_id = sqr.site_id
WHERE sqr.site_id = ?
ORDER BY sqr.analyzed_at DESC
LIMIT 1`, siteID).Scan(
		&ageEvidence, &tpEvidence, &detail.Qualified, &factors,
		&detail.AgeQualified, &detail.ThirdPartyQualified,
		&ageConf, &tpConf, &detail.AgeEvidenceSource,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.QualificationDetail{}, fmt.Errorf("storage: qualification detail %s: %w", siteID, err)
	}
	hasQualRow := err == nil
	if hasQualRow {
		if ageConf != nil {
			detail.AgeConfidence = *ageConf
		}
		if tpConf != nil {
			detail.ThirdPartyConfidence = *tpConf
		}
		detail.DisqualifyingFactors = model.DecodeDisqualifyingFactors(factors)
		for _, f := range detail.DisqualifyingFactors {
			if f.Reason == "MINIMAL_CLEANUP" {
				detail.MinimalCleanup = true
			}
		}
		detail.AgeEvidence = model.CleanEvidenceItems(model.DecodeEvidence(ageEvidence))
		detail.ThirdPartyEvidence = model.CleanEvidenceItems(model.DecodeEvidence(tpEvidence))
		for _, it := range append(detail.AgeEvidence, detail.ThirdPartyEvidence...) {
			if it.Disqualified {
				detail.MinimalCleanup = true
			}
		}
	}

	if run == nil && !hasQualRow {
		// No run and no qualification row: the site has never been analyzed.
		return model.QualificationDetail{}, ErrNotFound
	}

	urls, err := db.DocumentURLsByTitle(ctx, siteID)
	if err != nil {
		return model.QualificationDetail{}, err
	}
	linkEvidence(detail.AgeEvidence, urls)
	linkEvidence(detail.ThirdPartyEvidence, urls)
	return detail, nil
}

func linkEvidence(items []model.CleanedEvidence, urls map[string]*string) {
	for i, it := range items {
		if it.SourceDocument == nil {
			continue
		}
		if u, ok := urls[strings.TrimSpace(*it.SourceDocument)]; ok {
			items[i].SourceURL = u
		}
	}
}

// latestRunWithScoreModule returns the newest completed run for a site and
// its Score Calculation module JSON, or nil when the site has no completed
// run.
func (db *DB) latestRunWithScoreModule(ctx context.Context, siteID string) (*model.RunSummary, *string, error) {
	var run model.RunSummary
	err := db.sqlDB.QueryRowContext(ctx, `SELECT run_id, started_at, completed_at, final_status, final_score, total_processing_time_seconds
FROM orchestration_runs
WHERE site_id = ? AND completed_at IS NOT NULL
ORDER BY completed_at DESC
LIMIT 1`, siteID).Scan(
		&run.RunID, &run.StartedAt, &run.CompletedAt, &run.FinalStatus, &run.FinalScore, &run.TotalProcessingTimeSeconds,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("storage: latest run %s: %w", siteID, err)
	}

	var moduleJSON *string
	err = db.sqlDB.QueryRowContext(ctx, `SELECT module_result_json
FROM orchestration_module_results
WHERE run_id = ? AND module_name LIKE '%Score Calculation%'
LIMIT 1`, run.RunID).Scan(&moduleJSON)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("storage: score module %s: %w", run.RunID, err)
	}
	return &run, moduleJSON, nil
}

// AgeCheck reports the Age Qualification verdict from a site's latest
// completed run. Passing requires the module score to be exactly 50.
func (db *DB) AgeCheck(ctx context.Context, siteID string) (*model.AgeCheck, error) {
	var moduleJSON *string
	err := db.sqlDB.QueryRowContext(ctx, `WITH lr AS (
    SELECT run_id
    FROM orchestration_runs
    WHERE site_id = ? AND completed_at IS NOT NULL
    ORDER BY completed_at DESC
    LIMIT 1
)
SELECT omr.module_result_json
FROM lr
JOIN orchestration_module_results omr
  ON omr.run_id = lr.run_id AND omr.module_name LIKE '%Age Qualification%'
LIMIT 1`, siteID).Scan(&moduleJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: age check %s: %w", siteID, err)
	}
	if moduleJSON == nil || *moduleJSON == "" {
		return nil, nil
	}
	var mr moduleResult
	if err := json.Unmarshal([]byte(*moduleJSON), &mr); err != nil {
		return nil, nil
	}
	check := &model.AgeCheck{}
	if mr.Data.Score != nil {
		check.Score = int(*mr.Data.Score)
	}
	if mr.Data.AgeConfidence != nil {
		check.Confidence = int(*mr.Data.AgeConfidence)
	}
	check.Passed = check.Score == 50
	return check, nil
}
