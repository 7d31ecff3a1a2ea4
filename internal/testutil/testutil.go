// Package testutil provides shared test infrastructure: a temp-file SQLite
// fixture with the external site-database schema, seed helpers, and a quiet
// test logger.
//
// Usage:
//
//	f := testutil.OpenFixture(t)
//	f.SeedSite(t, "1043", "Acme Plating", "12 Mill Rd")
//	rows, err := f.DB.ListSites(ctx, storage.SiteFilter{}, 100, 0)
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/restorical/ecosight/internal/storage"
)

// Fixture is a seeded site database: RW is a writable handle for inserts,
// DB is the read-only storage layer under test.
type Fixture struct {
	Path string
	RW   *sql.DB
	DB   *storage.DB
}

// OpenFixture creates a temp-file site database with the full external
// schema and opens the storage layer against it. Cleanup is registered on t.
func OpenFixture(t *testing.T) *Fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sites.db")
	rw, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open fixture database: %v", err)
	}
	if _, err := rw.Exec(schema); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}

	db, err := storage.Open(context.Background(), path, 5*time.Second, TestLogger())
	if err != nil {
		t.Fatalf("open storage layer: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
		_ = rw.Close()
	})
	return &Fixture{Path: path, RW: rw, DB: db}
}

// Exec runs an insert or update against the writable handle, failing the
// test on error.
func (f *Fixture) Exec(t *testing.T, query string, args ...any) {
	t.Helper()
	if _, err := f.RW.Exec(query, args...); err != nil {
		t.Fatalf("fixture exec: %v\nquery: %s", err, query)
	}
}

// SeedSite inserts a minimal site with identity rows in sites and
// site_summary. Callers layer documents, runs, and results on top.
func (f *Fixture) SeedSite(t *testing.T, siteID, name, address string) {
	t.Helper()
	f.Exec(t, `INSERT INTO sites (site_id, scrape_status) VALUES (?, 'completed')`, siteID)
	f.Exec(t, `INSERT INTO site_summary (site_id, site_name, site_address) VALUES (?, ?, ?)`, siteID, name, address)
}

// SeedDocument inserts one site_documents row and returns its id.
func (f *Fixture) SeedDocument(t *testing.T, siteID, title, category, status string) int64 {
	t.Helper()
	res, err := f.RW.Exec(`INSERT INTO site_documents
    (site_id, document_title, document_category, download_status, document_type, document_url)
VALUES (?, ?, ?, ?, 'Report', 'https://records.example.gov/doc')`, siteID, title, category, status)
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("seed document id: %v", err)
	}
	return id
}

// SeedRun inserts a completed orchestration run.
func (f *Fixture) SeedRun(t *testing.T, runID, siteID, completedAt, finalStatus string, finalScore *float64) {
	t.Helper()
	f.Exec(t, `INSERT INTO orchestration_runs
    (run_id, site_id, started_at, completed_at, final_status, final_score)
VALUES (?, ?, ?, ?, ?, ?)`, runID, siteID, completedAt, completedAt, finalStatus, finalScore)
}

// SeedModuleResult inserts one module result row for a run.
func (f *Fixture) SeedModuleResult(t *testing.T, runID, moduleName, resultJSON string) {
	t.Helper()
	f.Exec(t, `INSERT INTO orchestration_module_results (run_id, module_name, module_result_json)
VALUES (?, ?, ?)`, runID, moduleName, resultJSON)
}

// SeedQualification inserts a site_qualification_results row.
func (f *Fixture) SeedQualification(t *testing.T, siteID string, qualified bool, tier string, score float64, analyzedAt string) {
	t.Helper()
	q := 0
	if qualified {
		q = 1
	}
	f.Exec(t, `INSERT INTO site_qualification_results
    (site_id, qualified, qualification_tier, final_calculated_score, analyzed_at)
VALUES (?, ?, ?, ?, ?)`, siteID, q, tier, score, analyzedAt)
}

// TestLogger returns a logger configured for test output (warns only).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// schema mirrors the external site database: tables written by the scraper
// and processing pipeline, plus the site_overview view the dashboard reads.
const schema = `
CREATE TABLE sites (
    site_id TEXT PRIMARY KEY,
    county TEXT,
    historical_use_category TEXT,
    regional_office TEXT,
    office_phone TEXT,
    cleanup_program_type TEXT,
    site_report_url TEXT,
    neighborhood_map_url TEXT,
    url TEXT,
    found_documents INTEGER,
    scrape_status TEXT,
    sfdc_lead_url TEXT
);

CREATE TABLE site_summary (
    site_id TEXT PRIMARY KEY,
    site_name TEXT,
    site_address TEXT,
    site_status TEXT,
    has_narrative_content INTEGER,
    has_documents INTEGER,
    total_narrative_sections INTEGER,
    total_documents INTEGER,
    document_date_range_years INTEGER,
    age_evidence_confidence_score INTEGER,
    age_evidence_source TEXT,
    third_party_confidence_score INTEGER
);

CREATE TABLE site_documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    document_category TEXT,
    document_title TEXT,
    document_date TEXT,
    document_type TEXT,
    document_url TEXT,
    download_status TEXT,
    flagged_for_analysis INTEGER DEFAULT 0,
    file_extension TEXT,
    file_size_bytes INTEGER
);

CREATE TABLE site_narratives (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    section_order INTEGER,
    section_title TEXT,
    section_content TEXT,
    scraped_at TEXT
);

CREATE TABLE site_contaminants (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    contaminant_type TEXT,
    soil_status TEXT,
    groundwater_status TEXT,
    surface_water_status TEXT,
    air_status TEXT,
    sediment_status TEXT,
    bedrock_status TEXT
);

CREATE TABLE site_contacts_summary (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    site_name TEXT,
    contact_name TEXT,
    organization_name TEXT,
    contact_address TEXT,
    phone TEXT,
    email TEXT,
    contact_type TEXT,
    contact_role TEXT,
    is_primary_prospect INTEGER,
    prospect_priority INTEGER,
    confidence_score REAL,
    qualification_tier TEXT,
    qualified INTEGER,
    site_url TEXT
);

CREATE TABLE site_qualification_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    qualified INTEGER,
    qualification_tier TEXT,
    confidence_score REAL,
    final_calculated_score REAL,
    document_type_analyzed TEXT,
    document_quality_score REAL,
    age_evidence TEXT,
    third_party_evidence TEXT,
    disqualifying_factors TEXT,
    age_qualified INTEGER,
    third_party_qualified INTEGER,
    tribal_site INTEGER,
    analyzed_at TEXT
);

CREATE TABLE orchestration_runs (
    run_id TEXT PRIMARY KEY,
    site_id TEXT,
    started_at TEXT,
    completed_at TEXT,
    final_status TEXT,
    final_score REAL,
    total_processing_time_seconds REAL
);

CREATE TABLE orchestration_module_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT,
    module_name TEXT,
    module_result_json TEXT
);

CREATE TABLE ai_feedback (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    run_id TEXT,
    age_correct INTEGER,
    age_feedback TEXT,
    third_party_correct INTEGER,
    third_party_feedback TEXT,
    document_selection_correct INTEGER,
    document_selection_feedback TEXT,
    selected_documents_shown TEXT,
    overall_notes TEXT,
    submitted_at TEXT
);

CREATE TABLE box_case_matches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    box_case_name TEXT,
    matched_via_contact TEXT,
    matched_via_org TEXT
);

CREATE TABLE site_opportunities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    sfdc_opportunity_name TEXT,
    stage TEXT,
    created_date TEXT,
    close_date TEXT
);

CREATE TABLE site_ownership_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id TEXT,
    ownership_start_year INTEGER,
    ownership_end_year INTEGER,
    ownership_duration_years INTEGER,
    ownership_start_date TEXT,
    owner_name TEXT,
    organization_name TEXT,
    is_current INTEGER,
    acquired_from TEXT,
    sold_to TEXT,
    acquisition_type TEXT,
    business_name TEXT,
    business_type TEXT,
    operated_business INTEGER,
    operation_start_year INTEGER,
    operation_end_year INTEGER,
    parent_company TEXT,
    successor_company TEXT,
    assumes_prior_liabilities INTEGER
);

CREATE TABLE batch_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_name TEXT,
    batch_description TEXT,
    started_at TEXT,
    total_sites INTEGER,
    successful_sites INTEGER,
    site_ids TEXT
);

CREATE TABLE "Do_Not_Contact_Sites" (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    organization_name TEXT,
    site_address TEXT,
    active INTEGER DEFAULT 1
);

CREATE VIEW site_overview AS
SELECT
    s.site_id,
    ss.site_name,
    ss.site_address,
    COALESCE(ss.total_documents, 0) AS total_documents,
    (SELECT COUNT(*) FROM site_contaminants sc WHERE sc.site_id = s.site_id) AS total_contaminants,
    COALESCE(ss.has_documents, 0) AS has_documents,
    CASE WHEN EXISTS (SELECT 1 FROM site_contaminants sc WHERE sc.site_id = s.site_id) THEN 1 ELSE 0 END AS has_contaminants,
    s.scrape_status,
    CASE WHEN s.scrape_status = 'completed' THEN 'ok' ELSE 'pending' END AS status_icon,
    s.regional_office,
    s.office_phone,
    s.cleanup_program_type,
    s.site_report_url,
    s.neighborhood_map_url,
    s.url,
    s.found_documents
FROM sites s
LEFT JOIN site_summary ss ON ss.site_id = s.site_id;
`
