package ecosight

// Site is one row of the GET /v1/sites listing: the site_overview columns
// plus the derived score, tier, and processing metadata.
type Site struct {
	SiteID                string  `json:"site_id"`
	SiteName              *string `json:"site_name"`
	SiteAddress           *string `json:"site_address"`
	TotalDocuments        int     `json:"total_documents"`
	TotalContaminants     int     `json:"total_contaminants"`
	HasDocuments          bool    `json:"has_documents"`
	HasContaminants       bool    `json:"has_contaminants"`
	ScrapeStatus          *string `json:"scrape_status"`
	StatusIcon            *string `json:"status_icon"`
	FinalScore            *int    `json:"final_score"`
	QualificationTier     *string `json:"qualification_tier"`
	LastProcessed         *string `json:"last_processed"`
	AgeCheckScore         *int    `json:"age_check_score"`
	HistoricalUseCategory *string `json:"historical_use_category"`
	FeedbackCount         int     `json:"feedback_count"`
	ResultsURL            string  `json:"results_url,omitempty"`
}

// SiteDetail is the GET /v1/sites/{site_id} body.
type SiteDetail struct {
	SiteID                string  `json:"site_id"`
	SiteName              *string `json:"site_name"`
	SiteAddress           *string `json:"site_address"`
	TotalDocuments        int     `json:"total_documents"`
	TotalContaminants     int     `json:"total_contaminants"`
	HasDocuments          bool    `json:"has_documents"`
	HasContaminants       bool    `json:"has_contaminants"`
	ScrapeStatus          *string `json:"scrape_status"`
	StatusIcon            *string `json:"status_icon"`
	RegionalOffice        *string `json:"regional_office"`
	OfficePhone           *string `json:"office_phone"`
	CleanupProgramType    *string `json:"cleanup_program_type"`
	SiteReportURL         *string `json:"site_report_url"`
	NeighborhoodMapURL    *string `json:"neighborhood_map_url"`
	URL                   *string `json:"url"`
	County                *string `json:"county"`
	HistoricalUseCategory *string `json:"historical_use_category"`
	FoundDocuments        bool    `json:"found_documents"`
}

// SiteList is a page of sites plus the pagination totals from the list
// envelope.
type SiteList struct {
	Sites   []Site
	Total   int
	HasMore bool
	Limit   int
	Offset  int
}

// Evidence is one normalized evidence item in a qualification response.
type Evidence struct {
	Text           string  `json:"text"`
	SourceDocument *string `json:"source_document"`
	DocumentDate   *string `json:"document_date"`
	DocumentType   *string `json:"document_type"`
	Disqualified   bool    `json:"disqualified"`
	SourceURL      *string `json:"source_url,omitempty"`
}

// DisqualifyingFactor describes one reason a site was disqualified.
type DisqualifyingFactor struct {
	Category    string `json:"category"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
	Evidence    string `json:"evidence"`
}

// RunSummary describes the orchestration run a qualification came from.
type RunSummary struct {
	RunID                      string   `json:"run_id"`
	StartedAt                  *string  `json:"started_at"`
	CompletedAt                *string  `json:"completed_at"`
	FinalStatus                *string  `json:"final_status"`
	FinalScore                 *float64 `json:"final_score"`
	TotalProcessingTimeSeconds *float64 `json:"total_processing_time_seconds"`
}

// Qualification is the GET /v1/sites/{site_id}/qualifications body.
type Qualification struct {
	SiteID               string                `json:"site_id"`
	OverallScore         int                   `json:"overall_score"`
	OverallTier          string                `json:"overall_tier"`
	AgeScore             *float64              `json:"age_score"`
	ThirdPartyScore      *float64              `json:"third_party_score"`
	Qualified            *bool                 `json:"qualified"`
	AgeQualified         *bool                 `json:"age_qualified"`
	ThirdPartyQualified  *bool                 `json:"third_party_qualified"`
	AgeConfidence        int                   `json:"age_confidence"`
	ThirdPartyConfidence int                   `json:"third_party_confidence"`
	AgeEvidenceSource    *string               `json:"age_evidence_source"`
	AgeEvidence          []Evidence            `json:"age_evidence"`
	ThirdPartyEvidence   []Evidence            `json:"third_party_evidence"`
	DisqualifyingFactors []DisqualifyingFactor `json:"disqualifying_factors"`
	MinimalCleanup       bool                  `json:"minimal_cleanup"`
	Run                  *RunSummary           `json:"run"`
}

// ProcessStatus reports the state of the single-slot processing cooldown
// gate.
type ProcessStatus struct {
	Active           bool   `json:"active"`
	SiteID           string `json:"site_id,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
}

// TriggerResult is the outcome of a processing trigger. Queued is true when
// the server accepted the request but the processing service had not
// confirmed completion before the dispatch timeout (HTTP 202).
type TriggerResult struct {
	ProcessStatus
	Queued bool
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Uptime   int64  `json:"uptime_seconds"`
}
