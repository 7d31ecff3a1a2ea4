// Package model defines the row types read from the external site database
// and the request/response types of the HTTP API.
//
// The schema is an external dependency owned by the ingestion pipeline; the
// dashboard only reads it. Nullable columns map to pointer fields, and the
// loosely-typed TEXT timestamps of the source tables stay strings.
package model

// SiteOverview is a row of the site_overview view, the listing surface most
// pages filter over.
type SiteOverview struct {
	SiteID            string  `json:"site_id"`
	SiteName          *string `json:"site_name"`
	SiteAddress       *string `json:"site_address"`
	TotalDocuments    int     `json:"total_documents"`
	TotalContaminants int     `json:"total_contaminants"`
	HasDocuments      bool    `json:"has_documents"`
	HasContaminants   bool    `json:"has_contaminants"`
	ScrapeStatus      *string `json:"scrape_status"`
	StatusIcon        *string `json:"status_icon"`
}

// SiteDetail is the full site_overview row plus the sites-table columns shown
// on the detail page.
type SiteDetail struct {
	SiteOverview
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

// SiteListItem is a SiteOverview row enriched with the derived columns of the
// site search table: resolved score, latest tier, processing metadata, and
// outbound links.
type SiteListItem struct {
	SiteOverview
	FinalScore            *int    `json:"final_score"`
	QualificationTier     *string `json:"qualification_tier"`
	LastProcessed         *string `json:"last_processed"`
	AgeCheckScore         *int    `json:"age_check_score"`
	HistoricalUseCategory *string `json:"historical_use_category"`
	FeedbackCount         int     `json:"feedback_count"`
	ResultsURL            string  `json:"results_url,omitempty"`
}

// SiteOption is a compact (id, name, address) tuple for site pickers.
type SiteOption struct {
	SiteID      string `json:"site_id"`
	SiteName    string `json:"site_name"`
	SiteAddress string `json:"site_address"`
}

// SummaryBounds holds the min/max of the site_summary numeric columns used
// by the range filters.
type SummaryBounds struct {
	NarrativeMin int `json:"narrative_min"`
	NarrativeMax int `json:"narrative_max"`
	DocumentsMin int `json:"documents_min"`
	DocumentsMax int `json:"documents_max"`
	YearSpanMin  int `json:"year_span_min"`
	YearSpanMax  int `json:"year_span_max"`
}

// DashboardMetrics is the headline metric row of the overview page.
type DashboardMetrics struct {
	TotalSites          int `json:"total_sites"`
	SitesWithNarratives int `json:"sites_with_narratives"`
	SitesWithDocuments  int `json:"sites_with_documents"`
	QualifiedSites      int `json:"qualified_sites"`
}

// DocumentSummary aggregates site_documents under the active filter.
type DocumentSummary struct {
	Documents  int `json:"documents"`
	Downloaded int `json:"downloaded"`
	Flagged    int `json:"flagged"`
}

// ContaminantCount is one bar of the contaminant-type leaderboard.
type ContaminantCount struct {
	ContaminantType string `json:"contaminant_type"`
	Count           int    `json:"count"`
}

// TierCount is one bar of the qualification-tier breakdown.
type TierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

// OwnershipRecord is a row of site_ownership_history, ordered into the
// ownership timeline on the site detail page.
type OwnershipRecord struct {
	OwnershipStartYear      *int    `json:"ownership_start_year"`
	OwnershipEndYear        *int    `json:"ownership_end_year"`
	OwnershipDurationYears  *int    `json:"ownership_duration_years"`
	OwnerName               *string `json:"owner_name"`
	OrganizationName        *string `json:"organization_name"`
	IsCurrent               bool    `json:"is_current"`
	AcquiredFrom            *string `json:"acquired_from"`
	SoldTo                  *string `json:"sold_to"`
	AcquisitionType         *string `json:"acquisition_type"`
	BusinessName            *string `json:"business_name"`
	BusinessType            *string `json:"business_type"`
	OperatedBusiness        bool    `json:"operated_business"`
	OperationStartYear      *int    `json:"operation_start_year"`
	OperationEndYear        *int    `json:"operation_end_year"`
	ParentCompany           *string `json:"parent_company"`
	SuccessorCompany        *string `json:"successor_company"`
	AssumesPriorLiabilities *bool   `json:"assumes_prior_liabilities"`
}
