package server

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/restorical/ecosight/internal/model"
	"github.com/restorical/ecosight/internal/storage"
)

// csvStart sets the download headers and returns a CSV writer over the
// response. The filename carries a UTC timestamp.
func csvStart(w http.ResponseWriter, name string) *csv.Writer {
	filename := fmt.Sprintf("ecosight-%s-%s.csv", name, time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Cache-Control", "no-cache")
	return csv.NewWriter(w)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func flt(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func boolStr(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

// exportPageSize bounds each storage fetch while streaming an export.
const exportPageSize = 500

// HandleExportSites handles GET /v1/export/sites: the enriched listing rows
// for the whole filtered set, streamed page by page.
func (h *Handlers) HandleExportSites(w http.ResponseWriter, r *http.Request) {
	f, err := siteFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	// The derived columns cover the full filtered set, so one fetch serves
	// every page.
	scores, err := h.db.ResolveScores(r.Context(), f)
	if err != nil {
		h.exportFailed(w, r, "sites", err)
		return
	}
	tiers, err := h.db.ResolveTiers(r.Context(), f)
	if err != nil {
		h.exportFailed(w, r, "sites", err)
		return
	}
	histUse, err := h.db.HistoricalUseBySite(r.Context(), f)
	if err != nil {
		h.exportFailed(w, r, "sites", err)
		return
	}

	cw := csvStart(w, "sites")
	_ = cw.Write([]string{"site_id", "site_name", "site_address", "final_score", "qualification_tier",
		"last_processed", "historical_use_category", "total_documents", "total_contaminants", "scrape_status"})

	for offset := 0; ; offset += exportPageSize {
		page, err := h.db.ListSites(r.Context(), f, exportPageSize, offset)
		if err != nil {
			h.logger.Error("site export failed", "error", err)
			return
		}
		for _, s := range page {
			var score, processed string
			if sc, ok := scores[s.SiteID]; ok {
				score = num(sc.Score)
				processed = str(sc.LastProcessed)
			}
			_ = cw.Write([]string{
				s.SiteID, str(s.SiteName), str(s.SiteAddress),
				score, tiers[s.SiteID], processed, str(histUse[s.SiteID]),
				strconv.Itoa(s.TotalDocuments), strconv.Itoa(s.TotalContaminants), str(s.ScrapeStatus),
			})
		}
		cw.Flush()
		if len(page) < exportPageSize {
			return
		}
	}
}

// HandleExportDocuments handles GET /v1/export/documents.
func (h *Handlers) HandleExportDocuments(w http.ResponseWriter, r *http.Request) {
	f := storage.DocumentFilter{
		SiteID:     r.URL.Query().Get("site_id"),
		Categories: csvParam(r, "categories"),
		Statuses:   csvParam(r, "statuses"),
		Year:       r.URL.Query().Get("year"),
	}

	cw := csvStart(w, "documents")
	_ = cw.Write([]string{"id", "site_id", "document_category", "document_title", "document_date",
		"document_type", "document_url", "download_status", "flagged_for_analysis"})

	for offset := 0; ; offset += exportPageSize {
		page, err := h.db.ListDocuments(r.Context(), f, exportPageSize, offset)
		if err != nil {
			h.logger.Error("document export failed", "error", err)
			return
		}
		for _, d := range page {
			_ = cw.Write([]string{
				strconv.FormatInt(d.ID, 10), d.SiteID, str(d.DocumentCategory), str(d.DocumentTitle),
				str(d.DocumentDate), str(d.DocumentType), str(d.DocumentURL), str(d.DownloadStatus),
				strconv.FormatBool(d.FlaggedForAnalysis),
			})
		}
		cw.Flush()
		if len(page) < exportPageSize {
			return
		}
	}
}

// HandleExportContaminants handles GET /v1/export/contaminants.
func (h *Handlers) HandleExportContaminants(w http.ResponseWriter, r *http.Request) {
	siteID := r.URL.Query().Get("site_id")

	cw := csvStart(w, "contaminants")
	_ = cw.Write([]string{"site_id", "contaminant_type", "soil_status", "groundwater_status",
		"surface_water_status", "air_status", "sediment_status", "bedrock_status"})

	for offset := 0; ; offset += exportPageSize {
		page, err := h.db.ListContaminants(r.Context(), siteID, exportPageSize, offset)
		if err != nil {
			h.logger.Error("contaminant export failed", "error", err)
			return
		}
		for _, c := range page {
			_ = cw.Write([]string{
				c.SiteID, str(c.ContaminantType), str(c.SoilStatus), str(c.GroundwaterStatus),
				str(c.SurfaceWaterStatus), str(c.AirStatus), str(c.SedimentStatus), str(c.BedrockStatus),
			})
		}
		cw.Flush()
		if len(page) < exportPageSize {
			return
		}
	}
}

// HandleExportContacts handles GET /v1/export/contacts.
func (h *Handlers) HandleExportContacts(w http.ResponseWriter, r *http.Request) {
	f, err := contactFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	cw := csvStart(w, "contacts")
	_ = cw.Write([]string{"site_id", "site_name", "contact_name", "organization_name", "contact_address",
		"phone", "email", "contact_type", "contact_role", "is_primary_prospect", "prospect_priority",
		"confidence_score", "qualification_tier", "qualified"})

	for offset := 0; ; offset += exportPageSize {
		page, err := h.db.ListContacts(r.Context(), f, exportPageSize, offset)
		if err != nil {
			h.logger.Error("contact export failed", "error", err)
			return
		}
		for _, c := range page {
			_ = cw.Write([]string{
				c.SiteID, str(c.SiteName), str(c.ContactName), str(c.OrganizationName), str(c.ContactAddress),
				str(c.Phone), str(c.Email), str(c.ContactType), str(c.ContactRole),
				strconv.FormatBool(c.IsPrimaryProspect), num(c.ProspectPriority),
				flt(c.ConfidenceScore), str(c.QualificationTier), boolStr(c.Qualified),
			})
		}
		cw.Flush()
		if len(page) < exportPageSize {
			return
		}
	}
}

// HandleExportQualifications handles GET /v1/export/qualifications.
func (h *Handlers) HandleExportQualifications(w http.ResponseWriter, r *http.Request) {
	f := storage.QualificationFilter{Tiers: csvParam(r, "tiers")}
	qualified, err := boolParam(r, "qualified")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	f.Qualified = qualified

	cw := csvStart(w, "qualifications")
	_ = cw.Write([]string{"id", "site_id", "qualified", "qualification_tier", "confidence_score",
		"document_type_analyzed", "document_quality_score", "analyzed_at"})

	for offset := 0; ; offset += exportPageSize {
		page, err := h.db.ListQualifications(r.Context(), f, exportPageSize, offset)
		if err != nil {
			h.logger.Error("qualification export failed", "error", err)
			return
		}
		for _, q := range page {
			_ = cw.Write([]string{
				strconv.FormatInt(q.ID, 10), q.SiteID, boolStr(q.Qualified), str(q.QualificationTier),
				flt(q.ConfidenceScore), str(q.DocumentTypeAnalyzed), flt(q.DocumentQualityScore), str(q.AnalyzedAt),
			})
		}
		cw.Flush()
		if len(page) < exportPageSize {
			return
		}
	}
}

// HandleExportFeedback handles GET /v1/export/feedback.
func (h *Handlers) HandleExportFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := h.db.AllFeedback(r.Context())
	if err != nil {
		h.exportFailed(w, r, "feedback", err)
		return
	}

	cw := csvStart(w, "feedback")
	_ = cw.Write([]string{"id", "site_id", "run_id", "site_name", "site_address", "age_correct",
		"age_feedback", "third_party_correct", "third_party_feedback", "document_selection_correct",
		"document_selection_feedback", "overall_notes", "submitted_at"})
	for _, e := range entries {
		_ = cw.Write([]string{
			strconv.FormatInt(e.ID, 10), e.SiteID, e.RunID, str(e.SiteName), str(e.SiteAddress),
			boolStr(e.AgeCorrect), str(e.AgeFeedback), boolStr(e.ThirdPartyCorrect), str(e.ThirdPartyFeedback),
			boolStr(e.DocumentSelectionCorrect), str(e.DocumentSelectionFeedback),
			str(e.OverallNotes), str(e.SubmittedAt),
		})
	}
	cw.Flush()
}

// HandleExportCustomers handles GET /v1/export/customers.
func (h *Handlers) HandleExportCustomers(w http.ResponseWriter, r *http.Request) {
	f, err := h.customerFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	cw := csvStart(w, "customers")
	_ = cw.Write([]string{"site_id", "county", "site_name", "site_address", "site_status",
		"box_case_name", "sfdc_opportunity_name", "sfdc_opportunity_stage",
		"opportunity_created_date", "opportunity_close_date", "matched_via_contact", "matched_via_org"})

	for offset := 0; ; offset += exportPageSize {
		page, err := h.db.ListCustomerSites(r.Context(), f, exportPageSize, offset)
		if err != nil {
			h.logger.Error("customer export failed", "error", err)
			return
		}
		for _, cs := range page {
			_ = cw.Write([]string{
				cs.SiteID, str(cs.County), str(cs.SiteName), str(cs.SiteAddress), str(cs.SiteStatus),
				str(cs.BoxCaseName), str(cs.OpportunityName), str(cs.OpportunityStage),
				str(cs.OpportunityCreated), str(cs.OpportunityClose),
				str(cs.MatchedViaContact), str(cs.MatchedViaOrg),
			})
		}
		cw.Flush()
		if len(page) < exportPageSize {
			return
		}
	}
}

// HandleExportFiltered handles GET /v1/export/filtered: both exclusion
// surfaces in one file with a reason column.
func (h *Handlers) HandleExportFiltered(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	tribal, err := h.db.TribalSites(r.Context(), search, exportPageSize)
	if err != nil {
		h.exportFailed(w, r, "filtered", err)
		return
	}
	dnc, err := h.db.DoNotContactSites(r.Context(), search, exportPageSize)
	if err != nil {
		h.exportFailed(w, r, "filtered", err)
		return
	}

	cw := csvStart(w, "filtered")
	_ = cw.Write([]string{"site_id", "site_name", "site_address", "reason", "matched_org"})
	for _, s := range tribal {
		_ = cw.Write([]string{s.SiteID, str(s.SiteName), str(s.SiteAddress), "tribal", ""})
	}
	for _, s := range dnc {
		_ = cw.Write([]string{s.SiteID, str(s.SiteName), str(s.SiteAddress), "do_not_contact", str(s.MatchedOrg)})
	}
	cw.Flush()
}

// exportFailed reports an export error before any CSV bytes were written.
func (h *Handlers) exportFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	h.logger.Error(name+" export failed", "error", err)
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, name+" export failed")
}
