package server

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/restorical/ecosight/internal/model"
	"github.com/restorical/ecosight/internal/storage"
)

// HandleListSites handles GET /v1/sites: one page of filtered overview rows
// enriched with the derived score, tier, processing and feedback columns.
// The auxiliary lookups are independent of the page query, so they fan out.
func (h *Handlers) HandleListSites(w http.ResponseWriter, r *http.Request) {
	f, err := siteFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	limit, offset, err := h.pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	var (
		page      []model.SiteOverview
		total     int
		scores    map[string]storage.SiteScore
		tiers     map[string]string
		ageChecks map[string]*int
		histUse   map[string]*string
		feedback  map[string]int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		page, err = h.db.ListSites(ctx, f, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = h.db.CountSites(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		scores, err = h.db.ResolveScores(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		tiers, err = h.db.ResolveTiers(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		ageChecks, err = h.db.AgeCheckScores(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		histUse, err = h.db.HistoricalUseBySite(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		feedback, err = h.db.FeedbackCounts(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("site listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site listing failed")
		return
	}

	items := make([]model.SiteListItem, 0, len(page))
	for _, s := range page {
		item := model.SiteListItem{SiteOverview: s}
		if sc, ok := scores[s.SiteID]; ok {
			item.FinalScore = sc.Score
			item.LastProcessed = sc.LastProcessed
		}
		if tier, ok := tiers[s.SiteID]; ok {
			item.QualificationTier = &tier
		}
		item.AgeCheckScore = ageChecks[s.SiteID]
		item.HistoricalUseCategory = histUse[s.SiteID]
		item.FeedbackCount = feedback[s.SiteID]
		if h.resultsBaseURL != "" {
			item.ResultsURL = fmt.Sprintf("%s/results/%s", h.resultsBaseURL, s.SiteID)
		}
		items = append(items, item)
	}
	writeList(w, r, items, total, limit, offset)
}

// HandleGetSite handles GET /v1/sites/{site_id}.
func (h *Handlers) HandleGetSite(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("site_id")
	site, err := h.db.GetSite(r.Context(), siteID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "site not found")
			return
		}
		h.logger.Error("get site failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "get site failed")
		return
	}
	writeJSON(w, r, http.StatusOK, site)
}

// HandleSiteNarratives handles GET /v1/sites/{site_id}/narratives.
func (h *Handlers) HandleSiteNarratives(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("site_id")
	sections, err := h.db.SiteNarratives(r.Context(), siteID)
	if err != nil {
		h.logger.Error("site narratives failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site narratives failed")
		return
	}
	writeJSON(w, r, http.StatusOK, sections)
}

// HandleSiteDocuments handles GET /v1/sites/{site_id}/documents. The
// document filters (categories, statuses, year) apply within the site.
func (h *Handlers) HandleSiteDocuments(w http.ResponseWriter, r *http.Request) {
	f := storage.DocumentFilter{
		SiteID:     r.PathValue("site_id"),
		Categories: csvParam(r, "categories"),
		Statuses:   csvParam(r, "statuses"),
		Year:       r.URL.Query().Get("year"),
	}
	limit, offset, err := h.pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	var docs []model.SiteDocument
	var total int
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		docs, err = h.db.ListDocuments(ctx, f, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = h.db.CountDocuments(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("site documents failed", "site_id", f.SiteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site documents failed")
		return
	}
	writeList(w, r, docs, total, limit, offset)
}

// HandleSiteQualification handles GET /v1/sites/{site_id}/qualifications:
// the assembled detail with evidence, disqualifying factors, the run
// summary, the age check, and the contamination status rows.
func (h *Handlers) HandleSiteQualification(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("site_id")

	var (
		detail       model.QualificationDetail
		ageCheck     *model.AgeCheck
		contaminants []model.Contaminant
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		detail, err = h.db.GetQualificationDetail(ctx, siteID)
		return err
	})
	g.Go(func() (err error) {
		ageCheck, err = h.db.AgeCheck(ctx, siteID)
		return err
	})
	g.Go(func() (err error) {
		contaminants, err = h.db.ListContaminants(ctx, siteID, h.maxPageSize, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "site has no qualification results")
			return
		}
		h.logger.Error("site qualification failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site qualification failed")
		return
	}

	writeJSON(w, r, http.StatusOK, struct {
		model.QualificationDetail
		AgeCheck     *model.AgeCheck     `json:"age_check"`
		Contaminants []model.Contaminant `json:"contaminants"`
	}{detail, ageCheck, contaminants})
}

// HandleSiteContaminants handles GET /v1/sites/{site_id}/contaminants.
func (h *Handlers) HandleSiteContaminants(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("site_id")
	limit, offset, err := h.pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	rows, err := h.db.ListContaminants(r.Context(), siteID, limit, offset)
	if err != nil {
		h.logger.Error("site contaminants failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site contaminants failed")
		return
	}
	total, err := h.db.CountContaminants(r.Context(), siteID)
	if err != nil {
		h.logger.Error("site contaminants failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site contaminants failed")
		return
	}
	writeList(w, r, rows, total, limit, offset)
}

// HandleSiteContacts handles GET /v1/sites/{site_id}/contacts.
func (h *Handlers) HandleSiteContacts(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("site_id")
	contacts, err := h.db.SiteContacts(r.Context(), siteID, h.maxPageSize)
	if err != nil {
		h.logger.Error("site contacts failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site contacts failed")
		return
	}
	writeJSON(w, r, http.StatusOK, contacts)
}

// HandleSiteOwnership handles GET /v1/sites/{site_id}/ownership.
func (h *Handlers) HandleSiteOwnership(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("site_id")
	records, err := h.db.SiteOwnership(r.Context(), siteID)
	if err != nil {
		h.logger.Error("site ownership failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site ownership failed")
		return
	}
	writeJSON(w, r, http.StatusOK, records)
}
