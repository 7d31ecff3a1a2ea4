package server

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/restorical/ecosight/internal/model"
	"github.com/restorical/ecosight/internal/storage"
)

// HandleListDocuments handles GET /v1/documents.
func (h *Handlers) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	f := storage.DocumentFilter{
		SiteID:     r.URL.Query().Get("site_id"),
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
		h.logger.Error("document listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "document listing failed")
		return
	}
	writeList(w, r, docs, total, limit, offset)
}

// HandleListNarratives handles GET /v1/narratives: the site ids that carry
// narrative content, for the narrative browser's picker.
func (h *Handlers) HandleListNarratives(w http.ResponseWriter, r *http.Request) {
	limit, _, err := h.pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	ids, err := h.db.NarrativeSiteIDs(r.Context(), limit)
	if err != nil {
		h.logger.Error("narrative listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "narrative listing failed")
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		SiteIDs []string `json:"site_ids"`
	}{ids})
}

// HandleListContaminants handles GET /v1/contaminants.
func (h *Handlers) HandleListContaminants(w http.ResponseWriter, r *http.Request) {
	siteID := r.URL.Query().Get("site_id")
	limit, offset, err := h.pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	var rows []model.Contaminant
	var total int
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		rows, err = h.db.ListContaminants(ctx, siteID, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = h.db.CountContaminants(ctx, siteID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("contaminant listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "contaminant listing failed")
		return
	}
	writeList(w, r, rows, total, limit, offset)
}

// HandleListContacts handles GET /v1/contacts.
func (h *Handlers) HandleListContacts(w http.ResponseWriter, r *http.Request) {
	f, err := contactFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	limit, offset, err := h.pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	var contacts []model.Contact
	var total int
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		contacts, err = h.db.ListContacts(ctx, f, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = h.db.CountContacts(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("contact listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "contact listing failed")
		return
	}
	writeList(w, r, contacts, total, limit, offset)
}

// HandleListQualifications handles GET /v1/qualifications: rows plus the
// per-tier counts for the breakdown chart.
func (h *Handlers) HandleListQualifications(w http.ResponseWriter, r *http.Request) {
	f := storage.QualificationFilter{Tiers: csvParam(r, "tiers")}
	qualified, err := boolParam(r, "qualified")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	f.Qualified = qualified
	limit, offset, err := h.pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	var (
		rows       []model.QualificationResult
		total      int
		tierCounts []model.TierCount
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		rows, err = h.db.ListQualifications(ctx, f, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = h.db.CountQualifications(ctx, f)
		return err
	})
	g.Go(func() (err error) {
		tierCounts, err = h.db.QualificationTierCounts(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("qualification listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "qualification listing failed")
		return
	}

	writeJSON(w, r, http.StatusOK, struct {
		Results    []model.QualificationResult `json:"results"`
		Total      int                         `json:"total"`
		Limit      int                         `json:"limit"`
		Offset     int                         `json:"offset"`
		TierCounts []model.TierCount           `json:"tier_counts"`
	}{rows, total, limit, offset, tierCounts})
}

// HandleListCustomers handles GET /v1/customers.
func (h *Handlers) HandleListCustomers(w http.ResponseWriter, r *http.Request) {
	f, err := h.customerFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	customers, err := h.db.ListCustomers(r.Context(), f.SitesPerCustomer)
	if err != nil {
		h.logger.Error("customer listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "customer listing failed")
		return
	}
	writeJSON(w, r, http.StatusOK, customers)
}

// HandleListCustomerSites handles GET /v1/customers/sites.
func (h *Handlers) HandleListCustomerSites(w http.ResponseWriter, r *http.Request) {
	f, err := h.customerFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	limit, offset, err := h.pagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	var sites []model.CustomerSite
	var total int
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		sites, err = h.db.ListCustomerSites(ctx, f, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = h.db.CountCustomerSites(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("customer site listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "customer site listing failed")
		return
	}
	writeList(w, r, sites, total, limit, offset)
}

// HandleListFeedback handles GET /v1/feedback: per-site summaries.
func (h *Handlers) HandleListFeedback(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.db.FeedbackSummaries(r.Context())
	if err != nil {
		h.logger.Error("feedback listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "feedback listing failed")
		return
	}
	writeJSON(w, r, http.StatusOK, summaries)
}

// HandleSiteFeedback handles GET /v1/feedback/{site_id}: the full entries
// with shown documents resolved.
func (h *Handlers) HandleSiteFeedback(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("site_id")
	entries, err := h.db.SiteFeedback(r.Context(), siteID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "no feedback for site")
			return
		}
		h.logger.Error("site feedback failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "site feedback failed")
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// HandleTribalSites handles GET /v1/filtered/tribal.
func (h *Handlers) HandleTribalSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.db.TribalSites(r.Context(), r.URL.Query().Get("search"), h.maxPageSize)
	if err != nil {
		h.logger.Error("tribal listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "tribal listing failed")
		return
	}
	writeJSON(w, r, http.StatusOK, sites)
}

// HandleDoNotContactSites handles GET /v1/filtered/dnc.
func (h *Handlers) HandleDoNotContactSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.db.DoNotContactSites(r.Context(), r.URL.Query().Get("search"), h.maxPageSize)
	if err != nil {
		h.logger.Error("do-not-contact listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "do-not-contact listing failed")
		return
	}
	writeJSON(w, r, http.StatusOK, sites)
}

// HandleDictionary handles GET /v1/dictionary: every table and view in the
// site database.
func (h *Handlers) HandleDictionary(w http.ResponseWriter, r *http.Request) {
	relations, err := h.db.ListRelations(r.Context())
	if err != nil {
		h.logger.Error("dictionary listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "dictionary listing failed")
		return
	}
	writeJSON(w, r, http.StatusOK, relations)
}

// HandleDictionaryRelation handles GET /v1/dictionary/{name}: one
// relation's columns, row count, and a capped row sample.
func (h *Handlers) HandleDictionaryRelation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	detail, err := h.db.DescribeRelation(r.Context(), name, 100)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "relation not found")
			return
		}
		h.logger.Error("describe relation failed", "relation", name, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "describe relation failed")
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}
