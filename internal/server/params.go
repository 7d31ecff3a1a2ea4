package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/restorical/ecosight/internal/storage"
)

// pagination clamps the limit/offset query parameters. The default page is
// the configured maximum, matching the fixed page size of the listing
// surfaces.
func (h *Handlers) pagination(r *http.Request) (limit, offset int, err error) {
	limit = h.maxPageSize
	offset = 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			return 0, 0, fmt.Errorf("invalid limit %q", v)
		}
		if limit > h.maxPageSize {
			limit = h.maxPageSize
		}
	}
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", v)
		}
	}
	return limit, offset, nil
}

// csvParam splits a comma-separated query parameter into trimmed non-empty
// values.
func csvParam(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolParam(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	return &b, nil
}

func intParam(r *http.Request, name string) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	return &n, nil
}

// intRangeParam reads <name>_min / <name>_max. Either bound alone implies a
// wide default for the other.
func intRangeParam(r *http.Request, name string) (*storage.IntRange, error) {
	minV, err := intParam(r, name+"_min")
	if err != nil {
		return nil, err
	}
	maxV, err := intParam(r, name+"_max")
	if err != nil {
		return nil, err
	}
	if minV == nil && maxV == nil {
		return nil, nil
	}
	rng := &storage.IntRange{Min: 0, Max: 1 << 30}
	if minV != nil {
		rng.Min = *minV
	}
	if maxV != nil {
		rng.Max = *maxV
	}
	return rng, nil
}

func floatRangeParam(r *http.Request, name string) (*storage.FloatRange, error) {
	q := r.URL.Query()
	minS, maxS := q.Get(name+"_min"), q.Get(name+"_max")
	if minS == "" && maxS == "" {
		return nil, nil
	}
	rng := &storage.FloatRange{Min: 0, Max: 1e9}
	if minS != "" {
		v, err := strconv.ParseFloat(minS, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s_min %q", name, minS)
		}
		rng.Min = v
	}
	if maxS != "" {
		v, err := strconv.ParseFloat(maxS, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s_max %q", name, maxS)
		}
		rng.Max = v
	}
	return rng, nil
}

// siteFilterFromQuery reads the shared site filter from the query string.
func siteFilterFromQuery(r *http.Request) (storage.SiteFilter, error) {
	q := r.URL.Query()
	f := storage.SiteFilter{
		Search:        strings.TrimSpace(q.Get("search")),
		DocumentTitle: strings.TrimSpace(q.Get("document_title")),
		Tiers:         csvParam(r, "tiers"),
		Media:         csvParam(r, "media"),
		MediaStatuses: csvParam(r, "media_statuses"),
		HistoricalUse: csvParam(r, "historical_use"),
		BatchNames:    csvParam(r, "batches"),
	}

	var err error
	if f.HasDocuments, err = boolParam(r, "has_documents"); err != nil {
		return storage.SiteFilter{}, err
	}
	if f.HasNarrative, err = boolParam(r, "has_narrative"); err != nil {
		return storage.SiteFilter{}, err
	}
	if f.Processed, err = boolParam(r, "processed"); err != nil {
		return storage.SiteFilter{}, err
	}
	if f.Narratives, err = intRangeParam(r, "narratives"); err != nil {
		return storage.SiteFilter{}, err
	}
	if f.Documents, err = intRangeParam(r, "documents"); err != nil {
		return storage.SiteFilter{}, err
	}
	if f.YearSpan, err = intRangeParam(r, "year_span"); err != nil {
		return storage.SiteFilter{}, err
	}
	if f.Score, err = intRangeParam(r, "score"); err != nil {
		return storage.SiteFilter{}, err
	}
	if f.AgeCheckScore, err = intParam(r, "age_check_score"); err != nil {
		return storage.SiteFilter{}, err
	}
	return f, nil
}

// contactFilterFromQuery reads the contact listing filter.
func contactFilterFromQuery(r *http.Request) (storage.ContactFilter, error) {
	f := storage.ContactFilter{
		SiteIDs: csvParam(r, "site_ids"),
		Roles:   csvParam(r, "roles"),
		Types:   csvParam(r, "types"),
		Tiers:   csvParam(r, "tiers"),
	}
	var err error
	if f.Primary, err = boolParam(r, "primary"); err != nil {
		return storage.ContactFilter{}, err
	}
	if f.Qualified, err = boolParam(r, "qualified"); err != nil {
		return storage.ContactFilter{}, err
	}
	if f.Confidence, err = floatRangeParam(r, "confidence"); err != nil {
		return storage.ContactFilter{}, err
	}
	if f.Priority, err = intRangeParam(r, "priority"); err != nil {
		return storage.ContactFilter{}, err
	}
	return f, nil
}

// customerFilterFromQuery reads the customer surface filter, widening the
// sites-per-customer range to the observed bounds when unset.
func (h *Handlers) customerFilterFromQuery(r *http.Request) (storage.CustomerFilter, error) {
	f := storage.CustomerFilter{
		Customers:     csvParam(r, "customers"),
		HistoricalUse: csvParam(r, "historical_use"),
	}
	rng, err := intRangeParam(r, "sites_per_customer")
	if err != nil {
		return storage.CustomerFilter{}, err
	}
	if rng != nil {
		f.SitesPerCustomer = *rng
		return f, nil
	}
	bounds, err := h.db.SitesPerCustomerBounds(r.Context())
	if err != nil {
		return storage.CustomerFilter{}, err
	}
	f.SitesPerCustomer = storage.IntRange{Min: bounds.Min, Max: bounds.Max}
	return f, nil
}
