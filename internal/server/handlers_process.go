package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/restorical/ecosight/internal/model"
	"github.com/restorical/ecosight/internal/processing"
)

// processStatusResponse reports the cooldown gate state.
type processStatusResponse struct {
	Active           bool   `json:"active"`
	SiteID           string `json:"site_id,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
}

func statusResponse(st processing.GateStatus) processStatusResponse {
	return processStatusResponse{
		Active:           st.Active,
		SiteID:           st.SiteID,
		RemainingSeconds: int64(st.Remaining.Seconds()),
	}
}

// HandleProcessSite handles POST /v1/process/{site_id}: acquires the
// cooldown gate and triggers the external processing service. A trigger
// that times out counts as queued and keeps the gate; a hard failure
// releases it so the site can be retried.
func (h *Handlers) HandleProcessSite(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil || h.gate == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeInternalError, "processing is not configured")
		return
	}
	siteID := r.PathValue("site_id")

	ok, st := h.gate.Acquire(siteID)
	if !ok {
		writeError(w, r, http.StatusConflict, model.ErrCodeConflict,
			fmt.Sprintf("processing %s, retry in %ds", st.SiteID, int64(st.Remaining.Seconds())))
		return
	}

	err := h.processor.Trigger(r.Context(), siteID)
	switch {
	case err == nil:
		h.logger.Info("processing triggered", "site_id", siteID)
		writeJSON(w, r, http.StatusOK, statusResponse(h.gate.Status()))
	case errors.Is(err, processing.ErrQueued):
		// The service is still working; the gate holds for the full window.
		h.logger.Info("processing queued", "site_id", siteID)
		writeJSON(w, r, http.StatusAccepted, statusResponse(h.gate.Status()))
	default:
		h.gate.Release(siteID)
		h.logger.Error("processing trigger failed", "site_id", siteID, "error", err)
		writeError(w, r, http.StatusBadGateway, model.ErrCodeInternalError, "processing trigger failed")
	}
}

// HandleProcessStatus handles GET /v1/process/status.
func (h *Handlers) HandleProcessStatus(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		writeJSON(w, r, http.StatusOK, processStatusResponse{})
		return
	}
	writeJSON(w, r, http.StatusOK, statusResponse(h.gate.Status()))
}
