package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"donation-platform/internal/models"
	"donation-platform/internal/services"
)

// PublicHandler serves the published targets the donation drawer lists
type PublicHandler struct {
	targets services.TargetServiceInterface
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(targets services.TargetServiceInterface) *PublicHandler {
	return &PublicHandler{targets: targets}
}

func publicQuery(r *http.Request) services.TargetQuery {
	return services.TargetQuery{
		Search:  r.URL.Query().Get("q"),
		Status:  models.TargetActive,
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 0),
	}
}

// ListCampaigns handles GET /campaigns
func (h *PublicHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	items, page, err := h.targets.ListCampaigns(r.Context(), publicQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: items, Meta: page})
}

// ListPrograms handles GET /programs
func (h *PublicHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	items, page, err := h.targets.ListPrograms(r.Context(), publicQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: items, Meta: page})
}

// ListPatients handles GET /patients
func (h *PublicHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	items, page, err := h.targets.ListPatients(r.Context(), publicQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: items, Meta: page})
}

// GetCampaign handles GET /campaigns/{slug}
func (h *PublicHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.targets.GetCampaign(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetProgram handles GET /programs/{slug}
func (h *PublicHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := h.targets.GetProgram(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetPatient handles GET /patients/{slug}
func (h *PublicHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.targets.GetPatient(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Health handles GET /health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
