package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"donation-platform/internal/middleware"
	"donation-platform/internal/models"
	"donation-platform/internal/repositories"
	"donation-platform/internal/services"
)

const (
	maxImageUpload  = 10 << 20
	defaultAuditPer = 50
	maxAuditPer     = 200
)

// AdminHandler serves the back-office API
type AdminHandler struct {
	targets   services.TargetServiceInterface
	donations services.DonationServiceInterface
	audit     services.AuditServiceInterface
	now       func() time.Time
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(targets services.TargetServiceInterface, donations services.DonationServiceInterface, audit services.AuditServiceInterface) *AdminHandler {
	return &AdminHandler{
		targets:   targets,
		donations: donations,
		audit:     audit,
		now:       time.Now,
	}
}

// collectionCategory maps the {collection} route segment to its category
func collectionCategory(r *http.Request) (models.DonationCategory, error) {
	switch chi.URLParam(r, "collection") {
	case "campaigns":
		return models.CategoryCampaign, nil
	case "programs":
		return models.CategoryProgram, nil
	case "patients":
		return models.CategoryPatient, nil
	}
	return "", fmt.Errorf("%w: unknown collection %q", models.ErrInvalidCategory, chi.URLParam(r, "collection"))
}

func (h *AdminHandler) record(r *http.Request, action, targetType string, targetID int, details interface{}) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		return
	}
	if err := h.audit.LogAction(r.Context(), user.ID, action, targetType, targetID, details, r); err != nil {
		log.Printf("Failed to audit %s of %s %d by user %d: %v", action, targetType, targetID, user.ID, err)
	}
}

// ListTargets handles GET /admin/{collection}; every status is listed unless
// status narrows it
func (h *AdminHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	category, err := collectionCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := models.TargetStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		writeError(w, r, models.ValidationErrors{"status": {"must be one of draft, active, closed"}})
		return
	}
	q := services.TargetQuery{
		Search:  r.URL.Query().Get("q"),
		Status:  status,
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 0),
	}

	var items interface{}
	var page models.Page
	switch category {
	case models.CategoryCampaign:
		items, page, err = h.targets.ListCampaigns(r.Context(), q)
	case models.CategoryProgram:
		items, page, err = h.targets.ListPrograms(r.Context(), q)
	case models.CategoryPatient:
		items, page, err = h.targets.ListPatients(r.Context(), q)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: items, Meta: page})
}

// CreateTarget handles POST /admin/{collection}
func (h *AdminHandler) CreateTarget(w http.ResponseWriter, r *http.Request) {
	h.saveTarget(w, r, 0)
}

// UpdateTarget handles PUT /admin/{collection}/{id}
func (h *AdminHandler) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.saveTarget(w, r, id)
}

// saveTarget creates a target when id is 0 and updates it otherwise
func (h *AdminHandler) saveTarget(w http.ResponseWriter, r *http.Request, id int) {
	category, err := collectionCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var saved interface{}
	var savedID int
	var title string
	ctx := r.Context()

	switch category {
	case models.CategoryCampaign:
		var in models.CampaignInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		var c *models.Campaign
		if id == 0 {
			c, err = h.targets.CreateCampaign(ctx, &in)
		} else {
			c, err = h.targets.UpdateCampaign(ctx, id, &in)
		}
		if err == nil {
			saved, savedID, title = c, c.ID, c.Title
		}
	case models.CategoryProgram:
		var in models.ProgramInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		var p *models.Program
		if id == 0 {
			p, err = h.targets.CreateProgram(ctx, &in)
		} else {
			p, err = h.targets.UpdateProgram(ctx, id, &in)
		}
		if err == nil {
			saved, savedID, title = p, p.ID, p.Title
		}
	case models.CategoryPatient:
		var in models.PatientInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		var p *models.Patient
		if id == 0 {
			p, err = h.targets.CreatePatient(ctx, &in)
		} else {
			p, err = h.targets.UpdatePatient(ctx, id, &in)
		}
		if err == nil {
			saved, savedID, title = p, p.ID, p.Name
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	action, status := models.AuditActionCreate, http.StatusCreated
	if id != 0 {
		action, status = models.AuditActionUpdate, http.StatusOK
	}
	h.record(r, action, string(category), savedID, map[string]string{"title": title})
	writeJSON(w, status, saved)
}

// DeleteTarget handles DELETE /admin/{collection}/{id}
func (h *AdminHandler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	category, err := collectionCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.targets.DeleteTarget(r.Context(), category, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, models.AuditActionDelete, string(category), id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// UploadTargetImage handles POST /admin/{collection}/{id}/image with a
// multipart "image" file
func (h *AdminHandler) UploadTargetImage(w http.ResponseWriter, r *http.Request) {
	category, err := collectionCategory(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload+1<<20)
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		writeError(w, r, models.ValidationErrors{"image": {"must be a multipart upload of at most 10MB"}})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, models.ValidationErrors{"image": {"is required"}})
		return
	}
	defer file.Close()

	url, err := h.targets.SetTargetImage(r.Context(), category, id, file, header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.record(r, models.AuditActionImageUpload, string(category), id, map[string]string{"image_url": url})
	writeJSON(w, http.StatusOK, map[string]string{"image_url": url})
}

func donationQuery(r *http.Request) (services.DonationQuery, error) {
	q := services.DonationQuery{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 0),
	}
	errs := models.ValidationErrors{}

	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		q.Status = models.DonationStatus(s)
		if !q.Status.Valid() {
			errs.Add("status", "is not a donation status")
		}
	}
	if c := r.URL.Query().Get("category"); c != "" {
		category, err := models.ParseCategory(c)
		if err != nil {
			errs.Add("category", "is not a donation category")
		}
		q.Category = category
	}
	if v := r.URL.Query().Get("target_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			errs.Add("target_id", "must be a positive integer")
		}
		q.TargetID = &id
	}

	var err error
	if q.From, err = queryDate(r, "from", false); err != nil {
		errs.Add("from", "must be a date formatted YYYY-MM-DD")
	}
	if q.To, err = queryDate(r, "to", true); err != nil {
		errs.Add("to", "must be a date formatted YYYY-MM-DD")
	}

	if len(errs) > 0 {
		return q, errs
	}
	return q, nil
}

// ListDonations handles GET /admin/donations
func (h *AdminHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	q, err := donationQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	donations, page, err := h.donations.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: donations, Meta: page})
}

// ExportDonations handles GET /admin/donations/export, answering with an
// XLSX workbook of every donation matching the filters
func (h *AdminHandler) ExportDonations(w http.ResponseWriter, r *http.Request) {
	q, err := donationQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Buffered so a failure halfway still produces a JSON error
	var buf bytes.Buffer
	count, err := h.donations.ExportXLSX(r.Context(), q, &buf)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.record(r, models.AuditActionExport, models.AuditTargetDonation, 0, map[string]interface{}{
		"rows":     count,
		"status":   q.Status,
		"category": q.Category,
	})

	filename := fmt.Sprintf("donations-%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Failed to send donation export: %v", err)
	}
}

// ListAuditLogs handles GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, perPage := models.NormalizePaging(queryInt(r, "page", 1), queryInt(r, "per_page", 0), defaultAuditPer, maxAuditPer)

	logs, total, err := h.audit.List(r.Context(), repositories.AuditLogFilter{
		Action:     r.URL.Query().Get("action"),
		TargetType: r.URL.Query().Get("target_type"),
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: logs, Meta: models.Page{Page: page, PerPage: perPage, Total: total}})
}
