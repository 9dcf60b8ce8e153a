package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/internal/service/template"
)

// historyLimit caps audit history responses.
const historyLimit = 200

type templateService interface {
	Create(ctx context.Context, input template.CreateInput) (domain.ConsentTemplate, error)
	CreateNewVersion(ctx context.Context, input template.NewVersionInput) (domain.ConsentTemplate, error)
	Update(ctx context.Context, input template.UpdateInput) (domain.ConsentTemplate, error)
	Deactivate(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
	Approve(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
	Get(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
	List(ctx context.Context, f domain.TemplateFilter) (template.ListResult, error)
	ListActive(ctx context.Context, category *domain.Category) ([]domain.ConsentTemplate, error)
	ListVersions(ctx context.Context, name string, category domain.Category) ([]domain.ConsentTemplate, error)
	Stats(ctx context.Context) (domain.TemplateStats, error)
	History(ctx context.Context, id uuid.UUID, limit int) ([]domain.AuditRecord, error)
}

// TemplateHandler serves the template catalogue.
type TemplateHandler struct {
	svc templateService
	now func() time.Time
	log *slog.Logger
}

// NewTemplateHandler creates a TemplateHandler. now stamps the effective
// status on reads.
func NewTemplateHandler(svc templateService, now func() time.Time, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{svc: svc, now: now, log: logger}
}

func (h *TemplateHandler) render(w http.ResponseWriter, status int, t domain.ConsentTemplate) {
	writeJSON(w, status, toTemplateResponse(t, h.now()))
}

func (h *TemplateHandler) renderList(w http.ResponseWriter, items []domain.ConsentTemplate) {
	now := h.now()
	writeJSON(w, http.StatusOK, mapSlice(items, func(t domain.ConsentTemplate) templateResponse {
		return toTemplateResponse(t, now)
	}))
}

// Create handles POST /templates.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	allowsDigital := true
	if req.AllowsDigitalSignature != nil {
		allowsDigital = *req.AllowsDigitalSignature
	}

	tpl, err := h.svc.Create(r.Context(), template.CreateInput{
		Name:                   req.Name,
		Category:               domain.Category(req.Category),
		Version:                req.Version,
		Content:                req.Content,
		Mandatory:              req.Mandatory,
		ValidFrom:              req.ValidFrom,
		ValidUntil:             req.ValidUntil,
		RequiresWitness:        req.RequiresWitness,
		AllowsDigitalSignature: allowsDigital,
		ExpirationDays:         req.ExpirationDays,
		LegalCode:              req.LegalCode,
		LegalBasis:             req.LegalBasis,
		Tags:                   req.Tags,
		Language:               domain.Language(req.Language),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusCreated, tpl)
}

// List handles GET /templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := domain.TemplateFilter{
		Active:    q.boolean("active"),
		Mandatory: q.boolean("mandatory"),
		Search:    q.str("search"),
		Tag:       q.str("tag"),
		Limit:     q.integer("limit"),
		Offset:    q.integer("offset"),
	}
	if c := q.str("category"); c != nil {
		cat := domain.Category(*c)
		f.Category = &cat
	}
	if l := q.str("language"); l != nil {
		lang := domain.Language(*l)
		f.Language = &lang
	}
	if err := q.err(); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	res, err := h.svc.List(r.Context(), f)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	limit, offset := domain.NormalizePage(f.Limit, f.Offset)
	now := h.now()
	writeJSON(w, http.StatusOK, listResponse[templateResponse]{
		Items: mapSlice(res.Items, func(t domain.ConsentTemplate) templateResponse {
			return toTemplateResponse(t, now)
		}),
		Total:  res.Total,
		Limit:  limit,
		Offset: offset,
	})
}

// ListActive handles GET /templates/active.
func (h *TemplateHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	var category *domain.Category
	if c := newQuery(r).str("category"); c != nil {
		cat := domain.Category(*c)
		category = &cat
	}

	items, err := h.svc.ListActive(r.Context(), category)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.renderList(w, items)
}

// ListVersions handles GET /templates/versions?name=&category=.
func (h *TemplateHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	items, err := h.svc.ListVersions(r.Context(), q.get("name"), domain.Category(q.get("category")))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.renderList(w, items)
}

// Stats handles GET /templates/stats.
func (h *TemplateHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateStatsResponse(stats))
}

// Get handles GET /templates/{id}.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	tpl, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusOK, tpl)
}

// Update handles PUT /templates/{id}.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateTemplateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	input := template.UpdateInput{
		ID:                     id,
		Name:                   req.Name,
		Content:                req.Content,
		Active:                 req.Active,
		Mandatory:              req.Mandatory,
		ValidFrom:              req.ValidFrom,
		ValidUntil:             req.ValidUntil,
		ClearValidUntil:        req.ClearValidUntil,
		RequiresWitness:        req.RequiresWitness,
		AllowsDigitalSignature: req.AllowsDigitalSignature,
		ExpirationDays:         req.ExpirationDays,
		LegalCode:              req.LegalCode,
		LegalBasis:             req.LegalBasis,
		Tags:                   req.Tags,
	}
	if req.Language != nil {
		lang := domain.Language(*req.Language)
		input.Language = &lang
	}

	tpl, err := h.svc.Update(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusOK, tpl)
}

// CreateVersion handles POST /templates/{id}/versions.
func (h *TemplateHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req newVersionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	tpl, err := h.svc.CreateNewVersion(r.Context(), template.NewVersionInput{
		SourceID:     id,
		Version:      req.Version,
		ChangeReason: req.ChangeReason,
		Content:      req.Content,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusCreated, tpl)
}

// Deactivate handles POST /templates/{id}/deactivate.
func (h *TemplateHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.svc.Deactivate)
}

// Approve handles POST /templates/{id}/approve.
func (h *TemplateHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.svc.Approve)
}

// History handles GET /templates/{id}/audit.
func (h *TemplateHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	entries, err := h.svc.History(r.Context(), id, historyLimit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(entries, toAuditResponse))
}

func (h *TemplateHandler) byID(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (domain.ConsentTemplate, error)) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	tpl, err := op(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusOK, tpl)
}
