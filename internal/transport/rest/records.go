package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/internal/service/consent"
	"github.com/heartmarshall/clinic-consent/internal/transport/middleware"
)

type recordService interface {
	Instantiate(ctx context.Context, input consent.InstantiateInput) (domain.ConsentRecord, error)
	MarkSent(ctx context.Context, id uuid.UUID, method domain.DeliveryMethod) (domain.ConsentRecord, error)
	MarkViewed(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error)
	Sign(ctx context.Context, id uuid.UUID, data domain.SignatureData) (domain.ConsentRecord, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (domain.ConsentRecord, error)
	RegenerateToken(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error)
	RecordReminder(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error)
	Get(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error)
	List(ctx context.Context, f domain.RecordFilter) (consent.ListResult, error)
	VerifyEvidence(ctx context.Context, id uuid.UUID) (consent.EvidenceCheck, error)
	Stats(ctx context.Context) (domain.RecordStats, error)
	History(ctx context.Context, id uuid.UUID, limit int) ([]domain.AuditRecord, error)
	SweepExpired(ctx context.Context) (consent.SweepResult, error)
}

// RecordHandler serves staff operations on consent records.
type RecordHandler struct {
	svc recordService
	now func() time.Time
	log *slog.Logger
}

// NewRecordHandler creates a RecordHandler.
func NewRecordHandler(svc recordService, now func() time.Time, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{svc: svc, now: now, log: logger}
}

func (h *RecordHandler) render(w http.ResponseWriter, status int, rec domain.ConsentRecord) {
	writeJSON(w, status, toRecordResponse(rec, h.now()))
}

// Create handles POST /records.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req instantiateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("templateId", "must be a UUID"))
		return
	}

	input := consent.InstantiateInput{
		TemplateID: templateID,
		PatientID:  req.PatientID,
		Patient:    req.Patient.toDomain(),
		ExpiresAt:  req.ExpiresAt,
		Notes:      req.Notes,
	}
	if req.DeliveryMethod != nil {
		m := domain.DeliveryMethod(*req.DeliveryMethod)
		input.DeliveryMethod = &m
	}

	rec, err := h.svc.Instantiate(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusCreated, rec)
}

// List handles GET /records.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := domain.RecordFilter{
		PatientID:   q.str("patientId"),
		TemplateID:  q.uuidParam("templateId"),
		CreatedFrom: q.timestamp("createdFrom"),
		CreatedTo:   q.timestamp("createdTo"),
		Limit:       q.integer("limit"),
		Offset:      q.integer("offset"),
	}
	if s := q.str("status"); s != nil {
		status := domain.RecordStatus(*s)
		f.Status = &status
	}
	if m := q.str("deliveryMethod"); m != nil {
		method := domain.DeliveryMethod(*m)
		f.DeliveryMethod = &method
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
	writeJSON(w, http.StatusOK, listResponse[recordResponse]{
		Items: mapSlice(res.Items, func(rec domain.ConsentRecord) recordResponse {
			return toRecordResponse(rec, now)
		}),
		Total:  res.Total,
		Limit:  limit,
		Offset: offset,
	})
}

// Stats handles GET /records/stats.
func (h *RecordHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordStatsResponse(stats))
}

// Get handles GET /records/{id}.
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.svc.Get)
}

// Send handles POST /records/{id}/send.
func (h *RecordHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req sendRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	rec, err := h.svc.MarkSent(r.Context(), id, domain.DeliveryMethod(req.DeliveryMethod))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusOK, rec)
}

// View handles POST /records/{id}/view.
func (h *RecordHandler) View(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.svc.MarkViewed)
}

// Sign handles POST /records/{id}/sign, the in-clinic signature collected
// by staff on the patient's behalf.
func (h *RecordHandler) Sign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req signRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	rec, err := h.svc.Sign(r.Context(), id, req.toDomain(middleware.ClientIP(r), r.UserAgent()))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusOK, rec)
}

// Reject handles POST /records/{id}/reject.
func (h *RecordHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req rejectRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	rec, err := h.svc.Reject(r.Context(), id, req.Reason)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusOK, rec)
}

// RegenerateToken handles POST /records/{id}/token.
func (h *RecordHandler) RegenerateToken(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.svc.RegenerateToken)
}

// Remind handles POST /records/{id}/reminders.
func (h *RecordHandler) Remind(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.svc.RecordReminder)
}

// Evidence handles GET /records/{id}/evidence.
func (h *RecordHandler) Evidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	check, err := h.svc.VerifyEvidence(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evidenceResponse{
		RecordID: check.RecordID.String(),
		Hash:     check.Hash,
		Valid:    check.Valid,
	})
}

// History handles GET /records/{id}/audit.
func (h *RecordHandler) History(w http.ResponseWriter, r *http.Request) {
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

// Sweep handles POST /admin/sweep, an on-demand run of the expiry sweep.
func (h *RecordHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SweepExpired(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "manual sweep", slog.Int("expired", res.Expired))
	writeJSON(w, http.StatusOK, toSweepResponse(res))
}

func (h *RecordHandler) byID(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (domain.ConsentRecord, error)) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	rec, err := op(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.render(w, http.StatusOK, rec)
}
