package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/internal/transport/middleware"
)

type publicService interface {
	OpenByToken(ctx context.Context, token string) (domain.ConsentRecord, error)
	SignByToken(ctx context.Context, token string, data domain.SignatureData) (domain.ConsentRecord, error)
	RejectByToken(ctx context.Context, token, reason string) (domain.ConsentRecord, error)
}

// PublicHandler serves the patient-facing, token-addressed endpoints.
type PublicHandler struct {
	svc publicService
	log *slog.Logger
}

// NewPublicHandler creates a PublicHandler.
func NewPublicHandler(svc publicService, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, log: logger}
}

// Open handles GET /public/consents/{token}. Opening the link marks the
// record viewed.
func (h *PublicHandler) Open(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.OpenByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicRecordResponse(rec))
}

// Sign handles POST /public/consents/{token}/sign.
func (h *PublicHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	data := req.toDomain(middleware.ClientIP(r), r.UserAgent())
	rec, err := h.svc.SignByToken(r.Context(), chi.URLParam(r, "token"), data)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicRecordResponse(rec))
}

// Reject handles POST /public/consents/{token}/reject.
func (h *PublicHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	rec, err := h.svc.RejectByToken(r.Context(), chi.URLParam(r, "token"), req.Reason)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicRecordResponse(rec))
}
