package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/pkg/ctxutil"
)

// MarkSent records that the access link was delivered to the patient.
// An empty method means email.
func (s *Service) MarkSent(ctx context.Context, id uuid.UUID, method domain.DeliveryMethod) (domain.ConsentRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentRecord{}, domain.ErrUnauthorized
	}
	return s.mutate(ctx, id, sendMutation(actor, method))
}

// MarkViewed records that the patient opened the record. Records not in
// sent status are returned unchanged.
func (s *Service) MarkViewed(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentRecord{}, domain.ErrUnauthorized
	}
	return s.mutate(ctx, id, viewMutation(actor))
}

// Sign seals a record signed in the clinic. Signing a past due record
// persists it as expired and fails with domain.ErrRecordExpired.
func (s *Service) Sign(ctx context.Context, id uuid.UUID, data domain.SignatureData) (domain.ConsentRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentRecord{}, domain.ErrUnauthorized
	}
	return s.mutate(ctx, id, signMutation(actor, data))
}

// Reject records the patient's refusal taken by staff.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (domain.ConsentRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentRecord{}, domain.ErrUnauthorized
	}
	return s.mutate(ctx, id, rejectMutation(actor, reason))
}

// RegenerateToken replaces the access token of a non-terminal record with
// a short-lived one and resets its attempt counter.
func (s *Service) RegenerateToken(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentRecord{}, domain.ErrUnauthorized
	}

	return s.mutate(ctx, id, mutation{
		name: "regenerate_token", action: domain.AuditActionToken, actor: actor,
		retryDuplicate: true,
		apply: func(rec *domain.ConsentRecord, now time.Time) (bool, error) {
			token, err := s.tokens.Generate()
			if err != nil {
				return false, fmt.Errorf("generate access token: %w", err)
			}
			return true, rec.RegenerateToken(token, s.cfg.RegeneratedTokenTTL, now)
		},
		changes: func(rec domain.ConsentRecord) map[string]any {
			return map[string]any{"token_expires_at": *rec.TokenExpiresAt}
		},
	})
}

// RecordReminder counts a reminder sent to a patient who has not answered.
func (s *Service) RecordReminder(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentRecord{}, domain.ErrUnauthorized
	}

	return s.mutate(ctx, id, mutation{
		name: "remind", action: domain.AuditActionReminder, actor: actor,
		apply: func(rec *domain.ConsentRecord, now time.Time) (bool, error) {
			return true, rec.RecordReminder(now)
		},
		changes: func(rec domain.ConsentRecord) map[string]any {
			return map[string]any{"reminders_sent": rec.RemindersSent}
		},
	})
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns one page of records matching f, newest first.
func (s *Service) List(ctx context.Context, f domain.RecordFilter) (ListResult, error) {
	if f.Status != nil && !f.Status.IsValid() {
		return ListResult{}, domain.NewValidationError("status", "invalid value")
	}
	if f.DeliveryMethod != nil && !f.DeliveryMethod.IsValid() {
		return ListResult{}, domain.NewValidationError("delivery_method", "invalid value")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && !f.CreatedTo.After(*f.CreatedFrom) {
		return ListResult{}, domain.NewValidationError("created_to", "must be after created_from")
	}
	f.Limit, f.Offset = domain.NormalizePage(f.Limit, f.Offset)

	items, total, err := s.records.List(ctx, f)
	if err != nil {
		return ListResult{}, fmt.Errorf("list records: %w", err)
	}
	return ListResult{Items: items, Total: total}, nil
}

// VerifyEvidence recomputes the evidence hash of a signed record and
// reports whether it still matches the sealed value.
func (s *Service) VerifyEvidence(ctx context.Context, id uuid.UUID) (EvidenceCheck, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return EvidenceCheck{}, fmt.Errorf("get record: %w", err)
	}

	valid, err := rec.VerifyEvidence()
	if err != nil {
		return EvidenceCheck{}, err
	}
	if !valid {
		s.log.WarnContext(ctx, "evidence hash mismatch", "record_id", id.String())
	}
	return EvidenceCheck{RecordID: id, Hash: *rec.EvidenceHash, Valid: valid}, nil
}

// Stats returns record counts by status, overall and per month of creation
// over the last domain.StatsMonths months.
func (s *Service) Stats(ctx context.Context) (domain.RecordStats, error) {
	byStatus, err := s.records.CountByStatus(ctx)
	if err != nil {
		return domain.RecordStats{}, fmt.Errorf("count records by status: %w", err)
	}

	now := s.clock.Now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(domain.StatsMonths - 1), 0)
	byMonth, err := s.records.CountByMonth(ctx, since)
	if err != nil {
		return domain.RecordStats{}, fmt.Errorf("count records by month: %w", err)
	}

	stats := domain.RecordStats{ByStatus: byStatus, ByMonth: byMonth}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}

// History returns the audit trail of a record, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	if _, err := s.records.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	items, err := s.audit.GetByEntity(ctx, domain.EntityTypeRecord, id, limit)
	if err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}
	return items, nil
}
