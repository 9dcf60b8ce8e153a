package consent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

// mutation describes one state change of a record.
type mutation struct {
	name   string
	action domain.AuditAction
	actor  string

	// apply changes rec in memory. Returning false leaves the record
	// unwritten and unaudited.
	apply func(rec *domain.ConsentRecord, now time.Time) (bool, error)

	// changes lists the audit fields besides the status move.
	changes func(rec domain.ConsentRecord) map[string]any

	// expireWhenDue persists the expired status when apply reports a past
	// due record, before returning domain.ErrRecordExpired.
	expireWhenDue bool

	// retryDuplicate re-runs apply when the write hits a unique violation.
	retryDuplicate bool
}

// mutate reads the record, applies m and writes it back guarded by the
// version it read, in one transaction with the audit record. A concurrent
// writer makes the guard fail; the change is then re-evaluated against the
// fresh state, so of two racing transitions only one can win.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, m mutation) (domain.ConsentRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		rec, err := s.mutateOnce(ctx, id, m)
		if err == nil {
			return rec, nil
		}
		retry := errors.Is(err, domain.ErrConflict) ||
			(m.retryDuplicate && errors.Is(err, domain.ErrAlreadyExists))
		if !retry {
			return domain.ConsentRecord{}, err
		}
		lastErr = err
		s.log.DebugContext(ctx, "record changed concurrently, retrying",
			slog.String("record_id", id.String()),
			slog.String("op", m.name),
			slog.Int("attempt", attempt),
		)
	}
	return domain.ConsentRecord{}, fmt.Errorf("%s record %s: %w", m.name, id, lastErr)
}

func (s *Service) mutateOnce(ctx context.Context, id uuid.UUID, m mutation) (domain.ConsentRecord, error) {
	var (
		result  domain.ConsentRecord
		outcome error
		from    domain.RecordStatus
		changed bool
	)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()

		rec, err := s.records.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		from = rec.Status

		next := rec
		changed, err = m.apply(&next, now)
		if errors.Is(err, domain.ErrRecordExpired) && m.expireWhenDue && !rec.Status.IsTerminal() {
			// Commit the expiry, then report the failed operation.
			outcome = err
			next = rec
			if expErr := next.Expire(now); expErr != nil {
				return fmt.Errorf("expire record: %w", expErr)
			}
			result, err = s.records.Update(txCtx, next)
			if err != nil {
				return fmt.Errorf("update record: %w", err)
			}
			changed = true
			return s.audit.Log(txCtx, s.auditRecord(m.actor, id, domain.AuditActionExpire, statusChange(from, result.Status), now))
		}
		if err != nil {
			return err
		}
		if !changed {
			result = rec
			return nil
		}

		result, err = s.records.Update(txCtx, next)
		if err != nil {
			return fmt.Errorf("update record: %w", err)
		}

		changes := statusChange(from, result.Status)
		if m.changes != nil {
			for k, v := range m.changes(result) {
				changes[k] = v
			}
		}
		if err := s.audit.Log(txCtx, s.auditRecord(m.actor, id, m.action, changes, now)); err != nil {
			return fmt.Errorf("audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.ConsentRecord{}, err
	}

	if changed && from != result.Status {
		if result.Status == domain.RecordStatusExpired {
			s.metrics.Expired(from, 1)
		} else {
			s.metrics.Transition(m.name, result.Status)
		}
		s.log.InfoContext(ctx, "consent record transitioned",
			slog.String("record_id", id.String()),
			slog.String("from", string(from)),
			slog.String("to", string(result.Status)),
			slog.String("actor", m.actor),
		)
	}
	if outcome != nil {
		return domain.ConsentRecord{}, fmt.Errorf("%s record %s: %w", m.name, id, outcome)
	}
	return result, nil
}

func statusChange(from, to domain.RecordStatus) map[string]any {
	changes := map[string]any{}
	if from != to {
		changes["status"] = map[string]any{"old": string(from), "new": string(to)}
	}
	return changes
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func sendMutation(actor string, method domain.DeliveryMethod) mutation {
	return mutation{
		name: "send", action: domain.AuditActionSend, actor: actor,
		apply: func(rec *domain.ConsentRecord, now time.Time) (bool, error) {
			return true, rec.MarkSent(actor, method, now)
		},
		changes: func(rec domain.ConsentRecord) map[string]any {
			return map[string]any{"delivery_method": string(*rec.DeliveryMethod), "sent_by": actor}
		},
	}
}

func viewMutation(actor string) mutation {
	return mutation{
		name: "view", action: domain.AuditActionView, actor: actor,
		apply: func(rec *domain.ConsentRecord, now time.Time) (bool, error) {
			return rec.MarkViewed(now)
		},
	}
}

func signMutation(actor string, data domain.SignatureData) mutation {
	return mutation{
		name: "sign", action: domain.AuditActionSign, actor: actor,
		expireWhenDue: true,
		apply: func(rec *domain.ConsentRecord, now time.Time) (bool, error) {
			return true, rec.Sign(data, now)
		},
		changes: func(rec domain.ConsentRecord) map[string]any {
			return map[string]any{
				"evidence_hash": *rec.EvidenceHash,
				"signed_at":     *rec.SignedAt,
				"ip":            *rec.IP,
				"witness":       rec.Witness != nil,
			}
		},
	}
}

func rejectMutation(actor, reason string) mutation {
	return mutation{
		name: "reject", action: domain.AuditActionReject, actor: actor,
		apply: func(rec *domain.ConsentRecord, now time.Time) (bool, error) {
			return true, rec.Reject(reason, now)
		},
		changes: func(rec domain.ConsentRecord) map[string]any {
			if rec.RejectionReason == nil {
				return nil
			}
			return map[string]any{"reason": *rec.RejectionReason}
		},
	}
}
