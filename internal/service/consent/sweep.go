package consent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

// SweepExpired flips every past due, unanswered record to expired and
// audits each one, all in one transaction. Records being transitioned
// concurrently are skipped and left to the next sweep.
func (s *Service) SweepExpired(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()
	result := SweepResult{ByStatus: map[domain.RecordStatus]int{}}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		expired, err := s.records.ExpireDue(txCtx, now)
		if err != nil {
			return fmt.Errorf("expire due records: %w", err)
		}
		if len(expired) == 0 {
			return nil
		}

		audits := make([]domain.AuditRecord, len(expired))
		for i, e := range expired {
			audits[i] = s.auditRecord(SystemActor, e.ID, domain.AuditActionExpire,
				statusChange(e.PreviousStatus, domain.RecordStatusExpired), now)
			result.ByStatus[e.PreviousStatus]++
		}
		if err := s.audit.LogBatch(txCtx, audits); err != nil {
			return fmt.Errorf("audit log: %w", err)
		}

		result.Expired = len(expired)
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	for status, n := range result.ByStatus {
		s.metrics.Expired(status, n)
	}
	if result.Expired > 0 {
		s.log.InfoContext(ctx, "expired consent records",
			slog.Int("count", result.Expired),
			slog.Int("pending", result.ByStatus[domain.RecordStatusPending]),
			slog.Int("sent", result.ByStatus[domain.RecordStatusSent]),
			slog.Int("viewed", result.ByStatus[domain.RecordStatusViewed]),
		)
	}
	return result, nil
}
