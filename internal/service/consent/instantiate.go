package consent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/pkg/ctxutil"
)

// Instantiate issues a pending record from an active, currently valid
// template. The template is copied into the record so later edits to it do
// not reach records already issued.
func (s *Service) Instantiate(ctx context.Context, input InstantiateInput) (domain.ConsentRecord, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentRecord{}, domain.ErrUnauthorized
	}

	now := s.clock.Now()
	if err := input.Validate(now); err != nil {
		return domain.ConsentRecord{}, err
	}

	tpl, err := s.templates.GetByID(ctx, input.TemplateID)
	if err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("get template: %w", err)
	}
	if !tpl.Active {
		return domain.ConsentRecord{}, fmt.Errorf("template %s is inactive: %w", tpl.ID, domain.ErrInvalidTemplate)
	}
	if !tpl.IsCurrentlyValid(now) {
		return domain.ConsentRecord{}, fmt.Errorf("template %s is outside its validity window: %w", tpl.ID, domain.ErrInvalidTemplate)
	}

	expiresAt := now.Add(time.Duration(tpl.ExpirationDays) * 24 * time.Hour)
	if input.ExpiresAt != nil {
		expiresAt = input.ExpiresAt.UTC()
	}

	rec := domain.ConsentRecord{
		ID:         uuid.New(),
		PatientID:  strings.TrimSpace(input.PatientID),
		TemplateID: tpl.ID,
		Patient: domain.PatientSnapshot{
			Name:  strings.TrimSpace(input.Patient.Name),
			DNI:   trimOrNil(input.Patient.DNI),
			Email: trimOrNil(input.Patient.Email),
			Phone: trimOrNil(input.Patient.Phone),
		},
		Template: domain.TemplateSnapshot{
			Name:                   tpl.Name,
			Version:                tpl.Version,
			Content:                tpl.Content,
			Category:               tpl.Category,
			LegalCode:              tpl.LegalCode,
			RequiresWitness:        tpl.RequiresWitness,
			AllowsDigitalSignature: tpl.AllowsDigitalSignature,
		},
		Status:         domain.RecordStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      &expiresAt,
		DeliveryMethod: input.DeliveryMethod,
		TokenExpiresAt: &expiresAt,
		CreatedBy:      actor,
		Notes:          trimOrNil(input.Notes),
		Version:        1,
	}

	var created domain.ConsentRecord
	for attempt := 1; ; attempt++ {
		token, tokErr := s.tokens.Generate()
		if tokErr != nil {
			return domain.ConsentRecord{}, fmt.Errorf("generate access token: %w", tokErr)
		}
		rec.AccessToken = &token

		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var createErr error
			created, createErr = s.records.Create(txCtx, rec)
			if createErr != nil {
				return fmt.Errorf("create record: %w", createErr)
			}

			return s.audit.Log(txCtx, s.auditRecord(actor, created.ID, domain.AuditActionCreate, map[string]any{
				"status":           map[string]any{"new": string(created.Status)},
				"template_id":      tpl.ID.String(),
				"template_version": tpl.Version,
				"patient_id":       created.PatientID,
				"expires_at":       expiresAt,
			}, now))
		})
		if err == nil {
			break
		}
		// Record ids are fresh UUIDs, so a unique violation is the token.
		if !errors.Is(err, domain.ErrAlreadyExists) || attempt == maxTokenRetries {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ConsentRecord{}, fmt.Errorf("access token collision: %w", domain.ErrConflict)
			}
			return domain.ConsentRecord{}, err
		}
		s.log.WarnContext(ctx, "access token collision, regenerating", slog.Int("attempt", attempt))
	}

	s.metrics.Transition("instantiate", created.Status)
	s.log.InfoContext(ctx, "consent record issued",
		slog.String("record_id", created.ID.String()),
		slog.String("template_id", tpl.ID.String()),
		slog.String("patient_id", created.PatientID),
		slog.Time("expires_at", expiresAt),
	)
	return created, nil
}
