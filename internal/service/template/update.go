package template

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/pkg/ctxutil"
)

// Update applies a partial change to a template. Records already issued
// from it keep their own snapshot and are not touched.
func (s *Service) Update(ctx context.Context, input UpdateInput) (domain.ConsentTemplate, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentTemplate{}, domain.ErrUnauthorized
	}
	if input.ID == uuid.Nil {
		return domain.ConsentTemplate{}, domain.NewValidationError("id", "required")
	}
	if input.empty() {
		return domain.ConsentTemplate{}, domain.NewValidationError("input", "at least one field must be provided")
	}

	updated, err := s.modify(ctx, input.ID, actor, domain.AuditActionUpdate, func(t *domain.ConsentTemplate) error {
		input.apply(t)
		return t.Validate()
	})
	if err != nil {
		return domain.ConsentTemplate{}, err
	}

	s.log.InfoContext(ctx, "template updated", slog.String("template_id", input.ID.String()))
	return updated, nil
}

// Deactivate takes a template out of circulation. Deactivating an inactive
// template succeeds without writing.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentTemplate{}, domain.ErrUnauthorized
	}

	updated, err := s.modify(ctx, id, actor, domain.AuditActionDeactivate, func(t *domain.ConsentTemplate) error {
		t.Active = false
		return nil
	})
	if err != nil {
		return domain.ConsentTemplate{}, err
	}

	s.log.InfoContext(ctx, "template deactivated", slog.String("template_id", id.String()))
	return updated, nil
}

// Approve stamps the acting user as approver.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentTemplate{}, domain.ErrUnauthorized
	}

	now := s.clock.Now()
	updated, err := s.modify(ctx, id, actor, domain.AuditActionApprove, func(t *domain.ConsentTemplate) error {
		t.ApprovedBy = &actor
		t.ApprovalDate = &now
		return nil
	})
	if err != nil {
		return domain.ConsentTemplate{}, err
	}

	s.log.InfoContext(ctx, "template approved",
		slog.String("template_id", id.String()),
		slog.String("approved_by", actor),
	)
	return updated, nil
}

// modify loads a template inside a transaction, applies fn and writes the
// result with an audit record of the changed fields. Nothing is written
// when fn leaves the template unchanged.
func (s *Service) modify(ctx context.Context, id uuid.UUID, actor string, action domain.AuditAction, fn func(*domain.ConsentTemplate) error) (domain.ConsentTemplate, error) {
	var updated domain.ConsentTemplate
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		old, getErr := s.templates.GetByID(txCtx, id)
		if getErr != nil {
			return fmt.Errorf("get template: %w", getErr)
		}

		next := old
		next.Tags = append([]string(nil), old.Tags...)
		if err := fn(&next); err != nil {
			return err
		}

		changes := buildTemplateChanges(old, next)
		if len(changes) == 0 {
			updated = old
			return nil
		}

		next.UpdatedAt = s.clock.Now()
		next.UpdatedBy = &actor

		var updateErr error
		updated, updateErr = s.templates.Update(txCtx, next)
		if updateErr != nil {
			if errors.Is(updateErr, domain.ErrAlreadyExists) {
				return fmt.Errorf("legal code already in use: %w", domain.ErrConflict)
			}
			return fmt.Errorf("update template: %w", updateErr)
		}

		if auditErr := s.logAudit(txCtx, actor, id, action, changes); auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return domain.ConsentTemplate{}, err
	}
	return updated, nil
}

// buildTemplateChanges returns only changed fields for audit.
func buildTemplateChanges(old, updated domain.ConsentTemplate) map[string]any {
	changes := make(map[string]any)
	diff := func(field string, a, b any) {
		changes[field] = map[string]any{"old": a, "new": b}
	}

	if old.Name != updated.Name {
		diff("name", old.Name, updated.Name)
	}
	if old.Content != updated.Content {
		// Content can be long; record only that it changed.
		changes["content"] = map[string]any{"changed": true}
	}
	if old.Active != updated.Active {
		diff("active", old.Active, updated.Active)
	}
	if old.Mandatory != updated.Mandatory {
		diff("mandatory", old.Mandatory, updated.Mandatory)
	}
	if !old.ValidFrom.Equal(updated.ValidFrom) {
		diff("valid_from", old.ValidFrom, updated.ValidFrom)
	}
	if !equalTime(old.ValidUntil, updated.ValidUntil) {
		diff("valid_until", old.ValidUntil, updated.ValidUntil)
	}
	if old.RequiresWitness != updated.RequiresWitness {
		diff("requires_witness", old.RequiresWitness, updated.RequiresWitness)
	}
	if old.AllowsDigitalSignature != updated.AllowsDigitalSignature {
		diff("allows_digital_signature", old.AllowsDigitalSignature, updated.AllowsDigitalSignature)
	}
	if old.ExpirationDays != updated.ExpirationDays {
		diff("expiration_days", old.ExpirationDays, updated.ExpirationDays)
	}
	if !equalString(old.LegalCode, updated.LegalCode) {
		diff("legal_code", old.LegalCode, updated.LegalCode)
	}
	if !equalString(old.LegalBasis, updated.LegalBasis) {
		diff("legal_basis", old.LegalBasis, updated.LegalBasis)
	}
	if !equalTags(old.Tags, updated.Tags) {
		diff("tags", old.Tags, updated.Tags)
	}
	if old.Language != updated.Language {
		diff("language", string(old.Language), string(updated.Language))
	}
	if !equalString(old.ApprovedBy, updated.ApprovedBy) {
		diff("approved_by", old.ApprovedBy, updated.ApprovedBy)
	}
	if !equalTime(old.ApprovalDate, updated.ApprovalDate) {
		diff("approval_date", old.ApprovalDate, updated.ApprovalDate)
	}
	return changes
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
