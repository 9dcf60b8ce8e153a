package template

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/pkg/ctxutil"
)

// Create validates and stores a new template. Without a legal code one is
// generated from the category and creation date.
func (s *Service) Create(ctx context.Context, input CreateInput) (domain.ConsentTemplate, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentTemplate{}, domain.ErrUnauthorized
	}

	now := s.clock.Now()
	tpl := domain.ConsentTemplate{
		ID:                     uuid.New(),
		Name:                   strings.TrimSpace(input.Name),
		Category:               input.Category,
		Version:                strings.TrimSpace(input.Version),
		Content:                input.Content,
		Active:                 true,
		Mandatory:              input.Mandatory,
		ValidFrom:              now,
		ValidUntil:             input.ValidUntil,
		RequiresWitness:        input.RequiresWitness,
		AllowsDigitalSignature: input.AllowsDigitalSignature,
		ExpirationDays:         input.ExpirationDays,
		LegalBasis:             trimOrNil(input.LegalBasis),
		Tags:                   domain.NormalizeTags(input.Tags),
		Language:               input.Language,
		CreatedAt:              now,
		UpdatedAt:              now,
		CreatedBy:              actor,
	}
	if input.ValidFrom != nil {
		tpl.ValidFrom = input.ValidFrom.UTC()
	}
	if tpl.ExpirationDays == 0 {
		tpl.ExpirationDays = s.cfg.DefaultExpirationDays
	}
	if tpl.Language == "" {
		tpl.Language = domain.LanguageES
	}
	if input.LegalCode != nil {
		code := domain.NormalizeLegalCode(*input.LegalCode)
		tpl.LegalCode = &code
	}

	if err := tpl.Validate(); err != nil {
		return domain.ConsentTemplate{}, err
	}

	created, err := s.insert(ctx, tpl, actor, domain.AuditActionCreate, map[string]any{
		"name":     map[string]any{"new": tpl.Name},
		"category": map[string]any{"new": string(tpl.Category)},
		"version":  map[string]any{"new": tpl.Version},
	})
	if err != nil {
		return domain.ConsentTemplate{}, err
	}

	s.log.InfoContext(ctx, "template created",
		slog.String("template_id", created.ID.String()),
		slog.String("name", created.Name),
		slog.String("version", created.Version),
		slog.String("legal_code", *created.LegalCode),
	)
	return created, nil
}

// CreateNewVersion stores a copy of the source template under a new
// version, pointing back at the source version.
func (s *Service) CreateNewVersion(ctx context.Context, input NewVersionInput) (domain.ConsentTemplate, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ConsentTemplate{}, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return domain.ConsentTemplate{}, err
	}

	source, err := s.templates.GetByID(ctx, input.SourceID)
	if err != nil {
		return domain.ConsentTemplate{}, fmt.Errorf("get source template: %w", err)
	}

	next, err := source.NewVersion(input.Version, input.ChangeReason, input.Content, actor, s.clock.Now())
	if err != nil {
		return domain.ConsentTemplate{}, err
	}
	if err := next.Validate(); err != nil {
		return domain.ConsentTemplate{}, err
	}

	created, err := s.insert(ctx, next, actor, domain.AuditActionNewVersion, map[string]any{
		"source_id": source.ID.String(),
		"version":   map[string]any{"old": source.Version, "new": next.Version},
		"reason":    input.ChangeReason,
	})
	if err != nil {
		return domain.ConsentTemplate{}, err
	}

	s.log.InfoContext(ctx, "template version created",
		slog.String("template_id", created.ID.String()),
		slog.String("source_id", source.ID.String()),
		slog.String("version", created.Version),
	)
	return created, nil
}

// insert stores tpl with its audit record. A template without a legal code
// gets a generated one; collisions of a generated code are retried with a
// fresh suffix, while a caller-supplied code that is taken fails at once.
func (s *Service) insert(ctx context.Context, tpl domain.ConsentTemplate, actor string, action domain.AuditAction, changes map[string]any) (domain.ConsentTemplate, error) {
	generate := tpl.LegalCode == nil
	attempts := 1
	if generate {
		attempts = max(s.cfg.LegalCodeAttempts, 1)
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if generate {
			code := domain.GenerateLegalCode(tpl.Category, tpl.CreatedAt, s.suffix())
			tpl.LegalCode = &code
		}

		var created domain.ConsentTemplate
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var createErr error
			created, createErr = s.templates.Create(txCtx, tpl)
			if createErr != nil {
				return fmt.Errorf("create template: %w", createErr)
			}

			changes["legal_code"] = *created.LegalCode
			if auditErr := s.logAudit(txCtx, actor, created.ID, action, changes); auditErr != nil {
				return fmt.Errorf("audit log: %w", auditErr)
			}
			return nil
		})
		if err == nil {
			return created, nil
		}
		// Template ids are fresh UUIDs, so a unique violation is the legal code.
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return domain.ConsentTemplate{}, err
		}
		if !generate {
			return domain.ConsentTemplate{}, fmt.Errorf("legal code %s already in use: %w", *tpl.LegalCode, domain.ErrConflict)
		}

		s.log.WarnContext(ctx, "generated legal code collided",
			slog.String("legal_code", *tpl.LegalCode),
			slog.Int("attempt", attempt),
		)
	}

	return domain.ConsentTemplate{}, fmt.Errorf("no free legal code after %d attempts: %w", attempts, domain.ErrConflict)
}
