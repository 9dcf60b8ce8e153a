package template

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

// Get returns one template.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	tpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return domain.ConsentTemplate{}, fmt.Errorf("get template: %w", err)
	}
	return tpl, nil
}

// List returns one page of templates matching f.
func (s *Service) List(ctx context.Context, f domain.TemplateFilter) (ListResult, error) {
	if f.Category != nil && !f.Category.IsValid() {
		return ListResult{}, domain.NewValidationError("category", "invalid value")
	}
	if f.Language != nil && !f.Language.IsValid() {
		return ListResult{}, domain.NewValidationError("language", "invalid value")
	}
	f.Limit, f.Offset = domain.NormalizePage(f.Limit, f.Offset)

	items, total, err := s.templates.List(ctx, f)
	if err != nil {
		return ListResult{}, fmt.Errorf("list templates: %w", err)
	}
	return ListResult{Items: items, Total: total}, nil
}

// ListActive returns the templates that can issue records right now,
// ordered by name then version descending.
func (s *Service) ListActive(ctx context.Context, category *domain.Category) ([]domain.ConsentTemplate, error) {
	if category != nil && !category.IsValid() {
		return nil, domain.NewValidationError("category", "invalid value")
	}
	items, err := s.templates.ListActive(ctx, category, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	return items, nil
}

// ListVersions returns every version of the template identified by name
// and category, newest first.
func (s *Service) ListVersions(ctx context.Context, name string, category domain.Category) ([]domain.ConsentTemplate, error) {
	var errs []domain.FieldError
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if !category.IsValid() {
		errs = append(errs, domain.FieldError{Field: "category", Message: "invalid value"})
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}

	items, err := s.templates.ListVersions(ctx, name, category)
	if err != nil {
		return nil, fmt.Errorf("list template versions: %w", err)
	}
	return items, nil
}

// Stats returns catalogue counters.
func (s *Service) Stats(ctx context.Context) (domain.TemplateStats, error) {
	stats, err := s.templates.Stats(ctx)
	if err != nil {
		return domain.TemplateStats{}, fmt.Errorf("template stats: %w", err)
	}
	return stats, nil
}

// History returns the audit trail of a template, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	if _, err := s.templates.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	items, err := s.audit.GetByEntity(ctx, domain.EntityTypeTemplate, id, limit)
	if err != nil {
		return nil, fmt.Errorf("template history: %w", err)
	}
	return items, nil
}
