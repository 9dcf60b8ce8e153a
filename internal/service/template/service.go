// Package template implements the consent template store: creation with
// legal-code assignment, versioning, metadata edits and catalogue queries.
package template

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/config"
	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/pkg/clock"
)

type templateRepo interface {
	Create(ctx context.Context, t domain.ConsentTemplate) (domain.ConsentTemplate, error)
	Update(ctx context.Context, t domain.ConsentTemplate) (domain.ConsentTemplate, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
	List(ctx context.Context, f domain.TemplateFilter) ([]domain.ConsentTemplate, int, error)
	ListActive(ctx context.Context, category *domain.Category, now time.Time) ([]domain.ConsentTemplate, error)
	ListVersions(ctx context.Context, name string, category domain.Category) ([]domain.ConsentTemplate, error)
	Stats(ctx context.Context) (domain.TemplateStats, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides consent template operations.
type Service struct {
	templates templateRepo
	audit     auditLogger
	tx        txManager
	clock     clock.Clock
	log       *slog.Logger
	cfg       config.ConsentConfig

	// suffix draws the two-digit tail of generated legal codes.
	suffix func() int
}

// NewService creates a new template service.
func NewService(
	log *slog.Logger,
	templates templateRepo,
	audit auditLogger,
	tx txManager,
	clk clock.Clock,
	cfg config.ConsentConfig,
) *Service {
	return &Service{
		templates: templates,
		audit:     audit,
		tx:        tx,
		clock:     clk,
		log:       log.With("service", "template"),
		cfg:       cfg,
		suffix:    func() int { return rand.IntN(100) },
	}
}

// ListResult is one page of templates.
type ListResult struct {
	Items []domain.ConsentTemplate
	Total int
}

func (s *Service) logAudit(ctx context.Context, actor string, id uuid.UUID, action domain.AuditAction, changes map[string]any) error {
	return s.audit.Log(ctx, domain.AuditRecord{
		ID:         uuid.New(),
		Actor:      actor,
		EntityType: domain.EntityTypeTemplate,
		EntityID:   id,
		Action:     action,
		Changes:    changes,
		CreatedAt:  s.clock.Now(),
	})
}
