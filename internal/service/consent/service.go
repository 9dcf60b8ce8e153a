// Package consent implements the consent record lifecycle: issuing records
// from templates, moving them through delivery, viewing, signature or
// rejection, and expiring the ones left unanswered.
package consent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/config"
	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/pkg/clock"
)

type recordRepo interface {
	Create(ctx context.Context, rec domain.ConsentRecord) (domain.ConsentRecord, error)
	Update(ctx context.Context, rec domain.ConsentRecord) (domain.ConsentRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error)
	List(ctx context.Context, f domain.RecordFilter) ([]domain.ConsentRecord, int, error)
	FindActiveByToken(ctx context.Context, token string, now time.Time, maxAttempts int) (domain.ConsentRecord, error)
	ExpireDue(ctx context.Context, now time.Time) ([]domain.ExpiredRecord, error)
	CountByStatus(ctx context.Context) (map[domain.RecordStatus]int, error)
	CountByMonth(ctx context.Context, since time.Time) ([]domain.MonthStats, error)
}

type templateReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	LogBatch(ctx context.Context, records []domain.AuditRecord) error
	GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type tokenGenerator interface {
	Generate() (string, error)
}

type metricsRecorder interface {
	Transition(action string, to domain.RecordStatus)
	Expired(from domain.RecordStatus, n int)
}

const (
	// PatientActor is the audit identity of token-authenticated calls.
	PatientActor = "patient"
	// SystemActor is the audit identity of the expiry sweep.
	SystemActor = "system"

	maxConflictRetries = 3
	maxTokenRetries    = 3
)

// Service provides consent record operations.
type Service struct {
	records   recordRepo
	templates templateReader
	audit     auditLogger
	tx        txManager
	tokens    tokenGenerator
	clock     clock.Clock
	metrics   metricsRecorder
	log       *slog.Logger
	cfg       config.ConsentConfig
}

// NewService creates a new consent service. A nil metrics recorder disables
// instrumentation.
func NewService(
	log *slog.Logger,
	records recordRepo,
	templates templateReader,
	audit auditLogger,
	tx txManager,
	tokens tokenGenerator,
	clk clock.Clock,
	metrics metricsRecorder,
	cfg config.ConsentConfig,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		records:   records,
		templates: templates,
		audit:     audit,
		tx:        tx,
		tokens:    tokens,
		clock:     clk,
		metrics:   metrics,
		log:       log.With("service", "consent"),
		cfg:       cfg,
	}
}

type nopMetrics struct{}

func (nopMetrics) Transition(string, domain.RecordStatus) {}
func (nopMetrics) Expired(domain.RecordStatus, int)       {}

// ListResult is one page of records.
type ListResult struct {
	Items []domain.ConsentRecord
	Total int
}

// SweepResult summarises one expiry sweep.
type SweepResult struct {
	Expired  int
	ByStatus map[domain.RecordStatus]int
}

// EvidenceCheck is the outcome of recomputing a record's evidence hash.
type EvidenceCheck struct {
	RecordID uuid.UUID
	Hash     string
	Valid    bool
}

func (s *Service) auditRecord(actor string, id uuid.UUID, action domain.AuditAction, changes map[string]any, at time.Time) domain.AuditRecord {
	return domain.AuditRecord{
		ID:         uuid.New(),
		Actor:      actor,
		EntityType: domain.EntityTypeRecord,
		EntityID:   id,
		Action:     action,
		Changes:    changes,
		CreatedAt:  at,
	}
}
