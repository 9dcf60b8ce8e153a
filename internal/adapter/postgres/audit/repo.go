// Package audit implements the Audit repository using PostgreSQL.
// It provides append-only operations for audit log records.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/heartmarshall/clinic-consent/internal/adapter/postgres"
	"github.com/heartmarshall/clinic-consent/internal/domain"
)

const insertSQL = `
INSERT INTO audit_log (id, actor, entity_type, entity_id, action, changes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new audit repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Log appends one audit record. Inside a TxManager transaction it commits or
// rolls back together with the change it describes.
func (r *Repo) Log(ctx context.Context, rec domain.AuditRecord) error {
	args, err := insertArgs(rec)
	if err != nil {
		return err
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, insertSQL, args...); err != nil {
		return postgres.MapError(err, "audit_record", rec.ID)
	}
	return nil
}

// LogBatch appends many audit records in a single round trip.
func (r *Repo) LogBatch(ctx context.Context, recs []domain.AuditRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range recs {
		args, err := insertArgs(rec)
		if err != nil {
			return err
		}
		batch.Queue(insertSQL, args...)
	}

	br := postgres.QuerierFromCtx(ctx, r.db).SendBatch(ctx, batch)
	for _, rec := range recs {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return postgres.MapError(err, "audit_record", rec.ID)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close audit batch: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

type auditRow struct {
	ID         uuid.UUID `db:"id"`
	Actor      string    `db:"actor"`
	EntityType string    `db:"entity_type"`
	EntityID   uuid.UUID `db:"entity_id"`
	Action     string    `db:"action"`
	Changes    []byte    `db:"changes"`
	CreatedAt  time.Time `db:"created_at"`
}

// GetByEntity returns the change history for a specific entity, ordered by
// created_at DESC, limited to `limit` records.
func (r *Repo) GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	limit, _ = domain.NormalizePage(limit, 0)

	query, args, err := postgres.Builder().
		Select("id", "actor", "entity_type", "entity_id", "action", "changes", "created_at").
		From("audit_log").
		Where("entity_type = ? AND entity_id = ?", string(entityType), entityID).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get audit_records by entity: %w", err)
	}

	records := make([]domain.AuditRecord, len(rows))
	for i, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}
	return records, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func insertArgs(rec domain.AuditRecord) ([]any, error) {
	var changes []byte
	if len(rec.Changes) > 0 {
		b, err := json.Marshal(rec.Changes)
		if err != nil {
			return nil, fmt.Errorf("audit_record marshal changes: %w", err)
		}
		changes = b
	}
	return []any{
		rec.ID, rec.Actor, string(rec.EntityType), rec.EntityID,
		string(rec.Action), changes, rec.CreatedAt,
	}, nil
}

func (row auditRow) toDomain() (domain.AuditRecord, error) {
	rec := domain.AuditRecord{
		ID:         row.ID,
		Actor:      row.Actor,
		EntityType: domain.EntityType(row.EntityType),
		EntityID:   row.EntityID,
		Action:     domain.AuditAction(row.Action),
		CreatedAt:  row.CreatedAt.UTC(),
	}

	// changes: JSONB -> map[string]any
	if len(row.Changes) > 0 {
		changes := make(map[string]any)
		if err := json.Unmarshal(row.Changes, &changes); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("audit_record %s unmarshal changes: %w", row.ID, err)
		}
		rec.Changes = changes
	}
	return rec, nil
}
