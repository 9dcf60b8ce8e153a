// Package record implements the consent record store using PostgreSQL.
//
// Every write is guarded: Update only succeeds against the version it read,
// and the expiry sweep re-checks status and due date in its WHERE clause, so
// a record can never be moved out of a terminal state.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/adapter/postgres"
	"github.com/heartmarshall/clinic-consent/internal/domain"
)

const (
	table  = "consent_records"
	entity = "consent_record"
)

// actionable are the statuses the sweep may expire.
var actionable = []string{
	string(domain.RecordStatusPending),
	string(domain.RecordStatusSent),
	string(domain.RecordStatusViewed),
}

// awaiting are the statuses reachable through an access token.
var awaiting = []string{
	string(domain.RecordStatusSent),
	string(domain.RecordStatusViewed),
}

// Repo provides consent record persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new record repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a record. An access token collision surfaces as
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, rec domain.ConsentRecord) (domain.ConsentRecord, error) {
	row, err := fromDomain(rec)
	if err != nil {
		return domain.ConsentRecord{}, err
	}

	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(row.values()...).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("build insert %s: %w", entity, err)
	}

	return r.getOne(ctx, rec.ID, query, args...)
}

// Update persists the mutable fields of rec if the stored version still
// equals rec.Version, and bumps the version. A stale version yields
// domain.ErrConflict; a missing row yields domain.ErrNotFound.
func (r *Repo) Update(ctx context.Context, rec domain.ConsentRecord) (domain.ConsentRecord, error) {
	row, err := fromDomain(rec)
	if err != nil {
		return domain.ConsentRecord{}, err
	}

	query, args, err := postgres.Builder().
		Update(table).
		SetMap(map[string]any{
			"status":            row.Status,
			"updated_at":        row.UpdatedAt,
			"sent_at":           row.SentAt,
			"viewed_at":         row.ViewedAt,
			"signed_at":         row.SignedAt,
			"rejected_at":       row.RejectedAt,
			"expires_at":        row.ExpiresAt,
			"digital_signature": row.DigitalSignature,
			"ip":                row.IP,
			"user_agent":        row.UserAgent,
			"geolocation":       row.Geolocation,
			"witness":           row.Witness,
			"evidence_hash":     row.EvidenceHash,
			"rejection_reason":  row.RejectionReason,
			"delivery_method":   row.DeliveryMethod,
			"access_token":      row.AccessToken,
			"token_expires_at":  row.TokenExpiresAt,
			"attempt_count":     row.AttemptCount,
			"sent_by":           row.SentBy,
			"notes":             row.Notes,
			"reminders_sent":    row.RemindersSent,
			"last_reminder_at":  row.LastReminderAt,
			"version":           squirrel.Expr("version + 1"),
		}).
		Where(squirrel.Eq{"id": rec.ID, "version": rec.Version}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("build update %s: %w", entity, err)
	}

	updated, err := r.getOne(ctx, rec.ID, query, args...)
	if errors.Is(err, domain.ErrNotFound) {
		exists, existsErr := r.exists(ctx, rec.ID)
		if existsErr != nil {
			return domain.ConsentRecord{}, existsErr
		}
		if exists {
			return domain.ConsentRecord{}, fmt.Errorf("%s %s version %d: %w", entity, rec.ID, rec.Version, domain.ErrConflict)
		}
	}
	return updated, err
}

// FindActiveByToken returns the record owning token if the token is still
// valid at now and the record awaits the patient and is not past due,
// counting the attempt. With maxAttempts > 0 a token that has been used
// maxAttempts times stops resolving. Every miss is reported as
// domain.ErrNotFound.
//
// Counting an attempt bumps the version like any other write, so a
// transition that read the record before the lookup fails its version guard
// instead of writing the old count back.
func (r *Repo) FindActiveByToken(ctx context.Context, token string, now time.Time, maxAttempts int) (domain.ConsentRecord, error) {
	where := squirrel.And{
		squirrel.Eq{"access_token": token},
		squirrel.Gt{"token_expires_at": now},
		squirrel.Eq{"status": awaiting},
		squirrel.Or{squirrel.Eq{"expires_at": nil}, squirrel.Gt{"expires_at": now}},
	}
	if maxAttempts > 0 {
		where = append(where, squirrel.Lt{"attempt_count": maxAttempts})
	}

	query, args, err := postgres.Builder().
		Update(table).
		Set("attempt_count", squirrel.Expr("attempt_count + 1")).
		Set("version", squirrel.Expr("version + 1")).
		Where(where).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("build find by token %s: %w", entity, err)
	}

	return r.getOne(ctx, tokenKey(token), query, args...)
}

type expiredRow struct {
	ID             uuid.UUID `db:"id"`
	PreviousStatus string    `db:"previous_status"`
}

// ExpireDue marks every actionable record whose due date is before now as
// expired and returns them with the status they had. Rows locked by a
// concurrent transition are skipped and picked up by a later sweep.
func (r *Repo) ExpireDue(ctx context.Context, now time.Time) ([]domain.ExpiredRecord, error) {
	const query = `
WITH due AS (
    SELECT id, status
    FROM consent_records
    WHERE expires_at < $1 AND status = ANY($2)
    FOR UPDATE SKIP LOCKED
)
UPDATE consent_records c
SET status = 'expired', updated_at = $1, version = c.version + 1
FROM due
WHERE c.id = due.id
RETURNING c.id, due.status AS previous_status`

	var rows []expiredRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, now, actionable); err != nil {
		return nil, fmt.Errorf("expire due %s: %w", entity, err)
	}

	out := make([]domain.ExpiredRecord, len(rows))
	for i, row := range rows {
		out[i] = domain.ExpiredRecord{ID: row.ID, PreviousStatus: domain.RecordStatus(row.PreviousStatus)}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a record or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("build select %s: %w", entity, err)
	}
	return r.getOne(ctx, id, query, args...)
}

// List returns one page of records matching f, newest first, plus the
// total match count.
func (r *Repo) List(ctx context.Context, f domain.RecordFilter) ([]domain.ConsentRecord, int, error) {
	where := filterConditions(f)
	q := postgres.QuerierFromCtx(ctx, r.db)

	countSQL, countArgs, err := postgres.Builder().Select("count(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count %s: %w", entity, err)
	}
	var total int
	if err := pgxscan.Get(ctx, q, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", entity, err)
	}

	limit, offset := domain.NormalizePage(f.Limit, f.Offset)
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list %s: %w", entity, err)
	}

	var rows []recordRow
	if err := pgxscan.Select(ctx, q, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", entity, err)
	}

	out := make([]domain.ConsentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, nil
}

type statusCount struct {
	Status string `db:"status"`
	Total  int    `db:"total"`
}

// CountByStatus returns the number of records per status.
func (r *Repo) CountByStatus(ctx context.Context) (map[domain.RecordStatus]int, error) {
	query, args, err := postgres.Builder().
		Select("status", "count(*) AS total").
		From(table).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by status %s: %w", entity, err)
	}

	var rows []statusCount
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count by status %s: %w", entity, err)
	}

	out := make(map[domain.RecordStatus]int, len(rows))
	for _, row := range rows {
		out[domain.RecordStatus(row.Status)] = row.Total
	}
	return out, nil
}

type monthCount struct {
	Month  string `db:"month"`
	Status string `db:"status"`
	Total  int    `db:"total"`
}

// CountByMonth returns per-status counts of records created since since,
// grouped by UTC calendar month, most recent month first.
func (r *Repo) CountByMonth(ctx context.Context, since time.Time) ([]domain.MonthStats, error) {
	const month = "to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM')"

	query, args, err := postgres.Builder().
		Select(month+" AS month", "status", "count(*) AS total").
		From(table).
		Where(squirrel.GtOrEq{"created_at": since}).
		GroupBy("1", "2").
		OrderBy("1 DESC", "2").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by month %s: %w", entity, err)
	}

	var rows []monthCount
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count by month %s: %w", entity, err)
	}

	var out []domain.MonthStats
	for _, row := range rows {
		if len(out) == 0 || out[len(out)-1].Month != row.Month {
			out = append(out, domain.MonthStats{Month: row.Month, ByStatus: map[domain.RecordStatus]int{}})
		}
		m := &out[len(out)-1]
		m.ByStatus[domain.RecordStatus(row.Status)] = row.Total
		m.Total += row.Total
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) getOne(ctx context.Context, key any, query string, args ...any) (domain.ConsentRecord, error) {
	var row recordRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, query, args...); err != nil {
		return domain.ConsentRecord{}, postgres.MapError(err, entity, key)
	}
	return row.toDomain()
}

func (r *Repo) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := postgres.QuerierFromCtx(ctx, r.db).
		QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM consent_records WHERE id = $1)`, id).
		Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, entity, id)
	}
	return exists, nil
}

func filterConditions(f domain.RecordFilter) squirrel.And {
	where := squirrel.And{}
	if f.PatientID != nil {
		where = append(where, squirrel.Eq{"patient_id": *f.PatientID})
	}
	if f.TemplateID != nil {
		where = append(where, squirrel.Eq{"template_id": *f.TemplateID})
	}
	if f.Status != nil {
		where = append(where, squirrel.Eq{"status": string(*f.Status)})
	}
	if f.DeliveryMethod != nil {
		where = append(where, squirrel.Eq{"delivery_method": string(*f.DeliveryMethod)})
	}
	if f.CreatedFrom != nil {
		where = append(where, squirrel.GtOrEq{"created_at": *f.CreatedFrom})
	}
	if f.CreatedTo != nil {
		where = append(where, squirrel.Lt{"created_at": *f.CreatedTo})
	}
	return where
}

func returning() string {
	return "RETURNING " + strings.Join(columns, ", ")
}

// tokenKey shortens a token for error messages.
func tokenKey(token string) string {
	if len(token) > 6 {
		return "token " + token[:6] + "..."
	}
	return "token"
}
