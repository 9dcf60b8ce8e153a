// Package template implements the consent template store using PostgreSQL.
package template

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/adapter/postgres"
	"github.com/heartmarshall/clinic-consent/internal/domain"
)

const table = "consent_templates"

const entity = "consent_template"

var columns = []string{
	"id", "name", "category", "version", "content", "active", "mandatory",
	"previous_version", "change_reason", "valid_from", "valid_until",
	"requires_witness", "allows_digital_signature", "expiration_days",
	"legal_code", "legal_basis", "tags", "language",
	"created_at", "updated_at", "created_by", "updated_by", "approved_by", "approval_date",
}

// versionOrder sorts MAJOR.MINOR numerically, newest first.
const versionOrder = "string_to_array(version, '.')::int[] DESC"

// Repo provides consent template persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new template repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a template and returns the persisted row.
func (r *Repo) Create(ctx context.Context, t domain.ConsentTemplate) (domain.ConsentTemplate, error) {
	row := fromDomain(t)

	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(row.values()...).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return domain.ConsentTemplate{}, fmt.Errorf("build insert %s: %w", entity, err)
	}

	var out templateRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, query, args...); err != nil {
		return domain.ConsentTemplate{}, postgres.MapError(err, entity, t.ID)
	}
	return out.toDomain(), nil
}

// Update overwrites the mutable fields of a template. Version and category
// are never written.
func (r *Repo) Update(ctx context.Context, t domain.ConsentTemplate) (domain.ConsentTemplate, error) {
	query, args, err := postgres.Builder().
		Update(table).
		SetMap(map[string]any{
			"name":                     t.Name,
			"content":                  t.Content,
			"active":                   t.Active,
			"mandatory":                t.Mandatory,
			"change_reason":            t.ChangeReason,
			"valid_from":               t.ValidFrom,
			"valid_until":              t.ValidUntil,
			"requires_witness":         t.RequiresWitness,
			"allows_digital_signature": t.AllowsDigitalSignature,
			"expiration_days":          t.ExpirationDays,
			"legal_code":               t.LegalCode,
			"legal_basis":              t.LegalBasis,
			"tags":                     nonNilTags(t.Tags),
			"language":                 string(t.Language),
			"updated_at":               t.UpdatedAt,
			"updated_by":               t.UpdatedBy,
			"approved_by":              t.ApprovedBy,
			"approval_date":            t.ApprovalDate,
		}).
		Where(squirrel.Eq{"id": t.ID}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return domain.ConsentTemplate{}, fmt.Errorf("build update %s: %w", entity, err)
	}

	var out templateRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, query, args...); err != nil {
		return domain.ConsentTemplate{}, postgres.MapError(err, entity, t.ID)
	}
	return out.toDomain(), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a template or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.ConsentTemplate{}, fmt.Errorf("build select %s: %w", entity, err)
	}

	var out templateRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, query, args...); err != nil {
		return domain.ConsentTemplate{}, postgres.MapError(err, entity, id)
	}
	return out.toDomain(), nil
}

// List returns one page of templates matching f plus the total match count.
func (r *Repo) List(ctx context.Context, f domain.TemplateFilter) ([]domain.ConsentTemplate, int, error) {
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
		OrderBy("name ASC", versionOrder).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list %s: %w", entity, err)
	}

	templates, err := r.selectMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// ListActive returns templates that are active and in force at now,
// optionally restricted to one category, ordered by name then version desc.
func (r *Repo) ListActive(ctx context.Context, category *domain.Category, now time.Time) ([]domain.ConsentTemplate, error) {
	where := squirrel.And{
		squirrel.Eq{"active": true},
		squirrel.LtOrEq{"valid_from": now},
		squirrel.Or{squirrel.Eq{"valid_until": nil}, squirrel.Gt{"valid_until": now}},
	}
	if category != nil {
		where = append(where, squirrel.Eq{"category": string(*category)})
	}

	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(where).
		OrderBy("name ASC", versionOrder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active %s: %w", entity, err)
	}
	return r.selectMany(ctx, query, args...)
}

// ListVersions returns every template sharing name and category, newest
// version first.
func (r *Repo) ListVersions(ctx context.Context, name string, category domain.Category) ([]domain.ConsentTemplate, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"name": name, "category": string(category)}).
		OrderBy(versionOrder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list versions %s: %w", entity, err)
	}
	return r.selectMany(ctx, query, args...)
}

type categoryCount struct {
	Category  string `db:"category"`
	Total     int    `db:"total"`
	Active    int    `db:"active"`
	Mandatory int    `db:"mandatory"`
}

// Stats aggregates template counts overall and per category.
func (r *Repo) Stats(ctx context.Context) (domain.TemplateStats, error) {
	query, args, err := postgres.Builder().
		Select(
			"category",
			"count(*) AS total",
			"count(*) FILTER (WHERE active) AS active",
			"count(*) FILTER (WHERE mandatory) AS mandatory",
		).
		From(table).
		GroupBy("category").
		OrderBy("category ASC").
		ToSql()
	if err != nil {
		return domain.TemplateStats{}, fmt.Errorf("build stats %s: %w", entity, err)
	}

	var rows []categoryCount
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return domain.TemplateStats{}, fmt.Errorf("stats %s: %w", entity, err)
	}

	stats := domain.TemplateStats{ByCategory: make([]domain.CategoryStats, 0, len(rows))}
	for _, row := range rows {
		stats.Total += row.Total
		stats.Active += row.Active
		stats.Mandatory += row.Mandatory
		stats.ByCategory = append(stats.ByCategory, domain.CategoryStats{
			Category: domain.Category(row.Category),
			Total:    row.Total,
			Active:   row.Active,
		})
	}
	return stats, nil
}

func (r *Repo) selectMany(ctx context.Context, query string, args ...any) ([]domain.ConsentTemplate, error) {
	var rows []templateRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", entity, err)
	}
	out := make([]domain.ConsentTemplate, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func filterConditions(f domain.TemplateFilter) squirrel.And {
	where := squirrel.And{}
	if f.Category != nil {
		where = append(where, squirrel.Eq{"category": string(*f.Category)})
	}
	if f.Active != nil {
		where = append(where, squirrel.Eq{"active": *f.Active})
	}
	if f.Language != nil {
		where = append(where, squirrel.Eq{"language": string(*f.Language)})
	}
	if f.Mandatory != nil {
		where = append(where, squirrel.Eq{"mandatory": *f.Mandatory})
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		where = append(where, squirrel.ILike{"name": "%" + escapeLike(strings.TrimSpace(*f.Search)) + "%"})
	}
	if f.Tag != nil && *f.Tag != "" {
		where = append(where, squirrel.Expr("? = ANY(tags)", *f.Tag))
	}
	return where
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
