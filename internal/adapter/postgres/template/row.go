package template

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

// templateRow mirrors a consent_templates row.
type templateRow struct {
	ID                     uuid.UUID  `db:"id"`
	Name                   string     `db:"name"`
	Category               string     `db:"category"`
	Version                string     `db:"version"`
	Content                string     `db:"content"`
	Active                 bool       `db:"active"`
	Mandatory              bool       `db:"mandatory"`
	PreviousVersion        *string    `db:"previous_version"`
	ChangeReason           *string    `db:"change_reason"`
	ValidFrom              time.Time  `db:"valid_from"`
	ValidUntil             *time.Time `db:"valid_until"`
	RequiresWitness        bool       `db:"requires_witness"`
	AllowsDigitalSignature bool       `db:"allows_digital_signature"`
	ExpirationDays         int        `db:"expiration_days"`
	LegalCode              *string    `db:"legal_code"`
	LegalBasis             *string    `db:"legal_basis"`
	Tags                   []string   `db:"tags"`
	Language               string     `db:"language"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
	CreatedBy              string     `db:"created_by"`
	UpdatedBy              *string    `db:"updated_by"`
	ApprovedBy             *string    `db:"approved_by"`
	ApprovalDate           *time.Time `db:"approval_date"`
}

func fromDomain(t domain.ConsentTemplate) templateRow {
	return templateRow{
		ID:                     t.ID,
		Name:                   t.Name,
		Category:               string(t.Category),
		Version:                t.Version,
		Content:                t.Content,
		Active:                 t.Active,
		Mandatory:              t.Mandatory,
		PreviousVersion:        t.PreviousVersion,
		ChangeReason:           t.ChangeReason,
		ValidFrom:              t.ValidFrom,
		ValidUntil:             t.ValidUntil,
		RequiresWitness:        t.RequiresWitness,
		AllowsDigitalSignature: t.AllowsDigitalSignature,
		ExpirationDays:         t.ExpirationDays,
		LegalCode:              t.LegalCode,
		LegalBasis:             t.LegalBasis,
		Tags:                   nonNilTags(t.Tags),
		Language:               string(t.Language),
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
		CreatedBy:              t.CreatedBy,
		UpdatedBy:              t.UpdatedBy,
		ApprovedBy:             t.ApprovedBy,
		ApprovalDate:           t.ApprovalDate,
	}
}

// values returns the row in the order of columns.
func (r templateRow) values() []any {
	return []any{
		r.ID, r.Name, r.Category, r.Version, r.Content, r.Active, r.Mandatory,
		r.PreviousVersion, r.ChangeReason, r.ValidFrom, r.ValidUntil,
		r.RequiresWitness, r.AllowsDigitalSignature, r.ExpirationDays,
		r.LegalCode, r.LegalBasis, r.Tags, r.Language,
		r.CreatedAt, r.UpdatedAt, r.CreatedBy, r.UpdatedBy, r.ApprovedBy, r.ApprovalDate,
	}
}

func (r templateRow) toDomain() domain.ConsentTemplate {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.ConsentTemplate{
		ID:                     r.ID,
		Name:                   r.Name,
		Category:               domain.Category(r.Category),
		Version:                r.Version,
		Content:                r.Content,
		Active:                 r.Active,
		Mandatory:              r.Mandatory,
		PreviousVersion:        r.PreviousVersion,
		ChangeReason:           r.ChangeReason,
		ValidFrom:              r.ValidFrom.UTC(),
		ValidUntil:             utcPtr(r.ValidUntil),
		RequiresWitness:        r.RequiresWitness,
		AllowsDigitalSignature: r.AllowsDigitalSignature,
		ExpirationDays:         r.ExpirationDays,
		LegalCode:              r.LegalCode,
		LegalBasis:             r.LegalBasis,
		Tags:                   tags,
		Language:               domain.Language(r.Language),
		CreatedAt:              r.CreatedAt.UTC(),
		UpdatedAt:              r.UpdatedAt.UTC(),
		CreatedBy:              r.CreatedBy,
		UpdatedBy:              r.UpdatedBy,
		ApprovedBy:             r.ApprovedBy,
		ApprovalDate:           utcPtr(r.ApprovalDate),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
