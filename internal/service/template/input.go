package template

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

// CreateInput holds the parameters for creating a template. Zero
// ExpirationDays falls back to the configured default; a nil LegalCode is
// generated.
type CreateInput struct {
	Name                   string
	Category               domain.Category
	Version                string
	Content                string
	Mandatory              bool
	ValidFrom              *time.Time
	ValidUntil             *time.Time
	RequiresWitness        bool
	AllowsDigitalSignature bool
	ExpirationDays         int
	LegalCode              *string
	LegalBasis             *string
	Tags                   []string
	Language               domain.Language
}

// NewVersionInput holds the parameters for continuing a template's version
// chain.
type NewVersionInput struct {
	SourceID     uuid.UUID
	Version      string
	ChangeReason string
	Content      *string // nil keeps the source content
}

// Validate checks the fields the domain copy does not.
func (i NewVersionInput) Validate() error {
	var errs []domain.FieldError

	if i.SourceID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "source_id", Message: "required"})
	}
	if !domain.IsValidVersion(i.Version) {
		errs = append(errs, domain.FieldError{Field: "version", Message: "must match MAJOR.MINOR"})
	}
	if strings.TrimSpace(i.ChangeReason) == "" {
		errs = append(errs, domain.FieldError{Field: "change_reason", Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateInput is a partial update; nil fields are left unchanged.
// Version and category cannot be changed here.
type UpdateInput struct {
	ID                     uuid.UUID
	Name                   *string
	Content                *string
	Active                 *bool
	Mandatory              *bool
	ValidFrom              *time.Time
	ValidUntil             *time.Time
	ClearValidUntil        bool
	RequiresWitness        *bool
	AllowsDigitalSignature *bool
	ExpirationDays         *int
	LegalCode              *string
	LegalBasis             *string
	Tags                   *[]string
	Language               *domain.Language
}

func (i UpdateInput) empty() bool {
	return i.Name == nil && i.Content == nil && i.Active == nil && i.Mandatory == nil &&
		i.ValidFrom == nil && i.ValidUntil == nil && !i.ClearValidUntil &&
		i.RequiresWitness == nil && i.AllowsDigitalSignature == nil &&
		i.ExpirationDays == nil && i.LegalCode == nil && i.LegalBasis == nil &&
		i.Tags == nil && i.Language == nil
}

// apply copies the set fields onto t.
func (i UpdateInput) apply(t *domain.ConsentTemplate) {
	if i.Name != nil {
		t.Name = strings.TrimSpace(*i.Name)
	}
	if i.Content != nil {
		t.Content = *i.Content
	}
	if i.Active != nil {
		t.Active = *i.Active
	}
	if i.Mandatory != nil {
		t.Mandatory = *i.Mandatory
	}
	if i.ValidFrom != nil {
		t.ValidFrom = i.ValidFrom.UTC()
	}
	if i.ClearValidUntil {
		t.ValidUntil = nil
	} else if i.ValidUntil != nil {
		v := i.ValidUntil.UTC()
		t.ValidUntil = &v
	}
	if i.RequiresWitness != nil {
		t.RequiresWitness = *i.RequiresWitness
	}
	if i.AllowsDigitalSignature != nil {
		t.AllowsDigitalSignature = *i.AllowsDigitalSignature
	}
	if i.ExpirationDays != nil {
		t.ExpirationDays = *i.ExpirationDays
	}
	if i.LegalCode != nil {
		code := domain.NormalizeLegalCode(*i.LegalCode)
		t.LegalCode = &code
	}
	if i.LegalBasis != nil {
		t.LegalBasis = trimOrNil(i.LegalBasis)
	}
	if i.Tags != nil {
		t.Tags = domain.NormalizeTags(*i.Tags)
	}
	if i.Language != nil {
		t.Language = *i.Language
	}
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
