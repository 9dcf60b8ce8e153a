package consent

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

// InstantiateInput holds the parameters for issuing a record.
type InstantiateInput struct {
	TemplateID     uuid.UUID
	PatientID      string
	Patient        domain.PatientSnapshot
	DeliveryMethod *domain.DeliveryMethod
	ExpiresAt      *time.Time // overrides the template's expiration days
	Notes          *string
}

// Validate checks all fields and collects all errors.
func (i InstantiateInput) Validate(now time.Time) error {
	var errs []domain.FieldError

	if i.TemplateID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "template_id", Message: "required"})
	}
	if strings.TrimSpace(i.PatientID) == "" {
		errs = append(errs, domain.FieldError{Field: "patient_id", Message: "required"})
	}
	if strings.TrimSpace(i.Patient.Name) == "" {
		errs = append(errs, domain.FieldError{Field: "patient.name", Message: "required"})
	}
	if e := i.Patient.Email; e != nil && *e != "" {
		if _, err := mail.ParseAddress(*e); err != nil {
			errs = append(errs, domain.FieldError{Field: "patient.email", Message: "invalid address"})
		}
	}
	if i.DeliveryMethod != nil && !i.DeliveryMethod.IsValid() {
		errs = append(errs, domain.FieldError{Field: "delivery_method", Message: "invalid value"})
	}
	if i.ExpiresAt != nil && !i.ExpiresAt.After(now) {
		errs = append(errs, domain.FieldError{Field: "expires_at", Message: "must be in the future"})
	}
	if i.Notes != nil && utf8.RuneCountInString(*i.Notes) > domain.MaxNotesLen {
		errs = append(errs, domain.FieldError{Field: "notes", Message: fmt.Sprintf("max %d characters", domain.MaxNotesLen)})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
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
