package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Template field limits.
const (
	MaxTemplateNameLen    = 200
	MinTemplateContent    = 50
	MaxChangeReasonLen    = 500
	MaxLegalBasisLen      = 1000
	MaxLegalCodeLen       = 50
	MaxTagLen             = 50
	MaxTags               = 20
	DefaultExpirationDays = 30
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// IsValidVersion reports whether v has the MAJOR.MINOR form.
func IsValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}

// ConsentTemplate is a versioned legal document from which consent records
// are issued.
type ConsentTemplate struct {
	ID        uuid.UUID
	Name      string
	Category  Category
	Version   string
	Content   string
	Active    bool
	Mandatory bool

	PreviousVersion *string
	ChangeReason    *string

	ValidFrom  time.Time
	ValidUntil *time.Time

	RequiresWitness        bool
	AllowsDigitalSignature bool
	ExpirationDays         int

	LegalCode  *string
	LegalBasis *string
	Tags       []string
	Language   Language

	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    string
	UpdatedBy    *string
	ApprovedBy   *string
	ApprovalDate *time.Time
}

// IsCurrentlyValid reports whether now falls inside [ValidFrom, ValidUntil).
// A nil ValidUntil means the window is open-ended.
func (t *ConsentTemplate) IsCurrentlyValid(now time.Time) bool {
	if now.Before(t.ValidFrom) {
		return false
	}
	return t.ValidUntil == nil || now.Before(*t.ValidUntil)
}

// EffectiveStatus derives the template status at instant now.
func (t *ConsentTemplate) EffectiveStatus(now time.Time) TemplateStatus {
	switch {
	case !t.Active:
		return TemplateStatusInactive
	case !t.IsCurrentlyValid(now):
		return TemplateStatusExpired
	default:
		return TemplateStatusActive
	}
}

// Validate checks every field constraint of the template and collects all
// violations into a single *ValidationError.
func (t *ConsentTemplate) Validate() error {
	var errs []FieldError

	name := strings.TrimSpace(t.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	} else if utf8.RuneCountInString(name) > MaxTemplateNameLen {
		errs = append(errs, FieldError{Field: "name", Message: fmt.Sprintf("max %d characters", MaxTemplateNameLen)})
	}

	if !t.Category.IsValid() {
		errs = append(errs, FieldError{Field: "category", Message: "invalid value"})
	}

	if !IsValidVersion(t.Version) {
		errs = append(errs, FieldError{Field: "version", Message: "must match MAJOR.MINOR"})
	}

	if utf8.RuneCountInString(strings.TrimSpace(t.Content)) < MinTemplateContent {
		errs = append(errs, FieldError{Field: "content", Message: fmt.Sprintf("min %d characters", MinTemplateContent)})
	}

	if t.ChangeReason != nil && utf8.RuneCountInString(*t.ChangeReason) > MaxChangeReasonLen {
		errs = append(errs, FieldError{Field: "change_reason", Message: fmt.Sprintf("max %d characters", MaxChangeReasonLen)})
	}

	if t.PreviousVersion != nil && !IsValidVersion(*t.PreviousVersion) {
		errs = append(errs, FieldError{Field: "previous_version", Message: "must match MAJOR.MINOR"})
	}

	if t.ValidUntil != nil && !t.ValidUntil.After(t.ValidFrom) {
		errs = append(errs, FieldError{Field: "valid_until", Message: "must be after valid_from"})
	}

	if t.ExpirationDays < 1 {
		errs = append(errs, FieldError{Field: "expiration_days", Message: "must be at least 1"})
	}

	if t.LegalCode != nil {
		if *t.LegalCode == "" {
			errs = append(errs, FieldError{Field: "legal_code", Message: "must not be empty"})
		} else if len(*t.LegalCode) > MaxLegalCodeLen {
			errs = append(errs, FieldError{Field: "legal_code", Message: fmt.Sprintf("max %d characters", MaxLegalCodeLen)})
		}
	}

	if t.LegalBasis != nil && utf8.RuneCountInString(*t.LegalBasis) > MaxLegalBasisLen {
		errs = append(errs, FieldError{Field: "legal_basis", Message: fmt.Sprintf("max %d characters", MaxLegalBasisLen)})
	}

	if len(t.Tags) > MaxTags {
		errs = append(errs, FieldError{Field: "tags", Message: fmt.Sprintf("max %d tags", MaxTags)})
	}
	for _, tag := range t.Tags {
		if utf8.RuneCountInString(tag) > MaxTagLen {
			errs = append(errs, FieldError{Field: "tags", Message: fmt.Sprintf("tag max %d characters", MaxTagLen)})
			break
		}
	}

	if !t.Language.IsValid() {
		errs = append(errs, FieldError{Field: "language", Message: "invalid value"})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// NewVersion returns a fresh template that continues the version chain of t.
// Behavioral fields are copied; content is replaced only when newContent is
// non-nil. The result has no legal code and no approval.
func (t *ConsentTemplate) NewVersion(version, changeReason string, newContent *string, actor string, now time.Time) (ConsentTemplate, error) {
	if !IsValidVersion(version) {
		return ConsentTemplate{}, NewValidationError("version", "must match MAJOR.MINOR")
	}

	prev := t.Version
	content := t.Content
	if newContent != nil {
		content = *newContent
	}

	var reason *string
	if r := strings.TrimSpace(changeReason); r != "" {
		reason = &r
	}

	next := ConsentTemplate{
		ID:                     uuid.New(),
		Name:                   t.Name,
		Category:               t.Category,
		Version:                version,
		Content:                content,
		Active:                 true,
		Mandatory:              t.Mandatory,
		PreviousVersion:        &prev,
		ChangeReason:           reason,
		ValidFrom:              now,
		ValidUntil:             copyTime(t.ValidUntil),
		RequiresWitness:        t.RequiresWitness,
		AllowsDigitalSignature: t.AllowsDigitalSignature,
		ExpirationDays:         t.ExpirationDays,
		LegalBasis:             copyString(t.LegalBasis),
		Tags:                   append([]string(nil), t.Tags...),
		Language:               t.Language,
		CreatedAt:              now,
		UpdatedAt:              now,
		CreatedBy:              actor,
	}
	if next.ValidUntil != nil && !next.ValidUntil.After(now) {
		next.ValidUntil = nil
	}
	return next, nil
}

// GenerateLegalCode builds a CAT-YYYYMMDD-NN code from the first three
// letters of the category, the date and a two-digit suffix.
func GenerateLegalCode(category Category, date time.Time, suffix int) string {
	prefix := []rune(strings.ToUpper(string(category)))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s-%s-%02d", string(prefix), date.UTC().Format("20060102"), suffix%100)
}

// NormalizeLegalCode trims and upper-cases a legal code.
func NormalizeLegalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeTags trims, drops empties and removes duplicates, keeping order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
