package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

var columns = []string{
	"id", "patient_id", "template_id",
	"patient_name", "patient_dni", "patient_email", "patient_phone",
	"template_name", "template_version", "template_content", "template_category",
	"template_legal_code", "requires_witness", "allows_digital_signature",
	"status", "created_at", "updated_at", "sent_at", "viewed_at", "signed_at", "rejected_at", "expires_at",
	"digital_signature", "ip", "user_agent", "geolocation", "witness", "evidence_hash",
	"rejection_reason", "delivery_method", "access_token", "token_expires_at", "attempt_count",
	"created_by", "sent_by", "notes", "reminders_sent", "last_reminder_at", "version",
}

// recordRow mirrors a consent_records row. JSON columns stay raw here and
// are decoded in toDomain.
type recordRow struct {
	ID         uuid.UUID `db:"id"`
	PatientID  string    `db:"patient_id"`
	TemplateID uuid.UUID `db:"template_id"`

	PatientName  string  `db:"patient_name"`
	PatientDNI   *string `db:"patient_dni"`
	PatientEmail *string `db:"patient_email"`
	PatientPhone *string `db:"patient_phone"`

	TemplateName           string  `db:"template_name"`
	TemplateVersion        string  `db:"template_version"`
	TemplateContent        string  `db:"template_content"`
	TemplateCategory       string  `db:"template_category"`
	TemplateLegalCode      *string `db:"template_legal_code"`
	RequiresWitness        bool    `db:"requires_witness"`
	AllowsDigitalSignature bool    `db:"allows_digital_signature"`

	Status     string     `db:"status"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	SentAt     *time.Time `db:"sent_at"`
	ViewedAt   *time.Time `db:"viewed_at"`
	SignedAt   *time.Time `db:"signed_at"`
	RejectedAt *time.Time `db:"rejected_at"`
	ExpiresAt  *time.Time `db:"expires_at"`

	DigitalSignature *string `db:"digital_signature"`
	IP               *string `db:"ip"`
	UserAgent        *string `db:"user_agent"`
	Geolocation      []byte  `db:"geolocation"`
	Witness          []byte  `db:"witness"`
	EvidenceHash     *string `db:"evidence_hash"`

	RejectionReason *string `db:"rejection_reason"`

	DeliveryMethod *string    `db:"delivery_method"`
	AccessToken    *string    `db:"access_token"`
	TokenExpiresAt *time.Time `db:"token_expires_at"`
	AttemptCount   int        `db:"attempt_count"`

	CreatedBy      string     `db:"created_by"`
	SentBy         *string    `db:"sent_by"`
	Notes          *string    `db:"notes"`
	RemindersSent  int        `db:"reminders_sent"`
	LastReminderAt *time.Time `db:"last_reminder_at"`
	Version        int        `db:"version"`
}

func fromDomain(r domain.ConsentRecord) (recordRow, error) {
	geo, err := marshalOptional(r.Geolocation)
	if err != nil {
		return recordRow{}, fmt.Errorf("marshal geolocation: %w", err)
	}
	witness, err := marshalOptional(r.Witness)
	if err != nil {
		return recordRow{}, fmt.Errorf("marshal witness: %w", err)
	}

	var method *string
	if r.DeliveryMethod != nil {
		m := string(*r.DeliveryMethod)
		method = &m
	}

	return recordRow{
		ID:                     r.ID,
		PatientID:              r.PatientID,
		TemplateID:             r.TemplateID,
		PatientName:            r.Patient.Name,
		PatientDNI:             r.Patient.DNI,
		PatientEmail:           r.Patient.Email,
		PatientPhone:           r.Patient.Phone,
		TemplateName:           r.Template.Name,
		TemplateVersion:        r.Template.Version,
		TemplateContent:        r.Template.Content,
		TemplateCategory:       string(r.Template.Category),
		TemplateLegalCode:      r.Template.LegalCode,
		RequiresWitness:        r.Template.RequiresWitness,
		AllowsDigitalSignature: r.Template.AllowsDigitalSignature,
		Status:                 string(r.Status),
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
		SentAt:                 r.SentAt,
		ViewedAt:               r.ViewedAt,
		SignedAt:               r.SignedAt,
		RejectedAt:             r.RejectedAt,
		ExpiresAt:              r.ExpiresAt,
		DigitalSignature:       r.DigitalSignature,
		IP:                     r.IP,
		UserAgent:              r.UserAgent,
		Geolocation:            geo,
		Witness:                witness,
		EvidenceHash:           r.EvidenceHash,
		RejectionReason:        r.RejectionReason,
		DeliveryMethod:         method,
		AccessToken:            r.AccessToken,
		TokenExpiresAt:         r.TokenExpiresAt,
		AttemptCount:           r.AttemptCount,
		CreatedBy:              r.CreatedBy,
		SentBy:                 r.SentBy,
		Notes:                  r.Notes,
		RemindersSent:          r.RemindersSent,
		LastReminderAt:         r.LastReminderAt,
		Version:                r.Version,
	}, nil
}

// values returns the row in the order of columns.
func (r recordRow) values() []any {
	return []any{
		r.ID, r.PatientID, r.TemplateID,
		r.PatientName, r.PatientDNI, r.PatientEmail, r.PatientPhone,
		r.TemplateName, r.TemplateVersion, r.TemplateContent, r.TemplateCategory,
		r.TemplateLegalCode, r.RequiresWitness, r.AllowsDigitalSignature,
		r.Status, r.CreatedAt, r.UpdatedAt, r.SentAt, r.ViewedAt, r.SignedAt, r.RejectedAt, r.ExpiresAt,
		r.DigitalSignature, r.IP, r.UserAgent, r.Geolocation, r.Witness, r.EvidenceHash,
		r.RejectionReason, r.DeliveryMethod, r.AccessToken, r.TokenExpiresAt, r.AttemptCount,
		r.CreatedBy, r.SentBy, r.Notes, r.RemindersSent, r.LastReminderAt, r.Version,
	}
}

func (r recordRow) toDomain() (domain.ConsentRecord, error) {
	rec := domain.ConsentRecord{
		ID:         r.ID,
		PatientID:  r.PatientID,
		TemplateID: r.TemplateID,
		Patient: domain.PatientSnapshot{
			Name:  r.PatientName,
			DNI:   r.PatientDNI,
			Email: r.PatientEmail,
			Phone: r.PatientPhone,
		},
		Template: domain.TemplateSnapshot{
			Name:                   r.TemplateName,
			Version:                r.TemplateVersion,
			Content:                r.TemplateContent,
			Category:               domain.Category(r.TemplateCategory),
			LegalCode:              r.TemplateLegalCode,
			RequiresWitness:        r.RequiresWitness,
			AllowsDigitalSignature: r.AllowsDigitalSignature,
		},
		Status:           domain.RecordStatus(r.Status),
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
		SentAt:           utcPtr(r.SentAt),
		ViewedAt:         utcPtr(r.ViewedAt),
		SignedAt:         utcPtr(r.SignedAt),
		RejectedAt:       utcPtr(r.RejectedAt),
		ExpiresAt:        utcPtr(r.ExpiresAt),
		DigitalSignature: r.DigitalSignature,
		IP:               r.IP,
		UserAgent:        r.UserAgent,
		EvidenceHash:     r.EvidenceHash,
		RejectionReason:  r.RejectionReason,
		AccessToken:      r.AccessToken,
		TokenExpiresAt:   utcPtr(r.TokenExpiresAt),
		AttemptCount:     r.AttemptCount,
		CreatedBy:        r.CreatedBy,
		SentBy:           r.SentBy,
		Notes:            r.Notes,
		RemindersSent:    r.RemindersSent,
		LastReminderAt:   utcPtr(r.LastReminderAt),
		Version:          r.Version,
	}

	if r.DeliveryMethod != nil {
		m := domain.DeliveryMethod(*r.DeliveryMethod)
		rec.DeliveryMethod = &m
	}

	if len(r.Geolocation) > 0 {
		var g domain.Geolocation
		if err := json.Unmarshal(r.Geolocation, &g); err != nil {
			return domain.ConsentRecord{}, fmt.Errorf("consent_record %s unmarshal geolocation: %w", r.ID, err)
		}
		rec.Geolocation = &g
	}
	if len(r.Witness) > 0 {
		var w domain.Witness
		if err := json.Unmarshal(r.Witness, &w); err != nil {
			return domain.ConsentRecord{}, fmt.Errorf("consent_record %s unmarshal witness: %w", r.ID, err)
		}
		rec.Witness = &w
	}

	return rec, nil
}

// marshalOptional encodes v as JSON, mapping a nil pointer to SQL NULL.
func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
