package domain

import (
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/evidence"
)

// Record field limits.
const (
	MaxRejectionReasonLen = 500
	MaxNotesLen           = 1000
)

// PatientSnapshot is the patient data copied into a record at issuance.
type PatientSnapshot struct {
	Name  string
	DNI   *string
	Email *string
	Phone *string
}

// TemplateSnapshot is the template data copied into a record at issuance.
// It never changes afterwards, whatever happens to the source template.
type TemplateSnapshot struct {
	Name                   string
	Version                string
	Content                string
	Category               Category
	LegalCode              *string
	RequiresWitness        bool
	AllowsDigitalSignature bool
}

// Geolocation captured at signature time.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Witness present at signature.
type Witness struct {
	Name         string `json:"name"`
	DNI          string `json:"dni,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Signature    string `json:"signature,omitempty"`
}

// ConsentRecord is one patient's instance of a template, with its own
// lifecycle and signature evidence.
type ConsentRecord struct {
	ID         uuid.UUID
	PatientID  string
	TemplateID uuid.UUID

	Patient  PatientSnapshot
	Template TemplateSnapshot

	Status RecordStatus

	CreatedAt  time.Time
	UpdatedAt  time.Time
	SentAt     *time.Time
	ViewedAt   *time.Time
	SignedAt   *time.Time
	RejectedAt *time.Time
	ExpiresAt  *time.Time

	DigitalSignature *string
	IP               *string
	UserAgent        *string
	Geolocation      *Geolocation
	Witness          *Witness
	EvidenceHash     *string

	RejectionReason *string

	DeliveryMethod *DeliveryMethod
	AccessToken    *string
	TokenExpiresAt *time.Time
	AttemptCount   int

	CreatedBy      string
	SentBy         *string
	Notes          *string
	RemindersSent  int
	LastReminderAt *time.Time

	// Version is the optimistic-concurrency counter, bumped on every write.
	Version int
}

// SignatureData is what the patient submits when signing.
type SignatureData struct {
	Signature   string
	Timestamp   *time.Time
	IP          string
	UserAgent   string
	Geolocation *Geolocation
	Witness     *Witness
}

// IsExpired reports whether the record is past ExpiresAt. It does not look
// at the persisted status.
func (r *ConsentRecord) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// RequiresAction reports whether the record still awaits a signature.
func (r *ConsentRecord) RequiresAction(now time.Time) bool {
	switch r.Status {
	case RecordStatusPending, RecordStatusSent, RecordStatusViewed:
		return !r.IsExpired(now)
	}
	return false
}

// EvidenceFacts returns the inputs of the evidence hash for a signed record.
func (r *ConsentRecord) EvidenceFacts() evidence.Facts {
	f := evidence.Facts{
		PatientID:   r.PatientID,
		TemplateID:  r.TemplateID.String(),
		FormVersion: r.Template.Version,
	}
	if r.SignedAt != nil {
		f.SignedAt = *r.SignedAt
	}
	if r.IP != nil {
		f.IP = *r.IP
	}
	if r.UserAgent != nil {
		f.UserAgent = *r.UserAgent
	}
	return f
}

// MarkSent moves a pending record to sent.
func (r *ConsentRecord) MarkSent(sentBy string, method DeliveryMethod, now time.Time) error {
	if r.Status == RecordStatusExpired {
		return ErrRecordExpired
	}
	if r.Status != RecordStatusPending {
		return newTransitionError(r.Status, "send")
	}
	if r.IsExpired(now) {
		return ErrRecordExpired
	}
	if method == "" {
		method = DeliveryEmail
	}
	if !method.IsValid() {
		return NewValidationError("delivery_method", "invalid value")
	}

	r.Status = RecordStatusSent
	r.SentAt = &now
	r.SentBy = &sentBy
	r.DeliveryMethod = &method
	r.UpdatedAt = now
	return nil
}

// MarkViewed moves a sent record to viewed. Any other status is left
// untouched and changed is false.
func (r *ConsentRecord) MarkViewed(now time.Time) (changed bool, err error) {
	if r.Status != RecordStatusSent {
		return false, nil
	}
	if r.IsExpired(now) {
		return false, ErrRecordExpired
	}
	r.Status = RecordStatusViewed
	r.ViewedAt = &now
	r.UpdatedAt = now
	return true, nil
}

// Sign seals the record with the patient's signature and evidence hash.
func (r *ConsentRecord) Sign(data SignatureData, now time.Time) error {
	if r.Status == RecordStatusExpired {
		return ErrRecordExpired
	}
	if !r.Status.AwaitsPatient() {
		return newTransitionError(r.Status, "sign")
	}
	if r.IsExpired(now) {
		return ErrRecordExpired
	}
	if err := data.validate(r.Template.RequiresWitness); err != nil {
		return err
	}

	signedAt := now
	if data.Timestamp != nil {
		signedAt = *data.Timestamp
	}
	// Storage keeps microseconds; truncating here keeps the hash verifiable
	// after a round trip.
	signedAt = signedAt.UTC().Truncate(time.Microsecond)

	sig := data.Signature
	ip := strings.TrimSpace(data.IP)
	ua := data.UserAgent

	r.Status = RecordStatusSigned
	r.SignedAt = &signedAt
	r.DigitalSignature = &sig
	r.IP = &ip
	r.UserAgent = &ua
	r.Geolocation = data.Geolocation
	r.Witness = data.Witness
	r.UpdatedAt = now

	hash, err := evidence.Hash(r.EvidenceFacts())
	if err != nil {
		return fmt.Errorf("seal evidence: %w", err)
	}
	r.EvidenceHash = &hash
	return nil
}

// Reject records the patient's refusal.
func (r *ConsentRecord) Reject(reason string, now time.Time) error {
	if r.Status == RecordStatusExpired {
		return ErrRecordExpired
	}
	if !r.Status.AwaitsPatient() {
		return newTransitionError(r.Status, "reject")
	}
	if r.IsExpired(now) {
		return ErrRecordExpired
	}

	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > MaxRejectionReasonLen {
		return NewValidationError("rejection_reason", fmt.Sprintf("max %d characters", MaxRejectionReasonLen))
	}

	r.Status = RecordStatusRejected
	r.RejectedAt = &now
	if reason != "" {
		r.RejectionReason = &reason
	}
	r.UpdatedAt = now
	return nil
}

// RegenerateToken replaces the access token of a non-terminal record and
// resets the attempt counter.
func (r *ConsentRecord) RegenerateToken(token string, ttl time.Duration, now time.Time) error {
	if r.Status.IsTerminal() {
		return newTransitionError(r.Status, "regenerate token for")
	}
	exp := now.Add(ttl)
	r.AccessToken = &token
	r.TokenExpiresAt = &exp
	r.AttemptCount = 0
	r.UpdatedAt = now
	return nil
}

// RecordReminder counts a reminder sent to the patient.
func (r *ConsentRecord) RecordReminder(now time.Time) error {
	if r.Status == RecordStatusExpired {
		return ErrRecordExpired
	}
	if !r.Status.AwaitsPatient() {
		return newTransitionError(r.Status, "remind")
	}
	if r.IsExpired(now) {
		return ErrRecordExpired
	}
	r.RemindersSent++
	r.LastReminderAt = &now
	r.UpdatedAt = now
	return nil
}

// Expire flips a past-due, non-terminal record to expired.
func (r *ConsentRecord) Expire(now time.Time) error {
	if r.Status.IsTerminal() {
		return newTransitionError(r.Status, "expire")
	}
	if !r.IsExpired(now) {
		return NewValidationError("expires_at", "record is not past due")
	}
	r.Status = RecordStatusExpired
	r.UpdatedAt = now
	return nil
}

// VerifyEvidence recomputes the evidence hash from the stored facts and
// compares it with the sealed one.
func (r *ConsentRecord) VerifyEvidence() (bool, error) {
	if r.Status != RecordStatusSigned || r.EvidenceHash == nil {
		return false, newTransitionError(r.Status, "verify evidence of")
	}
	return evidence.Verify(r.EvidenceFacts(), *r.EvidenceHash)
}

// ExpiredRecord identifies a record flipped to expired by a sweep.
type ExpiredRecord struct {
	ID             uuid.UUID
	PreviousStatus RecordStatus
}

func (d SignatureData) validate(requiresWitness bool) error {
	var errs []FieldError

	if strings.TrimSpace(d.Signature) == "" {
		errs = append(errs, FieldError{Field: "signature", Message: "required"})
	}
	if ip := strings.TrimSpace(d.IP); ip != "" && net.ParseIP(ip) == nil {
		errs = append(errs, FieldError{Field: "ip", Message: "invalid address"})
	}
	if g := d.Geolocation; g != nil {
		if g.Latitude < -90 || g.Latitude > 90 || g.Longitude < -180 || g.Longitude > 180 {
			errs = append(errs, FieldError{Field: "geolocation", Message: "out of range"})
		}
	}
	if requiresWitness && (d.Witness == nil || strings.TrimSpace(d.Witness.Name) == "") {
		errs = append(errs, FieldError{Field: "witness", Message: "required by template"})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
