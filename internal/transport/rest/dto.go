package rest

import (
	"time"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/internal/service/consent"
)

type listResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func mapSlice[S, T any](in []S, fn func(S) T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

type templateResponse struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Category               string     `json:"category"`
	Version                string     `json:"version"`
	Content                string     `json:"content"`
	Active                 bool       `json:"active"`
	Status                 string     `json:"status"`
	Mandatory              bool       `json:"mandatory"`
	PreviousVersion        *string    `json:"previousVersion,omitempty"`
	ChangeReason           *string    `json:"changeReason,omitempty"`
	ValidFrom              time.Time  `json:"validFrom"`
	ValidUntil             *time.Time `json:"validUntil,omitempty"`
	RequiresWitness        bool       `json:"requiresWitness"`
	AllowsDigitalSignature bool       `json:"allowsDigitalSignature"`
	ExpirationDays         int        `json:"expirationDays"`
	LegalCode              *string    `json:"legalCode,omitempty"`
	LegalBasis             *string    `json:"legalBasis,omitempty"`
	Tags                   []string   `json:"tags"`
	Language               string     `json:"language"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
	CreatedBy              string     `json:"createdBy"`
	UpdatedBy              *string    `json:"updatedBy,omitempty"`
	ApprovedBy             *string    `json:"approvedBy,omitempty"`
	ApprovalDate           *time.Time `json:"approvalDate,omitempty"`
}

func toTemplateResponse(t domain.ConsentTemplate, now time.Time) templateResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return templateResponse{
		ID:                     t.ID.String(),
		Name:                   t.Name,
		Category:               string(t.Category),
		Version:                t.Version,
		Content:                t.Content,
		Active:                 t.Active,
		Status:                 string(t.EffectiveStatus(now)),
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
		Tags:                   tags,
		Language:               string(t.Language),
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
		CreatedBy:              t.CreatedBy,
		UpdatedBy:              t.UpdatedBy,
		ApprovedBy:             t.ApprovedBy,
		ApprovalDate:           t.ApprovalDate,
	}
}

type createTemplateRequest struct {
	Name                   string     `json:"name"`
	Category               string     `json:"category"`
	Version                string     `json:"version"`
	Content                string     `json:"content"`
	Mandatory              bool       `json:"mandatory"`
	ValidFrom              *time.Time `json:"validFrom"`
	ValidUntil             *time.Time `json:"validUntil"`
	RequiresWitness        bool       `json:"requiresWitness"`
	AllowsDigitalSignature *bool      `json:"allowsDigitalSignature"`
	ExpirationDays         int        `json:"expirationDays"`
	LegalCode              *string    `json:"legalCode"`
	LegalBasis             *string    `json:"legalBasis"`
	Tags                   []string   `json:"tags"`
	Language               string     `json:"language"`
}

type updateTemplateRequest struct {
	Name                   *string    `json:"name"`
	Content                *string    `json:"content"`
	Active                 *bool      `json:"active"`
	Mandatory              *bool      `json:"mandatory"`
	ValidFrom              *time.Time `json:"validFrom"`
	ValidUntil             *time.Time `json:"validUntil"`
	ClearValidUntil        bool       `json:"clearValidUntil"`
	RequiresWitness        *bool      `json:"requiresWitness"`
	AllowsDigitalSignature *bool      `json:"allowsDigitalSignature"`
	ExpirationDays         *int       `json:"expirationDays"`
	LegalCode              *string    `json:"legalCode"`
	LegalBasis             *string    `json:"legalBasis"`
	Tags                   *[]string  `json:"tags"`
	Language               *string    `json:"language"`
}

type newVersionRequest struct {
	Version      string  `json:"version"`
	ChangeReason string  `json:"changeReason"`
	Content      *string `json:"content"`
}

type categoryStatsResponse struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
	Active   int    `json:"active"`
}

type templateStatsResponse struct {
	Total      int                     `json:"total"`
	Active     int                     `json:"active"`
	Mandatory  int                     `json:"mandatory"`
	ByCategory []categoryStatsResponse `json:"byCategory"`
}

func toTemplateStatsResponse(s domain.TemplateStats) templateStatsResponse {
	return templateStatsResponse{
		Total:     s.Total,
		Active:    s.Active,
		Mandatory: s.Mandatory,
		ByCategory: mapSlice(s.ByCategory, func(c domain.CategoryStats) categoryStatsResponse {
			return categoryStatsResponse{Category: string(c.Category), Total: c.Total, Active: c.Active}
		}),
	}
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

type patientSnapshotDTO struct {
	Name  string  `json:"name"`
	DNI   *string `json:"dni,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func (p patientSnapshotDTO) toDomain() domain.PatientSnapshot {
	return domain.PatientSnapshot{Name: p.Name, DNI: p.DNI, Email: p.Email, Phone: p.Phone}
}

func toPatientDTO(p domain.PatientSnapshot) patientSnapshotDTO {
	return patientSnapshotDTO{Name: p.Name, DNI: p.DNI, Email: p.Email, Phone: p.Phone}
}

type templateSnapshotResponse struct {
	Name                   string  `json:"name"`
	Version                string  `json:"version"`
	Content                string  `json:"content"`
	Category               string  `json:"category"`
	LegalCode              *string `json:"legalCode,omitempty"`
	RequiresWitness        bool    `json:"requiresWitness"`
	AllowsDigitalSignature bool    `json:"allowsDigitalSignature"`
}

func toTemplateSnapshotResponse(t domain.TemplateSnapshot) templateSnapshotResponse {
	return templateSnapshotResponse{
		Name:                   t.Name,
		Version:                t.Version,
		Content:                t.Content,
		Category:               string(t.Category),
		LegalCode:              t.LegalCode,
		RequiresWitness:        t.RequiresWitness,
		AllowsDigitalSignature: t.AllowsDigitalSignature,
	}
}

type recordResponse struct {
	ID              string                   `json:"id"`
	PatientID       string                   `json:"patientId"`
	TemplateID      string                   `json:"templateId"`
	Patient         patientSnapshotDTO       `json:"patient"`
	Template        templateSnapshotResponse `json:"template"`
	Status          string                   `json:"status"`
	IsExpired       bool                     `json:"isExpired"`
	RequiresAction  bool                     `json:"requiresAction"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
	SentAt          *time.Time               `json:"sentAt,omitempty"`
	ViewedAt        *time.Time               `json:"viewedAt,omitempty"`
	SignedAt        *time.Time               `json:"signedAt,omitempty"`
	RejectedAt      *time.Time               `json:"rejectedAt,omitempty"`
	ExpiresAt       *time.Time               `json:"expiresAt,omitempty"`
	IP              *string                  `json:"ip,omitempty"`
	UserAgent       *string                  `json:"userAgent,omitempty"`
	Geolocation     *domain.Geolocation      `json:"geolocation,omitempty"`
	Witness         *witnessResponse         `json:"witness,omitempty"`
	EvidenceHash    *string                  `json:"evidenceHash,omitempty"`
	RejectionReason *string                  `json:"rejectionReason,omitempty"`
	DeliveryMethod  *string                  `json:"deliveryMethod,omitempty"`
	AccessToken     *string                  `json:"accessToken,omitempty"`
	TokenExpiresAt  *time.Time               `json:"tokenExpiresAt,omitempty"`
	AttemptCount    int                      `json:"attemptCount"`
	CreatedBy       string                   `json:"createdBy"`
	SentBy          *string                  `json:"sentBy,omitempty"`
	Notes           *string                  `json:"notes,omitempty"`
	RemindersSent   int                      `json:"remindersSent"`
	LastReminderAt  *time.Time               `json:"lastReminderAt,omitempty"`
	Version         int                      `json:"version"`
}

// witnessResponse omits the witness signature image.
type witnessResponse struct {
	Name         string `json:"name"`
	DNI          string `json:"dni,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// toRecordResponse is the staff view. The signature image itself is not
// returned; the evidence hash stands for it.
func toRecordResponse(rec domain.ConsentRecord, now time.Time) recordResponse {
	resp := recordResponse{
		ID:              rec.ID.String(),
		PatientID:       rec.PatientID,
		TemplateID:      rec.TemplateID.String(),
		Patient:         toPatientDTO(rec.Patient),
		Template:        toTemplateSnapshotResponse(rec.Template),
		Status:          string(rec.Status),
		IsExpired:       rec.IsExpired(now),
		RequiresAction:  rec.RequiresAction(now),
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		SentAt:          rec.SentAt,
		ViewedAt:        rec.ViewedAt,
		SignedAt:        rec.SignedAt,
		RejectedAt:      rec.RejectedAt,
		ExpiresAt:       rec.ExpiresAt,
		IP:              rec.IP,
		UserAgent:       rec.UserAgent,
		Geolocation:     rec.Geolocation,
		EvidenceHash:    rec.EvidenceHash,
		RejectionReason: rec.RejectionReason,
		AccessToken:     rec.AccessToken,
		TokenExpiresAt:  rec.TokenExpiresAt,
		AttemptCount:    rec.AttemptCount,
		CreatedBy:       rec.CreatedBy,
		SentBy:          rec.SentBy,
		Notes:           rec.Notes,
		RemindersSent:   rec.RemindersSent,
		LastReminderAt:  rec.LastReminderAt,
		Version:         rec.Version,
	}
	if rec.DeliveryMethod != nil {
		m := string(*rec.DeliveryMethod)
		resp.DeliveryMethod = &m
	}
	if w := rec.Witness; w != nil {
		resp.Witness = &witnessResponse{Name: w.Name, DNI: w.DNI, Relationship: w.Relationship}
	}
	return resp
}

// publicRecordResponse is what a token holder sees: the document to sign
// and where it stands, nothing about delivery or other patients' data.
type publicRecordResponse struct {
	ID        string                   `json:"id"`
	Patient   patientSnapshotDTO       `json:"patient"`
	Template  templateSnapshotResponse `json:"template"`
	Status    string                   `json:"status"`
	ExpiresAt *time.Time               `json:"expiresAt,omitempty"`
	SignedAt  *time.Time               `json:"signedAt,omitempty"`
}

func toPublicRecordResponse(rec domain.ConsentRecord) publicRecordResponse {
	return publicRecordResponse{
		ID:        rec.ID.String(),
		Patient:   toPatientDTO(rec.Patient),
		Template:  toTemplateSnapshotResponse(rec.Template),
		Status:    string(rec.Status),
		ExpiresAt: rec.ExpiresAt,
		SignedAt:  rec.SignedAt,
	}
}

type instantiateRequest struct {
	TemplateID     string             `json:"templateId"`
	PatientID      string             `json:"patientId"`
	Patient        patientSnapshotDTO `json:"patient"`
	DeliveryMethod *string            `json:"deliveryMethod"`
	ExpiresAt      *time.Time         `json:"expiresAt"`
	Notes          *string            `json:"notes"`
}

type sendRequest struct {
	DeliveryMethod string `json:"deliveryMethod"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type signRequest struct {
	Signature   string              `json:"signature"`
	Timestamp   *time.Time          `json:"timestamp"`
	UserAgent   string              `json:"userAgent"`
	Geolocation *domain.Geolocation `json:"geolocation"`
	Witness     *domain.Witness     `json:"witness"`
}

// toDomain fills IP from the connection rather than trusting the body. An
// empty user agent falls back to the request header.
func (s signRequest) toDomain(ip, userAgent string) domain.SignatureData {
	ua := s.UserAgent
	if ua == "" {
		ua = userAgent
	}
	return domain.SignatureData{
		Signature:   s.Signature,
		Timestamp:   s.Timestamp,
		IP:          ip,
		UserAgent:   ua,
		Geolocation: s.Geolocation,
		Witness:     s.Witness,
	}
}

type evidenceResponse struct {
	RecordID string `json:"recordId"`
	Hash     string `json:"hash"`
	Valid    bool   `json:"valid"`
}

type monthStatsResponse struct {
	Month    string         `json:"month"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type recordStatsResponse struct {
	Total    int                  `json:"total"`
	ByStatus map[string]int       `json:"byStatus"`
	ByMonth  []monthStatsResponse `json:"byMonth"`
}

func statusCounts(in map[domain.RecordStatus]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func toRecordStatsResponse(s domain.RecordStats) recordStatsResponse {
	return recordStatsResponse{
		Total:    s.Total,
		ByStatus: statusCounts(s.ByStatus),
		ByMonth: mapSlice(s.ByMonth, func(m domain.MonthStats) monthStatsResponse {
			return monthStatsResponse{Month: m.Month, Total: m.Total, ByStatus: statusCounts(m.ByStatus)}
		}),
	}
}

type sweepResponse struct {
	Expired  int            `json:"expired"`
	ByStatus map[string]int `json:"byStatus"`
}

func toSweepResponse(r consent.SweepResult) sweepResponse {
	return sweepResponse{Expired: r.Expired, ByStatus: statusCounts(r.ByStatus)}
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

type auditResponse struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Changes   map[string]any `json:"changes,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toAuditResponse(a domain.AuditRecord) auditResponse {
	return auditResponse{
		ID:        a.ID.String(),
		Actor:     a.Actor,
		Action:    string(a.Action),
		Changes:   a.Changes,
		CreatedAt: a.CreatedAt,
	}
}
