package testhelper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedTemplate creates an active, open-ended Endodoncia template with a
// unique name. Returns the filled domain.ConsentTemplate.
func SeedTemplate(t *testing.T, pool *pgxpool.Pool) domain.ConsentTemplate {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	tpl := domain.ConsentTemplate{
		ID:                     uuid.New(),
		Name:                   "Endodoncia " + uniqueSuffix(),
		Category:               domain.CategoryEndodontics,
		Version:                "1.0",
		Content:                strings.Repeat("Consentimiento informado. ", 3),
		Active:                 true,
		ValidFrom:              now.Add(-time.Hour),
		AllowsDigitalSignature: true,
		ExpirationDays:         30,
		Tags:                   []string{},
		Language:               domain.LanguageES,
		CreatedAt:              now,
		UpdatedAt:              now,
		CreatedBy:              "seed",
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO consent_templates
		   (id, name, category, version, content, active, valid_from, allows_digital_signature,
		    expiration_days, tags, language, created_at, updated_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		tpl.ID, tpl.Name, string(tpl.Category), tpl.Version, tpl.Content, tpl.Active, tpl.ValidFrom,
		tpl.AllowsDigitalSignature, tpl.ExpirationDays, tpl.Tags, string(tpl.Language),
		tpl.CreatedAt, tpl.UpdatedAt, tpl.CreatedBy,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTemplate insert: %v", err)
	}

	return tpl
}

// RecordOption customises a seeded record.
type RecordOption func(*domain.ConsentRecord)

// WithStatus sets the seeded record's status.
func WithStatus(s domain.RecordStatus) RecordOption {
	return func(r *domain.ConsentRecord) { r.Status = s }
}

// WithExpiresAt sets the seeded record's due date.
func WithExpiresAt(at time.Time) RecordOption {
	return func(r *domain.ConsentRecord) { r.ExpiresAt = &at }
}

// SeedRecord creates a record for tpl with a fresh access token. Signed
// records get a placeholder evidence hash so the table constraint holds.
func SeedRecord(t *testing.T, pool *pgxpool.Pool, tpl domain.ConsentTemplate, opts ...RecordOption) domain.ConsentRecord {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	expires := now.Add(time.Duration(tpl.ExpirationDays) * 24 * time.Hour)
	token := "tok-" + uuid.New().String()

	rec := domain.ConsentRecord{
		ID:         uuid.New(),
		PatientID:  "patient-" + uniqueSuffix(),
		TemplateID: tpl.ID,
		Patient:    domain.PatientSnapshot{Name: "Paciente Prueba"},
		Template: domain.TemplateSnapshot{
			Name:                   tpl.Name,
			Version:                tpl.Version,
			Content:                tpl.Content,
			Category:               tpl.Category,
			AllowsDigitalSignature: tpl.AllowsDigitalSignature,
		},
		Status:         domain.RecordStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      &expires,
		AccessToken:    &token,
		TokenExpiresAt: &expires,
		CreatedBy:      "seed",
		Version:        1,
	}
	for _, opt := range opts {
		opt(&rec)
	}

	var hash *string
	if rec.Status == domain.RecordStatusSigned {
		h := "seed-" + uuid.New().String()
		hash = &h
		rec.EvidenceHash = hash
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO consent_records
		   (id, patient_id, template_id, patient_name, template_name, template_version,
		    template_content, template_category, allows_digital_signature, status, created_at,
		    updated_at, expires_at, access_token, token_expires_at, evidence_hash, created_by, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		rec.ID, rec.PatientID, rec.TemplateID, rec.Patient.Name, rec.Template.Name, rec.Template.Version,
		rec.Template.Content, string(rec.Template.Category), rec.Template.AllowsDigitalSignature,
		string(rec.Status), rec.CreatedAt, rec.UpdatedAt, rec.ExpiresAt, rec.AccessToken,
		rec.TokenExpiresAt, hash, rec.CreatedBy, rec.Version,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRecord insert: %v", err)
	}

	return rec
}
