package consent

import (
	"context"
	"fmt"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

// FindByToken returns the record an access token opens. Unknown, expired,
// exhausted and inactive tokens all yield domain.ErrNotFound. Every
// successful lookup counts as an attempt.
func (s *Service) FindByToken(ctx context.Context, token string) (domain.ConsentRecord, error) {
	if token == "" {
		return domain.ConsentRecord{}, fmt.Errorf("empty token: %w", domain.ErrNotFound)
	}
	rec, err := s.records.FindActiveByToken(ctx, token, s.clock.Now(), s.cfg.MaxTokenAttempts)
	if err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("find record by token: %w", err)
	}
	return rec, nil
}

// OpenByToken resolves the token and marks the record viewed.
func (s *Service) OpenByToken(ctx context.Context, token string) (domain.ConsentRecord, error) {
	rec, err := s.FindByToken(ctx, token)
	if err != nil {
		return domain.ConsentRecord{}, err
	}
	return s.mutate(ctx, rec.ID, viewMutation(PatientActor))
}

// SignByToken resolves the token and signs the record remotely. Templates
// that do not allow digital signature must be signed in the clinic.
func (s *Service) SignByToken(ctx context.Context, token string, data domain.SignatureData) (domain.ConsentRecord, error) {
	rec, err := s.FindByToken(ctx, token)
	if err != nil {
		return domain.ConsentRecord{}, err
	}
	if !rec.Template.AllowsDigitalSignature {
		return domain.ConsentRecord{}, domain.NewValidationError("signature", "template requires signing in person")
	}
	return s.mutate(ctx, rec.ID, signMutation(PatientActor, data))
}

// RejectByToken resolves the token and records the patient's refusal.
func (s *Service) RejectByToken(ctx context.Context, token, reason string) (domain.ConsentRecord, error) {
	rec, err := s.FindByToken(ctx, token)
	if err != nil {
		return domain.ConsentRecord{}, err
	}
	return s.mutate(ctx, rec.ID, rejectMutation(PatientActor, reason))
}
