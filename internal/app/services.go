package app

import (
	"log/slog"
	"time"

	"github.com/heartmarshall/clinic-consent/internal/adapter/metrics"
	"github.com/heartmarshall/clinic-consent/internal/adapter/postgres"
	auditrepo "github.com/heartmarshall/clinic-consent/internal/adapter/postgres/audit"
	recordrepo "github.com/heartmarshall/clinic-consent/internal/adapter/postgres/record"
	templaterepo "github.com/heartmarshall/clinic-consent/internal/adapter/postgres/template"
	"github.com/heartmarshall/clinic-consent/internal/auth"
	"github.com/heartmarshall/clinic-consent/internal/config"
	"github.com/heartmarshall/clinic-consent/internal/service/consent"
	"github.com/heartmarshall/clinic-consent/internal/service/template"
	"github.com/heartmarshall/clinic-consent/internal/transport/rest"
	"github.com/heartmarshall/clinic-consent/pkg/clock"
)

// Services holds the wired domain services.
type Services struct {
	Templates *template.Service
	Consent   *consent.Service
	Clock     clock.Clock
}

// NewServices wires repositories and services over db.
func NewServices(logger *slog.Logger, db postgres.DB, clk clock.Clock, m *metrics.Collectors, cfg config.ConsentConfig) *Services {
	txm := postgres.NewTxManager(db)
	templates := templaterepo.New(db)
	records := recordrepo.New(db)
	audit := auditrepo.New(db)

	return &Services{
		Templates: template.NewService(logger, templates, audit, txm, clk, cfg),
		Consent: consent.NewService(
			logger, records, templates, audit, txm,
			auth.NewTokenGenerator(cfg.TokenBytes), clk, m, cfg,
		),
		Clock: clk,
	}
}

// Handlers builds the REST handlers over the services.
func (s *Services) Handlers(logger *slog.Logger) (*rest.TemplateHandler, *rest.RecordHandler, *rest.PublicHandler) {
	now := func() time.Time { return s.Clock.Now() }
	return rest.NewTemplateHandler(s.Templates, now, logger),
		rest.NewRecordHandler(s.Consent, now, logger),
		rest.NewPublicHandler(s.Consent, logger)
}
