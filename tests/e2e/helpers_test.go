//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/clinic-consent/internal/adapter/metrics"
	"github.com/heartmarshall/clinic-consent/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/clinic-consent/internal/app"
	"github.com/heartmarshall/clinic-consent/internal/config"
	"github.com/heartmarshall/clinic-consent/internal/transport/middleware"
	"github.com/heartmarshall/clinic-consent/internal/transport/rest"
	"github.com/heartmarshall/clinic-consent/pkg/clock"
)

const staffActor = "dra.martinez"

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	Clock  *clock.Fake
	Svcs   *app.Services
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper). The clock starts at the
// current time and can be advanced by the test.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	clk := clock.NewFake(time.Now().UTC().Truncate(time.Microsecond))
	collectors := metrics.New()

	svcs := app.NewServices(logger, pool, clk, collectors, config.ConsentConfig{
		TokenBytes:            32,
		RegeneratedTokenTTL:   24 * time.Hour,
		DefaultExpirationDays: 30,
		MaxTokenAttempts:      20,
		SweepInterval:         time.Minute,
		LegalCodeAttempts:     5,
	})
	templates, records, public := svcs.Handlers(logger)

	limiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(limiter.Stop)

	handler := rest.NewRouter(rest.RouterConfig{
		Templates:      templates,
		Records:        records,
		Public:         public,
		Health:         rest.NewHealthHandler(pool, "test-version"),
		Logger:         logger,
		CORS:           config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,PUT", AllowedHeaders: "Content-Type,X-Actor-Id"},
		Instrument:     middleware.Metrics(collectors),
		PublicLimit:    limiter.Limit(1000),
		MetricsHandler: collectors.Handler(),
		MetricsPath:    "/metrics",
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		Clock:  clk,
		Svcs:   svcs,
	}
}

// call sends a JSON request and decodes the response into out when out is
// non-nil. An empty actor sends no X-Actor-Id header.
func (ts *testServer) call(t *testing.T, method, path string, body any, actor string, out any) int {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

// staff is call with the staff actor header.
func (ts *testServer) staff(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	return ts.call(t, method, "/api/v1"+path, body, staffActor, out)
}

// patient is call against the public, token-addressed routes.
func (ts *testServer) patient(t *testing.T, method, token, suffix string, body any, out any) int {
	t.Helper()
	return ts.call(t, method, "/api/v1/public/consents/"+token+suffix, body, "", out)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type templateJSON struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Version         string  `json:"version"`
	Content         string  `json:"content"`
	Status          string  `json:"status"`
	Active          bool    `json:"active"`
	PreviousVersion *string `json:"previousVersion"`
	LegalCode       *string `json:"legalCode"`
	ApprovedBy      *string `json:"approvedBy"`
}

type recordJSON struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Template struct {
		Version string `json:"version"`
		Content string `json:"content"`
	} `json:"template"`
	AccessToken  *string `json:"accessToken"`
	EvidenceHash *string `json:"evidenceHash"`
	IP           *string `json:"ip"`
	SentAt       *string `json:"sentAt"`
	ViewedAt     *string `json:"viewedAt"`
	SignedAt     *string `json:"signedAt"`
	Version      int     `json:"version"`
}

type auditJSON struct {
	Actor  string `json:"actor"`
	Action string `json:"action"`
}

func consentText(topic string) string {
	return "El paciente declara haber sido informado sobre " + topic +
		", sus riesgos, alternativas y cuidados posteriores, y autoriza el tratamiento."
}

// createTemplate creates an active endodontics template with a unique name.
func createTemplate(t *testing.T, ts *testServer, extra map[string]any) templateJSON {
	t.Helper()

	body := map[string]any{
		"name":     "Endodoncia " + strings.Split(uuid.NewString(), "-")[0],
		"category": "Endodoncia",
		"version":  "1.0",
		"content":  consentText("la endodoncia"),
	}
	for k, v := range extra {
		body[k] = v
	}

	var tpl templateJSON
	require.Equal(t, http.StatusCreated, ts.staff(t, http.MethodPost, "/templates", body, &tpl))
	return tpl
}

// issueRecord instantiates a record from tpl and marks it sent by email.
func issueRecord(t *testing.T, ts *testServer, tpl templateJSON) recordJSON {
	t.Helper()

	var rec recordJSON
	require.Equal(t, http.StatusCreated, ts.staff(t, http.MethodPost, "/records", map[string]any{
		"templateId": tpl.ID,
		"patientId":  "PAC-" + strings.Split(uuid.NewString(), "-")[0],
		"patient":    map[string]any{"name": "Lucía Romero", "email": "lucia@example.com"},
	}, &rec))
	require.Equal(t, "pending", rec.Status)

	require.Equal(t, http.StatusOK, ts.staff(t, http.MethodPost, "/records/"+rec.ID+"/send",
		map[string]any{"deliveryMethod": "email"}, &rec))
	require.Equal(t, "sent", rec.Status)
	require.NotNil(t, rec.AccessToken)
	return rec
}

func signature() map[string]any {
	return map[string]any{
		"signature":   "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
		"userAgent":   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		"geolocation": map[string]any{"latitude": 40.4168, "longitude": -3.7038, "accuracy": 12},
	}
}

func auditActions(entries []auditJSON) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}
