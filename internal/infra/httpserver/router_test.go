package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appportal "github.com/Gioaltam/Inspection-agent/internal/application/portal"
	domainportal "github.com/Gioaltam/Inspection-agent/internal/domain/portal"
	"github.com/Gioaltam/Inspection-agent/internal/domain/report"
	"github.com/Gioaltam/Inspection-agent/internal/infra/auth"
	sqlitedb "github.com/Gioaltam/Inspection-agent/internal/infra/db/sqlite"
	"github.com/Gioaltam/Inspection-agent/internal/infra/index"
	"github.com/Gioaltam/Inspection-agent/internal/logging"
)

type capturingMailer struct {
	to   string
	link string
}

func (m *capturingMailer) SendMagicLink(ctx context.Context, to, name, link string) error {
	m.to = to
	m.link = link
	return nil
}

type fixture struct {
	handler http.Handler
	svc     *appportal.Service
	mailer  *capturingMailer
	out     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlitedb.Connect(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	owners := sqlitedb.NewOwnerRepository(db)
	require.NoError(t, owners.Save(context.Background(), &domainportal.Owner{
		ID:    "owner-1",
		Email: "amy@example.com",
		Name:  "Amy",
	}))

	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "report.pdf"), []byte("%PDF-1.4 test"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "r1.json"), []byte(`{"report_id":"r1"}`), 0o644))

	idx := index.New(filepath.Join(t.TempDir(), "reports_index.json"))
	require.NoError(t, idx.Upsert(context.Background(), report.IndexRecord{
		ReportID:   "r1",
		Address:    "123 Main St",
		OwnerID:    "owner-1",
		CreatedAt:  time.Now(),
		PDFPath:    filepath.Join(out, "report.pdf"),
		JSONPath:   filepath.Join(out, "r1.json"),
		PhotoCount: 3,
	}))

	log := logging.Nop()
	sessions := auth.NewSessions("test-secret", time.Hour)
	mailer := &capturingMailer{}
	svc := &appportal.Service{
		Owners:    owners,
		Links:     auth.NewMagicLinkStore(db, 15*time.Minute, log),
		Mailer:    mailer,
		Sessions:  sessions,
		Signer:    auth.NewURLSigner("test-secret", "http://localhost:8000", time.Hour),
		Index:     idx,
		Log:       log,
		BaseURL:   "http://localhost:8000",
		OutputDir: out,
	}
	return &fixture{
		handler: NewRouter(svc, sessions, log),
		svc:     svc,
		mailer:  mailer,
		out:     out,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// loginAndVerify runs the whole magic-link flow and returns a session
// token.
func (f *fixture) loginAndVerify(t *testing.T) string {
	t.Helper()
	rec := f.do(httptest.NewRequest("POST", "/api/portal/login",
		strings.NewReader(`{"email":"amy@example.com"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, f.mailer.link)

	u, err := url.Parse(f.mailer.link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)

	rec = f.do(httptest.NewRequest("GET", "/auth/verify?token="+url.QueryEscape(token), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginUnknownEmailStillAccepted(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest("POST", "/api/portal/login",
		strings.NewReader(`{"email":"nobody@example.com"}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, f.mailer.link, "no mail for unknown accounts")
}

func TestLoginMissingEmail(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest("POST", "/api/portal/login", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMagicLinkFlow(t *testing.T) {
	f := newFixture(t)
	token := f.loginAndVerify(t)
	assert.NotEmpty(t, token)
	assert.Equal(t, "amy@example.com", f.mailer.to)
}

func TestMagicLinkIsSingleUse(t *testing.T) {
	f := newFixture(t)
	_ = f.loginAndVerify(t)

	u, err := url.Parse(f.mailer.link)
	require.NoError(t, err)
	rec := f.do(httptest.NewRequest("GET", "/auth/verify?token="+u.Query().Get("token"), nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", strings.TrimSpace(rec.Body.String()))
}

func TestVerifyWithoutToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest("GET", "/auth/verify", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardRequiresSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest("GET", "/api/portal/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("GET", "/api/portal/dashboard", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestDashboardListsOwnerReports(t *testing.T) {
	f := newFixture(t)
	session := f.loginAndVerify(t)

	req := httptest.NewRequest("GET", "/api/portal/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+session)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash appportal.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	require.Len(t, dash.Reports, 1)
	assert.Equal(t, "r1", dash.Reports[0].ReportID)
	assert.Contains(t, dash.Reports[0].PDFURL, "/api/portal/signed/")
	assert.Contains(t, dash.Reports[0].PDFURL, "signature=")
}

func TestSignedArtifactFetch(t *testing.T) {
	f := newFixture(t)
	session := f.loginAndVerify(t)

	req := httptest.NewRequest("GET", "/api/portal/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+session)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash appportal.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	require.Len(t, dash.Reports, 1)

	u, err := url.Parse(dash.Reports[0].PDFURL)
	require.NoError(t, err)

	rec = f.do(httptest.NewRequest("GET", u.Path+"?"+u.RawQuery, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4 test", rec.Body.String())
}

func TestSignedArtifactTamperedSignature(t *testing.T) {
	f := newFixture(t)
	raw, _ := f.svc.Signer.Sign("report.pdf")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	q.Set("signature", strings.Repeat("0", 64))

	rec := f.do(httptest.NewRequest("GET", u.Path+"?"+q.Encode(), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", strings.TrimSpace(rec.Body.String()))
}

func TestSignedArtifactMissingFileStaysGeneric(t *testing.T) {
	f := newFixture(t)
	raw, _ := f.svc.Signer.Sign("gone.pdf")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	rec := f.do(httptest.NewRequest("GET", u.Path+"?"+u.RawQuery, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", strings.TrimSpace(rec.Body.String()))
}

func TestResolveArtifactRejectsTraversal(t *testing.T) {
	f := newFixture(t)
	raw, _ := f.svc.Signer.Sign("../outside.txt")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	_, err = f.svc.ResolveArtifact("../outside.txt", q.Get("expires"), q.Get("signature"))
	assert.ErrorIs(t, err, domainportal.ErrUnauthorized)
}
