package portal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/Gioaltam/Inspection-agent/internal/domain/portal"
	"github.com/Gioaltam/Inspection-agent/internal/domain/report"
	"github.com/Gioaltam/Inspection-agent/internal/infra/auth"
)

// Service implements the portal read path: magic-link login, dashboard
// lookup and signed-URL mediation over the report index.
type Service struct {
	Owners   domain.OwnerRepo
	Links    domain.MagicLinks
	Mailer   domain.Mailer
	Sessions *auth.Sessions
	Signer   *auth.URLSigner
	Index    report.Index
	Log      *zap.SugaredLogger

	BaseURL   string
	OutputDir string
}

// DashboardReport is one report entry with pre-signed artifact URLs.
type DashboardReport struct {
	ReportID       string    `json:"report_id"`
	Address        string    `json:"address"`
	CreatedAt      time.Time `json:"created_at"`
	PhotoCount     int       `json:"photo_count"`
	CriticalCount  int       `json:"critical_count"`
	ImportantCount int       `json:"important_count"`
	PDFURL         string    `json:"pdf_url"`
	JSONURL        string    `json:"json_url"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type Dashboard struct {
	Owner   *domain.Owner     `json:"owner"`
	Reports []DashboardReport `json:"reports"`
}

// RequestLogin issues a magic link when the email belongs to an owner.
// The caller always gets a nil error for unknown emails so the endpoint
// cannot be used to enumerate accounts.
func (s *Service) RequestLogin(ctx context.Context, email string) error {
	owner, err := s.Owners.ByEmail(ctx, email)
	if err != nil {
		return err
	}
	if owner == nil {
		s.Log.Infow("login requested for unknown email")
		return nil
	}
	token, err := s.Links.Issue(ctx, owner.ID)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/auth/verify?token=%s", strings.TrimRight(s.BaseURL, "/"), token)
	return s.Mailer.SendMagicLink(ctx, owner.Email, owner.Name, link)
}

// VerifyMagicLink consumes the token and returns a session token plus the
// owner it belongs to.
func (s *Service) VerifyMagicLink(ctx context.Context, token string) (string, *domain.Owner, error) {
	ownerID, err := s.Links.Verify(ctx, token)
	if err != nil {
		return "", nil, err
	}
	owner, err := s.Owners.ByID(ctx, ownerID)
	if err != nil {
		return "", nil, err
	}
	if owner == nil {
		return "", nil, domain.ErrUnauthorized
	}
	session, err := s.Sessions.Issue(owner.ID)
	if err != nil {
		return "", nil, err
	}
	return session, owner, nil
}

// DashboardFor lists the owner's reports with signed artifact URLs.
func (s *Service) DashboardFor(ctx context.Context, ownerID string) (*Dashboard, error) {
	owner, err := s.Owners.ByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, domain.ErrUnauthorized
	}
	records, err := s.Index.ByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{Owner: owner, Reports: make([]DashboardReport, 0, len(records))}
	for _, rec := range records {
		pdfURL, exp := s.Signer.Sign(s.relArtifact(rec.PDFPath))
		jsonURL, _ := s.Signer.Sign(s.relArtifact(rec.JSONPath))
		dash.Reports = append(dash.Reports, DashboardReport{
			ReportID:       rec.ReportID,
			Address:        rec.Address,
			CreatedAt:      rec.CreatedAt,
			PhotoCount:     rec.PhotoCount,
			CriticalCount:  rec.CriticalCount,
			ImportantCount: rec.ImportantCount,
			PDFURL:         pdfURL,
			JSONURL:        jsonURL,
			ExpiresAt:      exp,
		})
	}
	return dash, nil
}

// ResolveArtifact validates a signed request and maps the signed path to
// a file inside the output directory. Any validation or confinement
// failure is the uniform ErrUnauthorized; the filesystem layout never
// leaks in responses.
func (s *Service) ResolveArtifact(signedPath, expires, signature string) (string, error) {
	if err := s.Signer.Validate(signedPath, expires, signature); err != nil {
		return "", domain.ErrUnauthorized
	}
	clean := filepath.Clean("/" + signedPath)
	if strings.Contains(signedPath, "..") {
		s.Log.Warnw("signed path traversal rejected")
		return "", domain.ErrUnauthorized
	}
	abs := filepath.Join(s.OutputDir, clean)
	root := filepath.Clean(s.OutputDir) + string(filepath.Separator)
	if !strings.HasPrefix(abs, root) {
		return "", domain.ErrUnauthorized
	}
	return abs, nil
}

// relArtifact converts an index artifact path (relative to the process
// workdir) into the output-dir-relative path that gets signed.
func (s *Service) relArtifact(p string) string {
	rel, err := filepath.Rel(s.OutputDir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
