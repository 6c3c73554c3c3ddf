package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appportal "github.com/Gioaltam/Inspection-agent/internal/application/portal"
	domain "github.com/Gioaltam/Inspection-agent/internal/domain/portal"
	"github.com/Gioaltam/Inspection-agent/internal/infra/auth"
	"github.com/Gioaltam/Inspection-agent/internal/middleware"
)

type Router struct {
	portalSvc *appportal.Service
	log       *zap.SugaredLogger
}

func NewRouter(portalSvc *appportal.Service, sessions *auth.Sessions, log *zap.SugaredLogger) http.Handler {
	r := &Router{portalSvc: portalSvc, log: log}
	mux := chi.NewRouter()

	mux.Use(middleware.RequestLogging(log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Post("/api/portal/login", r.wrap(r.handleLogin))
	mux.Get("/auth/verify", r.wrap(r.handleVerify))
	mux.Get("/api/portal/signed/*", r.wrap(r.handleSignedArtifact))

	mux.Group(func(g chi.Router) {
		g.Use(middleware.SessionAuth(sessions))
		g.Get("/api/portal/dashboard", r.wrap(r.handleDashboard))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors onto HTTP statuses. Credential failures all
// collapse into the same generic 401 body.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			r.log.Errorw("handler error", "path", req.URL.Path, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// POST /api/portal/login
// Body: {"email": "<address>"}
// Always answers 202 so the endpoint cannot confirm whether an account
// exists; the magic link goes out-of-band.
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || strings.TrimSpace(body.Email) == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return nil
	}
	if err := r.portalSvc.RequestLogin(req.Context(), body.Email); err != nil {
		return err
	}
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(map[string]string{
		"message": "If the address is registered, a login link is on its way.",
	})
}

// GET /auth/verify?token=
func (r *Router) handleVerify(w http.ResponseWriter, req *http.Request) error {
	token := req.URL.Query().Get("token")
	if token == "" {
		return domain.ErrUnauthorized
	}
	session, owner, err := r.portalSvc.VerifyMagicLink(req.Context(), token)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"access_token": session,
		"token_type":   "Bearer",
		"owner":        owner,
	})
}

// GET /api/portal/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	ownerID := middleware.OwnerFromContext(req.Context())
	if ownerID == "" {
		return domain.ErrUnauthorized
	}
	dash, err := r.portalSvc.DashboardFor(req.Context(), ownerID)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(dash)
}

// GET /api/portal/signed/{path}?expires=&signature=
// Re-validates the signature before streaming bytes. A failed validation
// never discloses whether the path exists.
func (r *Router) handleSignedArtifact(w http.ResponseWriter, req *http.Request) error {
	signedPath := chi.URLParam(req, "*")
	q := req.URL.Query()
	abs, err := r.portalSvc.ResolveArtifact(signedPath, q.Get("expires"), q.Get("signature"))
	if err != nil {
		return err
	}
	f, err := os.Open(abs)
	if err != nil {
		// signature was valid but the artifact is gone; still generic
		return domain.ErrUnauthorized
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypeFor(abs))
	_, err = copyResponse(w, f)
	return err
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func copyResponse(w http.ResponseWriter, f *os.File) (int64, error) {
	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("stream artifact: %w", err)
	}
	return n, nil
}
