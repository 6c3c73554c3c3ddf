package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appportal "github.com/Gioaltam/Inspection-agent/internal/application/portal"
	"github.com/Gioaltam/Inspection-agent/internal/config"
	"github.com/Gioaltam/Inspection-agent/internal/infra/auth"
	sqlitedb "github.com/Gioaltam/Inspection-agent/internal/infra/db/sqlite"
	"github.com/Gioaltam/Inspection-agent/internal/infra/httpserver"
	"github.com/Gioaltam/Inspection-agent/internal/infra/index"
	"github.com/Gioaltam/Inspection-agent/internal/infra/mail"
	"github.com/Gioaltam/Inspection-agent/internal/logging"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.Auth.Secret == "" {
		log.Fatal("SECRET_KEY is missing or empty")
	}

	logger, err := logging.New(os.Getenv("DEBUG") != "")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	db, err := sqlitedb.Connect(cfg.Paths.PortalDB)
	if err != nil {
		log.Fatalf("portal db error: %v", err)
	}

	magicTTL := time.Duration(cfg.Auth.MagicLinkMinutes) * time.Minute
	sessions := auth.NewSessions(cfg.Auth.Secret, time.Duration(cfg.Auth.SessionHours)*time.Hour)
	signer := auth.NewURLSigner(cfg.Auth.Secret, cfg.Server.BaseURL,
		time.Duration(cfg.Auth.SignedURLHours)*time.Hour)

	svc := &appportal.Service{
		Owners: sqlitedb.NewOwnerRepository(db),
		Links:  auth.NewMagicLinkStore(db, magicTTL, logger.With("component", "magiclink")),
		Mailer: mail.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password,
			cfg.SMTP.From, fmt.Sprintf("%d minutes", cfg.Auth.MagicLinkMinutes),
			logger.With("component", "mail")),
		Sessions:  sessions,
		Signer:    signer,
		Index:     index.New(cfg.Paths.IndexPath),
		Log:       logger.With("component", "portal"),
		BaseURL:   cfg.Server.BaseURL,
		OutputDir: cfg.Paths.OutputDir,
	}

	handler := httpserver.NewRouter(svc, sessions, logger.With("component", "http"))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Infow("portal listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warnw("shutdown error", "error", err)
	}
}
