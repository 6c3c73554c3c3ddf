package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/Gioaltam/Inspection-agent/internal/application/reports"
	"github.com/Gioaltam/Inspection-agent/internal/config"
	domain "github.com/Gioaltam/Inspection-agent/internal/domain/report"
	aiclient "github.com/Gioaltam/Inspection-agent/internal/infra/ai/openai"
	"github.com/Gioaltam/Inspection-agent/internal/infra/ai/prompt"
	"github.com/Gioaltam/Inspection-agent/internal/infra/cache"
	"github.com/Gioaltam/Inspection-agent/internal/infra/index"
	"github.com/Gioaltam/Inspection-agent/internal/infra/render"
	"github.com/Gioaltam/Inspection-agent/internal/logging"
)

func main() {
	zipPath := flag.String("zip", "", "path to a .zip containing photos")
	address := flag.String("address", "", "report title/address (defaults to zip name)")
	owner := flag.String("owner", "", "owner/client identifier for the portal")
	out := flag.String("out", "", "optional output PDF path")
	flag.Parse()

	if *zipPath == "" {
		log.Fatal("usage: report --zip photos.zip [--address ...] [--owner ...] [--out ...]")
	}
	if _, err := os.Stat(*zipPath); err != nil {
		log.Fatalf("zip not found: %s", *zipPath)
	}

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.Vision.APIKey == "" {
		log.Fatal("OPENAI_API_KEY is missing or empty")
	}

	logger, err := logging.New(os.Getenv("DEBUG") != "")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	notesCache, err := cache.New(cfg.Paths.CacheDir)
	if err != nil {
		log.Fatalf("cache init error: %v", err)
	}

	analyzer := aiclient.NewClient(
		cfg.Vision.APIKey,
		cfg.Vision.Model,
		cfg.Vision.MaxDimension,
		cfg.Vision.Retries,
		logger.With("component", "vision"),
	)

	svc := &reports.Service{
		Analyzer: analyzer,
		Cache:    notesCache,
		Index:    index.New(cfg.Paths.IndexPath),
		Renderer: &render.Renderer{Brand: render.Brand{
			PrimaryHex:    cfg.Brand.PrimaryHex,
			SecondaryHex:  cfg.Brand.SecondaryHex,
			BannerPath:    cfg.Brand.BannerPath,
			BusinessName:  cfg.Brand.BusinessName,
			BusinessLine1: cfg.Brand.BusinessLine1,
			BusinessLine2: cfg.Brand.BusinessLine2,
		}},
		Clock: reports.SystemClock{},
		Log:   logger.With("component", "pipeline"),
		Opts: reports.Options{
			Concurrency:    cfg.Vision.Concurrency,
			RepairKeywords: cfg.RepairKeywordList(),
			CacheSalts: []string{
				prompt.GetSystemPrompt(),
				cfg.Vision.Model,
				strconv.Itoa(cfg.Vision.MaxDimension),
			},
		},
		// progress lines are a wire contract parsed by the desktop UI;
		// the format must not change
		Progress: func(ev domain.ProgressEvent) {
			fmt.Printf("[%d/%d] %s | elapsed %s ETA %s\n",
				ev.Index, ev.Total, ev.FileName, ev.Elapsed, ev.ETA)
		},
	}

	res, err := svc.Run(context.Background(), reports.RunReportCommand{
		ArchivePath: *zipPath,
		Address:     *address,
		OwnerID:     *owner,
		OutputDir:   cfg.Paths.OutputDir,
		PDFPath:     *out,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoImages) {
			log.Fatal("no images found in zip")
		}
		log.Fatalf("report run failed: %v", err)
	}

	fmt.Printf("Wrote: %s\n", res.PDFPath)
	fmt.Printf("Wrote: %s\n", res.JSONPath)
	fmt.Printf("REPORT_ID=%s\n", res.ReportID)
}
