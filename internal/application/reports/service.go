package reports

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/Gioaltam/Inspection-agent/internal/domain/report"
	"github.com/Gioaltam/Inspection-agent/internal/infra/archive"
	"github.com/Gioaltam/Inspection-agent/internal/infra/cache"
)

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// failedNotes is the placeholder recorded for an image whose analysis
// exhausted its retries. The run continues; only the finding degrades.
const failedNotes = "Analysis failed - using fallback."

// Options carries the pipeline knobs that come from configuration.
type Options struct {
	Concurrency    int
	RepairKeywords []string
	// CacheSalts go into the cache key next to the image content, so a
	// model or prompt change invalidates cached notes naturally.
	CacheSalts []string
}

// Service runs the report pipeline. It is safe for concurrent runs; the
// cache and the index are the only shared mutable state and both tolerate
// interleaved writers.
type Service struct {
	Analyzer domain.Analyzer
	Cache    domain.NotesCache
	Index    domain.Index
	Renderer domain.Renderer
	Clock    Clock
	Log      *zap.SugaredLogger
	Opts     Options

	// Progress receives one event per completed image, in completion
	// order. Optional.
	Progress func(domain.ProgressEvent)
	// OnState observes run-state transitions. Optional.
	OnState func(domain.RunState)
}

// Command untuk satu pipeline run
type RunReportCommand struct {
	ArchivePath string
	Address     string
	OwnerID     string
	OutputDir   string
	PDFPath     string // optional override; defaults to <output>/<address>.pdf
}

type RunReportResult struct {
	ReportID   string                `json:"report_id"`
	PDFPath    string                `json:"pdf_path"`
	JSONPath   string                `json:"json_path"`
	Totals     domain.SeverityCounts `json:"totals"`
	DurationMS int64                 `json:"duration_ms"`
}

// Run executes one pipeline run:
// RECEIVED → UNPACKED → ANALYZING → ASSEMBLED → RENDERED → PUBLISHED.
// Unpack, render and publish failures are fatal and leave nothing in the
// index; per-image analysis failures degrade to placeholder findings.
func (s *Service) Run(ctx context.Context, cmd RunReportCommand) (RunReportResult, error) {
	start := s.Clock.Now()
	s.setState(domain.StateReceived)

	reportID := uuid.New().String()
	address := cmd.Address
	if address == "" {
		stem := strings.TrimSuffix(filepath.Base(cmd.ArchivePath), filepath.Ext(cmd.ArchivePath))
		address = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	}

	workdir, err := os.MkdirTemp("", "inspection-*")
	if err != nil {
		return s.fail(err)
	}
	defer os.RemoveAll(workdir)

	extracted, err := archive.ExtractImages(cmd.ArchivePath, workdir)
	if err != nil {
		return s.fail(fmt.Errorf("unpack: %w", err))
	}
	if len(extracted) == 0 {
		return s.fail(domain.ErrNoImages)
	}
	s.setState(domain.StateUnpacked)

	images := make([]domain.Image, len(extracted))
	for i, e := range extracted {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			return s.fail(fmt.Errorf("read image %s: %w", e.Name, err))
		}
		images[i] = domain.Image{
			Path:        e.Path,
			FileName:    e.Name,
			ContentHash: cache.Key(data, s.Opts.CacheSalts...),
		}
	}

	s.setState(domain.StateAnalyzing)
	notes, failed, err := s.analyzeAll(ctx, images, start)
	if err != nil {
		return s.fail(err)
	}

	rep := s.assemble(reportID, address, cmd.OwnerID, images, notes, failed)
	s.setState(domain.StateAssembled)

	if err := s.render(rep, images, cmd); err != nil {
		return s.fail(err)
	}
	s.setState(domain.StateRendered)

	if err := s.publish(ctx, rep); err != nil {
		s.cleanupArtifacts(rep)
		return s.fail(fmt.Errorf("publish: %w", err))
	}
	s.setState(domain.StatePublished)

	return RunReportResult{
		ReportID:   string(rep.ID),
		PDFPath:    rep.PDFPath,
		JSONPath:   rep.JSONPath,
		Totals:     rep.Totals,
		DurationMS: s.Clock.Now().Sub(start).Milliseconds(),
	}, nil
}

// analyzeAll fans the images out over a bounded worker pool. Results land
// at their input index so the Nth finding always matches the Nth image
// regardless of completion order.
func (s *Service) analyzeAll(ctx context.Context, images []domain.Image, start time.Time) ([]string, []bool, error) {
	total := len(images)
	notes := make([]string, total)
	failed := make([]bool, total)

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Opts.Concurrency)

	for i := range images {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := s.analyzeOne(gctx, images[i])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.Log.Warnw("image analysis failed", "image", images[i].FileName, "error", err)
				notes[i] = failedNotes
				failed[i] = true
			} else {
				notes[i] = text
			}
			done++
			s.emitProgress(done, total, images[i].FileName, start)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return notes, failed, nil
}

func (s *Service) analyzeOne(ctx context.Context, img domain.Image) (string, error) {
	if cached, ok, err := s.Cache.Lookup(img.ContentHash); err == nil && ok {
		s.Log.Debugw("cache hit", "image", img.FileName)
		return cached, nil
	}
	text, err := s.Analyzer.Describe(ctx, img.Path)
	if err != nil {
		return "", err
	}
	if err := s.Cache.Store(img.ContentHash, text); err != nil {
		// a cold cache next run is acceptable; the analysis is not lost
		s.Log.Warnw("cache store failed", "image", img.FileName, "error", err)
	}
	return text, nil
}

func (s *Service) emitProgress(done, total int, fileName string, start time.Time) {
	if s.Progress == nil {
		return
	}
	elapsed := s.Clock.Now().Sub(start)
	var eta time.Duration
	if done > 0 {
		eta = time.Duration(int64(elapsed) / int64(done) * int64(total-done))
	}
	s.Progress(domain.ProgressEvent{
		Index:    done,
		Total:    total,
		FileName: fileName,
		Elapsed:  elapsed.Truncate(time.Second),
		ETA:      eta.Truncate(time.Second),
	})
}

func (s *Service) assemble(reportID, address, ownerID string, images []domain.Image, notes []string, failedFlags []bool) *domain.Report {
	classifier := domain.Classifier{RepairKeywords: s.Opts.RepairKeywords}

	rep := &domain.Report{
		ID:        domain.ReportID(reportID),
		Address:   address,
		OwnerID:   ownerID,
		CreatedAt: s.Clock.Now(),
		Systems:   map[string]int{},
	}
	rep.Totals.Photos = len(images)

	for i, img := range images {
		cl := classifier.Classify(notes[i])
		f := domain.Finding{
			ID:       fmt.Sprintf("%s-%03d", reportID, i+1),
			FileName: img.FileName,
			Severity: cl.Severity,
			Status:   "open",
			Area:     cl.Area,
			System:   cl.System,
			Tags:     cl.Tags,
			Notes:    cl.Sections,
			Photos:   []string{filepath.ToSlash(filepath.Join("photos", reportID, img.FileName))},
			Failed:   failedFlags[i],
			RawNotes: notes[i],
		}
		if f.Failed {
			f.Severity = domain.SeverityInformational
		}
		rep.Findings = append(rep.Findings, f)

		switch f.Severity {
		case domain.SeverityCritical:
			rep.Totals.CriticalIssues++
		case domain.SeverityImportant:
			rep.Totals.ImportantIssues++
		default:
			rep.Totals.Informational++
		}
		rep.Systems[f.System]++
	}
	rep.Totals.Findings = len(rep.Findings)
	return rep
}

func (s *Service) render(rep *domain.Report, images []domain.Image, cmd RunReportCommand) error {
	outputDir := cmd.OutputDir
	if outputDir == "" {
		outputDir = "output"
	}
	rep.PDFPath = cmd.PDFPath
	if rep.PDFPath == "" {
		rep.PDFPath = filepath.Join(outputDir, rep.Address+".pdf")
	}
	rep.JSONPath = filepath.Join(outputDir, string(rep.ID)+".json")
	rep.PhotoDir = filepath.Join(outputDir, "photos", string(rep.ID))

	// gallery photos keep original resolution
	if err := os.MkdirAll(rep.PhotoDir, 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for _, img := range images {
		if err := copyFile(img.Path, filepath.Join(rep.PhotoDir, img.FileName)); err != nil {
			return fmt.Errorf("render: copy photo %s: %w", img.FileName, err)
		}
	}

	if err := s.Renderer.RenderPDF(rep, images, rep.PDFPath); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := s.Renderer.RenderJSON(rep, rep.JSONPath); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, rep *domain.Report) error {
	return s.Index.Upsert(ctx, domain.IndexRecord{
		ReportID:       string(rep.ID),
		Address:        rep.Address,
		OwnerID:        rep.OwnerID,
		CreatedAt:      rep.CreatedAt,
		PDFPath:        rep.PDFPath,
		JSONPath:       rep.JSONPath,
		PhotoCount:     rep.Totals.Photos,
		CriticalCount:  rep.Totals.CriticalIssues,
		ImportantCount: rep.Totals.ImportantIssues,
	})
}

// cleanupArtifacts removes rendered files after a failed publish so the
// output directory never holds artifacts the index does not reference.
func (s *Service) cleanupArtifacts(rep *domain.Report) {
	if rep.PDFPath != "" {
		os.Remove(rep.PDFPath)
	}
	if rep.JSONPath != "" {
		os.Remove(rep.JSONPath)
	}
	if rep.PhotoDir != "" {
		os.RemoveAll(rep.PhotoDir)
	}
}

func (s *Service) fail(err error) (RunReportResult, error) {
	s.setState(domain.StateFailed)
	return RunReportResult{}, err
}

func (s *Service) setState(st domain.RunState) {
	if s.OnState != nil {
		s.OnState(st)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
