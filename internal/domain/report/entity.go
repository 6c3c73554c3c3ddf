package report

import (
	"time"
)

// ID tipe untuk Report
type ReportID string

// Severity enum
type Severity string

const (
	SeverityCritical      Severity = "critical"
	SeverityImportant     Severity = "important"
	SeverityInformational Severity = "informational"
)

// SeverityCounts value object
type SeverityCounts struct {
	Photos          int `json:"photos"`
	Findings        int `json:"findings"`
	CriticalIssues  int `json:"critical_issues"`
	ImportantIssues int `json:"important_issues"`
	Informational   int `json:"informational"`
}

// Image is one photo during a pipeline run. Ephemeral: it exists only
// between unpack and render.
type Image struct {
	Path        string
	FileName    string
	ContentHash string
}

// Finding is one image's analysis result. Immutable once produced.
type Finding struct {
	ID       string              `json:"id"`
	FileName string              `json:"file_name"`
	Severity Severity            `json:"severity"`
	Status   string              `json:"status"`
	Area     string              `json:"area,omitempty"`
	System   string              `json:"system"`
	Tags     []string            `json:"tags,omitempty"`
	Notes    map[string][]string `json:"notes"`
	Photos   []string            `json:"photos"`
	Failed   bool                `json:"failed,omitempty"`
	RawNotes string              `json:"-"`
}

// Aggregate Root: Report, the complete output of one pipeline run.
type Report struct {
	ID        ReportID       `json:"report_id"`
	Address   string         `json:"address"`
	OwnerID   string         `json:"owner_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Findings  []Finding      `json:"findings"`
	Totals    SeverityCounts `json:"totals"`
	Systems   map[string]int `json:"systems"`
	PDFPath   string         `json:"pdf_path"`
	JSONPath  string         `json:"json_path"`
	PhotoDir  string         `json:"-"`
}

// IndexRecord links a published Report to its owner and artifact paths.
type IndexRecord struct {
	ReportID       string    `json:"report_id"`
	Address        string    `json:"address"`
	OwnerID        string    `json:"owner_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	PDFPath        string    `json:"pdf_path"`
	JSONPath       string    `json:"json_path"`
	PhotoCount     int       `json:"photo_count"`
	CriticalCount  int       `json:"critical_count"`
	ImportantCount int       `json:"important_count"`
}
