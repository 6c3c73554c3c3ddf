package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Gioaltam/Inspection-agent/internal/domain/report"
)

// webReport is the JSON document the external gallery renders. Field
// names are a wire contract; do not rename.
type webReport struct {
	ReportID     string                `json:"report_id"`
	GeneratedAt  string                `json:"generated_at"`
	PropertyInfo propertyInfo          `json:"property_info"`
	Findings     []report.Finding      `json:"findings"`
	Photos       []photoRef            `json:"photos"`
	Totals       report.SeverityCounts `json:"totals"`
	Systems      map[string]int        `json:"systems"`
}

type propertyInfo struct {
	Address    string `json:"address"`
	OwnerID    string `json:"owner_id,omitempty"`
	PhotoCount int    `json:"photo_count"`
}

type photoRef struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

// RenderJSON writes the gallery document for an assembled report.
func (r *Renderer) RenderJSON(rep *report.Report, outPath string) error {
	doc := webReport{
		ReportID:    string(rep.ID),
		GeneratedAt: rep.CreatedAt.Format(time.RFC3339),
		PropertyInfo: propertyInfo{
			Address:    rep.Address,
			OwnerID:    rep.OwnerID,
			PhotoCount: rep.Totals.Photos,
		},
		Findings: rep.Findings,
		Totals:   rep.Totals,
		Systems:  rep.Systems,
	}
	for _, f := range rep.Findings {
		for _, p := range f.Photos {
			doc.Photos = append(doc.Photos, photoRef{FileName: f.FileName, Path: p})
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := outPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, outPath)
}
