package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Gioaltam/Inspection-agent/internal/domain/report"
)

// Page geometry, points. Letter with the classic photo-left/notes-right
// layout from the production print template.
const (
	pageW  = 612.0
	pageH  = 792.0
	margin = 36.0 // 0.5in

	imgMaxW = 3.6 * 72
	imgMaxH = 8.0 * 72

	noteboxX = margin + imgMaxW + 0.4*72
	noteboxW = pageW - noteboxX - margin

	noteFontPt    = 12.0
	noteLeadingPt = 16.0
)

// Brand carries the print styling knobs.
type Brand struct {
	PrimaryHex    string
	SecondaryHex  string
	BannerPath    string
	BusinessName  string
	BusinessLine1 string
	BusinessLine2 string
}

// Renderer produces the PDF and JSON artifacts from an assembled report.
type Renderer struct {
	Brand Brand
}

// RenderPDF writes the print report: branded cover page, then one page
// per finding with the original-resolution photo on the left and the
// notes panel on the right.
func (r *Renderer) RenderPDF(rep *report.Report, images []report.Image, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(119, 119, 119)
		pdf.Text(pageW-margin-12, pageH-margin/2, strconv.Itoa(pdf.PageNo()))
	})

	r.coverPage(pdf, rep.Address)

	for i, f := range rep.Findings {
		pdf.AddPage()
		r.pageHeader(pdf, rep.Address)
		if i < len(images) {
			r.drawPhoto(pdf, images[i].Path)
		}
		r.drawNotesPanel(pdf, f)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (r *Renderer) coverPage(pdf *gofpdf.Fpdf, address string) {
	pdf.AddPage()

	headerH := 1.15 * 72
	pr, pg, pb := hexToRGB(r.Brand.PrimaryHex, 11, 30, 46)
	pdf.SetFillColor(pr, pg, pb)
	pdf.Rect(0, 0, pageW, headerH, "F")

	logoMaxW := pageW / 2.8
	titleX := margin + 0.2*72
	if r.Brand.BannerPath != "" {
		if _, err := os.Stat(r.Brand.BannerPath); err == nil {
			padH := 0.2 * 72
			logoMaxH := headerH - 2*padH
			lw, lh := fitImage(pdf, r.Brand.BannerPath, logoMaxW, logoMaxH)
			if lw > 0 {
				pdf.ImageOptions(r.Brand.BannerPath, margin, padH, lw, lh, false,
					gofpdf.ImageOptions{ReadDpi: true}, 0, "")
			}
			titleX = margin + logoMaxW + 0.35*72 - 0.6*72
		}
	}

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.Text(titleX, headerH/2, "Property Inspection Report")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Text(titleX, headerH/2+18, address)

	// Prepared-by box
	boxX := margin
	boxY := headerH + 0.25*72
	boxW := pageW - 2*margin
	boxH := 0.95 * 72
	pdf.SetFillColor(245, 246, 251)
	pdf.RoundedRect(boxX, boxY, boxW, boxH, 12, "1234", "F")
	pdf.SetTextColor(51, 51, 51)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(boxX+18, boxY+24, "Prepared by:")

	pdf.SetFont("Helvetica", "", 12.5)
	lineX := boxX + 135.0
	lineY := boxY + 24.0
	for _, line := range []string{r.Brand.BusinessName, r.Brand.BusinessLine1, r.Brand.BusinessLine2} {
		if line != "" {
			pdf.Text(lineX, lineY, line)
			lineY += 18
		}
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(102, 102, 102)
	pdf.Text(margin, pageH-margin-0.5*72, time.Now().Format("January 2, 2006"))
}

func (r *Renderer) pageHeader(pdf *gofpdf.Fpdf, address string) {
	pr, pg, pb := hexToRGB(r.Brand.PrimaryHex, 11, 30, 46)
	pdf.SetFillColor(pr, pg, pb)
	pdf.Rect(0, 0, pageW, 14, "F")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(margin, 28, address)
}

func (r *Renderer) drawPhoto(pdf *gofpdf.Fpdf, path string) {
	w, h := fitImage(pdf, path, imgMaxW, imgMaxH)
	if w <= 0 {
		return
	}
	// upscale tiny images so they stay visible
	const minDisplay = 2.0 * 72
	if w < minDisplay && h < minDisplay {
		up := minDisplay / w
		if minDisplay/h < up {
			up = minDisplay / h
		}
		w, h = w*up, h*up
		if h > imgMaxH {
			clamp := imgMaxH / h
			w, h = w*clamp, h*clamp
		}
	}
	pdf.ImageOptions(path, margin, margin+8, w, h, false,
		gofpdf.ImageOptions{ReadDpi: true}, 0, "")
}

func (r *Renderer) drawNotesPanel(pdf *gofpdf.Fpdf, f report.Finding) {
	const inset = 12.0
	panelY := margin + 8
	panelH := imgMaxH
	contentW := noteboxW - 2*inset

	pdf.SetFillColor(248, 248, 248)
	pdf.RoundedRect(noteboxX, panelY, noteboxW, panelH, 12, "1234", "F")
	pdf.SetDrawColor(208, 208, 208)
	pdf.SetLineWidth(0.7)
	pdf.RoundedRect(noteboxX, panelY, noteboxW, panelH, 12, "1234", "D")

	sr, sg, sb := hexToRGB(r.Brand.SecondaryHex, 17, 58, 92)
	y := panelY + inset
	bottom := panelY + panelH - inset

	for _, section := range report.OrderedSections {
		if y+noteLeadingPt > bottom {
			break
		}
		pdf.SetFont("Helvetica", "B", noteFontPt+0.5)
		pdf.SetTextColor(sr, sg, sb)
		pdf.Text(noteboxX+inset, y+noteFontPt, section)
		y += noteLeadingPt + 3

		if section == "Potential Issues" && (f.Severity == report.SeverityCritical || f.Severity == report.SeverityImportant) {
			y = r.drawStatusLabels(pdf, f, noteboxX+inset, y)
		}

		bullets := f.Notes[section]
		pdf.SetFont("Helvetica", "", noteFontPt)
		pdf.SetTextColor(43, 43, 43)
		if len(bullets) == 0 {
			if y+noteLeadingPt <= bottom {
				pdf.Text(noteboxX+inset, y+noteFontPt, "None noted.")
				y += noteLeadingPt
			}
			continue
		}
		for _, b := range bullets {
			// Bullet as rune 0x95 (cp1252 slot): SplitText decodes UTF-8
			// runes and indexes a 256-entry width table for core fonts,
			// so "•" (U+2022) is out of range and panics.
			lines := pdf.SplitText(" "+b, contentW)
			for _, ln := range lines {
				if y+noteLeadingPt > bottom {
					break
				}
				pdf.Text(noteboxX+inset, y+noteFontPt, ln)
				y += noteLeadingPt
			}
		}
		y += 2
	}
}

func (r *Renderer) drawStatusLabels(pdf *gofpdf.Fpdf, f report.Finding, x, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 11.5)
	if f.Severity == report.SeverityCritical {
		pdf.SetTextColor(178, 34, 34)
		pdf.Text(x, y+11, "critical")
		x += pdf.GetStringWidth("critical") + 14
	}
	if f.Severity == report.SeverityCritical || f.Severity == report.SeverityImportant {
		pdf.SetTextColor(200, 120, 20)
		pdf.Text(x, y+11, "important repair")
	}
	return y + 18
}

// fitImage registers the image and returns display dimensions scaled to
// fit the given box, preserving aspect ratio. Returns zeros when the file
// cannot be registered.
func fitImage(pdf *gofpdf.Fpdf, path string, maxW, maxH float64) (float64, float64) {
	info := pdf.RegisterImageOptions(path, gofpdf.ImageOptions{ReadDpi: true})
	if info == nil || pdf.Err() {
		pdf.ClearError()
		return 0, 0
	}
	iw, ih := info.Width(), info.Height()
	if iw <= 0 || ih <= 0 {
		return 0, 0
	}
	scale := maxW / iw
	if maxH/ih < scale {
		scale = maxH / ih
	}
	if scale > 1 {
		scale = 1
	}
	return iw * scale, ih * scale
}

func hexToRGB(hex string, dr, dg, db int) (int, int, int) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return dr, dg, db
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return dr, dg, db
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
