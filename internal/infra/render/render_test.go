package render

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gioaltam/Inspection-agent/internal/domain/report"
)

func testJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 80; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 3), uint8(y * 4), 140, 255})
		}
	}
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func testReport(t *testing.T, dir string) (*report.Report, []report.Image) {
	t.Helper()
	images := []report.Image{
		{Path: testJPEG(t, dir, "front.jpg"), FileName: "front.jpg"},
		{Path: testJPEG(t, dir, "roof.jpg"), FileName: "roof.jpg"},
	}
	rep := &report.Report{
		ID:        "rep-1",
		Address:   "123 Main St",
		OwnerID:   "owner-1",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Findings: []report.Finding{
			{
				ID:       "rep-1-001",
				FileName: "front.jpg",
				Severity: report.SeverityImportant,
				Status:   "open",
				Area:     "Front entry",
				System:   "exterior",
				Tags:     []string{"siding"},
				Notes: map[string][]string{
					"Location":         {"Front entry"},
					"Potential Issues": {"Cracked trim, repair recommended"},
				},
				Photos: []string{"photos/rep-1/front.jpg"},
			},
			{
				ID:       "rep-1-002",
				FileName: "roof.jpg",
				Severity: report.SeverityCritical,
				Status:   "open",
				System:   "roofing",
				Notes: map[string][]string{
					"Potential Issues": {"Critical shingle damage over the eave"},
				},
				Photos: []string{"photos/rep-1/roof.jpg"},
			},
		},
		Systems: map[string]int{"exterior": 1, "roofing": 1},
	}
	rep.Totals = report.SeverityCounts{
		Photos:          2,
		Findings:        2,
		CriticalIssues:  1,
		ImportantIssues: 1,
	}
	return rep, images
}

func TestRenderPDFWritesDocument(t *testing.T) {
	dir := t.TempDir()
	rep, images := testReport(t, dir)
	r := &Renderer{Brand: Brand{
		PrimaryHex:   "#0b1e2e",
		SecondaryHex: "#113a5c",
		BusinessName: "Shoreline Inspections",
	}}
	out := filepath.Join(dir, "nested", "report.pdf")

	require.NoError(t, r.RenderPDF(rep, images, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, len(data), 1000)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderPDFMissingBannerIsTolerated(t *testing.T) {
	dir := t.TempDir()
	rep, images := testReport(t, dir)
	r := &Renderer{Brand: Brand{BannerPath: filepath.Join(dir, "no-banner.png")}}
	out := filepath.Join(dir, "report.pdf")

	require.NoError(t, r.RenderPDF(rep, images, out))
	assert.FileExists(t, out)
}

func TestRenderJSONShape(t *testing.T) {
	dir := t.TempDir()
	rep, _ := testReport(t, dir)
	r := &Renderer{}
	out := filepath.Join(dir, "rep-1.json")

	require.NoError(t, r.RenderJSON(rep, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"report_id", "generated_at", "property_info", "findings", "photos", "totals", "systems"} {
		assert.Contains(t, doc, key)
	}

	var info map[string]any
	require.NoError(t, json.Unmarshal(doc["property_info"], &info))
	assert.Equal(t, "123 Main St", info["address"])
	assert.Equal(t, float64(2), info["photo_count"])

	var findings []map[string]any
	require.NoError(t, json.Unmarshal(doc["findings"], &findings))
	require.Len(t, findings, 2)
	assert.Equal(t, "important", findings[0]["severity"])
	assert.Equal(t, "open", findings[0]["status"])
	assert.Equal(t, "exterior", findings[0]["system"])

	var photos []map[string]any
	require.NoError(t, json.Unmarshal(doc["photos"], &photos))
	require.Len(t, photos, 2)
	assert.Equal(t, "front.jpg", photos[0]["file_name"])
	assert.Equal(t, "photos/rep-1/front.jpg", photos[0]["path"])

	var totals map[string]any
	require.NoError(t, json.Unmarshal(doc["totals"], &totals))
	assert.Equal(t, float64(1), totals["critical_issues"])
	assert.Equal(t, float64(1), totals["important_issues"])
}

func TestRenderJSONAtomicNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	rep, _ := testReport(t, dir)
	r := &Renderer{}
	out := filepath.Join(dir, "out", "rep-1.json")

	require.NoError(t, r.RenderJSON(rep, out))

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rep-1.json", entries[0].Name())
}
