package archive

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeZip(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photos.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractImagesOrderAndNames(t *testing.T) {
	zipPath := writeZip(t, map[string][]byte{
		"c_rear.jpg":  jpegBytes(t, 16, 16),
		"a_front.jpg": jpegBytes(t, 16, 16),
		"b_side.png":  pngBytes(t),
	})

	got, err := ExtractImages(zipPath, t.TempDir())
	require.NoError(t, err)
	require.Len(t, got, 3)

	names := []string{got[0].Name, got[1].Name, got[2].Name}
	assert.Equal(t, []string{"a_front.jpg", "b_side.png", "c_rear.jpg"}, names)

	for _, e := range got {
		_, err := os.Stat(e.Path)
		require.NoError(t, err)
	}
}

func TestExtractImagesSkipsNonImages(t *testing.T) {
	zipPath := writeZip(t, map[string][]byte{
		"front.jpg":            jpegBytes(t, 16, 16),
		"notes.txt":            []byte("not an image"),
		"report.pdf":           []byte("%PDF-1.4"),
		".DS_Store":            []byte{0},
		"__MACOSX/front.jpg":   jpegBytes(t, 16, 16),
		"sub/._hidden.jpg":     []byte{0},
		"sub/kitchen/sink.JPG": jpegBytes(t, 16, 16),
	})

	got, err := ExtractImages(zipPath, t.TempDir())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "front.jpg", got[0].Name)
	assert.Equal(t, "sink.JPG", got[1].Name)
}

func TestExtractImagesEmptyArchive(t *testing.T) {
	zipPath := writeZip(t, map[string][]byte{
		"readme.md": []byte("nothing here"),
	})

	got, err := ExtractImages(zipPath, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractImagesBadZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := ExtractImages(path, t.TempDir())
	assert.Error(t, err)
}
