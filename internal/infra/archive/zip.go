package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Gioaltam/Inspection-agent/internal/infra/imaging"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Extracted is one image pulled out of the archive. Name keeps the
// original base filename for reports; Path points into the workdir.
type Extracted struct {
	Path string
	Name string
}

// ExtractImages streams image entries from the zip into workdir one at a
// time, normalizes each (EXIF orientation, webp transcode) and returns
// them sorted by archive path. At most one entry is buffered during
// extraction, so archive size does not drive resident memory.
func ExtractImages(zipPath, workdir string) ([]Extracted, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	type entry struct {
		archivePath string
		localPath   string
		name        string
	}
	var entries []entry

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.Contains(f.Name, "__MACOSX") {
			continue
		}
		name := filepath.Base(f.Name)
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !imageExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		dst := filepath.Join(workdir, fmt.Sprintf("%04d_%s", len(entries), name))
		if err := extractOne(f, dst); err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		entries = append(entries, entry{archivePath: f.Name, localPath: dst, name: name})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].archivePath < entries[j].archivePath
	})

	out := make([]Extracted, 0, len(entries))
	for _, e := range entries {
		p, err := imaging.Normalize(e.localPath)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", e.name, err)
		}
		name := e.name
		if filepath.Ext(p) != filepath.Ext(e.localPath) {
			// webp transcoded to jpg
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
		}
		out = append(out, Extracted{Path: p, Name: name})
	}
	return out, nil
}

func extractOne(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
