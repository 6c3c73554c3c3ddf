package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Gioaltam/Inspection-agent/internal/domain/report"
)

// Store is the flat JSON registry the gallery and portal read. Writes
// replace the whole file via temp+rename, so a reader never sees a torn
// record; concurrent publishers race with last-write-wins.
type Store struct {
	path string
	mu   sync.Mutex
}

type indexFile struct {
	Reports []report.IndexRecord `json:"reports"`
}

func New(path string) *Store {
	return &Store{path: path}
}

// Upsert removes any record with the same report id and appends the new
// one, keeping exactly one IndexRecord per Report.
func (s *Store) Upsert(ctx context.Context, rec report.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load()
	if err != nil {
		return err
	}
	kept := idx.Reports[:0]
	for _, r := range idx.Reports {
		if r.ReportID != rec.ReportID {
			kept = append(kept, r)
		}
	}
	idx.Reports = append(kept, rec)
	return s.save(idx)
}

func (s *Store) Get(ctx context.Context, id string) (*report.IndexRecord, error) {
	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range idx.Reports {
		if idx.Reports[i].ReportID == id {
			rec := idx.Reports[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *Store) ByOwner(ctx context.Context, ownerID string) ([]report.IndexRecord, error) {
	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []report.IndexRecord
	for _, r := range idx.Reports {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) All(ctx context.Context) ([]report.IndexRecord, error) {
	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	return idx.Reports, nil
}

func (s *Store) load() (*indexFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &indexFile{}, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	return &idx, nil
}

func (s *Store) save(idx *indexFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "index-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
