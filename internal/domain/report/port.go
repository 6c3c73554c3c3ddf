package report

import "context"

// Analyzer port (interface untuk vision AI)
type Analyzer interface {
	// Describe returns free-text inspection notes for one image.
	Describe(ctx context.Context, imagePath string) (string, error)
}

// NotesCache port: content-hash keyed store of analysis notes.
// Lookup misses are (_, false, nil); Store is last-write-wins.
type NotesCache interface {
	Lookup(hash string) (string, bool, error)
	Store(hash, notes string) error
}

// Index port (interface untuk flat report registry)
type Index interface {
	Upsert(ctx context.Context, rec IndexRecord) error
	Get(ctx context.Context, id string) (*IndexRecord, error)
	ByOwner(ctx context.Context, ownerID string) ([]IndexRecord, error)
	All(ctx context.Context) ([]IndexRecord, error)
}

// Renderer port (interface untuk artifact generation)
type Renderer interface {
	RenderPDF(rep *Report, images []Image, outPath string) error
	RenderJSON(rep *Report, outPath string) error
}
