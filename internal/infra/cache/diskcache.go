package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskCache maps a content hash to previously computed analysis notes,
// one file per key. Entries survive restarts; there is no eviction, which
// mirrors the current production behavior (unbounded growth is a known
// limitation).
type DiskCache struct {
	dir string
}

func New(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Key derives the cache key from image content plus the salts that change
// the meaning of a cached answer (system prompt, model, analysis
// dimension). Identical image bytes under the same configuration always
// map to the same key.
func Key(content []byte, salts ...string) string {
	h := sha256.New()
	h.Write(content)
	for _, s := range salts {
		h.Write([]byte(s))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the cached notes byte-for-byte, or found=false on a miss.
func (c *DiskCache) Lookup(hash string) (string, bool, error) {
	data, err := os.ReadFile(c.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Store persists notes under hash. Writes go through a temp file and
// rename so concurrent readers never observe a partial entry;
// last-write-wins on key collision.
func (c *DiskCache) Store(hash, notes string) error {
	final := c.path(hash)
	tmp, err := os.CreateTemp(c.dir, "entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(strings.TrimSpace(notes)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), final)
}

func (c *DiskCache) path(hash string) string {
	return filepath.Join(c.dir, hash+".txt")
}
