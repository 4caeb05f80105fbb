package pluginscan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wavecraft/wavecraft/internal/config"
	"github.com/wavecraft/wavecraft/internal/errors"
)

// CacheEntry is one path's cached scan outcome, keyed by mtime+size so a
// rescan is skipped only when the file is provably unchanged.
type CacheEntry struct {
	ModTime     time.Time    `json:"modTime"`
	Size        int64        `json:"size"`
	Descriptors []Descriptor `json:"descriptors"`
	LastScanned time.Time    `json:"lastScanned"`
}

// Cache mirrors the on-disk incremental-scan cache in memory via an
// in-process TTL cache, avoiding a JSON re-read+parse on every lookup within
// a single scan session.
type Cache struct {
	path string
	mem  *gocache.Cache
}

// LoadCache reads the side-car cache file at dir/PluginCacheFileName, or
// starts empty if absent. The file holds JSON (an object keyed by path), not
// XML, despite its .xml name; Save writes the same JSON shape.
func LoadCache(dir string) (*Cache, error) {
	path := filepath.Join(dir, config.PluginCacheFileName)
	c := &Cache{path: path, mem: gocache.New(24*time.Hour, time.Hour)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryFileIO).Context("path", path).Build()
	}

	var entries map[string]CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return c, nil // corrupt cache: start empty rather than fail the scan
	}
	for path, entry := range entries {
		c.mem.Set(path, entry, gocache.NoExpiration)
	}
	return c, nil
}

// Lookup returns the cached entry for path if its mtime and size match.
func (c *Cache) Lookup(path string, modTime time.Time, size int64) (CacheEntry, bool) {
	v, ok := c.mem.Get(path)
	if !ok {
		return CacheEntry{}, false
	}
	entry := v.(CacheEntry)
	if !entry.ModTime.Equal(modTime) || entry.Size != size {
		return CacheEntry{}, false
	}
	return entry, true
}

// Store records path's scan outcome.
func (c *Cache) Store(path string, entry CacheEntry) {
	c.mem.Set(path, entry, gocache.NoExpiration)
}

// Save persists the cache to disk via a temp-file-then-rename sequence.
func (c *Cache) Save() error {
	entries := make(map[string]CacheEntry)
	for path, item := range c.mem.Items() {
		entries[path] = item.Object.(CacheEntry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.New(err).Category(errors.CategoryEncodeFailed).Build()
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp")
	if err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}
	return os.Rename(tmp.Name(), c.path)
}
