package pluginscan

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/wavecraft/wavecraft/internal/errors"
)

const blacklistFileName = "plugin_blacklist.json"

// Blacklist is a persisted set of plugin paths excluded from scanning, plus
// a separate session-scoped list of entries added since the last load, used
// to notify the user at next startup.
type Blacklist struct {
	path            string
	entries         map[string]bool
	newlyBlacklisted []string
}

// LoadBlacklist reads the blacklist file at dir/plugin_blacklist.json, or
// starts empty if absent.
func LoadBlacklist(dir string) (*Blacklist, error) {
	b := &Blacklist{path: filepath.Join(dir, blacklistFileName), entries: make(map[string]bool)}
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryFileIO).Build()
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return b, nil
	}
	for _, p := range list {
		b.entries[p] = true
	}
	return b, nil
}

// IsBlacklisted reports whether path is excluded from scanning.
func (b *Blacklist) IsBlacklisted(path string) bool { return b.entries[path] }

// Add blacklists path, recording it in the session's "newly blacklisted"
// list if it wasn't already present.
func (b *Blacklist) Add(path string) {
	if b.entries[path] {
		return
	}
	b.entries[path] = true
	b.newlyBlacklisted = append(b.newlyBlacklisted, path)
}

// NewlyBlacklisted returns the entries added this session, for a
// next-startup notification.
func (b *Blacklist) NewlyBlacklisted() []string { return b.newlyBlacklisted }

// Save persists the blacklist via a temp-file-then-rename sequence.
func (b *Blacklist) Save() error {
	list := make([]string, 0, len(b.entries))
	for p := range b.entries {
		list = append(list, p)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return errors.New(err).Category(errors.CategoryEncodeFailed).Build()
	}
	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, blacklistFileName+".tmp")
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
	return os.Rename(tmp.Name(), b.path)
}
