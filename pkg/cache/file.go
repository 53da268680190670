package cache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache keeps each entry in its own JSON file, sharded by the first two
// hex digits of the key hash. The CLI uses it so that renders and exports
// survive between runs.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// fileEntry is the on-disk form of one entry. Key is kept so a file can be
// checked against the key that addressed it.
type fileEntry struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e *fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	e, err := readEntry(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if e == nil || e.Key != key || e.expired(c.now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set writes the entry to a temporary file and renames it into place, so
// readers never see a partial entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := c.now()
	e := fileEntry{Key: key, Kind: KindOf(key), Data: data, StoredAt: now}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *FileCache) Close() error { return nil }

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+".json")
}

// KindStats counts the entries of one artifact kind.
type KindStats struct {
	Entries int
	Bytes   int64
	Expired int
}

// Stats summarises the cache contents per kind. Unreadable files are
// counted under KindUnknown.
func (c *FileCache) Stats() (map[string]KindStats, error) {
	now := c.now()
	stats := make(map[string]KindStats)
	err := c.walk(func(path string, e *fileEntry, size int64) {
		kind := KindUnknown
		if e != nil && e.Kind != "" {
			kind = e.Kind
		}
		s := stats[kind]
		s.Entries++
		s.Bytes += size
		if e != nil && e.expired(now) {
			s.Expired++
		}
		stats[kind] = s
	})
	return stats, err
}

// Clear removes every entry and empty shard directory. It returns the
// number of entries removed.
func (c *FileCache) Clear() (int, error) {
	return c.remove(func(*fileEntry) bool { return true })
}

// Prune removes expired and unreadable entries, returning how many went.
func (c *FileCache) Prune() (int, error) {
	now := c.now()
	return c.remove(func(e *fileEntry) bool { return e == nil || e.expired(now) })
}

func (c *FileCache) remove(match func(*fileEntry) bool) (int, error) {
	count := 0
	err := c.walk(func(path string, e *fileEntry, _ int64) {
		if match(e) && os.Remove(path) == nil {
			count++
		}
	})
	if err != nil {
		return count, err
	}
	shards, _ := os.ReadDir(c.dir)
	for _, s := range shards {
		if s.IsDir() {
			// only succeeds when empty
			_ = os.Remove(filepath.Join(c.dir, s.Name()))
		}
	}
	return count, nil
}

// walk calls fn for every entry file. e is nil when the file cannot be decoded.
func (c *FileCache) walk(fn func(path string, e *fileEntry, size int64)) error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == c.dir {
				return err
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		e, _ := readEntry(path)
		fn(path, e, info.Size())
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// readEntry returns (nil, nil) for a file that exists but does not decode.
func readEntry(path string) (*fileEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e fileEntry
	if json.Unmarshal(b, &e) != nil {
		return nil, nil
	}
	return &e, nil
}

var _ Cache = (*FileCache)(nil)
