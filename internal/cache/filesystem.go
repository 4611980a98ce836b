package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lansepyy/article-admin/internal/core"
)

// FilesystemBackend stores JSON files on disk, one per key.
// Directory layout: <root>/<kind>/<first two hex digits>/<sha256(key)>.json
type FilesystemBackend struct {
	root      string
	writeLock sync.Mutex
}

// NewFilesystemBackend creates a new filesystem-based cache backend.
func NewFilesystemBackend(root string) *FilesystemBackend {
	if root == "" {
		root = core.CacheRoot()
	}
	return &FilesystemBackend{root: root}
}

// Root returns the cache directory.
func (b *FilesystemBackend) Root() string {
	return b.root
}

// Path returns the filesystem path for key.
func (b *FilesystemBackend) Path(key string) string {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(b.root, kindOf(key), name[:2], name+".json")
}

// kindOf derives the entry kind from the key prefix.
func kindOf(key string) string {
	if i := strings.IndexByte(key, '|'); i > 0 {
		return key[:i]
	}
	return key
}

// Read returns the cached entry for key or nil if absent.
func (b *FilesystemBackend) Read(key string) *CacheEntry {
	path := b.Path(key)
	entry := readEntryFile(path)
	if entry == nil || entry.Key != key {
		return nil
	}
	return entry
}

func readEntryFile(path string) *CacheEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key == "" {
		// Corrupt file, remove it
		os.Remove(path)
		return nil
	}
	return &entry
}

// Write persists the entry atomically.
func (b *FilesystemBackend) Write(entry *CacheEntry) error {
	path := b.Path(entry.Key)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Delete removes the file for key.
func (b *FilesystemBackend) Delete(key string) error {
	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	if err := os.Remove(b.Path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Scan walks the cache directory and returns the status of every entry.
func (b *FilesystemBackend) Scan() map[string]CacheScanResult {
	result := make(map[string]CacheScanResult)

	if _, err := os.Stat(b.root); os.IsNotExist(err) {
		return result
	}

	filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if entry := readEntryFile(path); entry != nil {
			result[entry.Key] = CacheScanResult{Kind: entry.Kind, FetchedAt: entry.FetchedAt}
		}
		return nil
	})

	return result
}
