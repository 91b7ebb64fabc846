package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Errors for file store operations.
var (
	ErrInvalidKey = errors.New("invalid key: must be alphanumeric path segments with hyphens/underscores/dots")
)

// latestLeaf is the un-bucketed pointer document name. It lives directly
// under the key's directory, outside any date bucket, and is skipped by
// bucket scans.
const latestLeaf = "latest"

var (
	keyPattern    = regexp.MustCompile(`^[a-zA-Z0-9._-]+(?:/[a-zA-Z0-9._-]+)*$`)
	bucketPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// FileStore is a file-backed Store keeping one JSON document per key under
// a base directory. Writes are atomic (tmp + rename) and parent directories
// are created as needed.
//
// In bucketed mode, documents are partitioned into day-stamped
// subdirectories (sessions/2026-08-31/abc.json) while "latest" pointer
// documents stay un-bucketed; unscoped reads scan real date buckets
// newest-first.
type FileStore struct {
	basePath string
	bucketed bool
	now      func() time.Time

	mu sync.RWMutex
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithBuckets enables date-partitioned document layout.
func WithBuckets() FileStoreOption {
	return func(f *FileStore) { f.bucketed = true }
}

// WithClock overrides the bucket-stamping clock.
func WithClock(now func() time.Time) FileStoreOption {
	return func(f *FileStore) { f.now = now }
}

// NewFileStore creates a file store rooted at basePath, creating the
// directory if needed.
func NewFileStore(basePath string, opts ...FileStoreOption) (*FileStore, error) {
	if basePath == "" {
		return nil, errors.New("base path is required")
	}
	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	f := &FileStore{
		basePath: basePath,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func validateKey(key string) error {
	if key == "" || !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// splitKey separates a key into its directory part and leaf name.
func splitKey(key string) (dir, leaf string) {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

// writePath returns the path a Save for key should write to.
func (f *FileStore) writePath(key string) string {
	if !f.bucketed {
		return filepath.Join(f.basePath, key+".json")
	}
	dir, leaf := splitKey(key)
	if leaf == latestLeaf {
		return filepath.Join(f.basePath, dir, leaf+".json")
	}
	bucket := f.now().UTC().Format("2006-01-02")
	return filepath.Join(f.basePath, dir, bucket, leaf+".json")
}

// findPath locates the existing document for key, scanning date buckets
// newest-first in bucketed mode. Returns "" when not found.
func (f *FileStore) findPath(key string) (string, error) {
	if !f.bucketed {
		p := filepath.Join(f.basePath, key+".json")
		if fileExists(p) {
			return p, nil
		}
		return "", nil
	}

	dir, leaf := splitKey(key)
	if leaf == latestLeaf {
		p := filepath.Join(f.basePath, dir, leaf+".json")
		if fileExists(p) {
			return p, nil
		}
		return "", nil
	}

	buckets, err := f.dateBuckets(dir)
	if err != nil {
		return "", err
	}
	for _, bucket := range buckets {
		p := filepath.Join(f.basePath, dir, bucket, leaf+".json")
		if fileExists(p) {
			return p, nil
		}
	}
	return "", nil
}

// dateBuckets lists real date-bucket directories under dir, newest first.
// The un-bucketed latest pointer never appears in the result.
func (f *FileStore) dateBuckets(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.basePath, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var buckets []string
	for _, e := range entries {
		if e.IsDir() && bucketPattern.MatchString(e.Name()) {
			buckets = append(buckets, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(buckets)))
	return buckets, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (f *FileStore) Save(_ context.Context, key string, value any) error {
	if err := validateKey(key); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Overwrite in place when a document for this key already exists in
	// an older bucket, so a key never has two live copies.
	path, err := f.findPath(key)
	if err != nil {
		return err
	}
	if path == "" {
		path = f.writePath(key)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context, key string, out any) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	path, err := f.findPath(key)
	if err != nil {
		return false, err
	}
	if path == "" {
		return false, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.findPath(key)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	path, err := f.findPath(key)
	if err != nil {
		return false, err
	}
	return path != "", nil
}

func (f *FileStore) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var keys []string

	if !f.bucketed {
		err := filepath.WalkDir(f.basePath, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
				return err
			}
			rel, err := filepath.Rel(f.basePath, path)
			if err != nil {
				return err
			}
			key := strings.TrimSuffix(filepath.ToSlash(rel), ".json")
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}
		sort.Strings(keys)
		return keys, nil
	}

	// Bucketed layout: only real date buckets are searched; the latest
	// pointer document is not a session record.
	dir := ""
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		dir = prefix[:i]
	}
	buckets, err := f.dateBuckets(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, bucket := range buckets {
		entries, err := os.ReadDir(filepath.Join(f.basePath, dir, bucket))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			leaf := strings.TrimSuffix(e.Name(), ".json")
			key := leaf
			if dir != "" {
				key = dir + "/" + leaf
			}
			if strings.HasPrefix(key, prefix) && !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ Store = (*FileStore)(nil)
