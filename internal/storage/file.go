package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Tiliavir/architrack/internal/offline"
)

// FileStorage keeps each cache bucket as a directory of JSON entry files.
type FileStorage struct {
	base string
}

var _ offline.CacheStorage = (*FileStorage)(nil)

// NewFileStorage stores buckets under base (normally ~/.architrack/caches).
func NewFileStorage(base string) (*FileStorage, error) {
	if err := os.MkdirAll(base, 0o700); err != nil {
		return nil, fmt.Errorf("storage error creating %s: %w", base, err)
	}
	return &FileStorage{base: base}, nil
}

func (s *FileStorage) bucketDir(name string) string {
	return filepath.Join(s.base, url.PathEscape(name))
}

func (s *FileStorage) Open(_ context.Context, name string) (offline.Bucket, error) {
	dir := s.bucketDir(name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage error creating bucket %s: %w", name, err)
	}
	return &fileBucket{name: name, dir: dir}, nil
}

func (s *FileStorage) Has(_ context.Context, name string) (bool, error) {
	info, err := os.Stat(s.bucketDir(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage error reading bucket %s: %w", name, err)
	}
	return info.IsDir(), nil
}

// Keys lists bucket names in lexical order.
func (s *FileStorage) Keys(_ context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(s.base)
	if err != nil {
		return nil, fmt.Errorf("storage error listing %s: %w", s.base, err)
	}
	var names []string
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		name, err := url.PathUnescape(de.Name())
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStorage) Delete(ctx context.Context, name string) (bool, error) {
	ok, err := s.Has(ctx, name)
	if err != nil || !ok {
		return false, err
	}
	if err := os.RemoveAll(s.bucketDir(name)); err != nil {
		return false, fmt.Errorf("storage error deleting bucket %s: %w", name, err)
	}
	return true, nil
}

type fileBucket struct {
	name string
	dir  string
}

func (b *fileBucket) Name() string { return b.name }

func (b *fileBucket) entryPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(b.dir, hex.EncodeToString(sum[:])+".json")
}

func (b *fileBucket) Match(_ context.Context, key string) (offline.Entry, error) {
	return readEntry(b.entryPath(key))
}

func readEntry(path string) (offline.Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return offline.Entry{}, offline.ErrNotCached
	}
	if err != nil {
		return offline.Entry{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	var e offline.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Back up corrupt file and report it.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return offline.Entry{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return e, nil
}

func (b *fileBucket) Put(_ context.Context, e offline.Entry) error {
	tmp, err := b.writeTemp(e)
	if err != nil {
		return err
	}
	return b.commit(tmp, b.entryPath(e.Key))
}

// PutAll writes every entry to a temp file first and only then renames them
// into place. A failed write leaves the bucket untouched; a failed rename
// removes the entries this call already renamed, so none of the batch stays.
func (b *fileBucket) PutAll(_ context.Context, entries []offline.Entry) error {
	tmps := make([]string, 0, len(entries))
	cleanup := func() {
		for _, t := range tmps {
			_ = os.Remove(t)
		}
	}
	for _, e := range entries {
		tmp, err := b.writeTemp(e)
		if err != nil {
			cleanup()
			return err
		}
		tmps = append(tmps, tmp)
	}
	for i, e := range entries {
		if err := b.commit(tmps[i], b.entryPath(e.Key)); err != nil {
			for _, done := range entries[:i] {
				_ = os.Remove(b.entryPath(done.Key))
			}
			cleanup()
			return err
		}
	}
	return nil
}

func (b *fileBucket) writeTemp(e offline.Entry) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	f, err := os.CreateTemp(b.dir, "entry-*.tmp")
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("cache %s: %w", b.name, offline.ErrBucketDeleted)
	}
	if err != nil {
		return "", fmt.Errorf("storage error creating temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage error writing temp file: %w", err)
	}
	return f.Name(), nil
}

func (b *fileBucket) commit(tmpPath, path string) error {
	err := os.Rename(tmpPath, path)
	if err == nil {
		return nil
	}
	_ = os.Remove(tmpPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache %s: %w", b.name, offline.ErrBucketDeleted)
	}
	return fmt.Errorf("storage error renaming temp file: %w", err)
}

// Keys returns the request keys stored in the bucket, sorted.
func (b *fileBucket) Keys(_ context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(b.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error listing %s: %w", b.dir, err)
	}
	var keys []string
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		e, err := readEntry(filepath.Join(b.dir, de.Name()))
		if err != nil {
			continue
		}
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	return keys, nil
}
