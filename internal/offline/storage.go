package offline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrNotCached is returned by Match when no entry exists for a key.
var ErrNotCached = errors.New("offline: no cached response")

// ErrBucketDeleted is returned by writes into a bucket deleted after it was
// opened. Writes never bring a deleted bucket back.
var ErrBucketDeleted = errors.New("offline: cache bucket was deleted")

// CacheHeader is set on responses served from a bucket.
const CacheHeader = "X-Architrack-Cache"

// Entry is a stored response.
type Entry struct {
	Key        string      `json:"key"`
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
}

// Bucket is one named cache.
type Bucket interface {
	Name() string
	// Match returns ErrNotCached when key is absent.
	Match(ctx context.Context, key string) (Entry, error)
	// Put and PutAll return ErrBucketDeleted once the bucket is gone.
	Put(ctx context.Context, e Entry) error
	// PutAll stores every entry or none of them.
	PutAll(ctx context.Context, entries []Entry) error
	Keys(ctx context.Context) ([]string, error)
}

// CacheStorage holds the named buckets. Implementations must be safe for
// concurrent use.
type CacheStorage interface {
	// Open returns the bucket called name, creating it if needed.
	Open(ctx context.Context, name string) (Bucket, error)
	Has(ctx context.Context, name string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	// Delete reports whether a bucket was removed.
	Delete(ctx context.Context, name string) (bool, error)
}

// CacheKey identifies req in a bucket.
func CacheKey(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

// NewEntry drains resp into an Entry. resp.Body is replaced so the caller can
// still read it.
func NewEntry(key string, resp *http.Response) (Entry, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return Entry{}, fmt.Errorf("reading response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return Entry{
		Key:        key,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now().UTC(),
	}, nil
}

// Response rebuilds an *http.Response for req from the entry.
func (e Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(CacheHeader, "hit")
	header.Set("Content-Length", strconv.Itoa(len(e.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// MatchAny looks key up in every bucket, in the order the storage lists them.
func MatchAny(ctx context.Context, caches CacheStorage, key string) (Entry, error) {
	names, err := caches.Keys(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("listing caches: %w", err)
	}
	for _, name := range names {
		b, err := caches.Open(ctx, name)
		if err != nil {
			return Entry{}, fmt.Errorf("opening cache %s: %w", name, err)
		}
		e, err := b.Match(ctx, key)
		if errors.Is(err, ErrNotCached) {
			continue
		}
		if err != nil {
			return Entry{}, err
		}
		return e, nil
	}
	return Entry{}, ErrNotCached
}
