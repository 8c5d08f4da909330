package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// State is a worker's lifecycle position.
type State int

const (
	StateInstalling State = iota
	StateWaiting
	StateActive
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	}
	return "unknown"
}

var (
	// ErrInstallFailed wraps the first manifest fetch that failed.
	ErrInstallFailed = errors.New("offline: install failed")
	// ErrNotInstalled is returned when activating a worker that never installed.
	ErrNotInstalled = errors.New("offline: worker is not installed")
)

// Options configures a Worker.
type Options struct {
	// Version is the cache bucket name owned by this worker.
	Version string
	// Manifest holds absolute URLs primed at install.
	Manifest []string
	Rules    Rules
	Caches   CacheStorage
	// Network performs real requests. Defaults to http.DefaultTransport.
	Network http.RoundTripper
	Logger  *slog.Logger
}

// Worker owns one versioned cache bucket and answers requests according to
// Rules. It implements http.RoundTripper.
type Worker struct {
	version  string
	manifest []string
	rules    Rules
	caches   CacheStorage
	network  http.RoundTripper
	logger   *slog.Logger

	mu    sync.RWMutex
	state State

	background sync.WaitGroup
}

// NewWorker returns a worker in the installing state.
func NewWorker(opts Options) *Worker {
	network := opts.Network
	if network == nil {
		network = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		version:  opts.Version,
		manifest: append([]string(nil), opts.Manifest...),
		rules:    opts.Rules,
		caches:   opts.Caches,
		network:  network,
		logger:   log.With("cache", opts.Version),
	}
}

func (w *Worker) Version() string { return w.version }

func (w *Worker) Rules() Rules { return w.rules }

func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Install fetches every manifest URL and stores the responses in the
// worker's bucket. A single failed fetch or non-2xx status fails the whole
// install; nothing is written and the worker becomes redundant.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)

	entries := make([]Entry, 0, len(w.manifest))
	for _, raw := range w.manifest {
		e, err := w.prime(ctx, raw)
		if err != nil {
			w.setState(StateRedundant)
			w.logger.Error("install failed", "url", raw, "error", err)
			return fmt.Errorf("%w: %s: %w", ErrInstallFailed, raw, err)
		}
		entries = append(entries, e)
	}

	bucket, err := w.caches.Open(ctx, w.version)
	if err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("%w: opening cache: %w", ErrInstallFailed, err)
	}
	if err := bucket.PutAll(ctx, entries); err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("%w: storing app shell: %w", ErrInstallFailed, err)
	}

	w.setState(StateWaiting)
	w.logger.Info("installed", "entries", len(entries))
	return nil
}

func (w *Worker) prime(ctx context.Context, raw string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return Entry{}, err
	}
	resp, err := w.network.RoundTrip(req)
	if err != nil {
		return Entry{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return Entry{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return NewEntry(CacheKey(req), resp)
}

// Activate deletes every bucket not named after this worker's version and
// marks the worker active. Running it again is harmless.
func (w *Worker) Activate(ctx context.Context) error {
	switch w.State() {
	case StateWaiting, StateActive:
	default:
		return ErrNotInstalled
	}

	names, err := w.caches.Keys(ctx)
	if err != nil {
		return fmt.Errorf("listing caches: %w", err)
	}
	for _, name := range names {
		if name == w.version {
			continue
		}
		if _, err := w.caches.Delete(ctx, name); err != nil {
			return fmt.Errorf("deleting cache %s: %w", name, err)
		}
		w.logger.Info("deleted stale cache", "stale", name)
	}

	w.setState(StateActive)
	return nil
}

// retire marks the worker redundant once a newer version took over.
func (w *Worker) retire() {
	w.setState(StateRedundant)
}

// RoundTrip applies the request's policy.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	switch w.rules.Classify(req) {
	case StaleWhileRevalidate:
		return w.staleWhileRevalidate(req)
	case NetworkFirst:
		return w.networkFirst(req)
	default:
		return w.network.RoundTrip(req)
	}
}

type fetchResult struct {
	entry Entry
	err   error
}

func (w *Worker) staleWhileRevalidate(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return w.network.RoundTrip(req)
	}
	ctx := req.Context()
	key := CacheKey(req)

	bucket, err := w.caches.Open(ctx, w.version)
	if err != nil {
		w.logger.Warn("cache unavailable", "error", err)
		return w.network.RoundTrip(req)
	}

	cached, matchErr := bucket.Match(ctx, key)
	if matchErr != nil && !errors.Is(matchErr, ErrNotCached) {
		w.logger.Warn("cache read failed", "key", key, "error", matchErr)
	}

	// The refresh outlives the caller: it is never cancelled.
	bgCtx := context.WithoutCancel(ctx)
	bgReq := req.Clone(bgCtx)
	done := make(chan fetchResult, 1)
	w.background.Add(1)
	go func() {
		defer w.background.Done()
		resp, err := w.network.RoundTrip(bgReq)
		if err != nil {
			done <- fetchResult{err: err}
			return
		}
		entry, err := NewEntry(key, resp)
		done <- fetchResult{entry: entry, err: err}
		if err != nil || entry.StatusCode < 200 || entry.StatusCode > 299 {
			return
		}
		switch err := bucket.Put(bgCtx, entry); {
		case errors.Is(err, ErrBucketDeleted):
			w.logger.Debug("cache refresh dropped, bucket deleted", "key", key)
		case err != nil:
			w.logger.Warn("cache refresh failed", "key", key, "error", err)
		}
	}()

	if matchErr == nil {
		return cached.Response(req), nil
	}
	res := <-done
	if res.err != nil {
		return nil, res.err
	}
	resp := res.entry.Response(req)
	resp.Header.Del(CacheHeader)
	return resp, nil
}

func (w *Worker) networkFirst(req *http.Request) (*http.Response, error) {
	resp, netErr := w.network.RoundTrip(req)
	if netErr == nil || req.Method != http.MethodGet {
		return resp, netErr
	}
	entry, err := MatchAny(req.Context(), w.caches, CacheKey(req))
	if err != nil {
		if !errors.Is(err, ErrNotCached) {
			w.logger.Warn("cache fallback failed", "url", req.URL.String(), "error", err)
		}
		return nil, netErr
	}
	w.logger.Debug("served from cache", "url", req.URL.String())
	return entry.Response(req), nil
}

// Wait blocks until background refreshes started so far have finished.
func (w *Worker) Wait() {
	w.background.Wait()
}

// Status summarises the worker and the caches it can see.
type Status struct {
	Version string         `json:"version"`
	State   string         `json:"state"`
	Buckets map[string]int `json:"buckets"`
}

// Status lists every bucket with its entry count.
func (w *Worker) Status(ctx context.Context) (Status, error) {
	st := Status{Version: w.version, State: w.State().String(), Buckets: map[string]int{}}
	names, err := w.caches.Keys(ctx)
	if err != nil {
		return st, fmt.Errorf("listing caches: %w", err)
	}
	for _, name := range names {
		b, err := w.caches.Open(ctx, name)
		if err != nil {
			return st, fmt.Errorf("opening cache %s: %w", name, err)
		}
		keys, err := b.Keys(ctx)
		if err != nil {
			return st, fmt.Errorf("listing cache %s: %w", name, err)
		}
		st.Buckets[name] = len(keys)
	}
	return st, nil
}

// ResolveManifest turns relative manifest entries into absolute URLs under
// origin. Absolute entries are kept as they are.
func ResolveManifest(origin string, entries []string) ([]string, error) {
	base, err := url.Parse(strings.TrimRight(origin, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid origin %q: %w", origin, err)
	}
	out := make([]string, 0, len(entries))
	for _, raw := range entries {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid manifest entry %q: %w", raw, err)
		}
		if u.IsAbs() {
			out = append(out, u.String())
			continue
		}
		if base.Host == "" {
			return nil, fmt.Errorf("manifest entry %q needs an absolute origin", raw)
		}
		out = append(out, base.ResolveReference(&url.URL{Path: strings.TrimPrefix(u.Path, "/"), RawQuery: u.RawQuery}).String())
	}
	return out, nil
}
