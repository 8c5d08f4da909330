package offline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// Registration tracks which worker controls outgoing requests. Without an
// active worker every request goes straight to the network.
type Registration struct {
	network http.RoundTripper
	logger  *slog.Logger

	mu     sync.RWMutex
	active *Worker
}

// NewRegistration returns a registration with no controlling worker.
func NewRegistration(network http.RoundTripper, logger *slog.Logger) *Registration {
	if network == nil {
		network = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registration{network: network, logger: logger}
}

// Register installs w and, on success, activates it right away and lets it
// claim all requests. The previously active worker becomes redundant. If the
// install fails the previous worker keeps serving.
func (r *Registration) Register(ctx context.Context, w *Worker) error {
	if err := w.Install(ctx); err != nil {
		return err
	}
	if err := w.Activate(ctx); err != nil {
		w.retire()
		return fmt.Errorf("activating %s: %w", w.Version(), err)
	}
	r.claim(w)
	return nil
}

// Restore makes w active without priming when its bucket already exists,
// the way an installed version survives a restart. It reports whether w
// took control.
func (r *Registration) Restore(ctx context.Context, w *Worker) (bool, error) {
	ok, err := w.caches.Has(ctx, w.Version())
	if err != nil {
		return false, fmt.Errorf("checking cache %s: %w", w.Version(), err)
	}
	if !ok {
		return false, nil
	}
	w.setState(StateActive)
	r.claim(w)
	return true, nil
}

func (r *Registration) claim(w *Worker) {
	r.mu.Lock()
	prev := r.active
	r.active = w
	r.mu.Unlock()

	if prev != nil && prev != w {
		prev.retire()
		r.logger.Info("worker replaced", "old", prev.Version(), "new", w.Version())
	}
}

// Active returns the controlling worker, or nil.
func (r *Registration) Active() *Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// RoundTrip hands req to the active worker, or to the network if none.
func (r *Registration) RoundTrip(req *http.Request) (*http.Response, error) {
	if w := r.Active(); w != nil {
		return w.RoundTrip(req)
	}
	return r.network.RoundTrip(req)
}

// Wait blocks until the active worker's background refreshes are done.
func (r *Registration) Wait() {
	if w := r.Active(); w != nil {
		w.Wait()
	}
}
