package tracker

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Notifier shows a blocking failure message to the user.
type Notifier interface {
	Alert(ctx context.Context, msg string)
}

// ConsoleNotifier writes alerts to a terminal, normally stderr.
type ConsoleNotifier struct {
	W io.Writer
}

func (n ConsoleNotifier) Alert(_ context.Context, msg string) {
	fmt.Fprintf(n.W, "Error: %s\n", msg)
}

// Recorder keeps alerts in memory so callers can inspect them afterwards.
type Recorder struct {
	mu     sync.Mutex
	alerts []string
}

func (r *Recorder) Alert(_ context.Context, msg string) {
	r.mu.Lock()
	r.alerts = append(r.alerts, msg)
	r.mu.Unlock()
}

// Alerts returns a copy of every alert raised so far.
func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

type discard struct{}

func (discard) Alert(context.Context, string) {}

// Discard drops every alert.
var Discard Notifier = discard{}
