package msgraph

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/timecalc"
)

// LogStore is the part of the tracker the import writes through.
type LogStore interface {
	ListLogs(ctx context.Context) ([]model.WorkLog, error)
	LogHours(ctx context.Context, l model.WorkLog) (model.WorkLog, error)
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Filtered int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	// ProjectID receives every imported work log.
	ProjectID string
	// Timezone is the IANA zone Graph was asked to report times in.
	Timezone string
	DryRun   bool
	// Out receives one progress line per event. Nil discards them.
	Out io.Writer
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// shouldSkip returns true if the event should not become a work log.
func shouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private":
		return true
	case event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	}
	return false
}

// MapEventToWorkLog turns an event into a work log on the event's start day.
// Hours are the duration rounded to the nearest whole hour, at least 1.
func MapEventToWorkLog(event CalendarEvent, timezone, projectID string) (model.WorkLog, error) {
	start, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return model.WorkLog{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return model.WorkLog{}, fmt.Errorf("parsing end time: %w", err)
	}
	if end.Before(start) {
		return model.WorkLog{}, fmt.Errorf("event ends before it starts")
	}

	return model.WorkLog{
		ProjectID:   projectID,
		Date:        timecalc.Today(start),
		Hours:       timecalc.RoundHours(end.Sub(start)),
		Description: event.Subject,
	}.Normalize(), nil
}

// dedupeKey identifies a log by what a user would call "the same entry".
func dedupeKey(l model.WorkLog) string {
	return l.ProjectID + "\x00" + l.Date + "\x00" + l.Description
}

// SyncEvents registers each eligible event as a work log. Events matching an
// existing log on (project, date, description) are skipped, so running the
// same range twice imports nothing new.
func SyncEvents(ctx context.Context, logs LogStore, events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	existing, err := logs.ListLogs(ctx)
	if err != nil {
		return result, fmt.Errorf("loading existing work logs: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, l := range existing {
		seen[dedupeKey(l)] = true
	}

	for _, event := range events {
		if shouldSkip(event) {
			result.Filtered++
			continue
		}

		l, err := MapEventToWorkLog(event, opts.Timezone, opts.ProjectID)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}

		key := dedupeKey(l)
		if seen[key] {
			fmt.Fprintf(out, "  – Skipped:  %s %s (already registered)\n", l.Date, event.Subject)
			result.Skipped++
			continue
		}

		if !opts.DryRun {
			if _, err := logs.LogHours(ctx, l); err != nil {
				fmt.Fprintf(out, "  ! Error saving %q: %v\n", event.Subject, err)
				result.Errors++
				continue
			}
		}
		seen[key] = true
		fmt.Fprintf(out, "  ✓ Imported: %s %s (%s)\n", l.Date, event.Subject, timecalc.FormatHours(l.Hours))
		result.Imported++
	}

	return result, nil
}
