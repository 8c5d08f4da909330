package msgraph_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/Tiliavir/architrack/internal/logger"
	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/msgraph"
	"github.com/Tiliavir/architrack/internal/store/memory"
	"github.com/Tiliavir/architrack/internal/tracker"
)

func makeEvent(id, subject, start, end string) msgraph.CalendarEvent {
	return msgraph.CalendarEvent{
		ID:          id,
		Subject:     subject,
		Sensitivity: "normal",
		ShowAs:      "busy",
		Start:       msgraph.EventTime{DateTime: start, TimeZone: "UTC"},
		End:         msgraph.EventTime{DateTime: end, TimeZone: "UTC"},
	}
}

// setup returns a tracker backed by an in-memory store with one project.
func setup(t *testing.T) (*tracker.Service, model.Project) {
	t.Helper()
	svc := tracker.NewService(memory.New(), tracker.Discard, logger.Discard())
	p, err := svc.CreateProject(context.Background(), "Meetings", "MTG")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return svc, p
}

func TestMapEventToWorkLog(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		tz         string
		wantDate   string
		wantHours  int
	}{
		{"ninety minutes round up", "2026-02-27T09:00:00", "2026-02-27T10:30:00", "UTC", "2026-02-27", 2},
		{"short meeting counts one hour", "2026-02-27T09:00:00.0000000", "2026-02-27T09:20:00.0000000", "UTC", "2026-02-27", 1},
		{"offset times keep their day", "2026-02-27T23:30:00+01:00", "2026-02-28T01:40:00+01:00", "", "2026-02-27", 2},
		{"named zone", "2026-02-27T08:00:00", "2026-02-27T11:10:00", "Europe/Madrid", "2026-02-27", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := msgraph.MapEventToWorkLog(makeEvent("e", " Sprint Planning ", tt.start, tt.end), tt.tz, "p1")
			if err != nil {
				t.Fatalf("MapEventToWorkLog: %v", err)
			}
			if l.Date != tt.wantDate || l.Hours != tt.wantHours {
				t.Errorf("got %s/%dh, want %s/%dh", l.Date, l.Hours, tt.wantDate, tt.wantHours)
			}
			if l.Description != "Sprint Planning" || l.ProjectID != "p1" {
				t.Errorf("unexpected log %+v", l)
			}
		})
	}
}

func TestMapEventToWorkLog_Invalid(t *testing.T) {
	if _, err := msgraph.MapEventToWorkLog(makeEvent("e", "x", "yesterday", "2026-02-27T10:00:00"), "", "p1"); err == nil {
		t.Error("expected error for unparseable start")
	}
	if _, err := msgraph.MapEventToWorkLog(makeEvent("e", "x", "2026-02-27T10:00:00", "2026-02-27T09:00:00"), "", "p1"); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestSyncEvents_Import(t *testing.T) {
	ctx := context.Background()
	svc, p := setup(t)
	events := []msgraph.CalendarEvent{
		makeEvent("1", "Standup", "2026-02-27T09:00:00", "2026-02-27T09:15:00"),
		makeEvent("2", "Design review", "2026-02-27T14:00:00", "2026-02-27T16:00:00"),
	}

	var out bytes.Buffer
	result, err := msgraph.SyncEvents(ctx, svc, events, msgraph.SyncOptions{ProjectID: p.ID, Out: &out})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 || result.Errors != 0 {
		t.Errorf("result = %+v, want 2 imported", result)
	}
	if !bytes.Contains(out.Bytes(), []byte("✓ Imported: 2026-02-27 Design review (2.0 h)")) {
		t.Errorf("missing progress line in %q", out.String())
	}

	logs, _ := svc.ListLogs(ctx)
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	total := 0
	for _, l := range logs {
		total += l.Hours
	}
	if total != 3 {
		t.Errorf("total hours = %d, want 3", total)
	}
}

func TestSyncEvents_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, p := setup(t)
	events := []msgraph.CalendarEvent{
		makeEvent("1", "Standup", "2026-02-27T09:00:00", "2026-02-27T09:15:00"),
		makeEvent("2", "Standup", "2026-02-28T09:00:00", "2026-02-28T09:15:00"),
	}
	opts := msgraph.SyncOptions{ProjectID: p.ID}

	if _, err := msgraph.SyncEvents(ctx, svc, events, opts); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	result, err := msgraph.SyncEvents(ctx, svc, events, opts)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 2 {
		t.Errorf("second run = %+v, want 0 imported, 2 skipped", result)
	}

	logs, _ := svc.ListLogs(ctx)
	if len(logs) != 2 {
		t.Errorf("got %d logs, want 2", len(logs))
	}
}

func TestSyncEvents_DuplicateInOneRun(t *testing.T) {
	svc, p := setup(t)
	ev := makeEvent("1", "Workshop", "2026-02-27T09:00:00", "2026-02-27T11:00:00")
	result, err := msgraph.SyncEvents(context.Background(), svc, []msgraph.CalendarEvent{ev, ev}, msgraph.SyncOptions{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 imported, 1 skipped", result)
	}
}

func TestSyncEvents_SkipFiltered(t *testing.T) {
	svc, p := setup(t)

	cancelled := makeEvent("c", "Cancelled", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
	cancelled.IsCancelled = true
	allDay := makeEvent("a", "Holiday", "2026-02-27T00:00:00", "2026-02-28T00:00:00")
	allDay.IsAllDay = true
	private := makeEvent("p", "Doctor", "2026-02-27T11:00:00", "2026-02-27T12:00:00")
	private.Sensitivity = "private"
	free := makeEvent("f", "Focus time", "2026-02-27T13:00:00", "2026-02-27T14:00:00")
	free.ShowAs = "free"
	noTimes := makeEvent("n", "Broken", "", "")
	kept := makeEvent("k", "Client call", "2026-02-27T15:00:00", "2026-02-27T16:00:00")

	events := []msgraph.CalendarEvent{cancelled, allDay, private, free, noTimes, kept}
	result, err := msgraph.SyncEvents(context.Background(), svc, events, msgraph.SyncOptions{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Filtered != 5 || result.Imported != 1 {
		t.Errorf("result = %+v, want 5 filtered, 1 imported", result)
	}
}

func TestSyncEvents_DryRun(t *testing.T) {
	ctx := context.Background()
	svc, p := setup(t)
	events := []msgraph.CalendarEvent{
		makeEvent("1", "Standup", "2026-02-27T09:00:00", "2026-02-27T09:15:00"),
	}

	result, err := msgraph.SyncEvents(ctx, svc, events, msgraph.SyncOptions{ProjectID: p.ID, DryRun: true})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("Imported = %d, want 1 (planned)", result.Imported)
	}
	logs, _ := svc.ListLogs(ctx)
	if len(logs) != 0 {
		t.Errorf("dry run stored %d logs", len(logs))
	}
}

func TestSyncEvents_UnknownProjectCountsErrors(t *testing.T) {
	svc, _ := setup(t)
	events := []msgraph.CalendarEvent{
		makeEvent("1", "Standup", "2026-02-27T09:00:00", "2026-02-27T09:15:00"),
	}
	result, err := msgraph.SyncEvents(context.Background(), svc, events, msgraph.SyncOptions{ProjectID: "missing"})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Errors != 1 || result.Imported != 0 {
		t.Errorf("result = %+v, want 1 error", result)
	}
}
