package audithook_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/sequence"
	ah "github.com/xraph/sequence/audit_hook"
	"github.com/xraph/sequence/ext"
	"github.com/xraph/sequence/id"
	"github.com/xraph/sequence/task"
)

// ── Mock recorder ────────────────────────────────────

// mockRecorder captures audit events for verification.
type mockRecorder struct {
	mu     sync.Mutex
	events []*ah.AuditEvent
}

func (m *mockRecorder) Record(_ context.Context, evt *ah.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockRecorder) last() *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockRecorder) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, evt := range m.events {
		out[i] = evt.Action
	}
	return out
}

func newTestInfo() task.Info {
	return task.Info{
		SequenceID: id.NewSequenceID(),
		RunID:      id.NewRunID(),
		Sequence:   "checkout",
		Queue:      "payments",
		Index:      1,
		Total:      3,
	}
}

// ── Tests ────────────────────────────────────────────

func TestExtension_Name(t *testing.T) {
	e := ah.New(&mockRecorder{})
	if e.Name() != "audit-hook" {
		t.Errorf("expected name %q, got %q", "audit-hook", e.Name())
	}
}

func TestExtension_SequenceStarted(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	info := newTestInfo()

	if err := e.OnSequenceStarted(context.Background(), info); err != nil {
		t.Fatalf("OnSequenceStarted: %v", err)
	}

	evt := rec.last()
	if evt == nil {
		t.Fatal("no event recorded")
	}
	if evt.Action != ah.ActionSequenceStarted {
		t.Errorf("Action: want %q, got %q", ah.ActionSequenceStarted, evt.Action)
	}
	if evt.Resource != ah.ResourceRun || evt.Category != ah.CategoryRun {
		t.Errorf("Resource/Category: got %q/%q", evt.Resource, evt.Category)
	}
	if evt.ResourceID != info.RunID.String() {
		t.Errorf("ResourceID: want %q, got %q", info.RunID.String(), evt.ResourceID)
	}
	if evt.Severity != ah.SeverityInfo || evt.Outcome != ah.OutcomeSuccess {
		t.Errorf("Severity/Outcome: got %q/%q", evt.Severity, evt.Outcome)
	}
	if evt.Metadata["sequence_name"] != "checkout" || evt.Metadata["queue"] != "payments" {
		t.Errorf("Metadata: %v", evt.Metadata)
	}
	if evt.Metadata["sequence_id"] != info.SequenceID.String() {
		t.Errorf("sequence_id: %v", evt.Metadata["sequence_id"])
	}
	if evt.Metadata["tasks"] != 3 {
		t.Errorf("tasks: want 3, got %v", evt.Metadata["tasks"])
	}
}

func TestExtension_TaskCompleted(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnTaskCompleted(context.Background(), newTestInfo(), 150*time.Millisecond); err != nil {
		t.Fatalf("OnTaskCompleted: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionTaskCompleted || evt.Resource != ah.ResourceTask {
		t.Errorf("unexpected event %+v", evt)
	}
	if evt.Metadata["index"] != 1 {
		t.Errorf("index: want 1, got %v", evt.Metadata["index"])
	}
	if evt.Metadata["elapsed_ms"] != int64(150) {
		t.Errorf("elapsed_ms: want 150, got %v", evt.Metadata["elapsed_ms"])
	}
}

func TestExtension_TaskFailed(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnTaskFailed(context.Background(), newTestInfo(), errors.New("card declined")); err != nil {
		t.Fatalf("OnTaskFailed: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionTaskFailed {
		t.Errorf("Action: want %q, got %q", ah.ActionTaskFailed, evt.Action)
	}
	if evt.Severity != ah.SeverityWarning || evt.Outcome != ah.OutcomeFailure {
		t.Errorf("Severity/Outcome: got %q/%q", evt.Severity, evt.Outcome)
	}
	if evt.Reason != "card declined" || evt.Metadata["error"] != "card declined" {
		t.Errorf("Reason: %q, error: %v", evt.Reason, evt.Metadata["error"])
	}
}

func TestExtension_SequenceCompleted(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnSequenceCompleted(context.Background(), newTestInfo(), 2*time.Second); err != nil {
		t.Fatalf("OnSequenceCompleted: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionSequenceCompleted || evt.Outcome != ah.OutcomeSuccess {
		t.Errorf("unexpected event %+v", evt)
	}
	if evt.Metadata["elapsed_ms"] != int64(2000) {
		t.Errorf("elapsed_ms: want 2000, got %v", evt.Metadata["elapsed_ms"])
	}
}

func TestExtension_SequenceFailed(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnSequenceFailed(context.Background(), newTestInfo(), errors.New("boom")); err != nil {
		t.Fatalf("OnSequenceFailed: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionSequenceFailed {
		t.Errorf("Action: want %q, got %q", ah.ActionSequenceFailed, evt.Action)
	}
	if evt.Severity != ah.SeverityCritical {
		t.Errorf("Severity: want %q, got %q", ah.SeverityCritical, evt.Severity)
	}
	if evt.Metadata["failed_index"] != 1 {
		t.Errorf("failed_index: want 1, got %v", evt.Metadata["failed_index"])
	}
}

func TestExtension_SequenceCancelled(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)

	if err := e.OnSequenceCancelled(context.Background(), newTestInfo()); err != nil {
		t.Fatalf("OnSequenceCancelled: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionSequenceCancelled || evt.Outcome != ah.OutcomeCancelled {
		t.Errorf("unexpected event %+v", evt)
	}
	if evt.Reason != "" {
		t.Errorf("Reason: want empty, got %q", evt.Reason)
	}
}

func TestExtension_WithActions_FiltersDisabled(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec, ah.WithActions(ah.ActionSequenceFailed, ah.ActionSequenceCancelled))

	ctx := context.Background()
	info := newTestInfo()

	if err := e.OnSequenceStarted(ctx, info); err != nil {
		t.Fatalf("OnSequenceStarted: %v", err)
	}
	if rec.count() != 0 {
		t.Errorf("expected 0 events (started disabled), got %d", rec.count())
	}

	if err := e.OnSequenceFailed(ctx, info, errors.New("boom")); err != nil {
		t.Fatalf("OnSequenceFailed: %v", err)
	}
	if err := e.OnSequenceCancelled(ctx, info); err != nil {
		t.Fatalf("OnSequenceCancelled: %v", err)
	}
	if rec.count() != 2 {
		t.Errorf("expected 2 events, got %d", rec.count())
	}
}

func TestExtension_RecorderError_DoesNotPropagate(t *testing.T) {
	failing := ah.RecorderFunc(func(_ context.Context, _ *ah.AuditEvent) error {
		return errors.New("audit backend down")
	})

	e := ah.New(failing, ah.WithLogger(slog.Default()))
	if err := e.OnSequenceStarted(context.Background(), newTestInfo()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestExtension_ViaRegistry(t *testing.T) {
	rec := &mockRecorder{}
	reg := ext.NewRegistry(slog.Default())
	reg.Register(ah.New(rec))

	ctx := context.Background()
	info := newTestInfo()

	reg.EmitSequenceStarted(ctx, info)
	reg.EmitTaskCompleted(ctx, info, time.Millisecond)
	reg.EmitTaskFailed(ctx, info, errors.New("fail"))
	reg.EmitSequenceCompleted(ctx, info, time.Second)
	reg.EmitSequenceFailed(ctx, info, errors.New("fail"))
	reg.EmitSequenceCancelled(ctx, info)

	got := rec.actions()
	want := ah.AllActions()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestExtension_RecordsSequenceRun(t *testing.T) {
	rec := &mockRecorder{}
	rt, err := sequence.NewRuntime(sequence.WithExtension(ah.New(rec)))
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	ctx := context.Background()
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = rt.Stop(ctx) }()

	done := make(chan error, 1)
	_ = rt.Do(ctx, func() {
		sequence.New[string](rt, sequence.WithName("greet")).
			Add(func(context.Context, string) (string, error) { return "hello", nil }).
			Add(func(_ context.Context, s string) (string, error) { return "", errors.New(s + " failed") }).
			OnFailure(func(err error) { done <- err }).
			Finally(func(string) { done <- nil })
	})

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	want := []string{
		ah.ActionSequenceStarted,
		ah.ActionTaskCompleted,
		ah.ActionTaskFailed,
		ah.ActionSequenceFailed,
	}
	got := rec.actions()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if got := rec.last().Metadata["sequence_name"]; got != "greet" {
		t.Errorf("sequence_name: want greet, got %v", got)
	}
}

func TestAllActions(t *testing.T) {
	if n := len(ah.AllActions()); n != 6 {
		t.Errorf("expected 6 actions, got %d", n)
	}
}
