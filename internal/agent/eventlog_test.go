package agent

import (
	"context"
	"testing"

	"github.com/restflow/restflow/internal/storage/bytestore"
	"github.com/restflow/restflow/pkg/models"
)

func TestEventLogAppendAndList(t *testing.T) {
	log := NewEventLog(bytestore.NewMemoryStore())
	ctx := context.Background()

	for i := uint64(1); i <= 3; i++ {
		event := models.AgentEvent{Type: models.AgentEventRunStarted, Sequence: i}
		if err := log.Append(ctx, "sess-1", event); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := log.List(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, event := range events {
		if event.Sequence != uint64(i+1) {
			t.Errorf("event %d sequence = %d, want %d", i, event.Sequence, i+1)
		}
	}
}

func TestEventLogListAfterSeqSkipsEarlier(t *testing.T) {
	log := NewEventLog(bytestore.NewMemoryStore())
	ctx := context.Background()

	for i := uint64(1); i <= 5; i++ {
		log.Append(ctx, "sess-1", models.AgentEvent{Sequence: i})
	}

	events, err := log.List(ctx, "sess-1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events after sequence 3, got %d", len(events))
	}
	if events[0].Sequence != 4 {
		t.Errorf("first event sequence = %d, want 4", events[0].Sequence)
	}
}

func TestEventLogDeleteSession(t *testing.T) {
	log := NewEventLog(bytestore.NewMemoryStore())
	ctx := context.Background()

	log.Append(ctx, "sess-1", models.AgentEvent{Sequence: 1})
	log.Append(ctx, "sess-2", models.AgentEvent{Sequence: 1})

	if err := log.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	events, err := log.List(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events for deleted session, got %d", len(events))
	}

	remaining, err := log.List(ctx, "sess-2", 0)
	if err != nil {
		t.Fatalf("list sess-2: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("expected sess-2's event to survive, got %d", len(remaining))
	}
}

func TestEventLogSinkPersistsEmittedEvents(t *testing.T) {
	log := NewEventLog(bytestore.NewMemoryStore())
	sink := log.Sink("sess-1")

	sink.Emit(context.Background(), models.AgentEvent{Sequence: 1, Type: models.AgentEventRunStarted})

	events, err := log.List(context.Background(), "sess-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(events))
	}
}
