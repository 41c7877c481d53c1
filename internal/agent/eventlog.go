package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/restflow/restflow/internal/storage/bytestore"
	"github.com/restflow/restflow/pkg/models"
)

// EventLog persists AgentEvents so a session's history survives process
// restarts and can be replayed to a reconnecting client. It is the durable
// counterpart to EventEmitter/EventSink, which only fan events out to
// whoever happens to be listening right now.
type EventLog struct {
	store bytestore.Store
}

// NewEventLog wraps store as a durable, per-session append-only event log.
func NewEventLog(store bytestore.Store) *EventLog {
	return &EventLog{store: store}
}

// eventLogKey orders entries lexically by zero-padded sequence within a
// session, matching the scheme CheckpointStore uses for tool_call_index.
func eventLogKey(sessionID string, seq uint64) string {
	return fmt.Sprintf("%s/%020d", sessionID, seq)
}

// Append records event under sessionID, keyed by its own Sequence number so
// repeated appends with the same sequence (a retried emit) overwrite rather
// than duplicate.
func (l *EventLog) Append(ctx context.Context, sessionID string, event models.AgentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventlog: marshal: %w", err)
	}
	return l.store.Put(ctx, "events", eventLogKey(sessionID, event.Sequence), data)
}

// List returns every event recorded for sessionID, ordered by sequence
// ascending, optionally skipping anything at or before afterSeq (useful
// for resuming a stream a client was disconnected from mid-run).
func (l *EventLog) List(ctx context.Context, sessionID string, afterSeq uint64) ([]models.AgentEvent, error) {
	start := eventLogKey(sessionID, afterSeq+1)
	end := sessionID + "/\xff"
	entries, err := l.store.Scan(ctx, "events", start, end)
	if err != nil {
		return nil, fmt.Errorf("eventlog: scan: %w", err)
	}

	events := make([]models.AgentEvent, 0, len(entries))
	for _, entry := range entries {
		var event models.AgentEvent
		if err := json.Unmarshal(entry.Value, &event); err != nil {
			return nil, fmt.Errorf("eventlog: unmarshal %q: %w", entry.Key, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// DeleteSession removes every event recorded for sessionID.
func (l *EventLog) DeleteSession(ctx context.Context, sessionID string) error {
	entries, err := l.store.Scan(ctx, "events", sessionID+"/", sessionID+"/\xff")
	if err != nil {
		return fmt.Errorf("eventlog: scan: %w", err)
	}
	for _, entry := range entries {
		if err := l.store.Delete(ctx, "events", entry.Key); err != nil {
			return fmt.Errorf("eventlog: delete %q: %w", entry.Key, err)
		}
	}
	return nil
}

// Sink adapts the log to the EventSink interface so it can be wired into a
// MultiSink alongside the streaming and plugin sinks, persisting every
// event a run emits without the caller needing to call Append directly.
func (l *EventLog) Sink(sessionID string) EventSink {
	return &eventLogSink{log: l, sessionID: sessionID}
}

type eventLogSink struct {
	log       *EventLog
	sessionID string
}

// Emit implements EventSink. Persistence failures are not fatal to the run;
// they would otherwise take down in-flight streaming for a durability
// concern the caller can recover by replaying from the provider transcript.
func (s *eventLogSink) Emit(ctx context.Context, e models.AgentEvent) {
	_ = s.log.Append(ctx, s.sessionID, e)
}
