package agent

import (
	"encoding/json"
	"testing"
)

func TestScratchpadRecordsEntriesInOrder(t *testing.T) {
	s := NewScratchpad()

	s.LogStart("exec-1", "mock-model", "hello")
	s.LogIterationBegin(1)
	s.LogToolCall(1, "call-1", "bash", `{"command":"ls"}`)
	s.LogToolResult(1, "call-1", "bash", true, `{"stdout":"ok"}`)
	s.LogComplete(1, 256, 0.0123)

	entries := s.Entries()
	if len(entries) != 5 {
		t.Fatalf("len(entries) = %d, want 5", len(entries))
	}

	wantTypes := []ScratchpadEntryType{
		ScratchpadExecutionStart,
		ScratchpadIterationBegin,
		ScratchpadToolCall,
		ScratchpadToolResult,
		ScratchpadExecutionComplete,
	}
	for i, want := range wantTypes {
		if entries[i].Type != want {
			t.Errorf("entries[%d].Type = %q, want %q", i, entries[i].Type, want)
		}
	}

	var toolCall map[string]any
	if err := json.Unmarshal(entries[2].Data, &toolCall); err != nil {
		t.Fatalf("unmarshal tool_call data: %v", err)
	}
	if toolCall["tool"] != "bash" || toolCall["call_id"] != "call-1" {
		t.Errorf("tool_call data = %+v, want tool=bash call_id=call-1", toolCall)
	}
}

func TestScratchpadErrorAndThinking(t *testing.T) {
	s := NewScratchpad()
	s.LogThinking(2, "considering options")
	s.LogError(2, "tool timed out")

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Type != ScratchpadThinking || entries[0].Iteration != 2 {
		t.Errorf("entries[0] = %+v, want thinking at iteration 2", entries[0])
	}
	if entries[1].Type != ScratchpadError {
		t.Errorf("entries[1].Type = %q, want %q", entries[1].Type, ScratchpadError)
	}
}

func TestScratchpadEntriesReturnsCopy(t *testing.T) {
	s := NewScratchpad()
	s.LogTextDelta(0, "partial")

	entries := s.Entries()
	entries[0].Iteration = 99

	fresh := s.Entries()
	if fresh[0].Iteration == 99 {
		t.Error("mutating a returned entry leaked back into the scratchpad")
	}
}

func TestScratchpadReset(t *testing.T) {
	s := NewScratchpad()
	s.LogTextDelta(0, "first run")
	if len(s.Entries()) != 1 {
		t.Fatalf("expected 1 entry before reset")
	}

	s.Reset()
	if len(s.Entries()) != 0 {
		t.Fatalf("expected 0 entries after reset, got %d", len(s.Entries()))
	}

	s.LogTextDelta(0, "second run")
	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after reset and new append, got %d", len(entries))
	}
	var data map[string]any
	if err := json.Unmarshal(entries[0].Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data["content"] != "second run" {
		t.Errorf("content = %v, want %q", data["content"], "second run")
	}
}
