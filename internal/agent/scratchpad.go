package agent

import (
	"encoding/json"
	"sync"
	"time"
)

// ScratchpadEntryType labels a single scratchpad entry.
type ScratchpadEntryType string

const (
	ScratchpadExecutionStart    ScratchpadEntryType = "execution_start"
	ScratchpadIterationBegin    ScratchpadEntryType = "iteration_begin"
	ScratchpadTextDelta         ScratchpadEntryType = "text_delta"
	ScratchpadThinking          ScratchpadEntryType = "thinking"
	ScratchpadToolCall          ScratchpadEntryType = "tool_call"
	ScratchpadToolResult        ScratchpadEntryType = "tool_result"
	ScratchpadError             ScratchpadEntryType = "error"
	ScratchpadExecutionComplete ScratchpadEntryType = "execution_complete"
)

// ScratchpadEntry is one record of a Scratchpad's trace.
type ScratchpadEntry struct {
	Timestamp time.Time           `json:"timestamp"`
	Iteration int                 `json:"iteration"`
	Type      ScratchpadEntryType `json:"event_type"`
	Data      json.RawMessage     `json:"data"`
}

// Scratchpad is per-execution working memory for the agent loop: a trace of
// what happened at each iteration, kept purely in memory and reset for every
// new execution. Unlike EventLog it is never written to durable storage and
// is never included in a checkpoint — restarting from a checkpoint starts
// with an empty scratchpad, the same way the original execution did.
type Scratchpad struct {
	mu      sync.Mutex
	entries []ScratchpadEntry
	now     func() time.Time
}

// NewScratchpad returns an empty scratchpad ready for a single execution.
func NewScratchpad() *Scratchpad {
	return &Scratchpad{now: time.Now}
}

func (s *Scratchpad) append(iteration int, entryType ScratchpadEntryType, data any) {
	encoded, err := json.Marshal(data)
	if err != nil {
		encoded = []byte("{}")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, ScratchpadEntry{
		Timestamp: s.now(),
		Iteration: iteration,
		Type:      entryType,
		Data:      encoded,
	})
}

func (s *Scratchpad) LogStart(executionID, model, input string) {
	s.append(0, ScratchpadExecutionStart, map[string]any{
		"execution_id": executionID,
		"model":        model,
		"input":        input,
	})
}

func (s *Scratchpad) LogIterationBegin(iteration int) {
	s.append(iteration, ScratchpadIterationBegin, map[string]any{})
}

func (s *Scratchpad) LogTextDelta(iteration int, content string) {
	s.append(iteration, ScratchpadTextDelta, map[string]any{"content": content})
}

func (s *Scratchpad) LogThinking(iteration int, content string) {
	s.append(iteration, ScratchpadThinking, map[string]any{"content": content})
}

func (s *Scratchpad) LogToolCall(iteration int, callID, toolName, arguments string) {
	s.append(iteration, ScratchpadToolCall, map[string]any{
		"call_id":   callID,
		"tool":      toolName,
		"arguments": arguments,
	})
}

func (s *Scratchpad) LogToolResult(iteration int, callID, toolName string, success bool, result string) {
	s.append(iteration, ScratchpadToolResult, map[string]any{
		"call_id": callID,
		"tool":    toolName,
		"success": success,
		"result":  result,
	})
}

func (s *Scratchpad) LogError(iteration int, errMsg string) {
	s.append(iteration, ScratchpadError, map[string]any{"error": errMsg})
}

func (s *Scratchpad) LogComplete(iteration int, totalTokens int, totalCostUSD float64) {
	s.append(iteration, ScratchpadExecutionComplete, map[string]any{
		"total_tokens":   totalTokens,
		"total_cost_usd": totalCostUSD,
	})
}

// Entries returns a copy of every entry recorded so far, in recording order.
func (s *Scratchpad) Entries() []ScratchpadEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScratchpadEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Reset clears the scratchpad for reuse on a new execution, so a pooled
// Scratchpad doesn't leak a prior run's trace into the next one.
func (s *Scratchpad) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
