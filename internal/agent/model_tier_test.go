package agent

import (
	"context"
	"encoding/json"
	"testing"
)

func TestModelTierEscalatesOnPreviousFailure(t *testing.T) {
	c := DefaultTierClassifier()
	req := &CompletionRequest{Messages: []CompletionMessage{{Role: "user", Content: "say hi"}}}

	tier := c.ClassifyTier(req, 0, true)
	if tier != TierComplex {
		t.Fatalf("expected Complex after a previous failure, got %v", tier)
	}
}

func TestModelTierKeywordEscalation(t *testing.T) {
	c := DefaultTierClassifier()
	req := &CompletionRequest{Messages: []CompletionMessage{{Role: "user", Content: "please refactor this module"}}}

	tier := c.ClassifyTier(req, 0, false)
	if tier != TierComplex {
		t.Fatalf("expected Complex for a refactor keyword, got %v", tier)
	}
}

func TestModelTierIterationEscalation(t *testing.T) {
	c := DefaultTierClassifier()
	req := &CompletionRequest{Messages: []CompletionMessage{{Role: "user", Content: "continue"}}}

	if tier := c.ClassifyTier(req, 0, false); tier != TierRoutine {
		t.Fatalf("expected Routine at iteration 0, got %v", tier)
	}
	if tier := c.ClassifyTier(req, c.EscalateAfterIteration, false); tier != TierModerate {
		t.Fatalf("expected Moderate at the escalation threshold, got %v", tier)
	}
	if tier := c.ClassifyTier(req, c.EscalateAfterIteration*2, false); tier != TierComplex {
		t.Fatalf("expected Complex at double the escalation threshold, got %v", tier)
	}
}

func TestModelTierTableFallsBackToDefault(t *testing.T) {
	table := TierTable{DefaultModel: "claude-sonnet", Models: map[Tier]string{TierComplex: "claude-opus"}}

	if got := table.ModelFor(TierRoutine); got != "claude-sonnet" {
		t.Fatalf("expected fallback to default model, got %q", got)
	}
	if got := table.ModelFor(TierComplex); got != "claude-opus" {
		t.Fatalf("expected tier override, got %q", got)
	}
}

func TestModelTierClassifierRespectsComplexTool(t *testing.T) {
	c := DefaultTierClassifier()
	req := &CompletionRequest{
		Messages: []CompletionMessage{{Role: "user", Content: "run this"}},
		Tools:    []Tool{stubTierTool{name: "bash"}},
	}
	if tier := c.ClassifyTier(req, 0, false); tier != TierComplex {
		t.Fatalf("expected Complex when bash is among the tools, got %v", tier)
	}
}

type stubTierTool struct{ name string }

func (s stubTierTool) Name() string             { return s.name }
func (s stubTierTool) Description() string      { return "" }
func (s stubTierTool) Schema() json.RawMessage   { return nil }
func (s stubTierTool) Execute(_ context.Context, _ json.RawMessage) (*ToolResult, error) {
	return nil, nil
}
