package routing

import (
	"testing"

	"github.com/restflow/restflow/internal/agent"
)

func TestTierClassifierEscalatesOnPreviousFailure(t *testing.T) {
	c := DefaultTierClassifier()
	req := &agent.CompletionRequest{Messages: []agent.CompletionMessage{{Role: "user", Content: "say hi"}}}

	tier := c.ClassifyTier(req, 0, true)
	if tier != TierComplex {
		t.Fatalf("expected Complex after a previous failure, got %v", tier)
	}
}

func TestTierClassifierKeywordEscalation(t *testing.T) {
	c := DefaultTierClassifier()
	req := &agent.CompletionRequest{Messages: []agent.CompletionMessage{{Role: "user", Content: "please refactor this module"}}}

	tier := c.ClassifyTier(req, 0, false)
	if tier != TierComplex {
		t.Fatalf("expected Complex for a refactor keyword, got %v", tier)
	}
}

func TestTierClassifierIterationEscalation(t *testing.T) {
	c := DefaultTierClassifier()
	req := &agent.CompletionRequest{Messages: []agent.CompletionMessage{{Role: "user", Content: "continue"}}}

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

func TestTierTableFallsBackToDefault(t *testing.T) {
	table := TierTable{DefaultModel: "claude-sonnet", Models: map[Tier]string{TierComplex: "claude-opus"}}

	if got := table.ModelFor(TierRoutine); got != "claude-sonnet" {
		t.Fatalf("expected fallback to default model, got %q", got)
	}
	if got := table.ModelFor(TierComplex); got != "claude-opus" {
		t.Fatalf("expected tier override, got %q", got)
	}
}
