package routing

import (
	"strings"

	"github.com/restflow/restflow/internal/agent"
)

// Tier classifies how much reasoning capability a pending task needs (spec
// model routing).
type Tier string

const (
	TierRoutine  Tier = "routine"
	TierModerate Tier = "moderate"
	TierComplex  Tier = "complex"
)

// TierTable maps a classified tier to a concrete model identifier. A tier
// with no entry falls back to DefaultModel.
type TierTable struct {
	DefaultModel string
	Models       map[Tier]string
}

// ModelFor resolves tier to a concrete model, falling back to the default
// when the table has no override for that tier.
func (t TierTable) ModelFor(tier Tier) string {
	if model, ok := t.Models[tier]; ok && model != "" {
		return model
	}
	return t.DefaultModel
}

// TierClassifier assigns a Tier to each request by combining a hard
// override for complex-tool names, additive keyword and iteration-number
// signals otherwise, and an unconditional escalation to Complex when the
// previous iteration failed.
type TierClassifier struct {
	// ComplexTools names tools whose presence in the request forces Complex
	// regardless of any other signal (e.g. process execution, patch apply).
	ComplexTools map[string]struct{}

	// ComplexKeywords/ModerateKeywords are matched case-insensitively
	// against the most recent user/assistant message content.
	ComplexKeywords  []string
	ModerateKeywords []string

	// EscalateAfterIteration raises the floor to at least Moderate once the
	// loop has run this many iterations, and to Complex after double that.
	EscalateAfterIteration int
}

// DefaultTierClassifier returns a classifier seeded with reasonable signal
// defaults: process/patch/execute-family tools are always Complex, common
// code-editing keywords escalate to Moderate or Complex.
func DefaultTierClassifier() *TierClassifier {
	return &TierClassifier{
		ComplexTools: map[string]struct{}{
			"bash": {}, "process": {}, "patch": {}, "subagent_spawn": {},
		},
		ComplexKeywords:        []string{"refactor", "architecture", "debug", "root cause"},
		ModerateKeywords:       []string{"fix", "implement", "write", "explain"},
		EscalateAfterIteration: 5,
	}
}

// Classify implements routing.Classifier, returning a single tag describing
// the chosen tier so Router's rule matching can route on it.
func (c *TierClassifier) Classify(req *agent.CompletionRequest) []string {
	return []string{string(c.ClassifyTier(req, 0, false))}
}

// ClassifyTier is the direct entry point used by the executor, which has
// iteration number and previous-failure context Classify's narrower
// interface doesn't carry.
func (c *TierClassifier) ClassifyTier(req *agent.CompletionRequest, iteration int, previousIterationFailed bool) Tier {
	if previousIterationFailed {
		return TierComplex
	}

	for _, tool := range req.Tools {
		if _, ok := c.ComplexTools[strings.ToLower(tool.Name())]; ok {
			return TierComplex
		}
	}

	tier := TierRoutine
	if c.EscalateAfterIteration > 0 {
		if iteration >= c.EscalateAfterIteration*2 {
			return TierComplex
		}
		if iteration >= c.EscalateAfterIteration {
			tier = TierModerate
		}
	}

	content := strings.ToLower(lastMessageContent(req))
	for _, kw := range c.ComplexKeywords {
		if kw != "" && strings.Contains(content, kw) {
			return TierComplex
		}
	}
	for _, kw := range c.ModerateKeywords {
		if kw != "" && strings.Contains(content, kw) {
			if tier == TierRoutine {
				tier = TierModerate
			}
		}
	}

	return tier
}

func lastMessageContent(req *agent.CompletionRequest) string {
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}
