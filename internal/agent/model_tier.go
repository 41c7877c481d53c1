package agent

import "strings"

// Tier classifies how much reasoning capability a pending iteration needs.
// It mirrors internal/agent/routing's tier classification; that package
// can't be imported here (it depends on agent.CompletionRequest, which would
// make the import cycle back), so the executor carries its own copy of the
// same algorithm against its own request type.
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

// TierClassifier assigns a Tier to each iteration by combining a hard
// override for complex-tool names, additive keyword and iteration-number
// signals otherwise, and an unconditional escalation to Complex when the
// previous iteration failed.
type TierClassifier struct {
	// ComplexTools names tools whose presence in the request forces Complex
	// regardless of any other signal.
	ComplexTools map[string]struct{}

	// ComplexKeywords/ModerateKeywords are matched case-insensitively
	// against the most recent message content.
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

// ClassifyTier is the entry point used by Runtime.run: it has the iteration
// number and previous-failure context that a bare request doesn't carry.
func (c *TierClassifier) ClassifyTier(req *CompletionRequest, iteration int, previousIterationFailed bool) Tier {
	if c == nil || req == nil {
		return TierRoutine
	}
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

	content := strings.ToLower(lastCompletionMessageContent(req))
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

func lastCompletionMessageContent(req *CompletionRequest) string {
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}
