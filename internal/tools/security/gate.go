package security

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/restflow/restflow/internal/tools/policy"
)

// ToolAction is the deterministic input to the security gate: what a tool
// call is about to do, reduced to the shape the gate needs to decide on.
type ToolAction struct {
	ToolName  string
	Operation string
	Target    string
	Summary   string
	AgentID   string
	TaskID    string
}

// Decision is the gate's categorical verdict.
type Decision string

const (
	DecisionAllow           Decision = "allow"
	DecisionRequireApproval Decision = "require_approval"
	DecisionDeny            Decision = "deny"
)

// SecurityDecision is the gate's output for a single ToolAction.
type SecurityDecision struct {
	Decision   Decision
	ApprovalID string
	Reason     string
	// HasPipe, HasRedirect, HasChain surface shell-grammar signals even when
	// the decision is Allow; pipes must be flagged, not
	// rejected, on their own.
	HasPipe     bool
	HasRedirect bool
	HasChain    bool
}

// GateConfig configures the policy steps a Gate applies, in order.
type GateConfig struct {
	// AllowedPaths/AllowedHosts short-circuit to Allow when the action
	// target matches, skipping approval entirely.
	AllowedPaths []string
	AllowedHosts []string

	// BlockedCommands is compared against each shell command's first
	// segment (step 4). Any match denies outright.
	BlockedCommands []string

	// GrantMaxAge bounds how long a cached grant remains valid regardless
	// of scope; zero means grants never expire from age alone.
	GrantMaxAge time.Duration
}

// Gate is the Security Gate (spec C5): it turns a ToolAction into an
// allow/require-approval/deny decision, consulting an approval cache and a
// shell-grammar analyser along the way.
type Gate struct {
	cfg   GateConfig
	cache *ApprovalCache
}

// NewGate constructs a Gate with its own approval cache.
func NewGate(cfg GateConfig) *Gate {
	return &Gate{cfg: cfg, cache: NewApprovalCache()}
}

// Cache exposes the gate's approval cache so callers can record a newly
// granted approval (e.g. after a human resolves a DeferredCall).
func (g *Gate) Cache() *ApprovalCache { return g.cache }

// Check evaluates action against the gate's policy, in the order fixed by
// policy order:
//  1. allowlist match → Allow
//  2. unexpired cached grant → Allow
//  3. shell-grammar analysis → Deny on unquoted subshell/backtick
//  4. blocked-command list → Deny
//  5. otherwise → RequireApproval with a fresh approval id
func (g *Gate) Check(action ToolAction) SecurityDecision {
	if g.matchesAllowlist(action) {
		return SecurityDecision{Decision: DecisionAllow, Reason: "matched allowlist"}
	}

	key := GrantKey{ToolName: action.ToolName, Operation: action.Operation, Target: action.Target}
	if grant, ok := g.cache.Get(key, g.cfg.GrantMaxAge); ok {
		g.cache.Consume(key)
		return SecurityDecision{Decision: DecisionAllow, Reason: "cached grant (" + string(grant.Scope) + ")"}
	}

	var pipe, redirect, chain bool
	if action.Operation == "execute" {
		analysis := AnalyzeCommandQuoteAware(action.Target)
		for _, tok := range analysis.DangerousTokens {
			switch tok.Risk {
			case "subshell":
				return SecurityDecision{
					Decision: DecisionDeny,
					Reason:   "unquoted subshell or backtick in command: " + tok.Token,
				}
			case "pipe":
				pipe = true
			case "redirect":
				redirect = true
			case "command_chain":
				chain = true
			}
		}

		if blocked, reason := g.matchesBlockedCommand(action.Target); blocked {
			return SecurityDecision{Decision: DecisionDeny, Reason: reason, HasPipe: pipe, HasRedirect: redirect, HasChain: chain}
		}
	}

	return SecurityDecision{
		Decision:    DecisionRequireApproval,
		ApprovalID:  uuid.NewString(),
		Reason:      "no allowlist/grant match",
		HasPipe:     pipe,
		HasRedirect: redirect,
		HasChain:    chain,
	}
}

func (g *Gate) matchesAllowlist(action ToolAction) bool {
	switch action.Operation {
	case "read", "write", "edit", "patch":
		return matchesAnyPrefix(g.cfg.AllowedPaths, action.Target)
	default:
		if matchesAnyPrefix(g.cfg.AllowedHosts, action.Target) {
			return true
		}
	}
	return false
}

func (g *Gate) matchesBlockedCommand(command string) (bool, string) {
	firstSegment := firstCommandSegment(command)
	normalized := policy.NormalizeTool(firstSegment)
	for _, blocked := range g.cfg.BlockedCommands {
		if policy.NormalizeTool(blocked) == normalized {
			return true, "blocked command: " + firstSegment
		}
	}
	return false, ""
}

// firstCommandSegment returns the first whitespace-delimited token of a
// shell command, e.g. "rm -rf /tmp/x" -> "rm".
func firstCommandSegment(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func matchesAnyPrefix(list []string, target string) bool {
	if target == "" {
		return false
	}
	for _, candidate := range list {
		if candidate == "" {
			continue
		}
		if strings.HasPrefix(target, candidate) {
			return true
		}
	}
	return false
}
