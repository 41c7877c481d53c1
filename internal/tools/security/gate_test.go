package security

import (
	"testing"
	"time"
)

func TestGateAllowlistMatch(t *testing.T) {
	g := NewGate(GateConfig{AllowedPaths: []string{"/tmp/allowed/"}})
	decision := g.Check(ToolAction{ToolName: "file", Operation: "read", Target: "/tmp/allowed/x.txt"})
	if decision.Decision != DecisionAllow {
		t.Fatalf("expected Allow, got %v (%s)", decision.Decision, decision.Reason)
	}
}

func TestGateCachedGrantAllows(t *testing.T) {
	g := NewGate(GateConfig{})
	key := GrantKey{ToolName: "bash", Operation: "execute", Target: "ls -la"}
	g.Cache().Insert(key, ApprovalGrant{GrantedAt: time.Now(), Scope: ScopeSession})

	decision := g.Check(ToolAction{ToolName: "bash", Operation: "execute", Target: "ls -la"})
	if decision.Decision != DecisionAllow {
		t.Fatalf("expected Allow from cached grant, got %v", decision.Decision)
	}
}

func TestGateThisCallGrantConsumedOnce(t *testing.T) {
	g := NewGate(GateConfig{})
	key := GrantKey{ToolName: "bash", Operation: "execute", Target: "ls"}
	g.Cache().Insert(key, ApprovalGrant{GrantedAt: time.Now(), Scope: ScopeThisCall})

	first := g.Check(ToolAction{ToolName: "bash", Operation: "execute", Target: "ls"})
	if first.Decision != DecisionAllow {
		t.Fatalf("expected first check to allow, got %v", first.Decision)
	}
	second := g.Check(ToolAction{ToolName: "bash", Operation: "execute", Target: "ls"})
	if second.Decision == DecisionAllow {
		t.Fatalf("expected ThisCall grant to be consumed, second check still allowed")
	}
}

func TestGateRejectsUnquotedSubshell(t *testing.T) {
	g := NewGate(GateConfig{})
	decision := g.Check(ToolAction{ToolName: "bash", Operation: "execute", Target: "echo $(date)"})
	if decision.Decision != DecisionDeny {
		t.Fatalf("expected Deny for unquoted subshell, got %v", decision.Decision)
	}
}

func TestGateAcceptsQuotedSubshell(t *testing.T) {
	g := NewGate(GateConfig{})
	decision := g.Check(ToolAction{ToolName: "bash", Operation: "execute", Target: "echo '$(date)'"})
	if decision.Decision == DecisionDeny {
		t.Fatalf("expected quoted subshell to not be denied, got %v (%s)", decision.Decision, decision.Reason)
	}
}

func TestGateFlagsPipeWithoutRejecting(t *testing.T) {
	g := NewGate(GateConfig{})
	decision := g.Check(ToolAction{ToolName: "bash", Operation: "execute", Target: "echo hello | cat"})
	if decision.Decision == DecisionDeny {
		t.Fatalf("pipe alone must not be denied, got %v", decision.Decision)
	}
	if !decision.HasPipe {
		t.Fatalf("expected HasPipe=true for piped command")
	}
}

func TestGateBlockedCommandDenies(t *testing.T) {
	g := NewGate(GateConfig{BlockedCommands: []string{"rm"}})
	decision := g.Check(ToolAction{ToolName: "bash", Operation: "execute", Target: "rm -rf /tmp/x"})
	if decision.Decision != DecisionDeny {
		t.Fatalf("expected Deny for blocked command, got %v", decision.Decision)
	}
}

func TestGateDefaultsToRequireApproval(t *testing.T) {
	g := NewGate(GateConfig{})
	decision := g.Check(ToolAction{ToolName: "bash", Operation: "execute", Target: "ls -la"})
	if decision.Decision != DecisionRequireApproval {
		t.Fatalf("expected RequireApproval, got %v", decision.Decision)
	}
	if decision.ApprovalID == "" {
		t.Fatalf("expected a fresh approval id")
	}
}
