package agent

import (
	"encoding/json"
	"testing"

	"github.com/restflow/restflow/pkg/models"
)

func TestToolActionForGateExtractsFilePath(t *testing.T) {
	tc := models.ToolCall{Name: "write", Input: json.RawMessage(`{"path":"/tmp/out.txt","content":"hi"}`)}
	action := toolActionForGate(tc, "agent-1", "task-1")

	if action.Operation != "write" || action.Target != "/tmp/out.txt" {
		t.Fatalf("action = %+v, want operation=write target=/tmp/out.txt", action)
	}
}

func TestToolActionForGateExtractsCommand(t *testing.T) {
	tc := models.ToolCall{Name: "process", Input: json.RawMessage(`{"command":"rm -rf /tmp/x"}`)}
	action := toolActionForGate(tc, "agent-1", "task-1")

	if action.Operation != "execute" || action.Target != "rm -rf /tmp/x" {
		t.Fatalf("action = %+v, want operation=execute target='rm -rf /tmp/x'", action)
	}
}

func TestToolActionForGateFallsBackToRawInput(t *testing.T) {
	tc := models.ToolCall{Name: "web_search", Input: json.RawMessage(`{"query":"restflow docs"}`)}
	action := toolActionForGate(tc, "", "")

	if action.Operation != "call" || action.Target != "restflow docs" {
		t.Fatalf("action = %+v, want operation=call target='restflow docs'", action)
	}
}
