package agent

import (
	"encoding/json"

	"github.com/restflow/restflow/internal/tools/security"
	"github.com/restflow/restflow/pkg/models"
)

// executeOperationTools names tools whose Input carries a shell/code
// command rather than a file path or URL.
var executeOperationTools = map[string]struct{}{
	"process":      {},
	"execute_code": {},
}

// fileOperationTools maps a tool name to the Gate operation its target
// path should be checked against.
var fileOperationTools = map[string]string{
	"read":        "read",
	"write":       "write",
	"edit":        "edit",
	"apply_patch": "patch",
}

// toolActionForGate reduces a tool call to the security.ToolAction shape
// the Security Gate decides on, extracting the field most likely to carry
// the action's real-world target (a path, a shell command, or a URL/query)
// out of the tool's JSON input.
func toolActionForGate(tc models.ToolCall, agentID, taskID string) security.ToolAction {
	action := security.ToolAction{
		ToolName: tc.Name,
		AgentID:  agentID,
		TaskID:   taskID,
		Summary:  tc.Name,
	}

	var input map[string]json.RawMessage
	_ = json.Unmarshal(tc.Input, &input)

	switch {
	case fileOperationTools[tc.Name] != "":
		action.Operation = fileOperationTools[tc.Name]
		action.Target = rawInputString(input, "path")
		if action.Target == "" {
			action.Target = rawInputString(input, "patch")
		}
	case isExecuteOperation(tc.Name):
		action.Operation = "execute"
		action.Target = rawInputString(input, "command")
		if action.Target == "" {
			action.Target = rawInputString(input, "code")
		}
	default:
		action.Operation = "call"
		action.Target = rawInputString(input, "url")
		if action.Target == "" {
			action.Target = rawInputString(input, "query")
		}
	}

	if action.Target == "" {
		action.Target = string(tc.Input)
	}
	return action
}

func isExecuteOperation(toolName string) bool {
	_, ok := executeOperationTools[toolName]
	return ok
}

func rawInputString(input map[string]json.RawMessage, key string) string {
	raw, ok := input[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
