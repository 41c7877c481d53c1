package triggers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/restflow/restflow/internal/tasks"
)

// TaskStoreAdapter adapts an internal/tasks.Store (plus an Executor for the
// synchronous path) to the router's WebhookResolver and Submitter
// interfaces, so a webhook or schedule tick turns into the same
// TaskExecution records the task runner already polls and retries.
type TaskStoreAdapter struct {
	store    tasks.Store
	executor tasks.Executor
}

// NewTaskStoreAdapter builds an adapter over store and executor.
func NewTaskStoreAdapter(store tasks.Store, executor tasks.Executor) *TaskStoreAdapter {
	return &TaskStoreAdapter{store: store, executor: executor}
}

// ResolveWebhook treats the webhook id as a task id directly. A deployment
// that wants a separate webhook-id-to-task-id mapping can wrap this with its
// own WebhookResolver instead of using the adapter for resolution.
func (a *TaskStoreAdapter) ResolveWebhook(ctx context.Context, webhookID string) (*Task, error) {
	task, err := a.store.GetTask(ctx, webhookID)
	if err != nil {
		return nil, fmt.Errorf("task adapter: get task %q: %w", webhookID, err)
	}
	if task == nil {
		return nil, nil
	}
	return &Task{ID: task.ID, Prompt: task.Prompt}, nil
}

// Submit creates a pending execution for task and returns its id
// immediately; the task runner's acquire loop picks it up like any other
// due execution.
func (a *TaskStoreAdapter) Submit(ctx context.Context, task *Task, prompt string) (string, error) {
	exec := &tasks.TaskExecution{
		ID:            uuid.NewString(),
		TaskID:        task.ID,
		Status:        tasks.ExecutionStatusPending,
		Prompt:        prompt,
		AttemptNumber: 1,
	}
	if err := a.store.CreateExecution(ctx, exec); err != nil {
		return "", fmt.Errorf("task adapter: create execution: %w", err)
	}
	return exec.ID, nil
}

// SubmitSync runs the task's executor directly and blocks for the result,
// bypassing the queue for callers that need the produced value inline.
func (a *TaskStoreAdapter) SubmitSync(ctx context.Context, task *Task, prompt string) (string, error) {
	scheduledTask, err := a.store.GetTask(ctx, task.ID)
	if err != nil {
		return "", fmt.Errorf("task adapter: get task %q: %w", task.ID, err)
	}
	if scheduledTask == nil {
		return "", fmt.Errorf("task adapter: task %q not found", task.ID)
	}

	exec := &tasks.TaskExecution{
		ID:            uuid.NewString(),
		TaskID:        task.ID,
		Status:        tasks.ExecutionStatusRunning,
		Prompt:        prompt,
		AttemptNumber: 1,
	}
	response, err := a.executor.Execute(ctx, scheduledTask, exec)
	if err != nil {
		return "", fmt.Errorf("task adapter: synchronous execution: %w", err)
	}
	return response, nil
}
