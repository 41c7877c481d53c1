package triggers

import (
	"context"
	"testing"

	"github.com/restflow/restflow/internal/tasks"
)

type fakeTaskStore struct {
	tasks.Store
	task       *tasks.ScheduledTask
	executions map[string]*tasks.TaskExecution
}

func (s *fakeTaskStore) GetTask(ctx context.Context, id string) (*tasks.ScheduledTask, error) {
	if s.task != nil && s.task.ID == id {
		return s.task, nil
	}
	return nil, nil
}

func (s *fakeTaskStore) CreateExecution(ctx context.Context, exec *tasks.TaskExecution) error {
	if s.executions == nil {
		s.executions = make(map[string]*tasks.TaskExecution)
	}
	s.executions[exec.ID] = exec
	return nil
}

type fakeExecutor struct {
	response string
	err      error
}

func (e *fakeExecutor) Execute(ctx context.Context, task *tasks.ScheduledTask, exec *tasks.TaskExecution) (string, error) {
	return e.response, e.err
}

func TestTaskStoreAdapterResolveWebhook(t *testing.T) {
	store := &fakeTaskStore{task: &tasks.ScheduledTask{ID: "task-1", Prompt: "do it"}}
	adapter := NewTaskStoreAdapter(store, &fakeExecutor{})

	task, err := adapter.ResolveWebhook(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("ResolveWebhook: %v", err)
	}
	if task == nil || task.ID != "task-1" || task.Prompt != "do it" {
		t.Errorf("task = %+v, want {task-1 do it}", task)
	}
}

func TestTaskStoreAdapterResolveWebhookMissing(t *testing.T) {
	store := &fakeTaskStore{}
	adapter := NewTaskStoreAdapter(store, &fakeExecutor{})

	task, err := adapter.ResolveWebhook(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ResolveWebhook: %v", err)
	}
	if task != nil {
		t.Errorf("expected nil task for unknown webhook id, got %+v", task)
	}
}

func TestTaskStoreAdapterSubmitCreatesExecution(t *testing.T) {
	store := &fakeTaskStore{}
	adapter := NewTaskStoreAdapter(store, &fakeExecutor{})

	id, err := adapter.Submit(context.Background(), &Task{ID: "task-1"}, "prompt text")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	exec, ok := store.executions[id]
	if !ok {
		t.Fatalf("expected execution %q to be stored", id)
	}
	if exec.Status != tasks.ExecutionStatusPending || exec.Prompt != "prompt text" {
		t.Errorf("exec = %+v, want pending with prompt text", exec)
	}
}

func TestTaskStoreAdapterSubmitSync(t *testing.T) {
	store := &fakeTaskStore{task: &tasks.ScheduledTask{ID: "task-1"}}
	adapter := NewTaskStoreAdapter(store, &fakeExecutor{response: "result"})

	response, err := adapter.SubmitSync(context.Background(), &Task{ID: "task-1"}, "prompt")
	if err != nil {
		t.Fatalf("SubmitSync: %v", err)
	}
	if response != "result" {
		t.Errorf("response = %q, want %q", response, "result")
	}
}

func TestTaskStoreAdapterSubmitSyncMissingTask(t *testing.T) {
	store := &fakeTaskStore{}
	adapter := NewTaskStoreAdapter(store, &fakeExecutor{})

	if _, err := adapter.SubmitSync(context.Background(), &Task{ID: "ghost"}, "prompt"); err == nil {
		t.Error("expected error for missing task")
	}
}
