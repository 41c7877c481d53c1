// Package triggers implements the inbound surface that feeds work into the
// task runner and resolves deferred tool approvals: webhooks, schedule
// ticks, channel messages, and direct approval callbacks.
//
// The router guarantees at-least-once delivery to the execution engine;
// exactly-once semantics come from the deferred manager's idempotent
// resolve and from the task store's execution-id based dedup, not from
// anything the router does itself.
package triggers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/restflow/restflow/internal/storage/bytestore"
	"github.com/restflow/restflow/internal/tools/security"
	"github.com/restflow/restflow/pkg/models"
)

// channelBindingsTable is the bytestore table conversation bindings persist
// under, keyed by the same channel+conversation key used in memory.
const channelBindingsTable = "channel_bindings"

// WebhookResolver maps an inbound webhook id to the task it should trigger.
type WebhookResolver interface {
	ResolveWebhook(ctx context.Context, webhookID string) (*Task, error)
}

// Task is the minimal shape the router needs from a triggerable unit of
// work; internal/tasks.ScheduledTask satisfies it.
type Task struct {
	ID     string
	Prompt string
}

// Submitter hands a prompt off to the execution engine, either
// asynchronously (returning an execution id immediately) or synchronously
// (blocking for the produced value).
type Submitter interface {
	Submit(ctx context.Context, task *Task, prompt string) (executionID string, err error)
	SubmitSync(ctx context.Context, task *Task, prompt string) (response string, err error)
}

// WebhookRequest is the inbound shape of a webhook delivery.
type WebhookRequest struct {
	WebhookID string
	Method    string
	Headers   map[string][]string
	Body      []byte
}

// WebhookResult is what HandleWebhook returns: either an execution id (the
// async path) or a synchronous response, never both.
type WebhookResult struct {
	ExecutionID string
	Response    string
	Sync        bool
}

// conversationBinding ties a channel conversation to either a pending
// approval or a running execution awaiting further user input. Fields are
// exported so the binding round-trips through JSON for persistence.
type conversationBinding struct {
	ApprovalID  string `json:"approval_id,omitempty"`
	ExecutionID string `json:"execution_id,omitempty"`
}

// Router implements the trigger and approval inbound surface described
// above. It is safe for concurrent use.
type Router struct {
	resolver  WebhookResolver
	submitter Submitter
	deferred  *security.DeferredManager

	mu       sync.RWMutex
	bindings map[string]conversationBinding
	store    bytestore.Store
}

// NewRouter builds a Router. deferred must be the same DeferredManager the
// security gate parks RequireApproval calls on, so approval callbacks and
// approve/reject channel messages actually resolve live calls.
func NewRouter(resolver WebhookResolver, submitter Submitter, deferred *security.DeferredManager) *Router {
	return &Router{
		resolver:  resolver,
		submitter: submitter,
		deferred:  deferred,
		bindings:  make(map[string]conversationBinding),
	}
}

func conversationKey(channel models.ChannelType, conversationID string) string {
	return string(channel) + "/" + conversationID
}

// SetStore backs the router's conversation bindings with a persistent
// channel_bindings table, so approvals and bound executions survive a
// process restart instead of silently going unresolvable. Call
// LoadBindings afterward to hydrate any bindings written by a previous
// process.
func (r *Router) SetStore(store bytestore.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = store
}

// LoadBindings replaces the in-memory binding set with whatever is
// currently persisted in the store, if one is configured. Call once at
// startup before the router starts handling channel messages.
func (r *Router) LoadBindings(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		return nil
	}
	entries, err := r.store.Scan(ctx, channelBindingsTable, "", "")
	if err != nil {
		return fmt.Errorf("triggers: scan channel bindings: %w", err)
	}
	bindings := make(map[string]conversationBinding, len(entries))
	for _, entry := range entries {
		var binding conversationBinding
		if err := json.Unmarshal(entry.Value, &binding); err != nil {
			return fmt.Errorf("triggers: unmarshal binding %q: %w", entry.Key, err)
		}
		bindings[entry.Key] = binding
	}
	r.bindings = bindings
	return nil
}

// persistLocked writes binding for key to the store, if one is configured.
// Failures are logged-by-omission: an unpersisted binding only risks losing
// the approval/forwarding hook across a restart, not the underlying
// approval or execution itself.
func (r *Router) persistLocked(key string, binding conversationBinding) {
	if r.store == nil {
		return
	}
	data, err := json.Marshal(binding)
	if err != nil {
		return
	}
	_ = r.store.Put(context.Background(), channelBindingsTable, key, data)
}

func (r *Router) deleteLocked(key string) {
	if r.store == nil {
		return
	}
	_ = r.store.Delete(context.Background(), channelBindingsTable, key)
}

// BindApproval records that a channel conversation is waiting on a deferred
// approval, so a subsequent approve/reject message routes to it.
func (r *Router) BindApproval(channel models.ChannelType, conversationID, approvalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := conversationKey(channel, conversationID)
	binding := conversationBinding{ApprovalID: approvalID}
	r.bindings[key] = binding
	r.persistLocked(key, binding)
}

// BindExecution records that a channel conversation's next message should be
// forwarded as user input to a running execution rather than treated as a
// fresh prompt.
func (r *Router) BindExecution(channel models.ChannelType, conversationID, executionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := conversationKey(channel, conversationID)
	binding := conversationBinding{ExecutionID: executionID}
	r.bindings[key] = binding
	r.persistLocked(key, binding)
}

// Unbind clears any binding for a conversation, e.g. once its bound
// execution finishes.
func (r *Router) Unbind(channel models.ChannelType, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := conversationKey(channel, conversationID)
	delete(r.bindings, key)
	r.deleteLocked(key)
}

// HandleWebhook resolves req to a task and submits it. When sync is true it
// blocks for the produced value; otherwise it returns immediately with an
// execution id the caller can poll.
func (r *Router) HandleWebhook(ctx context.Context, req WebhookRequest, sync bool) (WebhookResult, error) {
	task, err := r.resolver.ResolveWebhook(ctx, req.WebhookID)
	if err != nil {
		return WebhookResult{}, fmt.Errorf("triggers: resolve webhook %q: %w", req.WebhookID, err)
	}
	if task == nil {
		return WebhookResult{}, fmt.Errorf("triggers: webhook %q has no bound task", req.WebhookID)
	}

	prompt := webhookPrompt(task.Prompt, req)

	if sync {
		response, err := r.submitter.SubmitSync(ctx, task, prompt)
		if err != nil {
			return WebhookResult{}, fmt.Errorf("triggers: synchronous webhook execution: %w", err)
		}
		return WebhookResult{Response: response, Sync: true}, nil
	}

	executionID, err := r.submitter.Submit(ctx, task, prompt)
	if err != nil {
		return WebhookResult{}, fmt.Errorf("triggers: submit webhook execution: %w", err)
	}
	return WebhookResult{ExecutionID: executionID}, nil
}

func webhookPrompt(basePrompt string, req WebhookRequest) string {
	if len(req.Body) == 0 {
		return basePrompt
	}
	return fmt.Sprintf("%s\n\n%s %s payload:\n%s", basePrompt, req.Method, req.WebhookID, string(req.Body))
}

// HandleScheduleTick submits a schedule-triggered execution, the scheduled
// wall-time as its payload. This is the ad hoc counterpart to the task
// scheduler's own due-task polling, for schedule sources the scheduler
// doesn't itself own (e.g. an external cron hitting the router directly).
func (r *Router) HandleScheduleTick(ctx context.Context, task *Task, tick time.Time) (string, error) {
	prompt := fmt.Sprintf("%s\n\nScheduled for %s.", task.Prompt, tick.Format(time.RFC3339))
	executionID, err := r.submitter.Submit(ctx, task, prompt)
	if err != nil {
		return "", fmt.Errorf("triggers: submit schedule tick: %w", err)
	}
	return executionID, nil
}

// ChannelOutcome describes what the router did with an inbound channel
// message.
type ChannelOutcome string

const (
	ChannelOutcomeApprovalResolved ChannelOutcome = "approval_resolved"
	ChannelOutcomeForwardedInput   ChannelOutcome = "forwarded_input"
	ChannelOutcomeUnhandled        ChannelOutcome = "unhandled"
)

// HandleChannelMessage implements the channel-message inbound surface: an
// approve/reject keyword resolves a bound deferred approval; otherwise,
// if the conversation is bound to a running execution, the content is
// forwarded to it; otherwise the message is unhandled and the caller should
// route it to its normal chat handler.
func (r *Router) HandleChannelMessage(ctx context.Context, msg *models.Message) (ChannelOutcome, error) {
	key := conversationKey(msg.Channel, msg.SessionID)

	r.mu.RLock()
	binding, ok := r.bindings[key]
	r.mu.RUnlock()
	if !ok {
		return ChannelOutcomeUnhandled, nil
	}

	if binding.ApprovalID != "" {
		if decision, matched := matchApprovalKeyword(msg.Content); matched {
			if !r.deferred.ResolveByApprovalID(binding.ApprovalID, decision, msg.Content) {
				return ChannelOutcomeUnhandled, fmt.Errorf("triggers: approval %q already resolved or unknown", binding.ApprovalID)
			}
			r.Unbind(msg.Channel, msg.SessionID)
			return ChannelOutcomeApprovalResolved, nil
		}
		return ChannelOutcomeUnhandled, nil
	}

	if binding.ExecutionID != "" {
		if _, err := r.submitter.Submit(ctx, &Task{ID: binding.ExecutionID}, msg.Content); err != nil {
			return ChannelOutcomeUnhandled, fmt.Errorf("triggers: forward channel input: %w", err)
		}
		return ChannelOutcomeForwardedInput, nil
	}

	return ChannelOutcomeUnhandled, nil
}

// HandleApprovalCallback resolves a deferred call by approval id directly,
// bypassing the channel-message keyword matching above. Returns false if the
// approval id is unknown or already resolved.
func (r *Router) HandleApprovalCallback(approvalID string, approved bool, reason string) bool {
	return r.deferred.ResolveByApprovalID(approvalID, approved, reason)
}

// matchApprovalKeyword checks content against the approve/reject vocabulary
// case-insensitively, trimming surrounding whitespace and punctuation so
// "approve!" and "  Yes " both match.
func matchApprovalKeyword(content string) (approved bool, matched bool) {
	normalized := strings.ToLower(strings.TrimSpace(content))
	normalized = strings.Trim(normalized, "!.")

	switch normalized {
	case "approve", "approved", "yes", "y", "✅":
		return true, true
	case "reject", "rejected", "no", "n", "❌":
		return false, true
	default:
		return false, false
	}
}
