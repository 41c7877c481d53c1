package security

import (
	"sync"
	"time"
)

// DeferredStatus is the lifecycle state of a DeferredCall.
type DeferredStatus string

const (
	DeferredPending  DeferredStatus = "pending"
	DeferredApproved DeferredStatus = "approved"
	DeferredDenied   DeferredStatus = "denied"
	DeferredTimedOut DeferredStatus = "timed_out"
)

// DeferredCall is a tool invocation held pending an approval decision.
type DeferredCall struct {
	CallID     string
	ToolName   string
	Args       []byte
	ApprovalID string
	Status     DeferredStatus
	Reason     string
	CreatedAt  time.Time
}

// DeferredManager holds tool calls awaiting approval, resolvable either by
// call id (direct) or approval id (via the Trigger & Approval Router). All
// mutation happens under a single lock; Drain is not re-entrant.
type DeferredManager struct {
	mu           sync.Mutex
	byCall       map[string]*DeferredCall
	approvalToID map[string]string
	timeout      time.Duration
	now          func() time.Time
}

// NewDeferredManager returns a manager whose Pending entries expire to
// TimedOut after timeout has elapsed, as observed by Drain.
func NewDeferredManager(timeout time.Duration) *DeferredManager {
	return &DeferredManager{
		byCall:       make(map[string]*DeferredCall),
		approvalToID: make(map[string]string),
		timeout:      timeout,
		now:          time.Now,
	}
}

// Defer registers a new Pending DeferredCall.
func (m *DeferredManager) Defer(callID, toolName string, args []byte, approvalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCall[callID] = &DeferredCall{
		CallID:     callID,
		ToolName:   toolName,
		Args:       args,
		ApprovalID: approvalID,
		Status:     DeferredPending,
		CreatedAt:  m.now(),
	}
	if approvalID != "" {
		m.approvalToID[approvalID] = callID
	}
}

// Resolve transitions a Pending call to Approved or Denied. Resolving an
// already-resolved or unknown call is a no-op returning false.
func (m *DeferredManager) Resolve(callID string, approved bool, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(callID, approved, reason)
}

// ResolveByApprovalID resolves indirectly through the approval id recorded
// at Defer time.
func (m *DeferredManager) ResolveByApprovalID(approvalID string, approved bool, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	callID, ok := m.approvalToID[approvalID]
	if !ok {
		return false
	}
	return m.resolveLocked(callID, approved, reason)
}

func (m *DeferredManager) resolveLocked(callID string, approved bool, reason string) bool {
	call, ok := m.byCall[callID]
	if !ok || call.Status != DeferredPending {
		return false
	}
	if approved {
		call.Status = DeferredApproved
	} else {
		call.Status = DeferredDenied
		call.Reason = reason
	}
	return true
}

// Get returns the current state of a deferred call, if present.
func (m *DeferredManager) Get(callID string) (DeferredCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call, ok := m.byCall[callID]
	if !ok {
		return DeferredCall{}, false
	}
	return *call, true
}

// Drain scans all entries: Pending entries older than the configured
// timeout are forced to TimedOut; every non-Pending entry is removed from
// the manager and returned to the caller for observation.
func (m *DeferredManager) Drain() []DeferredCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var resolved []DeferredCall
	for callID, call := range m.byCall {
		if call.Status == DeferredPending {
			if m.timeout > 0 && now.Sub(call.CreatedAt) > m.timeout {
				call.Status = DeferredTimedOut
			} else {
				continue
			}
		}
		resolved = append(resolved, *call)
		delete(m.byCall, callID)
		if call.ApprovalID != "" {
			delete(m.approvalToID, call.ApprovalID)
		}
	}
	return resolved
}

// Pending returns the number of calls still awaiting resolution.
func (m *DeferredManager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, call := range m.byCall {
		if call.Status == DeferredPending {
			n++
		}
	}
	return n
}
