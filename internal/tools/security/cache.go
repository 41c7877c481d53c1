package security

import (
	"sync"
	"time"
)

// ApprovalScope controls how long a cached approval grant remains valid.
type ApprovalScope string

const (
	// ScopeThisCall is consumed the first time it is checked.
	ScopeThisCall ApprovalScope = "this_call"
	// ScopeSession survives until the owning execution ends.
	ScopeSession ApprovalScope = "session"
	// ScopePersistent survives across sessions and process restarts.
	ScopePersistent ApprovalScope = "persistent"
)

// ApprovalGrant is a cached approval decision for a tool action.
type ApprovalGrant struct {
	GrantedAt   time.Time
	Scope       ApprovalScope
	Description string
}

// Expired reports whether the grant is older than maxAge.
func (g ApprovalGrant) Expired(maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return time.Since(g.GrantedAt) > maxAge
}

// GrantKey identifies the tool action an approval grant covers. Two actions
// with the same tool, operation and target share a cached decision; Target
// is optional (empty string matches actions with no meaningful target).
type GrantKey struct {
	ToolName  string
	Operation string
	Target    string
}

// ApprovalCache stores approval grants keyed by (tool, operation, target).
// Process-wide, cleared on session end for non-persistent grants.
type ApprovalCache struct {
	mu     sync.RWMutex
	grants map[GrantKey]ApprovalGrant
}

// NewApprovalCache returns an empty cache.
func NewApprovalCache() *ApprovalCache {
	return &ApprovalCache{grants: make(map[GrantKey]ApprovalGrant)}
}

// Get returns the cached grant for key, if any and not expired under maxAge.
func (c *ApprovalCache) Get(key GrantKey, maxAge time.Duration) (ApprovalGrant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	grant, ok := c.grants[key]
	if !ok || grant.Expired(maxAge) {
		return ApprovalGrant{}, false
	}
	return grant, true
}

// Insert stores a grant, overwriting any existing entry for key.
func (c *ApprovalCache) Insert(key GrantKey, grant ApprovalGrant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grants[key] = grant
}

// Consume removes a ThisCall-scoped grant after it has been used once.
// Session and Persistent grants are left in place.
func (c *ApprovalCache) Consume(key GrantKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if grant, ok := c.grants[key]; ok && grant.Scope == ScopeThisCall {
		delete(c.grants, key)
	}
}

// ClearSession drops every grant except Persistent-scoped ones. Called when
// an execution ends.
func (c *ApprovalCache) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, grant := range c.grants {
		if grant.Scope != ScopePersistent {
			delete(c.grants, key)
		}
	}
}

// Prune removes grants older than maxAge regardless of scope.
func (c *ApprovalCache) Prune(maxAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, grant := range c.grants {
		if grant.Expired(maxAge) {
			delete(c.grants, key)
		}
	}
}

// Len returns the number of cached grants.
func (c *ApprovalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.grants)
}
