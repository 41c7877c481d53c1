package security

import (
	"testing"
	"time"
)

func TestApprovalCacheSessionClearKeepsPersistent(t *testing.T) {
	cache := NewApprovalCache()
	sessionKey := GrantKey{ToolName: "bash", Operation: "execute"}
	persistentKey := GrantKey{ToolName: "file", Operation: "write"}

	cache.Insert(sessionKey, ApprovalGrant{GrantedAt: time.Now(), Scope: ScopeSession})
	cache.Insert(persistentKey, ApprovalGrant{GrantedAt: time.Now(), Scope: ScopePersistent})

	cache.ClearSession()

	if _, ok := cache.Get(sessionKey, 0); ok {
		t.Fatalf("session-scoped grant should not survive ClearSession")
	}
	if _, ok := cache.Get(persistentKey, 0); !ok {
		t.Fatalf("persistent grant must survive ClearSession")
	}
}

func TestApprovalCacheExpiry(t *testing.T) {
	cache := NewApprovalCache()
	key := GrantKey{ToolName: "bash", Operation: "execute"}
	cache.Insert(key, ApprovalGrant{GrantedAt: time.Now().Add(-time.Hour), Scope: ScopeSession})

	if _, ok := cache.Get(key, time.Minute); ok {
		t.Fatalf("expected expired grant to be treated as absent")
	}
	if _, ok := cache.Get(key, 2*time.Hour); !ok {
		t.Fatalf("expected grant to be valid under a longer max age")
	}
}

func TestApprovalCachePrune(t *testing.T) {
	cache := NewApprovalCache()
	stale := GrantKey{ToolName: "bash", Operation: "execute"}
	fresh := GrantKey{ToolName: "file", Operation: "read"}
	cache.Insert(stale, ApprovalGrant{GrantedAt: time.Now().Add(-time.Hour), Scope: ScopeSession})
	cache.Insert(fresh, ApprovalGrant{GrantedAt: time.Now(), Scope: ScopeSession})

	cache.Prune(time.Minute)

	if cache.Len() != 1 {
		t.Fatalf("expected 1 grant to survive prune, got %d", cache.Len())
	}
	if _, ok := cache.Get(fresh, 0); !ok {
		t.Fatalf("expected fresh grant to survive prune")
	}
}
