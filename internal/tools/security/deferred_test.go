package security

import (
	"testing"
	"time"
)

func TestDeferredResolveByCallID(t *testing.T) {
	m := NewDeferredManager(time.Minute)
	m.Defer("call-1", "bash", []byte(`{"cmd":"ls"}`), "approval-1")

	if !m.Resolve("call-1", true, "") {
		t.Fatalf("expected resolve to succeed")
	}
	call, ok := m.Get("call-1")
	if !ok || call.Status != DeferredApproved {
		t.Fatalf("expected Approved status, got %+v", call)
	}
}

func TestDeferredResolveByApprovalID(t *testing.T) {
	m := NewDeferredManager(time.Minute)
	m.Defer("call-1", "bash", nil, "approval-xyz")

	if !m.ResolveByApprovalID("approval-xyz", false, "no") {
		t.Fatalf("expected resolve-by-approval-id to succeed")
	}
	call, _ := m.Get("call-1")
	if call.Status != DeferredDenied || call.Reason != "no" {
		t.Fatalf("expected Denied with reason, got %+v", call)
	}
}

// TestDeferredResolveIsIdempotent verifies resolving an
// already-resolved call is a no-op returning false.
func TestDeferredResolveIsIdempotent(t *testing.T) {
	m := NewDeferredManager(time.Minute)
	m.Defer("call-1", "bash", nil, "")
	m.Resolve("call-1", true, "")

	if m.Resolve("call-1", false, "too late") {
		t.Fatalf("expected second resolve to be a no-op")
	}
	call, _ := m.Get("call-1")
	if call.Status != DeferredApproved {
		t.Fatalf("status must not change on idempotent resolve, got %v", call.Status)
	}
}

func TestDeferredDrainTimesOutStaleEntries(t *testing.T) {
	m := NewDeferredManager(10 * time.Millisecond)
	m.Defer("call-1", "bash", nil, "")
	time.Sleep(20 * time.Millisecond)

	resolved := m.Drain()
	if len(resolved) != 1 || resolved[0].Status != DeferredTimedOut {
		t.Fatalf("expected one TimedOut entry, got %+v", resolved)
	}
	if _, ok := m.Get("call-1"); ok {
		t.Fatalf("expected drained entry to be removed")
	}
}

func TestDeferredDrainLeavesPendingUntouched(t *testing.T) {
	m := NewDeferredManager(time.Hour)
	m.Defer("call-1", "bash", nil, "")

	resolved := m.Drain()
	if len(resolved) != 0 {
		t.Fatalf("expected no drained entries while pending and fresh, got %d", len(resolved))
	}
	if n := m.Pending(); n != 1 {
		t.Fatalf("expected 1 pending entry, got %d", n)
	}
}

func TestDeferredDrainReturnsResolvedEntries(t *testing.T) {
	m := NewDeferredManager(time.Hour)
	m.Defer("call-1", "bash", nil, "")
	m.Resolve("call-1", true, "")

	resolved := m.Drain()
	if len(resolved) != 1 || resolved[0].Status != DeferredApproved {
		t.Fatalf("expected one Approved entry returned by drain, got %+v", resolved)
	}
}
