package bytestore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "checkpoints", "exec-1/0", []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "checkpoints", "exec-1/0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestMemoryStoreGetMissingReturnsNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "checkpoints", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreInsertIfAbsentRejectsSecondWrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.InsertIfAbsent(ctx, "tasks", "task-1", []byte("v1")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.InsertIfAbsent(ctx, "tasks", "task-1", []byte("v2"))
	if !errors.Is(err, ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}

	got, _ := s.Get(ctx, "tasks", "task-1")
	if string(got) != "v1" {
		t.Fatalf("expected winner's value v1 to stick, got %q", got)
	}
}

// TestMemoryStoreInsertIfAbsentConcurrentRace verifies two concurrent
// InsertIfAbsent calls on the same key yield exactly one success, and the
// stored value equals the winner's.
func TestMemoryStoreInsertIfAbsentConcurrentRace(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const attempts = 50
	var wg sync.WaitGroup
	successes := make([]bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.InsertIfAbsent(ctx, "race", "key", []byte{byte(i)})
			successes[i] = err == nil
		}(i)
	}
	wg.Wait()

	successCount := 0
	var winner int
	for i, ok := range successes {
		if ok {
			successCount++
			winner = i
		}
	}
	if successCount != 1 {
		t.Fatalf("expected exactly 1 success, got %d", successCount)
	}

	got, err := s.Get(ctx, "race", "key")
	if err != nil {
		t.Fatalf("get after race: %v", err)
	}
	if len(got) != 1 || got[0] != byte(winner) {
		t.Fatalf("stored value does not match the winner's payload")
	}
}

func TestMemoryStoreScanOrdersByKeyAndRespectsBounds(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, key := range []string{"c", "a", "b", "d"} {
		_ = s.Put(ctx, "events", key, []byte(key))
	}

	entries, err := s.Scan(ctx, "events", "b", "d")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "b" || entries[1].Key != "c" {
		t.Fatalf("expected [b c], got %+v", entries)
	}
}

func TestMemoryStoreDeleteAbsentKeyIsNotError(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Delete(context.Background(), "checkpoints", "missing"); err != nil {
		t.Fatalf("expected deleting an absent key to succeed, got %v", err)
	}
}
