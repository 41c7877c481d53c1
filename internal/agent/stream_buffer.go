package agent

import (
	"context"
	"sync"
	"time"
)

// CoalesceMode controls how a StreamBuffer combines buffered chunks before
// it hands them to the flush callback.
type CoalesceMode string

const (
	// CoalesceAccumulate concatenates buffered text (the common case for
	// model token deltas, where each chunk extends the assistant message).
	CoalesceAccumulate CoalesceMode = "accumulate"

	// CoalesceReplace discards all but the most recently buffered chunk
	// (useful for progress-style updates where only the latest matters).
	CoalesceReplace CoalesceMode = "replace"
)

// StreamBufferConfig tunes when a StreamBuffer flushes.
type StreamBufferConfig struct {
	Mode CoalesceMode

	// MaxChunks flushes once this many chunks have been buffered, even if
	// MaxDelay hasn't elapsed. Zero disables the count threshold.
	MaxChunks int

	// MaxDelay flushes a non-empty buffer this long after its first
	// unflushed chunk arrived, even if MaxChunks hasn't been reached.
	MaxDelay time.Duration

	// Capacity bounds the outbound channel. A full channel causes Push to
	// drop the oldest pending flush rather than block the producer.
	Capacity int
}

// DefaultStreamBufferConfig matches the coalescing behavior the runtime's
// model-delta emission uses when nothing more specific is configured.
func DefaultStreamBufferConfig() StreamBufferConfig {
	return StreamBufferConfig{
		Mode:      CoalesceAccumulate,
		MaxChunks: 20,
		MaxDelay:  300 * time.Millisecond,
		Capacity:  128,
	}
}

// StreamBuffer coalesces a rapid sequence of text chunks into batched
// flushes, trading latency for fewer, larger events downstream. It is safe
// for concurrent Push calls but assumes a single reader drains Out.
type StreamBuffer struct {
	cfg StreamBufferConfig
	out chan string

	mu         sync.Mutex
	pending    string
	chunkCount int
	timer      *time.Timer
	closed     bool
}

// NewStreamBuffer starts a buffer with the given configuration. Callers must
// call Close when done producing to release the flush timer and close Out.
func NewStreamBuffer(cfg StreamBufferConfig) *StreamBuffer {
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultStreamBufferConfig().MaxChunks
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultStreamBufferConfig().MaxDelay
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultStreamBufferConfig().Capacity
	}
	if cfg.Mode == "" {
		cfg.Mode = CoalesceAccumulate
	}
	return &StreamBuffer{
		cfg: cfg,
		out: make(chan string, cfg.Capacity),
	}
}

// Out is the channel flushed batches are delivered on.
func (b *StreamBuffer) Out() <-chan string { return b.out }

// Push buffers a chunk, flushing immediately if the count threshold is
// reached and otherwise (re)arming the delay timer.
func (b *StreamBuffer) Push(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || chunk == "" {
		return
	}

	switch b.cfg.Mode {
	case CoalesceReplace:
		b.pending = chunk
	default:
		b.pending += chunk
	}
	b.chunkCount++
	if b.chunkCount >= b.cfg.MaxChunks {
		b.flushLocked()
		return
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.cfg.MaxDelay, b.flushOnTimer)
	}
}

func (b *StreamBuffer) flushOnTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

// flushLocked sends the pending batch on Out without blocking forever: a
// full outbound channel means the receiver is gone or stalled, so the
// buffer drops the batch and carries on rather than deadlocking the
// producer.
func (b *StreamBuffer) flushLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.chunkCount = 0
	if b.pending == "" {
		return
	}
	batch := b.pending
	b.pending = ""
	select {
	case b.out <- batch:
	default:
	}
}

// Close flushes any remaining buffered text and closes Out. Subsequent
// Push calls are no-ops.
func (b *StreamBuffer) Close(ctx context.Context) {
	b.mu.Lock()
	b.flushLocked()
	b.closed = true
	b.mu.Unlock()
	close(b.out)
}
