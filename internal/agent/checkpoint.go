package agent

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/restflow/restflow/internal/storage/bytestore"
	"github.com/restflow/restflow/pkg/models"
)

// checkpointSchemaVersion is the current on-disk schema version. Version 0
// is reserved and never produced; restore rejects it and any version above
// the one this build understands.
const checkpointSchemaVersion uint32 = 1

const checkpointTable = "checkpoints"

// Checkpoint is a snapshot of a ConversationState at a tool-call boundary
// (checkpoint state, persisted between tool-call iterations).
type Checkpoint struct {
	Messages      []models.Message
	ToolCallIndex int
	MemoryRefs    []string
	Metadata      map[string]string
	SchemaVersion uint32
}

// NewCheckpoint builds a checkpoint at the current schema version.
func NewCheckpoint(messages []models.Message, toolCallIndex int) Checkpoint {
	return Checkpoint{
		Messages:      messages,
		ToolCallIndex: toolCallIndex,
		Metadata:      make(map[string]string),
		SchemaVersion: checkpointSchemaVersion,
	}
}

// checkpointFrame is the compact binary frame persisted to the byte store:
// [schema_version u32][tool_call_index u64][messages JSON][memory_refs JSON][metadata JSON],
// each JSON section length-prefixed with a u32.
type checkpointFrame struct {
	SchemaVersion uint32
	ToolCallIndex uint64
	Messages      []byte
	MemoryRefs    []byte
	Metadata      []byte
}

// Encode serializes the checkpoint to its compact binary form.
func (c Checkpoint) Encode() ([]byte, error) {
	messagesJSON, err := json.Marshal(c.Messages)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint messages: %w", err)
	}
	refsJSON, err := json.Marshal(c.MemoryRefs)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint memory refs: %w", err)
	}
	metaJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint metadata: %w", err)
	}

	buf := make([]byte, 0, 12+len(messagesJSON)+len(refsJSON)+len(metaJSON)+12)
	var u32 [4]byte
	var u64 [8]byte

	binary.BigEndian.PutUint32(u32[:], c.SchemaVersion)
	buf = append(buf, u32[:]...)

	binary.BigEndian.PutUint64(u64[:], uint64(c.ToolCallIndex))
	buf = append(buf, u64[:]...)

	buf = appendLengthPrefixed(buf, messagesJSON)
	buf = appendLengthPrefixed(buf, refsJSON)
	buf = appendLengthPrefixed(buf, metaJSON)

	return buf, nil
}

func appendLengthPrefixed(buf, data []byte) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	buf = append(buf, length[:]...)
	return append(buf, data...)
}

// DecodeCheckpoint restores a checkpoint from its binary form, rejecting an
// unsupported schema version. Schema version 0 is always invalid; it marks
// a zero-value Checkpoint that was never assigned a real version.
func DecodeCheckpoint(data []byte) (Checkpoint, error) {
	var c Checkpoint
	if len(data) < 12 {
		return c, fmt.Errorf("checkpoint: truncated frame")
	}

	c.SchemaVersion = binary.BigEndian.Uint32(data[0:4])
	c.ToolCallIndex = int(binary.BigEndian.Uint64(data[4:12]))

	if c.SchemaVersion == 0 || c.SchemaVersion > checkpointSchemaVersion {
		return Checkpoint{}, fmt.Errorf("%w: unsupported checkpoint schema version %d", ErrSchemaMismatch, c.SchemaVersion)
	}

	rest := data[12:]
	messagesJSON, rest, err := readLengthPrefixed(rest)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: %w", err)
	}
	refsJSON, rest, err := readLengthPrefixed(rest)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: %w", err)
	}
	metaJSON, _, err := readLengthPrefixed(rest)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: %w", err)
	}

	if err := json.Unmarshal(messagesJSON, &c.Messages); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: decode messages: %w", err)
	}
	if len(refsJSON) > 0 {
		if err := json.Unmarshal(refsJSON, &c.MemoryRefs); err != nil {
			return Checkpoint{}, fmt.Errorf("checkpoint: decode memory refs: %w", err)
		}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &c.Metadata); err != nil {
			return Checkpoint{}, fmt.Errorf("checkpoint: decode metadata: %w", err)
		}
	}

	return c, nil
}

func readLengthPrefixed(data []byte) (payload, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("truncated length prefix")
	}
	length := binary.BigEndian.Uint32(data[0:4])
	data = data[4:]
	if uint32(len(data)) < length {
		return nil, nil, fmt.Errorf("truncated payload")
	}
	return data[:length], data[length:], nil
}

// CheckpointStore persists and retrieves checkpoints keyed by
// (execution_id, tool_call_index) on top of the keyed byte store (C1).
type CheckpointStore struct {
	store bytestore.Store
}

// NewCheckpointStore wraps a byte store as a checkpoint store.
func NewCheckpointStore(store bytestore.Store) *CheckpointStore {
	return &CheckpointStore{store: store}
}

func checkpointKey(executionID string, toolCallIndex int) string {
	return fmt.Sprintf("%s/%010d", executionID, toolCallIndex)
}

// Save persists a checkpoint at a tool-call boundary.
func (s *CheckpointStore) Save(ctx context.Context, executionID string, checkpoint Checkpoint) error {
	encoded, err := checkpoint.Encode()
	if err != nil {
		return err
	}
	return s.store.Put(ctx, checkpointTable, checkpointKey(executionID, checkpoint.ToolCallIndex), encoded)
}

// Latest returns the checkpoint with the highest tool_call_index for an
// execution, or ok=false if none exists.
func (s *CheckpointStore) Latest(ctx context.Context, executionID string) (Checkpoint, bool, error) {
	entries, err := s.store.Scan(ctx, checkpointTable, executionID+"/", executionID+"0")
	if err != nil {
		return Checkpoint{}, false, err
	}
	if len(entries) == 0 {
		return Checkpoint{}, false, nil
	}
	latest := entries[len(entries)-1]
	checkpoint, err := DecodeCheckpoint(latest.Value)
	if err != nil {
		return Checkpoint{}, false, err
	}
	return checkpoint, true, nil
}
