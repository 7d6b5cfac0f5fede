// Package store owns every counter and binding mutation on agent records.
// It is the sole arbiter of the ledger ordering: advances that would let
// notified outrun raw uptime, or claimed outrun notified, are rejected at
// this layer rather than trusted to callers.
package store

import (
	"errors"

	"testing-vm-bot/model"
)

var (
	// ErrNotFound means no record matched the given agent id or chat.
	ErrNotFound = errors.New("store: agent record not found")

	// ErrAlreadyBound means the chat already has a VM, or the VM already
	// has a different chat. Bindings are strictly one-to-one.
	ErrAlreadyBound = errors.New("store: binding already exists")

	// ErrAdvanceRejected means a counter advance found no row it could
	// legally apply to: either the chat has no bound record, or the
	// advance would push a counter past the one above it in the ledger.
	ErrAdvanceRejected = errors.New("store: counter advance rejected")
)

// RecordStore is the shared durable table of per-VM counters and chat
// bindings. All mutations are atomic with respect to concurrent readers
// of the same record; a reader never observes a counter mid-update.
type RecordStore interface {
	// GetOrCreate returns the record for agentID, creating it unbound
	// with zeroed counters on first sight.
	GetOrCreate(agentID string) (*model.AgentRecord, error)

	// AdvanceRawBatch adds deltaSecs of raw uptime to every listed VM,
	// creating records for ids seen for the first time. The whole batch
	// is applied in one transaction: all ids advance or none do.
	AdvanceRawBatch(agentIDs []string, deltaSecs int64) error

	// Bind links chat to the VM with the given id. Fails with
	// ErrAlreadyBound (no mutation) when either side is taken, and
	// ErrNotFound when no such VM record exists.
	Bind(agentID string, chat int64) error

	// Unbind clears the chat's binding. The record and its counters
	// stay. ErrNotFound when the chat has no bound VM.
	Unbind(chat int64) error

	// FindByChat returns the record bound to chat, or ErrNotFound.
	FindByChat(chat int64) (*model.AgentRecord, error)

	// ListNotifiable returns every bound record whose raw uptime has
	// out-paced its notified counter by at least thresholdSecs.
	ListNotifiable(thresholdSecs int64) ([]model.AgentRecord, error)

	// AdvanceNotified adds deltaSecs to the notified counter of the
	// record bound to chat. Rejected unless notified+delta <= raw.
	AdvanceNotified(chat int64, deltaSecs int64) error

	// AdvanceClaimed adds deltaSecs to the claimed counter of the
	// record bound to chat. Rejected unless claimed+delta <= notified.
	AdvanceClaimed(chat int64, deltaSecs int64) error
}
