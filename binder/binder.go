// Package binder maps registration requests onto store bindings and
// user-facing outcomes.
package binder

import (
	"errors"

	"testing-vm-bot/store"
)

var (
	// ErrAlreadyRegistered means the chat already has a bound VM,
	// whatever its id. Re-registering the same pair lands here too; the
	// bot reports it as steady state, not as a failure.
	ErrAlreadyRegistered = errors.New("binder: chat already has a registered VM")

	// ErrInvalidAgent means the VM id is unknown or the VM belongs to a
	// different chat. The two are deliberately indistinguishable to the
	// caller so a chat cannot probe which ids exist.
	ErrInvalidAgent = errors.New("binder: unknown or already claimed VM id")

	// ErrNotRegistered means the chat had nothing to deregister.
	ErrNotRegistered = errors.New("binder: chat has no registered VM")
)

// Binder enforces the one-chat-per-VM, one-VM-per-chat rule at the
// request boundary.
type Binder struct {
	Store store.RecordStore
}

// Register links chat to the VM with the given id.
func (b *Binder) Register(chat int64, agentID string) error {
	if _, err := b.Store.FindByChat(chat); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	switch err := b.Store.Bind(agentID, chat); {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrAlreadyBound):
		return ErrInvalidAgent
	default:
		return err
	}
}

// Deregister clears the chat's binding. The record keeps its counters, so
// registering again later resumes with history intact. Calling it twice
// is safe; the second call reports ErrNotRegistered and changes nothing.
func (b *Binder) Deregister(chat int64) error {
	switch err := b.Store.Unbind(chat); {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotRegistered
	default:
		return err
	}
}
