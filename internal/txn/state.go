// Package txn tracks the lifecycle of one write at a time and runs the
// simulate/sign/broadcast/confirm protocol for every mutating contract call.
package txn

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the phase of the current transaction.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusConfirming
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusConfirming:
		return "confirming"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Busy reports whether a transaction is in flight.
func (s Status) Busy() bool { return s == StatusPending || s == StatusConfirming }

// Terminal reports whether the status ends a transaction.
func (s Status) Terminal() bool { return s == StatusSuccess || s == StatusError }

// State is the tagged union Idle | Pending | Confirming(hash) | Success(hash) | Error(err).
// Hash is set from Confirming on; Err only in StatusError.
type State struct {
	Status Status
	Hash   common.Hash
	Err    error
}

func (s State) String() string {
	switch s.Status {
	case StatusConfirming, StatusSuccess:
		return s.Status.String() + " " + s.Hash.Hex()
	case StatusError:
		return "error: " + s.Err.Error()
	}
	return s.Status.String()
}

// EventKind identifies a state machine input.
type EventKind int

const (
	EventBegin EventKind = iota
	EventSubmitted
	EventConfirmed
	EventFailed
	EventReset
)

func (k EventKind) String() string {
	return [...]string{"begin", "submitted", "confirmed", "failed", "reset"}[k]
}

// Event is an input to Transition.
type Event struct {
	Kind EventKind
	Hash common.Hash
	Err  error
}

func Begin() Event                    { return Event{Kind: EventBegin} }
func Submitted(hash common.Hash) Event { return Event{Kind: EventSubmitted, Hash: hash} }
func Confirmed() Event                { return Event{Kind: EventConfirmed} }
func Failed(err error) Event          { return Event{Kind: EventFailed, Err: err} }
func Reset() Event                    { return Event{Kind: EventReset} }

// ErrInvalidTransition is returned for an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transaction state transition")

// Transition is the only place the transaction state changes.
//
//	idle|success|error --begin-->      pending
//	pending            --submitted-->  confirming(hash)
//	confirming         --confirmed-->  success(hash)
//	pending|confirming --failed-->     error(err)
//	idle|success|error --reset-->      idle
func Transition(s State, e Event) (State, error) {
	switch e.Kind {
	case EventBegin:
		if !s.Status.Busy() {
			return State{Status: StatusPending}, nil
		}
	case EventSubmitted:
		if s.Status == StatusPending {
			return State{Status: StatusConfirming, Hash: e.Hash}, nil
		}
	case EventConfirmed:
		if s.Status == StatusConfirming {
			return State{Status: StatusSuccess, Hash: s.Hash}, nil
		}
	case EventFailed:
		if s.Status.Busy() {
			err := e.Err
			if err == nil {
				err = errors.New("transaction failed")
			}
			return State{Status: StatusError, Hash: s.Hash, Err: err}, nil
		}
	case EventReset:
		if !s.Status.Busy() {
			return State{Status: StatusIdle}, nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e.Kind, s.Status)
}
