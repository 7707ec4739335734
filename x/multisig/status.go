package multisig

import (
	"github.com/iov-one/msig/errors"
)

// Status is the lifecycle state of a transaction.
type Status uint8

const (
	// StatusDraft is the initial state. Instructions can be attached only
	// while the transaction is a draft.
	StatusDraft Status = iota
	// StatusActive transactions accept approve and reject votes.
	StatusActive
	// StatusExecuteReady transactions reached the approval threshold and
	// wait for their instructions to be executed. Members can vote to
	// cancel them.
	StatusExecuteReady
	StatusExecuted
	StatusRejected
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusDraft:        "draft",
	StatusActive:       "active",
	StatusExecuteReady: "execute_ready",
	StatusExecuted:     "executed",
	StatusRejected:     "rejected",
	StatusCancelled:    "cancelled",
}

// statusTransitions lists for every non terminal state the states it can
// move to.
var statusTransitions = map[Status][]Status{
	StatusDraft:        {StatusActive},
	StatusActive:       {StatusExecuteReady, StatusRejected, StatusCancelled},
	StatusExecuteReady: {StatusExecuted, StatusCancelled},
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Validate returns an error if s is not one of the declared states.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "invalid status %d", s)
	}
	return nil
}

// IsTerminal returns true if no transition is possible out of this state.
func (s Status) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransition returns true if the state machine has an edge from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, st := range statusTransitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// Transition returns next if moving from s to next is allowed.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransition(next) {
		return s, errors.Wrapf(ErrInvalidStateTransition, "%s to %s", s, next)
	}
	return next, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(raw []byte) error {
	for st, name := range statusNames {
		if name == string(raw) {
			*s = st
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInput, "unknown status %q", raw)
}
