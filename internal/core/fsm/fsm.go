// Package fsm holds the status transition tables of engine documents.
package fsm

import (
	"inventra/internal/core/apperror"
)

// Machine is a finite state machine over string-backed statuses.
type Machine[S ~string] struct {
	name        string
	states      map[S]struct{}
	transitions map[S][]S
}

// New builds a machine. Every state that appears in transitions is known;
// states with no outgoing edges are terminal.
func New[S ~string](name string, transitions map[S][]S) *Machine[S] {
	m := &Machine[S]{
		name:        name,
		states:      make(map[S]struct{}),
		transitions: transitions,
	}
	for from, tos := range transitions {
		m.states[from] = struct{}{}
		for _, to := range tos {
			m.states[to] = struct{}{}
		}
	}
	return m
}

// Known reports whether s is a status of this machine.
func (m *Machine[S]) Known(s S) bool {
	_, ok := m.states[s]
	return ok
}

// Can reports whether from -> to is an edge.
func (m *Machine[S]) Can(from, to S) bool {
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Check returns an INVALID_STATUS_TRANSITION error unless from -> to is an edge.
func (m *Machine[S]) Check(from, to S) error {
	if !m.Can(from, to) {
		return apperror.NewInvalidStatusTransition(m.name, string(from), string(to))
	}
	return nil
}

// IsTerminal reports whether s has no outgoing edges.
func (m *Machine[S]) IsTerminal(s S) bool {
	return len(m.transitions[s]) == 0
}

// Validate returns a validation error on field when s is not a known status.
func (m *Machine[S]) Validate(field string, s S) error {
	if !m.Known(s) {
		return apperror.NewFieldValidation(field, "unknown status").WithDetail("value", string(s))
	}
	return nil
}
