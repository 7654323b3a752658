// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statemachine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrInvalidTransition is wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionError reports an unregistered move along with the targets the
// source state does accept.
type TransitionError[T comparable] struct {
	From    T
	To      T
	Allowed []T
}

func (e *TransitionError[T]) Error() string {
	return fmt.Sprintf("invalid transition: %v → %v (allowed: %v)", e.From, e.To, e.Allowed)
}

func (e *TransitionError[T]) Unwrap() error { return ErrInvalidTransition }

// Guard vetoes an otherwise registered transition.
type Guard[T comparable] func(from, to T) error

// StateMachine is a transition table positioned at one state. Persisted
// records rebuild a machine from their stored status, move it, then write the
// new status back, so a machine is short lived. Safe for concurrent use.
type StateMachine[T comparable] struct {
	mu      sync.RWMutex
	current T
	edges   map[T][]T
	guards  []Guard[T]
}

// NewWithState returns an empty table positioned at current.
func NewWithState[T comparable](current T) *StateMachine[T] {
	return &StateMachine[T]{current: current, edges: make(map[T][]T)}
}

// Allow registers from → each of to.
func (sm *StateMachine[T]) Allow(from T, to ...T) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, t := range to {
		if !slices.Contains(sm.edges[from], t) {
			sm.edges[from] = append(sm.edges[from], t)
		}
	}
	return sm
}

// Guard adds a check run after the table lookup.
func (sm *StateMachine[T]) Guard(g Guard[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.guards = append(sm.guards, g)
	return sm
}

func (sm *StateMachine[T]) CanTransition(from, to T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Contains(sm.edges[from], to)
}

// Next lists the states reachable from the current one.
func (sm *StateMachine[T]) Next() []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.edges[sm.current])
}

func (sm *StateMachine[T]) Current() T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

func (sm *StateMachine[T]) Is(state T) bool {
	return sm.Current() == state
}

// TransitionTo moves from the current state. The state is unchanged on error.
func (sm *StateMachine[T]) TransitionTo(to T) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	from := sm.current
	if !slices.Contains(sm.edges[from], to) {
		return &TransitionError[T]{From: from, To: to, Allowed: slices.Clone(sm.edges[from])}
	}
	for _, g := range sm.guards {
		if err := g(from, to); err != nil {
			return fmt.Errorf("transition %v → %v rejected: %w", from, to, err)
		}
	}
	sm.current = to
	return nil
}
