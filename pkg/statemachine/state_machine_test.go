package statemachine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachine_Allow(t *testing.T) {
	sm := NewWithState(EventScheduled).
		Allow(EventScheduled, EventActive, EventActive).
		Allow(EventActive, EventCompleted)

	assert.Equal(t, []EventStatus{EventActive}, sm.Next())
	assert.True(t, sm.CanTransition(EventActive, EventCompleted))
	assert.False(t, sm.CanTransition(EventCompleted, EventActive))

	require.NoError(t, sm.TransitionTo(EventActive))
	assert.True(t, sm.Is(EventActive))

	err := sm.TransitionTo(EventScheduled)
	var te *TransitionError[EventStatus]
	require.True(t, errors.As(err, &te))
	assert.Equal(t, EventActive, te.From)
	assert.Equal(t, []EventStatus{EventCompleted}, te.Allowed)
	assert.Contains(t, err.Error(), "active → scheduled")
}

func TestStateMachine_Guard(t *testing.T) {
	closed := errors.New("guild closed")
	sm := NewEventStateMachine(EventScheduled).
		Guard(func(from, to EventStatus) error {
			if to == EventActive {
				return closed
			}
			return nil
		})

	err := sm.TransitionTo(EventActive)
	assert.ErrorIs(t, err, closed)
	assert.False(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, EventScheduled, sm.Current())

	require.NoError(t, sm.TransitionTo(EventCancelled))
}

func TestStateMachine_Concurrency(t *testing.T) {
	sm := NewVoiceAccessStateMachine(VoiceAccessActive)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = sm.TransitionTo(VoiceAccessRevoked) }()
		go func() { defer wg.Done(); _ = sm.TransitionTo(VoiceAccessActive) }()
	}
	wg.Wait()
	assert.True(t, sm.Current() == VoiceAccessActive || sm.Current() == VoiceAccessRevoked)
}
