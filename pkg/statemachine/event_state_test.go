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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStateMachine_Transitions(t *testing.T) {
	all := []EventStatus{EventScheduled, EventActive, EventCompleted, EventCancelled}
	allowed := map[EventStatus][]EventStatus{
		EventScheduled: {EventActive, EventCancelled},
		EventActive:    {EventCompleted, EventCancelled},
		EventCancelled: {EventScheduled},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				sm := NewEventStateMachine(from)
				err := sm.TransitionTo(to)
				if want {
					require.NoError(t, err)
					assert.Equal(t, to, sm.Current())
					return
				}
				var te *TransitionError[EventStatus]
				require.True(t, errors.As(err, &te))
				assert.ElementsMatch(t, allowed[from], te.Allowed)
				assert.Equal(t, from, sm.Current())
			})
		}
	}
}

func TestEventStatus(t *testing.T) {
	assert.True(t, EventActive.Valid())
	assert.False(t, EventStatus("archived").Valid())
	assert.True(t, EventCompleted.IsTerminal())
	assert.False(t, EventCancelled.IsTerminal())
}

func TestVoiceAccessStateMachine(t *testing.T) {
	sm := NewVoiceAccessStateMachine(VoiceAccessActive)
	require.NoError(t, sm.TransitionTo(VoiceAccessRevoked))
	require.NoError(t, sm.TransitionTo(VoiceAccessActive))
	assert.ErrorIs(t, sm.TransitionTo(VoiceAccessActive), ErrInvalidTransition)
}
