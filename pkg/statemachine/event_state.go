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

// EventStatus is the lifecycle status of a scheduled guild event.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventScheduled, EventActive, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// IsTerminal 判断是否为终止状态
func (s EventStatus) IsTerminal() bool {
	return s == EventCompleted
}

// NewEventStateMachine builds the event lifecycle machine positioned at current.
//
//	scheduled → active → completed
//	scheduled → cancelled
//	active    → cancelled
//	cancelled → scheduled
func NewEventStateMachine(current EventStatus) *StateMachine[EventStatus] {
	sm := NewWithState(current)
	sm.Allow(EventScheduled, EventActive, EventCancelled).
		Allow(EventActive, EventCompleted, EventCancelled).
		Allow(EventCancelled, EventScheduled)
	return sm
}

// VoiceAccessStatus is the status of a user's voice access grant for an event.
type VoiceAccessStatus string

const (
	VoiceAccessActive  VoiceAccessStatus = "ACTIVE"
	VoiceAccessRevoked VoiceAccessStatus = "REVOKED"
)

// NewVoiceAccessStateMachine builds the access record machine. A revoked
// record can be reactivated by a later grant.
func NewVoiceAccessStateMachine(current VoiceAccessStatus) *StateMachine[VoiceAccessStatus] {
	sm := NewWithState(current)
	sm.Allow(VoiceAccessActive, VoiceAccessRevoked).
		Allow(VoiceAccessRevoked, VoiceAccessActive)
	return sm
}
