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
// Package ledger holds the pure grant/revoke transitions applied to a
// (user, role) or (user, tag) grant row. Storage decides whether a row
// exists; ledger decides what the row becomes.
package ledger

import (
	"time"

	"github.com/go-arcade/guildsync/internal/engine/model"
)

// Transition names the effect of Grant or Revoke on a row.
type Transition int

const (
	// TransitionNoop leaves the row untouched.
	TransitionNoop Transition = iota
	// TransitionCreated means no row existed and one must be inserted.
	TransitionCreated
	// TransitionReactivated means a revoked row becomes active again.
	TransitionReactivated
	// TransitionRevoked means an active row becomes revoked.
	TransitionRevoked
)

func (t Transition) String() string {
	switch t {
	case TransitionCreated:
		return "created"
	case TransitionReactivated:
		return "reactivated"
	case TransitionRevoked:
		return "revoked"
	default:
		return "noop"
	}
}

// Changed reports whether the row must be written.
func (t Transition) Changed() bool {
	return t != TransitionNoop
}

type GrantInput struct {
	At     time.Time
	By     *string
	Reason string
}

type RevokeInput struct {
	At     time.Time
	By     *string
	Reason string
}

// Grant computes the state after granting. A nil existing row yields a new
// active row; a revoked row is reactivated with fresh grant fields and cleared
// revoke fields; an active row is left as is.
func Grant(existing *model.GrantState, in GrantInput) (model.GrantState, Transition) {
	fresh := model.GrantState{
		GrantedAt:   in.At,
		GrantedBy:   in.By,
		GrantReason: in.Reason,
	}
	switch {
	case existing == nil:
		return fresh, TransitionCreated
	case existing.Active():
		return *existing, TransitionNoop
	default:
		return fresh, TransitionReactivated
	}
}

// Revoke computes the state after revoking. Missing or already revoked rows
// are a no-op.
func Revoke(existing *model.GrantState, in RevokeInput) (model.GrantState, Transition) {
	if existing == nil {
		return model.GrantState{}, TransitionNoop
	}
	if !existing.Active() {
		return *existing, TransitionNoop
	}
	next := *existing
	at := in.At
	next.RevokedAt = &at
	next.RevokedBy = in.By
	next.RevokeReason = in.Reason
	return next, TransitionRevoked
}
