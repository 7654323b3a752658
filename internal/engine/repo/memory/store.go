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

// Package memory is an in-process implementation of every engine repository.
// It backs the service tests and the local dev mode.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"
)

type tables struct {
	roles        map[string]model.Role
	tags         map[string]model.Tag
	users        map[string]model.User
	roleGrants   map[string]model.UserRoleGrant
	tagGrants    map[string]model.UserTagGrant
	events       map[string]model.Event
	access       map[string]model.EventVoiceAccess
	participants map[string]model.EventParticipant
	logs         []model.ActivityLog
}

func newTables() tables {
	return tables{
		roles:        map[string]model.Role{},
		tags:         map[string]model.Tag{},
		users:        map[string]model.User{},
		roleGrants:   map[string]model.UserRoleGrant{},
		tagGrants:    map[string]model.UserTagGrant{},
		events:       map[string]model.Event{},
		access:       map[string]model.EventVoiceAccess{},
		participants: map[string]model.EventParticipant{},
	}
}

func (t tables) clone() tables {
	return tables{
		roles:        maps.Clone(t.roles),
		tags:         maps.Clone(t.tags),
		users:        maps.Clone(t.users),
		roleGrants:   maps.Clone(t.roleGrants),
		tagGrants:    maps.Clone(t.tagGrants),
		events:       maps.Clone(t.events),
		access:       maps.Clone(t.access),
		participants: maps.Clone(t.participants),
		logs:         slices.Clone(t.logs),
	}
}

// Store holds all tables behind one lock. Transactions are serialised and
// restored from a snapshot when the callback fails.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	seq  uint64
	data tables
	now  func() time.Time

	repos *repo.Repositories
}

func NewStore() *Store {
	s := &Store{data: newTables(), now: time.Now}
	s.repos = &repo.Repositories{
		Role:        &roleRepo{s},
		Tag:         &tagRepo{s},
		User:        &userRepo{s},
		UserRole:    &userRoleRepo{s},
		UserTag:     &userTagRepo{s},
		Event:       &eventRepo{s},
		VoiceAccess: &voiceAccessRepo{s},
		Participant: &participantRepo{s},
		ActivityLog: &activityLogRepo{s},
		Tx:          s,
	}
	return s
}

// Repositories returns the shared aggregate. Replacing a field on it (for
// example to inject failures) also affects transactions.
func (s *Store) Repositories() *repo.Repositories {
	return s.repos
}

func (s *Store) Transaction(ctx context.Context, fn func(repos *repo.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	seq := s.seq
	s.mu.RUnlock()

	if err := fn(s.repos); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.seq = seq
		s.mu.Unlock()
		return err
	}
	return nil
}

// Logs returns a copy of every activity log row in insertion order.
func (s *Store) Logs() []model.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.logs)
}

// CountRoleGrantRows returns all grant rows for the pair, active or not.
func (s *Store) CountRoleGrantRows(userId, roleId string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, g := range s.data.roleGrants {
		if g.UserId == userId && g.RoleId == roleId {
			n++
		}
	}
	return n
}

// caller holds mu
func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

// caller holds mu
func (s *Store) stamp(base *model.BaseModel) {
	now := s.now()
	if base.ID == 0 {
		base.ID = s.nextID()
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func pairKey(a, b string) string {
	return a + "\x00" + b
}
