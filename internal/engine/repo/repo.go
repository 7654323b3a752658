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

package repo

import (
	"context"

	"github.com/go-arcade/guildsync/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repositories groups every repository the engine uses. A value handed to a
// Transaction callback is bound to that transaction.
type Repositories struct {
	Role        IRoleRepository
	Tag         ITagRepository
	User        IUserRepository
	UserRole    IUserRoleRepository
	UserTag     IUserTagRepository
	Event       IEventRepository
	VoiceAccess IVoiceAccessRepository
	Participant IParticipantRepository
	ActivityLog IActivityLogRepository

	Tx Transactor
}

// Transactor runs fn atomically. Any error returned by fn rolls back every
// write made through the Repositories passed to it.
type Transactor interface {
	Transaction(ctx context.Context, fn func(repos *Repositories) error) error
}

func (r *Repositories) Transaction(ctx context.Context, fn func(repos *Repositories) error) error {
	return r.Tx.Transaction(ctx, fn)
}

// NewRepositories 基于 gorm 构建全部仓储
func NewRepositories(db database.IDatabase) *Repositories {
	repos := newGormRepositories(db)
	repos.Tx = &gormTransactor{db: db}
	return repos
}

func newGormRepositories(db database.IDatabase) *Repositories {
	return &Repositories{
		Role:        NewRoleRepo(db),
		Tag:         NewTagRepo(db),
		User:        NewUserRepo(db),
		UserRole:    NewUserRoleRepo(db),
		UserTag:     NewUserTagRepo(db),
		Event:       NewEventRepo(db),
		VoiceAccess: NewVoiceAccessRepo(db),
		Participant: NewParticipantRepo(db),
		ActivityLog: NewActivityLogRepo(db),
	}
}

// forUpdate adds SELECT ... FOR UPDATE. Outside a transaction the lock is
// released as soon as the statement ends.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

type gormTransactor struct {
	db database.IDatabase
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(repos *Repositories) error) error {
	return t.db.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txDB := database.NewGormDB(tx)
		repos := newGormRepositories(txDB)
		// nested calls reuse the open transaction
		repos.Tx = &nestedTransactor{repos: repos}
		return fn(repos)
	})
}

type nestedTransactor struct {
	repos *Repositories
}

func (t *nestedTransactor) Transaction(_ context.Context, fn func(repos *Repositories) error) error {
	return fn(t.repos)
}
