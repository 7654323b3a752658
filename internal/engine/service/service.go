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

package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/id"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/metrics"
	"github.com/go-arcade/guildsync/pkg/parallel"
)

// Options tunes the engines.
type Options struct {
	BatchSize       int
	NewbieRoleName  string
	GracePeriod     time.Duration
	DefaultDuration time.Duration
	CreateTempRole  bool
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = parallel.DefaultBatchSize
	}
	if o.NewbieRoleName == "" {
		o.NewbieRoleName = "NEWBIE"
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 30 * time.Minute
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = 2 * time.Hour
	}
	return o
}

// Services 统一管理所有 service
type Services struct {
	Role        *RoleService
	RoleSync    *RoleSyncService
	Tag         *TagService
	Event       *EventService
	EventAccess *EventAccessService
}

// NewServices 初始化所有 service
func NewServices(repos *repo.Repositories, adapter guild.Adapter, collector *metrics.SyncCollector, opts Options) *Services {
	opts = opts.withDefaults()
	base := engine{repos: repos, guild: adapter, metrics: collector, opts: opts, now: time.Now}

	eventService := &EventService{engine: base}
	return &Services{
		Role:        &RoleService{engine: base},
		RoleSync:    &RoleSyncService{engine: base},
		Tag:         &TagService{engine: base},
		Event:       eventService,
		EventAccess: &EventAccessService{engine: base, events: eventService},
	}
}

// engine carries the collaborators shared by every service.
type engine struct {
	repos   *repo.Repositories
	guild   guild.Adapter
	metrics *metrics.SyncCollector
	opts    Options
	now     func() time.Time
}

// SyncWarning is a remote failure that did not fail the local operation.
type SyncWarning struct {
	Op       string `json:"op"`
	Target   string `json:"target"`
	RemoteId string `json:"remoteId,omitempty"`
	Message  string `json:"message"`
}

// audit appends one activity log row through repos, which may be bound to a transaction.
func audit(ctx context.Context, repos *repo.Repositories, actorId string, action model.ActivityAction,
	entityType model.EntityType, entityId string, detail map[string]any) error {
	return repos.ActivityLog.CreateLog(ctx, &model.ActivityLog{
		LogId:      id.GetUUID(),
		ActorId:    actorId,
		Action:     action,
		EntityType: entityType,
		EntityId:   entityId,
		Detail:     detail,
	})
}

// remote records the outcome of one guild call. Failures are logged, counted
// and written to the activity log as REMOTE_SYNC_FAILED; the returned warning
// is nil on success.
func (e *engine) remote(ctx context.Context, op string, err error, actorId string,
	entityType model.EntityType, entityId, target, remoteId string) *SyncWarning {
	e.metrics.RemoteOp(op, err)
	if err == nil {
		return nil
	}
	log.Warnw("remote sync failed",
		"op", op, "entityType", entityType, "entityId", entityId,
		"target", target, "remoteId", remoteId, "error", err)

	detail := map[string]any{"op": op, "target": target, "error": err.Error()}
	if remoteId != "" {
		detail["remoteId"] = remoteId
	}
	if aerr := audit(ctx, e.repos, actorId, model.ActionRemoteSyncFailed, entityType, entityId, detail); aerr != nil {
		log.Errorw("failed to record remote sync failure", "entityId", entityId, "error", aerr)
	}
	return &SyncWarning{Op: op, Target: target, RemoteId: remoteId, Message: err.Error()}
}

func appendWarning(list []SyncWarning, w *SyncWarning) []SyncWarning {
	if w == nil {
		return list
	}
	return append(list, *w)
}

// remoteUser resolves the linked guild member id of a user.
func (e *engine) remoteUser(ctx context.Context, userId string) (string, error) {
	user, err := e.repos.User.GetUser(ctx, userId)
	if err != nil {
		return "", lookupError(err, notFound("user", userId))
	}
	if user.RemoteUserId == nil || *user.RemoteUserId == "" {
		return "", newError(CodeRemoteIdentityMissing, "guild account is not linked", map[string]any{"userId": userId})
	}
	return *user.RemoteUserId, nil
}

// uniqueNames trims, drops blanks and de-duplicates case-insensitively
// while keeping the first spelling and order.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := model.FoldName(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func auditReason(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
