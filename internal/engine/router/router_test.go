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

package router

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arcade/guildsync/internal/engine/guild/guildtest"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo/memory"
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/http/auth/jwt"
	"github.com/go-arcade/guildsync/pkg/metrics"
	"github.com/gofiber/fiber/v2"
)

const secret = "bf284d03-ba65-42d4-a9fe-0d2fbfe61060"

type envelope struct {
	Code   int            `json:"code"`
	Msg    string         `json:"msg"`
	ErrMsg string         `json:"errMsg"`
	Detail map[string]any `json:"detail"`
}

func newApp(t *testing.T, auth http.Auth) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	services := service.NewServices(store.Repositories(), &guildtest.Nop{}, metrics.NewSyncCollector(), service.Options{})
	conf := &http.Http{Auth: auth}
	return NewRouter(conf, services).Router(), store
}

func call(t *testing.T, app *fiber.App, method, path, body, token string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, sonic.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func token(t *testing.T, userId string) string {
	t.Helper()
	tk, err := jwt.GenToken(userId, "guildsync", []byte(secret), time.Hour)
	require.NoError(t, err)
	return tk
}

func TestRouter_Health(t *testing.T) {
	app, _ := newApp(t, http.Auth{SecretKey: secret})

	req := httptest.NewRequest(fiber.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouter_Authorization(t *testing.T) {
	app, _ := newApp(t, http.Auth{SecretKey: secret})

	status, env := call(t, app, fiber.MethodGet, "/api/v1/roles", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, http.AuthorizationEmpty.Code, env.Code)

	status, env = call(t, app, fiber.MethodGet, "/api/v1/roles", "", "not-a-token")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, http.InvalidToken.Code, env.Code)

	status, env = call(t, app, fiber.MethodGet, "/api/v1/roles", "", token(t, "admin-1"))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, http.Success.Code, env.Code)
}

func TestRouter_RoleLifecycle(t *testing.T) {
	app, store := newApp(t, http.Auth{SecretKey: secret})
	tk := token(t, "admin-1")

	status, env := call(t, app, fiber.MethodPost, "/api/v1/roles", `{"name":" Raider ","color":255}`, tk)
	require.Equal(t, fiber.StatusOK, status)
	role := env.Detail["role"].(map[string]any)
	assert.Equal(t, "Raider", role["name"])
	assert.Equal(t, "r-raider", role["remoteRoleId"])
	assert.Equal(t, "admin-1", role["createdBy"])
	roleId := role["roleId"].(string)

	status, env = call(t, app, fiber.MethodPost, "/api/v1/roles", `{"name":"Raider"}`, tk)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, http.Conflict.Code, env.Code)
	assert.Equal(t, string(service.CodeConflict), env.Detail["code"])

	status, env = call(t, app, fiber.MethodGet, "/api/v1/roles/"+roleId, "", tk)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Raider", env.Detail["name"])

	status, _ = call(t, app, fiber.MethodDelete, "/api/v1/roles/"+roleId, "", tk)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = call(t, app, fiber.MethodDelete, "/api/v1/roles/"+roleId, "", tk)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, http.NotFound.Code, env.Code)
	assert.Equal(t, true, env.Detail["details"].(map[string]any)["archived"])

	var archived bool
	for _, l := range store.Logs() {
		if l.Action == model.ActionRoleArchived && l.EntityId == roleId {
			archived = l.ActorId == "admin-1"
		}
	}
	assert.True(t, archived)
}

func TestRouter_BadBody(t *testing.T) {
	app, _ := newApp(t, http.Auth{SecretKey: secret})

	status, env := call(t, app, fiber.MethodPost, "/api/v1/roles", `{"name":`, token(t, "admin-1"))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, http.RequestParameterParsingFailed.Code, env.Code)
}

func TestRouter_ApplyRolesValidation(t *testing.T) {
	app, store := newApp(t, http.Auth{SecretKey: secret})
	tk := token(t, "admin-1")
	require.NoError(t, store.Repositories().User.CreateUser(context.Background(), &model.User{UserId: "u1"}))

	status, env := call(t, app, fiber.MethodPost, "/api/v1/users/u1/roles", `{"roleNames":["Ghost"]}`, tk)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, http.ValidationFailed.Code, env.Code)
	details := env.Detail["details"].(map[string]any)
	assert.Equal(t, []any{"Ghost"}, details["missing"])
}

func TestRouter_Events(t *testing.T) {
	app, store := newApp(t, http.Auth{Disabled: true})

	status, env := call(t, app, fiber.MethodGet, "/api/v1/events/missing", "", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, http.EventNotFound.Code, env.Code)

	at := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	status, env = call(t, app, fiber.MethodPost, "/api/v1/events",
		`{"title":"Raid night","scheduledAt":"`+at+`","remoteChannelId":"c1"}`, "")
	require.Equal(t, fiber.StatusOK, status)
	eventId := env.Detail["eventId"].(string)
	assert.Equal(t, "scheduled", env.Detail["status"])
	assert.Equal(t, "system", env.Detail["createdBy"])

	status, env = call(t, app, fiber.MethodPut, "/api/v1/events/"+eventId+"/status", `{"status":"completed"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, http.InvalidTransition.Code, env.Code)

	// not active yet
	remote := "d-u1"
	require.NoError(t, store.Repositories().User.CreateUser(context.Background(), &model.User{UserId: "u1", RemoteUserId: &remote}))
	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/events/"+eventId+"/access", nil)
	req.Header.Set("X-Actor-Id", "u1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	status, env = call(t, app, fiber.MethodGet, "/api/v1/events/"+eventId+"/access/u1", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, env.Detail["hasAccess"])
}

func TestStatusOf(t *testing.T) {
	cases := map[service.Code]int{
		service.CodeNotFound:            fiber.StatusNotFound,
		service.CodeEventNotFound:       fiber.StatusNotFound,
		service.CodeConflict:            fiber.StatusConflict,
		service.CodeEventFull:           fiber.StatusBadRequest,
		service.CodeDiscordAccessFailed: fiber.StatusBadGateway,
		service.CodeDatabaseError:       fiber.StatusInternalServerError,
		service.CodeInternalError:       fiber.StatusInternalServerError,
	}
	for code, want := range cases {
		got, _ := statusOf(code)
		assert.Equal(t, want, got, code)
	}
}
