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
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/http/middleware"
	"github.com/go-arcade/guildsync/pkg/version"
	"github.com/gofiber/fiber/v2"
)

/**
 * @file: router.go
 * @description: http api over the sync engines
 */

type Router struct {
	Http     *http.Http
	Services *service.Services
}

func NewRouter(httpConf *http.Http, services *service.Services) *Router {
	return &Router{
		Http:     httpConf,
		Services: services,
	}
}

// Router builds the fiber app with every route mounted.
func (rt *Router) Router() *fiber.App {
	app := http.NewFiberApp(*rt.Http)

	app.Use(middleware.ExceptionMiddleware)
	app.Use(middleware.RequestMiddleware())
	app.Use(middleware.AccessLogMiddleware(rt.Http))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/version", func(c *fiber.Ctx) error {
		return http.WithRepJSON(c, version.GetVersion())
	})

	auth := middleware.AuthorizationMiddleware(rt.Http.Auth)
	api := app.Group("/api/v1", auth)
	{
		rt.roleRouter(api)
		rt.tagRouter(api)
		rt.userRouter(api)
		rt.eventRouter(api)
	}

	return app
}

// failed renders a service error with the matching http status.
func failed(c *fiber.Ctx, err error) error {
	e := service.AsError(err)
	status, rep := statusOf(e.Code)
	detail := map[string]any{"code": e.Code, "message": e.Message}
	if len(e.Details) > 0 {
		detail["details"] = e.Details
	}
	return http.WithRepErrDetail(c.Status(status), rep.Code, rep.Msg, detail)
}

func statusOf(code service.Code) (int, *http.Response) {
	switch code {
	case service.CodeNotFound:
		return fiber.StatusNotFound, http.NotFound
	case service.CodeEventNotFound:
		return fiber.StatusNotFound, http.EventNotFound
	case service.CodeConflict:
		return fiber.StatusConflict, http.Conflict
	case service.CodeValidation:
		return fiber.StatusBadRequest, http.ValidationFailed
	case service.CodeInvalidTransition:
		return fiber.StatusBadRequest, http.InvalidTransition
	case service.CodeNewbieRoleNotConfigured:
		return fiber.StatusBadRequest, http.NewbieRoleNotConfigure
	case service.CodeActorNotPresent:
		return fiber.StatusBadRequest, http.ActorNotPresent
	case service.CodeEventNotActive:
		return fiber.StatusBadRequest, http.EventNotActive
	case service.CodeEventTooEarly:
		return fiber.StatusBadRequest, http.EventTooEarly
	case service.CodeRemoteIdentityMissing:
		return fiber.StatusBadRequest, http.RemoteIdentityMissing
	case service.CodeMissingRequiredTags:
		return fiber.StatusBadRequest, http.MissingRequiredTags
	case service.CodeEventFull:
		return fiber.StatusBadRequest, http.EventFull
	case service.CodeDiscordAccessFailed:
		return fiber.StatusBadGateway, http.DiscordAccessFailed
	case service.CodeDatabaseError:
		return fiber.StatusInternalServerError, http.DatabaseError
	default:
		return fiber.StatusInternalServerError, http.InternalError
	}
}

// badRequest renders a body or parameter parse failure.
func badRequest(c *fiber.Ctx, err error) error {
	return http.WithRepErrMsg(c.Status(fiber.StatusBadRequest), http.RequestParameterParsingFailed.Code, err.Error(), c.Path())
}
