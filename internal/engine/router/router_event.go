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
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/http/middleware"
	"github.com/go-arcade/guildsync/pkg/statemachine"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) eventRouter(r fiber.Router) {
	eventGroup := r.Group("/events")
	{
		eventGroup.Post("/", rt.createEvent)
		eventGroup.Get("/:eventId", rt.getEvent)
		eventGroup.Put("/:eventId/status", rt.transitionEvent)
		eventGroup.Post("/:eventId/cleanup", rt.cleanupEvent)

		// voice access
		eventGroup.Post("/:eventId/access", rt.requestAccess)            // the caller asks for access
		eventGroup.Post("/:eventId/access/:userId", rt.adminGrantAccess) // admin grant, skips capacity
		eventGroup.Delete("/:eventId/access/:userId", rt.revokeAccess)
		eventGroup.Get("/:eventId/access/:userId", rt.accessStatus)
		eventGroup.Get("/:eventId/eligibility/:userId", rt.eligibility)
	}
}

func (rt *Router) createEvent(c *fiber.Ctx) error {
	var req model.CreateEventReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	event, err := rt.Services.Event.CreateEvent(c.UserContext(), &req, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, event)
}

func (rt *Router) getEvent(c *fiber.Ctx) error {
	event, err := rt.Services.Event.GetEvent(c.UserContext(), c.Params("eventId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, event)
}

func (rt *Router) transitionEvent(c *fiber.Ctx) error {
	var body struct {
		Status statemachine.EventStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.Event.TransitionStatus(c.UserContext(), c.Params("eventId"), body.Status, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) cleanupEvent(c *fiber.Ctx) error {
	reason := service.RevokeReason(c.Query("reason", string(service.ReasonEventEnded)))
	stats, err := rt.Services.EventAccess.CleanupEvent(c.UserContext(), c.Params("eventId"), reason, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, stats)
}

func (rt *Router) requestAccess(c *fiber.Ctx) error {
	res, err := rt.Services.EventAccess.RequestEventAccess(c.UserContext(), c.Params("eventId"), middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) adminGrantAccess(c *fiber.Ctx) error {
	res, err := rt.Services.EventAccess.AdminGrantAccess(c.UserContext(), c.Params("eventId"), c.Params("userId"), middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) revokeAccess(c *fiber.Ctx) error {
	reason := service.RevokeReason(c.Query("reason", string(service.ReasonAdminRevoked)))
	res, err := rt.Services.EventAccess.RevokeEventAccess(c.UserContext(), c.Params("eventId"), c.Params("userId"), reason, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) accessStatus(c *fiber.Ctx) error {
	res, err := rt.Services.EventAccess.GetUserAccessStatus(c.UserContext(), c.Params("eventId"), c.Params("userId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) eligibility(c *fiber.Ctx) error {
	res, err := rt.Services.EventAccess.CheckEventEligibility(c.UserContext(), c.Params("eventId"), c.Params("userId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}
