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
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) userRouter(r fiber.Router) {
	userGroup := r.Group("/users/:userId")
	{
		// roles
		userGroup.Get("/roles", rt.getUserRoles)
		userGroup.Post("/roles", rt.applyRoles)
		userGroup.Delete("/roles", rt.removeRoles)
		userGroup.Post("/roles/sync", rt.reconcileRoles)
		userGroup.Post("/newbie", rt.assignNewbie)

		// tags
		userGroup.Get("/tags", rt.getUserTags)
		userGroup.Post("/tags", rt.assignTag)
		userGroup.Delete("/tags/:tagName", rt.removeTag)
		userGroup.Put("/tags/primary", rt.setPrimaryTag)
		userGroup.Post("/tags/sync", rt.syncTags)
	}
}

type roleNamesBody struct {
	RoleNames      []string `json:"roleNames"`
	Reason         string   `json:"reason"`
	SkipRemoteSync bool     `json:"skipRemoteSync"`
}

func (rt *Router) getUserRoles(c *fiber.Ctx) error {
	roles, err := rt.Services.RoleSync.GetUserRoles(c.UserContext(), c.Params("userId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, roles)
}

func (rt *Router) applyRoles(c *fiber.Ctx) error {
	var body roleNamesBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.RoleSync.ApplyRolesToUser(c.UserContext(), service.ApplyRolesRequest{
		UserId:         c.Params("userId"),
		RoleNames:      body.RoleNames,
		GrantedBy:      middleware.Actor(c),
		Reason:         body.Reason,
		SkipRemoteSync: body.SkipRemoteSync,
	})
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) removeRoles(c *fiber.Ctx) error {
	var body roleNamesBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.RoleSync.RemoveRolesFromUser(c.UserContext(), service.RemoveRolesRequest{
		UserId:         c.Params("userId"),
		RoleNames:      body.RoleNames,
		RevokedBy:      middleware.Actor(c),
		Reason:         body.Reason,
		SkipRemoteSync: body.SkipRemoteSync,
	})
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) reconcileRoles(c *fiber.Ctx) error {
	report, err := rt.Services.RoleSync.ReconcileMemberRoles(c.UserContext(), c.Params("userId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, report)
}

func (rt *Router) assignNewbie(c *fiber.Ctx) error {
	res, err := rt.Services.RoleSync.AssignNewbieRole(c.UserContext(), c.Params("userId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

type tagBody struct {
	TagName        string `json:"tagName"`
	Reason         string `json:"reason"`
	SkipRemoteSync bool   `json:"skipRemoteSync"`
}

func (rt *Router) getUserTags(c *fiber.Ctx) error {
	tags, err := rt.Services.Tag.GetUserTags(c.UserContext(), c.Params("userId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, tags)
}

func (rt *Router) assignTag(c *fiber.Ctx) error {
	var body tagBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.Tag.AssignTagToUser(c.UserContext(), service.AssignTagRequest{
		UserId:         c.Params("userId"),
		TagName:        body.TagName,
		ActorId:        middleware.Actor(c),
		Reason:         body.Reason,
		SkipRemoteSync: body.SkipRemoteSync,
	})
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) removeTag(c *fiber.Ctx) error {
	res, err := rt.Services.Tag.RemoveTagFromUser(c.UserContext(), service.AssignTagRequest{
		UserId:         c.Params("userId"),
		TagName:        c.Params("tagName"),
		ActorId:        middleware.Actor(c),
		Reason:         c.Query("reason"),
		SkipRemoteSync: c.QueryBool("skipRemoteSync"),
	})
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) setPrimaryTag(c *fiber.Ctx) error {
	var body tagBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, err)
	}
	grant, err := rt.Services.Tag.SetPrimaryTag(c.UserContext(), c.Params("userId"), body.TagName, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, grant)
}

func (rt *Router) syncTags(c *fiber.Ctx) error {
	report, err := rt.Services.Tag.SyncUserTagsWithDiscord(c.UserContext(), c.Params("userId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, report)
}
