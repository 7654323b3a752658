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
	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) tagRouter(r fiber.Router) {
	tagGroup := r.Group("/tags")
	{
		tagGroup.Get("/", rt.listTags)
		tagGroup.Post("/", rt.createTag)
		tagGroup.Get("/:tagId", rt.getTag)
		tagGroup.Put("/:tagId", rt.updateTag)
		tagGroup.Delete("/:tagId", rt.archiveTag)
		tagGroup.Post("/:tagName/bulk-assign", rt.bulkAssignTag) // 按名称批量分配
	}
}

func (rt *Router) listTags(c *fiber.Ctx) error {
	var filter model.TagFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, err)
	}
	list, err := rt.Services.Tag.ListTags(c.UserContext(), &filter)
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, list)
}

func (rt *Router) createTag(c *fiber.Ctx) error {
	var req model.CreateTagReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.Tag.CreateTag(c.UserContext(), &req, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) getTag(c *fiber.Ctx) error {
	tag, err := rt.Services.Tag.GetTag(c.UserContext(), c.Params("tagId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, tag)
}

func (rt *Router) updateTag(c *fiber.Ctx) error {
	var patch model.UpdateTagReq
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.Tag.UpdateTag(c.UserContext(), c.Params("tagId"), &patch, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) archiveTag(c *fiber.Ctx) error {
	res, err := rt.Services.Tag.ArchiveTag(c.UserContext(), c.Params("tagId"), middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) bulkAssignTag(c *fiber.Ctx) error {
	var req struct {
		UserIds []string `json:"userIds"`
		Reason  string   `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.Tag.BulkAssignTag(c.UserContext(), c.Params("tagName"), req.UserIds, middleware.Actor(c), req.Reason)
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}
