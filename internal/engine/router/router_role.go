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
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) roleRouter(r fiber.Router) {
	roleGroup := r.Group("/roles")
	{
		roleGroup.Get("/", rt.listRoles)               // GET /roles - list roles (search, system, paging)
		roleGroup.Post("/", rt.createRole)             // POST /roles - create a role and its guild role
		roleGroup.Post("/bulk-apply", rt.bulkApply)    // POST /roles/bulk-apply - grant roles to many users
		roleGroup.Get("/:roleId", rt.getRole)          // GET /roles/:roleId
		roleGroup.Put("/:roleId", rt.updateRole)       // PUT /roles/:roleId
		roleGroup.Delete("/:roleId", rt.archiveRole)   // DELETE /roles/:roleId - archive
	}
}

func (rt *Router) listRoles(c *fiber.Ctx) error {
	var filter model.RoleFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, err)
	}
	list, err := rt.Services.Role.ListRoles(c.UserContext(), &filter)
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, list)
}

func (rt *Router) createRole(c *fiber.Ctx) error {
	var req model.CreateRoleReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.Role.CreateRole(c.UserContext(), &req, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) getRole(c *fiber.Ctx) error {
	role, err := rt.Services.Role.GetRole(c.UserContext(), c.Params("roleId"))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, role)
}

func (rt *Router) updateRole(c *fiber.Ctx) error {
	var patch model.UpdateRoleReq
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, err)
	}
	res, err := rt.Services.Role.UpdateRole(c.UserContext(), c.Params("roleId"), &patch, middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) archiveRole(c *fiber.Ctx) error {
	res, err := rt.Services.Role.ArchiveRole(c.UserContext(), c.Params("roleId"), middleware.Actor(c))
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}

func (rt *Router) bulkApply(c *fiber.Ctx) error {
	var req struct {
		Assignments []service.RoleAssignment `json:"assignments"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	actor := middleware.Actor(c)
	for i := range req.Assignments {
		if req.Assignments[i].GrantedBy == "" {
			req.Assignments[i].GrantedBy = actor
		}
	}
	res, err := rt.Services.RoleSync.BulkApplyRoles(c.UserContext(), req.Assignments)
	if err != nil {
		return failed(c, err)
	}
	return http.WithRepJSON(c, res)
}
