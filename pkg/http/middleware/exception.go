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

package middleware

import (
	"runtime/debug"

	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// ExceptionMiddleware turns a handler panic into a 500 envelope.
func ExceptionMiddleware(c *fiber.Ctx) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.WithContext(c.UserContext()).Errorw("handler panic",
			"method", c.Method(),
			"path", c.Path(),
			"actor", Actor(c),
			"panic", r,
			"stack", string(debug.Stack()),
		)
		err = http.WithRepErrMsg(c.Status(fiber.StatusInternalServerError), http.InternalError.Code, http.InternalError.Msg, c.Path())
	}()

	return c.Next()
}
