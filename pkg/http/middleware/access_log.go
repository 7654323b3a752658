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
	"strings"
	"time"

	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// 不记录访问日志的路径, 以 /* 结尾表示前缀匹配
var quietPaths = []string{
	"/health",
	"/metrics",
}

func quiet(path string) bool {
	for _, rule := range quietPaths {
		if prefix, ok := strings.CutSuffix(rule, "/*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		} else if path == rule {
			return true
		}
	}
	return false
}

// AccessLogMiddleware writes one structured line per request once the handler
// chain has run, so the actor resolved by authorization is included.
func AccessLogMiddleware(httpConfig *http.Http) fiber.Handler {
	if httpConfig != nil && !httpConfig.AccessLog {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		if quiet(c.Path()) {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		fields := []any{
			"ip", c.IP(),
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latencyMs", time.Since(start).Milliseconds(),
			"actor", Actor(c),
		}
		if rid, ok := c.Locals("request_id").(string); ok {
			fields = append(fields, "requestId", rid)
		}
		if err != nil {
			fields = append(fields, "error", err)
			log.Warnw("access", fields...)
			return err
		}
		log.Infow("access", fields...)
		return nil
	}
}
