package middleware

import (
	"context"

	"github.com/go-arcade/guildsync/pkg/id"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/gofiber/fiber/v2"
)

const RequestIDHeader = "X-Request-Id"

// RequestMiddleware assigns a request id and puts it on the user context so
// downstream logs carry it. An incoming id is kept only when it is a uuid.
func RequestMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestId := c.Get(RequestIDHeader)
		if !id.IsUUID(requestId) {
			requestId = id.GetUUID()
		}
		c.Set(RequestIDHeader, requestId)
		c.Locals("request_id", requestId)
		c.SetUserContext(context.WithValue(c.UserContext(), log.RequestIDKey, requestId))
		return c.Next()
	}
}
