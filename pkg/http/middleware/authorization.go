package middleware

import (
	"errors"
	"strings"

	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/http/auth/jwt"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/gofiber/fiber/v2"
	goJwt "github.com/golang-jwt/jwt/v5"
)

// ActorKey is the fiber local holding the authenticated actor id.
const ActorKey = "actorId"

// ActorHeader is read when authentication is disabled.
const ActorHeader = "X-Actor-Id"

// AuthorizationMiddleware validates the bearer token and stores the actor id.
func AuthorizationMiddleware(auth http.Auth) fiber.Handler {
	secret := []byte(auth.SecretKey)
	return func(c *fiber.Ctx) error {
		if auth.Disabled {
			actor := c.Get(ActorHeader)
			if actor == "" {
				actor = "system"
			}
			c.Locals(ActorKey, actor)
			return c.Next()
		}

		aToken := c.Get(fiber.HeaderAuthorization)
		if aToken == "" {
			return http.WithRepErrMsg(c.Status(fiber.StatusUnauthorized), http.AuthorizationEmpty.Code, http.AuthorizationEmpty.Msg, c.Path())
		}

		parts := strings.SplitN(aToken, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return http.WithRepErrMsg(c.Status(fiber.StatusUnauthorized), http.TokenFormatIncorrect.Code, http.TokenFormatIncorrect.Msg, c.Path())
		}

		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			if errors.Is(err, goJwt.ErrTokenExpired) {
				return http.WithRepErrMsg(c.Status(fiber.StatusUnauthorized), http.TokenExpired.Code, http.TokenExpired.Msg, c.Path())
			}
			log.Warnw("parse token failed", "path", c.Path(), "error", err)
			return http.WithRepErrMsg(c.Status(fiber.StatusUnauthorized), http.InvalidToken.Code, http.InvalidToken.Msg, c.Path())
		}

		c.Locals(ActorKey, claims.UserId)
		return c.Next()
	}
}

// Actor returns the actor id stored by AuthorizationMiddleware.
func Actor(c *fiber.Ctx) string {
	if v, ok := c.Locals(ActorKey).(string); ok {
		return v
	}
	return ""
}
