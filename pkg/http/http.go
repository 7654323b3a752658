package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/8 15:38
 * @file: http.go
 * @description: http server
 */

type Http struct {
	Host            string
	Port            int
	AccessLog       bool
	BodyLimit       int // 请求体大小上限（MB）
	ReadTimeout     int
	WriteTimeout    int
	IdleTimeout     int
	ShutdownTimeout int
	Auth            Auth
}

type Auth struct {
	SecretKey    string
	Issuer       string
	AccessExpire time.Duration // 分钟
	// Disabled skips token checks; the actor is then taken from X-Actor-Id.
	Disabled bool
}

// Addr returns host:port.
func (h Http) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// NewFiberApp builds the fiber application with timeouts from cfg and an error
// handler that renders every unhandled error in the unified envelope.
func NewFiberApp(cfg Http) *fiber.App {
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 4
	}
	return fiber.New(fiber.Config{
		AppName:               "guildsync",
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit * 1024 * 1024,
		ReadTimeout:           time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(cfg.IdleTimeout) * time.Second,
		ErrorHandler:          ErrorHandler,
	})
}

// ErrorHandler maps fiber errors to the envelope, everything else to 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := BadRequest.Code
		switch fe.Code {
		case fiber.StatusNotFound:
			code = NotFound.Code
		case fiber.StatusMethodNotAllowed:
			code = MethodNotAllowed.Code
		}
		return WithRepErrMsg(c.Status(fe.Code), code, fe.Message, c.Path())
	}
	return WithRepErrMsg(c.Status(fiber.StatusInternalServerError), InternalError.Code, InternalError.Msg, c.Path())
}
