package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/config"
)

// NewApp builds the fiber application. Errors raised before the middleware chain runs,
// such as oversized bodies, are rendered in the same envelope.
func NewApp(app config.AppConfig, intake config.IntakeConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               app.Name,
		BodyLimit:             intake.MaxBodyBytes,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := toDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}})
		},
	})
}
