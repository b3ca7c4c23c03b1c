// Package validation decorates fiber handlers with request-body parsing
// and struct validation.
package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// DecorateWithBodyEx parses the request body into T, validates it, and
// hands it to the wrapped handler. Parse and validation failures become
// 400 responses before the handler runs.
func DecorateWithBodyEx[T any](v *validator.Validate, handler func(c *fiber.Ctx, req *T) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req T

		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := v.StructCtx(c.Context(), &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return handler(c, &req)
	}
}
