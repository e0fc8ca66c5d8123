package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// userIDFromContext reads the authenticated user id stored by the JWT
// middleware.
func userIDFromContext(c *fiber.Ctx) (uint, bool) {
	value := c.Locals("user_id")
	if value == nil {
		return 0, false
	}

	id, ok := value.(uint)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}
