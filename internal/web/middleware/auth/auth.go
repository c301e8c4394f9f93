package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/authrelay/authrelay/internal/web/session"
)

// LocalsUser is the fiber.Locals key holding the authenticated user.
const LocalsUser = "CurrentUser"

// LocalsProvider is the fiber.Locals key holding the provider name of the
// session.
const LocalsProvider = "CurrentProvider"

// Middleware is a Fiber middleware that requires a valid session.
func Middleware(c *fiber.Ctx) error {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	if sessData.User.ID == 0 {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	c.Locals(LocalsUser, sessData.User)
	c.Locals(LocalsProvider, sessData.ProviderName)

	return c.Next()
}
