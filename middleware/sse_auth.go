// middleware/sse_auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuth reads the token from the `token` query parameter, since EventSource cannot set headers.
//
// Usage:
//
//	app.Get("/events/sessions/:sid", middleware.SSEAuth(auth), handler.Stream)
func SSEAuth(a *Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token in query",
			})
		}
		return a.attach(c, token)
	}
}
