package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"tournament-join-service/middleware"
	"tournament-join-service/services"
)

// respondError maps service errors to HTTP status codes and a JSON body.
func respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	var berr *services.BackendError

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, services.ErrAuthenticationRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrTournamentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPhase), errors.Is(err, services.ErrSessionClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUploadsDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPaymentConfig):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": services.UserMessage(err)})
	case errors.As(err, &berr):
		status := berr.StatusCode
		if status < 400 || status >= 500 {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{"error": services.UserMessage(err)})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": http.StatusText(http.StatusInternalServerError)})
}

// respondSession answers with the snapshot, plus the error when there is one.
// Validation and backend failures still carry the session so the client can render its phase.
func respondSession(c *fiber.Ctx, snap any, err error) error {
	if err == nil {
		return c.JSON(snap)
	}
	var verr *services.ValidationError
	var berr *services.BackendError
	if errors.As(err, &verr) || errors.As(err, &berr) || errors.Is(err, services.ErrInvalidPaymentConfig) {
		status := fiber.StatusBadRequest
		body := fiber.Map{"error": services.UserMessage(err), "session": snap}
		if verr != nil {
			body["error"] = "validation failed"
			body["fields"] = verr.Fields
		} else {
			status = fiber.StatusBadGateway
			if berr != nil && berr.StatusCode >= 400 && berr.StatusCode < 500 {
				status = berr.StatusCode
			}
		}
		return c.Status(status).JSON(body)
	}
	return respondError(c, err)
}

func credential(c *fiber.Ctx) services.Credential {
	token, _ := c.Locals(middleware.LocalToken).(string)
	return services.Credential{Token: token}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	return id
}
