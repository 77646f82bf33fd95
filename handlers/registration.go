package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"tournament-join-service/middleware"
	"tournament-join-service/models"
	"tournament-join-service/services"
)

type RecordsLister interface {
	RecordsForUser(ctx context.Context, userID string) ([]models.RegistrationRecord, error)
}

type RegistrationHandler struct {
	sessions       *services.SessionManager
	records        RecordsLister
	streamInterval time.Duration
}

func SetupRegistrationRoutes(app *fiber.App, secured fiber.Router, auth *middleware.Authenticator, sessions *services.SessionManager, records RecordsLister) {
	h := &RegistrationHandler{sessions: sessions, records: records, streamInterval: time.Second}

	secured.Post("/tournaments/:id/sessions", h.Start)
	secured.Get("/sessions/:sid", h.Get)
	secured.Delete("/sessions/:sid", h.Close)

	// Roster
	secured.Put("/sessions/:sid/team", h.SetTeamName)
	secured.Post("/sessions/:sid/teammates", h.AddTeammate)
	secured.Patch("/sessions/:sid/teammates/:index", h.UpdateTeammate)
	secured.Delete("/sessions/:sid/teammates/:index", h.RemoveTeammate)

	// Join and payment
	secured.Post("/sessions/:sid/submit", h.Submit)
	secured.Post("/sessions/:sid/payment/success", h.PaymentSuccess)
	secured.Post("/sessions/:sid/payment/failure", h.PaymentFailure)
	secured.Post("/sessions/:sid/retry", h.Retry)
	secured.Post("/sessions/:sid/reopen", h.Reopen)

	if records != nil {
		secured.Get("/registrations", h.History)
	}

	app.Get("/events/sessions/:sid", middleware.SSEAuth(auth), h.Stream)
}

func (h *RegistrationHandler) session(c *fiber.Ctx) (*services.Controller, error) {
	return h.sessions.Get(userID(c), c.Params("sid"))
}

func (h *RegistrationHandler) Start(c *fiber.Ctx) error {
	ctl, err := h.sessions.Start(c.UserContext(), credential(c), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ctl.Snapshot())
}

func (h *RegistrationHandler) Get(c *fiber.Ctx) error {
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ctl.Snapshot())
}

func (h *RegistrationHandler) Close(c *fiber.Ctx) error {
	if err := h.sessions.Close(userID(c), c.Params("sid")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RegistrationHandler) SetTeamName(c *fiber.Ctx) error {
	var body struct {
		TeamName string `json:"teamName"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := ctl.SetTeamName(body.TeamName)
	return respondSession(c, snap, err)
}

func (h *RegistrationHandler) AddTeammate(c *fiber.Ctx) error {
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := ctl.AddTeammate()
	return respondSession(c, snap, err)
}

func (h *RegistrationHandler) UpdateTeammate(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid teammate index"})
	}
	var body struct {
		PlayerID    *string `json:"playerId"`
		DisplayName *string `json:"displayName"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}

	snap := ctl.Snapshot()
	if body.PlayerID != nil {
		if snap, err = ctl.SetTeammateField(index, models.FieldPlayerID, *body.PlayerID); err != nil {
			return respondSession(c, snap, err)
		}
	}
	if body.DisplayName != nil {
		if snap, err = ctl.SetTeammateField(index, models.FieldDisplayName, *body.DisplayName); err != nil {
			return respondSession(c, snap, err)
		}
	}
	return c.JSON(snap)
}

func (h *RegistrationHandler) RemoveTeammate(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid teammate index"})
	}
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := ctl.RemoveTeammate(index)
	return respondSession(c, snap, err)
}

func (h *RegistrationHandler) Submit(c *fiber.Ctx) error {
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := ctl.Submit(c.UserContext(), credential(c))
	return respondSession(c, snap, err)
}

func (h *RegistrationHandler) PaymentSuccess(c *fiber.Ctx) error {
	var receipt models.PaymentReceipt
	if err := c.BodyParser(&receipt); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := ctl.CompletePayment(c.UserContext(), credential(c), receipt)
	return respondSession(c, snap, err)
}

func (h *RegistrationHandler) PaymentFailure(c *fiber.Ctx) error {
	var body struct {
		Reason string `json:"reason"`
	}
	// An empty body is a plain dismissal.
	_ = c.BodyParser(&body)
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := ctl.FailPayment(body.Reason)
	return respondSession(c, snap, err)
}

func (h *RegistrationHandler) Retry(c *fiber.Ctx) error {
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := ctl.Retry()
	return respondSession(c, snap, err)
}

func (h *RegistrationHandler) Reopen(c *fiber.Ctx) error {
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := ctl.Reopen()
	return respondSession(c, snap, err)
}

func (h *RegistrationHandler) History(c *fiber.Ctx) error {
	records, err := h.records.RecordsForUser(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"registrations": records})
}

func (h *RegistrationHandler) Stream(c *fiber.Ctx) error {
	ctl, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return services.StreamSession(c, ctl, h.streamInterval, h.sessions.Logger())
}
