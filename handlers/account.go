package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tournament-join-service/models"
	"tournament-join-service/services"
)

type AccountHandler struct {
	svc *services.AccountService
}

func SetupAccountRoutes(app *fiber.App, secured fiber.Router, svc *services.AccountService) {
	h := &AccountHandler{svc: svc}

	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	secured.Get("/users/profile", h.Profile)
}

func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	res, err := h.svc.Signup(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	res, err := h.svc.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *AccountHandler) Profile(c *fiber.Ctx) error {
	profile, err := h.svc.Profile(c.UserContext(), credential(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
