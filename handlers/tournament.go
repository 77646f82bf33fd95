package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"tournament-join-service/models"
	"tournament-join-service/services"
)

type TournamentHandler struct {
	svc *services.TournamentService
}

func SetupTournamentRoutes(app *fiber.App, secured fiber.Router, svc *services.TournamentService) {
	h := &TournamentHandler{svc: svc}

	// 🔓 Public catalogue
	app.Get("/tournaments", h.List)
	app.Get("/tournaments/:id", h.Get)

	// 🔐 Organizer
	secured.Post("/tournaments", h.Create)
	secured.Put("/tournaments/:id", h.Update)
}

func (h *TournamentHandler) List(c *fiber.Ctx) error {
	list, err := h.svc.ListTournaments(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if game := strings.ToUpper(c.Query("game")); game != "" {
		filtered := list[:0:0]
		for _, t := range list {
			if string(t.Game) == game {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}
	return c.JSON(fiber.Map{"tournaments": list})
}

func (h *TournamentHandler) Get(c *fiber.Ctx) error {
	t, err := h.svc.GetTournament(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (h *TournamentHandler) Create(c *fiber.Ctx) error {
	in, thumb, err := parseTournamentInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	t, err := h.svc.CreateTournament(c.UserContext(), credential(c), in, thumb)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *TournamentHandler) Update(c *fiber.Ctx) error {
	in, thumb, err := parseTournamentInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	t, err := h.svc.UpdateTournament(c.UserContext(), credential(c), c.Params("id"), in, thumb)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

// parseTournamentInput accepts JSON or multipart; multipart may carry a "thumbnail" file.
func parseTournamentInput(c *fiber.Ctx) (models.TournamentInput, *multipart.FileHeader, error) {
	var in models.TournamentInput
	if err := c.BodyParser(&in); err != nil {
		return in, nil, err
	}
	in.Game = models.Game(strings.ToUpper(strings.TrimSpace(string(in.Game))))
	in.Format = models.Format(strings.ToUpper(strings.TrimSpace(string(in.Format))))

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return in, nil, nil
	}
	thumb, err := c.FormFile("thumbnail")
	if err != nil {
		// no file part
		return in, nil, nil
	}
	return in, thumb, nil
}
