package recommended

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/uniapp-ecommerce/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterPublicRoutes expects user.OptionalAuth to run first so signed-in
// callers get personalised results.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/ai/recommendations", h.getRecommendations)
	app.Get("/api/v1/ai/history", h.getHistory)
	app.Get("/api/v1/ai/suggestions", h.getSuggestions)
}

func viewer(c *fiber.Ctx) int {
	id, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return 0
	}
	return id
}

func (h *Handler) getRecommendations(c *fiber.Ctx) error {
	items, err := h.service.Recommendations(c.UserContext(), viewer(c), c.QueryInt("limit", DefaultTopN))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"recommendations": items})
}

func (h *Handler) getHistory(c *fiber.Ctx) error {
	items, err := h.service.FromHistory(c.UserContext(), viewer(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"suggestions": items})
}

func (h *Handler) getSuggestions(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Utilisateur non authentifié"})
	}
	items, err := h.service.Suggestions(c.UserContext(), userID, c.QueryInt("limit", DefaultSuggestLimit))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Erreur lors de la récupération des suggestions"})
	}
	return c.JSON(fiber.Map{"suggestions": items})
}
