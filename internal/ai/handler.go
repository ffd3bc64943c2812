package ai

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/wichananm65/uniapp-ecommerce/internal/user"
)

type Handler struct {
	service *Service
}

type chatRequest struct {
	Question string `json:"question"`
}

type translateBody struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	SourceLang string `json:"source_lang"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RateLimit caps requests per client IP over window.
func RateLimit(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Trop de requêtes, veuillez réessayer dans un instant."})
		},
	})
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.All("/api/v1/ai/chatbot", h.chatbot)
	app.All("/api/v1/ai/translate", h.translate)
	app.Get("/api/v1/ai/sentiment", h.sentiment)
	app.Post("/api/v1/ai/image-search", h.imageSearch)
	app.Get("/api/v1/ai/filtering", h.filtering)
	app.Get("/api/v1/ai/descgen", h.describe)
	app.Get("/api/v1/ai/smartsearch", h.smartSearch)
	app.All("/api/v1/ai/review-summary", h.reviewSummary)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/ai/translations", h.listTranslations)
}

func methodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Méthode non autorisée"})
}

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON)
}

func (h *Handler) chatbot(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return methodNotAllowed(c)
	}
	if !isJSON(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Content-Type doit être application/json"})
	}
	var payload chatRequest
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Corps de requête JSON invalide"})
	}
	question := strings.TrimSpace(payload.Question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": `Le champ "question" est requis`})
	}
	return c.JSON(fiber.Map{"answer": h.service.Ask(question), "status": "success"})
}

func (h *Handler) translate(c *fiber.Ctx) error {
	var req TranslateRequest
	switch c.Method() {
	case fiber.MethodGet:
		req = TranslateRequest{Text: c.Query("text"), Target: c.Query("lang"), Source: c.Query("source")}
	case fiber.MethodPost:
		var body translateBody
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Corps de requête JSON invalide"})
		}
		req = TranslateRequest{Text: body.Text, Target: body.TargetLang, Source: body.SourceLang}
	default:
		return methodNotAllowed(c)
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Le texte à traduire est requis"})
	}

	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		userID = 0
	}
	out, err := h.service.Translate(c.UserContext(), userID, req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "error": err.Error()})
	}
	return c.JSON(out)
}

func (h *Handler) listTranslations(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	list, err := h.service.Translations(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"translations": list})
}

func (h *Handler) sentiment(c *fiber.Ctx) error {
	return c.JSON(h.service.Sentiment(c.Query("text")))
}

func (h *Handler) imageSearch(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"results": h.service.ImageSearch()})
}

func (h *Handler) filtering(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"filtered": h.service.Filter()})
}

func (h *Handler) describe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"description": h.service.Describe(c.Query("nom", "Produit"))})
}

func (h *Handler) smartSearch(c *fiber.Ctx) error {
	results, err := h.service.SmartSearch(c.UserContext(), c.Query("query"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"results": results})
}

func (h *Handler) reviewSummary(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodGet {
		return methodNotAllowed(c)
	}
	productID := c.QueryInt("product_id", 0)
	if productID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Le paramètre product_id est requis"})
	}
	summary, err := h.service.ReviewSummary(c.UserContext(), productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"summary": summary})
}
