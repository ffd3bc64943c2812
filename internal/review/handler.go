package review

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/uniapp-ecommerce/internal/user"
	"github.com/wichananm65/uniapp-ecommerce/internal/validation"
)

type Handler struct {
	service *Service
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"required,max=200"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products/:id<int>/reviews", h.listForProduct)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/products/:id<int>/reviews", h.create)
	app.Put("/api/v1/reviews/:id<int>", h.update)
	app.Delete("/api/v1/reviews/:id<int>", h.delete)
	app.Post("/api/v1/reviews/:id<int>/like", h.toggleLike)
}

func (h *Handler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/reviews/pending", h.listPending)
	router.Post("/reviews/:id<int>/approve", h.approve)
	router.Post("/reviews/:id<int>/reject", h.reject)
}

func actorFromCtx(c *fiber.Ctx) (Actor, error) {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: userID, Admin: user.IsAdminCtx(c)}, nil
}

func parseReview(c *fiber.Ctx) (Input, map[string]string, error) {
	payload := new(reviewRequest)
	if err := c.BodyParser(payload); err != nil {
		return Input{}, nil, err
	}
	if errs := validation.Struct(payload); errs != nil {
		return Input{}, errs, nil
	}
	return Input{Rating: payload.Rating, Title: payload.Title, Comment: payload.Comment}, nil, nil
}

func (h *Handler) listForProduct(c *fiber.Ctx) error {
	productID, _ := strconv.Atoi(c.Params("id"))
	viewerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		viewerID = 0
	}
	out, err := h.service.ForProduct(c.UserContext(), productID, viewerID, c.QueryInt("page", 1))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *Handler) create(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Vous devez être connecté pour laisser un avis."})
	}
	productID, _ := strconv.Atoi(c.Params("id"))
	in, errs, err := parseReview(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Veuillez corriger les erreurs du formulaire.",
			"errors":  errs,
		})
	}

	created, err := h.service.Create(c.UserContext(), actor, productID, in)
	if err != nil {
		return writeError(c, err)
	}
	message := "Votre avis a été enregistré avec succès !"
	if !created.IsApproved {
		message = "Votre avis a été soumis et sera publié après modération."
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message, "review": created})
}

func (h *Handler) update(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	id, _ := strconv.Atoi(c.Params("id"))
	in, errs, err := parseReview(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Veuillez corriger les erreurs du formulaire.",
			"errors":  errs,
		})
	}

	updated, err := h.service.Update(c.UserContext(), actor, id, in)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Vous n'êtes pas autorisé à modifier cet avis."})
		}
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Votre avis a été mis à jour avec succès !", "review": updated})
}

func (h *Handler) delete(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	id, _ := strconv.Atoi(c.Params("id"))
	if _, err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		if errors.Is(err, ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Vous n'êtes pas autorisé à supprimer cet avis."})
		}
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Votre avis a été supprimé avec succès."})
}

func (h *Handler) toggleLike(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Authentification requise."})
	}
	id, _ := strconv.Atoi(c.Params("id"))
	liked, count, err := h.service.ToggleLike(c.UserContext(), userID, id)
	if err != nil {
		if errors.Is(err, ErrOwnReview) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Vous ne pouvez pas aimer votre propre avis.",
			})
		}
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "liked": liked, "likesCount": count})
}

func (h *Handler) listPending(c *fiber.Ctx) error {
	list, err := h.service.Pending(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) approve(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	if err := h.service.Approve(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "L'avis a été approuvé."})
}

func (h *Handler) reject(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	if err := h.service.Reject(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "L'avis a été rejeté."})
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Avis introuvable."})
	case errors.Is(err, ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Produit introuvable."})
	case errors.Is(err, ErrAlreadyReviewed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Vous avez déjà laissé un avis pour ce produit."})
	case errors.Is(err, ErrNotPurchased):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Seuls les clients ayant acheté ce produit peuvent laisser un avis."})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
