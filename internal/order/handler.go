package order

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/uniapp-ecommerce/internal/user"
)

// Handler delegates order operations to the order service.
type Handler struct {
	service *Service
}

type idsRequest struct {
	IDs []int `json:"ids"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/orders", h.createOrder)
	app.Get("/api/v1/orders", h.getOrders)
	app.Get("/api/v1/orders/:id<int>", h.getOrder)
	app.Post("/api/v1/orders/:id<int>/cancel", h.cancelOrder)
}

func (h *Handler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/orders", h.listOrders)
	router.Post("/orders/deliver", h.markDelivered)
	router.Post("/orders/cancel", h.cancelOrders)
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	payload := new(Shipping)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	placed, err := h.service.Place(c.UserContext(), userID, *payload)
	if err != nil {
		var stockErr *StockError
		switch {
		case errors.Is(err, ErrMissingShipping):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Veuillez remplir tous les champs obligatoires."})
		case errors.Is(err, ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Votre panier est vide."})
		case errors.As(err, &stockErr):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": stockErr.Error(), "shortages": stockErr.Shortages})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Une erreur est survenue lors de la création de votre commande. Veuillez réessayer.",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Votre commande a été passée avec succès !",
		"order":   placed,
	})
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	history, err := h.service.History(c.UserContext(), userID, c.QueryInt("page", 1))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(history)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	id, _ := strconv.Atoi(c.Params("id"))

	o, err := h.service.Get(c.UserContext(), id, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Commande introuvable."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(o)
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	id, _ := strconv.Atoi(c.Params("id"))

	o, err := h.service.Cancel(c.UserContext(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Commande introuvable."})
		case errors.Is(err, ErrNotCancellable):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cette commande ne peut pas être annulée."})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("La commande #%d a été annulée avec succès.", o.ID),
		"order":   o,
	})
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !ValidStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Statut inconnu."})
	}
	orders, err := h.service.List(c.UserContext(), status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(orders)
}

func (h *Handler) markDelivered(c *fiber.Ctx) error {
	payload := new(idsRequest)
	if err := c.BodyParser(payload); err != nil || len(payload.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Aucune commande sélectionnée."})
	}
	n, err := h.service.MarkDelivered(c.UserContext(), payload.IDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"updated": n, "message": fmt.Sprintf("%d commande(s) marquée(s) comme livrée(s).", n)})
}

func (h *Handler) cancelOrders(c *fiber.Ctx) error {
	payload := new(idsRequest)
	if err := c.BodyParser(payload); err != nil || len(payload.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Aucune commande sélectionnée."})
	}
	n, err := h.service.CancelMany(c.UserContext(), payload.IDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"updated": n, "message": fmt.Sprintf("%d commande(s) annulée(s).", n)})
}
