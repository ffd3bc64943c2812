package cart

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/uniapp-ecommerce/internal/user"
)

// Handler delegates cart operations to the cart service.
type Handler struct {
	service *Service
}

type addRequest struct {
	ProductID int  `json:"productId"`
	Quantity  *int `json:"quantity,omitempty"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Delete("/api/v1/cart", h.clearCart)
	app.Get("/api/v1/cart/count", h.countItems)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Put("/api/v1/cart/items/:id<int>", h.updateItem)
	app.Delete("/api/v1/cart/items/:id<int>", h.removeItem)
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	cart, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(cart)
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	payload := new(addRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}

	result, err := h.service.Add(c.UserContext(), userID, payload.ProductID, qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	itemID, _ := strconv.Atoi(c.Params("id"))
	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	removed, err := h.service.UpdateQuantity(c.UserContext(), userID, itemID, payload.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	message := "La quantité a été mise à jour."
	if removed {
		message = "L'article a été retiré de votre panier."
	}
	cart, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": message, "cart": cart})
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	itemID, _ := strconv.Atoi(c.Params("id"))

	name, err := h.service.Remove(c.UserContext(), userID, itemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("%s a été retiré de votre panier.", name)})
}

func (h *Handler) countItems(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	count, err := h.service.Count(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	if err := h.service.Clear(c.UserContext(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Votre panier a été vidé."})
}

func writeError(c *fiber.Ctx, err error) error {
	var stockErr *StockError
	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"message":   stockErr.Error(),
			"available": stockErr.Available,
		})
	case errors.Is(err, ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "La quantité doit être supérieure à zéro."})
	case errors.Is(err, ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Produit introuvable."})
	case errors.Is(err, ErrItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Article introuvable dans votre panier."})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
}
