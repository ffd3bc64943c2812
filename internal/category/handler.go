package category

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/uniapp-ecommerce/internal/validation"
)

type Handler struct {
	service *Service
}

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,max=100"`
	Description string  `json:"description"`
	Image       *string `json:"image,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/categories", h.getCategories)
	app.Get("/api/v1/categories/:slug", h.getCategory)
}

func (h *Handler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/categories", h.getAllCategories)
	router.Post("/categories", h.createCategory)
	router.Put("/categories/:id<int>", h.updateCategory)
	router.Delete("/categories/:id<int>", h.deleteCategory)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	items, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(items)
}

func (h *Handler) getAllCategories(c *fiber.Ctx) error {
	items, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(items)
}

func (h *Handler) getCategory(c *fiber.Ctx) error {
	item, err := h.service.GetActiveBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Catégorie introuvable."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(item)
}

func (h *Handler) parse(c *fiber.Ctx) (Category, map[string]string, error) {
	payload := new(categoryRequest)
	if err := c.BodyParser(payload); err != nil {
		return Category{}, nil, err
	}
	if errs := validation.Struct(payload); errs != nil {
		return Category{}, errs, nil
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	return Category{
		Name:        payload.Name,
		Slug:        payload.Slug,
		Description: payload.Description,
		Image:       payload.Image,
		IsActive:    active,
	}, nil, nil
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	cat, errs, err := h.parse(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Catégorie invalide.", "errors": errs})
	}

	created, err := h.service.Create(c.UserContext(), cat)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateCategory(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	cat, errs, err := h.parse(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Catégorie invalide.", "errors": errs})
	}

	updated, err := h.service.Update(c.UserContext(), id, cat)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteCategory(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Catégorie introuvable."})
	case errors.Is(err, ErrNameExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Une catégorie porte déjà ce nom."})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
