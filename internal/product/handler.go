package product

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/uniapp-ecommerce/internal/category"
	"github.com/wichananm65/uniapp-ecommerce/internal/validation"
)

type Handler struct {
	service *Service
}

type productRequest struct {
	Reference       string              `json:"reference" validate:"max=50"`
	Name            string              `json:"name" validate:"required,max=200"`
	Description     string              `json:"description"`
	Summary         string              `json:"summary" validate:"max=255"`
	Price           decimal.Decimal     `json:"price"`
	PromoPrice      decimal.NullDecimal `json:"promoPrice"`
	InStock         *bool               `json:"inStock,omitempty"`
	Quantity        int                 `json:"quantity" validate:"gte=0"`
	CategoryID      *int                `json:"categoryId,omitempty"`
	IsActive        *bool               `json:"isActive,omitempty"`
	IsNew           bool                `json:"isNew"`
	IsBestSeller    bool                `json:"isBestSeller"`
	MetaTitle       string              `json:"metaTitle" validate:"max=70"`
	MetaDescription string              `json:"metaDescription" validate:"max=160"`
}

type imageRequest struct {
	URL    string `json:"url" validate:"required"`
	Alt    string `json:"alt" validate:"max=200"`
	IsMain bool   `json:"isMain"`
	Order  int    `json:"order" validate:"gte=0"`
}

type featureRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=255"`
	Order int    `json:"order" validate:"gte=0"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/home", h.getHome)
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/:slug", h.getProduct)
	app.Get("/api/v1/search", h.search)
	app.Get("/api/v1/catalog/new", h.getNewArrivals)
	app.Get("/api/v1/catalog/promotions", h.getPromotions)
}

func (h *Handler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/products/:id<int>", h.getProductByID)
	router.Post("/products", h.createProduct)
	router.Put("/products/:id<int>", h.updateProduct)
	router.Delete("/products/:id<int>", h.deleteProduct)
	router.Post("/products/:id<int>/images", h.addImage)
	router.Post("/products/:id<int>/features", h.addFeature)
}

func (h *Handler) getHome(c *fiber.Ctx) error {
	home, err := h.service.Home(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(home)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), ListQuery{
		CategorySlug: c.Query("categorie"),
		Query:        c.Query("q"),
		Sort:         c.Query("tri"),
		Page:         c.QueryInt("page", 1),
	})
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Catégorie introuvable."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{
		"products": page,
		"query":    c.Query("q"),
		"sort":     validSort(c.Query("tri")),
	})
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	detail, err := h.service.Detail(c.UserContext(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Produit introuvable."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(detail)
}

func (h *Handler) search(c *fiber.Ctx) error {
	query := c.Query("q")
	page, err := h.service.Search(c.UserContext(), query, c.QueryInt("page", 1))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"query": query, "products": page})
}

func (h *Handler) getNewArrivals(c *fiber.Ctx) error {
	page, err := h.service.NewArrivals(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{
		"title":       "Nouveautés",
		"description": "Découvrez nos derniers produits ajoutés au catalogue.",
		"products":    page,
	})
}

func (h *Handler) getPromotions(c *fiber.Ctx) error {
	page, err := h.service.Promotions(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{
		"title":       "Promotions",
		"description": "Profitez de nos offres spéciales et promotions en cours.",
		"products":    page,
	})
}

func (h *Handler) getProductByID(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) parseProduct(c *fiber.Ctx) (Product, map[string]string, error) {
	payload := new(productRequest)
	if err := c.BodyParser(payload); err != nil {
		return Product{}, nil, err
	}
	errs := validation.Struct(payload)
	if payload.Price.LessThan(minPrice) {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["price"] = "Le prix doit être supérieur ou égal à 0,01."
	}
	if payload.PromoPrice.Valid && payload.PromoPrice.Decimal.LessThan(minPrice) {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["promoPrice"] = "Le prix promotionnel doit être supérieur ou égal à 0,01."
	}
	if errs != nil {
		return Product{}, errs, nil
	}

	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	inStock := payload.Quantity > 0
	if payload.InStock != nil {
		inStock = *payload.InStock
	}
	return Product{
		Reference:       payload.Reference,
		Name:            payload.Name,
		Description:     payload.Description,
		Summary:         payload.Summary,
		Price:           payload.Price,
		PromoPrice:      payload.PromoPrice,
		InStock:         inStock,
		Quantity:        payload.Quantity,
		CategoryID:      payload.CategoryID,
		IsActive:        active,
		IsNew:           payload.IsNew,
		IsBestSeller:    payload.IsBestSeller,
		MetaTitle:       payload.MetaTitle,
		MetaDescription: payload.MetaDescription,
	}, nil, nil
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	p, errs, err := h.parseProduct(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Produit invalide.", "errors": errs})
	}

	created, err := h.service.Create(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	p, errs, err := h.parseProduct(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Produit invalide.", "errors": errs})
	}

	updated, err := h.service.Update(c.UserContext(), id, p)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) addImage(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	payload := new(imageRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Image invalide.", "errors": errs})
	}

	img, err := h.service.AddImage(c.UserContext(), id, Image{
		URL:      payload.URL,
		Alt:      payload.Alt,
		IsMain:   payload.IsMain,
		Position: payload.Order,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}

func (h *Handler) addFeature(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	payload := new(featureRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Caractéristique invalide.", "errors": errs})
	}

	f, err := h.service.AddFeature(c.UserContext(), id, Feature{
		Name:     payload.Name,
		Value:    payload.Value,
		Position: payload.Order,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Produit introuvable."})
	case errors.Is(err, ErrReferenceExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Un produit avec cette référence existe déjà."})
	case errors.Is(err, ErrInvalidPrice):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Le prix doit être supérieur ou égal à 0,01."})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
