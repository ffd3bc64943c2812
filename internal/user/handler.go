package user

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/uniapp-ecommerce/internal/validation"
)

type Handler struct {
	service *Service
}

type loginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username   string `json:"username" validate:"required,max=150"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"firstName" validate:"required,max=150"`
	LastName   string `json:"lastName" validate:"required,max=150"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Address    string `json:"address" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

type profileUpdateRequest struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName  *string `json:"firstName,omitempty" validate:"omitempty,max=150"`
	LastName   *string `json:"lastName,omitempty" validate:"omitempty,max=150"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country    *string `json:"country,omitempty" validate:"omitempty,max=100"`
}

type passwordChangeRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=client admin"`
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/sign-in", h.login)
	app.Post("/api/v1/sign-up", h.register)
	app.Post("/api/v1/sign-out", h.logout)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/profile", h.getProfile)
	// PATCH and PUT share the partial-update handler
	app.Put("/api/v1/profile", h.updateProfile)
	app.Patch("/api/v1/profile", h.updateProfile)
	app.Post("/api/v1/profile/password", h.changePassword)
}

func (h *Handler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/users", h.listUsers)
	router.Get("/users/:id<int>", h.getUser)
	router.Patch("/users/:id<int>/role", h.setRole)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	login := payload.Login
	if login == "" {
		login = payload.Email
	}
	if login == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Identifiant et mot de passe requis."})
	}

	user, err := h.service.Authenticate(c.UserContext(), login, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Identifiant ou mot de passe incorrect."})
	}

	signed, err := h.service.IssueToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"message": "Connexion réussie.",
		"user":    sanitizeUser(user),
		"token":   signed,
	})
}

func (h *Handler) logout(c *fiber.Ctx) error {
	// tokens are stateless; the client drops its copy
	return c.JSON(fiber.Map{"message": "Vous avez été déconnecté."})
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Veuillez corriger les erreurs du formulaire.",
			"errors":  errs,
		})
	}

	created, err := h.service.Register(c.UserContext(), User{
		Username:   payload.Username,
		Email:      payload.Email,
		Password:   payload.Password,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Phone:      payload.Phone,
		Address:    payload.Address,
		City:       payload.City,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Un compte existe déjà avec cette adresse e-mail."})
		case errors.Is(err, ErrUsernameExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Ce nom d'utilisateur est déjà pris."})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(sanitizeUser(created))
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}

	user, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Utilisateur introuvable."})
	}

	return c.JSON(sanitizeUser(user))
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}

	payload := new(profileUpdateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Veuillez corriger les erreurs du formulaire.",
			"errors":  errs,
		})
	}

	updated, err := h.service.UpdateProfile(c.UserContext(), userID, ProfileUpdate{
		Email:      payload.Email,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Phone:      payload.Phone,
		Address:    payload.Address,
		City:       payload.City,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Utilisateur introuvable."})
		case errors.Is(err, ErrEmailExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Un compte existe déjà avec cette adresse e-mail."})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	return c.JSON(fiber.Map{"message": "Votre profil a été mis à jour.", "user": sanitizeUser(updated)})
}

func (h *Handler) changePassword(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}

	payload := new(passwordChangeRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Veuillez corriger les erreurs du formulaire.",
			"errors":  errs,
		})
	}

	if err := h.service.ChangePassword(c.UserContext(), userID, payload.OldPassword, payload.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Votre ancien mot de passe est incorrect."})
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Utilisateur introuvable."})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	return c.JSON(fiber.Map{"message": "Votre mot de passe a été modifié avec succès."})
}

func (h *Handler) listUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	response := make([]User, 0, len(users))
	for _, user := range users {
		response = append(response, sanitizeUser(user))
	}
	return c.JSON(response)
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Utilisateur introuvable."})
	}
	return c.JSON(sanitizeUser(user))
}

func (h *Handler) setRole(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	payload := new(roleRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Rôle invalide.", "errors": errs})
	}

	updated, err := h.service.SetRole(c.UserContext(), userID, payload.Role)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Utilisateur introuvable."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(sanitizeUser(updated))
}
