package handlers

import (
	"conduit/internal/middleware"
	"conduit/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration, login and the current user.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/users", h.HandleRegister)
	router.Post("/users/login", h.HandleLogin)
	router.Get("/user", middleware.AuthRequired(h.authService.Tokens()), h.HandleCurrentUser)
}

type registerRequest struct {
	User services.RegisterInput `json:"user"`
}

type loginRequest struct {
	User services.LoginInput `json:"user"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	user, err := h.authService.Register(c.UserContext(), req.User)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// HandleLogin exchanges credentials for the user's auth view and a fresh token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	user, err := h.authService.Login(c.UserContext(), req.User)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// HandleCurrentUser returns the authenticated user's auth view.
func (h *AuthHandler) HandleCurrentUser(c *fiber.Ctx) error {
	user, err := h.authService.CurrentUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
