package handlers

import (
	"context"

	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/services"

	"github.com/gofiber/fiber/v2"
)

type profileChange func(ctx context.Context, actor *models.User, username string) (models.Profile, error)

// ProfileHandler handles HTTP requests for profiles and follows.
type ProfileHandler struct {
	authService    *services.AuthService
	profileService *services.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(authService *services.AuthService, profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		authService:    authService,
		profileService: profileService,
	}
}

// RegisterRoutes registers the profile routes with the Fiber app.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	tokens := h.authService.Tokens()
	profiles := router.Group("/profiles")
	profiles.Get("/:username", middleware.AuthOptional(tokens), h.HandleGetProfile)
	profiles.Post("/:username/follow", middleware.AuthRequired(tokens), h.HandleFollow)
	profiles.Delete("/:username/follow", middleware.AuthRequired(tokens), h.HandleUnfollow)
}

// HandleGetProfile returns the profile as seen by the optional viewer.
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	viewer, err := h.authService.OptionalViewer(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	profile, err := h.profileService.GetProfile(c.UserContext(), c.Params("username"), viewer)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}

// HandleFollow makes the authenticated user follow the profile.
func (h *ProfileHandler) HandleFollow(c *fiber.Ctx) error {
	return h.changeFollow(c, h.profileService.Follow)
}

// HandleUnfollow makes the authenticated user stop following the profile.
func (h *ProfileHandler) HandleUnfollow(c *fiber.Ctx) error {
	return h.changeFollow(c, h.profileService.Unfollow)
}

func (h *ProfileHandler) changeFollow(c *fiber.Ctx, apply profileChange) error {
	actor, err := h.authService.RequireViewer(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	profile, err := apply(c.UserContext(), actor, c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}
