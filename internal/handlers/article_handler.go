package handlers

import (
	"context"

	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/services"

	"github.com/gofiber/fiber/v2"
)

type articleChange func(ctx context.Context, actor *models.User, slug string) (models.ArticleView, error)

// ArticleHandler handles HTTP requests for articles and favorites.
type ArticleHandler struct {
	authService    *services.AuthService
	articleService *services.ArticleService
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(authService *services.AuthService, articleService *services.ArticleService) *ArticleHandler {
	return &ArticleHandler{
		authService:    authService,
		articleService: articleService,
	}
}

// RegisterRoutes registers the article routes with the Fiber app.
func (h *ArticleHandler) RegisterRoutes(router fiber.Router) {
	tokens := h.authService.Tokens()
	articles := router.Group("/articles")
	articles.Post("", middleware.AuthRequired(tokens), h.HandleCreateArticle)
	articles.Get("/:slug", middleware.AuthOptional(tokens), h.HandleGetArticle)
	articles.Post("/:slug/favorite", middleware.AuthRequired(tokens), h.HandleFavorite)
	articles.Delete("/:slug/favorite", middleware.AuthRequired(tokens), h.HandleUnfavorite)
}

type createArticleRequest struct {
	Article services.CreateArticleInput `json:"article"`
}

// HandleCreateArticle publishes an article for the authenticated user.
func (h *ArticleHandler) HandleCreateArticle(c *fiber.Ctx) error {
	var req createArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	author, err := h.authService.RequireViewer(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	article, err := h.articleService.Create(c.UserContext(), author, req.Article)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"article": article})
}

// HandleGetArticle returns the article as seen by the optional viewer.
func (h *ArticleHandler) HandleGetArticle(c *fiber.Ctx) error {
	viewer, err := h.authService.OptionalViewer(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	article, err := h.articleService.Get(c.UserContext(), c.Params("slug"), viewer)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"article": article})
}

// HandleFavorite adds the article to the authenticated user's favorites.
func (h *ArticleHandler) HandleFavorite(c *fiber.Ctx) error {
	return h.changeFavorite(c, h.articleService.Favorite)
}

// HandleUnfavorite removes the article from the authenticated user's favorites.
func (h *ArticleHandler) HandleUnfavorite(c *fiber.Ctx) error {
	return h.changeFavorite(c, h.articleService.Unfavorite)
}

func (h *ArticleHandler) changeFavorite(c *fiber.Ctx, apply articleChange) error {
	actor, err := h.authService.RequireViewer(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	article, err := apply(c.UserContext(), actor, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"article": article})
}
