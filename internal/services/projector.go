package services

import "conduit/internal/models"

// ProjectUser renders target as seen by viewer. A nil viewer is anonymous.
func ProjectUser(target *models.User, viewer *models.User) models.Profile {
	image := target.Image
	if image == "" {
		image = models.DefaultImage
	}
	return models.Profile{
		Username:  target.Username,
		Bio:       target.Bio,
		Image:     image,
		Following: viewer != nil && viewer.IsFollowing(target.ID),
	}
}

// ProjectArticle renders article as seen by viewer. A nil viewer is anonymous.
func ProjectArticle(article *models.Article, viewer *models.User) models.ArticleView {
	tags := article.TagList
	if tags == nil {
		tags = []string{}
	}
	return models.ArticleView{
		Slug:           article.Slug,
		Title:          article.Title,
		Description:    article.Description,
		Body:           article.Body,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
		TagList:        tags,
		Favorited:      viewer != nil && viewer.IsFavorite(article.ID),
		FavoritesCount: article.FavoritesCount,
		Author:         ProjectUser(&article.Author, viewer),
	}
}

// ProjectAuth renders the user's own view with a session token.
func ProjectAuth(user *models.User, token string) models.AuthUser {
	return models.AuthUser{
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
		Bio:      user.Bio,
		Image:    user.Image,
	}
}
