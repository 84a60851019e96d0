package models

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// slugSuffixSpace bounds the random slug suffix to six base36 digits.
const slugSuffixSpace = 36 * 36 * 36 * 36 * 36 * 36

// Article represents authored content.
type Article struct {
	ID          string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Slug        string   `json:"slug" gorm:"uniqueIndex;type:varchar(255);not null"`
	Title       string   `json:"title" gorm:"type:varchar(255)"`
	Description string   `json:"description" gorm:"type:text"`
	Body        string   `json:"body" gorm:"type:text"`
	TagList     []string `json:"tagList" gorm:"serializer:json;type:text"`
	// FavoritesCount is derived from favorites rows; only the favorite counter writes it.
	FavoritesCount int64     `json:"favoritesCount" gorm:"not null;default:0"`
	AuthorID       string    `json:"author_id" gorm:"type:varchar(36);index;not null"`
	Author         User      `json:"author" gorm:"foreignKey:AuthorID"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Slugify replaces the slug with one derived from the title plus a random suffix.
func (a *Article) Slugify() {
	suffix := strconv.FormatInt(rand.Int63n(slugSuffixSpace), 36)
	a.Slug = strings.ToLower(slug.Make(a.Title) + "-" + suffix)
}

// EnsureSlug assigns a slug when none is set and lowercases an explicit one.
func (a *Article) EnsureSlug() {
	if a.Slug == "" {
		a.Slugify()
		return
	}
	a.Slug = strings.ToLower(a.Slug)
}

// BeforeCreate assigns the slug once, before the first insert.
func (a *Article) BeforeCreate(_ *gorm.DB) error {
	a.EnsureSlug()
	return nil
}
