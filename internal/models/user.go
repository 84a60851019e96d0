package models

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// Password derivation parameters. Changing any of them invalidates every stored hash.
const (
	passwordSaltBytes  = 16
	passwordIterations = 10000
	passwordKeyLength  = 512
)

// DefaultImage is shown for users that never set a profile image.
const DefaultImage = "https://static.productionready.io/images/smiley-cyrus.jpg"

// User represents an author and a participant of the follow and favorite graphs.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Bio          string    `json:"bio" gorm:"type:text"`
	Image        string    `json:"image" gorm:"type:varchar(512)"`
	PasswordSalt string    `json:"-" gorm:"type:varchar(64)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(1024)"`
	Favorites    IDSet     `json:"-" gorm:"-"` // article ids, loaded from favorites rows
	Following    IDSet     `json:"-" gorm:"-"` // user ids, loaded from follows rows
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SetPassword derives a fresh salt and hash for the plaintext, replacing any previous ones.
func (u *User) SetPassword(plaintext string) error {
	salt := make([]byte, passwordSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate password salt: %w", err)
	}
	u.PasswordSalt = hex.EncodeToString(salt)
	u.PasswordHash = derivePasswordHash(plaintext, u.PasswordSalt)
	return nil
}

// ValidPassword reports whether plaintext matches the stored hash.
// A user without a password never validates.
func (u *User) ValidPassword(plaintext string) bool {
	if u.PasswordSalt == "" || u.PasswordHash == "" {
		return false
	}
	candidate := derivePasswordHash(plaintext, u.PasswordSalt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(u.PasswordHash)) == 1
}

func derivePasswordHash(plaintext, salt string) string {
	key := pbkdf2.Key([]byte(plaintext), []byte(salt), passwordIterations, passwordKeyLength, sha512.New)
	return hex.EncodeToString(key)
}

// IsFollowing reports whether u follows the user with the given id.
func (u *User) IsFollowing(userID string) bool {
	return u.Following.Has(userID)
}

// IsFavorite reports whether u favorited the article with the given id.
func (u *User) IsFavorite(articleID string) bool {
	return u.Favorites.Has(articleID)
}
