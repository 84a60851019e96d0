package models

import "time"

// Follow is one member of a user's following set. The row belongs to the follower.
type Follow struct {
	FollowerID string    `json:"follower_id" gorm:"primaryKey;type:varchar(36)"`
	FolloweeID string    `json:"followee_id" gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// Favorite is one member of a user's favorites set. The row belongs to the user.
type Favorite struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	ArticleID string    `json:"article_id" gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Favorite) TableName() string {
	return "favorites"
}

// RelationshipEventType names a completed ledger mutation.
type RelationshipEventType string

const (
	EventFollowed    RelationshipEventType = "user.followed"
	EventUnfollowed  RelationshipEventType = "user.unfollowed"
	EventFavorited   RelationshipEventType = "article.favorited"
	EventUnfavorited RelationshipEventType = "article.unfavorited"
)

// RelationshipEvent is published after a follow or favorite change has been persisted.
type RelationshipEvent struct {
	Type       RelationshipEventType `json:"type"`
	ActorID    string                `json:"actor_id"`
	TargetID   string                `json:"target_id"`
	OccurredAt time.Time             `json:"occurred_at"`
}
