package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Nothing in the media flow references it yet.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"column:username;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}
