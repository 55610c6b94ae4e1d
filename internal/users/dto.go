package users

import (
	"strings"
	"time"

	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	"github.com/google/uuid"
)

// UserDTO is the transport shape of a user.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser holds the data required to persist a new user.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (n NewUser) normalized() NewUser {
	return NewUser{
		Username: strings.TrimSpace(n.Username),
		Email:    strings.ToLower(strings.TrimSpace(n.Email)),
	}
}
