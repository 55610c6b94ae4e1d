package users

import (
	"context"
	"time"

	"github.com/angelmondragon/photoalbum-backend/pkg/db"
	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes user persistence backed by GORM.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn, now: time.Now}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, in NewUser) (*models.User, error) {
	user, err := buildUser(in, r.now())
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		switch {
		case db.IsUniqueViolation(err, "username"):
			return nil, conflict("username", user.Username)
		case db.IsUniqueViolation(err, "email"):
			return nil, conflict("email", user.Email)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting user")
	}
	return user, nil
}

// GetByID loads a user by their UUID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.take(ctx, "id = ?", id)
}

// GetByUsername retrieves the user with the exact username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.take(ctx, "username = ?", username)
}

func (r *Repository) take(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return &user, nil
}
