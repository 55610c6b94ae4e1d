// Package users persists user accounts. Users are not linked to media yet.
package users

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/validate"
	"github.com/google/uuid"
)

// Store creates and looks up users. Lookups return (nil, nil) when absent.
type Store interface {
	Create(ctx context.Context, in NewUser) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

func buildUser(in NewUser, now time.Time) (*models.User, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating user id")
	}
	return &models.User{
		ID:        id,
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: now.UTC().Truncate(time.Microsecond),
	}, nil
}

func conflict(field, value string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, field+" is already taken").
		WithDetails(map[string]any{"field": field, "value": value})
}

// MemoryStore keeps users in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]models.User
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[uuid.UUID]models.User),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, in NewUser) (*models.User, error) {
	user, err := buildUser(in, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return nil, conflict("username", user.Username)
	}
	if _, taken := s.byEmail[user.Email]; taken {
		return nil, conflict("email", user.Email)
	}
	s.byID[user.ID] = *user
	s.byUsername[user.Username] = user.ID
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *MemoryStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	user := s.byID[id]
	return &user, nil
}
