package users

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	"github.com/angelmondragon/photoalbum-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Driver: config.StoreDriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "users.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, config.StoreDriverSQLite, "up"))
	return NewRepository(client.DB())
}

func backends(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"sqlite": func() Store { return newSQLiteRepository(t) },
	}
}

func TestCreateAndLookup(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := build()

			created, err := store.Create(ctx, NewUser{Username: " ana ", Email: "Ana@Example.com"})
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, created.ID)
			assert.Equal(t, "ana", created.Username)
			assert.Equal(t, "ana@example.com", created.Email)
			assert.False(t, created.CreatedAt.IsZero())

			byID, err := store.GetByID(ctx, created.ID)
			require.NoError(t, err)
			require.NotNil(t, byID)
			assert.Equal(t, created.Username, byID.Username)
			assert.True(t, created.CreatedAt.Equal(byID.CreatedAt))

			byName, err := store.GetByUsername(ctx, "ana")
			require.NoError(t, err)
			require.NotNil(t, byName)
			assert.Equal(t, created.ID, byName.ID)

			missing, err := store.GetByUsername(ctx, "bob")
			assert.NoError(t, err)
			assert.Nil(t, missing)

			missing, err = store.GetByID(ctx, uuid.New())
			assert.NoError(t, err)
			assert.Nil(t, missing)

			dto := FromModel(byName)
			assert.Equal(t, "ana@example.com", dto.Email)
			assert.Nil(t, FromModel(nil))
		})
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := build()

			_, err := store.Create(ctx, NewUser{Username: "ana", Email: "ana@example.com"})
			require.NoError(t, err)

			_, err = store.Create(ctx, NewUser{Username: "ana", Email: "other@example.com"})
			assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

			_, err = store.Create(ctx, NewUser{Username: "other", Email: "ANA@example.com"})
			assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
		})
	}
}

func TestCreateValidates(t *testing.T) {
	cases := map[string]NewUser{
		"missing username": {Email: "a@example.com"},
		"short username":   {Username: "ab", Email: "a@example.com"},
		"missing email":    {Username: "ana"},
		"bad email":        {Username: "ana", Email: "not-an-email"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMemoryStore().Create(context.Background(), in)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
}
