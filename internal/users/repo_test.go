package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.AdminUser{}))
	return NewRepository(conn)
}

func TestCreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inactive := false
	created, err := repo.Create(ctx, CreateUserDTO{Email: "ada@example.com", PasswordHash: "h", Name: "Ada", IsActive: &inactive})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, enums.AdminRoleEditor, created.Role)
	assert.False(t, created.IsActive)

	found, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUpdateLastLoginAndPassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created, err := repo.Create(ctx, CreateUserDTO{Email: "a@b.co", PasswordHash: "old", Name: "A", Role: enums.AdminRoleOwner})
	require.NoError(t, err)

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))
	require.NoError(t, repo.UpdatePasswordHash(ctx, created.ID, "new"))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, found.LastLoginAt.Equal(at))
	assert.Equal(t, "new", found.PasswordHash)

	dto := FromModel(found)
	assert.Equal(t, enums.AdminRoleOwner, dto.Role)
	assert.Nil(t, FromModel(nil))
}
