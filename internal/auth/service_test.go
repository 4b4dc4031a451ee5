package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/folio-storefront/pkg/auth"
	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/db"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	testPasswordCfg = config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	testJWTCfg      = config.JWTConfig{Secret: "secret", Issuer: "folio", ExpirationMinutes: 60}
)

type fakeUsers struct {
	user      *models.AdminUser
	err       error
	lastLogin time.Time
	rehashed  string
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil || f.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *f.user
	return &clone, nil
}

func (f *fakeUsers) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin = at
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	f.rehashed = hash
	return nil
}

type fakeSessions struct {
	started map[string]uuid.UUID
	revoked []string
	err     error
}

func (f *fakeSessions) Start(ctx context.Context, accessID string, userID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if f.started == nil {
		f.started = map[string]uuid.UUID{}
	}
	f.started[accessID] = userID
	return nil
}

func (f *fakeSessions) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return f.err
}

func newUser(t *testing.T, password string, active bool) *models.AdminUser {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordCfg)
	require.NoError(t, err)
	return &models.AdminUser{ID: uuid.New(), Email: "owner@example.com", PasswordHash: hash, Name: "Owner", Role: enums.AdminRoleOwner, IsActive: active}
}

func newTestService(t *testing.T, repo *fakeUsers, sessions *fakeSessions) Service {
	t.Helper()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTCfg,
		PasswordConfig: testPasswordCfg,
		Now:            func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

func TestLoginIssuesTokenAndSession(t *testing.T) {
	repo := &fakeUsers{user: newUser(t, "correct horse", true)}
	sessions := &fakeSessions{}
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Owner@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, repo.user.ID, resp.User.ID)
	assert.Equal(t, time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC), resp.ExpiresAt)
	assert.False(t, repo.lastLogin.IsZero())
	assert.Empty(t, repo.rehashed)

	claims, err := pkgAuth.ParseAccessTokenAt(testJWTCfg, resp.AccessToken, time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, repo.user.ID, sessions.started[claims.ID])
	assert.Equal(t, enums.AdminRoleOwner, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	cases := map[string]struct {
		user     *models.AdminUser
		email    string
		password string
	}{
		"unknown email":  {user: newUser(t, "pw-123456", true), email: "other@example.com", password: "pw-123456"},
		"wrong password": {user: newUser(t, "pw-123456", true), email: "owner@example.com", password: "nope"},
		"inactive":       {user: newUser(t, "pw-123456", false), email: "owner@example.com", password: "pw-123456"},
		"blank":          {user: newUser(t, "pw-123456", true), email: " ", password: "pw-123456"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(t, &fakeUsers{user: tc.user}, &fakeSessions{})
			_, err := svc.Login(context.Background(), LoginRequest{Email: tc.email, Password: tc.password})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
		})
	}
}

func TestLoginSessionStoreFailure(t *testing.T) {
	repo := &fakeUsers{user: newUser(t, "pw-123456", true)}
	svc := newTestService(t, repo, &fakeSessions{err: errors.New("redis down")})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "owner@example.com", Password: "pw-123456"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestLoginRehashesWeakHashes(t *testing.T) {
	repo := &fakeUsers{user: newUser(t, "pw-123456", true)}
	stronger := testPasswordCfg
	stronger.ArgonTime = 2
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: &fakeSessions{}, JWTConfig: testJWTCfg, PasswordConfig: stronger})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "owner@example.com", Password: "pw-123456"})
	require.NoError(t, err)
	require.NotEmpty(t, repo.rehashed)
	ok, err := security.VerifyPassword("pw-123456", repo.rehashed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLogout(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newTestService(t, &fakeUsers{}, sessions)
	require.NoError(t, svc.Logout(context.Background(), "access-1"))
	assert.Equal(t, []string{"access-1"}, sessions.revoked)

	err := svc.Logout(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRegisterFirstUserIsOwner(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.AdminUser{}))

	svc, err := NewRegisterService(db.Wrap(conn), testPasswordCfg)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterRequest{Name: "Angel", Email: "Angel@Example.com", Password: "long-enough-pw"})
	require.NoError(t, err)
	assert.Equal(t, "angel@example.com", first.Email)
	assert.Equal(t, enums.AdminRoleOwner, first.Role)

	second, err := svc.Register(ctx, RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)
	assert.Equal(t, enums.AdminRoleEditor, second.Role)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Dup", Email: "angel@example.com", Password: "long-enough-pw"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}
