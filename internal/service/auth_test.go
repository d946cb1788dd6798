package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/catalog-api/backend/internal/config"
	"github.com/catalog-api/backend/internal/model"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:    testSecret,
		JWTExpiresIn: 24 * time.Hour,
		APIKeyTTL:    90 * 24 * time.Hour,
		BcryptCost:   bcrypt.MinCost,
	}
}

func newTestAuthService(t *testing.T, store UserStore, now time.Time) *AuthService {
	t.Helper()
	svc, err := NewAuthService(store, testAuthConfig(), false)
	require.NoError(t, err)
	svc.now = fixedClock(now)
	return svc
}

func TestNewAuthService_Config(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AuthConfig)
	}{
		{name: "missing secret", mutate: func(c *config.AuthConfig) { c.JWTSecret = "" }},
		{name: "zero token ttl", mutate: func(c *config.AuthConfig) { c.JWTExpiresIn = 0 }},
		{name: "zero key ttl", mutate: func(c *config.AuthConfig) { c.APIKeyTTL = 0 }},
		{name: "bcrypt cost too high", mutate: func(c *config.AuthConfig) { c.BcryptCost = 99 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAuthConfig()
			tt.mutate(&cfg)
			_, err := NewAuthService(newFakeUserStore(), cfg, false)
			assert.ErrorIs(t, err, ErrMisconfigured)
		})
	}
}

func registerRequest(email string, role model.Role) model.RegisterRequest {
	return model.RegisterRequest{
		Name:            "Jane Doe",
		Email:           email,
		Password:        "password123",
		PasswordConfirm: "password123",
		Role:            role,
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, t0)

	user, err := svc.Register(ctx, registerRequest(" Jane@Example.com ", model.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role, "role is ignored outside test mode")
	assert.True(t, user.Active)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err = svc.Register(ctx, registerRequest("jane@example.com", ""))
	assert.ErrorIs(t, err, ErrConflict)

	svc.allowRoleOnSignup = true
	admin, err := svc.Register(ctx, registerRequest("admin@example.com", model.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Now())

	registered, err := svc.Register(ctx, registerRequest("jane@example.com", ""))
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "JANE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	decoded, reason := NewVerifier([]byte(testSecret), store, nil).VerifyBearerToken(token)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, registered.ID, decoded.ID)
	assert.Equal(t, model.RoleUser, decoded.Role)
	assert.Equal(t, int64(86400), decoded.ExpiresAt-decoded.IssuedAt)

	_, _, err = svc.Login(ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrUnauthorized)

	store.users[registered.ID].Active = false
	_, _, err = svc.Login(ctx, "jane@example.com", "password123")
	assert.ErrorIs(t, err, ErrUnauthorized)

	store.err = errors.New("db down")
	_, _, err = svc.Login(ctx, "jane@example.com", "password123")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_ChangePasswordInvalidatesOldTokens(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, t0)

	registered, err := svc.Register(ctx, registerRequest("jane@example.com", ""))
	require.NoError(t, err)
	_, oldToken, err := svc.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	_, _, err = svc.ChangePassword(ctx, registered.ID, model.ChangePasswordRequest{
		CurrentPassword: "wrong",
		Password:        "newpassword1",
		PasswordConfirm: "newpassword1",
	})
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	later := t0.Add(time.Hour)
	svc.now = fixedClock(later)
	updated, newToken, err := svc.ChangePassword(ctx, registered.ID, model.ChangePasswordRequest{
		CurrentPassword: "password123",
		Password:        "newpassword1",
		PasswordConfirm: "newpassword1",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PasswordChangedAt)
	assert.Equal(t, later.Add(-time.Second), *updated.PasswordChangedAt)

	p := newTestPipeline(store, later.Add(time.Second), nil)
	assert.Equal(t, ReasonStalePasswordToken, p.Authenticate(bearerRequest(oldToken), SchemeBearer).Reason)
	assert.True(t, p.Authenticate(bearerRequest(newToken), SchemeBearer).Authenticated())

	_, _, err = svc.Login(ctx, "jane@example.com", "newpassword1")
	assert.NoError(t, err)
}

func TestAuthService_IssueAPIKey(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore(
		model.User{ID: 1, Role: model.RoleUser, Active: true},
		model.User{ID: 2, Role: model.RoleUser, Active: false},
	)
	svc := newTestAuthService(t, store, t0)

	first, err := svc.IssueAPIKey(ctx, 1)
	require.NoError(t, err)
	second, err := svc.IssueAPIKey(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)

	v := newTestVerifier(store, t0)
	_, reason := v.ResolveAPIKey(ctx, first.Key)
	assert.Equal(t, ReasonInvalidAPIKey, reason, "reissuing replaces the previous key")
	user, reason := v.ResolveAPIKey(ctx, second.Key)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, int64(1), user.ID)

	_, err = svc.IssueAPIKey(ctx, 2)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.IssueAPIKey(ctx, 3)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, t0)

	assert.ErrorIs(t, svc.EnsureAdmin(ctx, "", "secret", "Admin"), ErrMisconfigured)

	require.NoError(t, svc.EnsureAdmin(ctx, "Admin@Example.com", "supersecret", "Admin"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "supersecret", "Admin"))
	assert.Len(t, store.users, 1)

	admin, err := store.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, admin.Active)
}
