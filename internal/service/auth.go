package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/catalog-api/backend/internal/config"
	"github.com/catalog-api/backend/internal/model"
)

const apiKeyBytes = 32

// UserStore is the full user repository used by the account operations.
type UserStore interface {
	IdentityStore
	CreateUser(ctx context.Context, user model.User) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string, changedAt time.Time) (*model.User, error)
	SetAPIKey(ctx context.Context, userID int64, digest string, expiresAt time.Time) error
}

type AuthService struct {
	repo              UserStore
	jwtSecret         []byte
	accessTTL         time.Duration
	apiKeyTTL         time.Duration
	bcryptCost        int
	allowRoleOnSignup bool
	now               func() time.Time
}

func NewAuthService(repo UserStore, cfg config.AuthConfig, allowRoleOnSignup bool) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}
	if cfg.JWTExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: invalid JWT_EXPIRES_IN", ErrMisconfigured)
	}
	if cfg.APIKeyTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid API_KEY_TTL", ErrMisconfigured)
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: invalid BCRYPT_COST", ErrMisconfigured)
	}

	return &AuthService{
		repo:              repo,
		jwtSecret:         []byte(cfg.JWTSecret),
		accessTTL:         cfg.JWTExpiresIn,
		apiKeyTTL:         cfg.APIKeyTTL,
		bcryptCost:        cost,
		allowRoleOnSignup: allowRoleOnSignup,
		now:               time.Now,
	}, nil
}

func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: ADMIN_EMAIL/ADMIN_PASSWORD are required", ErrMisconfigured)
	}

	email = normalizeEmail(email)
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return err
	}

	_, err = s.repo.CreateUser(ctx, model.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Active:       true,
	})
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

// Register creates an active account. The requested role is only honoured when
// the service was built with allowRoleOnSignup; everyone else becomes a user.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	role := model.RoleUser
	if s.allowRoleOnSignup && req.Role != "" {
		if !req.Role.IsValid() {
			return nil, ErrInvalidInput
		}
		role = req.Role
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, model.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return user, nil
}

// Login returns ErrUnauthorized for an unknown email, an inactive account or a
// wrong password alike.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, "", ErrUnauthorized
		}
		return nil, "", err
	}
	if !user.Active {
		return nil, "", ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrUnauthorized
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ChangePassword stores the new hash and returns a fresh token. Tokens issued
// before the change stop authenticating.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) (*model.User, string, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return nil, "", ErrIncorrectPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	// Backdated one second so the token issued below is not already stale.
	changedAt := s.now().Add(-time.Second)
	updated, err := s.repo.UpdatePassword(ctx, user.ID, string(hash), changedAt)
	if err != nil {
		return nil, "", err
	}

	token, err := s.generateAccessToken(updated)
	if err != nil {
		return nil, "", err
	}
	return updated, token, nil
}

// IssueAPIKey replaces the user's API key. Only the digest is stored; the raw
// key in the result cannot be recovered later.
func (s *AuthService) IssueAPIKey(ctx context.Context, userID int64) (model.IssuedAPIKey, error) {
	raw, err := newAPIKey()
	if err != nil {
		return model.IssuedAPIKey{}, err
	}

	expiresAt := s.now().Add(s.apiKeyTTL)
	if err := s.repo.SetAPIKey(ctx, userID, DigestAPIKey(raw), expiresAt); err != nil {
		return model.IssuedAPIKey{}, err
	}

	return model.IssuedAPIKey{Key: raw, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) generateAccessToken(user *model.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		ID:   user.ID,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func newAPIKey() (string, error) {
	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
