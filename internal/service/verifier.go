package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/catalog-api/backend/internal/logger"
	"github.com/catalog-api/backend/internal/model"
)

// IdentityStore is the read side of the user store used by the auth pipeline.
// Both lookups return model.ErrNotFound when no user matches.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByAPIKeyDigest(ctx context.Context, digest string) (*model.User, error)
}

// DecodedToken holds the verified claims of a bearer token. Times are epoch seconds.
type DecodedToken struct {
	ID        int64
	Role      model.Role
	IssuedAt  int64
	ExpiresAt int64
}

type tokenClaims struct {
	ID   int64      `json:"id"`
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

var signingMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// Verifier turns credentials into identities. It holds only read-only state
// and is safe for concurrent use.
type Verifier struct {
	secret []byte
	store  IdentityStore
	now    func() time.Time
	logger *logger.Logger
}

func NewVerifier(secret []byte, store IdentityStore, lg *logger.Logger) *Verifier {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Verifier{
		secret: secret,
		store:  store,
		now:    time.Now,
		logger: lg,
	}
}

// WithClock returns a copy of v that reads the current time from now.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	cp := *v
	cp.now = now
	return &cp
}

// VerifyBearerToken checks structure, then signature, then expiry; the first
// failing check is the reported reason.
func (v *Verifier) VerifyBearerToken(tokenStr string) (DecodedToken, FailureReason) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, v.keyFunc,
		jwt.WithValidMethods(signingMethods),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return DecodedToken{}, classifyTokenError(err)
	}

	if claims.ID <= 0 || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return DecodedToken{}, ReasonMalformedCredential
	}
	iat, exp := claims.IssuedAt.Unix(), claims.ExpiresAt.Unix()
	if iat >= exp {
		return DecodedToken{}, ReasonMalformedCredential
	}

	validator := jwt.NewValidator(jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())
	if err := validator.Validate(claims); err != nil {
		return DecodedToken{}, classifyTokenError(err)
	}

	return DecodedToken{
		ID:        claims.ID,
		Role:      claims.Role,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, ReasonNone
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrUnauthorized
	}
	return v.secret, nil
}

func classifyTokenError(err error) FailureReason {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformedCredential
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ReasonExpiredCredential
	default:
		return ReasonMalformedCredential
	}
}

// DigestAPIKey is the SHA-256 hex digest under which API keys are stored.
func DigestAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ResolveAPIKey looks a raw key up by digest. A digest that matches nothing is
// ReasonInvalidAPIKey; a match whose expiry is at or before now is ReasonExpiredAPIKey.
func (v *Verifier) ResolveAPIKey(ctx context.Context, apiKey string) (*model.User, FailureReason) {
	user, err := v.store.GetUserByAPIKeyDigest(ctx, DigestAPIKey(apiKey))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ReasonInvalidAPIKey
		}
		v.logger.Error("Verifier: api key lookup failed", "error", err)
		return nil, ReasonUnknownIdentity
	}

	if user.APIKeyExpiresAt == nil {
		return nil, ReasonInvalidAPIKey
	}
	if !user.APIKeyExpiresAt.After(v.now()) {
		return nil, ReasonExpiredAPIKey
	}
	return user, ReasonNone
}

func (v *Verifier) LoadIdentityByID(ctx context.Context, id int64) (*model.User, FailureReason) {
	user, err := v.store.GetUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			v.logger.Error("Verifier: identity lookup failed", "user_id", id, "error", err)
		}
		return nil, ReasonUnknownIdentity
	}
	return user, ReasonNone
}

// IsStale reports whether the password changed after the token was issued.
func IsStale(user *model.User, issuedAt int64) bool {
	if user == nil || user.PasswordChangedAt == nil {
		return false
	}
	return user.PasswordChangedAt.Unix() > issuedAt
}
