package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalog-api/backend/internal/logger"
	"github.com/catalog-api/backend/internal/model"
)

const testSecret = "test-secret"

var t0 = time.Unix(1_700_000_000, 0)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func signToken(t *testing.T, id int64, role model.Role, iat, exp time.Time) string {
	t.Helper()
	return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), tokenClaims{
		ID:   id,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
}

func newTestVerifier(store IdentityStore, now time.Time) *Verifier {
	return NewVerifier([]byte(testSecret), store, logger.NewNop()).WithClock(fixedClock(now))
}

func TestVerifyBearerToken(t *testing.T) {
	valid := signToken(t, 7, model.RoleUser, t0, t0.Add(24*time.Hour))

	tests := []struct {
		name  string
		token string
		now   time.Time
		want  FailureReason
	}{
		{name: "valid", token: valid, now: t0.Add(10 * time.Second), want: ReasonNone},
		{name: "expired", token: valid, now: t0.Add(90000 * time.Second), want: ReasonExpiredCredential},
		{name: "expires exactly now", token: valid, now: t0.Add(24 * time.Hour), want: ReasonExpiredCredential},
		{name: "garbage", token: "not-a-token", now: t0, want: ReasonMalformedCredential},
		{name: "bad base64 segment", token: "a.b.c", now: t0, want: ReasonMalformedCredential},
		{
			name:  "wrong secret",
			token: signClaims(t, jwt.SigningMethodHS256, []byte("other"), tokenClaims{ID: 7, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(t0), ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))}}),
			now:   t0,
			want:  ReasonInvalidSignature,
		},
		{
			name:  "alg none",
			token: signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, tokenClaims{ID: 7, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(t0), ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))}}),
			now:   t0,
			want:  ReasonInvalidSignature,
		},
		{
			name:  "tampered payload",
			token: tamperPayload(t, valid),
			now:   t0,
			want:  ReasonInvalidSignature,
		},
		{
			name:  "missing id",
			token: signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), tokenClaims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(t0), ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))}}),
			now:   t0,
			want:  ReasonMalformedCredential,
		},
		{
			name:  "missing exp",
			token: signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), tokenClaims{ID: 7, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(t0)}}),
			now:   t0,
			want:  ReasonMalformedCredential,
		},
		{
			name:  "iat not before exp",
			token: signToken(t, 7, model.RoleUser, t0, t0),
			now:   t0.Add(-time.Hour),
			want:  ReasonMalformedCredential,
		},
		{
			name:  "malformed beats expired",
			token: signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), tokenClaims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(t0), ExpiresAt: jwt.NewNumericDate(t0.Add(time.Second))}}),
			now:   t0.Add(time.Hour),
			want:  ReasonMalformedCredential,
		},
		{
			name:  "bad signature beats expired",
			token: signClaims(t, jwt.SigningMethodHS256, []byte("other"), tokenClaims{ID: 7, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(t0), ExpiresAt: jwt.NewNumericDate(t0.Add(time.Second))}}),
			now:   t0.Add(time.Hour),
			want:  ReasonInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier(newFakeUserStore(), tt.now)
			decoded, reason := v.VerifyBearerToken(tt.token)
			assert.Equal(t, tt.want, reason)
			if tt.want == ReasonNone {
				assert.Equal(t, int64(7), decoded.ID)
				assert.Equal(t, model.RoleUser, decoded.Role)
				assert.Equal(t, t0.Unix(), decoded.IssuedAt)
				assert.Equal(t, t0.Add(24*time.Hour).Unix(), decoded.ExpiresAt)
			} else {
				assert.Equal(t, DecodedToken{}, decoded)
			}
		})
	}
}

func tamperPayload(t *testing.T, token string) string {
	t.Helper()
	other := signToken(t, 8, model.RoleAdmin, t0, t0.Add(24*time.Hour))
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	require.Len(t, parts, 3)
	return parts[0] + "." + otherParts[1] + "." + parts[2]
}

func TestDigestAPIKey(t *testing.T) {
	first := DigestAPIKey("key-one")
	assert.Equal(t, first, DigestAPIKey("key-one"))
	assert.Len(t, first, 64)

	seen := make(map[string]string)
	for i := 0; i < 200; i++ {
		raw, err := newAPIKey()
		require.NoError(t, err)
		digest := DigestAPIKey(raw)
		prev, dup := seen[digest]
		require.False(t, dup, "digest collision between %q and %q", prev, raw)
		seen[digest] = raw
	}
}

func TestResolveAPIKey(t *testing.T) {
	digest := DigestAPIKey("raw-key")
	future := t0.Add(time.Hour)
	past := t0.Add(-time.Hour)

	tests := []struct {
		name    string
		key     string
		expires *time.Time
		err     error
		want    FailureReason
	}{
		{name: "valid", key: "raw-key", expires: &future, want: ReasonNone},
		{name: "unknown digest", key: "other-key", expires: &future, want: ReasonInvalidAPIKey},
		{name: "expired", key: "raw-key", expires: &past, want: ReasonExpiredAPIKey},
		{name: "expires exactly now", key: "raw-key", expires: &t0, want: ReasonExpiredAPIKey},
		{name: "no expiry recorded", key: "raw-key", expires: nil, want: ReasonInvalidAPIKey},
		{name: "store failure", key: "raw-key", expires: &future, err: errors.New("connection reset"), want: ReasonUnknownIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeUserStore(model.User{
				ID:              3,
				Role:            model.RoleUser,
				Active:          true,
				APIKeyDigest:    &digest,
				APIKeyExpiresAt: tt.expires,
			})
			store.err = tt.err

			user, reason := newTestVerifier(store, t0).ResolveAPIKey(context.Background(), tt.key)
			assert.Equal(t, tt.want, reason)
			if tt.want == ReasonNone {
				require.NotNil(t, user)
				assert.Equal(t, int64(3), user.ID)
			} else {
				assert.Nil(t, user)
			}
		})
	}
}

func TestLoadIdentityByID(t *testing.T) {
	store := newFakeUserStore(model.User{ID: 7, Role: model.RoleUser, Active: true})
	v := newTestVerifier(store, t0)

	user, reason := v.LoadIdentityByID(context.Background(), 7)
	assert.Equal(t, ReasonNone, reason)
	assert.Equal(t, int64(7), user.ID)

	user, reason = v.LoadIdentityByID(context.Background(), 8)
	assert.Equal(t, ReasonUnknownIdentity, reason)
	assert.Nil(t, user)

	store.err = errors.New("pool closed")
	_, reason = v.LoadIdentityByID(context.Background(), 7)
	assert.Equal(t, ReasonUnknownIdentity, reason)
}

func TestIsStale(t *testing.T) {
	changed := t0.Add(50 * time.Second)
	sameSecond := t0.Add(500 * time.Millisecond)

	assert.False(t, IsStale(&model.User{}, t0.Unix()))
	assert.False(t, IsStale(nil, t0.Unix()))
	assert.True(t, IsStale(&model.User{PasswordChangedAt: &changed}, t0.Unix()))
	assert.False(t, IsStale(&model.User{PasswordChangedAt: &changed}, changed.Unix()))
	assert.False(t, IsStale(&model.User{PasswordChangedAt: &sameSecond}, t0.Unix()))
}
