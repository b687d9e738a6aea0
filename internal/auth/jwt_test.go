package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_Verify(t *testing.T) {
	iss := newTestIssuer(t)
	v := iss.verifier()
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.Verify(ctx, iss.sign(t, iss.claims(userID.String())))
		require.NoError(t, err)

		got, err := claims.UserID()
		require.NoError(t, err)
		require.Equal(t, userID, got)
		require.Equal(t, "jan@acme.test", claims.Email)
	})

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := iss.claims(userID.String())
				c.Issuer = "https://evil.test"
				return iss.sign(t, c)
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				c := iss.claims(userID.String())
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return iss.sign(t, c)
			},
		},
		{
			name: "missing exp",
			token: func(t *testing.T) string {
				c := iss.claims(userID.String())
				c.ExpiresAt = nil
				return iss.sign(t, c)
			},
		},
		{
			name: "subject is not a user id",
			token: func(t *testing.T) string {
				return iss.sign(t, iss.claims("user123"))
			},
		},
		{
			name: "hmac signed",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, iss.claims(userID.String()))
				token.Header["kid"] = iss.kid
				signed, err := token.SignedString([]byte("secret-secret-secret-secret-secret"))
				require.NoError(t, err)
				return signed
			},
		},
		{
			name: "signed by another key",
			token: func(t *testing.T) string {
				other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
				require.NoError(t, err)
				token := jwt.NewWithClaims(jwt.SigningMethodES256, iss.claims(userID.String()))
				token.Header["kid"] = iss.kid
				signed, err := token.SignedString(other)
				require.NoError(t, err)
				return signed
			},
		},
		{
			name: "unknown kid",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodES256, iss.claims(userID.String()))
				token.Header["kid"] = "key-2"
				signed, err := token.SignedString(iss.key)
				require.NoError(t, err)
				return signed
			},
		},
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "invalid.token.here" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Verify(ctx, tt.token(t))
			require.ErrorIs(t, err, ErrInvalidToken)
			require.Nil(t, claims)
		})
	}
}

func TestJWTVerifier_audience(t *testing.T) {
	iss := newTestIssuer(t)
	v := NewJWTVerifier(VerifierConfig{Issuer: iss.url(), Audience: "ledenhub"}, NewJWKSCache(iss.srv.Client(), 0))
	ctx := context.Background()

	c := iss.claims(uuid.Must(uuid.NewV7()).String())
	_, err := v.Verify(ctx, iss.sign(t, c))
	require.ErrorIs(t, err, ErrInvalidToken)

	c.Audience = jwt.ClaimStrings{"ledenhub"}
	_, err = v.Verify(ctx, iss.sign(t, c))
	require.NoError(t, err)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc", token: "abc", ok: true},
		{header: "bearer abc", token: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer", ok: false},
		{header: "Bearer  ", ok: false},
	}

	for _, tt := range tests {
		token, ok := extractBearerToken(tt.header)
		require.Equal(t, tt.ok, ok, tt.header)
		require.Equal(t, tt.token, token, tt.header)
	}
}
