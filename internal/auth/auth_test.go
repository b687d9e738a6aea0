package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// testIssuer is a minimal identity provider publishing one P-256 key.
type testIssuer struct {
	key      *ecdsa.PrivateKey
	kid      string
	srv      *httptest.Server
	jwksHits atomic.Int32
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	iss := &testIssuer{key: key, kid: "key-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		iss.jwksHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []any{publicJWK(t, &iss.key.PublicKey, iss.kid)},
		})
	})
	iss.srv = httptest.NewServer(mux)
	t.Cleanup(iss.srv.Close)

	return iss
}

func (i *testIssuer) url() string { return i.srv.URL }

func (i *testIssuer) sign(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = i.kid
	signed, err := token.SignedString(i.key)
	require.NoError(t, err)
	return signed
}

func (i *testIssuer) claims(subject string) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.url(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "jan@acme.test",
	}
}

func (i *testIssuer) verifier() *JWTVerifier {
	return NewJWTVerifier(VerifierConfig{Issuer: i.url()}, NewJWKSCache(i.srv.Client(), time.Hour))
}

func publicJWK(t *testing.T, pub *ecdsa.PublicKey, kid string) map[string]string {
	t.Helper()
	point, err := pub.Bytes()
	require.NoError(t, err)
	require.Len(t, point, 65)

	return map[string]string{
		"kty": "EC",
		"crv": "P-256",
		"use": "sig",
		"kid": kid,
		"x":   base64.RawURLEncoding.EncodeToString(point[1:33]),
		"y":   base64.RawURLEncoding.EncodeToString(point[33:]),
	}
}
