package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// PublicKeyCache provides the identity provider's signing keys by kid.
type PublicKeyCache interface {
	GetKey(ctx context.Context, jwksURL, kid string) (*ecdsa.PublicKey, error)
}

// minRefetchInterval bounds how often an unknown kid can trigger a refetch of the same
// JWKS document.
const minRefetchInterval = time.Minute

// JWKSCache implements PublicKeyCache by fetching JWKS documents over HTTP and keeping
// the parsed keys for ttl.
type JWKSCache struct {
	httpClient *http.Client
	ttl        time.Duration
	minRefetch time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedJWKS
}

type cachedJWKS struct {
	keys      map[string]*ecdsa.PublicKey // kid → public key
	fetchedAt time.Time
	expiresAt time.Time
}

// NewJWKSCache creates a key cache. A nil client gets a plain client with a 10s timeout
// and a ttl of zero or less defaults to one hour.
func NewJWKSCache(httpClient *http.Client, ttl time.Duration) *JWKSCache {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &JWKSCache{
		httpClient: httpClient,
		ttl:        ttl,
		minRefetch: minRefetchInterval,
		cache:      make(map[string]*cachedJWKS),
	}
}

// GetKey returns the key for kid, refetching the JWKS when the cached copy has expired or
// does not know the kid (key rotation). Unknown kids refetch at most once per
// minRefetch for each URL.
func (c *JWKSCache) GetKey(ctx context.Context, jwksURL, kid string) (*ecdsa.PublicKey, error) {
	c.mu.RLock()
	cached, ok := c.cache[jwksURL]
	c.mu.RUnlock()

	if ok && time.Now().Before(cached.expiresAt) {
		if key, ok := cached.keys[kid]; ok {
			log.Debug().Str("kid", kid).Msg("JWKS cache hit")
			return key, nil
		}
		if time.Since(cached.fetchedAt) < c.minRefetch {
			return nil, fmt.Errorf("kid not found in JWKS: %s", kid)
		}
	}

	keys, err := c.fetch(ctx, jwksURL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c.mu.Lock()
	c.cache[jwksURL] = &cachedJWKS{
		keys:      keys,
		fetchedAt: now,
		expiresAt: now.Add(c.ttl),
	}
	c.mu.Unlock()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("kid not found in JWKS: %s", kid)
	}

	log.Info().Str("kid", kid).Int("total_keys", len(keys)).Msg("Cached JWKS")
	return key, nil
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

func (c *JWKSCache) fetch(ctx context.Context, jwksURL string) (map[string]*ecdsa.PublicKey, error) {
	log.Debug().Str("jwks_url", jwksURL).Msg("Fetching JWKS")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed: %s", resp.Status)
	}

	var jwks struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*ecdsa.PublicKey, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		if jwk.Kid == "" {
			log.Warn().Msg("JWK missing kid")
			continue
		}
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}

		key, err := parseJWK(jwk)
		if err != nil {
			log.Warn().Err(err).Str("kid", jwk.Kid).Msg("Failed to parse JWK")
			continue
		}
		keys[jwk.Kid] = key
	}

	return keys, nil
}

// parseJWK converts a P-256 JWK into an ECDSA public key, rejecting points off the curve.
func parseJWK(jwk jsonWebKey) (*ecdsa.PublicKey, error) {
	if jwk.Kty != "EC" {
		return nil, fmt.Errorf("unsupported key type: %q", jwk.Kty)
	}
	if jwk.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported curve: %q", jwk.Crv)
	}

	x, err := decodeCoordinate(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("failed to decode x: %w", err)
	}
	y, err := decodeCoordinate(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to decode y: %w", err)
	}

	point := make([]byte, 0, 65)
	point = append(point, 0x04)
	point = append(point, x...)
	point = append(point, y...)

	return ecdsa.ParseUncompressedPublicKey(elliptic.P256(), point)
}

// decodeCoordinate decodes a base64url P-256 coordinate, left padding it to 32 bytes.
func decodeCoordinate(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		return nil, fmt.Errorf("coordinate too long: %d bytes", len(b))
	}
	if len(b) < 32 {
		b = append(make([]byte, 32-len(b)), b...)
	}
	return b, nil
}
