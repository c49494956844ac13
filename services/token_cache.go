package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2/google"

	"github.com/ywy929/assay-dashboard-backend/config"
)

// Provider identifies a push provider whose credentials are cached.
type Provider string

const (
	ProviderAPNS Provider = "apns"
	ProviderFCM  Provider = "fcm"
)

// ErrCredentialGeneration wraps any failure to produce a signed provider
// credential (missing key file, malformed service account, signing error).
var ErrCredentialGeneration = errors.New("credential generation failed")

// Provider tokens are valid for about an hour; regenerate after 50 minutes
// so a token is never handed out near expiry.
const tokenRefreshThreshold = 3000 * time.Second

// GeneratorFunc produces a fresh signed credential for a provider.
type GeneratorFunc func() (string, error)

type tokenEntry struct {
	value       string
	generatedAt time.Time
}

// TokenCache holds one short-lived signed credential per provider and
// regenerates it lazily once it passes the refresh threshold. Safe for
// concurrent use; regeneration is serialized per cache.
type TokenCache struct {
	mu         sync.Mutex
	entries    map[Provider]tokenEntry
	generators map[Provider]GeneratorFunc
	now        func() time.Time
}

func NewTokenCache() *TokenCache {
	return &TokenCache{
		entries: make(map[Provider]tokenEntry),
		generators: map[Provider]GeneratorFunc{
			ProviderAPNS: apnsProviderToken,
			ProviderFCM:  fcmAccessToken,
		},
		now: time.Now,
	}
}

// Register replaces the generator for a provider. Used by tests and by
// callers that need non-default credential sources.
func (c *TokenCache) Register(p Provider, gen GeneratorFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generators[p] = gen
	delete(c.entries, p)
}

// Get returns the cached credential for the provider, regenerating it on
// first use or once it is older than the refresh threshold.
func (c *TokenCache) Get(p Provider) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[p]; ok && c.now().Sub(entry.generatedAt) <= tokenRefreshThreshold {
		return entry.value, nil
	}

	gen, ok := c.generators[p]
	if !ok {
		return "", fmt.Errorf("%w: no generator for provider %q", ErrCredentialGeneration, p)
	}
	value, err := gen()
	if err != nil {
		return "", err
	}
	c.entries[p] = tokenEntry{value: value, generatedAt: c.now()}
	return value, nil
}

// apnsProviderToken signs an ES256 provider token with the APNs auth key.
func apnsProviderToken() (string, error) {
	pemData, err := os.ReadFile(config.APNSKeyPath)
	if err != nil {
		return "", fmt.Errorf("%w: reading APNs key: %v", ErrCredentialGeneration, err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemData)
	if err != nil {
		return "", fmt.Errorf("%w: parsing APNs key: %v", ErrCredentialGeneration, err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": config.APNSTeamID,
		"iat": time.Now().Unix(),
	})
	token.Header["kid"] = config.APNSKeyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: signing APNs token: %v", ErrCredentialGeneration, err)
	}
	return signed, nil
}

// fcmAccessToken exchanges the service account for an OAuth2 bearer token
// scoped to the FCM v1 API.
func fcmAccessToken() (string, error) {
	data, err := os.ReadFile(config.FCMServiceAccountPath)
	if err != nil {
		return "", fmt.Errorf("%w: reading FCM service account: %v", ErrCredentialGeneration, err)
	}
	conf, err := google.JWTConfigFromJSON(data, "https://www.googleapis.com/auth/firebase.messaging")
	if err != nil {
		return "", fmt.Errorf("%w: parsing FCM service account: %v", ErrCredentialGeneration, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	tok, err := conf.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("%w: exchanging FCM credentials: %v", ErrCredentialGeneration, err)
	}
	return tok.AccessToken, nil
}
