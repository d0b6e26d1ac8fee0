package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// M2MTokenKey is the key used to store the M2M token in Redis
	M2MTokenKey = "m2m_token"
	// TokenExpiryBuffer is the buffer time before actual token expiry to refresh it (in seconds)
	TokenExpiryBuffer = 60
)

// TokenCache represents a cached token with its expiry time
type TokenCache struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsValid checks if the token is still valid with a buffer time before expiry
func (tc *TokenCache) IsValid() bool {
	if tc == nil || tc.Token == "" {
		return false
	}
	return time.Now().Add(TokenExpiryBuffer * time.Second).Before(tc.ExpiresAt)
}

// RedisTokenCache implements token caching using Redis
type RedisTokenCache struct {
	Client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{
		Client: client,
	}
}

// GetToken retrieves a token from the cache; nil when absent.
func (c *RedisTokenCache) GetToken(ctx context.Context) (*TokenCache, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	tokenJSON, err := c.Client.Get(ctx, M2MTokenKey).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get token from Redis: %w", err)
	}

	var cached TokenCache
	if err := json.Unmarshal([]byte(tokenJSON), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached token: %w", err)
	}
	return &cached, nil
}

// SetToken stores a token in the cache until its expiry.
func (c *RedisTokenCache) SetToken(ctx context.Context, token string, expiresIn int) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	cached := TokenCache{
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(expiresIn) * time.Second),
	}

	tokenJSON, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	ttl := time.Duration(expiresIn) * time.Second
	if err := c.Client.Set(ctx, M2MTokenKey, tokenJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token in Redis: %w", err)
	}
	return nil
}

// FetchOrRefresh returns a valid cached token, or fetches a fresh one via
// the client credentials grant and caches it.
func (c *RedisTokenCache) FetchOrRefresh(ctx context.Context, cfg M2MConfig) (string, error) {
	cached, err := c.GetToken(ctx)
	if err == nil && cached.IsValid() {
		return cached.Token, nil
	}

	token, err := GetM2MToken(cfg, httpClient())
	if err != nil {
		return "", err
	}

	// Default validity of 5 minutes when the provider omits expires_in
	if serr := c.SetToken(ctx, token, 300); serr != nil {
		return token, nil
	}
	return token, nil
}
