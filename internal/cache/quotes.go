// Package cache keeps each session's latest rate result in Redis so a quote
// screen can be re-rendered without hitting the collaborator again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shipdesk/intake/pkg/models"
)

// ErrMiss means no cached result exists for the session.
var ErrMiss = errors.New("no cached quote result")

type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQuoteCache(addr, password string, db int, ttl time.Duration) *QuoteCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &QuoteCache{client: client, ttl: ttl}
}

func (c *QuoteCache) key(sessionID string) string {
	return "quotes:" + sessionID
}

// Set stores the latest rate result for a session, replacing any previous one.
func (c *QuoteCache) Set(ctx context.Context, sessionID string, result models.RateResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(sessionID), data, c.ttl).Err()
}

func (c *QuoteCache) Get(ctx context.Context, sessionID string) (*models.RateResult, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var result models.RateResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete drops the cached result, called when the form is edited or the
// session resets.
func (c *QuoteCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

func (c *QuoteCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *QuoteCache) Close() error {
	return c.client.Close()
}
