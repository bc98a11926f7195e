package cache

import (
	"testing"
	"time"
)

func TestQuoteKeyIsNamespacedBySession(t *testing.T) {
	c := &QuoteCache{}

	cases := []struct {
		name      string
		sessionID string
		key       string
	}{
		{"plain_id", "sess-1", "quotes:sess-1"},
		{"uuid_id", "b2f7c3a0-9a1e-4f7d-8a66-0d3f9f1c2e44", "quotes:b2f7c3a0-9a1e-4f7d-8a66-0d3f9f1c2e44"},
		{"empty_id", "", "quotes:"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.key(tc.sessionID); got != tc.key {
				t.Errorf("key(%q) = %q, expected %q", tc.sessionID, got, tc.key)
			}
		})
	}
}

func TestNewQuoteCacheKeepsTTL(t *testing.T) {
	c := NewQuoteCache("localhost:6379", "", 0, 15*time.Minute)
	defer c.Close()

	if c.ttl != 15*time.Minute {
		t.Errorf("ttl = %v, expected 15m", c.ttl)
	}
}
